package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType type de mouvement de stock.
type MovementType string

const (
	MovementEntree          MovementType = "entree"
	MovementSortie          MovementType = "sortie"
	MovementTransfert       MovementType = "transfert"
	MovementVente           MovementType = "vente"
	MovementAnnulationVente MovementType = "annulation_vente"
	MovementAjustement      MovementType = "ajustement"
)

// ParseMovementType valide un type de mouvement.
func ParseMovementType(s string) (MovementType, bool) {
	switch t := MovementType(s); t {
	case MovementEntree, MovementSortie, MovementTransfert, MovementVente, MovementAnnulationVente, MovementAjustement:
		return t, true
	}
	return "", false
}

// Movement entrée d'audit immuable pour toute variation de quantité.
// Quantity est toujours positive; le sens se lit dans Before/After.
type Movement struct {
	ID        string
	ProductID string
	Type      MovementType
	Pool      Pool
	Quantity  decimal.Decimal
	Before    decimal.Decimal
	After     decimal.Decimal
	UserID    string
	Reference string // ticket, lot de production, référence de transfert
	Comment   string
	CreatedAt time.Time
}

// MovementFilter critères de l'historique des mouvements.
type MovementFilter struct {
	ProductID string
	Type      MovementType
	Pool      Pool
	Reference string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
