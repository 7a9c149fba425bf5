package sales

import (
	"time"

	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
)

// ShopInfo en-tête imprimé sur les tickets.
type ShopInfo struct {
	Name     string
	Address  string
	Currency string
}

// TicketRenderer produit le reçu d'une vente (PDF).
type TicketRenderer interface {
	RenderTicket(sale *entity.Sale, shop ShopInfo) ([]byte, error)
}

// TicketGenerator génère un numéro de ticket candidat; l'unicité est vérifiée à l'insertion.
type TicketGenerator func(now time.Time) string

// CancellationPolicy règles d'éligibilité configurables.
type CancellationPolicy struct {
	Window          time.Duration // âge maximal d'une vente annulable
	MinReasonLength int
}
