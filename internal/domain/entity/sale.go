package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statuts d'une vente. validee -> annulee une seule fois.
const (
	SaleValidated = "validee"
	SaleCancelled = "annulee"
)

// Sale ticket de caisse finalisé.
type Sale struct {
	ID             string
	TicketNumber   string
	Lines          []SaleLine
	Total          decimal.Decimal
	AmountTendered decimal.Decimal
	Change         decimal.Decimal
	SellerID       string
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SaleLine ligne d'un ticket.
type SaleLine struct {
	ID          string
	SaleID      string
	ProductID   string
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// Age âge de la vente à l'instant now.
func (s *Sale) Age(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt)
}

// SaleCancellation trace immuable d'une annulation (une seule par vente).
type SaleCancellation struct {
	ID           string
	SaleID       string
	TicketNumber string
	Amount       decimal.Decimal
	Reason       string
	CancelledBy  string
	CancelledAt  time.Time
}

// SaleFilter critères de listage des ventes.
type SaleFilter struct {
	Status   string
	SellerID string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}
