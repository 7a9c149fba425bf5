package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SalesMetrics agrégats de caisse sur une période.
type SalesMetrics struct {
	Revenue          decimal.Decimal // total des ventes validées
	Tickets          int             // nombre de ventes validées
	Cancelled        decimal.Decimal // total des ventes annulées
	CancelledTickets int
	ProductionCost   decimal.Decimal // coût des ingrédients consommés par les productions
}

// TopProduct produit classé par chiffre d'affaires.
type TopProduct struct {
	ProductID    string
	ProductName  string
	QuantitySold decimal.Decimal
	Revenue      decimal.Decimal
}

// AnalyticsRepository consultations en lecture seule pour le tableau de bord.
// Seules les ventes au statut "validee" comptent dans le chiffre d'affaires.
type AnalyticsRepository interface {
	SalesMetrics(ctx context.Context, from, to time.Time) (*SalesMetrics, error)
	// TopProducts renvoie au plus limit produits, par chiffre d'affaires décroissant.
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error)
}
