package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product représente une matière première ou un produit fini.
// Remaining est le solde de la réserve brute (raw); les autres réserves sont dans StockEntry.
type Product struct {
	ID            string
	Name          string
	Unit          string          // kg, l, pièce...
	PurchasePrice decimal.Decimal // prix d'achat total de la quantité achetée
	PurchasedQty  decimal.Decimal // quantité achetée cumulée
	Remaining     decimal.Decimal // quantité restante en réserve brute
	SalePrice     decimal.Decimal // prix de vente (0 = non défini)
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UnitCost coût unitaire = prix d'achat ÷ quantité achetée (0 si aucune quantité).
func (p *Product) UnitCost() decimal.Decimal {
	if p == nil || p.PurchasedQty.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return p.PurchasePrice.Div(p.PurchasedQty)
}
