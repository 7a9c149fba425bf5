package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductResponse sortie d'un produit. remaining = solde de la réserve brute.
type ProductResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	PurchasedQty  decimal.Decimal `json:"purchased_qty"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	Remaining     decimal.Decimal `json:"remaining"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductListResponse liste paginée de produits.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
