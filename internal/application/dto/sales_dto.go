package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItemRequest article du panier. unit_price absent: prix boutique du produit.
type SaleItemRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// CreateSaleRequest body pour POST /api/sales.
type CreateSaleRequest struct {
	Items          []SaleItemRequest `json:"items"`
	AmountTendered decimal.Decimal   `json:"amount_tendered"`
}

// SaleLineResponse ligne d'un ticket.
type SaleLineResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// SaleResponse ticket de caisse.
type SaleResponse struct {
	ID             string             `json:"id"`
	TicketNumber   string             `json:"ticket_number"`
	Lines          []SaleLineResponse `json:"lines"`
	Total          decimal.Decimal    `json:"total"`
	AmountTendered decimal.Decimal    `json:"amount_tendered"`
	Change         decimal.Decimal    `json:"change"`
	SellerID       string             `json:"seller_id"`
	Status         string             `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
}

// SaleListResponse ventes paginées.
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// CancelSaleRequest body pour POST /api/sales/:id/cancel.
type CancelSaleRequest struct {
	Reason string `json:"reason"`
}

// CancellationResponse trace d'annulation.
type CancellationResponse struct {
	ID           string          `json:"id"`
	SaleID       string          `json:"sale_id"`
	TicketNumber string          `json:"ticket_number"`
	Amount       decimal.Decimal `json:"amount"`
	Reason       string          `json:"reason"`
	CancelledBy  string          `json:"cancelled_by"`
	CancelledAt  time.Time       `json:"cancelled_at"`
}

// EligibilityResponse réponse de GET /api/sales/:id/cancellation.
type EligibilityResponse struct {
	SaleID     string `json:"sale_id"`
	Cancelable bool   `json:"cancelable"`
	Reason     string `json:"reason,omitempty"`
}

// SetPriceRequest body pour PUT /api/prices. product_id ou recipe_name.
type SetPriceRequest struct {
	ProductID  string          `json:"product_id,omitempty"`
	RecipeName string          `json:"recipe_name,omitempty"`
	Price      decimal.Decimal `json:"price"`
}

// PriceResponse prix de vente, coût et marge.
type PriceResponse struct {
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	CostSource    string          `json:"cost_source"` // purchase | recipe
	Margin        decimal.Decimal `json:"margin"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
}
