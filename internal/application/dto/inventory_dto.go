package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseRequest body pour POST /api/stock/purchases.
// product_id vide: recherche par nom puis création.
type PurchaseRequest struct {
	ProductID string          `json:"product_id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Unit      string          `json:"unit,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Supplier  string          `json:"supplier,omitempty"`
}

// PurchaseResponse produit après réception.
type PurchaseResponse struct {
	Product    ProductResponse `json:"product"`
	Created    bool            `json:"created"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	Before     decimal.Decimal `json:"before"`
	After      decimal.Decimal `json:"after"`
	MovementID string          `json:"movement_id,omitempty"`
}

// TransferRequest body pour POST /api/stock/transfers.
type TransferRequest struct {
	ProductID string          `json:"product_id"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reference string          `json:"reference,omitempty"`
	Comment   string          `json:"comment,omitempty"`
}

// LedgerChangeDTO soldes disponibles avant/après sur une réserve.
type LedgerChangeDTO struct {
	Pool   string          `json:"pool"`
	Before decimal.Decimal `json:"before"`
	After  decimal.Decimal `json:"after"`
}

// TransferResponse résultat d'un transfert.
type TransferResponse struct {
	Reference   string          `json:"reference"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Source      LedgerChangeDTO `json:"source"`
	Destination LedgerChangeDTO `json:"destination"`
	MovementIDs []string        `json:"movement_ids"`
}

// AdjustmentRequest body pour POST /api/stock/adjustments.
type AdjustmentRequest struct {
	ProductID string          `json:"product_id"`
	Pool      string          `json:"pool"`
	Counted   decimal.Decimal `json:"counted"`
	Reason    string          `json:"reason"`
}

// AdjustmentResponse écart appliqué (delta 0 = aucun changement).
type AdjustmentResponse struct {
	Delta      decimal.Decimal  `json:"delta"`
	Change     *LedgerChangeDTO `json:"change,omitempty"`
	MovementID string           `json:"movement_id,omitempty"`
}

// BalanceDTO compteurs d'une ligne de stock.
type BalanceDTO struct {
	Available decimal.Decimal `json:"available"`
	Reserved  decimal.Decimal `json:"reserved"`
	Sold      decimal.Decimal `json:"sold"`
	Used      decimal.Decimal `json:"used"`
}

// ProductBalancesResponse soldes d'un produit par réserve.
type ProductBalancesResponse struct {
	ProductID   string                `json:"product_id"`
	ProductName string                `json:"product_name"`
	Unit        string                `json:"unit"`
	Pools       map[string]BalanceDTO `json:"pools"`
}

// StockEntryResponse ligne de stock d'une réserve.
type StockEntryResponse struct {
	BalanceDTO
	ProductID   string           `json:"product_id"`
	ProductName string           `json:"product_name"`
	Pool        string           `json:"pool"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// StockListResponse lignes paginées d'une réserve.
type StockListResponse struct {
	Pool  string               `json:"pool"`
	Label string               `json:"label"`
	Items []StockEntryResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}

// PoolSummaryResponse agrégats d'une réserve.
type PoolSummaryResponse struct {
	Pool           string          `json:"pool"`
	Label          string          `json:"label"`
	Products       int             `json:"products"`
	TotalAvailable decimal.Decimal `json:"total_available"`
	LowStock       int             `json:"low_stock"`
	OutOfStock     int             `json:"out_of_stock"`
}

// MovementResponse entrée du journal des mouvements.
type MovementResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Type      string          `json:"type"`
	Pool      string          `json:"pool"`
	Quantity  decimal.Decimal `json:"quantity"`
	Before    decimal.Decimal `json:"before"`
	After     decimal.Decimal `json:"after"`
	UserID    string          `json:"user_id"`
	Reference string          `json:"reference,omitempty"`
	Comment   string          `json:"comment,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// MovementListResponse historique paginé.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ReconcileResponse écart entre solde et journal.
type ReconcileResponse struct {
	ProductID    string            `json:"product_id"`
	Pool         string            `json:"pool"`
	Balance      decimal.Decimal   `json:"balance"`
	LastRecorded *decimal.Decimal  `json:"last_recorded,omitempty"`
	LastMovement *MovementResponse `json:"last_movement,omitempty"`
	Consistent   bool              `json:"consistent"`
}

// ReplenishmentSuggestionDTO matière première à racheter.
type ReplenishmentSuggestionDTO struct {
	ProductID          string          `json:"product_id"`
	ProductName        string          `json:"product_name"`
	Unit               string          `json:"unit"`
	Remaining          decimal.Decimal `json:"remaining"`
	ConsumedLastDays   decimal.Decimal `json:"consumed_last_days"`
	DailyConsumption   decimal.Decimal `json:"daily_consumption"`
	DaysOfCover        decimal.Decimal `json:"days_of_cover"`
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	Priority           int             `json:"priority"`             // 1 = plus urgent
}
