package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecipeLineRequest ajout/modification d'une ligne de recette.
type RecipeLineRequest struct {
	RecipeName      string          `json:"recipe_name"`
	IngredientID    string          `json:"ingredient_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

// RecipeLineResponse ligne de recette persistée.
type RecipeLineResponse struct {
	ID              string          `json:"id"`
	RecipeName      string          `json:"recipe_name"`
	IngredientID    string          `json:"ingredient_id"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
	CreatedAt       time.Time       `json:"created_at"`
}

// RecipeIngredientDTO ingrédient résolu.
type RecipeIngredientDTO struct {
	LineID          string          `json:"line_id"`
	IngredientID    string          `json:"ingredient_id"`
	IngredientName  string          `json:"ingredient_name"`
	Unit            string          `json:"unit"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
}

// RecipeResponse recette avec coût d'une unité.
type RecipeResponse struct {
	Name     string                `json:"name"`
	UnitCost decimal.Decimal       `json:"unit_cost"`
	Lines    []RecipeIngredientDTO `json:"lines"`
}

// RecipeSummaryDTO élément de la liste des recettes.
type RecipeSummaryDTO struct {
	Name  string `json:"name"`
	Lines int    `json:"lines"`
}

// RequirementDTO besoin d'un ingrédient.
type RequirementDTO struct {
	IngredientID   string          `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name"`
	Unit           string          `json:"unit"`
	Required       decimal.Decimal `json:"required"`
	Available      decimal.Decimal `json:"available"`
	Missing        decimal.Decimal `json:"missing"`
}

// AvailabilityResponse faisabilité d'une production.
type AvailabilityResponse struct {
	Recipe        string           `json:"recipe"`
	Quantity      decimal.Decimal  `json:"quantity"`
	CanProduce    bool             `json:"can_produce"`
	MaxProducible decimal.Decimal  `json:"max_producible"`
	Cost          decimal.Decimal  `json:"cost"`
	Requirements  []RequirementDTO `json:"requirements"`
}

// ProduceRequest body pour POST /api/productions.
type ProduceRequest struct {
	RecipeName   string           `json:"recipe_name"`
	Quantity     decimal.Decimal  `json:"quantity"`
	Destination  string           `json:"destination,omitempty"` // shop par défaut
	SellingPrice *decimal.Decimal `json:"selling_price,omitempty"`
}

// ProductionResponse lot de production.
type ProductionResponse struct {
	ID             string           `json:"id"`
	ProductID      string           `json:"product_id"`
	ProductName    string           `json:"product_name"`
	Quantity       decimal.Decimal  `json:"quantity"`
	Destination    string           `json:"destination"`
	IngredientCost decimal.Decimal  `json:"ingredient_cost"`
	Status         string           `json:"status"`
	UserID         string           `json:"user_id"`
	ProducedAt     time.Time        `json:"produced_at"`
	Requirements   []RequirementDTO `json:"requirements,omitempty"`
	Output         *LedgerChangeDTO `json:"output,omitempty"`
	PriceApplied   bool             `json:"price_applied,omitempty"`
}

// ShortfallDTO ingrédient manquant (réponse 422).
type ShortfallDTO struct {
	IngredientID string          `json:"ingredient_id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Required     decimal.Decimal `json:"required"`
	Available    decimal.Decimal `json:"available"`
	Missing      decimal.Decimal `json:"missing"`
}

// ShortfallErrorResponse erreur de production avec la liste complète des manques.
type ShortfallErrorResponse struct {
	ErrorResponse
	Shortfalls []ShortfallDTO `json:"shortfalls"`
}
