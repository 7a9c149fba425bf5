package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecipeLine ligne de nomenclature: quantité d'ingrédient nécessaire pour une unité de produit fini.
type RecipeLine struct {
	ID              string
	RecipeName      string // nom du produit fini
	IngredientID    string
	QuantityPerUnit decimal.Decimal
	CreatedAt       time.Time
}

// RecipeIngredient ligne de recette enrichie avec les données de l'ingrédient.
type RecipeIngredient struct {
	LineID          string
	IngredientID    string
	IngredientName  string
	Unit            string
	QuantityPerUnit decimal.Decimal
	UnitCost        decimal.Decimal
}

// Recipe nomenclature résolue d'un produit fini.
type Recipe struct {
	Name  string
	Lines []RecipeIngredient
}

// UnitCost coût des ingrédients pour une unité de produit fini.
func (r *Recipe) UnitCost() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Lines {
		total = total.Add(l.QuantityPerUnit.Mul(l.UnitCost))
	}
	return total
}
