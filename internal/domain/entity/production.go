package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statuts d'une production.
const (
	ProductionDone = "terminee"
)

// Production lot de production terminé. Immuable sauf le statut.
type Production struct {
	ID             string
	ProductID      string
	ProductName    string
	Quantity       decimal.Decimal
	Destination    Pool
	IngredientCost decimal.Decimal // instantané du coût des ingrédients consommés
	Status         string
	UserID         string
	ProducedAt     time.Time
}
