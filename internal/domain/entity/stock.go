package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Pool réserve de stock physique.
type Pool string

const (
	PoolRaw      Pool = "raw"      // stock de matières premières (produits.quantite_restante)
	PoolWorkshop Pool = "workshop" // stock atelier
	PoolShop     Pool = "shop"     // stock boutique
	PoolKitchen  Pool = "kitchen"  // stock cuisine
)

// Pools toutes les réserves connues, dans l'ordre du flux.
var Pools = []Pool{PoolRaw, PoolWorkshop, PoolShop, PoolKitchen}

// ParsePool valide un nom de réserve.
func ParsePool(s string) (Pool, error) {
	switch Pool(s) {
	case PoolRaw, PoolWorkshop, PoolShop, PoolKitchen:
		return Pool(s), nil
	}
	return "", fmt.Errorf("réserve inconnue: %q", s)
}

// Label libellé affichable.
func (p Pool) Label() string {
	switch p {
	case PoolRaw:
		return "Stock matières premières"
	case PoolWorkshop:
		return "Stock atelier"
	case PoolShop:
		return "Stock boutique"
	case PoolKitchen:
		return "Stock cuisine"
	}
	return string(p)
}

// AutoCreate indique si la ligne de stock est créée à zéro lors d'une écriture sur une ligne absente.
// La boutique s'auto-initialise; atelier et cuisine exigent un crédit explicite.
func (p Pool) AutoCreate() bool {
	return p == PoolShop
}

// StockField compteur d'une ligne de stock.
type StockField string

const (
	FieldAvailable StockField = "available"
	FieldReserved  StockField = "reserved"
	FieldSold      StockField = "sold"
	FieldUsed      StockField = "used"
)

// Balance soldes d'un produit dans une réserve.
// Available est le seul compteur faisant foi; Sold et Used servent au reporting.
type Balance struct {
	Available decimal.Decimal
	Reserved  decimal.Decimal
	Sold      decimal.Decimal
	Used      decimal.Decimal
}

// StockDelta variation appliquée en une seule écriture sur une ligne de stock.
type StockDelta struct {
	Available decimal.Decimal
	Reserved  decimal.Decimal
	Sold      decimal.Decimal
	Used      decimal.Decimal
}

// DeltaFor construit un delta portant sur un seul compteur.
func DeltaFor(field StockField, delta decimal.Decimal) (StockDelta, error) {
	var d StockDelta
	switch field {
	case FieldAvailable:
		d.Available = delta
	case FieldReserved:
		d.Reserved = delta
	case FieldSold:
		d.Sold = delta
	case FieldUsed:
		d.Used = delta
	default:
		return d, fmt.Errorf("compteur inconnu: %q", field)
	}
	return d, nil
}

// StockEntry ligne de stock d'un produit dans une réserve atelier, boutique ou cuisine.
type StockEntry struct {
	ID          string
	ProductID   string
	ProductName string
	Pool        Pool
	Available   decimal.Decimal
	Reserved    decimal.Decimal
	Sold        decimal.Decimal
	Used        decimal.Decimal
	SalePrice   decimal.NullDecimal // copie dénormalisée du prix de vente (boutique)
	UpdatedAt   time.Time
}

// Balance renvoie les compteurs de la ligne.
func (s *StockEntry) Balance() Balance {
	if s == nil {
		return Balance{}
	}
	return Balance{Available: s.Available, Reserved: s.Reserved, Sold: s.Sold, Used: s.Used}
}

// Apply applique un delta en mémoire et renvoie false si available ou reserved deviendrait négatif.
// Sold et Used sont planchers à zéro.
func (s *StockEntry) Apply(d StockDelta) bool {
	available := s.Available.Add(d.Available)
	reserved := s.Reserved.Add(d.Reserved)
	if available.IsNegative() || reserved.IsNegative() {
		return false
	}
	s.Available = available
	s.Reserved = reserved
	s.Sold = decimal.Max(s.Sold.Add(d.Sold), decimal.Zero)
	s.Used = decimal.Max(s.Used.Add(d.Used), decimal.Zero)
	return true
}

// PoolSummary agrégats d'une réserve pour le tableau de bord stock.
type PoolSummary struct {
	Pool           Pool
	Products       int             // lignes actives
	TotalAvailable decimal.Decimal // somme des quantités disponibles
	LowStock       int             // lignes sous le seuil
	OutOfStock     int             // lignes à zéro
}
