package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

// IngredientRequirement besoin d'un ingrédient pour une quantité de produit fini.
type IngredientRequirement struct {
	IngredientID   string
	IngredientName string
	Unit           string
	Required       decimal.Decimal
	Available      decimal.Decimal // disponible atelier
	Missing        decimal.Decimal
	UnitCost       decimal.Decimal
}

// Availability disponibilité des ingrédients d'une recette.
type Availability struct {
	Recipe        string
	Quantity      decimal.Decimal
	Requirements  []IngredientRequirement
	CanProduce    bool
	MaxProducible decimal.Decimal // unités entières réalisables avec le stock atelier
}

// Shortfalls ingrédients manquants.
func (a *Availability) Shortfalls() []domain.IngredientShortfall {
	var out []domain.IngredientShortfall
	for _, req := range a.Requirements {
		if req.Missing.IsPositive() {
			out = append(out, domain.IngredientShortfall{
				IngredientID: req.IngredientID,
				Name:         req.IngredientName,
				Unit:         req.Unit,
				Required:     req.Required,
				Available:    req.Available,
				Missing:      req.Missing,
			})
		}
	}
	return out
}

// RecipeResolver associe un produit fini à sa nomenclature et calcule coût et disponibilité.
// Lecture seule sur le grand livre.
type RecipeResolver struct {
	ledger *Ledger
}

// NewRecipeResolver construit le résolveur.
func NewRecipeResolver(ledger *Ledger) *RecipeResolver {
	return &RecipeResolver{ledger: ledger}
}

// Resolve renvoie les lignes de la recette avec nom, unité et coût unitaire de chaque ingrédient.
func (rr *RecipeResolver) Resolve(ctx context.Context, r repository.Repos, name string) (*entity.Recipe, error) {
	lines, err := r.Recipes.ListLines(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: recette %q", domain.ErrNotFound, name)
	}
	recipe := &entity.Recipe{Name: lines[0].RecipeName, Lines: make([]entity.RecipeIngredient, 0, len(lines))}
	for _, l := range lines {
		p, err := r.Products.GetByID(ctx, l.IngredientID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: ingrédient %s de la recette %q", domain.ErrNotFound, l.IngredientID, name)
		}
		recipe.Lines = append(recipe.Lines, entity.RecipeIngredient{
			LineID:          l.ID,
			IngredientID:    p.ID,
			IngredientName:  p.Name,
			Unit:            p.Unit,
			QuantityPerUnit: l.QuantityPerUnit,
			UnitCost:        p.UnitCost(),
		})
	}
	return recipe, nil
}

// IngredientCost coût des ingrédients pour qty unités: somme de quantité par unité × qty × coût unitaire.
func (rr *RecipeResolver) IngredientCost(ctx context.Context, r repository.Repos, name string, qty decimal.Decimal) (decimal.Decimal, error) {
	recipe, err := rr.Resolve(ctx, r, name)
	if err != nil {
		return decimal.Zero, err
	}
	return recipe.UnitCost().Mul(qty), nil
}

// Availability compare les besoins au stock atelier.
func (rr *RecipeResolver) Availability(ctx context.Context, r repository.Repos, name string, qty decimal.Decimal) (*Availability, error) {
	recipe, err := rr.Resolve(ctx, r, name)
	if err != nil {
		return nil, err
	}
	return rr.availabilityOf(ctx, r, recipe, qty)
}

func (rr *RecipeResolver) availabilityOf(ctx context.Context, r repository.Repos, recipe *entity.Recipe, qty decimal.Decimal) (*Availability, error) {
	av := &Availability{Recipe: recipe.Name, Quantity: qty, CanProduce: true}
	var maxUnits *decimal.Decimal
	for _, l := range recipe.Lines {
		bal, err := rr.ledger.Balance(ctx, r, l.IngredientID, entity.PoolWorkshop)
		if err != nil {
			return nil, err
		}
		required := l.QuantityPerUnit.Mul(qty)
		missing := decimal.Zero
		if bal.Available.LessThan(required) {
			missing = required.Sub(bal.Available)
			av.CanProduce = false
		}
		av.Requirements = append(av.Requirements, IngredientRequirement{
			IngredientID:   l.IngredientID,
			IngredientName: l.IngredientName,
			Unit:           l.Unit,
			Required:       required,
			Available:      bal.Available,
			Missing:        missing,
			UnitCost:       l.UnitCost,
		})
		if l.QuantityPerUnit.IsPositive() {
			n := bal.Available.Div(l.QuantityPerUnit).Floor()
			if maxUnits == nil || n.LessThan(*maxUnits) {
				maxUnits = &n
			}
		}
	}
	if maxUnits != nil {
		av.MaxProducible = *maxUnits
	}
	return av, nil
}
