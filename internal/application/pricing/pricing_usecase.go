package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/inventory"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
	"github.com/jhoicas/boulangerie-api/pkg/logger"
)

// Sources du coût de revient.
const (
	CostFromPurchase = "purchase"
	CostFromRecipe   = "recipe"
)

// TxRunner exécute fn dans une transaction.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repos) error) error
}

// RecipeCoster coût des ingrédients d'une recette pour qty unités.
type RecipeCoster interface {
	IngredientCost(ctx context.Context, r repository.Repos, name string, qty decimal.Decimal) (decimal.Decimal, error)
}

// Invalidator vide le cache de stock après un changement de prix.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Target produit visé: par ID, ou par nom de recette (produit fini).
type Target struct {
	ProductID  string
	RecipeName string
}

// PriceInfo prix de vente et marge sur coût de revient.
type PriceInfo struct {
	ProductID     string
	ProductName   string
	Price         decimal.Decimal
	PurchaseCost  decimal.Decimal
	CostSource    string
	Margin        decimal.Decimal
	MarginPercent decimal.Decimal
}

// PricingUseCase prix de vente. Lecture libre, écriture réservée aux gérants.
// Le prix du produit et sa copie boutique sont écrits ensemble.
type PricingUseCase struct {
	tx      TxRunner
	repos   repository.Repos
	recipes RecipeCoster
	cache   Invalidator
	log     *logger.Logger
}

// NewPricingUseCase construit le cas d'usage.
func NewPricingUseCase(tx TxRunner, repos repository.Repos, recipes RecipeCoster, cache Invalidator, log *logger.Logger) *PricingUseCase {
	return &PricingUseCase{tx: tx, repos: repos, recipes: recipes, cache: cache, log: log}
}

// SetPrice fixe le prix de vente et renvoie la marge résultante.
func (uc *PricingUseCase) SetPrice(ctx context.Context, actor entity.Actor, target Target, price decimal.Decimal) (*PriceInfo, error) {
	if !actor.IsElevated() {
		return nil, domain.ErrForbidden
	}
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		p, err := findTarget(ctx, r, target)
		if err != nil {
			return err
		}
		return uc.ApplyPrice(ctx, r, actor, p.ID, price)
	})
	if err != nil {
		return nil, err
	}
	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx); err != nil {
			uc.log.Warn().Err(err).Msg("invalidation du cache de stock")
		}
	}
	info, err := uc.GetPrice(ctx, target)
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("product_id", info.ProductID).
		Str("price", price.String()).
		Str("margin", info.Margin.String()).
		Str("actor", actor.ID).
		Msg("prix de vente modifié")
	return info, nil
}

// ApplyPrice écrit le prix dans la transaction en cours: produit puis copie boutique.
func (uc *PricingUseCase) ApplyPrice(ctx context.Context, r repository.Repos, actor entity.Actor, productID string, price decimal.Decimal) error {
	if !actor.IsElevated() {
		return domain.ErrForbidden
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: prix de vente négatif", domain.ErrInvalidInput)
	}
	if err := r.Products.SetSalePrice(ctx, productID, price); err != nil {
		return err
	}
	return r.Stock.SetSalePrice(ctx, entity.PoolShop, productID, price)
}

// GetPrice prix, coût de revient et marge. Le coût d'un produit fini avec recette est le coût
// des ingrédients d'une unité; sinon prix d'achat ÷ quantité achetée.
func (uc *PricingUseCase) GetPrice(ctx context.Context, target Target) (*PriceInfo, error) {
	p, err := findTarget(ctx, uc.repos, target)
	if err != nil {
		return nil, err
	}
	info := &PriceInfo{
		ProductID:    p.ID,
		ProductName:  p.Name,
		Price:        p.SalePrice,
		PurchaseCost: p.UnitCost(),
		CostSource:   CostFromPurchase,
	}
	if uc.recipes != nil {
		if cost, ok := uc.recipeCost(ctx, p.Name); ok {
			info.PurchaseCost = cost
			info.CostSource = CostFromRecipe
		}
	}
	info.PurchaseCost = info.PurchaseCost.Round(2)
	info.Margin, info.MarginPercent = inventory.Margin(info.Price, info.PurchaseCost)
	return info, nil
}

func (uc *PricingUseCase) recipeCost(ctx context.Context, name string) (decimal.Decimal, bool) {
	lines, err := uc.repos.Recipes.ListLines(ctx, name)
	if err != nil || len(lines) == 0 {
		return decimal.Zero, false
	}
	cost, err := uc.recipes.IngredientCost(ctx, uc.repos, name, decimal.NewFromInt(1))
	if err != nil {
		uc.log.Debug().Err(err).Str("recipe", name).Msg("coût de recette indisponible")
		return decimal.Zero, false
	}
	return cost, true
}

func findTarget(ctx context.Context, r repository.Repos, t Target) (*entity.Product, error) {
	var (
		p   *entity.Product
		err error
	)
	switch {
	case strings.TrimSpace(t.ProductID) != "":
		p, err = r.Products.GetByID(ctx, t.ProductID)
	case strings.TrimSpace(t.RecipeName) != "":
		p, err = r.Products.GetByName(ctx, t.RecipeName)
	default:
		return nil, fmt.Errorf("%w: produit ou recette requis", domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: produit %s%s", domain.ErrNotFound, t.ProductID, t.RecipeName)
	}
	return p, nil
}
