package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
	"github.com/jhoicas/boulangerie-api/pkg/logger"
)

// ProduceInput lancement d'une production.
type ProduceInput struct {
	RecipeName   string
	Quantity     decimal.Decimal
	Destination  entity.Pool // boutique par défaut
	SellingPrice *decimal.Decimal
	Actor        entity.Actor
}

// ProductionResult lot produit et mouvements associés.
type ProductionResult struct {
	Production   *entity.Production
	Requirements []IngredientRequirement
	Output       LedgerChange
	PriceApplied bool
}

// ProductionUseCase consomme les ingrédients de l'atelier et crédite le produit fini, dans une seule transaction.
type ProductionUseCase struct {
	tx       TxRunner
	ledger   *Ledger
	resolver *RecipeResolver
	recorder *MovementRecorder
	prices   PriceSetter
	cache    StockCache
	log      *logger.Logger
	now      func() time.Time
}

// NewProductionUseCase construit le cas d'usage.
func NewProductionUseCase(tx TxRunner, ledger *Ledger, resolver *RecipeResolver, recorder *MovementRecorder, prices PriceSetter, cache StockCache, log *logger.Logger) *ProductionUseCase {
	return &ProductionUseCase{
		tx: tx, ledger: ledger, resolver: resolver, recorder: recorder,
		prices: prices, cache: cache, log: log, now: time.Now,
	}
}

// Produce fabrique Quantity unités de la recette.
// InsufficientIngredient liste tous les manques et rien n'est modifié.
func (uc *ProductionUseCase) Produce(ctx context.Context, in ProduceInput) (*ProductionResult, error) {
	if in.Destination == "" {
		in.Destination = entity.PoolShop
	}
	if err := uc.validate(in); err != nil {
		return nil, err
	}
	withPrice := in.SellingPrice != nil && in.Destination == entity.PoolShop
	if withPrice && !in.Actor.IsElevated() {
		return nil, fmt.Errorf("%w: la fixation du prix requiert un gérant", domain.ErrForbidden)
	}

	var res *ProductionResult
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		var err error
		res, err = uc.produceInTx(ctx, r, in, withPrice)
		return err
	})
	if err != nil {
		return nil, err
	}
	InvalidateCache(ctx, uc.cache, uc.log)
	uc.log.Info().
		Str("production_id", res.Production.ID).
		Str("recipe", res.Production.ProductName).
		Str("quantity", in.Quantity.String()).
		Str("destination", string(in.Destination)).
		Str("ingredient_cost", res.Production.IngredientCost.String()).
		Msg("production terminée")
	return res, nil
}

func (uc *ProductionUseCase) validate(in ProduceInput) error {
	if strings.TrimSpace(in.RecipeName) == "" {
		return fmt.Errorf("%w: recette requise", domain.ErrInvalidInput)
	}
	if !in.Quantity.IsPositive() {
		return fmt.Errorf("%w: la quantité doit être positive", domain.ErrInvalidInput)
	}
	switch in.Destination {
	case entity.PoolShop, entity.PoolKitchen, entity.PoolWorkshop:
	default:
		return fmt.Errorf("%w: destination %q invalide", domain.ErrInvalidInput, in.Destination)
	}
	if in.SellingPrice != nil && in.SellingPrice.IsNegative() {
		return fmt.Errorf("%w: prix de vente négatif", domain.ErrInvalidInput)
	}
	if !entity.HasRole(in.Actor, entity.StockRoles...) {
		return domain.ErrForbidden
	}
	return nil
}

func (uc *ProductionUseCase) produceInTx(ctx context.Context, r repository.Repos, in ProduceInput, withPrice bool) (*ProductionResult, error) {
	recipe, err := uc.resolver.Resolve(ctx, r, in.RecipeName)
	if err != nil {
		return nil, err
	}
	av, err := uc.resolver.availabilityOf(ctx, r, recipe, in.Quantity)
	if err != nil {
		return nil, err
	}
	if shortfalls := av.Shortfalls(); len(shortfalls) > 0 {
		return nil, &domain.InsufficientIngredientError{Recipe: recipe.Name, Shortfalls: shortfalls}
	}

	now := uc.now()
	prodID := uuid.New().String()
	ref := "PROD-" + strings.ToUpper(prodID[:8])

	cost := decimal.Zero
	for _, req := range av.Requirements {
		change, err := uc.ledger.Apply(ctx, r, req.IngredientID, entity.PoolWorkshop, entity.StockDelta{
			Available: req.Required.Neg(),
			Used:      req.Required,
		})
		if err != nil {
			return nil, err
		}
		uc.recorder.RecordChange(ctx, r.Movements, change, entity.MovementSortie, req.Required, in.Actor.ID, ref,
			fmt.Sprintf("production %s x%s", recipe.Name, in.Quantity.String()))
		cost = cost.Add(req.Required.Mul(req.UnitCost))
	}

	finished, err := uc.finishedGood(ctx, r, recipe.Name, now)
	if err != nil {
		return nil, err
	}
	out, err := uc.ledger.Credit(ctx, r, finished.ID, in.Destination, in.Quantity)
	if err != nil {
		return nil, err
	}
	uc.recorder.RecordChange(ctx, r.Movements, out, entity.MovementEntree, in.Quantity, in.Actor.ID, ref, "production "+recipe.Name)

	if withPrice {
		if err := uc.prices.ApplyPrice(ctx, r, in.Actor, finished.ID, *in.SellingPrice); err != nil {
			return nil, err
		}
	}

	prod := &entity.Production{
		ID:             prodID,
		ProductID:      finished.ID,
		ProductName:    recipe.Name,
		Quantity:       in.Quantity,
		Destination:    in.Destination,
		IngredientCost: cost,
		Status:         entity.ProductionDone,
		UserID:         in.Actor.ID,
		ProducedAt:     now,
	}
	if err := r.Productions.Create(ctx, prod); err != nil {
		return nil, err
	}
	return &ProductionResult{Production: prod, Requirements: av.Requirements, Output: *out, PriceApplied: withPrice}, nil
}

// finishedGood renvoie le produit fini portant le nom de la recette, créé au premier lot.
func (uc *ProductionUseCase) finishedGood(ctx context.Context, r repository.Repos, name string, now time.Time) (*entity.Product, error) {
	p, err := r.Products.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	p = &entity.Product{
		ID:            uuid.New().String(),
		Name:          name,
		Unit:          "pièce",
		PurchasePrice: decimal.Zero,
		PurchasedQty:  decimal.Zero,
		Remaining:     decimal.Zero,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := r.Products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
