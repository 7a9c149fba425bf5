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
	"github.com/jhoicas/boulangerie-api/internal/domain/inventory"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
	"github.com/jhoicas/boulangerie-api/pkg/logger"
)

// PurchaseInput réception d'un achat en réserve brute.
// ProductID vide = recherche par nom, création si le produit n'existe pas.
type PurchaseInput struct {
	ProductID string
	Name      string
	Unit      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Supplier  string
	Actor     entity.Actor
}

// PurchaseResult produit après réception.
type PurchaseResult struct {
	Product    *entity.Product
	Created    bool
	UnitCost   decimal.Decimal // coût unitaire après pondération
	Change     LedgerChange
	MovementID string
}

// PurchaseUseCase entrée d'achat: crédite la réserve brute et pondère le prix d'achat unitaire.
type PurchaseUseCase struct {
	tx       TxRunner
	ledger   *Ledger
	recorder *MovementRecorder
	cache    StockCache
	log      *logger.Logger
	now      func() time.Time
}

// NewPurchaseUseCase construit le cas d'usage.
func NewPurchaseUseCase(tx TxRunner, ledger *Ledger, recorder *MovementRecorder, cache StockCache, log *logger.Logger) *PurchaseUseCase {
	return &PurchaseUseCase{tx: tx, ledger: ledger, recorder: recorder, cache: cache, log: log, now: time.Now}
}

// ReceivePurchase enregistre l'achat. Sur un produit existant le nouveau prix unitaire est
// WeightedAverage(restant, coût actuel, quantité reçue, prix reçu).
func (uc *PurchaseUseCase) ReceivePurchase(ctx context.Context, in PurchaseInput) (*PurchaseResult, error) {
	if !entity.HasRole(in.Actor, entity.StockRoles...) {
		return nil, domain.ErrForbidden
	}
	if !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: la quantité doit être positive", domain.ErrInvalidInput)
	}
	if in.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("%w: prix d'achat négatif", domain.ErrInvalidInput)
	}
	if in.ProductID == "" && strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: produit ou nom requis", domain.ErrInvalidInput)
	}

	var res *PurchaseResult
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		var err error
		res, err = uc.receiveInTx(ctx, r, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	InvalidateCache(ctx, uc.cache, uc.log)
	uc.log.Info().
		Str("product_id", res.Product.ID).
		Str("quantity", in.Quantity.String()).
		Str("unit_cost", res.UnitCost.String()).
		Bool("created", res.Created).
		Msg("réception d'achat")
	return res, nil
}

func (uc *PurchaseUseCase) receiveInTx(ctx context.Context, r repository.Repos, in PurchaseInput) (*PurchaseResult, error) {
	product, err := uc.findProduct(ctx, r, in)
	if err != nil {
		return nil, err
	}

	created := product == nil
	if created {
		now := uc.now()
		unit := in.Unit
		if unit == "" {
			unit = "kg"
		}
		product = &entity.Product{
			ID:            uuid.New().String(),
			Name:          inventory.CleanName(in.Name),
			Unit:          unit,
			PurchasePrice: in.Quantity.Mul(in.UnitPrice),
			PurchasedQty:  in.Quantity,
			Remaining:     decimal.Zero,
			Active:        true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := r.Products.Create(ctx, product); err != nil {
			return nil, err
		}
	} else {
		if !product.Active {
			return nil, fmt.Errorf("%w: produit désactivé", domain.ErrConflict)
		}
		unitCost := inventory.WeightedAverage(product.Remaining, product.UnitCost(), in.Quantity, in.UnitPrice)
		product.PurchasedQty = product.PurchasedQty.Add(in.Quantity)
		product.PurchasePrice = unitCost.Mul(product.PurchasedQty)
		if err := r.Products.UpdatePurchase(ctx, product); err != nil {
			return nil, err
		}
	}

	change, err := uc.ledger.Credit(ctx, r, product.ID, entity.PoolRaw, in.Quantity)
	if err != nil {
		return nil, err
	}
	product.Remaining = change.After.Available

	comment := "achat"
	if in.Supplier != "" {
		comment = "achat " + in.Supplier
	}
	movID := uc.recorder.RecordChange(ctx, r.Movements, change, entity.MovementEntree, in.Quantity, in.Actor.ID, "", comment)

	return &PurchaseResult{
		Product:    product,
		Created:    created,
		UnitCost:   product.UnitCost(),
		Change:     *change,
		MovementID: movID,
	}, nil
}

func (uc *PurchaseUseCase) findProduct(ctx context.Context, r repository.Repos, in PurchaseInput) (*entity.Product, error) {
	if in.ProductID != "" {
		p, err := r.Products.GetByIDForUpdate(ctx, in.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: produit %s", domain.ErrNotFound, in.ProductID)
		}
		return p, nil
	}
	p, err := r.Products.GetByName(ctx, in.Name)
	if err != nil || p == nil {
		return nil, err
	}
	return r.Products.GetByIDForUpdate(ctx, p.ID)
}
