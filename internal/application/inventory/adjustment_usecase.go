package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
	"github.com/jhoicas/boulangerie-api/pkg/logger"
)

// AdjustmentInput correction d'inventaire physique: Counted est la quantité comptée.
type AdjustmentInput struct {
	ProductID string
	Pool      entity.Pool
	Counted   decimal.Decimal
	Reason    string
	Actor     entity.Actor
}

// AdjustmentResult écart appliqué. Change est nil si le comptage correspond déjà au solde.
type AdjustmentResult struct {
	Delta      decimal.Decimal
	Change     *LedgerChange
	MovementID string
}

// AdjustmentUseCase aligne un solde sur un comptage physique (privilège élevé requis).
type AdjustmentUseCase struct {
	tx       TxRunner
	ledger   *Ledger
	recorder *MovementRecorder
	cache    StockCache
	log      *logger.Logger
}

// NewAdjustmentUseCase construit le cas d'usage.
func NewAdjustmentUseCase(tx TxRunner, ledger *Ledger, recorder *MovementRecorder, cache StockCache, log *logger.Logger) *AdjustmentUseCase {
	return &AdjustmentUseCase{tx: tx, ledger: ledger, recorder: recorder, cache: cache, log: log}
}

// Adjust applique l'écart comptage - disponible et journalise un mouvement "ajustement".
func (uc *AdjustmentUseCase) Adjust(ctx context.Context, in AdjustmentInput) (*AdjustmentResult, error) {
	if !in.Actor.IsElevated() {
		return nil, domain.ErrForbidden
	}
	if _, err := entity.ParsePool(string(in.Pool)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if in.Counted.IsNegative() {
		return nil, fmt.Errorf("%w: quantité comptée négative", domain.ErrInvalidInput)
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: motif requis", domain.ErrInvalidInput)
	}

	res := &AdjustmentResult{}
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		current, exists, err := uc.lock(ctx, r, in)
		if err != nil {
			return err
		}
		res.Delta = in.Counted.Sub(current)
		if res.Delta.IsZero() {
			return nil
		}
		if !exists {
			res.Change, err = uc.ledger.Credit(ctx, r, in.ProductID, in.Pool, res.Delta)
		} else {
			res.Change, err = uc.ledger.Adjust(ctx, r, in.ProductID, in.Pool, entity.FieldAvailable, res.Delta)
		}
		if err != nil {
			return err
		}
		res.MovementID = uc.recorder.RecordChange(ctx, r.Movements, res.Change, entity.MovementAjustement, res.Delta, in.Actor.ID, "", reason)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Change != nil {
		InvalidateCache(ctx, uc.cache, uc.log)
		uc.log.Info().
			Str("product_id", in.ProductID).
			Str("pool", string(in.Pool)).
			Str("delta", res.Delta.String()).
			Msg("ajustement de stock")
	}
	return res, nil
}

func (uc *AdjustmentUseCase) lock(ctx context.Context, r repository.Repos, in AdjustmentInput) (decimal.Decimal, bool, error) {
	if in.Pool == entity.PoolRaw {
		p, err := r.Products.GetByIDForUpdate(ctx, in.ProductID)
		if err != nil {
			return decimal.Zero, false, err
		}
		if p == nil {
			return decimal.Zero, false, fmt.Errorf("%w: produit %s", domain.ErrNotFound, in.ProductID)
		}
		return p.Remaining, true, nil
	}
	p, err := r.Products.GetByID(ctx, in.ProductID)
	if err != nil {
		return decimal.Zero, false, err
	}
	if p == nil {
		return decimal.Zero, false, fmt.Errorf("%w: produit %s", domain.ErrNotFound, in.ProductID)
	}
	e, err := r.Stock.GetForUpdate(ctx, in.Pool, in.ProductID)
	if err != nil {
		return decimal.Zero, false, err
	}
	return e.Balance().Available, e != nil, nil
}
