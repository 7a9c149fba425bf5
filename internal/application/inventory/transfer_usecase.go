package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
	"github.com/jhoicas/boulangerie-api/pkg/logger"
)

// TransferInput entrée d'un transfert entre deux réserves.
type TransferInput struct {
	ProductID string
	From      entity.Pool
	To        entity.Pool
	Quantity  decimal.Decimal
	Actor     entity.Actor
	Reference string // optionnelle; générée si vide
	Comment   string
}

// TransferResult soldes source et destination après transfert.
type TransferResult struct {
	Reference   string
	ProductID   string
	ProductName string
	Quantity    decimal.Decimal
	Source      LedgerChange
	Destination LedgerChange
	MovementIDs []string
}

// TransferUseCase déplace une quantité d'une réserve à une autre dans une seule transaction:
// verrou sur la ligne source, contrôle de suffisance, débit, crédit (création de la ligne destination au besoin)
// et deux mouvements "transfert".
type TransferUseCase struct {
	tx       TxRunner
	ledger   *Ledger
	recorder *MovementRecorder
	cache    StockCache
	log      *logger.Logger
}

// NewTransferUseCase construit le cas d'usage.
func NewTransferUseCase(tx TxRunner, ledger *Ledger, recorder *MovementRecorder, cache StockCache, log *logger.Logger) *TransferUseCase {
	return &TransferUseCase{tx: tx, ledger: ledger, recorder: recorder, cache: cache, log: log}
}

func validateTransfer(in TransferInput) error {
	if strings.TrimSpace(in.ProductID) == "" {
		return fmt.Errorf("%w: produit requis", domain.ErrInvalidInput)
	}
	if !in.Quantity.IsPositive() {
		return fmt.Errorf("%w: la quantité doit être positive", domain.ErrInvalidInput)
	}
	if _, err := entity.ParsePool(string(in.From)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if _, err := entity.ParsePool(string(in.To)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if in.From == in.To {
		return fmt.Errorf("%w: réserves source et destination identiques", domain.ErrInvalidInput)
	}
	return nil
}

// Transfer exécute le transfert. InsufficientStock si la source ne couvre pas la quantité, sans aucune écriture.
func (uc *TransferUseCase) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if err := validateTransfer(in); err != nil {
		return nil, err
	}
	if !entity.HasRole(in.Actor, entity.StockRoles...) {
		return nil, domain.ErrForbidden
	}
	ref := in.Reference
	if ref == "" {
		ref = "TRF-" + strings.ToUpper(uuid.New().String()[:8])
	}

	var res *TransferResult
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		var err error
		res, err = uc.transferInTx(ctx, r, in, ref)
		return err
	})
	if err != nil {
		return nil, err
	}
	InvalidateCache(ctx, uc.cache, uc.log)
	uc.log.Info().
		Str("product_id", in.ProductID).
		Str("from", string(in.From)).
		Str("to", string(in.To)).
		Str("quantity", in.Quantity.String()).
		Str("reference", ref).
		Msg("transfert de stock")
	return res, nil
}

func (uc *TransferUseCase) transferInTx(ctx context.Context, r repository.Repos, in TransferInput, ref string) (*TransferResult, error) {
	product, err := r.Products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: produit %s", domain.ErrNotFound, in.ProductID)
	}

	available, err := uc.lockSource(ctx, r, in)
	if err != nil {
		return nil, err
	}
	if available.LessThan(in.Quantity) {
		return nil, &domain.InsufficientStockError{
			ProductID: product.ID, ProductName: product.Name, Pool: string(in.From),
			Requested: in.Quantity, Available: available,
		}
	}

	src, err := uc.ledger.Apply(ctx, r, in.ProductID, in.From, entity.StockDelta{Available: in.Quantity.Neg()})
	if err != nil {
		return nil, err
	}
	dst, err := uc.ledger.Credit(ctx, r, in.ProductID, in.To, in.Quantity)
	if err != nil {
		return nil, err
	}

	comment := in.Comment
	if comment == "" {
		comment = fmt.Sprintf("%s -> %s", in.From.Label(), in.To.Label())
	}
	ids := []string{
		uc.recorder.RecordChange(ctx, r.Movements, src, entity.MovementTransfert, in.Quantity, in.Actor.ID, ref, comment),
		uc.recorder.RecordChange(ctx, r.Movements, dst, entity.MovementTransfert, in.Quantity, in.Actor.ID, ref, comment),
	}
	return &TransferResult{
		Reference:   ref,
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    in.Quantity,
		Source:      *src,
		Destination: *dst,
		MovementIDs: ids,
	}, nil
}

// lockSource verrouille la ligne source et renvoie son disponible (0 si la ligne n'existe pas).
func (uc *TransferUseCase) lockSource(ctx context.Context, r repository.Repos, in TransferInput) (decimal.Decimal, error) {
	if in.From == entity.PoolRaw {
		p, err := r.Products.GetByIDForUpdate(ctx, in.ProductID)
		if err != nil {
			return decimal.Zero, err
		}
		if p == nil {
			return decimal.Zero, domain.ErrNotFound
		}
		return p.Remaining, nil
	}
	e, err := r.Stock.GetForUpdate(ctx, in.From, in.ProductID)
	if err != nil {
		return decimal.Zero, err
	}
	return e.Balance().Available, nil
}
