package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

// LedgerChange soldes d'une ligne avant et après une écriture.
type LedgerChange struct {
	ProductID string
	Pool      entity.Pool
	Before    entity.Balance
	After     entity.Balance
}

// Ledger grand livre des quantités: un solde par (produit, réserve).
// Toute écriture est une mise à jour atomique d'une seule ligne; aucun solde n'est recalculé à partir des mouvements.
// Les méthodes reçoivent les dépôts de la transaction en cours.
type Ledger struct{}

// NewLedger construit le grand livre.
func NewLedger() *Ledger { return &Ledger{} }

// Balance solde d'un produit dans une réserve. Une ligne absente vaut zéro; un produit absent en réserve brute est NotFound.
func (l *Ledger) Balance(ctx context.Context, r repository.Repos, productID string, pool entity.Pool) (entity.Balance, error) {
	if pool == entity.PoolRaw {
		p, err := r.Products.GetByID(ctx, productID)
		if err != nil {
			return entity.Balance{}, err
		}
		if p == nil {
			return entity.Balance{}, domain.ErrNotFound
		}
		return entity.Balance{Available: p.Remaining}, nil
	}
	e, err := r.Stock.Get(ctx, pool, productID)
	if err != nil {
		return entity.Balance{}, err
	}
	return e.Balance(), nil
}

// Adjust applique delta sur un compteur.
// InsufficientStock si available ou reserved deviendrait négatif; NotFound si la ligne atelier/cuisine n'existe pas.
// La ligne boutique est créée à zéro au besoin.
func (l *Ledger) Adjust(ctx context.Context, r repository.Repos, productID string, pool entity.Pool, field entity.StockField, delta decimal.Decimal) (*LedgerChange, error) {
	if pool == entity.PoolRaw {
		if field != entity.FieldAvailable {
			return nil, fmt.Errorf("%w: la réserve brute ne porte que le disponible", domain.ErrInvalidInput)
		}
		return l.adjustRaw(ctx, r, productID, delta)
	}
	d, err := entity.DeltaFor(field, delta)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return l.apply(ctx, r, productID, pool, d, pool.AutoCreate())
}

// Apply applique plusieurs compteurs en une seule écriture (vente, annulation, consommation).
func (l *Ledger) Apply(ctx context.Context, r repository.Repos, productID string, pool entity.Pool, d entity.StockDelta) (*LedgerChange, error) {
	if pool == entity.PoolRaw {
		if !d.Reserved.IsZero() || !d.Sold.IsZero() || !d.Used.IsZero() {
			return nil, fmt.Errorf("%w: la réserve brute ne porte que le disponible", domain.ErrInvalidInput)
		}
		return l.adjustRaw(ctx, r, productID, d.Available)
	}
	return l.apply(ctx, r, productID, pool, d, pool.AutoCreate())
}

// Credit crée ou incrémente le disponible d'une ligne (destination d'un transfert ou d'une production).
func (l *Ledger) Credit(ctx context.Context, r repository.Repos, productID string, pool entity.Pool, qty decimal.Decimal) (*LedgerChange, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("%w: la quantité doit être positive", domain.ErrInvalidInput)
	}
	if pool == entity.PoolRaw {
		return l.adjustRaw(ctx, r, productID, qty)
	}
	return l.apply(ctx, r, productID, pool, entity.StockDelta{Available: qty}, true)
}

func (l *Ledger) adjustRaw(ctx context.Context, r repository.Repos, productID string, delta decimal.Decimal) (*LedgerChange, error) {
	before, after, err := r.Products.AdjustRemaining(ctx, productID, delta)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			return nil, l.insufficient(ctx, r, productID, entity.PoolRaw, delta.Neg())
		}
		return nil, err
	}
	return &LedgerChange{
		ProductID: productID,
		Pool:      entity.PoolRaw,
		Before:    entity.Balance{Available: before},
		After:     entity.Balance{Available: after},
	}, nil
}

func (l *Ledger) apply(ctx context.Context, r repository.Repos, productID string, pool entity.Pool, d entity.StockDelta, create bool) (*LedgerChange, error) {
	before, after, err := r.Stock.Apply(ctx, pool, productID, d)
	if errors.Is(err, domain.ErrNotFound) && create {
		if err := r.Stock.Create(ctx, pool, productID); err != nil {
			return nil, err
		}
		before, after, err = r.Stock.Apply(ctx, pool, productID, d)
	}
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			return nil, l.insufficient(ctx, r, productID, pool, d.Available.Neg())
		}
		return nil, err
	}
	return &LedgerChange{
		ProductID: productID,
		Pool:      pool,
		Before:    before.Balance(),
		After:     after.Balance(),
	}, nil
}

// insufficient construit l'erreur affichable avec le nom du produit et le disponible courant.
func (l *Ledger) insufficient(ctx context.Context, r repository.Repos, productID string, pool entity.Pool, requested decimal.Decimal) error {
	e := &domain.InsufficientStockError{ProductID: productID, Pool: string(pool), Requested: requested}
	if p, err := r.Products.GetByID(ctx, productID); err == nil && p != nil {
		e.ProductName = p.Name
	}
	if b, err := l.Balance(ctx, r, productID, pool); err == nil {
		e.Available = b.Available
	}
	return e
}
