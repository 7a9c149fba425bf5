package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo lignes de stock atelier, boutique et cuisine en mémoire.
type StockRepo struct {
	h handle
}

func rowsFor(st *state, pool entity.Pool) (map[string]entity.StockEntry, error) {
	rows, ok := st.stock[pool]
	if !ok {
		return nil, fmt.Errorf("%w: réserve %s sans lignes de stock", domain.ErrInvalidInput, pool)
	}
	return rows, nil
}

func withName(st *state, e entity.StockEntry) *entity.StockEntry {
	if p, ok := st.products[e.ProductID]; ok {
		e.ProductName = p.Name
	}
	return &e
}

func (r *StockRepo) Get(_ context.Context, pool entity.Pool, productID string) (*entity.StockEntry, error) {
	var out *entity.StockEntry
	err := r.h.do(func(st *state) error {
		rows, err := rowsFor(st, pool)
		if err != nil {
			return err
		}
		if e, ok := rows[productID]; ok {
			out = withName(st, e)
		}
		return nil
	})
	return out, err
}

func (r *StockRepo) GetForUpdate(ctx context.Context, pool entity.Pool, productID string) (*entity.StockEntry, error) {
	return r.Get(ctx, pool, productID)
}

func (r *StockRepo) Create(_ context.Context, pool entity.Pool, productID string) error {
	return r.h.do(func(st *state) error {
		rows, err := rowsFor(st, pool)
		if err != nil {
			return err
		}
		if _, ok := st.products[productID]; !ok {
			return domain.ErrNotFound
		}
		if _, ok := rows[productID]; ok {
			return nil
		}
		rows[productID] = entity.StockEntry{
			ID:        fmt.Sprintf("%s-%s", pool, productID),
			ProductID: productID,
			Pool:      pool,
			UpdatedAt: r.h.now(),
		}
		return nil
	})
}

func (r *StockRepo) Apply(_ context.Context, pool entity.Pool, productID string, delta entity.StockDelta) (before, after *entity.StockEntry, err error) {
	err = r.h.do(func(st *state) error {
		rows, err := rowsFor(st, pool)
		if err != nil {
			return err
		}
		e, ok := rows[productID]
		if !ok {
			return domain.ErrNotFound
		}
		before = withName(st, e)
		if !e.Apply(delta) {
			return domain.ErrInsufficientStock
		}
		e.UpdatedAt = r.h.now()
		rows[productID] = e
		after = withName(st, e)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

func (r *StockRepo) ListByPool(_ context.Context, pool entity.Pool, limit, offset int) ([]*entity.StockEntry, error) {
	var out []*entity.StockEntry
	err := r.h.do(func(st *state) error {
		rows, err := rowsFor(st, pool)
		if err != nil {
			return err
		}
		all := make([]*entity.StockEntry, 0, len(rows))
		for _, e := range rows {
			all = append(all, withName(st, e))
		}
		sort.Slice(all, func(i, j int) bool { return all[i].ProductName < all[j].ProductName })
		start, end := page(len(all), limit, offset)
		out = all[start:end]
		return nil
	})
	return out, err
}

func (r *StockRepo) ListByProduct(_ context.Context, productID string) ([]*entity.StockEntry, error) {
	var out []*entity.StockEntry
	err := r.h.do(func(st *state) error {
		for _, pool := range []entity.Pool{entity.PoolWorkshop, entity.PoolShop, entity.PoolKitchen} {
			if e, ok := st.stock[pool][productID]; ok {
				out = append(out, withName(st, e))
			}
		}
		return nil
	})
	return out, err
}

func (r *StockRepo) SetSalePrice(_ context.Context, pool entity.Pool, productID string, price decimal.Decimal) error {
	return r.h.do(func(st *state) error {
		rows, err := rowsFor(st, pool)
		if err != nil {
			return err
		}
		if _, ok := st.products[productID]; !ok {
			return domain.ErrNotFound
		}
		e, ok := rows[productID]
		if !ok {
			e = entity.StockEntry{ID: fmt.Sprintf("%s-%s", pool, productID), ProductID: productID, Pool: pool}
		}
		e.SalePrice = decimal.NewNullDecimal(price)
		e.UpdatedAt = r.h.now()
		rows[productID] = e
		return nil
	})
}

func (r *StockRepo) Summary(_ context.Context, pool entity.Pool, lowThreshold decimal.Decimal) (*entity.PoolSummary, error) {
	sum := &entity.PoolSummary{Pool: pool, TotalAvailable: decimal.Zero}
	err := r.h.do(func(st *state) error {
		rows, err := rowsFor(st, pool)
		if err != nil {
			return err
		}
		for _, e := range rows {
			sum.Products++
			sum.TotalAvailable = sum.TotalAvailable.Add(e.Available)
			if e.Available.IsZero() {
				sum.OutOfStock++
			} else if e.Available.LessThan(lowThreshold) {
				sum.LowStock++
			}
		}
		return nil
	})
	return sum, err
}
