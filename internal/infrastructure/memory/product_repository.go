package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/inventory"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo produits en mémoire.
type ProductRepo struct {
	h handle
}

func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	return r.h.do(func(st *state) error {
		if _, ok := st.products[product.ID]; ok {
			return domain.ErrDuplicate
		}
		key := inventory.NormalizeName(product.Name)
		for _, p := range st.products {
			if inventory.NormalizeName(p.Name) == key {
				return domain.ErrDuplicate
			}
		}
		st.products[product.ID] = *product
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.h.do(func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductRepo) GetByName(_ context.Context, name string) (*entity.Product, error) {
	key := inventory.NormalizeName(name)
	var out *entity.Product
	err := r.h.do(func(st *state) error {
		for _, p := range st.products {
			if inventory.NormalizeName(p.Name) == key {
				p := p
				out = &p
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) List(_ context.Context, activeOnly bool, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.h.do(func(st *state) error {
		all := make([]entity.Product, 0, len(st.products))
		for _, p := range st.products {
			if activeOnly && !p.Active {
				continue
			}
			all = append(all, p)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
		start, end := page(len(all), limit, offset)
		for i := start; i < end; i++ {
			p := all[i]
			out = append(out, &p)
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) UpdatePurchase(_ context.Context, product *entity.Product) error {
	return r.h.do(func(st *state) error {
		p, ok := st.products[product.ID]
		if !ok {
			return domain.ErrNotFound
		}
		p.PurchasePrice = product.PurchasePrice
		p.PurchasedQty = product.PurchasedQty
		p.UpdatedAt = r.h.now()
		st.products[p.ID] = p
		return nil
	})
}

func (r *ProductRepo) AdjustRemaining(_ context.Context, id string, delta decimal.Decimal) (before, after decimal.Decimal, err error) {
	err = r.h.do(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		next := p.Remaining.Add(delta)
		if next.IsNegative() {
			return domain.ErrInsufficientStock
		}
		before, after = p.Remaining, next
		p.Remaining = next
		p.UpdatedAt = r.h.now()
		st.products[id] = p
		return nil
	})
	return before, after, err
}

func (r *ProductRepo) SetSalePrice(_ context.Context, id string, price decimal.Decimal) error {
	return r.h.do(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		p.SalePrice = price
		p.UpdatedAt = r.h.now()
		st.products[id] = p
		return nil
	})
}

func (r *ProductRepo) Deactivate(_ context.Context, id string) error {
	return r.h.do(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.ErrNotFound
		}
		p.Active = false
		p.UpdatedAt = r.h.now()
		st.products[id] = p
		return nil
	})
}

func (r *ProductRepo) RawSummary(_ context.Context, lowThreshold decimal.Decimal) (*entity.PoolSummary, error) {
	sum := &entity.PoolSummary{Pool: entity.PoolRaw, TotalAvailable: decimal.Zero}
	err := r.h.do(func(st *state) error {
		for _, p := range st.products {
			if !p.Active || p.PurchasedQty.IsZero() {
				continue
			}
			sum.Products++
			sum.TotalAvailable = sum.TotalAvailable.Add(p.Remaining)
			if p.Remaining.IsZero() {
				sum.OutOfStock++
			} else if p.Remaining.LessThan(lowThreshold) {
				sum.LowStock++
			}
		}
		return nil
	})
	return sum, err
}
