package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

var (
	_ repository.SaleRepository         = (*SaleRepo)(nil)
	_ repository.CancellationRepository = (*CancellationRepo)(nil)
	_ repository.ProductionRepository   = (*ProductionRepo)(nil)
)

// SaleRepo ventes en mémoire.
type SaleRepo struct {
	h handle
}

func copySale(s entity.Sale) *entity.Sale {
	s.Lines = append([]entity.SaleLine(nil), s.Lines...)
	return &s
}

func (r *SaleRepo) Create(_ context.Context, sale *entity.Sale) error {
	return r.h.do(func(st *state) error {
		for _, s := range st.sales {
			if s.TicketNumber == sale.TicketNumber {
				return domain.ErrDuplicate
			}
		}
		st.sales[sale.ID] = *copySale(*sale)
		return nil
	})
}

func (r *SaleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.h.do(func(st *state) error {
		if s, ok := st.sales[id]; ok {
			out = copySale(s)
		}
		return nil
	})
	return out, err
}

func (r *SaleRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r *SaleRepo) GetByTicket(_ context.Context, ticket string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.h.do(func(st *state) error {
		for _, s := range st.sales {
			if s.TicketNumber == ticket {
				out = copySale(s)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *SaleRepo) List(_ context.Context, f entity.SaleFilter) ([]*entity.Sale, error) {
	var out []*entity.Sale
	err := r.h.do(func(st *state) error {
		var all []*entity.Sale
		for _, s := range st.sales {
			if f.Status != "" && s.Status != f.Status {
				continue
			}
			if f.SellerID != "" && s.SellerID != f.SellerID {
				continue
			}
			if f.From != nil && s.CreatedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && s.CreatedAt.After(*f.To) {
				continue
			}
			all = append(all, copySale(s))
		}
		sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
		start, end := page(len(all), f.Limit, f.Offset)
		out = all[start:end]
		return nil
	})
	return out, err
}

func (r *SaleRepo) UpdateStatus(_ context.Context, id, from, to string) error {
	return r.h.do(func(st *state) error {
		s, ok := st.sales[id]
		if !ok {
			return domain.ErrNotFound
		}
		if s.Status != from {
			return domain.ErrConflict
		}
		s.Status = to
		s.UpdatedAt = r.h.now()
		st.sales[id] = s
		return nil
	})
}

// CancellationRepo annulations en mémoire.
type CancellationRepo struct {
	h handle
}

func (r *CancellationRepo) Create(_ context.Context, c *entity.SaleCancellation) error {
	return r.h.do(func(st *state) error {
		if _, ok := st.cancellations[c.SaleID]; ok {
			return domain.ErrDuplicate
		}
		st.cancellations[c.SaleID] = *c
		return nil
	})
}

func (r *CancellationRepo) GetBySale(_ context.Context, saleID string) (*entity.SaleCancellation, error) {
	var out *entity.SaleCancellation
	err := r.h.do(func(st *state) error {
		if c, ok := st.cancellations[saleID]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

// ProductionRepo lots de production en mémoire.
type ProductionRepo struct {
	h handle
}

func (r *ProductionRepo) Create(_ context.Context, p *entity.Production) error {
	return r.h.do(func(st *state) error {
		st.productions[p.ID] = *p
		return nil
	})
}

func (r *ProductionRepo) GetByID(_ context.Context, id string) (*entity.Production, error) {
	var out *entity.Production
	err := r.h.do(func(st *state) error {
		if p, ok := st.productions[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *ProductionRepo) List(_ context.Context, from, to *time.Time, limit, offset int) ([]*entity.Production, error) {
	var out []*entity.Production
	err := r.h.do(func(st *state) error {
		var all []*entity.Production
		for _, p := range st.productions {
			if from != nil && p.ProducedAt.Before(*from) {
				continue
			}
			if to != nil && p.ProducedAt.After(*to) {
				continue
			}
			p := p
			all = append(all, &p)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].ProducedAt.After(all[j].ProducedAt) })
		start, end := page(len(all), limit, offset)
		out = all[start:end]
		return nil
	})
	return out, err
}
