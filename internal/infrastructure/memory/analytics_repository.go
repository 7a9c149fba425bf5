package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo agrégats du tableau de bord calculés sur l'état en mémoire.
type AnalyticsRepo struct {
	h handle
}

// Analytics dépôt du tableau de bord.
func (s *Store) Analytics() *AnalyticsRepo {
	return &AnalyticsRepo{h: handle{store: s}}
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func (r *AnalyticsRepo) SalesMetrics(_ context.Context, from, to time.Time) (*repository.SalesMetrics, error) {
	m := &repository.SalesMetrics{Revenue: decimal.Zero, Cancelled: decimal.Zero, ProductionCost: decimal.Zero}
	err := r.h.do(func(st *state) error {
		for _, s := range st.sales {
			if !within(s.CreatedAt, from, to) {
				continue
			}
			switch s.Status {
			case entity.SaleValidated:
				m.Revenue = m.Revenue.Add(s.Total)
				m.Tickets++
			case entity.SaleCancelled:
				m.Cancelled = m.Cancelled.Add(s.Total)
				m.CancelledTickets++
			}
		}
		for _, p := range st.productions {
			if within(p.ProducedAt, from, to) {
				m.ProductionCost = m.ProductionCost.Add(p.IngredientCost)
			}
		}
		return nil
	})
	return m, err
}

func (r *AnalyticsRepo) TopProducts(_ context.Context, from, to time.Time, limit int) ([]repository.TopProduct, error) {
	out := []repository.TopProduct{}
	err := r.h.do(func(st *state) error {
		idx := map[string]int{}
		for _, s := range st.sales {
			if s.Status != entity.SaleValidated || !within(s.CreatedAt, from, to) {
				continue
			}
			for _, l := range s.Lines {
				i, ok := idx[l.ProductID]
				if !ok {
					idx[l.ProductID] = len(out)
					out = append(out, repository.TopProduct{ProductID: l.ProductID, ProductName: l.ProductName})
					i = len(out) - 1
				}
				out[i].QuantitySold = out[i].QuantitySold.Add(l.Quantity)
				out[i].Revenue = out[i].Revenue.Add(l.Total)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].QuantitySold.GreaterThan(out[j].QuantitySold)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
