package memory

import (
	"context"

	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo journal des mouvements en mémoire (append-only).
type MovementRepo struct {
	h handle
}

func (r *MovementRepo) Create(_ context.Context, m *entity.Movement) error {
	return r.h.do(func(st *state) error {
		if r.h.store.movementErr != nil {
			return r.h.store.movementErr
		}
		st.movements = append(st.movements, *m)
		return nil
	})
}

func matches(m entity.Movement, f entity.MovementFilter) bool {
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.Pool != "" && m.Pool != f.Pool {
		return false
	}
	if f.Reference != "" && m.Reference != f.Reference {
		return false
	}
	if f.From != nil && m.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && m.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// List du plus récent au plus ancien.
func (r *MovementRepo) List(_ context.Context, f entity.MovementFilter) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := r.h.do(func(st *state) error {
		var all []*entity.Movement
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if matches(m, f) {
				all = append(all, &m)
			}
		}
		start, end := page(len(all), f.Limit, f.Offset)
		out = all[start:end]
		return nil
	})
	return out, err
}

func (r *MovementRepo) Latest(_ context.Context, productID string, pool entity.Pool) (*entity.Movement, error) {
	var out *entity.Movement
	err := r.h.do(func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			m := st.movements[i]
			if m.ProductID == productID && m.Pool == pool {
				out = &m
				return nil
			}
		}
		return nil
	})
	return out, err
}
