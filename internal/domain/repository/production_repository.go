package repository

import (
	"context"
	"time"

	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
)

// ProductionRepository lots de production.
type ProductionRepository interface {
	Create(ctx context.Context, production *entity.Production) error
	GetByID(ctx context.Context, id string) (*entity.Production, error)
	List(ctx context.Context, from, to *time.Time, limit, offset int) ([]*entity.Production, error)
}
