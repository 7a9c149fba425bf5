package repository

import (
	"context"

	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
)

// MovementRepository journal append-only des mouvements de stock. Jamais de mise à jour ni de suppression.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	List(ctx context.Context, filter entity.MovementFilter) ([]*entity.Movement, error)
	// Latest dernier mouvement d'un produit sur une réserve (nil, nil si aucun).
	Latest(ctx context.Context, productID string, pool entity.Pool) (*entity.Movement, error)
}
