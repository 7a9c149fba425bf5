package repository

import (
	"context"

	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
)

// SaleRepository tickets et lignes de vente.
type SaleRepository interface {
	// Create persiste l'en-tête et les lignes. ErrDuplicate si le numéro de ticket existe déjà.
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// GetByIDForUpdate verrouille l'en-tête de la vente.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	GetByTicket(ctx context.Context, ticket string) (*entity.Sale, error)
	List(ctx context.Context, filter entity.SaleFilter) ([]*entity.Sale, error)
	// UpdateStatus passe de from à to; ErrConflict si le statut courant n'est pas from.
	UpdateStatus(ctx context.Context, id, from, to string) error
}

// CancellationRepository traces d'annulation (une seule par vente).
type CancellationRepository interface {
	// Create ErrDuplicate si la vente a déjà une annulation.
	Create(ctx context.Context, c *entity.SaleCancellation) error
	GetBySale(ctx context.Context, saleID string) (*entity.SaleCancellation, error)
}
