package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
)

// ProductRepository port de persistance des produits. Porte aussi la réserve brute (quantite_restante).
// Les lectures renvoient nil, nil si le produit n'existe pas.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetByIDForUpdate verrouille la ligne (SELECT ... FOR UPDATE).
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// GetByName recherche insensible à la casse et aux accents.
	GetByName(ctx context.Context, name string) (*entity.Product, error)
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.Product, error)
	// UpdatePurchase met à jour prix d'achat et quantité achetée après une réception (la restante passe par AdjustRemaining).
	UpdatePurchase(ctx context.Context, product *entity.Product) error
	// AdjustRemaining applique delta à quantite_restante en une écriture atomique.
	// ErrInsufficientStock si le solde deviendrait négatif, ErrNotFound si le produit n'existe pas.
	AdjustRemaining(ctx context.Context, id string, delta decimal.Decimal) (before, after decimal.Decimal, err error)
	SetSalePrice(ctx context.Context, id string, price decimal.Decimal) error
	Deactivate(ctx context.Context, id string) error
	// RawSummary agrégats de la réserve brute.
	RawSummary(ctx context.Context, lowThreshold decimal.Decimal) (*entity.PoolSummary, error)
}
