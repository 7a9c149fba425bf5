package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
)

// StockRepository port des lignes de stock atelier, boutique et cuisine.
// Utilisé à l'intérieur des transactions; toute écriture de solde est une mise à jour atomique d'une seule ligne.
type StockRepository interface {
	// Get renvoie nil, nil si la ligne n'existe pas.
	Get(ctx context.Context, pool entity.Pool, productID string) (*entity.StockEntry, error)
	// GetForUpdate verrouille la ligne (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, pool entity.Pool, productID string) (*entity.StockEntry, error)
	// Create insère une ligne à zéro; sans effet si elle existe déjà.
	Create(ctx context.Context, pool entity.Pool, productID string) error
	// Apply applique le delta en une écriture et renvoie la ligne avant et après.
	// ErrNotFound si la ligne n'existe pas, ErrInsufficientStock si available ou reserved deviendrait négatif.
	Apply(ctx context.Context, pool entity.Pool, productID string, delta entity.StockDelta) (before, after *entity.StockEntry, err error)
	ListByPool(ctx context.Context, pool entity.Pool, limit, offset int) ([]*entity.StockEntry, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockEntry, error)
	// SetSalePrice met à jour la copie dénormalisée du prix (crée la ligne boutique si absente).
	SetSalePrice(ctx context.Context, pool entity.Pool, productID string, price decimal.Decimal) error
	Summary(ctx context.Context, pool entity.Pool, lowThreshold decimal.Decimal) (*entity.PoolSummary, error)
}
