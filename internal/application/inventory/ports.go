package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

// TxRunner exécute une fonction dans une transaction de base de données avec des dépôts liés à cette transaction.
// Garantit l'atomicité de chaque opération du grand livre.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repos) error) error
}

// StockCache cache des lectures de stock, vidé après chaque mutation du grand livre.
// Chaque Invalidate incrémente la génération; Fill abandonne l'écriture si la génération a changé
// depuis la lecture, pour qu'une lecture commencée avant un commit ne repeuple pas le cache.
type StockCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Generation(ctx context.Context) (uint64, error)
	Fill(ctx context.Context, gen uint64, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// PriceSetter applique un prix de vente dans une transaction en cours (fourni par le module de prix).
type PriceSetter interface {
	ApplyPrice(ctx context.Context, repos repository.Repos, actor entity.Actor, productID string, price decimal.Decimal) error
}
