package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
	"github.com/jhoicas/boulangerie-api/pkg/logger"
)

const summaryCacheKey = "summary"

// ProductBalances soldes d'un produit dans toutes les réserves.
type ProductBalances struct {
	ProductID   string                         `json:"product_id"`
	ProductName string                         `json:"product_name"`
	Unit        string                         `json:"unit"`
	Pools       map[entity.Pool]entity.Balance `json:"pools"`
}

// Drift écart entre le solde courant et le dernier mouvement journalisé.
type Drift struct {
	ProductID    string
	Pool         entity.Pool
	Balance      decimal.Decimal
	LastRecorded *decimal.Decimal // nil si aucun mouvement
	LastMovement *entity.Movement
	Consistent   bool
}

// StockQueryUseCase lectures du grand livre, servies depuis le cache quand c'est possible.
type StockQueryUseCase struct {
	repos        repository.Repos
	ledger       *Ledger
	cache        StockCache
	ttl          time.Duration
	lowThreshold decimal.Decimal
	log          *logger.Logger
}

// NewStockQueryUseCase construit le cas d'usage sur des dépôts hors transaction.
func NewStockQueryUseCase(repos repository.Repos, ledger *Ledger, cache StockCache, ttl time.Duration, lowThreshold decimal.Decimal, log *logger.Logger) *StockQueryUseCase {
	return &StockQueryUseCase{repos: repos, ledger: ledger, cache: cache, ttl: ttl, lowThreshold: lowThreshold, log: log}
}

// Balances soldes d'un produit par réserve. Une réserve sans ligne vaut zéro.
func (uc *StockQueryUseCase) Balances(ctx context.Context, productID string) (*ProductBalances, error) {
	key := "balances:" + productID
	var cached ProductBalances
	if uc.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}
	gen, fill := uc.cacheGeneration(ctx)
	p, err := uc.repos.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: produit %s", domain.ErrNotFound, productID)
	}
	out := &ProductBalances{
		ProductID:   p.ID,
		ProductName: p.Name,
		Unit:        p.Unit,
		Pools:       make(map[entity.Pool]entity.Balance, len(entity.Pools)),
	}
	for _, pool := range entity.Pools {
		out.Pools[pool] = entity.Balance{}
	}
	out.Pools[entity.PoolRaw] = entity.Balance{Available: p.Remaining}
	entries, err := uc.repos.Stock.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		out.Pools[e.Pool] = e.Balance()
	}
	uc.cacheFill(ctx, gen, fill, key, out)
	return out, nil
}

// ListPool lignes d'une réserve. La réserve brute est lue sur les produits actifs.
func (uc *StockQueryUseCase) ListPool(ctx context.Context, pool entity.Pool, limit, offset int) ([]*entity.StockEntry, error) {
	if _, err := entity.ParsePool(string(pool)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if pool != entity.PoolRaw {
		return uc.repos.Stock.ListByPool(ctx, pool, limit, offset)
	}
	products, err := uc.repos.Products.List(ctx, true, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.StockEntry, 0, len(products))
	for _, p := range products {
		out = append(out, &entity.StockEntry{
			ID:          p.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			Pool:        entity.PoolRaw,
			Available:   p.Remaining,
			SalePrice:   decimal.NullDecimal{Decimal: p.SalePrice, Valid: p.SalePrice.IsPositive()},
			UpdatedAt:   p.UpdatedAt,
		})
	}
	return out, nil
}

// Summary agrégats de chaque réserve.
func (uc *StockQueryUseCase) Summary(ctx context.Context) ([]entity.PoolSummary, error) {
	var cached []entity.PoolSummary
	if uc.cacheGet(ctx, summaryCacheKey, &cached) {
		return cached, nil
	}
	gen, fill := uc.cacheGeneration(ctx)
	out := make([]entity.PoolSummary, 0, len(entity.Pools))
	raw, err := uc.repos.Products.RawSummary(ctx, uc.lowThreshold)
	if err != nil {
		return nil, err
	}
	out = append(out, *raw)
	for _, pool := range entity.Pools[1:] {
		s, err := uc.repos.Stock.Summary(ctx, pool, uc.lowThreshold)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	uc.cacheFill(ctx, gen, fill, summaryCacheKey, out)
	return out, nil
}

// Movements journal filtré, du plus récent au plus ancien.
func (uc *StockQueryUseCase) Movements(ctx context.Context, filter entity.MovementFilter) ([]*entity.Movement, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return uc.repos.Movements.List(ctx, filter)
}

// Reconcile compare le solde courant au solde "après" du dernier mouvement de la ligne.
// Un écart signale un mouvement perdu, pas une erreur de solde.
func (uc *StockQueryUseCase) Reconcile(ctx context.Context, productID string, pool entity.Pool) (*Drift, error) {
	if _, err := entity.ParsePool(string(pool)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	bal, err := uc.ledger.Balance(ctx, uc.repos, productID, pool)
	if err != nil {
		return nil, err
	}
	last, err := uc.repos.Movements.Latest(ctx, productID, pool)
	if err != nil {
		return nil, err
	}
	d := &Drift{ProductID: productID, Pool: pool, Balance: bal.Available, LastMovement: last, Consistent: true}
	if last != nil {
		after := last.After
		d.LastRecorded = &after
		d.Consistent = after.Equal(bal.Available)
	}
	if !d.Consistent {
		uc.log.Warn().
			Str("product_id", productID).
			Str("pool", string(pool)).
			Str("balance", bal.Available.String()).
			Str("last_recorded", d.LastRecorded.String()).
			Msg("écart entre solde et journal")
	}
	return d, nil
}

// Productions lots de production, du plus récent au plus ancien.
func (uc *StockQueryUseCase) Productions(ctx context.Context, from, to *time.Time, limit, offset int) ([]*entity.Production, error) {
	return uc.repos.Productions.List(ctx, from, to, limit, offset)
}

// Production lot par ID.
func (uc *StockQueryUseCase) Production(ctx context.Context, id string) (*entity.Production, error) {
	p, err := uc.repos.Productions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: production %s", domain.ErrNotFound, id)
	}
	return p, nil
}

func (uc *StockQueryUseCase) cacheGet(ctx context.Context, key string, dest any) bool {
	if uc.cache == nil {
		return false
	}
	ok, err := uc.cache.Get(ctx, key, dest)
	if err != nil {
		uc.log.Debug().Err(err).Str("key", key).Msg("lecture du cache de stock")
		return false
	}
	return ok
}

// cacheGeneration à prendre avant la lecture en base; ok faux désactive le remplissage.
func (uc *StockQueryUseCase) cacheGeneration(ctx context.Context) (gen uint64, ok bool) {
	if uc.cache == nil {
		return 0, false
	}
	gen, err := uc.cache.Generation(ctx)
	if err != nil {
		uc.log.Debug().Err(err).Msg("génération du cache de stock")
		return 0, false
	}
	return gen, true
}

func (uc *StockQueryUseCase) cacheFill(ctx context.Context, gen uint64, ok bool, key string, value any) {
	if !ok {
		return
	}
	if err := uc.cache.Fill(ctx, gen, key, value, uc.ttl); err != nil {
		uc.log.Debug().Err(err).Str("key", key).Msg("écriture du cache de stock")
	}
}
