package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/boulangerie-api/internal/application/inventory"
	"github.com/jhoicas/boulangerie-api/internal/application/pricing"
	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

var (
	_ inventory.TxRunner = (*TxRunner)(nil)
	_ pricing.TxRunner   = (*TxRunner)(nil)
)

// NewRepos construit l'ensemble des dépôts sur q (pool pour les lectures, tx dans Run).
func NewRepos(q Querier) repository.Repos {
	return repository.Repos{
		Products:      NewProductRepository(q),
		Stock:         NewStockRepository(q),
		Movements:     NewMovementRepository(q),
		Recipes:       NewRecipeRepository(q),
		Productions:   NewProductionRepository(q),
		Sales:         NewSaleRepository(q),
		Cancellations: NewCancellationRepository(q),
	}
}

// TxRunner exécute des callbacks dans une transaction PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construit le runner avec le pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run ouvre une transaction, exécute fn avec des dépôts liés à la tx, puis Commit ou Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Persistence("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Persistence("commit transaction", err)
	}
	return nil
}
