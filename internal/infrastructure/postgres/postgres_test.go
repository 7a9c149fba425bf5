package postgres

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/boulangerie-api/internal/application/inventory"
	"github.com/jhoicas/boulangerie-api/internal/application/sales"
	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
	"github.com/jhoicas/boulangerie-api/internal/infrastructure/cache"
	"github.com/jhoicas/boulangerie-api/pkg/config"
	"github.com/jhoicas/boulangerie-api/pkg/logger"
)

func TestPgx5URL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@localhost:5432/db?sslmode=disable", pgx5URL("postgres://u:p@localhost:5432/db?sslmode=disable"))
	assert.Equal(t, "pgx5://u@h/db", pgx5URL("postgresql://u@h/db"))
	assert.Equal(t, "host=localhost dbname=db", pgx5URL("host=localhost dbname=db"))
}

func TestLimitOffset(t *testing.T) {
	lim, off := limitOffset(0, -3)
	assert.Nil(t, lim)
	assert.Equal(t, 0, off)

	lim, off = limitOffset(20, 40)
	assert.Equal(t, 20, lim)
	assert.Equal(t, 40, off)
}

func TestTableFor_RawPoolRejected(t *testing.T) {
	_, err := tableFor(entity.PoolRaw)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	table, err := tableFor(entity.PoolKitchen)
	require.NoError(t, err)
	assert.Equal(t, "stock_cuisine", table)
}

func TestLookupIPv4_Literals(t *testing.T) {
	ip, err := lookupIPv4(context.Background(), net.DefaultResolver, "10.0.0.7")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", ip)

	_, err = lookupIPv4(context.Background(), net.DefaultResolver, "::1")
	assert.ErrorIs(t, err, errNoIPv4)
}

// errRow ligne pgx dont Scan renvoie toujours err.
type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// failingQuerier chaque requête échoue avec err.
type failingQuerier struct{ err error }

func (q failingQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, q.err
}
func (q failingQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, q.err }
func (q failingQuerier) QueryRow(context.Context, string, ...any) pgx.Row   { return errRow{q.err} }
func (q failingQuerier) Begin(context.Context) (pgx.Tx, error)               { return nil, q.err }

func TestStockApply_ViolationCheckDevientStockInsuffisant(t *testing.T) {
	repo := NewStockRepository(failingQuerier{err: &pgconn.PgError{Code: "23514"}})
	_, _, err := repo.Apply(context.Background(), entity.PoolShop, "pain", entity.StockDelta{Available: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	products := NewProductRepository(failingQuerier{err: &pgconn.PgError{Code: "23514"}})
	_, _, err = products.AdjustRemaining(context.Background(), "farine", decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestRepos_ErreurDeStockageEnveloppee(t *testing.T) {
	cause := errors.New("connexion perdue")
	q := failingQuerier{err: cause}
	ctx := context.Background()

	_, _, err := NewStockRepository(q).Apply(ctx, entity.PoolShop, "pain", entity.StockDelta{Available: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, cause)
	var pe *domain.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "apply stock shop", pe.Op)

	err = NewSaleRepository(q).Create(ctx, &entity.Sale{ID: uuid.NewString(), TicketNumber: "TK-1"})
	assert.ErrorIs(t, err, domain.ErrPersistence)

	_, err = NewMovementRepository(q).List(ctx, entity.MovementFilter{})
	assert.ErrorIs(t, err, domain.ErrPersistence)

	// doublon: erreur métier, pas de persistance
	err = NewProductRepository(failingQuerier{err: &pgconn.PgError{Code: "23505"}}).Create(ctx, &entity.Product{ID: "p", Name: "Pain"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.NotErrorIs(t, err, domain.ErrPersistence)
}

// testPool ouvre une base réelle désignée par BOULANGERIE_TEST_DATABASE_URL et applique le schéma.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("BOULANGERIE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("BOULANGERIE_TEST_DATABASE_URL non définie")
	}
	m, err := NewMigrator(dsn, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func newTestProduct(t *testing.T, repos repository.Repos, remaining int64) *entity.Product {
	t.Helper()
	now := time.Now().UTC()
	p := &entity.Product{
		ID:            uuid.New().String(),
		Name:          "Farine " + uuid.New().String()[:8],
		Unit:          "kg",
		PurchasePrice: decimal.NewFromInt(remaining * 500),
		PurchasedQty:  decimal.NewFromInt(remaining),
		Remaining:     decimal.NewFromInt(remaining),
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, repos.Products.Create(context.Background(), p))
	return p
}

func TestIntegration_TransferRollbackOnInsufficientStock(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repos := NewRepos(pool)
	p := newTestProduct(t, repos, 10)

	tx := NewTxRunner(pool)
	err := tx.Run(ctx, func(r repository.Repos) error {
		if _, _, err := r.Products.AdjustRemaining(ctx, p.ID, decimal.NewFromInt(-4)); err != nil {
			return err
		}
		if err := r.Stock.Create(ctx, entity.PoolWorkshop, p.ID); err != nil {
			return err
		}
		_, _, err := r.Stock.Apply(ctx, entity.PoolWorkshop, p.ID, entity.StockDelta{Available: decimal.NewFromInt(4)})
		return err
	})
	require.NoError(t, err)

	err = tx.Run(ctx, func(r repository.Repos) error {
		if _, _, err := r.Products.AdjustRemaining(ctx, p.ID, decimal.NewFromInt(-2)); err != nil {
			return err
		}
		_, _, err := r.Stock.Apply(ctx, entity.PoolWorkshop, p.ID, entity.StockDelta{Available: decimal.NewFromInt(-10)})
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, err := repos.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Remaining.Equal(decimal.NewFromInt(6)), "remaining = %s", got.Remaining)

	entry, err := repos.Stock.Get(ctx, entity.PoolWorkshop, p.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.Available.Equal(decimal.NewFromInt(4)))
}

func TestIntegration_SaleTicketUniqueAndStatusTransition(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repos := NewRepos(pool)
	p := newTestProduct(t, repos, 5)

	now := time.Now().UTC()
	ticket := "TK-IT-" + uuid.New().String()[:8]
	sale := &entity.Sale{
		ID:           uuid.New().String(),
		TicketNumber: ticket,
		Lines: []entity.SaleLine{{
			ID: uuid.New().String(), ProductID: p.ID, ProductName: p.Name,
			Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(500), Total: decimal.NewFromInt(1000),
		}},
		Total:          decimal.NewFromInt(1000),
		AmountTendered: decimal.NewFromInt(1000),
		SellerID:       "vendeur-1",
		Status:         entity.SaleValidated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, repos.Sales.Create(ctx, sale))

	dup := *sale
	dup.ID = uuid.New().String()
	dup.Lines = nil
	assert.ErrorIs(t, repos.Sales.Create(ctx, &dup), domain.ErrDuplicate)

	got, err := repos.Sales.GetByTicket(ctx, ticket)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, p.ID, got.Lines[0].ProductID)
	assert.True(t, got.AmountTendered.Equal(decimal.NewFromInt(1000)))

	require.NoError(t, repos.Cancellations.Create(ctx, &entity.SaleCancellation{
		ID: uuid.New().String(), SaleID: sale.ID, TicketNumber: ticket, Amount: sale.Total,
		Reason: "erreur de saisie en caisse", CancelledBy: "gerant-1", CancelledAt: now,
	}))
	record, err := repos.Cancellations.GetBySale(ctx, sale.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, record.Amount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, "gerant-1", record.CancelledBy)

	require.NoError(t, repos.Sales.UpdateStatus(ctx, sale.ID, entity.SaleValidated, entity.SaleCancelled))
	assert.ErrorIs(t, repos.Sales.UpdateStatus(ctx, sale.ID, entity.SaleValidated, entity.SaleCancelled), domain.ErrConflict)
	assert.ErrorIs(t, repos.Sales.UpdateStatus(ctx, uuid.New().String(), entity.SaleValidated, entity.SaleCancelled), domain.ErrNotFound)
}

func TestIntegration_MovementsNewestFirst(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repos := NewRepos(pool)
	p := newTestProduct(t, repos, 3)

	base := time.Now().UTC().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		require.NoError(t, repos.Movements.Create(ctx, &entity.Movement{
			ProductID: p.ID,
			Type:      entity.MovementAjustement,
			Pool:      entity.PoolRaw,
			Quantity:  decimal.NewFromInt(1),
			Before:    decimal.NewFromInt(int64(i)),
			After:     decimal.NewFromInt(int64(i + 1)),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	list, err := repos.Movements.List(ctx, entity.MovementFilter{ProductID: p.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].After.Equal(decimal.NewFromInt(3)))

	latest, err := repos.Movements.Latest(ctx, p.ID, entity.PoolRaw)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.After.Equal(decimal.NewFromInt(3)))
}

func TestIntegration_ConcurrentSalesNeverOversell(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repos := NewRepos(pool)
	p := newTestProduct(t, repos, 0)

	const stock, buyers = 5, 12
	require.NoError(t, repos.Stock.Create(ctx, entity.PoolShop, p.ID))
	_, _, err := repos.Stock.Apply(ctx, entity.PoolShop, p.ID, entity.StockDelta{Available: decimal.NewFromInt(stock)})
	require.NoError(t, err)

	log := logger.Nop()
	ledger := inventory.NewLedger()
	pos := sales.NewPOSUseCase(NewTxRunner(pool), repos, ledger, inventory.NewMovementRecorder(log),
		cache.NoopStockCache{}, nil, sales.POSConfig{}, log)

	price := decimal.NewFromInt(250)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		sold     int
		refusals []error
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pos.FinalizeSale(ctx, sales.FinalizeSaleInput{
				Items:          []sales.SaleItem{{ProductID: p.ID, Quantity: decimal.NewFromInt(1), UnitPrice: &price}},
				AmountTendered: price,
				Seller:         entity.Actor{ID: "gerant-it", Role: entity.RoleGerant},
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				refusals = append(refusals, err)
				return
			}
			sold++
		}()
	}
	wg.Wait()

	assert.Equal(t, stock, sold)
	require.Len(t, refusals, buyers-stock)
	for _, err := range refusals {
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	}

	var remaining decimal.Decimal
	require.NoError(t, pool.QueryRow(ctx,
		"SELECT quantite_disponible FROM stock_boutique WHERE produit_id = $1", p.ID).Scan(&remaining))
	assert.True(t, remaining.IsZero(), "quantite_disponible = %s", remaining)
}
