package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// stockTables une table par réserve; la réserve brute vit dans produits.quantite_restante.
var stockTables = map[entity.Pool]string{
	entity.PoolWorkshop: "stock_atelier",
	entity.PoolShop:     "stock_boutique",
	entity.PoolKitchen:  "stock_cuisine",
}

// StockRepo implémentation de StockRepository sur PostgreSQL (utilisable avec pool ou tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construit l'adaptateur de stock. Passer pool ou tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

func tableFor(pool entity.Pool) (string, error) {
	t, ok := stockTables[pool]
	if !ok {
		return "", fmt.Errorf("%w: réserve %s sans lignes de stock", domain.ErrInvalidInput, pool)
	}
	return t, nil
}

func scanEntry(row pgx.Row, pool entity.Pool) (*entity.StockEntry, error) {
	e := entity.StockEntry{Pool: pool}
	err := row.Scan(&e.ID, &e.ProductID, &e.ProductName, &e.Available, &e.Reserved, &e.Sold, &e.Used, &e.SalePrice, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func entrySelect(table, where, suffix string) string {
	return `
		SELECT s.id, s.produit_id, p.nom, s.quantite_disponible, s.quantite_reservee, s.quantite_vendue,
		       s.quantite_utilisee, s.prix_vente, s.updated_at
		FROM ` + table + ` s
		JOIN produits p ON p.id = s.produit_id
		` + where + ` ` + suffix
}

// Get ligne d'un produit dans une réserve (nil, nil si absente).
func (r *StockRepo) Get(ctx context.Context, pool entity.Pool, productID string) (*entity.StockEntry, error) {
	return r.get(ctx, pool, productID, "")
}

// GetForUpdate verrouille la ligne de stock.
func (r *StockRepo) GetForUpdate(ctx context.Context, pool entity.Pool, productID string) (*entity.StockEntry, error) {
	return r.get(ctx, pool, productID, "FOR UPDATE OF s")
}

func (r *StockRepo) get(ctx context.Context, pool entity.Pool, productID, suffix string) (*entity.StockEntry, error) {
	table, err := tableFor(pool)
	if err != nil {
		return nil, err
	}
	e, err := scanEntry(r.q.QueryRow(ctx, entrySelect(table, "WHERE s.produit_id = $1", suffix), productID), pool)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Persistence("get stock "+string(pool), err)
	}
	return e, nil
}

// Create insère une ligne à zéro; sans effet si elle existe.
func (r *StockRepo) Create(ctx context.Context, pool entity.Pool, productID string) error {
	table, err := tableFor(pool)
	if err != nil {
		return err
	}
	query := `INSERT INTO ` + table + ` (produit_id) VALUES ($1) ON CONFLICT (produit_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, query, productID); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return domain.Persistence("create stock "+string(pool), err)
	}
	return nil
}

// Apply met à jour les quatre compteurs en une seule instruction.
// Disponible et réservé ne peuvent pas devenir négatifs; vendu et utilisé sont planchers à zéro.
func (r *StockRepo) Apply(ctx context.Context, pool entity.Pool, productID string, d entity.StockDelta) (*entity.StockEntry, *entity.StockEntry, error) {
	table, err := tableFor(pool)
	if err != nil {
		return nil, nil, err
	}
	query := `
		UPDATE ` + table + ` s
		SET quantite_disponible = o.quantite_disponible + $2,
		    quantite_reservee   = o.quantite_reservee + $3,
		    quantite_vendue     = GREATEST(o.quantite_vendue + $4, 0),
		    quantite_utilisee   = GREATEST(o.quantite_utilisee + $5, 0),
		    updated_at          = now()
		FROM (SELECT * FROM ` + table + ` WHERE produit_id = $1 FOR UPDATE) o
		WHERE s.id = o.id
		  AND o.quantite_disponible + $2 >= 0
		  AND o.quantite_reservee + $3 >= 0
		RETURNING o.quantite_disponible, o.quantite_reservee, o.quantite_vendue, o.quantite_utilisee,
		          s.id, s.quantite_disponible, s.quantite_reservee, s.quantite_vendue, s.quantite_utilisee,
		          s.prix_vente, s.updated_at`
	before := &entity.StockEntry{ProductID: productID, Pool: pool}
	after := &entity.StockEntry{ProductID: productID, Pool: pool}
	err = r.q.QueryRow(ctx, query, productID, d.Available, d.Reserved, d.Sold, d.Used).Scan(
		&before.Available, &before.Reserved, &before.Sold, &before.Used,
		&after.ID, &after.Available, &after.Reserved, &after.Sold, &after.Used,
		&after.SalePrice, &after.UpdatedAt,
	)
	if err == nil {
		before.ID, before.SalePrice = after.ID, after.SalePrice
		return before, after, nil
	}
	if isCheckViolation(err) {
		return nil, nil, domain.ErrInsufficientStock
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, domain.Persistence("apply stock "+string(pool), err)
	}
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE produit_id = $1)`, productID).Scan(&exists); err != nil {
		return nil, nil, domain.Persistence("apply stock "+string(pool), err)
	}
	if !exists {
		return nil, nil, domain.ErrNotFound
	}
	return nil, nil, domain.ErrInsufficientStock
}

func (r *StockRepo) list(ctx context.Context, pool entity.Pool, query string, args ...any) ([]*entity.StockEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Persistence("list stock "+string(pool), err)
	}
	defer rows.Close()
	var out []*entity.StockEntry
	for rows.Next() {
		e, err := scanEntry(rows, pool)
		if err != nil {
			return nil, domain.Persistence("scan stock", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListByPool lignes d'une réserve triées par nom de produit.
func (r *StockRepo) ListByPool(ctx context.Context, pool entity.Pool, limit, offset int) ([]*entity.StockEntry, error) {
	table, err := tableFor(pool)
	if err != nil {
		return nil, err
	}
	lim, off := limitOffset(limit, offset)
	return r.list(ctx, pool, entrySelect(table, "", "ORDER BY p.nom LIMIT $1 OFFSET $2"), lim, off)
}

// ListByProduct lignes d'un produit dans les réserves atelier, boutique et cuisine.
func (r *StockRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockEntry, error) {
	var out []*entity.StockEntry
	for _, pool := range []entity.Pool{entity.PoolWorkshop, entity.PoolShop, entity.PoolKitchen} {
		e, err := r.Get(ctx, pool, productID)
		if err != nil {
			return nil, err
		}
		if e != nil {
			out = append(out, e)
		}
	}
	return out, nil
}

// SetSalePrice met à jour la copie du prix sur la ligne (créée au besoin).
func (r *StockRepo) SetSalePrice(ctx context.Context, pool entity.Pool, productID string, price decimal.Decimal) error {
	table, err := tableFor(pool)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO ` + table + ` (produit_id, prix_vente) VALUES ($1, $2)
		ON CONFLICT (produit_id) DO UPDATE SET prix_vente = EXCLUDED.prix_vente, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, productID, price); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return domain.Persistence("set stock price "+string(pool), err)
	}
	return nil
}

// Summary agrégats d'une réserve.
func (r *StockRepo) Summary(ctx context.Context, pool entity.Pool, lowThreshold decimal.Decimal) (*entity.PoolSummary, error) {
	table, err := tableFor(pool)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(quantite_disponible), 0),
		       COUNT(*) FILTER (WHERE quantite_disponible > 0 AND quantite_disponible < $1),
		       COUNT(*) FILTER (WHERE quantite_disponible = 0)
		FROM ` + table
	s := &entity.PoolSummary{Pool: pool}
	if err := r.q.QueryRow(ctx, query, lowThreshold).Scan(&s.Products, &s.TotalAvailable, &s.LowStock, &s.OutOfStock); err != nil {
		return nil, domain.Persistence("stock summary "+string(pool), err)
	}
	return s, nil
}
