package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/inventory"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, nom, unite, prix_achat, quantite_achetee, quantite_restante, prix_vente, actif, created_at, updated_at`

// ProductRepo implémentation de ProductRepository sur PostgreSQL (utilisable avec pool ou tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construit l'adaptateur. Passer pool ou tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.Name, &p.Unit, &p.PurchasePrice, &p.PurchasedQty, &p.Remaining,
		&p.SalePrice, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un nouveau produit. ErrDuplicate si le nom normalisé existe déjà.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO produits (id, nom, nom_normalise, unite, prix_achat, quantite_achetee, quantite_restante, prix_vente, actif, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.Name, inventory.NormalizeName(product.Name), product.Unit,
		product.PurchasePrice, product.PurchasedQty, product.Remaining, product.SalePrice,
		product.Active, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return domain.Persistence("insert product", err)
	}
	return nil
}

func (r *ProductRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Persistence(op, err)
	}
	return p, nil
}

// GetByID obtient un produit par ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, "get product", `SELECT `+productColumns+` FROM produits WHERE id = $1`, id)
}

// GetByIDForUpdate obtient le produit et verrouille la ligne.
func (r *ProductRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, "get product for update", `SELECT `+productColumns+` FROM produits WHERE id = $1 FOR UPDATE`, id)
}

// GetByName recherche sur le nom normalisé (casse et accents ignorés).
func (r *ProductRepo) GetByName(ctx context.Context, name string) (*entity.Product, error) {
	return r.getOne(ctx, "get product by name", `SELECT `+productColumns+` FROM produits WHERE nom_normalise = $1`, inventory.NormalizeName(name))
}

// List liste les produits par nom.
func (r *ProductRepo) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*entity.Product, error) {
	lim, off := limitOffset(limit, offset)
	query := `
		SELECT ` + productColumns + `
		FROM produits
		WHERE ($1 = FALSE OR actif)
		ORDER BY nom
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, activeOnly, lim, off)
	if err != nil {
		return nil, domain.Persistence("list products", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, domain.Persistence("scan product", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// UpdatePurchase met à jour prix d'achat et quantité achetée.
func (r *ProductRepo) UpdatePurchase(ctx context.Context, product *entity.Product) error {
	query := `
		UPDATE produits SET prix_achat = $2, quantite_achetee = $3, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, product.ID, product.PurchasePrice, product.PurchasedQty)
	if err != nil {
		return domain.Persistence("update product purchase", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AdjustRemaining applique delta à la réserve brute en une seule instruction et renvoie avant/après.
func (r *ProductRepo) AdjustRemaining(ctx context.Context, id string, delta decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		UPDATE produits p
		SET quantite_restante = p.quantite_restante + $2, updated_at = now()
		FROM (SELECT id, quantite_restante FROM produits WHERE id = $1 FOR UPDATE) o
		WHERE p.id = o.id AND o.quantite_restante + $2 >= 0
		RETURNING o.quantite_restante, p.quantite_restante`
	var before, after decimal.Decimal
	err := r.q.QueryRow(ctx, query, id, delta).Scan(&before, &after)
	if err == nil {
		return before, after, nil
	}
	if isCheckViolation(err) {
		return decimal.Zero, decimal.Zero, domain.ErrInsufficientStock
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, decimal.Zero, domain.Persistence("adjust remaining", err)
	}
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM produits WHERE id = $1)`, id).Scan(&exists); err != nil {
		return decimal.Zero, decimal.Zero, domain.Persistence("adjust remaining", err)
	}
	if !exists {
		return decimal.Zero, decimal.Zero, domain.ErrNotFound
	}
	return decimal.Zero, decimal.Zero, domain.ErrInsufficientStock
}

// SetSalePrice met à jour le prix de vente du produit.
func (r *ProductRepo) SetSalePrice(ctx context.Context, id string, price decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `UPDATE produits SET prix_vente = $2, updated_at = now() WHERE id = $1`, id, price)
	if err != nil {
		return domain.Persistence("set product price", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Deactivate désactive un produit (jamais supprimé).
func (r *ProductRepo) Deactivate(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE produits SET actif = FALSE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return domain.Persistence("deactivate product", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RawSummary agrégats de la réserve brute sur les produits actifs déjà achetés.
func (r *ProductRepo) RawSummary(ctx context.Context, lowThreshold decimal.Decimal) (*entity.PoolSummary, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(quantite_restante), 0),
		       COUNT(*) FILTER (WHERE quantite_restante > 0 AND quantite_restante < $1),
		       COUNT(*) FILTER (WHERE quantite_restante = 0)
		FROM produits
		WHERE actif AND quantite_achetee > 0`
	s := &entity.PoolSummary{Pool: entity.PoolRaw}
	if err := r.q.QueryRow(ctx, query, lowThreshold).Scan(&s.Products, &s.TotalAvailable, &s.LowStock, &s.OutOfStock); err != nil {
		return nil, domain.Persistence("raw summary", err)
	}
	return s, nil
}
