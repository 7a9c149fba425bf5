package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

var _ repository.ProductionRepository = (*ProductionRepo)(nil)

const productionColumns = `id, produit_id, nom_produit, quantite, destination, cout_ingredients, statut, utilisateur_id, date_production`

// ProductionRepo lots de production sur PostgreSQL.
type ProductionRepo struct {
	q Querier
}

// NewProductionRepository construit l'adaptateur. Passer pool ou tx (Querier).
func NewProductionRepository(q Querier) *ProductionRepo {
	return &ProductionRepo{q: q}
}

func scanProduction(row pgx.Row) (*entity.Production, error) {
	var p entity.Production
	err := row.Scan(&p.ID, &p.ProductID, &p.ProductName, &p.Quantity, &p.Destination,
		&p.IngredientCost, &p.Status, &p.UserID, &p.ProducedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductionRepo) Create(ctx context.Context, p *entity.Production) error {
	query := `
		INSERT INTO productions (` + productionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.ProductID, p.ProductName, p.Quantity, p.Destination,
		p.IngredientCost, p.Status, p.UserID, p.ProducedAt,
	)
	if err != nil {
		return domain.Persistence("insert production", err)
	}
	return nil
}

func (r *ProductionRepo) GetByID(ctx context.Context, id string) (*entity.Production, error) {
	p, err := scanProduction(r.q.QueryRow(ctx, `SELECT `+productionColumns+` FROM productions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Persistence("get production", err)
	}
	return p, nil
}

// List lots sur une période, les plus récents d'abord.
func (r *ProductionRepo) List(ctx context.Context, from, to *time.Time, limit, offset int) ([]*entity.Production, error) {
	lim, off := limitOffset(limit, offset)
	query := `
		SELECT ` + productionColumns + `
		FROM productions
		WHERE ($1::timestamptz IS NULL OR date_production >= $1)
		  AND ($2::timestamptz IS NULL OR date_production <= $2)
		ORDER BY date_production DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, from, to, lim, off)
	if err != nil {
		return nil, domain.Persistence("list productions", err)
	}
	defer rows.Close()
	var list []*entity.Production
	for rows.Next() {
		p, err := scanProduction(rows)
		if err != nil {
			return nil, domain.Persistence("scan production", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
