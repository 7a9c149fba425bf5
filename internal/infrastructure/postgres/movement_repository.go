package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, produit_id, type_mouvement, reserve, quantite, quantite_avant, quantite_apres, utilisateur_id, reference, commentaire, created_at`

// MovementRepo journal des mouvements sur PostgreSQL (utilisable avec pool ou tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construit l'adaptateur. Passer pool ou tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	err := row.Scan(&m.ID, &m.ProductID, &m.Type, &m.Pool, &m.Quantity, &m.Before, &m.After,
		&m.UserID, &m.Reference, &m.Comment, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create insère le mouvement dans un point de sauvegarde: un échec ne fait pas avorter la transaction appelante.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	sp, err := r.q.Begin(ctx)
	if err != nil {
		return domain.Persistence("movement savepoint", err)
	}
	defer func() { _ = sp.Rollback(ctx) }()

	query := `
		INSERT INTO mouvements_stock (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = sp.Exec(ctx, query,
		m.ID, m.ProductID, m.Type, m.Pool, m.Quantity, m.Before, m.After,
		m.UserID, m.Reference, m.Comment, m.CreatedAt,
	)
	if err != nil {
		return domain.Persistence("create movement", err)
	}
	if err := sp.Commit(ctx); err != nil {
		return domain.Persistence("release movement savepoint", err)
	}
	return nil
}

// List historique filtré, du plus récent au plus ancien.
func (r *MovementRepo) List(ctx context.Context, f entity.MovementFilter) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM mouvements_stock WHERE 1 = 1`
	var args []any
	pos := 1
	add := func(clause string, v any) {
		query += fmt.Sprintf(clause, pos)
		args = append(args, v)
		pos++
	}
	if f.ProductID != "" {
		add(" AND produit_id = $%d", f.ProductID)
	}
	if f.Type != "" {
		add(" AND type_mouvement = $%d", f.Type)
	}
	if f.Pool != "" {
		add(" AND reserve = $%d", f.Pool)
	}
	if f.Reference != "" {
		add(" AND reference = $%d", f.Reference)
	}
	if f.From != nil {
		add(" AND created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add(" AND created_at <= $%d", *f.To)
	}
	lim, off := limitOffset(f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, lim, off)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Persistence("list movements", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, domain.Persistence("scan movement", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Latest dernier mouvement d'un produit sur une réserve.
func (r *MovementRepo) Latest(ctx context.Context, productID string, pool entity.Pool) (*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM mouvements_stock
		WHERE produit_id = $1 AND reserve = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, productID, pool))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Persistence("latest movement", err)
	}
	return m, nil
}
