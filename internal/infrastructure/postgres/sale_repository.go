package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

var (
	_ repository.SaleRepository         = (*SaleRepo)(nil)
	_ repository.CancellationRepository = (*CancellationRepo)(nil)
)

const saleColumns = `id, numero_ticket, total, montant_donne, monnaie_rendue, vendeur_id, statut, created_at, updated_at`

// SaleRepo ventes et lignes de vente sur PostgreSQL.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construit l'adaptateur. Passer pool ou tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	err := row.Scan(&s.ID, &s.TicketNumber, &s.Total, &s.AmountTendered, &s.Change,
		&s.SellerID, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create insère l'en-tête puis les lignes. ErrDuplicate si le numéro de ticket est déjà pris.
// En-tête et lignes sont insérés ensemble dans un point de sauvegarde (lignes envoyées en batch).
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	sp, err := r.q.Begin(ctx)
	if err != nil {
		return domain.Persistence("sale savepoint", err)
	}
	defer func() { _ = sp.Rollback(ctx) }()

	query := `
		INSERT INTO ventes (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = sp.Exec(ctx, query,
		sale.ID, sale.TicketNumber, sale.Total, sale.AmountTendered, sale.Change,
		sale.SellerID, sale.Status, sale.CreatedAt, sale.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return domain.Persistence("insert sale", err)
	}

	batch := &pgx.Batch{}
	for i, l := range sale.Lines {
		batch.Queue(`
			INSERT INTO lignes_vente (id, vente_id, produit_id, nom_produit, quantite, prix_unitaire, total, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			l.ID, sale.ID, l.ProductID, l.ProductName, l.Quantity, l.UnitPrice, l.Total, i,
		)
	}
	if err := sp.SendBatch(ctx, batch).Close(); err != nil {
		return domain.Persistence("insert sale lines", err)
	}
	if err := sp.Commit(ctx); err != nil {
		return domain.Persistence("release sale savepoint", err)
	}
	return nil
}

func (r *SaleRepo) withLines(ctx context.Context, s *entity.Sale) (*entity.Sale, error) {
	query := `
		SELECT id, vente_id, produit_id, nom_produit, quantite, prix_unitaire, total
		FROM lignes_vente
		WHERE vente_id = $1
		ORDER BY position`
	rows, err := r.q.Query(ctx, query, s.ID)
	if err != nil {
		return nil, domain.Persistence("list sale lines", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice, &l.Total); err != nil {
			return nil, domain.Persistence("scan sale line", err)
		}
		s.Lines = append(s.Lines, l)
	}
	return s, rows.Err()
}

func (r *SaleRepo) getOne(ctx context.Context, op, query string, arg string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Persistence(op, err)
	}
	return r.withLines(ctx, s)
}

func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.getOne(ctx, "get sale", `SELECT `+saleColumns+` FROM ventes WHERE id = $1`, id)
}

func (r *SaleRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.getOne(ctx, "get sale for update", `SELECT `+saleColumns+` FROM ventes WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepo) GetByTicket(ctx context.Context, ticket string) (*entity.Sale, error) {
	return r.getOne(ctx, "get sale by ticket", `SELECT `+saleColumns+` FROM ventes WHERE numero_ticket = $1`, ticket)
}

// List ventes filtrées, les plus récentes d'abord, lignes incluses.
func (r *SaleRepo) List(ctx context.Context, f entity.SaleFilter) ([]*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM ventes WHERE 1 = 1`
	var args []any
	pos := 1
	add := func(clause string, v any) {
		query += fmt.Sprintf(clause, pos)
		args = append(args, v)
		pos++
	}
	if f.Status != "" {
		add(" AND statut = $%d", f.Status)
	}
	if f.SellerID != "" {
		add(" AND vendeur_id = $%d", f.SellerID)
	}
	if f.From != nil {
		add(" AND created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add(" AND created_at <= $%d", *f.To)
	}
	lim, off := limitOffset(f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, lim, off)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.Persistence("list sales", err)
	}
	var list []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			rows.Close()
			return nil, domain.Persistence("scan sale", err)
		}
		list = append(list, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("list sales", err)
	}
	for _, s := range list {
		if _, err := r.withLines(ctx, s); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// UpdateStatus transition conditionnelle: ErrConflict si le statut courant n'est plus from.
func (r *SaleRepo) UpdateStatus(ctx context.Context, id, from, to string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE ventes SET statut = $3, updated_at = now() WHERE id = $1 AND statut = $2`, id, from, to)
	if err != nil {
		return domain.Persistence("update sale status", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM ventes WHERE id = $1)`, id).Scan(&exists); err != nil {
		return domain.Persistence("update sale status", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

// CancellationRepo annulations de ventes sur PostgreSQL.
type CancellationRepo struct {
	q Querier
}

// NewCancellationRepository construit l'adaptateur. Passer pool ou tx (Querier).
func NewCancellationRepository(q Querier) *CancellationRepo {
	return &CancellationRepo{q: q}
}

func (r *CancellationRepo) Create(ctx context.Context, c *entity.SaleCancellation) error {
	query := `
		INSERT INTO annulations_ventes (id, vente_id, numero_ticket, montant_annule, motif, annule_par, annule_le)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, c.ID, c.SaleID, c.TicketNumber, c.Amount, c.Reason, c.CancelledBy, c.CancelledAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return domain.Persistence("insert cancellation", err)
	}
	return nil
}

func (r *CancellationRepo) GetBySale(ctx context.Context, saleID string) (*entity.SaleCancellation, error) {
	query := `
		SELECT id, vente_id, numero_ticket, montant_annule, motif, annule_par, annule_le
		FROM annulations_ventes WHERE vente_id = $1`
	var c entity.SaleCancellation
	err := r.q.QueryRow(ctx, query, saleID).Scan(&c.ID, &c.SaleID, &c.TicketNumber, &c.Amount, &c.Reason, &c.CancelledBy, &c.CancelledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Persistence("get cancellation", err)
	}
	return &c, nil
}
