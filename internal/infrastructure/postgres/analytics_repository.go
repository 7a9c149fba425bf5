package postgres

import (
	"context"
	"time"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultations en lecture seule pour le tableau de bord.
type AnalyticsRepo struct {
	q Querier
}

// NewAnalyticsRepository construit l'adaptateur.
func NewAnalyticsRepository(q Querier) *AnalyticsRepo {
	return &AnalyticsRepo{q: q}
}

// SalesMetrics chiffre d'affaires, annulations et coût de production de la période.
// COALESCE renvoie zéro pour une période sans vente.
func (r *AnalyticsRepo) SalesMetrics(ctx context.Context, from, to time.Time) (*repository.SalesMetrics, error) {
	const query = `
	SELECT
	    COALESCE(SUM(v.total) FILTER (WHERE v.statut = 'validee'), 0) AS revenue,
	    COUNT(*)              FILTER (WHERE v.statut = 'validee')     AS tickets,
	    COALESCE(SUM(v.total) FILTER (WHERE v.statut = 'annulee'), 0) AS cancelled,
	    COUNT(*)              FILTER (WHERE v.statut = 'annulee')     AS cancelled_tickets,
	    (SELECT COALESCE(SUM(p.cout_ingredients), 0)
	       FROM productions p
	      WHERE p.date_production BETWEEN $1 AND $2)                AS production_cost
	FROM ventes v
	WHERE v.created_at BETWEEN $1 AND $2`

	var m repository.SalesMetrics
	err := r.q.QueryRow(ctx, query, from, to).
		Scan(&m.Revenue, &m.Tickets, &m.Cancelled, &m.CancelledTickets, &m.ProductionCost)
	if err != nil {
		return nil, domain.Persistence("analytics.SalesMetrics", err)
	}
	return &m, nil
}

// TopProducts produits les plus vendus (chiffre d'affaires) sur les ventes validées.
func (r *AnalyticsRepo) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]repository.TopProduct, error) {
	const query = `
	SELECT
	    l.produit_id,
	    MAX(l.nom_produit)  AS nom_produit,
	    SUM(l.quantite)     AS quantity_sold,
	    SUM(l.total)        AS revenue
	FROM lignes_vente l
	JOIN ventes v ON v.id = l.vente_id
	WHERE v.statut = 'validee'
	  AND v.created_at BETWEEN $1 AND $2
	GROUP BY l.produit_id
	ORDER BY revenue DESC, quantity_sold DESC
	LIMIT $3`

	rows, err := r.q.Query(ctx, query, from, to, limit)
	if err != nil {
		return nil, domain.Persistence("analytics.TopProducts", err)
	}
	defer rows.Close()

	results := []repository.TopProduct{}
	for rows.Next() {
		var item repository.TopProduct
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.QuantitySold, &item.Revenue); err != nil {
			return nil, domain.Persistence("analytics.TopProducts scan", err)
		}
		results = append(results, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("analytics.TopProducts rows", err)
	}
	return results, nil
}
