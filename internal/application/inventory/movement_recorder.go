package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
	"github.com/jhoicas/boulangerie-api/pkg/logger"
)

// MovementRecorder écrit le journal d'audit après chaque mutation du grand livre.
// Un échec d'écriture est journalisé et ignoré: un mouvement manquant dégrade l'audit, pas le stock.
type MovementRecorder struct {
	log *logger.Logger
	now func() time.Time
}

// NewMovementRecorder construit l'enregistreur.
func NewMovementRecorder(log *logger.Logger) *MovementRecorder {
	return &MovementRecorder{log: log, now: time.Now}
}

// Record ajoute le mouvement et renvoie son ID ("" si l'écriture a échoué).
func (m *MovementRecorder) Record(ctx context.Context, repo repository.MovementRepository, mv entity.Movement) string {
	if mv.ID == "" {
		mv.ID = uuid.New().String()
	}
	if mv.CreatedAt.IsZero() {
		mv.CreatedAt = m.now()
	}
	if err := repo.Create(ctx, &mv); err != nil {
		m.log.Warn().Err(err).
			Str("product_id", mv.ProductID).
			Str("type", string(mv.Type)).
			Str("pool", string(mv.Pool)).
			Str("quantity", mv.Quantity.String()).
			Str("reference", mv.Reference).
			Msg("mouvement de stock non enregistré")
		return ""
	}
	return mv.ID
}

// RecordChange journalise une écriture du grand livre (avant/après = disponible).
func (m *MovementRecorder) RecordChange(ctx context.Context, repo repository.MovementRepository, change *LedgerChange, typ entity.MovementType, qty decimal.Decimal, actorID, reference, comment string) string {
	return m.Record(ctx, repo, entity.Movement{
		ProductID: change.ProductID,
		Type:      typ,
		Pool:      change.Pool,
		Quantity:  qty.Abs(),
		Before:    change.Before.Available,
		After:     change.After.Available,
		UserID:    actorID,
		Reference: reference,
		Comment:   comment,
	})
}

// InvalidateCache vide le cache de stock après commit; un échec est seulement journalisé.
func InvalidateCache(ctx context.Context, cache StockCache, log *logger.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("invalidation du cache de stock")
	}
}
