package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/application/dto"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

// ReplenishmentUseCase liste de réapprovisionnement de la réserve brute.
// Croise le restant avec la consommation récente (transferts vers l'atelier) pour prioriser les achats.
type ReplenishmentUseCase struct {
	repos      repository.Repos
	window     int // jours d'historique
	coverDays  int // jours de couverture visés
	maxScanned int
	now        func() time.Time
}

// NewReplenishmentUseCase construit le cas d'usage.
func NewReplenishmentUseCase(repos repository.Repos) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{repos: repos, window: 30, coverDays: 7, maxScanned: 5000, now: time.Now}
}

// GenerateReplenishmentList renvoie les matières premières dont le restant couvre moins de
// coverDays jours de consommation, avec la quantité suggérée et une priorité (1 = plus urgent).
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context) ([]dto.ReplenishmentSuggestionDTO, error) {
	products, err := uc.repos.Products.List(ctx, true, 0, 0)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return []dto.ReplenishmentSuggestionDTO{}, nil
	}

	end := uc.now()
	start := end.AddDate(0, 0, -uc.window)
	moves, err := uc.repos.Movements.List(ctx, entity.MovementFilter{
		Type:  entity.MovementTransfert,
		Pool:  entity.PoolRaw,
		From:  &start,
		To:    &end,
		Limit: uc.maxScanned,
	})
	if err != nil {
		return nil, err
	}

	// consommation = sorties de la réserve brute sur la fenêtre
	consumed := make(map[string]decimal.Decimal, len(products))
	for _, m := range moves {
		if m.After.LessThan(m.Before) {
			consumed[m.ProductID] = consumed[m.ProductID].Add(m.Quantity)
		}
	}

	days := decimal.NewFromInt(int64(uc.window))
	cover := decimal.NewFromInt(int64(uc.coverDays))

	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0)
	for _, p := range products {
		used, ok := consumed[p.ID]
		if !ok || !used.IsPositive() {
			continue
		}
		daily := used.Div(days).Round(3)
		target := daily.Mul(cover)
		if p.Remaining.GreaterThanOrEqual(target) {
			continue
		}
		suggested := target.Sub(p.Remaining).Round(3)
		daysLeft := decimal.Zero
		if daily.IsPositive() {
			daysLeft = p.Remaining.Div(daily).Round(1)
		}
		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ProductID:          p.ID,
			ProductName:        p.Name,
			Unit:               p.Unit,
			Remaining:          p.Remaining,
			ConsumedLastDays:   used,
			DailyConsumption:   daily,
			DaysOfCover:        daysLeft,
			SuggestedOrderQty:  suggested,
			UnitCost:           p.UnitCost().Round(2),
			EstimatedOrderCost: suggested.Mul(p.UnitCost()).Round(2),
		})
	}

	// moins de jours de couverture d'abord, puis plus forte consommation
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if !a.DaysOfCover.Equal(b.DaysOfCover) {
			return a.DaysOfCover.LessThan(b.DaysOfCover)
		}
		return a.DailyConsumption.GreaterThan(b.DailyConsumption)
	})

	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
