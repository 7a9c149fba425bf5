// Package analytics indicateurs de caisse pour le tableau de bord du gérant.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/application/dto"
	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/domain/repository"
)

const dashboardTopProducts = 5

var hundred = decimal.NewFromInt(100)

// DashboardUseCase résumé des ventes du jour et du mois en cours.
// Lecture seule; tout passe par AnalyticsRepository.
type DashboardUseCase struct {
	repo repository.AnalyticsRepository
	now  func() time.Time
}

// NewDashboardUseCase construit le cas d'usage.
func NewDashboardUseCase(repo repository.AnalyticsRepository) *DashboardUseCase {
	return &DashboardUseCase{repo: repo, now: time.Now}
}

// GetSummary lance les trois requêtes en parallèle:
//  1. SalesMetrics(jour)
//  2. SalesMetrics(mois)
//  3. TopProducts(mois)
func (uc *DashboardUseCase) GetSummary(ctx context.Context, actor entity.Actor) (*dto.DashboardSummaryDTO, error) {
	if !actor.IsElevated() {
		return nil, domain.ErrForbidden
	}
	now := uc.now()

	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayEnd := todayStart.Add(24*time.Hour - time.Nanosecond)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	type metricsResult struct {
		m   *repository.SalesMetrics
		err error
	}
	type topResult struct {
		items []repository.TopProduct
		err   error
	}

	todayCh := make(chan metricsResult, 1)
	monthCh := make(chan metricsResult, 1)
	topCh := make(chan topResult, 1)

	go func() {
		m, err := uc.repo.SalesMetrics(ctx, todayStart, todayEnd)
		todayCh <- metricsResult{m, err}
	}()
	go func() {
		m, err := uc.repo.SalesMetrics(ctx, monthStart, todayEnd)
		monthCh <- metricsResult{m, err}
	}()
	go func() {
		items, err := uc.repo.TopProducts(ctx, monthStart, todayEnd, dashboardTopProducts)
		topCh <- topResult{items, err}
	}()

	today := <-todayCh
	month := <-monthCh
	top := <-topCh

	if today.err != nil {
		return nil, fmt.Errorf("tableau de bord: ventes du jour: %w", today.err)
	}
	if month.err != nil {
		return nil, fmt.Errorf("tableau de bord: ventes du mois: %w", month.err)
	}
	if top.err != nil {
		return nil, fmt.Errorf("tableau de bord: meilleures ventes: %w", top.err)
	}

	products := make([]dto.TopProductDTO, 0, len(top.items))
	for _, p := range top.items {
		share := decimal.Zero
		if month.m.Revenue.IsPositive() {
			share = p.Revenue.Div(month.m.Revenue).Mul(hundred).Round(2)
		}
		products = append(products, dto.TopProductDTO{
			ProductID:    p.ProductID,
			ProductName:  p.ProductName,
			QuantitySold: p.QuantitySold,
			TotalRevenue: p.Revenue.Round(2),
			SharePercent: share,
		})
	}

	return &dto.DashboardSummaryDTO{
		TodaySales:       today.m.Revenue.Round(2),
		TodayTickets:     today.m.Tickets,
		TodayMargin:      today.m.Revenue.Sub(today.m.ProductionCost).Round(2),
		MonthlySales:     month.m.Revenue.Round(2),
		MonthlyTickets:   month.m.Tickets,
		MonthlyMargin:    month.m.Revenue.Sub(month.m.ProductionCost).Round(2),
		MonthlyCancelled: month.m.Cancelled.Round(2),
		CancelledTickets: month.m.CancelledTickets,
		TopProducts:      products,
		DateLabel:        monthLabel(now),
	}, nil
}

// monthLabel "Octobre 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
		"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
