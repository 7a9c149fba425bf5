package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
	"github.com/jhoicas/boulangerie-api/internal/infrastructure/memory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sale(id, ticket, status string, at time.Time, lines ...entity.SaleLine) *entity.Sale {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total)
	}
	return &entity.Sale{
		ID: id, TicketNumber: ticket, Lines: lines, Total: total,
		Status: status, CreatedAt: at, UpdatedAt: at,
	}
}

func line(productID, name, qty, total string) entity.SaleLine {
	return entity.SaleLine{ProductID: productID, ProductName: name, Quantity: d(qty), Total: d(total)}
}

func TestDashboard_GetSummary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.October, 16, 15, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	repos := store.Repos()

	earlier := time.Date(2026, time.October, 3, 9, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, time.September, 30, 18, 0, 0, 0, time.UTC)

	require.NoError(t, repos.Sales.Create(ctx, sale("s1", "T-1", entity.SaleValidated, now.Add(-time.Hour),
		line("bag", "Baguette", "4", "1000"), line("cro", "Croissant", "1", "400"))))
	require.NoError(t, repos.Sales.Create(ctx, sale("s2", "T-2", entity.SaleValidated, earlier,
		line("cro", "Croissant", "5", "2000"))))
	require.NoError(t, repos.Sales.Create(ctx, sale("s3", "T-3", entity.SaleCancelled, now.Add(-2*time.Hour),
		line("bag", "Baguette", "2", "500"))))
	require.NoError(t, repos.Sales.Create(ctx, sale("s4", "T-4", entity.SaleValidated, lastMonth,
		line("bag", "Baguette", "100", "25000"))))
	require.NoError(t, repos.Productions.Create(ctx, &entity.Production{
		ID: "p1", ProductID: "bag", Quantity: d("10"), Destination: entity.PoolShop,
		IngredientCost: d("300"), Status: entity.ProductionDone, ProducedAt: now.Add(-3 * time.Hour),
	}))

	uc := NewDashboardUseCase(store.Analytics())
	uc.now = func() time.Time { return now }

	got, err := uc.GetSummary(ctx, entity.Actor{ID: "g", Role: entity.RoleGerant})
	require.NoError(t, err)

	assert.True(t, got.TodaySales.Equal(d("1400")))
	assert.Equal(t, 1, got.TodayTickets)
	assert.True(t, got.TodayMargin.Equal(d("1100")))
	assert.True(t, got.MonthlySales.Equal(d("3400")))
	assert.Equal(t, 2, got.MonthlyTickets)
	assert.True(t, got.MonthlyCancelled.Equal(d("500")))
	assert.Equal(t, 1, got.CancelledTickets)
	assert.Equal(t, "Octobre 2026", got.DateLabel)

	require.Len(t, got.TopProducts, 2)
	assert.Equal(t, "cro", got.TopProducts[0].ProductID)
	assert.True(t, got.TopProducts[0].QuantitySold.Equal(d("6")))
	assert.True(t, got.TopProducts[0].TotalRevenue.Equal(d("2400")))
	assert.True(t, got.TopProducts[0].SharePercent.Equal(d("70.59")))
	assert.Equal(t, "bag", got.TopProducts[1].ProductID)
}

func TestDashboard_EmptyPeriod(t *testing.T) {
	uc := NewDashboardUseCase(memory.NewStore().Analytics())
	got, err := uc.GetSummary(context.Background(), entity.Actor{ID: "a", Role: entity.RoleAdmin})
	require.NoError(t, err)
	assert.True(t, got.MonthlySales.IsZero())
	assert.Empty(t, got.TopProducts)
}

func TestDashboard_Forbidden(t *testing.T) {
	uc := NewDashboardUseCase(memory.NewStore().Analytics())
	for _, role := range []string{entity.RoleVendeur, entity.RoleMagasinier} {
		_, err := uc.GetSummary(context.Background(), entity.Actor{ID: "x", Role: role})
		assert.ErrorIs(t, err, domain.ErrForbidden, role)
	}
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Août 2025", monthLabel(time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Janvier 2027", monthLabel(time.Date(2027, time.January, 31, 0, 0, 0, 0, time.UTC)))
}
