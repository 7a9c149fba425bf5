package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/application/dto"
	"github.com/jhoicas/boulangerie-api/internal/application/inventory"
	"github.com/jhoicas/boulangerie-api/internal/domain"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// pageFrom lit limit/offset de la query string.
func pageFrom(c *fiber.Ctx) dto.PageRequest {
	p := dto.PageRequest{Limit: c.QueryInt("limit", defaultPageSize), Offset: c.QueryInt("offset", 0)}
	p.DefaultPage(defaultPageSize, maxPageSize)
	return p
}

// queryTime accepte RFC3339 ou une date AAAA-MM-JJ. Absent: nil.
// Avec une date seule et end=true, la borne couvre toute la journée.
func queryTime(c *fiber.Ctx, key string, end bool) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s doit être RFC3339 ou AAAA-MM-JJ", domain.ErrInvalidInput, key)
	}
	if end {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// queryDecimal lit un décimal, def si absent.
func queryDecimal(c *fiber.Ctx, key string, def decimal.Decimal) (decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s n'est pas un nombre", domain.ErrInvalidInput, key)
	}
	return d, nil
}

func parsePool(s string) (entity.Pool, error) {
	p, err := entity.ParsePool(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return p, nil
}

func toBalanceDTO(b entity.Balance) dto.BalanceDTO {
	return dto.BalanceDTO{Available: b.Available, Reserved: b.Reserved, Sold: b.Sold, Used: b.Used}
}

func toLedgerChangeDTO(ch inventory.LedgerChange) dto.LedgerChangeDTO {
	return dto.LedgerChangeDTO{Pool: string(ch.Pool), Before: ch.Before.Available, After: ch.After.Available}
}

func toStockEntryResponse(e *entity.StockEntry) dto.StockEntryResponse {
	out := dto.StockEntryResponse{
		BalanceDTO:  toBalanceDTO(e.Balance()),
		ProductID:   e.ProductID,
		ProductName: e.ProductName,
		Pool:        string(e.Pool),
		UpdatedAt:   e.UpdatedAt,
	}
	if e.SalePrice.Valid {
		price := e.SalePrice.Decimal
		out.SalePrice = &price
	}
	return out
}

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:        m.ID,
		ProductID: m.ProductID,
		Type:      string(m.Type),
		Pool:      string(m.Pool),
		Quantity:  m.Quantity,
		Before:    m.Before,
		After:     m.After,
		UserID:    m.UserID,
		Reference: m.Reference,
		Comment:   m.Comment,
		CreatedAt: m.CreatedAt,
	}
}

func toRequirementDTOs(reqs []inventory.IngredientRequirement) []dto.RequirementDTO {
	out := make([]dto.RequirementDTO, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, dto.RequirementDTO{
			IngredientID:   r.IngredientID,
			IngredientName: r.IngredientName,
			Unit:           r.Unit,
			Required:       r.Required,
			Available:      r.Available,
			Missing:        r.Missing,
		})
	}
	return out
}

func toProductionResponse(p *entity.Production) dto.ProductionResponse {
	return dto.ProductionResponse{
		ID:             p.ID,
		ProductID:      p.ProductID,
		ProductName:    p.ProductName,
		Quantity:       p.Quantity,
		Destination:    string(p.Destination),
		IngredientCost: p.IngredientCost,
		Status:         p.Status,
		UserID:         p.UserID,
		ProducedAt:     p.ProducedAt,
	}
}

func toRecipeResponse(r *entity.Recipe) dto.RecipeResponse {
	lines := make([]dto.RecipeIngredientDTO, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, dto.RecipeIngredientDTO{
			LineID:          l.LineID,
			IngredientID:    l.IngredientID,
			IngredientName:  l.IngredientName,
			Unit:            l.Unit,
			QuantityPerUnit: l.QuantityPerUnit,
			UnitCost:        l.UnitCost,
		})
	}
	return dto.RecipeResponse{Name: r.Name, UnitCost: r.UnitCost(), Lines: lines}
}

func toRecipeLineResponse(l *entity.RecipeLine) dto.RecipeLineResponse {
	return dto.RecipeLineResponse{
		ID:              l.ID,
		RecipeName:      l.RecipeName,
		IngredientID:    l.IngredientID,
		QuantityPerUnit: l.QuantityPerUnit,
		CreatedAt:       l.CreatedAt,
	}
}

func toSaleResponse(s *entity.Sale) dto.SaleResponse {
	lines := make([]dto.SaleLineResponse, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, dto.SaleLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Total:       l.Total,
		})
	}
	return dto.SaleResponse{
		ID:             s.ID,
		TicketNumber:   s.TicketNumber,
		Lines:          lines,
		Total:          s.Total,
		AmountTendered: s.AmountTendered,
		Change:         s.Change,
		SellerID:       s.SellerID,
		Status:         s.Status,
		CreatedAt:      s.CreatedAt,
	}
}

func toCancellationResponse(sc *entity.SaleCancellation) dto.CancellationResponse {
	return dto.CancellationResponse{
		ID:           sc.ID,
		SaleID:       sc.SaleID,
		TicketNumber: sc.TicketNumber,
		Amount:       sc.Amount,
		Reason:       sc.Reason,
		CancelledBy:  sc.CancelledBy,
		CancelledAt:  sc.CancelledAt,
	}
}
