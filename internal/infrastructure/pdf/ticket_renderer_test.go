package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/boulangerie-api/internal/application/sales"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
)

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":        "0",
		"500":      "500",
		"25000":    "25 000",
		"1000000":  "1 000 000",
		"1250.5":   "1 250,50",
		"10.05":    "10,05",
		"-1500":    "-1 500",
		"99.999":   "100",
		"1234.567": "1 234,57",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Pain", truncate("Pain", 10))
	assert.Equal(t, "Croiss…", truncate("Croissant au beurre", 7))
}

func TestRenderTicket(t *testing.T) {
	sale := &entity.Sale{
		TicketNumber: "TK-20260101-ABC123",
		Lines: []entity.SaleLine{
			{ProductName: "Pain", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(500), Total: decimal.NewFromInt(1000)},
		},
		Total:          decimal.NewFromInt(1000),
		AmountTendered: decimal.NewFromInt(2000),
		Change:         decimal.NewFromInt(1000),
		Status:         entity.SaleValidated,
		CreatedAt:      time.Date(2026, 1, 1, 8, 30, 0, 0, time.UTC),
	}
	out, err := NewMarotoTicketRenderer().RenderTicket(sale, sales.ShopInfo{Name: "Boulangerie du Port", Currency: "FCFA"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewMarotoTicketRenderer().RenderTicket(nil, sales.ShopInfo{})
	assert.Error(t, err)
}
