package inventory_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/boulangerie-api/internal/domain/inventory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestWeightedAverage(t *testing.T) {
	cases := []struct {
		name                                   string
		oldQty, oldPrice, addedQty, addedPrice string
		want                                   string
	}{
		{"mélange classique", "10", "100", "10", "200", "150"},
		{"stock vide: prix entrant", "0", "0", "5", "320", "320"},
		{"pondération inégale", "30", "500", "10", "700", "550"},
		{"total nul", "0", "100", "0", "200", "0"},
		{"restant négatif ignoré", "-2", "900", "8", "600", "600"},
		{"rien reçu: coût conservé", "12", "450", "0", "999", "450"},
		{"arrondi au dix-millième", "3", "1", "0.5", "2", "1.1429"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := inventory.WeightedAverage(d(tc.oldQty), d(tc.oldPrice), d(tc.addedQty), d(tc.addedPrice))
			assert.True(t, d(tc.want).Equal(got), "attendu %s, obtenu %s", tc.want, got)
		})
	}
}

func TestMargin(t *testing.T) {
	margin, pct := inventory.Margin(d("500"), d("400"))
	assert.True(t, d("100").Equal(margin))
	assert.True(t, d("25").Equal(pct))

	margin, pct = inventory.Margin(d("500"), decimal.Zero)
	assert.True(t, d("500").Equal(margin))
	assert.True(t, pct.IsZero(), "coût nul: pourcentage à 0")

	margin, pct = inventory.Margin(d("300"), d("400"))
	assert.True(t, d("-100").Equal(margin))
	assert.True(t, d("-25").Equal(pct))
}

func TestTicketNumber_Format(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	tk := inventory.TicketNumber("TK", now)
	assert.Regexp(t, regexp.MustCompile(`^TK-20240309-140507-[0-9A-F]{6}$`), tk)

	assert.NotEqual(t, inventory.TicketNumber("TK", now), inventory.TicketNumber("TK", now),
		"le suffixe aléatoire doit distinguer deux tickets de la même seconde")
	assert.Regexp(t, `^TK-`, inventory.TicketNumber("", now))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "pain complet", inventory.NormalizeName("  Pain   Complet "))
	assert.Equal(t, "creme patissiere", inventory.NormalizeName("Crème Pâtissière"))
	assert.Equal(t, inventory.NormalizeName("Farine T45"), inventory.NormalizeName("farine t45"))
	assert.Equal(t, "Pain Complet", inventory.CleanName(" Pain  Complet"))
}
