package inventory

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Margin marge brute et pourcentage sur coût.
// marginPercent = margin / cost × 100, 0 si le coût est nul.
func Margin(price, cost decimal.Decimal) (margin, marginPercent decimal.Decimal) {
	margin = price.Sub(cost)
	if cost.IsZero() {
		return margin, decimal.Zero
	}
	return margin, margin.Div(cost).Mul(hundred).Round(2)
}
