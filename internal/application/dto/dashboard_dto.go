package dto

import "github.com/shopspring/decimal"

// DashboardSummaryDTO réponse de GET /api/dashboard/summary.
// Indicateurs du jour et du mois en cours, plus les meilleures ventes du mois.
type DashboardSummaryDTO struct {
	// Jour en cours (00:00 – 23:59)
	TodaySales   decimal.Decimal `json:"today_sales"`
	TodayTickets int             `json:"today_tickets"`
	TodayMargin  decimal.Decimal `json:"today_margin"` // ventes - coût des productions du jour

	// Mois en cours (1er – aujourd'hui)
	MonthlySales     decimal.Decimal `json:"monthly_sales"`
	MonthlyTickets   int             `json:"monthly_tickets"`
	MonthlyMargin    decimal.Decimal `json:"monthly_margin"`
	MonthlyCancelled decimal.Decimal `json:"monthly_cancelled"`
	CancelledTickets int             `json:"cancelled_tickets"`

	TopProducts []TopProductDTO `json:"top_products"`

	DateLabel string `json:"date_label"` // ex: "Octobre 2026"
}

// TopProductDTO produit du classement des ventes.
type TopProductDTO struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold decimal.Decimal `json:"quantity_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	SharePercent decimal.Decimal `json:"share_percent"` // part du chiffre d'affaires du mois
}
