package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/boulangerie-api/internal/application/analytics"
)

// DashboardHandler tableau de bord des ventes.
type DashboardHandler struct {
	uc *appanalytics.DashboardUseCase
}

// NewDashboardHandler construit le handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetSummary résumé des ventes du jour et du mois en cours.
// GET /api/dashboard/summary
//
// Réponse: DashboardSummaryDTO (today_sales, monthly_sales, marges, annulations, top_products[5], date_label).
// Les bornes de dates sont calculées côté serveur.
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.uc.GetSummary(c.Context(), GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}
