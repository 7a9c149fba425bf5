package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/boulangerie-api/internal/application/dto"
	"github.com/jhoicas/boulangerie-api/internal/application/pricing"
)

// PriceHandler prix de vente et marges.
type PriceHandler struct {
	uc *pricing.PricingUseCase
}

// NewPriceHandler construit le handler.
func NewPriceHandler(uc *pricing.PricingUseCase) *PriceHandler {
	return &PriceHandler{uc: uc}
}

func toPriceResponse(p *pricing.PriceInfo) dto.PriceResponse {
	return dto.PriceResponse{
		ProductID:     p.ProductID,
		ProductName:   p.ProductName,
		SalePrice:     p.Price,
		UnitCost:      p.PurchaseCost,
		CostSource:    p.CostSource,
		Margin:        p.Margin,
		MarginPercent: p.MarginPercent,
	}
}

// Get godoc
// @Summary      Prix, coût de revient et marge d'un produit
// @Tags         prices
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  string  false  "ID du produit"
// @Param        recipe_name  query  string  false  "Nom de la recette (produit fini)"
// @Success      200  {object}  dto.PriceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/prices [get]
func (h *PriceHandler) Get(c *fiber.Ctx) error {
	target := pricing.Target{ProductID: c.Query("product_id"), RecipeName: c.Query("recipe_name")}
	if target.ProductID == "" && target.RecipeName == "" {
		return badRequest(c, "product_id ou recipe_name requis")
	}
	info, err := h.uc.GetPrice(c.Context(), target)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toPriceResponse(info))
}

// Set godoc
// @Summary      Fixer le prix de vente
// @Description  Met à jour le produit et la ligne de stock boutique dans la même transaction.
// @Tags         prices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SetPriceRequest  true  "product_id ou recipe_name, price"
// @Success      200   {object}  dto.PriceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/prices [put]
func (h *PriceHandler) Set(c *fiber.Ctx) error {
	var in dto.SetPriceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	info, err := h.uc.SetPrice(c.Context(), GetActor(c), pricing.Target{ProductID: in.ProductID, RecipeName: in.RecipeName}, in.Price)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toPriceResponse(info))
}
