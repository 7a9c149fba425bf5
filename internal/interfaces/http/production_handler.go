package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/boulangerie-api/internal/application/dto"
	"github.com/jhoicas/boulangerie-api/internal/application/inventory"
	"github.com/jhoicas/boulangerie-api/internal/domain/entity"
)

// ProductionHandler lots de production.
type ProductionHandler struct {
	uc      *inventory.ProductionUseCase
	queries *inventory.StockQueryUseCase
}

// NewProductionHandler construit le handler.
func NewProductionHandler(uc *inventory.ProductionUseCase, queries *inventory.StockQueryUseCase) *ProductionHandler {
	return &ProductionHandler{uc: uc, queries: queries}
}

// Produce godoc
// @Summary      Produire un lot
// @Description  Consomme les ingrédients en atelier et crédite le produit fini (boutique par défaut).
//
//	En cas de manque, aucun stock n'est modifié et la réponse 422 liste tous les ingrédients manquants.
//
// @Tags         productions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ProduceRequest  true  "recipe_name, quantity, destination, selling_price"
// @Success      201   {object}  dto.ProductionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ShortfallErrorResponse
// @Router       /api/productions [post]
func (h *ProductionHandler) Produce(c *fiber.Ctx) error {
	var in dto.ProduceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	var dest entity.Pool
	if in.Destination != "" {
		p, err := parsePool(in.Destination)
		if err != nil {
			return respondError(c, err)
		}
		dest = p
	}
	res, err := h.uc.Produce(c.Context(), inventory.ProduceInput{
		RecipeName:   in.RecipeName,
		Quantity:     in.Quantity,
		Destination:  dest,
		SellingPrice: in.SellingPrice,
		Actor:        GetActor(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	out := toProductionResponse(res.Production)
	out.Requirements = toRequirementDTOs(res.Requirements)
	output := toLedgerChangeDTO(res.Output)
	out.Output = &output
	out.PriceApplied = res.PriceApplied
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Historique des productions
// @Tags         productions
// @Security     Bearer
// @Produce      json
// @Param        from    query  string  false  "Début (RFC3339 ou AAAA-MM-JJ)"
// @Param        to      query  string  false  "Fin (RFC3339 ou AAAA-MM-JJ)"
// @Param        limit   query  int     false  "Limite"
// @Param        offset  query  int     false  "Décalage"
// @Success      200  {array}  dto.ProductionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/productions [get]
func (h *ProductionHandler) List(c *fiber.Ctx) error {
	from, err := queryTime(c, "from", false)
	if err != nil {
		return respondError(c, err)
	}
	to, err := queryTime(c, "to", true)
	if err != nil {
		return respondError(c, err)
	}
	page := pageFrom(c)
	list, err := h.queries.Productions(c.Context(), from, to, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.ProductionResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toProductionResponse(p))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtenir un lot de production
// @Tags         productions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID du lot"
// @Success      200  {object}  dto.ProductionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/productions/{id} [get]
func (h *ProductionHandler) GetByID(c *fiber.Ctx) error {
	p, err := h.queries.Production(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toProductionResponse(p))
}
