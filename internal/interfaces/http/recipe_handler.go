package http

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/boulangerie-api/internal/application/dto"
	"github.com/jhoicas/boulangerie-api/internal/application/inventory"
)

// RecipeHandler nomenclatures des produits finis.
type RecipeHandler struct {
	uc *inventory.RecipeUseCase
}

// NewRecipeHandler construit le handler.
func NewRecipeHandler(uc *inventory.RecipeUseCase) *RecipeHandler {
	return &RecipeHandler{uc: uc}
}

// le nom de recette arrive encodé dans le chemin (espaces, accents)
func recipeName(c *fiber.Ctx) string {
	raw := c.Params("name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

// List godoc
// @Summary      Lister les recettes
// @Tags         recipes
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.RecipeSummaryDTO
// @Router       /api/recipes [get]
func (h *RecipeHandler) List(c *fiber.Ctx) error {
	list, err := h.uc.List(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.RecipeSummaryDTO, 0, len(list))
	for _, r := range list {
		out = append(out, dto.RecipeSummaryDTO{Name: r.Name, Lines: r.Lines})
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtenir une recette
// @Description  Recherche insensible à la casse et aux accents.
// @Tags         recipes
// @Security     Bearer
// @Produce      json
// @Param        name  path  string  true  "Nom du produit fini"
// @Success      200  {object}  dto.RecipeResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/recipes/{name} [get]
func (h *RecipeHandler) Get(c *fiber.Ctx) error {
	r, err := h.uc.Get(c.Context(), recipeName(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toRecipeResponse(r))
}

// Cost godoc
// @Summary      Coût des ingrédients pour une quantité
// @Tags         recipes
// @Security     Bearer
// @Produce      json
// @Param        name      path   string  true   "Nom du produit fini"
// @Param        quantity  query  number  false  "Quantité (défaut 1)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/recipes/{name}/cost [get]
func (h *RecipeHandler) Cost(c *fiber.Ctx) error {
	qty, err := queryDecimal(c, "quantity", decimal.NewFromInt(1))
	if err != nil {
		return respondError(c, err)
	}
	name := recipeName(c)
	cost, err := h.uc.Cost(c.Context(), name, qty)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"recipe": name, "quantity": qty, "cost": cost})
}

// Availability godoc
// @Summary      Vérifier la faisabilité d'une production
// @Description  Besoins par ingrédient, manques et nombre maximal d'unités réalisables avec le stock atelier.
// @Tags         recipes
// @Security     Bearer
// @Produce      json
// @Param        name      path   string  true   "Nom du produit fini"
// @Param        quantity  query  number  false  "Quantité (défaut 1)"
// @Success      200  {object}  dto.AvailabilityResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/recipes/{name}/availability [get]
func (h *RecipeHandler) Availability(c *fiber.Ctx) error {
	qty, err := queryDecimal(c, "quantity", decimal.NewFromInt(1))
	if err != nil {
		return respondError(c, err)
	}
	a, err := h.uc.Availability(c.Context(), recipeName(c), qty)
	if err != nil {
		return respondError(c, err)
	}
	cost := decimal.Zero
	for _, r := range a.Requirements {
		cost = cost.Add(r.Required.Mul(r.UnitCost))
	}
	return c.JSON(dto.AvailabilityResponse{
		Recipe:        a.Recipe,
		Quantity:      a.Quantity,
		CanProduce:    a.CanProduce,
		MaxProducible: a.MaxProducible,
		Cost:          cost.Round(2),
		Requirements:  toRequirementDTOs(a.Requirements),
	})
}

// AddLine godoc
// @Summary      Ajouter un ingrédient à une recette
// @Tags         recipes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecipeLineRequest  true  "recipe_name, ingredient_id, quantity_per_unit"
// @Success      201   {object}  dto.RecipeLineResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/recipes/lines [post]
func (h *RecipeHandler) AddLine(c *fiber.Ctx) error {
	var in dto.RecipeLineRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	line, err := h.uc.AddLine(c.Context(), inventory.RecipeLineInput{
		RecipeName:      in.RecipeName,
		IngredientID:    in.IngredientID,
		QuantityPerUnit: in.QuantityPerUnit,
		Actor:           GetActor(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toRecipeLineResponse(line))
}

// UpdateLine godoc
// @Summary      Modifier la quantité d'une ligne de recette
// @Tags         recipes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la ligne"
// @Param        body  body  dto.RecipeLineRequest  true  "quantity_per_unit"
// @Success      200   {object}  dto.RecipeLineResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/recipes/lines/{id} [put]
func (h *RecipeHandler) UpdateLine(c *fiber.Ctx) error {
	var in dto.RecipeLineRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	line, err := h.uc.UpdateLine(c.Context(), c.Params("id"), inventory.RecipeLineInput{
		RecipeName:      in.RecipeName,
		IngredientID:    in.IngredientID,
		QuantityPerUnit: in.QuantityPerUnit,
		Actor:           GetActor(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toRecipeLineResponse(line))
}

// DeleteLine godoc
// @Summary      Supprimer une ligne de recette
// @Tags         recipes
// @Security     Bearer
// @Param        id  path  string  true  "ID de la ligne"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/recipes/lines/{id} [delete]
func (h *RecipeHandler) DeleteLine(c *fiber.Ctx) error {
	if err := h.uc.DeleteLine(c.Context(), GetActor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
