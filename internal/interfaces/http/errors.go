package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/boulangerie-api/internal/application/dto"
	"github.com/jhoicas/boulangerie-api/internal/domain"
)

// respondError traduit une erreur de cas d'usage en réponse HTTP.
// Les messages des erreurs métier sont en français et affichables tels quels.
func respondError(c *fiber.Ctx, err error) error {
	var shortfall *domain.InsufficientIngredientError
	if errors.As(err, &shortfall) {
		out := dto.ShortfallErrorResponse{
			ErrorResponse: dto.ErrorResponse{Code: "INSUFFICIENT_INGREDIENTS", Message: shortfall.Error()},
			Shortfalls:    make([]dto.ShortfallDTO, 0, len(shortfall.Shortfalls)),
		}
		for _, s := range shortfall.Shortfalls {
			out.Shortfalls = append(out.Shortfalls, dto.ShortfallDTO{
				IngredientID: s.IngredientID,
				Name:         s.Name,
				Unit:         s.Unit,
				Required:     s.Required,
				Available:    s.Available,
				Missing:      s.Missing,
			})
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(out)
	}

	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrDuplicate):
		status, code = fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrConflict):
		status, code = fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrInsufficientStock):
		status, code = fiber.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrInvalidPayment):
		status, code = fiber.StatusUnprocessableEntity, "INVALID_PAYMENT"
	case errors.Is(err, domain.ErrNotEligibleForCancellation):
		status, code = fiber.StatusUnprocessableEntity, "NOT_ELIGIBLE"
	case errors.Is(err, domain.ErrPersistence):
		// erreur de stockage, le client peut réessayer
		status, code = fiber.StatusServiceUnavailable, "PERSISTENCE"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corps invalide"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: msg})
}
