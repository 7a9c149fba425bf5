package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/boulangerie-api/pkg/logger"
)

// RequestLogger journalise une ligne par requête (méthode, chemin, statut, durée, utilisateur).
// Les réponses 5xx sont au niveau error, 4xx au niveau warn.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// laisse l'ErrorHandler de fiber écrire la réponse avant de lire le statut
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		status := c.Response().StatusCode()

		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error().Err(err)
		case status >= 400:
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.IP()).
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Str("user_id", GetUserID(c)).
			Msg("requête HTTP")
		return nil
	}
}
