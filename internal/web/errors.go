package web

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
)

type ErrorBody struct {
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorHandler renders every error returned by a handler as an ErrorBody.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "unexpected server error"

		var fe *fiber.Error
		var ae *apperr.Error
		switch {
		case errors.As(err, &fe):
			status = fe.Code
			message = fe.Message
		case errors.As(err, &ae) && ae.Kind != apperr.KindInternal:
			status = ae.Kind.HTTPStatus()
			message = ae.Message
		default:
			log.Error("unhandled error",
				"request_id", logger.RequestID(c),
				"path", c.Path(),
				"error", err.Error(),
			)
		}

		return c.Status(status).JSON(ErrorBody{
			Status:    status,
			Error:     http.StatusText(status),
			Message:   message,
			Path:      c.Path(),
			Timestamp: time.Now().UTC(),
		})
	}
}
