package web

import (
	"time"

	"supplychain-backend/internal/pagination"

	"github.com/gofiber/fiber/v2"
)

type Envelope struct {
	Status    int       `json:"status"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

func Respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Envelope{
		Status:    status,
		Message:   message,
		Data:      data,
		Path:      c.Path(),
		Timestamp: time.Now().UTC(),
	})
}

func OK(c *fiber.Ctx, message string, data any) error {
	return Respond(c, fiber.StatusOK, message, data)
}

func Created(c *fiber.Ctx, message string, data any) error {
	return Respond(c, fiber.StatusCreated, message, data)
}

// ParseID reads a positive numeric path parameter.
func ParseID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

// Body parses the request body into v.
func Body(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return nil
}

// PageRequest reads page, size, sortBy and sortDirection from the query string.
func PageRequest(c *fiber.Ctx, spec pagination.Spec) pagination.Request {
	return spec.Resolve(
		c.QueryInt("page", 0),
		c.QueryInt("size", spec.DefaultSize),
		c.Query("sortBy"),
		c.Query("sortDirection", "asc"),
	)
}
