package web

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/pagination"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fmt.Errorf("load order: %w", apperr.NotFound("order %d not found", 9))
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fmt.Errorf("db down")
	})
	app.Get("/fiber", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	})
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		id, err := ParseID(c, "id")
		if err != nil {
			return err
		}
		return OK(c, "item", fiber.Map{"id": id})
	})
	app.Get("/page", func(c *fiber.Ctx) error {
		r := PageRequest(c, pagination.Spec{DefaultSize: 5, DefaultSort: "name", Fields: map[string]string{"name": "name"}})
		return OK(c, "page", r)
	})
	return app
}

func decode[T any](t *testing.T, app *fiber.App, path string) (int, T) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestErrorHandlerMapsKinds(t *testing.T) {
	app := newApp()

	code, body := decode[ErrorBody](t, app, "/missing")
	assert.Equal(t, 404, code)
	assert.Equal(t, "Not Found", body.Error)
	assert.Equal(t, "order 9 not found", body.Message)
	assert.Equal(t, "/missing", body.Path)

	code, body = decode[ErrorBody](t, app, "/boom")
	assert.Equal(t, 500, code)
	assert.Equal(t, "unexpected server error", body.Message)

	code, body = decode[ErrorBody](t, app, "/fiber")
	assert.Equal(t, 400, code)
	assert.Equal(t, "invalid id", body.Message)
}

func TestEnvelopeAndParseID(t *testing.T) {
	app := newApp()

	code, env := decode[Envelope](t, app, "/items/12")
	assert.Equal(t, 200, code)
	assert.Equal(t, 200, env.Status)
	assert.Equal(t, "/items/12", env.Path)
	assert.Equal(t, map[string]any{"id": float64(12)}, env.Data)

	code, _ = decode[ErrorBody](t, app, "/items/abc")
	assert.Equal(t, 400, code)
}

func TestPageRequestFromQuery(t *testing.T) {
	app := newApp()

	_, env := decode[struct {
		Data pagination.Request `json:"data"`
	}](t, app, "/page?page=2&size=3&sortBy=bogus&sortDirection=desc")
	assert.Equal(t, pagination.Request{Page: 2, Size: 3, Column: "name", Desc: true}, env.Data)
}
