package audit

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"supplychain-backend/internal/auth"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLogStoresSnapshots(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, WriteLog(context.Background(), db, LogOptions{
		Actor:      "ops@example.com",
		EntityType: "order",
		EntityID:   4,
		Action:     models.AuditActionUpdate,
		Before:     map[string]string{"status": "PREPARING"},
		After:      map[string]string{"status": "EN_ROUTE"},
	}))
	require.NoError(t, WriteLog(context.Background(), db, LogOptions{
		EntityType: "order",
		EntityID:   5,
		Action:     models.AuditActionCreate,
	}))

	var logs []models.AuditLog
	require.NoError(t, db.Order("id").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.JSONEq(t, `{"status":"EN_ROUTE"}`, logs[0].AfterData)
	assert.Equal(t, "null", logs[1].BeforeData)
}

func TestRecordUsesPrincipalAndListFilters(t *testing.T) {
	db := testutil.NewDB(t)
	app := fiber.New()
	app.Post("/orders/:id", func(c *fiber.Ctx) error {
		c.Locals(auth.CtxPrincipalKey, auth.Principal{Subject: "sales@example.com"})
		id, _ := c.ParamsInt("id")
		Record(c, db, LogOptions{EntityType: "order", EntityID: uint(id), Action: models.AuditActionCreate})
		return c.SendStatus(fiber.StatusCreated)
	})
	app.Get("/audit-logs", ListAuditLogsHandler(db))

	for _, path := range []string{"/orders/1", "/orders/2"} {
		resp, err := app.Test(httptest.NewRequest("POST", path, nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}
	require.NoError(t, WriteLog(context.Background(), db, LogOptions{Actor: "anonymous", EntityType: "supplier", EntityID: 1, Action: models.AuditActionDelete}))

	resp, err := app.Test(httptest.NewRequest("GET", "/audit-logs?entity_type=order&actor=sales@example.com", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Content       []AuditLogResponse `json:"content"`
			TotalElements int64              `json:"total_elements"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, int64(2), body.Data.TotalElements)
	require.Len(t, body.Data.Content, 2)
	for _, l := range body.Data.Content {
		assert.Equal(t, "sales@example.com", l.Actor)
		assert.Equal(t, "order", l.EntityType)
	}
}
