package audit

import (
	"encoding/json"
	"time"

	"supplychain-backend/internal/models"
	"supplychain-backend/internal/pagination"
	"supplychain-backend/internal/web"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   time.Time          `json:"created_at"`
	Actor       string             `json:"actor"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	Before      json.RawMessage    `json:"before"`
	After       json.RawMessage    `json:"after"`
}

var pageSpec = pagination.Spec{
	DefaultSize: 20,
	DefaultSort: "createdAt",
	Fields: map[string]string{
		"createdAt":  "created_at",
		"entityType": "entity_type",
		"actor":      "actor",
	},
}

func rawJSON(s string) json.RawMessage {
	if s == "" {
		return json.RawMessage("null")
	}
	return json.RawMessage(s)
}

// GET /api/audit-logs?entity_type=order&entity_id=1&actor=a@b.c&action=update
func ListAuditLogsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.WithContext(c.UserContext()).Model(&models.AuditLog{})

		if v := c.Query("entity_type"); v != "" {
			dbq = dbq.Where("entity_type = ?", v)
		}
		if id := c.QueryInt("entity_id", 0); id > 0 {
			dbq = dbq.Where("entity_id = ?", id)
		}
		if v := c.Query("actor"); v != "" {
			dbq = dbq.Where("actor = ?", v)
		}
		if v := c.Query("action"); v != "" {
			dbq = dbq.Where("action = ?", v)
		}

		req := pageSpec.Resolve(
			c.QueryInt("page", 0),
			c.QueryInt("size", pageSpec.DefaultSize),
			c.Query("sortBy"),
			c.Query("sortDirection", "desc"),
		)
		page, err := pagination.Find[models.AuditLog](dbq, req)
		if err != nil {
			return err
		}

		return web.OK(c, "audit logs", pagination.Map(page, func(l models.AuditLog) AuditLogResponse {
			return AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt,
				Actor:       l.Actor,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      l.Action,
				Description: l.Description,
				Before:      rawJSON(l.BeforeData),
				After:       rawJSON(l.AfterData),
			}
		}))
	}
}
