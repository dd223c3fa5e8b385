package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"supplychain-backend/internal/auth"
	"supplychain-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LogOptions struct {
	Actor       string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func WriteLog(ctx context.Context, db *gorm.DB, opts LogOptions) error {
	// jsonb rejects empty strings, so absent snapshots are stored as JSON null.
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	entry := models.AuditLog{
		Actor:       opts.Actor,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}

	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// Record writes an audit entry on behalf of the request's caller. Failures
// are logged and never fail the request.
func Record(c *fiber.Ctx, db *gorm.DB, opts LogOptions) {
	if opts.Actor == "" {
		opts.Actor = auth.Actor(c)
	}
	if err := WriteLog(c.UserContext(), db, opts); err != nil {
		slog.Default().Warn("audit log not written",
			"entity_type", opts.EntityType,
			"entity_id", opts.EntityID,
			"error", err,
		)
	}
}
