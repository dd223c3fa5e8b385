package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/cache"
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/events"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/pagination"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var PageSpec = pagination.Spec{
	DefaultSize: 10,
	DefaultSort: "deliveryDate",
	Fields: map[string]string{
		"id":           "id",
		"deliveryDate": "delivery_date",
		"status":       "status",
		"deliveryCost": "delivery_cost",
		"driver":       "driver",
	},
}

type Service struct {
	DB     *gorm.DB
	Events events.Publisher
	Cache  cache.OrderStatus
}

func NewService(db *gorm.DB, pub events.Publisher, c cache.OrderStatus) *Service {
	return &Service{DB: db, Events: events.OrNop(pub), Cache: cache.OrNop(c)}
}

// Input is used for both create and update: an update replaces every field.
type Input struct {
	OrderID         uint                  `json:"order_id"`
	DeliveryAddress string                `json:"delivery_address"`
	DeliveryDate    *time.Time            `json:"delivery_date"`
	DeliveryCost    decimal.Decimal       `json:"delivery_cost"`
	Driver          string                `json:"driver"`
	Vehicle         string                `json:"vehicle"`
	Status          models.DeliveryStatus `json:"status"`
}

func (in Input) apply(d *models.Delivery) error {
	d.DeliveryAddress = strings.TrimSpace(in.DeliveryAddress)
	d.DeliveryDate = in.DeliveryDate
	d.DeliveryCost = in.DeliveryCost
	d.Driver = strings.TrimSpace(in.Driver)
	d.Vehicle = strings.TrimSpace(in.Vehicle)
	d.Status = in.Status
	if d.Status == "" {
		d.Status = models.DeliveryPlanned
	}

	if d.DeliveryAddress == "" {
		return apperr.Validation("delivery address is required")
	}
	if d.DeliveryCost.IsNegative() {
		return apperr.Validation("delivery cost cannot be negative")
	}
	if !d.Status.Valid() {
		return apperr.Validation("unknown delivery status %q", d.Status)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Delivery, error) {
	d := models.Delivery{OrderID: in.OrderID}
	if err := in.apply(&d); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Order{}).Where("id = ?", in.OrderID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return apperr.NotFound("order %d not found", in.OrderID)
		}
		if err := tx.Model(&models.Delivery{}).Where("order_id = ?", in.OrderID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Conflict("order %d already has a delivery", in.OrderID)
		}
		return tx.Create(&d).Error
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("order %d already has a delivery", in.OrderID)
		}
		return nil, err
	}
	return &d, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Delivery, error) {
	var d models.Delivery
	if err := s.DB.WithContext(ctx).First(&d, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("delivery %d not found", id)
		}
		return nil, fmt.Errorf("load delivery: %w", err)
	}
	return &d, nil
}

// Update overwrites the delivery and moves the parent order to the status
// matching the new delivery status, in the same transaction.
func (s *Service) Update(ctx context.Context, id uint, in Input) (before, after *models.Delivery, err error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	prev := *d
	if err := in.apply(d); err != nil {
		return nil, nil, err
	}
	orderStatus, _ := d.Status.OrderStatus()

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(d).Error; err != nil {
			return err
		}
		return tx.Model(&models.Order{}).Where("id = ?", d.OrderID).Update("status", orderStatus).Error
	})
	if err != nil {
		return nil, nil, fmt.Errorf("update delivery: %w", err)
	}

	if err := s.Cache.Delete(ctx, d.OrderID); err != nil {
		slog.Default().Warn("order status cache invalidation failed", "order_id", d.OrderID, "error", err)
	}
	s.Events.Publish(ctx, events.DeliveryStatusChanged, strconv.FormatUint(uint64(d.OrderID), 10), events.DeliveryPayload{
		DeliveryID:  d.ID,
		OrderID:     d.OrderID,
		Status:      string(d.Status),
		OrderStatus: string(orderStatus),
	})
	return &prev, d, nil
}

func (s *Service) Delete(ctx context.Context, id uint) (*models.Delivery, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Delete(d).Error; err != nil {
		return nil, fmt.Errorf("delete delivery: %w", err)
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, req pagination.Request, status models.DeliveryStatus) (pagination.Page[models.Delivery], error) {
	q := s.DB.WithContext(ctx).Model(&models.Delivery{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return pagination.Find[models.Delivery](q, req)
}
