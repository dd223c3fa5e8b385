package order

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
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
	DefaultSort: "orderDate",
	Fields: map[string]string{
		"id":          "id",
		"orderDate":   "order_date",
		"status":      "status",
		"totalAmount": "total_amount",
		"customerId":  "customer_id",
	},
}

type Service struct {
	DB     *gorm.DB
	Events events.Publisher
	Cache  cache.OrderStatus

	now func() time.Time
}

func NewService(db *gorm.DB, pub events.Publisher, c cache.OrderStatus) *Service {
	return &Service{DB: db, Events: events.OrNop(pub), Cache: cache.OrNop(c), now: time.Now}
}

type LineInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type Input struct {
	CustomerID uint               `json:"customer_id"`
	Status     models.OrderStatus `json:"status"`
	Lines      []LineInput        `json:"lines"`
}

type StatusView struct {
	OrderID uint               `json:"order_id"`
	Status  models.OrderStatus `json:"status"`
	Cached  bool               `json:"cached"`
}

// Create records a sales order and takes every line out of product stock.
// Either all lines are reserved or nothing changes.
func (s *Service) Create(ctx context.Context, in Input) (*models.Order, error) {
	if len(in.Lines) == 0 {
		return nil, apperr.Validation("an order needs at least one line")
	}
	for _, l := range in.Lines {
		if l.Quantity <= 0 {
			return nil, apperr.Validation("line quantity must be positive")
		}
	}
	if in.Status == "" {
		in.Status = models.OrderPreparing
	}
	if !in.Status.Valid() {
		return nil, apperr.Validation("unknown order status %q", in.Status)
	}

	order := models.Order{
		CustomerID:  in.CustomerID,
		OrderDate:   s.now(),
		Status:      in.Status,
		TotalAmount: decimal.Zero,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Customer{}).Where("id = ?", in.CustomerID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return apperr.NotFound("customer %d not found", in.CustomerID)
		}

		for _, l := range in.Lines {
			var p models.Product
			if err := tx.First(&p, l.ProductID).Error; err != nil {
				if database.IsNotFound(err) {
					return apperr.NotFound("product %d not found", l.ProductID)
				}
				return err
			}
			if l.Quantity > p.Stock {
				return apperr.InsufficientStock(p.Name, p.Stock, l.Quantity)
			}

			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", p.ID, l.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", l.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apperr.InsufficientStock(p.Name, p.Stock, l.Quantity)
			}

			line := models.ProductOrder{
				ProductID:  p.ID,
				Quantity:   l.Quantity,
				UnitPrice:  p.Cost,
				TotalPrice: p.Cost.Mul(decimal.NewFromInt(int64(l.Quantity))),
			}
			order.Lines = append(order.Lines, line)
			order.TotalAmount = order.TotalAmount.Add(line.TotalPrice)
		}

		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}

	created, err := s.Get(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	s.Events.Publish(ctx, events.OrderCreated, key(created.ID), payload(created))
	return created, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := s.DB.WithContext(ctx).
		Preload("Customer").
		Preload("Lines.Product").
		Preload("Delivery").
		First(&o, id).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("order %d not found", id)
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	return &o, nil
}

// Update changes the order status only.
func (s *Service) Update(ctx context.Context, id uint, status models.OrderStatus) (before, after *models.Order, err error) {
	if !status.Valid() {
		return nil, nil, apperr.Validation("unknown order status %q", status)
	}
	before, err = s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := s.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return nil, nil, fmt.Errorf("update order status: %w", err)
	}
	s.invalidate(ctx, id)

	after, err = s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	s.Events.Publish(ctx, events.OrderStatusChanged, key(id), payload(after))
	return before, after, nil
}

// Delete removes an order that has no delivery, together with its lines.
func (s *Service) Delete(ctx context.Context, id uint) (*models.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Delivery != nil {
		return nil, apperr.Conflict("order %d has a delivery and cannot be deleted", id)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.ProductOrder{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, id).Error
	})
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, apperr.Conflict("order %d has a delivery and cannot be deleted", id)
		}
		return nil, fmt.Errorf("delete order: %w", err)
	}
	s.invalidate(ctx, id)
	s.Events.Publish(ctx, events.OrderDeleted, key(id), events.OrderPayload{OrderID: id, CustomerID: o.CustomerID, Status: string(o.Status)})
	return o, nil
}

type Filter struct {
	CustomerID uint
	Status     models.OrderStatus
}

func (s *Service) List(ctx context.Context, req pagination.Request, f Filter) (pagination.Page[models.Order], error) {
	q := s.DB.WithContext(ctx).Model(&models.Order{})
	if f.CustomerID != 0 {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return pagination.Find[models.Order](q, req, "Customer", "Lines.Product")
}

// Status answers from the cache when it can and back-fills it otherwise.
func (s *Service) Status(ctx context.Context, id uint) (StatusView, error) {
	if st, ok, err := s.Cache.Get(ctx, id); err != nil {
		slog.Default().Warn("order status cache read failed", "order_id", id, "error", err)
	} else if ok {
		return StatusView{OrderID: id, Status: models.OrderStatus(st), Cached: true}, nil
	}

	var o models.Order
	if err := s.DB.WithContext(ctx).Select("id", "status").First(&o, id).Error; err != nil {
		if database.IsNotFound(err) {
			return StatusView{}, apperr.NotFound("order %d not found", id)
		}
		return StatusView{}, fmt.Errorf("load order status: %w", err)
	}
	if err := s.Cache.Set(ctx, id, string(o.Status)); err != nil {
		slog.Default().Warn("order status cache write failed", "order_id", id, "error", err)
	}
	return StatusView{OrderID: id, Status: o.Status}, nil
}

func (s *Service) invalidate(ctx context.Context, id uint) {
	if err := s.Cache.Delete(ctx, id); err != nil {
		slog.Default().Warn("order status cache invalidation failed", "order_id", id, "error", err)
	}
}

func key(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func payload(o *models.Order) events.OrderPayload {
	return events.OrderPayload{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount.StringFixed(2),
	}
}
