package supplyorder

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"supplychain-backend/internal/apperr"
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
		"orderNumber": "order_number",
		"orderDate":   "order_date",
		"status":      "status",
		"totalAmount": "total_amount",
	},
}

type Service struct {
	DB     *gorm.DB
	Events events.Publisher

	now func() time.Time
}

func NewService(db *gorm.DB, pub events.Publisher) *Service {
	return &Service{DB: db, Events: events.OrNop(pub), now: time.Now}
}

type LineInput struct {
	RawMaterialID uint `json:"raw_material_id"`
	Quantity      int  `json:"quantity"`
}

type Input struct {
	OrderNumber string                   `json:"order_number"`
	SupplierID  uint                     `json:"supplier_id"`
	OrderDate   *time.Time               `json:"order_date"`
	Status      models.SupplyOrderStatus `json:"status"`
	Lines       []LineInput              `json:"lines"`
}

type Patch struct {
	OrderNumber *string                   `json:"order_number"`
	OrderDate   *time.Time                `json:"order_date"`
	Status      *models.SupplyOrderStatus `json:"status"`
}

// Create places a replenishment order and reserves the ordered quantities.
// A line is refused when the material's available stock (on hand minus
// reserved) already meets its reorder threshold.
func (s *Service) Create(ctx context.Context, in Input) (*models.SupplyOrder, error) {
	if len(in.Lines) == 0 {
		return nil, apperr.Validation("a supply order needs at least one line")
	}
	for _, l := range in.Lines {
		if l.Quantity <= 0 {
			return nil, apperr.Validation("line quantity must be positive")
		}
	}

	order := models.SupplyOrder{
		OrderNumber: strings.TrimSpace(in.OrderNumber),
		SupplierID:  in.SupplierID,
		Status:      in.Status,
		TotalAmount: decimal.Zero,
	}
	if order.OrderNumber == "" {
		order.OrderNumber = "SO-" + strconv.FormatInt(s.now().UnixMilli(), 10)
	}
	if order.Status == "" {
		order.Status = models.SupplyOrderPending
	}
	if !order.Status.Valid() {
		return nil, apperr.Validation("unknown supply order status %q", order.Status)
	}
	if order.Status == models.SupplyOrderReceived {
		return nil, apperr.Validation("a new supply order cannot start as %s", models.SupplyOrderReceived)
	}
	if in.OrderDate != nil {
		order.OrderDate = *in.OrderDate
	} else {
		order.OrderDate = s.now()
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var supplierCount int64
		if err := tx.Model(&models.Supplier{}).Where("id = ?", in.SupplierID).Count(&supplierCount).Error; err != nil {
			return err
		}
		if supplierCount == 0 {
			return apperr.NotFound("supplier %d not found", in.SupplierID)
		}

		for _, l := range in.Lines {
			var m models.RawMaterial
			if err := tx.First(&m, l.RawMaterialID).Error; err != nil {
				if database.IsNotFound(err) {
					return apperr.NotFound("raw material %d not found", l.RawMaterialID)
				}
				return err
			}

			if m.Available() >= m.StockMin {
				return apperr.BusinessRule("stock is sufficient for material: %s", m.Name)
			}

			if err := tx.Model(&models.RawMaterial{}).Where("id = ?", m.ID).
				UpdateColumn("reserved_stock", gorm.Expr("reserved_stock + ?", l.Quantity)).Error; err != nil {
				return err
			}

			lineTotal := m.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
			order.Lines = append(order.Lines, models.SupplyOrderLine{
				RawMaterialID: m.ID,
				Quantity:      l.Quantity,
				UnitPrice:     m.UnitPrice,
				TotalPrice:    lineTotal,
			})
			order.TotalAmount = order.TotalAmount.Add(lineTotal)
		}

		if err := tx.Create(&order).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return apperr.Conflict("supply order number %s already exists", order.OrderNumber)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.Get(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	s.Events.Publish(ctx, events.SupplyOrderCreated, strconv.FormatUint(uint64(created.ID), 10), payload(created))
	return created, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.SupplyOrder, error) {
	var o models.SupplyOrder
	err := s.DB.WithContext(ctx).
		Preload("Supplier").
		Preload("Lines.RawMaterial").
		First(&o, id).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("supply order %d not found", id)
		}
		return nil, fmt.Errorf("load supply order: %w", err)
	}
	return &o, nil
}

// Update changes number, date or status. Moving to RECEIVED transfers every
// line's quantity from reserved to on-hand stock; a received order is final.
func (s *Service) Update(ctx context.Context, id uint, p Patch) (before, after *models.SupplyOrder, err error) {
	var received bool
	var prev models.SupplyOrder

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o models.SupplyOrder
		if err := tx.Preload("Lines").First(&o, id).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("supply order %d not found", id)
			}
			return err
		}
		prev = o

		updates := map[string]any{}
		if p.OrderNumber != nil {
			num := strings.TrimSpace(*p.OrderNumber)
			if num == "" {
				return apperr.Validation("order number cannot be empty")
			}
			updates["order_number"] = num
		}
		if p.OrderDate != nil {
			updates["order_date"] = *p.OrderDate
		}
		if p.Status != nil && *p.Status != o.Status {
			if !p.Status.Valid() {
				return apperr.Validation("unknown supply order status %q", *p.Status)
			}
			if o.Status == models.SupplyOrderReceived {
				return apperr.BusinessRule("supply order %s was already received", o.OrderNumber)
			}
			if *p.Status == models.SupplyOrderReceived {
				if err := receive(tx, o.Lines); err != nil {
					return err
				}
				received = true
			}
			updates["status"] = *p.Status
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&models.SupplyOrder{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return apperr.Conflict("supply order number already exists")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	after, err = s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if received {
		s.Events.Publish(ctx, events.SupplyOrderReceived, strconv.FormatUint(uint64(id), 10), payload(after))
	}
	return &prev, after, nil
}

func receive(tx *gorm.DB, lines []models.SupplyOrderLine) error {
	for _, l := range lines {
		res := tx.Model(&models.RawMaterial{}).
			Where("id = ? AND reserved_stock >= ?", l.RawMaterialID, l.Quantity).
			UpdateColumns(map[string]any{
				"stock":          gorm.Expr("stock + ?", l.Quantity),
				"reserved_stock": gorm.Expr("reserved_stock - ?", l.Quantity),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.BusinessRule("raw material %d has less reserved stock than line quantity %d", l.RawMaterialID, l.Quantity)
		}
	}
	return nil
}

// Delete removes a supply order. Reservations of an order that was never
// received are released.
func (s *Service) Delete(ctx context.Context, id uint) (*models.SupplyOrder, error) {
	var deleted models.SupplyOrder
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Lines").First(&deleted, id).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("supply order %d not found", id)
			}
			return err
		}

		if deleted.Status != models.SupplyOrderReceived {
			for _, l := range deleted.Lines {
				// never below zero, even if stock was corrected by hand meanwhile
				err := tx.Model(&models.RawMaterial{}).Where("id = ?", l.RawMaterialID).
					UpdateColumn("reserved_stock", gorm.Expr("CASE WHEN reserved_stock >= ? THEN reserved_stock - ? ELSE 0 END", l.Quantity, l.Quantity)).Error
				if err != nil {
					return err
				}
			}
		}

		if err := tx.Where("supply_order_id = ?", id).Delete(&models.SupplyOrderLine{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.SupplyOrder{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

type Filter struct {
	Status     models.SupplyOrderStatus
	SupplierID uint
}

func (s *Service) List(ctx context.Context, req pagination.Request, f Filter) (pagination.Page[models.SupplyOrder], error) {
	q := s.DB.WithContext(ctx).Model(&models.SupplyOrder{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.SupplierID > 0 {
		q = q.Where("supplier_id = ?", f.SupplierID)
	}
	return pagination.Find[models.SupplyOrder](q, req, "Supplier", "Lines.RawMaterial")
}

func payload(o *models.SupplyOrder) events.SupplyOrderPayload {
	return events.SupplyOrderPayload{
		SupplyOrderID: o.ID,
		OrderNumber:   o.OrderNumber,
		SupplierID:    o.SupplierID,
		Status:        string(o.Status),
		TotalAmount:   o.TotalAmount.StringFixed(2),
	}
}
