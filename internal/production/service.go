package production

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/events"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/pagination"

	"gorm.io/gorm"
)

var PageSpec = pagination.Spec{
	DefaultSize: 10,
	DefaultSort: "createdAt",
	Fields: map[string]string{
		"id":          "id",
		"orderNumber": "order_number",
		"status":      "status",
		"priority":    "priority",
		"startDate":   "start_date",
		"createdAt":   "created_at",
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

type Input struct {
	OrderNumber string                    `json:"order_number"`
	ProductID   uint                      `json:"product_id"`
	Quantity    int                       `json:"quantity"`
	Priority    models.ProductionPriority `json:"priority"`
	StartDate   *time.Time                `json:"start_date"`
	EndDate     *time.Time                `json:"end_date"`
}

type Patch struct {
	Quantity  *int                       `json:"quantity"`
	Priority  *models.ProductionPriority `json:"priority"`
	StartDate *time.Time                 `json:"start_date"`
	EndDate   *time.Time                 `json:"end_date"`
}

// Shortage is one raw material missing for a production run.
type Shortage struct {
	RawMaterialID uint   `json:"raw_material_id"`
	Name          string `json:"name"`
	Required      int    `json:"required"`
	Available     int    `json:"available"`
}

type ShortageError struct {
	Shortages []Shortage
}

func (e *ShortageError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (required %d, available %d)", s.Name, s.Required, s.Available))
	}
	return "not enough raw materials: " + strings.Join(parts, ", ")
}

func validPriority(p models.ProductionPriority) bool {
	return p == models.PriorityStandard || p == models.PriorityUrgent
}

func (s *Service) Create(ctx context.Context, in Input) (*models.ProductionOrder, error) {
	if in.Quantity <= 0 {
		return nil, apperr.Validation("quantity must be positive")
	}
	po := models.ProductionOrder{
		OrderNumber: strings.TrimSpace(in.OrderNumber),
		ProductID:   in.ProductID,
		Quantity:    in.Quantity,
		Status:      models.ProductionPending,
		Priority:    in.Priority,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
	}
	if po.OrderNumber == "" {
		po.OrderNumber = "PO-" + strconv.FormatInt(s.now().UnixMilli(), 10)
	}
	if po.Priority == "" {
		po.Priority = models.PriorityStandard
	}
	if !validPriority(po.Priority) {
		return nil, apperr.Validation("unknown priority %q", po.Priority)
	}

	db := s.DB.WithContext(ctx)
	var n int64
	if err := db.Model(&models.Product{}).Where("id = ?", in.ProductID).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("check product: %w", err)
	}
	if n == 0 {
		return nil, apperr.NotFound("product %d not found", in.ProductID)
	}
	if err := db.Create(&po).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("production order %s already exists", po.OrderNumber)
		}
		return nil, fmt.Errorf("create production order: %w", err)
	}
	return s.Get(ctx, po.ID)
}

func (s *Service) Get(ctx context.Context, id uint) (*models.ProductionOrder, error) {
	var po models.ProductionOrder
	if err := s.DB.WithContext(ctx).Preload("Product").First(&po, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("production order %d not found", id)
		}
		return nil, fmt.Errorf("load production order: %w", err)
	}
	return &po, nil
}

func editable(st models.ProductionOrderStatus) bool {
	return st == models.ProductionPending || st == models.ProductionBlocked
}

func (s *Service) Update(ctx context.Context, id uint, p Patch) (before, after *models.ProductionOrder, err error) {
	po, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !editable(po.Status) {
		return nil, nil, apperr.BusinessRule("production order %s is %s and can no longer be changed", po.OrderNumber, po.Status)
	}

	updates := map[string]any{}
	if p.Quantity != nil {
		if *p.Quantity <= 0 {
			return nil, nil, apperr.Validation("quantity must be positive")
		}
		updates["quantity"] = *p.Quantity
	}
	if p.Priority != nil {
		if !validPriority(*p.Priority) {
			return nil, nil, apperr.Validation("unknown priority %q", *p.Priority)
		}
		updates["priority"] = *p.Priority
	}
	if p.StartDate != nil {
		updates["start_date"] = *p.StartDate
	}
	if p.EndDate != nil {
		updates["end_date"] = *p.EndDate
	}
	if len(updates) > 0 {
		if err := s.DB.WithContext(ctx).Model(&models.ProductionOrder{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, nil, fmt.Errorf("update production order: %w", err)
		}
	}

	after, err = s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return po, after, nil
}

// Cancel withdraws an order that has not started.
func (s *Service) Cancel(ctx context.Context, id uint) (*models.ProductionOrder, error) {
	po, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !editable(po.Status) {
		return nil, apperr.BusinessRule("production order %s is %s and cannot be cancelled", po.OrderNumber, po.Status)
	}
	if err := s.setStatus(ctx, id, models.ProductionCancelled, nil); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) setStatus(ctx context.Context, id uint, st models.ProductionOrderStatus, extra map[string]any) error {
	updates := map[string]any{"status": st}
	for k, v := range extra {
		updates[k] = v
	}
	if err := s.DB.WithContext(ctx).Model(&models.ProductionOrder{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("set production order status: %w", err)
	}
	return nil
}

// Start consumes the bill of materials for the whole quantity. When any
// material is short nothing is consumed, the order becomes BLOCKED and a
// business-rule error listing the shortages is returned.
func (s *Service) Start(ctx context.Context, id uint) (*models.ProductionOrder, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var po models.ProductionOrder
		if err := tx.First(&po, id).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("production order %d not found", id)
			}
			return err
		}
		if !editable(po.Status) {
			return apperr.BusinessRule("production order %s is %s and cannot be started", po.OrderNumber, po.Status)
		}

		var product models.Product
		if err := tx.Preload("BillOfMaterials.RawMaterial").First(&product, po.ProductID).Error; err != nil {
			return err
		}
		if len(product.BillOfMaterials) == 0 {
			return apperr.BusinessRule("product %s has no bill of materials", product.Name)
		}

		var missing []Shortage
		for _, b := range product.BillOfMaterials {
			required := b.Quantity * po.Quantity
			if b.RawMaterial == nil {
				return apperr.NotFound("raw material %d not found", b.RawMaterialID)
			}
			if b.RawMaterial.Stock < required {
				missing = append(missing, Shortage{
					RawMaterialID: b.RawMaterialID,
					Name:          b.RawMaterial.Name,
					Required:      required,
					Available:     b.RawMaterial.Stock,
				})
			}
		}
		if len(missing) > 0 {
			return &ShortageError{Shortages: missing}
		}

		for _, b := range product.BillOfMaterials {
			required := b.Quantity * po.Quantity
			res := tx.Model(&models.RawMaterial{}).
				Where("id = ? AND stock >= ?", b.RawMaterialID, required).
				UpdateColumn("stock", gorm.Expr("stock - ?", required))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &ShortageError{Shortages: []Shortage{{RawMaterialID: b.RawMaterialID, Name: b.RawMaterial.Name, Required: required}}}
			}
		}

		now := s.now()
		updates := map[string]any{"status": models.ProductionInProduction, "start_date": now}
		if po.EndDate == nil && product.ProductionTime > 0 {
			updates["end_date"] = now.AddDate(0, 0, product.ProductionTime)
		}
		return tx.Model(&models.ProductionOrder{}).Where("id = ?", id).Updates(updates).Error
	})

	var se *ShortageError
	if errors.As(err, &se) {
		if berr := s.setStatus(ctx, id, models.ProductionBlocked, nil); berr != nil {
			return nil, berr
		}
		return nil, apperr.BusinessRule("%s", se.Error())
	}
	if err != nil {
		return nil, err
	}

	po, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Events.Publish(ctx, events.ProductionStarted, strconv.FormatUint(uint64(id), 10), payload(po))
	return po, nil
}

// Complete closes a running order and adds its quantity to product stock.
func (s *Service) Complete(ctx context.Context, id uint) (*models.ProductionOrder, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var po models.ProductionOrder
		if err := tx.First(&po, id).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("production order %d not found", id)
			}
			return err
		}
		if po.Status != models.ProductionInProduction {
			return apperr.BusinessRule("production order %s is %s, only orders in production can be completed", po.OrderNumber, po.Status)
		}

		if err := tx.Model(&models.Product{}).Where("id = ?", po.ProductID).
			UpdateColumn("stock", gorm.Expr("stock + ?", po.Quantity)).Error; err != nil {
			return err
		}
		return tx.Model(&models.ProductionOrder{}).Where("id = ?", id).Updates(map[string]any{
			"status":   models.ProductionCompleted,
			"end_date": s.now(),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	po, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Events.Publish(ctx, events.ProductionCompleted, strconv.FormatUint(uint64(id), 10), payload(po))
	return po, nil
}

func (s *Service) List(ctx context.Context, req pagination.Request, status models.ProductionOrderStatus) (pagination.Page[models.ProductionOrder], error) {
	q := s.DB.WithContext(ctx).Model(&models.ProductionOrder{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return pagination.Find[models.ProductionOrder](q, req, "Product")
}

func payload(po *models.ProductionOrder) events.ProductionPayload {
	return events.ProductionPayload{
		ProductionOrderID: po.ID,
		OrderNumber:       po.OrderNumber,
		ProductID:         po.ProductID,
		Quantity:          po.Quantity,
		Status:            string(po.Status),
	}
}
