package production

import (
	"fmt"
	"time"

	"supplychain-backend/internal/audit"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/pagination"
	"supplychain-backend/internal/web"

	"github.com/gofiber/fiber/v2"
)

type ProductionOrderResponse struct {
	ID          uint                         `json:"id"`
	OrderNumber string                       `json:"order_number"`
	ProductID   uint                         `json:"product_id"`
	ProductName string                       `json:"product_name"`
	Quantity    int                          `json:"quantity"`
	Status      models.ProductionOrderStatus `json:"status"`
	Priority    models.ProductionPriority    `json:"priority"`
	StartDate   *time.Time                   `json:"start_date"`
	EndDate     *time.Time                   `json:"end_date"`
	CreatedAt   time.Time                    `json:"created_at"`
}

func ToResponse(po models.ProductionOrder) ProductionOrderResponse {
	r := ProductionOrderResponse{
		ID:          po.ID,
		OrderNumber: po.OrderNumber,
		ProductID:   po.ProductID,
		Quantity:    po.Quantity,
		Status:      po.Status,
		Priority:    po.Priority,
		StartDate:   po.StartDate,
		EndDate:     po.EndDate,
		CreatedAt:   po.CreatedAt,
	}
	if po.Product != nil {
		r.ProductName = po.Product.Name
	}
	return r
}

func record(c *fiber.Ctx, svc *Service, before *models.ProductionOrder, after *models.ProductionOrder, action models.AuditAction, desc string) {
	opts := audit.LogOptions{
		EntityType:  "production_order",
		EntityID:    after.ID,
		Action:      action,
		Description: desc,
		After:       ToResponse(*after),
	}
	if before != nil {
		opts.Before = ToResponse(*before)
	}
	audit.Record(c, svc.DB, opts)
}

// POST /api/production-orders
func CreateProductionOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body Input
		if err := web.Body(c, &body); err != nil {
			return err
		}
		po, err := svc.Create(c.UserContext(), body)
		if err != nil {
			return err
		}
		record(c, svc, nil, po, models.AuditActionCreate, fmt.Sprintf("production order %s created", po.OrderNumber))
		return web.Created(c, "production order created", ToResponse(*po))
	}
}

func listByStatus(c *fiber.Ctx, svc *Service, status models.ProductionOrderStatus) error {
	if status != "" && !status.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "unknown status")
	}
	page, err := svc.List(c.UserContext(), web.PageRequest(c, PageSpec), status)
	if err != nil {
		return err
	}
	return web.OK(c, "production orders", pagination.Map(page, ToResponse))
}

// GET /api/production-orders?status=PENDING
func ListProductionOrdersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return listByStatus(c, svc, models.ProductionOrderStatus(c.Query("status")))
	}
}

// GET /api/production-orders/status/:status
func ListProductionOrdersByStatusHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return listByStatus(c, svc, models.ProductionOrderStatus(c.Params("status")))
	}
}

// GET /api/production-orders/:id
func GetProductionOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		po, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return web.OK(c, "production order", ToResponse(*po))
	}
}

// PUT /api/production-orders/:id
func UpdateProductionOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		var body Patch
		if err := web.Body(c, &body); err != nil {
			return err
		}
		before, after, err := svc.Update(c.UserContext(), id, body)
		if err != nil {
			return err
		}
		record(c, svc, before, after, models.AuditActionUpdate, fmt.Sprintf("production order %s updated", after.OrderNumber))
		return web.OK(c, "production order updated", ToResponse(*after))
	}
}

// DELETE /api/production-orders/:id cancels the order; the row is kept.
func CancelProductionOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		po, err := svc.Cancel(c.UserContext(), id)
		if err != nil {
			return err
		}
		record(c, svc, nil, po, models.AuditActionUpdate, fmt.Sprintf("production order %s cancelled", po.OrderNumber))
		return web.OK(c, "production order cancelled", ToResponse(*po))
	}
}

// PUT /api/production-orders/:id/start (also PUT /api/production/:id)
func StartProductionHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		po, err := svc.Start(c.UserContext(), id)
		if err != nil {
			return err
		}
		record(c, svc, nil, po, models.AuditActionUpdate, fmt.Sprintf("production order %s started", po.OrderNumber))
		return web.OK(c, "production started", ToResponse(*po))
	}
}

// PUT /api/production-orders/:id/complete
func CompleteProductionHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		po, err := svc.Complete(c.UserContext(), id)
		if err != nil {
			return err
		}
		record(c, svc, nil, po, models.AuditActionUpdate, fmt.Sprintf("production order %s completed", po.OrderNumber))
		return web.OK(c, "production completed", ToResponse(*po))
	}
}
