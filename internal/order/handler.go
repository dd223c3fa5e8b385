package order

import (
	"fmt"
	"time"

	"supplychain-backend/internal/audit"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/pagination"
	"supplychain-backend/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type LineResponse struct {
	ID         uint            `json:"id"`
	ProductID  uint            `json:"product_id"`
	Product    string          `json:"product"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type OrderResponse struct {
	ID           uint               `json:"id"`
	CustomerID   uint               `json:"customer_id"`
	CustomerName string             `json:"customer_name"`
	OrderDate    time.Time          `json:"order_date"`
	Status       models.OrderStatus `json:"status"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	DeliveryID   *uint              `json:"delivery_id"`
	Lines        []LineResponse     `json:"lines"`
}

func ToResponse(o models.Order) OrderResponse {
	r := OrderResponse{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		OrderDate:   o.OrderDate,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		Lines:       make([]LineResponse, 0, len(o.Lines)),
	}
	if o.Customer != nil {
		r.CustomerName = o.Customer.Name
	}
	if o.Delivery != nil {
		id := o.Delivery.ID
		r.DeliveryID = &id
	}
	for _, l := range o.Lines {
		lr := LineResponse{
			ID:         l.ID,
			ProductID:  l.ProductID,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			TotalPrice: l.TotalPrice,
		}
		if l.Product != nil {
			lr.Product = l.Product.Name
		}
		r.Lines = append(r.Lines, lr)
	}
	return r
}

// POST /api/orders
func CreateOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body Input
		if err := web.Body(c, &body); err != nil {
			return err
		}
		o, err := svc.Create(c.UserContext(), body)
		if err != nil {
			return err
		}

		resp := ToResponse(*o)
		audit.Record(c, svc.DB, audit.LogOptions{
			EntityType:  "order",
			EntityID:    o.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("order created for customer %d, total %s", o.CustomerID, o.TotalAmount.StringFixed(2)),
			After:       resp,
		})
		return web.Created(c, "order created", resp)
	}
}

// GET /api/orders?customer_id=1&status=PREPARING
func ListOrdersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := Filter{
			CustomerID: uint(c.QueryInt("customer_id", 0)),
			Status:     models.OrderStatus(c.Query("status")),
		}
		if f.Status != "" && !f.Status.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "unknown status")
		}
		page, err := svc.List(c.UserContext(), web.PageRequest(c, PageSpec), f)
		if err != nil {
			return err
		}
		return web.OK(c, "orders", pagination.Map(page, ToResponse))
	}
}

// GET /api/orders/:id
func GetOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		o, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return web.OK(c, "order", ToResponse(*o))
	}
}

// GET /api/orders/:id/status
func OrderStatusHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		v, err := svc.Status(c.UserContext(), id)
		if err != nil {
			return err
		}
		return web.OK(c, "order status", v)
	}
}

type statusBody struct {
	Status models.OrderStatus `json:"status"`
}

// PUT /api/orders/:id
func UpdateOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		var body statusBody
		if err := web.Body(c, &body); err != nil {
			return err
		}
		before, after, err := svc.Update(c.UserContext(), id, body.Status)
		if err != nil {
			return err
		}

		resp := ToResponse(*after)
		audit.Record(c, svc.DB, audit.LogOptions{
			EntityType:  "order",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("order status %s -> %s", before.Status, after.Status),
			Before:      ToResponse(*before),
			After:       resp,
		})
		return web.OK(c, "order updated", resp)
	}
}

// DELETE /api/orders/:id
func DeleteOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		o, err := svc.Delete(c.UserContext(), id)
		if err != nil {
			return err
		}
		audit.Record(c, svc.DB, audit.LogOptions{
			EntityType:  "order",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("order %d deleted", id),
			Before:      ToResponse(*o),
		})
		return web.OK(c, "order deleted", nil)
	}
}
