package supplyorder

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
	ID            uint            `json:"id"`
	RawMaterialID uint            `json:"raw_material_id"`
	RawMaterial   string          `json:"raw_material"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

type SupplyOrderResponse struct {
	ID           uint                     `json:"id"`
	OrderNumber  string                   `json:"order_number"`
	SupplierID   uint                     `json:"supplier_id"`
	SupplierName string                   `json:"supplier_name"`
	OrderDate    time.Time                `json:"order_date"`
	Status       models.SupplyOrderStatus `json:"status"`
	TotalAmount  decimal.Decimal          `json:"total_amount"`
	Lines        []LineResponse           `json:"lines"`
}

func ToResponse(o models.SupplyOrder) SupplyOrderResponse {
	r := SupplyOrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		SupplierID:  o.SupplierID,
		OrderDate:   o.OrderDate,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		Lines:       make([]LineResponse, 0, len(o.Lines)),
	}
	if o.Supplier != nil {
		r.SupplierName = o.Supplier.Name
	}
	for _, l := range o.Lines {
		lr := LineResponse{
			ID:            l.ID,
			RawMaterialID: l.RawMaterialID,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			TotalPrice:    l.TotalPrice,
		}
		if l.RawMaterial != nil {
			lr.RawMaterial = l.RawMaterial.Name
		}
		r.Lines = append(r.Lines, lr)
	}
	return r
}

// POST /api/supplier-orders
func CreateSupplyOrderHandler(svc *Service) fiber.Handler {
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
			EntityType:  "supply_order",
			EntityID:    o.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("supply order %s created, total %s", o.OrderNumber, o.TotalAmount.StringFixed(2)),
			After:       resp,
		})
		return web.Created(c, "supply order created", resp)
	}
}

// GET /api/supplier-orders?status=PENDING&supplier_id=1
func ListSupplyOrdersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := Filter{Status: models.SupplyOrderStatus(c.Query("status"))}
		if f.Status != "" && !f.Status.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "unknown status")
		}
		if id := c.QueryInt("supplier_id", 0); id > 0 {
			f.SupplierID = uint(id)
		}

		page, err := svc.List(c.UserContext(), web.PageRequest(c, PageSpec), f)
		if err != nil {
			return err
		}
		return web.OK(c, "supply orders", pagination.Map(page, ToResponse))
	}
}

// GET /api/supplier-orders/:id
func GetSupplyOrderHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		o, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return web.OK(c, "supply order", ToResponse(*o))
	}
}

// PUT /api/supplier-orders/:id
func UpdateSupplyOrderHandler(svc *Service) fiber.Handler {
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

		resp := ToResponse(*after)
		audit.Record(c, svc.DB, audit.LogOptions{
			EntityType:  "supply_order",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("supply order %s: %s -> %s", after.OrderNumber, before.Status, after.Status),
			Before:      ToResponse(*before),
			After:       resp,
		})
		return web.OK(c, "supply order updated", resp)
	}
}

// DELETE /api/supplier-orders/:id
func DeleteSupplyOrderHandler(svc *Service) fiber.Handler {
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
			EntityType:  "supply_order",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("supply order %s deleted", o.OrderNumber),
			Before:      ToResponse(*o),
		})
		return web.OK(c, "supply order deleted", nil)
	}
}
