package delivery

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

type DeliveryResponse struct {
	ID              uint                  `json:"id"`
	OrderID         uint                  `json:"order_id"`
	DeliveryAddress string                `json:"delivery_address"`
	DeliveryDate    *time.Time            `json:"delivery_date"`
	DeliveryCost    decimal.Decimal       `json:"delivery_cost"`
	Driver          string                `json:"driver"`
	Vehicle         string                `json:"vehicle"`
	Status          models.DeliveryStatus `json:"status"`
}

func ToResponse(d models.Delivery) DeliveryResponse {
	return DeliveryResponse{
		ID:              d.ID,
		OrderID:         d.OrderID,
		DeliveryAddress: d.DeliveryAddress,
		DeliveryDate:    d.DeliveryDate,
		DeliveryCost:    d.DeliveryCost,
		Driver:          d.Driver,
		Vehicle:         d.Vehicle,
		Status:          d.Status,
	}
}

// POST /api/deliveries
func CreateDeliveryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body Input
		if err := web.Body(c, &body); err != nil {
			return err
		}
		d, err := svc.Create(c.UserContext(), body)
		if err != nil {
			return err
		}

		resp := ToResponse(*d)
		audit.Record(c, svc.DB, audit.LogOptions{
			EntityType:  "delivery",
			EntityID:    d.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("delivery planned for order %d", d.OrderID),
			After:       resp,
		})
		return web.Created(c, "delivery created", resp)
	}
}

// GET /api/deliveries?status=IN_PROGRESS
func ListDeliveriesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := models.DeliveryStatus(c.Query("status"))
		if status != "" && !status.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "unknown status")
		}
		page, err := svc.List(c.UserContext(), web.PageRequest(c, PageSpec), status)
		if err != nil {
			return err
		}
		return web.OK(c, "deliveries", pagination.Map(page, ToResponse))
	}
}

// GET /api/deliveries/:id
func GetDeliveryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		d, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return web.OK(c, "delivery", ToResponse(*d))
	}
}

// PUT /api/deliveries/:id
func UpdateDeliveryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		var body Input
		if err := web.Body(c, &body); err != nil {
			return err
		}
		before, after, err := svc.Update(c.UserContext(), id, body)
		if err != nil {
			return err
		}

		resp := ToResponse(*after)
		audit.Record(c, svc.DB, audit.LogOptions{
			EntityType:  "delivery",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("delivery %s -> %s", before.Status, after.Status),
			Before:      ToResponse(*before),
			After:       resp,
		})
		return web.OK(c, "delivery updated", resp)
	}
}

// DELETE /api/deliveries/:id
func DeleteDeliveryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		d, err := svc.Delete(c.UserContext(), id)
		if err != nil {
			return err
		}
		audit.Record(c, svc.DB, audit.LogOptions{
			EntityType:  "delivery",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("delivery for order %d deleted", d.OrderID),
			Before:      ToResponse(*d),
		})
		return web.OK(c, "delivery deleted", nil)
	}
}
