package supplier

import (
	"fmt"
	"time"

	"supplychain-backend/internal/audit"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/pagination"
	"supplychain-backend/internal/web"

	"github.com/gofiber/fiber/v2"
)

type SupplierResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	LeadTime  int       `json:"lead_time"`
	Rating    float64   `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToResponse(s models.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:        s.ID,
		Name:      s.Name,
		Contact:   s.Contact,
		Email:     s.Email,
		Phone:     s.Phone,
		LeadTime:  s.LeadTime,
		Rating:    s.Rating,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// POST /api/suppliers
func CreateSupplierHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body Input
		if err := web.Body(c, &body); err != nil {
			return err
		}

		sup, err := svc.Create(c.UserContext(), body)
		if err != nil {
			return err
		}

		resp := ToResponse(*sup)
		audit.Record(c, svc.DB, audit.LogOptions{
			EntityType:  "supplier",
			EntityID:    sup.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("supplier created: %s", sup.Name),
			After:       resp,
		})
		return web.Created(c, "supplier created", resp)
	}
}

// GET /api/suppliers?page=0&size=5&sortBy=name&sortDirection=asc
func ListSuppliersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := svc.List(c.UserContext(), web.PageRequest(c, PageSpec), "")
		if err != nil {
			return err
		}
		return web.OK(c, "suppliers", pagination.Map(page, ToResponse))
	}
}

// GET /api/suppliers/search?name=acme
func SearchSuppliersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Query("name")
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name query parameter is required")
		}
		page, err := svc.List(c.UserContext(), web.PageRequest(c, PageSpec), name)
		if err != nil {
			return err
		}
		return web.OK(c, "suppliers", pagination.Map(page, ToResponse))
	}
}

// GET /api/suppliers/:id
func GetSupplierHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		sup, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return web.OK(c, "supplier", ToResponse(*sup))
	}
}

// PUT /api/suppliers/:id
func UpdateSupplierHandler(svc *Service) fiber.Handler {
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
			EntityType:  "supplier",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("supplier updated: %s", after.Name),
			Before:      ToResponse(*before),
			After:       resp,
		})
		return web.OK(c, "supplier updated", resp)
	}
}

// DELETE /api/suppliers/:id
func DeleteSupplierHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		sup, err := svc.Delete(c.UserContext(), id)
		if err != nil {
			return err
		}

		audit.Record(c, svc.DB, audit.LogOptions{
			EntityType:  "supplier",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("supplier deleted: %s", sup.Name),
			Before:      ToResponse(*sup),
		})
		return web.OK(c, "supplier deleted", nil)
	}
}
