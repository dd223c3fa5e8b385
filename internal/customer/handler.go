package customer

import (
	"fmt"
	"time"

	"supplychain-backend/internal/audit"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/pagination"
	"supplychain-backend/internal/web"

	"github.com/gofiber/fiber/v2"
)

type CustomerResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"created_at"`
}

func ToResponse(c models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		City:      c.City,
		CreatedAt: c.CreatedAt,
	}
}

// POST /api/customers
func CreateCustomerHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body Input
		if err := web.Body(c, &body); err != nil {
			return err
		}
		cust, err := svc.Create(c.UserContext(), body)
		if err != nil {
			return err
		}

		resp := ToResponse(*cust)
		audit.Record(c, svc.DB, audit.LogOptions{
			EntityType:  "customer",
			EntityID:    cust.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("customer created: %s", cust.Name),
			After:       resp,
		})
		return web.Created(c, "customer created", resp)
	}
}

// GET /api/customers?filter=dupont&page=0&size=10
func ListCustomersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := svc.List(c.UserContext(), web.PageRequest(c, PageSpec), c.Query("filter"))
		if err != nil {
			return err
		}
		return web.OK(c, "customers", pagination.Map(page, ToResponse))
	}
}

// GET /api/customers/:id
func GetCustomerHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		cust, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return web.OK(c, "customer", ToResponse(*cust))
	}
}

// PUT /api/customers/:id
func UpdateCustomerHandler(svc *Service) fiber.Handler {
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
			EntityType:  "customer",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("customer updated: %s", after.Name),
			Before:      ToResponse(*before),
			After:       resp,
		})
		return web.OK(c, "customer updated", resp)
	}
}

// DELETE /api/customers/:id
func DeleteCustomerHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		cust, err := svc.Delete(c.UserContext(), id)
		if err != nil {
			return err
		}
		audit.Record(c, svc.DB, audit.LogOptions{
			EntityType:  "customer",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("customer deleted: %s", cust.Name),
			Before:      ToResponse(*cust),
		})
		return web.OK(c, "customer deleted", nil)
	}
}
