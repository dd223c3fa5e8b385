package product

import (
	"fmt"

	"supplychain-backend/internal/audit"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/pagination"
	"supplychain-backend/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type BOMResponse struct {
	RawMaterialID uint   `json:"raw_material_id"`
	RawMaterial   string `json:"raw_material"`
	Unit          string `json:"unit"`
	Quantity      int    `json:"quantity"`
}

type ProductResponse struct {
	ID              uint            `json:"id"`
	Name            string          `json:"name"`
	Unit            string          `json:"unit"`
	Cost            decimal.Decimal `json:"cost"`
	Stock           int             `json:"stock"`
	ProductionTime  int             `json:"production_time"`
	BillOfMaterials []BOMResponse   `json:"bill_of_materials"`
}

func ToResponse(p models.Product) ProductResponse {
	r := ProductResponse{
		ID:              p.ID,
		Name:            p.Name,
		Unit:            p.Unit,
		Cost:            p.Cost,
		Stock:           p.Stock,
		ProductionTime:  p.ProductionTime,
		BillOfMaterials: make([]BOMResponse, 0, len(p.BillOfMaterials)),
	}
	for _, b := range p.BillOfMaterials {
		br := BOMResponse{RawMaterialID: b.RawMaterialID, Quantity: b.Quantity}
		if b.RawMaterial != nil {
			br.RawMaterial = b.RawMaterial.Name
			br.Unit = b.RawMaterial.Unit
		}
		r.BillOfMaterials = append(r.BillOfMaterials, br)
	}
	return r
}

// POST /api/products
func CreateProductHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body Input
		if err := web.Body(c, &body); err != nil {
			return err
		}
		p, err := svc.Create(c.UserContext(), body)
		if err != nil {
			return err
		}

		resp := ToResponse(*p)
		audit.Record(c, svc.DB, audit.LogOptions{
			EntityType:  "product",
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("product created: %s", p.Name),
			After:       resp,
		})
		return web.Created(c, "product created", resp)
	}
}

// GET /api/products
func ListProductsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := svc.List(c.UserContext(), web.PageRequest(c, PageSpec))
		if err != nil {
			return err
		}
		return web.OK(c, "products", pagination.Map(page, ToResponse))
	}
}

// GET /api/products/:id
func GetProductHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		p, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return web.OK(c, "product", ToResponse(*p))
	}
}

// PUT /api/products/:id
func UpdateProductHandler(svc *Service) fiber.Handler {
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
			EntityType:  "product",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("product updated: %s", after.Name),
			Before:      ToResponse(*before),
			After:       resp,
		})
		return web.OK(c, "product updated", resp)
	}
}

// DELETE /api/products/:id
func DeleteProductHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		p, err := svc.Delete(c.UserContext(), id)
		if err != nil {
			return err
		}

		audit.Record(c, svc.DB, audit.LogOptions{
			EntityType:  "product",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("product deleted: %s", p.Name),
			Before:      ToResponse(*p),
		})
		return web.OK(c, "product deleted", nil)
	}
}
