package rawmaterial

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"supplychain-backend/internal/audit"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/pagination"
	"supplychain-backend/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SupplierRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type RawMaterialResponse struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	Stock         int             `json:"stock"`
	ReservedStock int             `json:"reserved_stock"`
	Available     int             `json:"available"`
	StockMin      int             `json:"stock_min"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	NeedsReorder  bool            `json:"needs_reorder"`
	Supplier      *SupplierRef    `json:"supplier,omitempty"`
}

func ToResponse(m models.RawMaterial) RawMaterialResponse {
	r := RawMaterialResponse{
		ID:            m.ID,
		Name:          m.Name,
		Unit:          m.Unit,
		Stock:         m.Stock,
		ReservedStock: m.ReservedStock,
		Available:     m.Available(),
		StockMin:      m.StockMin,
		UnitPrice:     m.UnitPrice,
		NeedsReorder:  m.NeedsReorder(),
	}
	if m.Supplier != nil {
		r.Supplier = &SupplierRef{ID: m.Supplier.ID, Name: m.Supplier.Name}
	}
	return r
}

// POST /api/raw-materials
func CreateRawMaterialHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body Input
		if err := web.Body(c, &body); err != nil {
			return err
		}
		m, err := svc.Create(c.UserContext(), body)
		if err != nil {
			return err
		}

		resp := ToResponse(*m)
		audit.Record(c, svc.DB, audit.LogOptions{
			EntityType:  "raw_material",
			EntityID:    m.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("raw material created: %s", m.Name),
			After:       resp,
		})
		return web.Created(c, "raw material created", resp)
	}
}

// GET /api/raw-materials?supplier_id=1
func ListRawMaterialsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		supplierID := c.QueryInt("supplier_id", 0)
		if supplierID < 0 {
			supplierID = 0
		}
		page, err := svc.List(c.UserContext(), web.PageRequest(c, PageSpec), uint(supplierID))
		if err != nil {
			return err
		}
		return web.OK(c, "raw materials", pagination.Map(page, ToResponse))
	}
}

// GET /api/raw-materials/low-stock
func LowStockHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.LowStock(c.UserContext())
		if err != nil {
			return err
		}
		resp := make([]RawMaterialResponse, 0, len(items))
		for _, m := range items {
			resp = append(resp, ToResponse(m))
		}
		return web.OK(c, "raw materials below threshold", resp)
	}
}

// GET /api/raw-materials/low-stock/export
func ExportLowStockHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.LowStock(c.UserContext())
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := WriteReplenishmentReport(&buf, items); err != nil {
			return fmt.Errorf("render replenishment report: %w", err)
		}

		filename := fmt.Sprintf("replenishment-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
		return c.Send(buf.Bytes())
	}
}

// POST /api/raw-materials/stock-count (multipart, field "file")
func ImportStockCountHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file is required")
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "only .xlsx files are accepted")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fmt.Errorf("open upload: %w", err)
		}
		defer file.Close()

		counts, err := ParseStockCount(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if len(counts) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "the sheet contains no counts")
		}

		res, err := svc.ApplyStockCount(c.UserContext(), counts)
		if err != nil {
			return err
		}

		audit.Record(c, svc.DB, audit.LogOptions{
			EntityType:  "raw_material",
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("stock count imported from %s: %d updated, %d unmatched", fileHeader.Filename, len(res.Updated), len(res.Unmatched)),
			After:       res,
		})
		return web.OK(c, "stock count applied", res)
	}
}

// GET /api/raw-materials/:id
func GetRawMaterialHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		m, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return err
		}
		return web.OK(c, "raw material", ToResponse(*m))
	}
}

// PUT /api/raw-materials/:id
func UpdateRawMaterialHandler(svc *Service) fiber.Handler {
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
			EntityType:  "raw_material",
			EntityID:    id,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("raw material updated: %s", after.Name),
			Before:      ToResponse(*before),
			After:       resp,
		})
		return web.OK(c, "raw material updated", resp)
	}
}

// DELETE /api/raw-materials/:id
func DeleteRawMaterialHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := web.ParseID(c, "id")
		if err != nil {
			return err
		}
		m, err := svc.Delete(c.UserContext(), id)
		if err != nil {
			return err
		}

		audit.Record(c, svc.DB, audit.LogOptions{
			EntityType:  "raw_material",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("raw material deleted: %s", m.Name),
			Before:      ToResponse(*m),
		})
		return web.OK(c, "raw material deleted", nil)
	}
}
