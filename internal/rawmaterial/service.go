package rawmaterial

import (
	"context"
	"fmt"
	"strings"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/pagination"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var PageSpec = pagination.Spec{
	DefaultSize: 10,
	DefaultSort: "name",
	Fields: map[string]string{
		"id":        "id",
		"name":      "name",
		"stock":     "stock",
		"stockMin":  "stock_min",
		"unitPrice": "unit_price",
	},
}

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

type Input struct {
	Name       string          `json:"name"`
	Unit       string          `json:"unit"`
	Stock      int             `json:"stock"`
	StockMin   int             `json:"stock_min"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	SupplierID *uint           `json:"supplier_id"`
}

type Patch struct {
	Name       *string          `json:"name"`
	Unit       *string          `json:"unit"`
	Stock      *int             `json:"stock"`
	StockMin   *int             `json:"stock_min"`
	UnitPrice  *decimal.Decimal `json:"unit_price"`
	SupplierID *uint            `json:"supplier_id"`
}

func validate(m *models.RawMaterial) error {
	switch {
	case m.Name == "":
		return apperr.Validation("raw material name is required")
	case m.Unit == "":
		return apperr.Validation("raw material unit is required")
	case m.Stock < 0 || m.StockMin < 0:
		return apperr.Validation("stock values cannot be negative")
	case m.UnitPrice.IsNegative():
		return apperr.Validation("unit price cannot be negative")
	}
	return nil
}

func (s *Service) checkSupplier(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	var n int64
	if err := tx.Model(&models.Supplier{}).Where("id = ?", *id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("supplier %d not found", *id)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in Input) (*models.RawMaterial, error) {
	m := models.RawMaterial{
		Name:       strings.TrimSpace(in.Name),
		Unit:       strings.TrimSpace(in.Unit),
		Stock:      in.Stock,
		StockMin:   in.StockMin,
		UnitPrice:  in.UnitPrice,
		SupplierID: in.SupplierID,
	}
	if err := validate(&m); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	if err := s.checkSupplier(db, m.SupplierID); err != nil {
		return nil, err
	}
	if err := db.Create(&m).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("raw material %s already exists", m.Name)
		}
		return nil, fmt.Errorf("create raw material: %w", err)
	}
	return s.Get(ctx, m.ID)
}

func (s *Service) Get(ctx context.Context, id uint) (*models.RawMaterial, error) {
	var m models.RawMaterial
	if err := s.DB.WithContext(ctx).Preload("Supplier").First(&m, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("raw material %d not found", id)
		}
		return nil, fmt.Errorf("load raw material: %w", err)
	}
	return &m, nil
}

func (s *Service) Update(ctx context.Context, id uint, p Patch) (before, after *models.RawMaterial, err error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	prev := *m

	if p.Name != nil {
		m.Name = strings.TrimSpace(*p.Name)
	}
	if p.Unit != nil {
		m.Unit = strings.TrimSpace(*p.Unit)
	}
	if p.Stock != nil {
		m.Stock = *p.Stock
	}
	if p.StockMin != nil {
		m.StockMin = *p.StockMin
	}
	if p.UnitPrice != nil {
		m.UnitPrice = *p.UnitPrice
	}
	if p.SupplierID != nil {
		m.SupplierID = p.SupplierID
	}
	if err := validate(m); err != nil {
		return nil, nil, err
	}

	db := s.DB.WithContext(ctx)
	if err := s.checkSupplier(db, m.SupplierID); err != nil {
		return nil, nil, err
	}
	m.Supplier = nil
	err = db.Model(&models.RawMaterial{ID: id}).Select("name", "unit", "stock", "stock_min", "unit_price", "supplier_id").Updates(m).Error
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, nil, apperr.Conflict("raw material %s already exists", m.Name)
		}
		return nil, nil, fmt.Errorf("update raw material: %w", err)
	}

	after, err = s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return &prev, after, nil
}

// Delete refuses materials still used by a bill of materials or a supply order line.
func (s *Service) Delete(ctx context.Context, id uint) (*models.RawMaterial, error) {
	var deleted models.RawMaterial
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deleted, id).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("raw material %d not found", id)
			}
			return err
		}

		var boms, lines int64
		if err := tx.Model(&models.BillOfMaterial{}).Where("raw_material_id = ?", id).Count(&boms).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.SupplyOrderLine{}).Where("raw_material_id = ?", id).Count(&lines).Error; err != nil {
			return err
		}
		if boms > 0 || lines > 0 {
			return apperr.Conflict("raw material %s is used by %d bills of materials and %d supply order lines", deleted.Name, boms, lines)
		}
		return tx.Delete(&deleted).Error
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

func (s *Service) List(ctx context.Context, req pagination.Request, supplierID uint) (pagination.Page[models.RawMaterial], error) {
	q := s.DB.WithContext(ctx).Model(&models.RawMaterial{})
	if supplierID > 0 {
		q = q.Where("supplier_id = ?", supplierID)
	}
	return pagination.Find[models.RawMaterial](q, req, "Supplier")
}

// LowStock lists materials whose available stock is under their threshold,
// largest shortfall first.
func (s *Service) LowStock(ctx context.Context) ([]models.RawMaterial, error) {
	var out []models.RawMaterial
	err := s.DB.WithContext(ctx).
		Preload("Supplier").
		Where("stock - reserved_stock < stock_min").
		Order("stock_min - (stock - reserved_stock) DESC").
		Order("name").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return out, nil
}

type StockCountResult struct {
	Updated   []string `json:"updated"`
	Unmatched []string `json:"unmatched"`
}

// ApplyStockCount overwrites on-hand stock from a physical count keyed by
// material name. Names are matched case-insensitively.
func (s *Service) ApplyStockCount(ctx context.Context, counts []StockCount) (*StockCountResult, error) {
	res := &StockCountResult{Updated: []string{}, Unmatched: []string{}}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var all []models.RawMaterial
		if err := tx.Find(&all).Error; err != nil {
			return err
		}
		byName := make(map[string]models.RawMaterial, len(all))
		for _, m := range all {
			byName[normalizeName(m.Name)] = m
		}

		for _, sc := range counts {
			m, ok := byName[normalizeName(sc.Name)]
			if !ok {
				res.Unmatched = append(res.Unmatched, sc.Name)
				continue
			}
			if sc.Quantity < 0 {
				return apperr.Validation("negative count for %s", sc.Name)
			}
			if err := tx.Model(&models.RawMaterial{}).Where("id = ?", m.ID).Update("stock", sc.Quantity).Error; err != nil {
				return err
			}
			res.Updated = append(res.Updated, m.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
