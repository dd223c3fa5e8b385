package product

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
		"id":             "id",
		"name":           "name",
		"cost":           "cost",
		"stock":          "stock",
		"productionTime": "production_time",
	},
}

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

type BOMInput struct {
	RawMaterialID uint `json:"raw_material_id"`
	Quantity      int  `json:"quantity"`
}

type Input struct {
	Name            string          `json:"name"`
	Unit            string          `json:"unit"`
	Cost            decimal.Decimal `json:"cost"`
	Stock           int             `json:"stock"`
	ProductionTime  int             `json:"production_time"`
	BillOfMaterials []BOMInput      `json:"bill_of_materials"`
}

type Patch struct {
	Name            *string          `json:"name"`
	Unit            *string          `json:"unit"`
	Cost            *decimal.Decimal `json:"cost"`
	Stock           *int             `json:"stock"`
	ProductionTime  *int             `json:"production_time"`
	BillOfMaterials []BOMInput       `json:"bill_of_materials"`
}

func validate(p *models.Product) error {
	switch {
	case p.Name == "":
		return apperr.Validation("product name is required")
	case p.Unit == "":
		return apperr.Validation("product unit is required")
	case p.Cost.IsNegative():
		return apperr.Validation("cost cannot be negative")
	case p.Stock < 0:
		return apperr.Validation("stock cannot be negative")
	case p.ProductionTime < 0:
		return apperr.Validation("production time cannot be negative")
	}
	return nil
}

// buildBOM checks every row and its material, merging duplicate materials.
func buildBOM(tx *gorm.DB, rows []BOMInput) ([]models.BillOfMaterial, error) {
	if len(rows) == 0 {
		return nil, apperr.Validation("a product needs a bill of materials")
	}

	merged := make(map[uint]int)
	var order []uint
	for _, r := range rows {
		if r.Quantity <= 0 {
			return nil, apperr.Validation("bill of materials quantities must be positive")
		}
		if _, seen := merged[r.RawMaterialID]; !seen {
			order = append(order, r.RawMaterialID)
		}
		merged[r.RawMaterialID] += r.Quantity
	}

	var found int64
	if err := tx.Model(&models.RawMaterial{}).Where("id IN ?", order).Count(&found).Error; err != nil {
		return nil, err
	}
	if int(found) != len(order) {
		return nil, apperr.NotFound("one or more raw materials of the bill of materials do not exist")
	}

	bom := make([]models.BillOfMaterial, 0, len(order))
	for _, id := range order {
		bom = append(bom, models.BillOfMaterial{RawMaterialID: id, Quantity: merged[id]})
	}
	return bom, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Product, error) {
	p := models.Product{
		Name:           strings.TrimSpace(in.Name),
		Unit:           strings.TrimSpace(in.Unit),
		Cost:           in.Cost,
		Stock:          in.Stock,
		ProductionTime: in.ProductionTime,
	}
	if err := validate(&p); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dup int64
		if err := tx.Model(&models.Product{}).Where("LOWER(name) = ?", strings.ToLower(p.Name)).Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return apperr.Conflict("product %s already exists", p.Name)
		}

		bom, err := buildBOM(tx, in.BillOfMaterials)
		if err != nil {
			return err
		}
		p.BillOfMaterials = bom

		if err := tx.Create(&p).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return apperr.Conflict("product %s already exists", p.Name)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, p.ID)
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.DB.WithContext(ctx).Preload("BillOfMaterials.RawMaterial").First(&p, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("product %d not found", id)
		}
		return nil, fmt.Errorf("load product: %w", err)
	}
	return &p, nil
}

// Update copies the non-nil fields and, when rows are given, replaces the
// bill of materials.
func (s *Service) Update(ctx context.Context, id uint, patch Patch) (before, after *models.Product, err error) {
	prev, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	p := *prev
	p.BillOfMaterials = nil
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Unit != nil {
		p.Unit = strings.TrimSpace(*patch.Unit)
	}
	if patch.Cost != nil {
		p.Cost = *patch.Cost
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.ProductionTime != nil {
		p.ProductionTime = *patch.ProductionTime
	}
	if err := validate(&p); err != nil {
		return nil, nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Product{ID: id}).
			Select("name", "unit", "cost", "stock", "production_time").
			Updates(&p).Error
		if err != nil {
			if database.IsUniqueViolation(err) {
				return apperr.Conflict("product %s already exists", p.Name)
			}
			return err
		}

		if patch.BillOfMaterials == nil {
			return nil
		}
		bom, err := buildBOM(tx, patch.BillOfMaterials)
		if err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.BillOfMaterial{}).Error; err != nil {
			return err
		}
		for i := range bom {
			bom[i].ProductID = id
		}
		return tx.Create(&bom).Error
	})
	if err != nil {
		return nil, nil, err
	}

	after, err = s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return prev, after, nil
}

// Delete refuses products that are part of an order still being prepared.
func (s *Service) Delete(ctx context.Context, id uint) (*models.Product, error) {
	var deleted models.Product
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deleted, id).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("product %d not found", id)
			}
			return err
		}

		var pending int64
		err := tx.Model(&models.ProductOrder{}).
			Joins("JOIN orders ON orders.id = product_orders.order_id").
			Where("product_orders.product_id = ? AND orders.status = ?", id, models.OrderPreparing).
			Count(&pending).Error
		if err != nil {
			return err
		}
		if pending > 0 {
			return apperr.Conflict("product %s is part of %d orders in preparation", deleted.Name, pending)
		}

		if err := tx.Where("product_id = ?", id).Delete(&models.BillOfMaterial{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Product{}, id).Error; err != nil {
			if database.IsForeignKeyViolation(err) {
				return apperr.Conflict("product %s is still referenced by orders", deleted.Name)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

func (s *Service) List(ctx context.Context, req pagination.Request) (pagination.Page[models.Product], error) {
	return pagination.Find[models.Product](s.DB.WithContext(ctx).Model(&models.Product{}), req, "BillOfMaterials.RawMaterial")
}
