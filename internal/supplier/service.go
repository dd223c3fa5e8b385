package supplier

import (
	"context"
	"fmt"
	"strings"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/pagination"

	"gorm.io/gorm"
)

var PageSpec = pagination.Spec{
	DefaultSize: 5,
	DefaultSort: "name",
	Fields: map[string]string{
		"id":       "id",
		"name":     "name",
		"email":    "email",
		"leadTime": "lead_time",
		"rating":   "rating",
	},
}

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

type Input struct {
	Name     string  `json:"name"`
	Contact  string  `json:"contact"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	LeadTime int     `json:"lead_time"`
	Rating   float64 `json:"rating"`
}

type Patch struct {
	Name     *string  `json:"name"`
	Contact  *string  `json:"contact"`
	Email    *string  `json:"email"`
	Phone    *string  `json:"phone"`
	LeadTime *int     `json:"lead_time"`
	Rating   *float64 `json:"rating"`
}

func validate(s *models.Supplier) error {
	if s.Name == "" {
		return apperr.Validation("supplier name is required")
	}
	if s.Email == "" || !strings.Contains(s.Email, "@") {
		return apperr.Validation("a valid supplier email is required")
	}
	if s.LeadTime < 0 {
		return apperr.Validation("lead time cannot be negative")
	}
	if s.Rating < 0 || s.Rating > 5 {
		return apperr.Validation("rating must be between 0 and 5")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Supplier, error) {
	sup := models.Supplier{
		Name:     strings.TrimSpace(in.Name),
		Contact:  strings.TrimSpace(in.Contact),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:    strings.TrimSpace(in.Phone),
		LeadTime: in.LeadTime,
		Rating:   in.Rating,
	}
	if err := validate(&sup); err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Create(&sup).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("a supplier with email %s already exists", sup.Email)
		}
		return nil, fmt.Errorf("create supplier: %w", err)
	}
	return &sup, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Supplier, error) {
	var sup models.Supplier
	if err := s.DB.WithContext(ctx).First(&sup, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("supplier %d not found", id)
		}
		return nil, fmt.Errorf("load supplier: %w", err)
	}
	return &sup, nil
}

// Update applies the non-nil fields of p and returns the state before and after.
func (s *Service) Update(ctx context.Context, id uint, p Patch) (before, after *models.Supplier, err error) {
	sup, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	prev := *sup

	if p.Name != nil {
		sup.Name = strings.TrimSpace(*p.Name)
	}
	if p.Contact != nil {
		sup.Contact = strings.TrimSpace(*p.Contact)
	}
	if p.Email != nil {
		sup.Email = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	if p.Phone != nil {
		sup.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.LeadTime != nil {
		sup.LeadTime = *p.LeadTime
	}
	if p.Rating != nil {
		sup.Rating = *p.Rating
	}
	if err := validate(sup); err != nil {
		return nil, nil, err
	}

	if err := s.DB.WithContext(ctx).Save(sup).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, nil, apperr.Conflict("a supplier with email %s already exists", sup.Email)
		}
		return nil, nil, fmt.Errorf("update supplier: %w", err)
	}
	return &prev, sup, nil
}

// Delete removes a supplier that no supply order references. Raw materials
// pointing at it are detached.
func (s *Service) Delete(ctx context.Context, id uint) (*models.Supplier, error) {
	var deleted *models.Supplier
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sup models.Supplier
		if err := tx.First(&sup, id).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("supplier %d not found", id)
			}
			return err
		}

		var orders int64
		if err := tx.Model(&models.SupplyOrder{}).Where("supplier_id = ?", id).Count(&orders).Error; err != nil {
			return err
		}
		if orders > 0 {
			return apperr.Conflict("supplier %s has %d supply orders and cannot be deleted", sup.Name, orders)
		}

		if err := tx.Model(&models.RawMaterial{}).Where("supplier_id = ?", id).Update("supplier_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Delete(&sup).Error; err != nil {
			return err
		}
		deleted = &sup
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// List pages suppliers, optionally filtered by a case-insensitive name fragment.
func (s *Service) List(ctx context.Context, req pagination.Request, name string) (pagination.Page[models.Supplier], error) {
	q := s.DB.WithContext(ctx).Model(&models.Supplier{})
	if name = strings.TrimSpace(name); name != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, pagination.Contains(name))
	}
	return pagination.Find[models.Supplier](q, req)
}
