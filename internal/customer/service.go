package customer

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/pagination"

	"gorm.io/gorm"
)

var PageSpec = pagination.Spec{
	DefaultSize: 10,
	DefaultSort: "name",
	Fields: map[string]string{
		"id":        "id",
		"name":      "name",
		"email":     "email",
		"city":      "city",
		"createdAt": "created_at",
	},
}

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

type Input struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
}

type Patch struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	City    *string `json:"city"`
}

func validate(c *models.Customer) error {
	if c.Name == "" {
		return apperr.Validation("customer name is required")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return apperr.Validation("a valid customer email is required")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Customer, error) {
	cust := models.Customer{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
		City:    strings.TrimSpace(in.City),
	}
	if err := validate(&cust); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Create(&cust).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("a customer with email %s already exists", cust.Email)
		}
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return &cust, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Customer, error) {
	var cust models.Customer
	if err := s.DB.WithContext(ctx).First(&cust, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("customer %d not found", id)
		}
		return nil, fmt.Errorf("load customer: %w", err)
	}
	return &cust, nil
}

func (s *Service) Update(ctx context.Context, id uint, p Patch) (before, after *models.Customer, err error) {
	cust, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	prev := *cust

	if p.Name != nil {
		cust.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		cust.Email = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	if p.Phone != nil {
		cust.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Address != nil {
		cust.Address = strings.TrimSpace(*p.Address)
	}
	if p.City != nil {
		cust.City = strings.TrimSpace(*p.City)
	}
	if err := validate(cust); err != nil {
		return nil, nil, err
	}

	if err := s.DB.WithContext(ctx).Save(cust).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, nil, apperr.Conflict("a customer with email %s already exists", cust.Email)
		}
		return nil, nil, fmt.Errorf("update customer: %w", err)
	}
	return &prev, cust, nil
}

// Delete removes a customer without orders.
func (s *Service) Delete(ctx context.Context, id uint) (*models.Customer, error) {
	var deleted *models.Customer
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cust models.Customer
		if err := tx.First(&cust, id).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("customer %d not found", id)
			}
			return err
		}

		var orders int64
		if err := tx.Model(&models.Order{}).Where("customer_id = ?", id).Count(&orders).Error; err != nil {
			return err
		}
		if orders > 0 {
			return apperr.Conflict("customer %s has %d orders and cannot be deleted", cust.Name, orders)
		}

		if err := tx.Delete(&cust).Error; err != nil {
			return err
		}
		deleted = &cust
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// List pages customers. filter matches name or email, case-insensitively.
// An empty result is an empty page, not an error.
func (s *Service) List(ctx context.Context, req pagination.Request, filter string) (pagination.Page[models.Customer], error) {
	q := s.DB.WithContext(ctx).Model(&models.Customer{})
	if filter = strings.TrimSpace(filter); filter != "" {
		like := pagination.Contains(filter)
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\'`, like, like)
	}
	return pagination.Find[models.Customer](q, req)
}
