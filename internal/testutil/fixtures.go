package testutil

import (
	"fmt"
	"testing"

	"supplychain-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Supplier(t testing.TB, db *gorm.DB, name string) *models.Supplier {
	t.Helper()
	s := &models.Supplier{
		Name:     name,
		Email:    fmt.Sprintf("%s@suppliers.test", name),
		LeadTime: 3,
		Rating:   4,
	}
	require.NoError(t, db.Create(s).Error)
	return s
}

// RawMaterial creates a material with the given on-hand stock, reserved stock and threshold.
func RawMaterial(t testing.TB, db *gorm.DB, name string, stock, reserved, stockMin int, price string) *models.RawMaterial {
	t.Helper()
	m := &models.RawMaterial{
		Name:          name,
		Unit:          "kg",
		Stock:         stock,
		ReservedStock: reserved,
		StockMin:      stockMin,
		UnitPrice:     decimal.RequireFromString(price),
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

// Product creates a product; bom maps raw material id to quantity per unit.
func Product(t testing.TB, db *gorm.DB, name string, stock int, cost string, bom map[uint]int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:  name,
		Unit:  "pcs",
		Cost:  decimal.RequireFromString(cost),
		Stock: stock,
	}
	require.NoError(t, db.Create(p).Error)
	for materialID, qty := range bom {
		require.NoError(t, db.Create(&models.BillOfMaterial{
			ProductID:     p.ID,
			RawMaterialID: materialID,
			Quantity:      qty,
		}).Error)
	}
	return p
}

func Customer(t testing.TB, db *gorm.DB, name string) *models.Customer {
	t.Helper()
	c := &models.Customer{
		Name:    name,
		Email:   fmt.Sprintf("%s@customers.test", name),
		Address: "1 Market Street",
		City:    "Lyon",
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func Reload[T any](t testing.TB, db *gorm.DB, id uint) *T {
	t.Helper()
	var v T
	require.NoError(t, db.First(&v, id).Error)
	return &v
}
