package product

import (
	"context"
	"testing"
	"time"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func placeOrder(t *testing.T, db *gorm.DB, productID uint, status models.OrderStatus) {
	t.Helper()
	cust := testutil.Customer(t, db, "buyer-"+string(status))
	o := models.Order{
		CustomerID:  cust.ID,
		OrderDate:   time.Now(),
		Status:      status,
		TotalAmount: decimal.Zero,
		Lines: []models.ProductOrder{
			{ProductID: productID, Quantity: 1, UnitPrice: decimal.Zero, TotalPrice: decimal.Zero},
		},
	}
	require.NoError(t, db.Create(&o).Error)
}

func TestCreateProductRequiresBOM(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)
	wood := testutil.RawMaterial(t, db, "oak", 10, 0, 1, "5")
	screws := testutil.RawMaterial(t, db, "screws", 100, 0, 1, "0.1")

	_, err := svc.Create(ctx, Input{Name: "Chair", Unit: "pcs", Cost: decimal.RequireFromString("49.90")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(ctx, Input{Name: "Chair", Unit: "pcs", BillOfMaterials: []BOMInput{{RawMaterialID: 999, Quantity: 1}}})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	p, err := svc.Create(ctx, Input{
		Name: "Chair", Unit: "pcs", Cost: decimal.RequireFromString("49.90"), ProductionTime: 2,
		BillOfMaterials: []BOMInput{
			{RawMaterialID: wood.ID, Quantity: 3},
			{RawMaterialID: screws.ID, Quantity: 8},
			{RawMaterialID: screws.ID, Quantity: 4},
		},
	})
	require.NoError(t, err)
	require.Len(t, p.BillOfMaterials, 2)

	qty := map[string]int{}
	for _, b := range p.BillOfMaterials {
		qty[b.RawMaterial.Name] = b.Quantity
	}
	assert.Equal(t, map[string]int{"oak": 3, "screws": 12}, qty)

	_, err = svc.Create(ctx, Input{Name: "chair", Unit: "pcs", BillOfMaterials: []BOMInput{{RawMaterialID: wood.ID, Quantity: 1}}})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestUpdateReplacesBOM(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)
	oak := testutil.RawMaterial(t, db, "oak", 10, 0, 1, "5")
	pine := testutil.RawMaterial(t, db, "pine", 10, 0, 1, "3")
	p := testutil.Product(t, db, "Table", 1, "120", map[uint]int{oak.ID: 6})

	cost := decimal.RequireFromString("99")
	before, after, err := svc.Update(ctx, p.ID, Patch{Cost: &cost, BillOfMaterials: []BOMInput{{RawMaterialID: pine.ID, Quantity: 7}}})
	require.NoError(t, err)
	require.Len(t, before.BillOfMaterials, 1)
	assert.Equal(t, oak.ID, before.BillOfMaterials[0].RawMaterialID)

	require.Len(t, after.BillOfMaterials, 1)
	assert.Equal(t, pine.ID, after.BillOfMaterials[0].RawMaterialID)
	assert.Equal(t, 7, after.BillOfMaterials[0].Quantity)
	assert.True(t, after.Cost.Equal(cost))

	name := "Desk"
	_, after, err = svc.Update(ctx, p.ID, Patch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Desk", after.Name)
	assert.Len(t, after.BillOfMaterials, 1)
}

func TestDeleteBlockedByPreparingOrder(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)
	m := testutil.RawMaterial(t, db, "oak", 10, 0, 1, "5")

	busy := testutil.Product(t, db, "Stool", 5, "20", map[uint]int{m.ID: 1})
	placeOrder(t, db, busy.ID, models.OrderPreparing)
	_, err := svc.Delete(ctx, busy.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	done := testutil.Product(t, db, "Bench", 5, "20", map[uint]int{m.ID: 2})
	placeOrder(t, db, done.ID, models.OrderDelivered)
	_, err = svc.Delete(ctx, done.ID)
	require.NoError(t, err)

	var boms int64
	require.NoError(t, db.Model(&models.BillOfMaterial{}).Where("product_id = ?", done.ID).Count(&boms).Error)
	assert.Zero(t, boms)

	_, err = svc.Delete(ctx, 4242)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
