package supplyorder

import (
	"context"
	"strings"
	"testing"
	"time"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/events"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	svc      *Service
	rec      *testutil.Recorder
	supplier *models.Supplier
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	rec := &testutil.Recorder{}
	svc := NewService(db, rec)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return fixture{db: db, svc: svc, rec: rec, supplier: testutil.Supplier(t, db, "acme")}
}

func TestCreateReservesStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	bolts := testutil.RawMaterial(t, f.db, "bolts", 5, 1, 10, "0.20")
	nuts := testutil.RawMaterial(t, f.db, "nuts", 2, 0, 8, "0.05")

	o, err := f.svc.Create(ctx, Input{
		SupplierID: f.supplier.ID,
		Lines: []LineInput{
			{RawMaterialID: bolts.ID, Quantity: 100},
			{RawMaterialID: nuts.ID, Quantity: 40},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "SO-1700000000000", o.OrderNumber)
	assert.Equal(t, models.SupplyOrderPending, o.Status)
	require.Len(t, o.Lines, 2)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("22")), o.TotalAmount.String())
	assert.Equal(t, "acme", o.Supplier.Name)

	assert.Equal(t, 101, testutil.Reload[models.RawMaterial](t, f.db, bolts.ID).ReservedStock)
	assert.Equal(t, 40, testutil.Reload[models.RawMaterial](t, f.db, nuts.ID).ReservedStock)
	assert.Equal(t, []string{events.SupplyOrderCreated}, f.rec.Types())
}

func TestCreateRefusesWhenStockIsSufficient(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	low := testutil.RawMaterial(t, f.db, "washers", 1, 0, 10, "0.01")
	full := testutil.RawMaterial(t, f.db, "screws", 50, 5, 10, "0.10")

	_, err := f.svc.Create(ctx, Input{
		SupplierID: f.supplier.ID,
		Lines: []LineInput{
			{RawMaterialID: low.ID, Quantity: 20},
			{RawMaterialID: full.ID, Quantity: 20},
		},
	})
	require.ErrorIs(t, err, apperr.ErrBusinessRule)
	assert.True(t, strings.Contains(err.Error(), "screws"))

	// the first line's reservation was rolled back
	assert.Equal(t, 0, testutil.Reload[models.RawMaterial](t, f.db, low.ID).ReservedStock)
	assert.Empty(t, f.rec.Events())

	var n int64
	require.NoError(t, f.db.Model(&models.SupplyOrder{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreateValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := testutil.RawMaterial(t, f.db, "glue", 0, 0, 5, "3")

	_, err := f.svc.Create(ctx, Input{SupplierID: f.supplier.ID})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.Create(ctx, Input{SupplierID: f.supplier.ID, Lines: []LineInput{{RawMaterialID: m.ID, Quantity: 0}}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.Create(ctx, Input{SupplierID: 999, Lines: []LineInput{{RawMaterialID: m.ID, Quantity: 1}}})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.Create(ctx, Input{SupplierID: f.supplier.ID, Lines: []LineInput{{RawMaterialID: 999, Quantity: 1}}})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestReceiveMovesReservedIntoStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := testutil.RawMaterial(t, f.db, "film", 2, 0, 10, "1")

	o, err := f.svc.Create(ctx, Input{SupplierID: f.supplier.ID, Lines: []LineInput{{RawMaterialID: m.ID, Quantity: 30}}})
	require.NoError(t, err)

	inProgress := models.SupplyOrderInProgress
	_, _, err = f.svc.Update(ctx, o.ID, Patch{Status: &inProgress})
	require.NoError(t, err)
	assert.Equal(t, 30, testutil.Reload[models.RawMaterial](t, f.db, m.ID).ReservedStock)

	received := models.SupplyOrderReceived
	before, after, err := f.svc.Update(ctx, o.ID, Patch{Status: &received})
	require.NoError(t, err)
	assert.Equal(t, models.SupplyOrderInProgress, before.Status)
	assert.Equal(t, models.SupplyOrderReceived, after.Status)

	got := testutil.Reload[models.RawMaterial](t, f.db, m.ID)
	assert.Equal(t, 32, got.Stock)
	assert.Equal(t, 0, got.ReservedStock)
	assert.Equal(t, []string{events.SupplyOrderCreated, events.SupplyOrderReceived}, f.rec.Types())

	pending := models.SupplyOrderPending
	_, _, err = f.svc.Update(ctx, o.ID, Patch{Status: &pending})
	assert.ErrorIs(t, err, apperr.ErrBusinessRule)
}

func TestDeleteReleasesReservation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := testutil.RawMaterial(t, f.db, "ink", 0, 3, 10, "4")

	o, err := f.svc.Create(ctx, Input{OrderNumber: "SO-MANUAL", SupplierID: f.supplier.ID, Lines: []LineInput{{RawMaterialID: m.ID, Quantity: 12}}})
	require.NoError(t, err)
	assert.Equal(t, 15, testutil.Reload[models.RawMaterial](t, f.db, m.ID).ReservedStock)

	_, err = f.svc.Create(ctx, Input{OrderNumber: "SO-MANUAL", SupplierID: f.supplier.ID, Lines: []LineInput{{RawMaterialID: m.ID, Quantity: 1}}})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, 15, testutil.Reload[models.RawMaterial](t, f.db, m.ID).ReservedStock)

	_, err = f.svc.Delete(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, testutil.Reload[models.RawMaterial](t, f.db, m.ID).ReservedStock)

	var lines int64
	require.NoError(t, f.db.Model(&models.SupplyOrderLine{}).Count(&lines).Error)
	assert.Zero(t, lines)

	_, err = f.svc.Get(ctx, o.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
