package supplier

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
)

func TestCreateSupplier(t *testing.T) {
	ctx := context.Background()
	svc := NewService(testutil.NewDB(t))

	sup, err := svc.Create(ctx, Input{Name: " Acme Metals ", Email: "Sales@Acme.test", LeadTime: 5, Rating: 4.5})
	require.NoError(t, err)
	assert.Equal(t, "Acme Metals", sup.Name)
	assert.Equal(t, "sales@acme.test", sup.Email)

	_, err = svc.Create(ctx, Input{Name: "Acme Again", Email: "sales@acme.test"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.Create(ctx, Input{Name: "Bad Rating", Email: "r@x.test", Rating: 7})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(ctx, Input{Email: "n@x.test"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateSupplier(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)
	sup := testutil.Supplier(t, db, "steelco")

	lead := 10
	phone := "+33 1 23 45 67 89"
	before, after, err := svc.Update(ctx, sup.ID, Patch{LeadTime: &lead, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, 3, before.LeadTime)
	assert.Equal(t, 10, after.LeadTime)
	assert.Equal(t, phone, after.Phone)
	assert.Equal(t, "steelco", after.Name)

	_, _, err = svc.Update(ctx, 999, Patch{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSearchAndPaging(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)
	for _, n := range []string{"alpha-steel", "beta-plastics", "gamma-steel", "delta-wood"} {
		testutil.Supplier(t, db, n)
	}

	page, err := svc.List(ctx, PageSpec.Resolve(0, 0, "", ""), "STEEL")
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalElements)
	require.Len(t, page.Content, 2)
	assert.Equal(t, "alpha-steel", page.Content[0].Name)

	page, err = svc.List(ctx, PageSpec.Resolve(1, 3, "name", "desc"), "")
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "alpha-steel", page.Content[0].Name)
}

func TestDeleteSupplier(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)

	busy := testutil.Supplier(t, db, "busy")
	require.NoError(t, db.Create(&models.SupplyOrder{
		OrderNumber: "SO-1",
		SupplierID:  busy.ID,
		OrderDate:   time.Now(),
		Status:      models.SupplyOrderPending,
		TotalAmount: decimal.Zero,
	}).Error)

	_, err := svc.Delete(ctx, busy.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	idle := testutil.Supplier(t, db, "idle")
	m := testutil.RawMaterial(t, db, "resin", 10, 0, 2, "1.50")
	require.NoError(t, db.Model(m).Update("supplier_id", idle.ID).Error)

	deleted, err := svc.Delete(ctx, idle.ID)
	require.NoError(t, err)
	assert.Equal(t, "idle", deleted.Name)
	assert.Nil(t, testutil.Reload[models.RawMaterial](t, db, m.ID).SupplierID)

	_, err = svc.Delete(ctx, idle.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSearchEscapesLikeWildcards(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)
	testutil.Supplier(t, db, "acme_metals")
	testutil.Supplier(t, db, "acmemetals")

	page, err := svc.List(ctx, PageSpec.Resolve(0, 0, "", ""), "_")
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "acme_metals", page.Content[0].Name)

	page, err = svc.List(ctx, PageSpec.Resolve(0, 0, "", ""), `\`)
	require.NoError(t, err)
	assert.Empty(t, page.Content)
}
