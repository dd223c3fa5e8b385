package customer

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

func TestCreateCustomer(t *testing.T) {
	ctx := context.Background()
	svc := NewService(testutil.NewDB(t))

	cust, err := svc.Create(ctx, Input{Name: "Dupont SARL", Email: " Achats@Dupont.test ", City: "Paris"})
	require.NoError(t, err)
	assert.Equal(t, "achats@dupont.test", cust.Email)

	_, err = svc.Create(ctx, Input{Name: "Dupont bis", Email: "achats@dupont.test"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.Create(ctx, Input{Name: "No Mail", Email: "not-an-email"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestListFilter(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)

	page, err := svc.List(ctx, PageSpec.Resolve(0, 0, "", ""), "")
	require.NoError(t, err)
	assert.Empty(t, page.Content)
	assert.Equal(t, int64(0), page.TotalElements)

	testutil.Customer(t, db, "martin")
	testutil.Customer(t, db, "bernard")
	testutil.Customer(t, db, "martinez")

	page, err = svc.List(ctx, PageSpec.Resolve(0, 0, "", ""), "MARTIN")
	require.NoError(t, err)
	require.Len(t, page.Content, 2)
	assert.Equal(t, "martin", page.Content[0].Name)

	// email matches too
	page, err = svc.List(ctx, PageSpec.Resolve(0, 0, "", ""), "bernard@")
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
}

func TestUpdateCustomer(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)
	a := testutil.Customer(t, db, "alice")
	b := testutil.Customer(t, db, "bob")

	city := "Nantes"
	before, after, err := svc.Update(ctx, a.ID, Patch{City: &city})
	require.NoError(t, err)
	assert.Equal(t, "Lyon", before.City)
	assert.Equal(t, "Nantes", after.City)

	taken := b.Email
	_, _, err = svc.Update(ctx, a.ID, Patch{Email: &taken})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestDeleteCustomer(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)
	withOrder := testutil.Customer(t, db, "busy")
	idle := testutil.Customer(t, db, "idle")

	require.NoError(t, db.Create(&models.Order{
		CustomerID:  withOrder.ID,
		OrderDate:   time.Now(),
		Status:      models.OrderPreparing,
		TotalAmount: decimal.Zero,
	}).Error)

	_, err := svc.Delete(ctx, withOrder.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	deleted, err := svc.Delete(ctx, idle.ID)
	require.NoError(t, err)
	assert.Equal(t, "idle", deleted.Name)

	_, err = svc.Delete(ctx, idle.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListFilterMatchesWildcardsLiterally(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db)
	testutil.Customer(t, db, "bob_smith")
	testutil.Customer(t, db, "bobxsmith")

	page, err := svc.List(ctx, PageSpec.Resolve(0, 0, "", ""), "b_s")
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "bob_smith", page.Content[0].Name)

	page, err = svc.List(ctx, PageSpec.Resolve(0, 0, "", ""), "%")
	require.NoError(t, err)
	assert.Empty(t, page.Content)
}
