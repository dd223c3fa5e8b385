package delivery

import (
	"context"
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

func seedOrder(t *testing.T, db *gorm.DB) *models.Order {
	t.Helper()
	cust := testutil.Customer(t, db, "acme")
	o := &models.Order{
		CustomerID:  cust.ID,
		OrderDate:   time.Now(),
		Status:      models.OrderPreparing,
		TotalAmount: decimal.NewFromInt(100),
	}
	require.NoError(t, db.Create(o).Error)
	return o
}

func TestCreateDelivery(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db, nil, nil)
	o := seedOrder(t, db)

	d, err := svc.Create(ctx, Input{OrderID: o.ID, DeliveryAddress: "12 rue des Lilas", DeliveryCost: decimal.NewFromInt(30)})
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryPlanned, d.Status)

	_, err = svc.Create(ctx, Input{OrderID: o.ID, DeliveryAddress: "elsewhere"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.Create(ctx, Input{OrderID: 999, DeliveryAddress: "nowhere"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Create(ctx, Input{OrderID: o.ID})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateCascadesOrderStatus(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	rec := &testutil.Recorder{}
	svc := NewService(db, rec, nil)
	o := seedOrder(t, db)

	d, err := svc.Create(ctx, Input{OrderID: o.ID, DeliveryAddress: "12 rue des Lilas", DeliveryCost: decimal.NewFromInt(30)})
	require.NoError(t, err)

	cases := []struct {
		delivery models.DeliveryStatus
		order    models.OrderStatus
	}{
		{models.DeliveryInProgress, models.OrderEnRoute},
		{models.DeliveryDelivered, models.OrderDelivered},
		{models.DeliveryPlanned, models.OrderPreparing},
	}
	for _, tc := range cases {
		_, after, err := svc.Update(ctx, d.ID, Input{
			DeliveryAddress: "12 rue des Lilas",
			DeliveryCost:    decimal.NewFromInt(30),
			Driver:          "Marc",
			Status:          tc.delivery,
		})
		require.NoError(t, err)
		assert.Equal(t, tc.delivery, after.Status)
		assert.Equal(t, o.ID, after.OrderID)
		assert.Equal(t, tc.order, testutil.Reload[models.Order](t, db, o.ID).Status)
	}

	evs := rec.Events()
	require.Len(t, evs, 3)
	assert.Equal(t, events.DeliveryStatusChanged, evs[1].Type)
	p := evs[1].Payload.(events.DeliveryPayload)
	assert.Equal(t, "DELIVERED", p.OrderStatus)
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db, nil, nil)
	o := seedOrder(t, db)
	d, err := svc.Create(ctx, Input{OrderID: o.ID, DeliveryAddress: "here"})
	require.NoError(t, err)

	_, _, err = svc.Update(ctx, d.ID, Input{DeliveryAddress: "here", Status: "LOST"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, models.OrderPreparing, testutil.Reload[models.Order](t, db, o.ID).Status)

	_, _, err = svc.Update(ctx, 999, Input{DeliveryAddress: "here"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteDelivery(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewService(db, nil, nil)
	o := seedOrder(t, db)
	d, err := svc.Create(ctx, Input{OrderID: o.ID, DeliveryAddress: "here"})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, d.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, d.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
