package outbound

import (
	"context"
	"testing"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/database/dbtest"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T, repo Repository, productID uuid.UUID, qty int) *Order {
	t.Helper()
	o, err := repo.Create(context.Background(), newOrder{
		Number: "ORD-" + uuid.NewString(), CustomerName: "customer", CreatedBy: "tester",
		Items: []newItem{{ProductID: productID, Quantity: qty}},
	})
	require.NoError(t, err)
	return o
}

func totalQuantity(t *testing.T, db *sqlx.DB, orderID uuid.UUID) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT total_quantity FROM outbound_orders WHERE id = $1`, orderID))
	return n
}

func TestRepository_UpdateStatusRejectsSkippedSteps(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	repo := NewPostgresRepository(db)
	o := newTestOrder(t, repo, dbtest.Product(t, db), 3)

	_, err := repo.UpdateStatus(ctx, o.ID, StatusShipped, "tester", "")
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindConflict, ae.Kind)
	assert.Equal(t, apperr.CodeInvalidOrderStatus, ae.Code)

	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)

	_, err = repo.UpdateStatus(ctx, o.ID, StatusCancelled, "tester", "customer request")
	require.NoError(t, err)
	_, err = repo.UpdateStatus(ctx, o.ID, StatusPicking, "tester", "")
	ae, ok = apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeOrderCancelled, ae.Code)
}

func TestRepository_ManualIssueAgainstOrder(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	wh, p := dbtest.Warehouse(t, db), dbtest.Product(t, db)
	dbtest.Stock(t, db, wh, p, 50)
	repo := NewPostgresRepository(db)

	live := newTestOrder(t, repo, p, 4)
	res, err := repo.CreateManual(ctx, manualOutbound{
		ProductID: p, WarehouseID: wh, Quantity: 6, HandledBy: "worker001", OrderID: &live.ID, Reason: "추가 출고",
	})
	require.NoError(t, err)
	assert.Equal(t, 44, res.Movement.After)
	assert.Equal(t, 10, totalQuantity(t, db, live.ID))

	closed := newTestOrder(t, repo, p, 2)
	_, err = repo.UpdateStatus(ctx, closed.ID, StatusCancelled, "tester", "")
	require.NoError(t, err)

	_, err = repo.CreateManual(ctx, manualOutbound{
		ProductID: p, WarehouseID: wh, Quantity: 5, HandledBy: "worker001", OrderID: &closed.ID,
	})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeOrderCancelled, ae.Code)
	assert.Equal(t, 44, dbtest.Quantity(t, db, wh, p))
	assert.Equal(t, 2, totalQuantity(t, db, closed.ID))
}
