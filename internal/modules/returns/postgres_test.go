package returns

import (
	"context"
	"testing"
	"time"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/database/dbtest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertTransitionRejected(t *testing.T, err error) {
	t.Helper()
	ae, ok := apperr.As(err)
	require.True(t, ok, "%v", err)
	assert.Equal(t, apperr.KindConflict, ae.Kind)
	assert.Equal(t, apperr.CodeInvalidTransition, ae.Code)
}

func TestRepository_PipelineOrder(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	wh, p := dbtest.Warehouse(t, db), dbtest.Product(t, db)
	dbtest.Stock(t, db, wh, p, 10)
	repo := NewPostgresRepository(db)

	now := time.Now().UTC()
	rr, err := repo.Create(ctx, newReturn{
		Number: "RET-" + uuid.NewString(), OrderID: dbtest.Order(t, db, "delivered", 4),
		Reason: "불량", RequestedBy: "customer", ExpectedProcessDate: now.AddDate(0, 0, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, rr.ReturnQuantity)
	ref := rr.ReturnNumber

	_, err = repo.Refund(ctx, refund{
		Ref: ref, Number: "RFD-" + uuid.NewString(), Amount: decimal.NewFromInt(15000),
		Method: "original", ExpectedDate: now, Actor: "cs",
	})
	assertTransitionRejected(t, err)

	restock := processing{
		Ref: ref, WarehouseID: &wh, Actor: "worker001",
		Items: []processItem{{ProductID: p, Quantity: 4, Disposition: "restock"}},
	}
	_, _, err = repo.Process(ctx, restock)
	assertTransitionRejected(t, err)
	assert.Equal(t, 10, dbtest.Quantity(t, db, wh, p))

	_, from, err := repo.UpdateStatus(ctx, ref, StatusReceived, "worker001", "")
	require.NoError(t, err)
	assert.Equal(t, StatusRequested, from)
	_, _, err = repo.UpdateStatus(ctx, ref, StatusRefunded, "worker001", "")
	assertTransitionRejected(t, err)

	_, err = repo.Inspect(ctx, ref, &Inspection{InspectionID: "INS-" + uuid.NewString(), InspectedBy: "qa", InspectedAt: now})
	require.NoError(t, err)
	done, items, err := repo.Process(ctx, restock)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, done.Status)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].StockAfter)
	assert.Equal(t, 14, *items[0].StockAfter)

	refunded, err := repo.Refund(ctx, refund{
		Ref: ref, Number: "RFD-" + uuid.NewString(), Amount: decimal.NewFromInt(15000),
		Method: "original", ExpectedDate: now, Actor: "cs",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, refunded.Status)

	_, _, err = repo.Process(ctx, restock)
	assertTransitionRejected(t, err)
	assert.Equal(t, 14, dbtest.Quantity(t, db, wh, p))
}
