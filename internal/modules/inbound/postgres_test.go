package inbound

import (
	"context"
	"testing"
	"time"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/database/dbtest"
	"github.com/georgemunganga/wms-backend/internal/modules/audit"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receivedRows(t *testing.T, db *sqlx.DB, number string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n,
		`SELECT COUNT(*) FROM audit_logs WHERE action = $1 AND changes->>'inboundId' = $2`,
		audit.ActionInboundReceived, number))
	return n
}

func TestRepository_CompletedRequestBooksOnce(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	wh := dbtest.Warehouse(t, db)
	repo := NewPostgresRepository(db)

	number := "PO-" + uuid.NewString()
	now := time.Now().UTC()
	req, err := repo.CreateRequest(ctx, newRequest{
		Number: number, PONumber: number, SupplierName: "supplier " + number[:11], WarehouseID: &wh,
		Items:       []newItem{{SKU: "S-" + uuid.NewString(), Name: "widget", Quantity: 40, UnitPrice: decimal.NewFromInt(500)}},
		RequestDate: now, ExpectedDate: &now,
	})
	require.NoError(t, err)
	productID := req.Items[0].ProductID

	_, err = repo.UpdateStatus(ctx, statusUpdate{Number: number, Status: StatusCompleted, ApproverName: "manager", Actor: "tester"})
	require.NoError(t, err)
	assert.Equal(t, 40, dbtest.Quantity(t, db, wh, productID))
	assert.Equal(t, 1, receivedRows(t, db, number))

	// leaving completed would let a later completion book the goods again
	_, err = repo.UpdateStatus(ctx, statusUpdate{Number: number, Status: StatusSubmitted, Actor: "tester"})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeInvalidTransition, ae.Code)

	again, err := repo.UpdateStatus(ctx, statusUpdate{Number: number, Status: StatusCompleted, Actor: "tester"})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, again.Status)
	assert.Equal(t, 40, dbtest.Quantity(t, db, wh, productID))
	assert.Equal(t, 1, receivedRows(t, db, number))
}

func TestRepository_ManualReceiptIsFinal(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	wh, p := dbtest.Warehouse(t, db), dbtest.Product(t, db)
	repo := NewPostgresRepository(db)

	number := "IN-" + uuid.NewString()
	res, err := repo.CreateManual(ctx, manualInbound{
		Number: number, ProductID: p, WarehouseID: wh, Quantity: 25,
		UnitPrice: decimal.NewFromInt(1000), HandledBy: "tester",
	})
	require.NoError(t, err)
	assert.Equal(t, 25, res.Movement.After)

	for _, to := range []Status{StatusSubmitted, StatusRejected} {
		_, err = repo.UpdateStatus(ctx, statusUpdate{Number: number, Status: to, Actor: "tester"})
		assert.True(t, apperr.IsKind(err, apperr.KindConflict), string(to))
	}
	_, err = repo.UpdateStatus(ctx, statusUpdate{Number: number, Status: StatusCompleted, Actor: "tester"})
	require.NoError(t, err)
	assert.Equal(t, 25, dbtest.Quantity(t, db, wh, p))
}
