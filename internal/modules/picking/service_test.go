package picking

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/modules/outbound"
	"github.com/georgemunganga/wms-backend/internal/modules/product"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

type fakeRepo struct {
	orders   []*outbound.Order
	products map[uuid.UUID]*product.Product
	outcomes []batchOutcome
	lastPick pick
	picked   *pickOutcome
}

func (f *fakeRepo) PendingOrders(context.Context, bool, *time.Time) ([]*outbound.Order, error) {
	return f.orders, nil
}

func (f *fakeRepo) Assign(_ context.Context, a assignment) (*Task, int, error) {
	o := &outbound.Order{ID: a.OrderID, OrderNumber: "ORD-1", TotalQuantity: 4, Items: []*outbound.Item{{}, {}}}
	return &Task{ID: uuid.New(), TaskNumber: a.Number, WorkerID: a.WorkerID, EstimatedMinutes: 10, Order: o}, 2, nil
}

func (f *fakeRepo) AssignBatch(context.Context, batch) ([]batchOutcome, error) { return f.outcomes, nil }

func (f *fakeRepo) Reassign(context.Context, uuid.UUID, string, string, string) (*Task, string, error) {
	return nil, "", ErrTaskNotFound()
}

func (f *fakeRepo) Cancel(context.Context, uuid.UUID, string, string) (*Task, TaskStatus, error) {
	return nil, "", ErrTaskNotFound()
}

func (f *fakeRepo) Tasks(context.Context, TaskStatus, string) ([]*Task, error) { return nil, nil }

func (f *fakeRepo) Pick(_ context.Context, p pick) (*pickOutcome, error) {
	f.lastPick = p
	return f.picked, nil
}

func (f *fakeRepo) GetProduct(_ context.Context, id uuid.UUID) (*product.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakeRepo) PackingTasks(context.Context, PackingStatus, int, int) ([]*PackingView, int, error) {
	return nil, 0, nil
}

func newTestService(repo *fakeRepo) *service {
	return &service{repo: repo, now: func() time.Time { return fixedNow }, log: zap.NewNop()}
}

func TestVerifyBarcode(t *testing.T) {
	t.Parallel()

	known := uuid.New()
	other := uuid.New()
	repo := &fakeRepo{products: map[uuid.UUID]*product.Product{
		known: {ID: known, Code: "PROD001", Name: "무선 마우스"},
		other: {ID: other, Code: "PROD002", Name: "키보드"},
	}}
	svc := newTestService(repo)
	bad := (Checksum(known.String()) + 1) % 10

	tests := []struct {
		name     string
		barcode  string
		expected uuid.UUID
		result   string
		errType  string
	}{
		{"valid", Barcode(known.String()), known, VerifySuccess, ""},
		{"malformed", "SKU-123", known, VerifyError, ErrInvalidBarcode},
		{"unknown product", Barcode(uuid.NewString()), known, VerifyError, ErrProductNotFound},
		{"not a uuid", "PROD-abc-1", known, VerifyError, ErrProductNotFound},
		{"checksum", "PROD-" + known.String() + "-" + string(rune('0'+bad)), known, VerifyError, ErrInvalidChecksum},
		{"mismatch", Barcode(other.String()), known, VerifyError, ErrProductMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v, err := svc.VerifyBarcode(context.Background(), BarcodeVerifyRequest{
				AssignmentID: "PICK-1", BarcodeData: tt.barcode, ExpectedProductID: tt.expected.String(),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.result, v.VerificationResult)
			assert.Equal(t, tt.errType, v.ErrorType)
			assert.Equal(t, tt.result == VerifySuccess, v.IsMatched)
		})
	}
}

func TestVerifyBarcode_RequiresFields(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeRepo{})
	_, err := svc.VerifyBarcode(context.Background(), BarcodeVerifyRequest{AssignmentID: "PICK-1", BarcodeData: "x"})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, []string{"expectedProductId"}, ae.Data["required"])

	_, err = svc.VerifyBarcode(context.Background(), BarcodeVerifyRequest{BarcodeData: "x", ExpectedProductID: uuid.NewString()})
	ae, ok = apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, []string{"assignmentId"}, ae.Data["required"])
}

func TestQueue_UrgencyAndWaiting(t *testing.T) {
	t.Parallel()

	soon := fixedNow.Add(24 * time.Hour)
	later := fixedNow.Add(5 * 24 * time.Hour)
	repo := &fakeRepo{orders: []*outbound.Order{
		{ID: uuid.New(), OrderNumber: "A", OrderDate: fixedNow.Add(-90 * time.Minute), ExpectedDelivery: &soon,
			Items: []*outbound.Item{{Quantity: 2}}},
		{ID: uuid.New(), OrderNumber: "B", OrderDate: fixedNow.Add(-30 * time.Minute), ExpectedDelivery: &later},
		{ID: uuid.New(), OrderNumber: "C", OrderDate: fixedNow.Add(-60 * time.Minute)},
	}}
	svc := newTestService(repo)

	q, err := svc.Queue(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, q.TotalCount)
	assert.Equal(t, 1, q.UrgentCount)
	assert.Equal(t, 2, q.NormalCount)
	assert.Equal(t, 60, q.AverageWaitingMinutes)
	assert.Equal(t, 90, q.Orders[0].WaitingMinutes)
	assert.True(t, q.Orders[0].IsUrgent)
	assert.Equal(t, 1, q.Orders[0].ItemCount)

	q, err = svc.Queue(context.Background(), "expectedDelivery", "normal")
	require.NoError(t, err)
	assert.Equal(t, 2, q.TotalCount)
	assert.Equal(t, 0, q.UrgentCount)

	_, err = svc.Queue(context.Background(), "priority", "")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
}

func TestAssign_EstimateAndWorkload(t *testing.T) {
	t.Parallel()

	res, err := newTestService(&fakeRepo{}).Assign(context.Background(), AssignRequest{
		OrderID: uuid.NewString(), WorkerID: "worker001",
	})
	require.NoError(t, err)
	assert.Equal(t, "할당완료", res.Status)
	assert.Regexp(t, `^PICK-`, res.PickingNumber)
	assert.Equal(t, 2, res.Worker.CurrentWorkload)
	assert.Equal(t, 2, res.Order.ItemCount)
}

func TestAssignBatch_Summary(t *testing.T) {
	t.Parallel()

	okOrder := &outbound.Order{ID: uuid.New(), OrderNumber: "ORD-OK", Items: []*outbound.Item{{Quantity: 3}, {Quantity: 4}}}
	busy := &outbound.Order{ID: uuid.New(), OrderNumber: "ORD-BUSY", Status: outbound.StatusPicking}
	repo := &fakeRepo{outcomes: []batchOutcome{
		{OrderID: okOrder.ID, Order: okOrder, Task: &Task{ID: uuid.New(), TaskNumber: "PICK-1"}},
		{OrderID: busy.ID, Order: busy, Err: errNotPending(busy)},
	}}

	res, err := newTestService(repo).AssignBatch(context.Background(), BatchRequest{
		OrderIDs: []string{okOrder.ID.String(), busy.ID.String(), "bogus"},
		WorkerID: "worker001",
		UserID:   "manager",
	})
	require.NoError(t, err)
	assert.Equal(t, BatchSummary{Total: 3, Success: 1, Failed: 2, SuccessRate: "33%"}, res.Summary)
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, 7, res.Tasks[0].TotalQuantity)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "bogus", res.Errors[0].OrderID)
	assert.Equal(t, "ORD-BUSY", res.Errors[1].OrderNumber)
	assert.Equal(t, "1개 성공, 2개 실패", res.Message)
}

func TestPick_Progress(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	item := &outbound.Item{ID: uuid.New(), ProductID: productID, ProductCode: "PROD001", Quantity: 5, PickedQty: 3}
	order := &outbound.Order{Items: []*outbound.Item{item, {Quantity: 2, PickedQty: 2}}}
	repo := &fakeRepo{picked: &pickOutcome{Task: &Task{ID: uuid.New(), Order: order}, Item: item}}

	res, err := newTestService(repo).Pick(context.Background(), PickRequest{
		AssignmentID: uuid.NewString(), ProductID: productID.String(), PickedQuantity: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "진행중", res.Status)
	assert.Equal(t, "50.0%", res.CompletionRate)
	assert.Equal(t, 1, res.RemainingItems)
	assert.False(t, res.IsQuantityMatch)
	require.NotNil(t, res.ErrorMessage)
	assert.Equal(t, 3, repo.lastPick.Quantity)
}

func TestCompletionRate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0.0%", completionRate(0, 0))
	assert.Equal(t, "33.3%", completionRate(1, 3))
	assert.Equal(t, "100.0%", completionRate(2, 2))
}

func TestBarcodeFor(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := newTestService(&fakeRepo{products: map[uuid.UUID]*product.Product{id: {ID: id, Code: "PROD001"}}})
	v, err := svc.BarcodeFor(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, Barcode(id.String()), v.Barcode)

	_, err = svc.BarcodeFor(context.Background(), uuid.NewString())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
