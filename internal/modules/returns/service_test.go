package returns

import (
	"context"
	"testing"
	"time"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

// memRepo keeps returns in memory and enforces the same transitions as postgres.
type memRepo struct {
	orderID uuid.UUID
	returns []*ReturnRequest
	names   map[uuid.UUID]string
	stocked int
}

func newMemRepo() *memRepo {
	return &memRepo{orderID: uuid.New(), names: map[uuid.UUID]string{}}
}

func (m *memRepo) find(ref string) (*ReturnRequest, error) {
	for _, rr := range m.returns {
		if rr.ID.String() == ref || rr.ReturnNumber == ref {
			return rr, nil
		}
	}
	return nil, ErrNotFound()
}

func (m *memRepo) move(ref string, to Status) (*ReturnRequest, error) {
	rr, err := m.find(ref)
	if err != nil {
		return nil, err
	}
	if !CanTransition(rr.Status, to) {
		return nil, ErrTransition(rr.Status, to)
	}
	rr.Status = to
	rr.UpdatedAt = fixedNow
	return rr, nil
}

func (m *memRepo) Create(_ context.Context, in newReturn) (*ReturnRequest, error) {
	if in.OrderID != m.orderID {
		return nil, apperr.NotFound("OrderNotFound", "order not found")
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 4
	}
	rr := &ReturnRequest{
		ID: uuid.New(), ReturnNumber: in.Number, OrderID: in.OrderID, OrderNumber: "ORD-1",
		Reason: in.Reason, ReturnQuantity: qty, Status: StatusRequested, RequestedBy: in.RequestedBy,
		ExpectedProcessDate: in.ExpectedProcessDate, CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}
	m.returns = append(m.returns, rr)
	return rr, nil
}

func (m *memRepo) List(_ context.Context, f listFilter) ([]*ReturnRequest, error) {
	var out []*ReturnRequest
	for _, rr := range m.returns {
		if rr.CreatedAt.Before(f.Since) {
			continue
		}
		out = append(out, rr)
	}
	return out, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, ref string, to Status, _, notes string) (*ReturnRequest, Status, error) {
	rr, err := m.find(ref)
	if err != nil {
		return nil, "", err
	}
	from := rr.Status
	if _, err := m.move(ref, to); err != nil {
		return nil, "", err
	}
	rr.Notes = notes
	return rr, from, nil
}

func (m *memRepo) ProductNames(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]string, error) {
	return m.names, nil
}

func (m *memRepo) Inspect(_ context.Context, ref string, in *Inspection) (*ReturnRequest, error) {
	rr, err := m.move(ref, StatusInspected)
	if err != nil {
		return nil, err
	}
	rr.InspectedAt = &in.InspectedAt
	return rr, nil
}

func (m *memRepo) Classify(_ context.Context, c classification) (*Classification, error) {
	rr, err := m.find(c.Ref)
	if err != nil {
		return nil, err
	}
	if rr.Status != StatusClassified {
		if _, err := m.move(c.Ref, StatusClassified); err != nil {
			return nil, err
		}
	}
	return &Classification{
		ID: uuid.New(), ClassificationNumber: c.Number, ReturnID: rr.ID, ProductID: c.ProductID,
		DefectType: c.DefectType, Disposition: c.Disposition, Severity: c.Severity,
		ActionRequired: c.Action, ClassifiedBy: c.Actor, CreatedAt: fixedNow,
	}, nil
}

func (m *memRepo) Process(_ context.Context, p processing) (*ReturnRequest, []ProcessedItem, error) {
	rr, err := m.move(p.Ref, StatusProcessed)
	if err != nil {
		return nil, nil, err
	}
	at := fixedNow
	rr.ProcessedAt = &at
	var items []ProcessedItem
	for _, it := range p.Items {
		done := ProcessedItem{ProductID: it.ProductID, Quantity: it.Quantity, Disposition: it.Disposition}
		if it.Disposition == "restock" {
			m.stocked += it.Quantity
			after := m.stocked
			done.StockAfter = &after
		}
		items = append(items, done)
	}
	return rr, items, nil
}

func (m *memRepo) Refund(_ context.Context, rf refund) (*ReturnRequest, error) {
	rr, err := m.move(rf.Ref, StatusRefunded)
	if err != nil {
		return nil, err
	}
	at := fixedNow
	rr.RefundedAt = &at
	rr.RefundNumber = &rf.Number
	return rr, nil
}

func newTestService(repo *memRepo) *service {
	return &service{repo: repo, now: func() time.Time { return fixedNow }, log: zap.NewNop()}
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusRequested, StatusReceived, true},
		{StatusRequested, StatusInspected, true},
		{StatusRequested, StatusProcessed, false},
		{StatusReceived, StatusInspecting, true},
		{StatusInspected, StatusProcessed, true},
		{StatusClassified, StatusProcessed, true},
		{StatusProcessed, StatusRefunded, true},
		{StatusProcessed, StatusRejected, false},
		{StatusRefunded, StatusRequested, false},
		{StatusRejected, StatusReceived, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestInspect_Summary(t *testing.T) {
	t.Parallel()

	a, b := uuid.New(), uuid.New()
	items := []InspectItemRequest{
		{ExpectedQty: 5, ReceivedQty: 4, Condition: "normal"},
		{ExpectedQty: 3, ReceivedQty: 3, Condition: "damaged", DamageType: "파손"},
	}
	in := inspect(items, []uuid.UUID{a, b}, map[uuid.UUID]string{a: "그린티"})

	assert.Equal(t, InspectionSummary{
		TotalExpected: 8, TotalReceived: 7, TotalNormal: 4, TotalDamaged: 3, TotalMissing: 1,
		InspectionRate: "88%",
	}, in.Summary)
	require.Len(t, in.Items, 2)
	assert.Equal(t, "mismatch", in.Items[0].Status)
	assert.Equal(t, "그린티", in.Items[0].ProductName)
	assert.Equal(t, "match", in.Items[1].Status)
	assert.Equal(t, "Unknown", in.Items[1].ProductName)

	empty := inspect([]InspectItemRequest{{Condition: ""}}, []uuid.UUID{a}, nil)
	assert.Equal(t, "0%", empty.Summary.InspectionRate)
	assert.Equal(t, "unknown", empty.Items[0].Condition)
}

func TestStats(t *testing.T) {
	t.Parallel()

	all := []*ReturnRequest{
		{Status: StatusRequested}, {Status: StatusReceived}, {Status: StatusInspected},
		{Status: StatusRefunded}, {Status: StatusRejected},
	}
	assert.Equal(t, Stats{Total: 5, Pending: 2, Completed: 1, Rejected: 1}, stats(all))
	assert.Equal(t, "검수완료", StatusInspected.Label())
}

func TestRequest_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemRepo())

	_, err := svc.Request(context.Background(), CreateRequest{Reason: "불량"})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, []string{"orderId", "userId"}, ae.Data["required"])

	_, err = svc.Request(context.Background(), CreateRequest{OrderID: uuid.NewString(), Reason: "그냥", UserID: "u1"})
	ae, ok = apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, ValidReasons, ae.Data["validValues"])

	_, err = svc.Request(context.Background(), CreateRequest{OrderID: uuid.NewString(), Reason: "불량", UserID: "u1"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestPipeline(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	pid := uuid.New()

	v, err := svc.Request(ctx, CreateRequest{OrderID: repo.orderID.String(), Reason: "불량", UserID: "cs01"})
	require.NoError(t, err)
	assert.Regexp(t, `^RET-[0-9A-Za-z]{27}$`, v.ReturnNumber)
	assert.Equal(t, 4, v.ReturnQuantity)
	assert.Equal(t, fixedNow.AddDate(0, 0, 3), v.ExpectedProcessDate)
	assert.Equal(t, "요청", v.StatusLabel)

	_, err = svc.Refund(ctx, RefundRequest{ReturnRequestID: v.ReturnNumber, RefundAmount: decimal.NewFromInt(100), RefundMethod: "card"})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict), "refund before processing")

	in, err := svc.Inspect(ctx, InspectRequest{
		ReturnRequestID: v.ID.String(),
		Inspector:       "qa01",
		Items:           []InspectItemRequest{{ProductID: pid.String(), ExpectedQty: 4, ReceivedQty: 4, Condition: "normal"}},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^INS-`, in.InspectionID)
	assert.Equal(t, "100%", in.Summary.InspectionRate)

	cl, err := svc.Classify(ctx, ClassifyRequest{
		ReturnRequestID: v.ReturnNumber, ProductID: pid.String(), DefectType: "불량", Disposition: "resale", UserID: "qa01",
	})
	require.NoError(t, err)
	assert.Equal(t, "minor", cl.Severity)
	assert.Equal(t, "재판매 가능 - 정상 재고로 입고", cl.ActionRequired)
	assert.Regexp(t, `^CLS-`, cl.ClassificationNumber)

	_, err = svc.Process(ctx, ProcessRequest{
		ReturnRequestID: v.ReturnNumber, UserID: "wh01",
		Items: []ProcessItemRequest{{ProductID: pid.String(), Quantity: 3, Disposition: "restock"}},
	})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, []string{"warehouseId"}, ae.Data["required"])

	res, err := svc.Process(ctx, ProcessRequest{
		ReturnRequestID: v.ReturnNumber, WarehouseID: uuid.NewString(), UserID: "wh01",
		Items: []ProcessItemRequest{
			{ProductID: pid.String(), Quantity: 3, Disposition: "restock"},
			{ProductID: pid.String(), Quantity: 1, Disposition: "discard"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Restocked)
	assert.Equal(t, 3, repo.stocked)

	rf, err := svc.Refund(ctx, RefundRequest{
		ReturnRequestID: v.ReturnNumber, RefundAmount: decimal.RequireFromString("25000.50"), RefundMethod: "card", UserID: "cs01",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", rf.ExpectedDate)
	assert.Equal(t, StatusRefunded, rf.Status)
	assert.Regexp(t, `^REF-`, rf.RefundID)

	list, err := svc.List(ctx, "", 0, "refunded")
	require.NoError(t, err)
	assert.Equal(t, 1, list.Stats.Completed)
	assert.Len(t, list.Returns, 1)
}

func TestRefund_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemRepo())
	ctx := context.Background()

	_, err := svc.Refund(ctx, RefundRequest{ReturnRequestID: "RET-1", RefundMethod: "card"})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, []string{"refundAmount"}, ae.Data["required"])

	_, err = svc.Refund(ctx, RefundRequest{ReturnRequestID: "RET-1", RefundAmount: decimal.NewFromInt(-1), RefundMethod: "card"})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))

	_, err = svc.Refund(ctx, RefundRequest{ReturnRequestID: "RET-1", RefundAmount: decimal.NewFromInt(10), RefundMethod: "bitcoin"})
	ae, ok = apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, ValidRefundMethods, ae.Data["validValues"])
}

func TestUpdateStatus(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	v, err := svc.Request(ctx, CreateRequest{OrderID: repo.orderID.String(), Reason: "배송오류", UserID: "cs01", ReturnQuantity: 1})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, StatusRequest{ReturnRequestID: v.ReturnNumber, Status: "classified", UserID: "cs01"})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))

	res, err := svc.UpdateStatus(ctx, StatusRequest{ReturnRequestID: v.ReturnNumber, Status: "received", UserID: "cs01", Notes: "택배 도착"})
	require.NoError(t, err)
	assert.Equal(t, StatusRequested, res.PreviousStatus)
	assert.Equal(t, StatusReceived, res.Status)

	_, err = svc.UpdateStatus(ctx, StatusRequest{ReturnRequestID: v.ReturnNumber, Status: "refunded", UserID: "cs01"})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeInvalidTransition, ae.Code)

	_, err = svc.UpdateStatus(ctx, StatusRequest{ReturnRequestID: "RET-missing", Status: "received", UserID: "cs01"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
