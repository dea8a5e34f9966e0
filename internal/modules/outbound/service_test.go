package outbound

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRepo struct {
	orders map[uuid.UUID]*Order
	manual []manualOutbound
	err    error
}

func newMemRepo() *memRepo { return &memRepo{orders: map[uuid.UUID]*Order{}} }

func (m *memRepo) CreateManual(_ context.Context, in manualOutbound) (*ManualResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.manual = append(m.manual, in)
	return &ManualResult{
		OutboundID: uuid.New(),
		Status:     "완료",
		OutboundRecord: Record{
			OrderNumber: in.OrderNumber, Quantity: in.Quantity, Reason: in.Reason, HandledBy: in.HandledBy,
		},
	}, nil
}

func (m *memRepo) Create(_ context.Context, in newOrder) (*Order, error) {
	o := &Order{ID: uuid.New(), OrderNumber: in.Number, CustomerName: in.CustomerName, Status: StatusPending}
	for _, it := range in.Items {
		o.TotalQuantity += it.Quantity
		o.Items = append(o.Items, &Item{ID: uuid.New(), OrderID: o.ID, ProductID: it.ProductID, Quantity: it.Quantity})
	}
	m.orders[o.ID] = o
	return o, nil
}

func (m *memRepo) List(_ context.Context, f ListFilter) ([]*Order, int, error) {
	var out []*Order
	for _, o := range m.orders {
		if f.Status == "" || o.Status == f.Status {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) Get(_ context.Context, id uuid.UUID) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return o, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, to Status, _, _ string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound()
	}
	if !CanTransition(o.Status, to) {
		return nil, ErrTransition(o.Status, to)
	}
	o.Status = to
	return o, nil
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusPicking, true},
		{StatusPending, StatusShipped, false},
		{StatusPicking, StatusPending, true},
		{StatusPacking, StatusShipped, true},
		{StatusReadyToShip, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusPicking, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestErrTransition_Codes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, apperr.CodeOrderAlreadyShipped, ErrTransition(StatusShipped, StatusCancelled).Code)
	assert.Equal(t, apperr.CodeOrderCancelled, ErrTransition(StatusCancelled, StatusPicking).Code)
	assert.Equal(t, apperr.CodeInvalidOrderStatus, ErrTransition(StatusPending, StatusDelivered).Code)
	assert.Equal(t, apperr.KindConflict, ErrTransition(StatusPending, StatusDelivered).Kind)
}

func TestStatusClosed(t *testing.T) {
	t.Parallel()

	for _, s := range []Status{StatusPending, StatusPicking, StatusPacking, StatusReadyToShip, StatusShipped} {
		assert.False(t, s.Closed(), string(s))
	}
	assert.True(t, StatusDelivered.Closed())
	assert.True(t, StatusCancelled.Closed())
	assert.False(t, Status("unknown").Closed())

	assert.Equal(t, apperr.CodeOrderCancelled, ErrOrderClosed(StatusCancelled).Code)
	assert.Equal(t, apperr.CodeOrderAlreadyShipped, ErrOrderClosed(StatusDelivered).Code)
	assert.Equal(t, apperr.KindConflict, ErrOrderClosed(StatusDelivered).Kind)
}

func TestIssueManual_Validation(t *testing.T) {
	t.Parallel()

	svc := NewService(newMemRepo(), zap.NewNop())
	_, err := svc.IssueManual(context.Background(), ManualRequest{ProductID: uuid.NewString(), Quantity: 5})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, []string{"warehouseId", "handledBy"}, ae.Data["required"])

	_, err = svc.IssueManual(context.Background(), ManualRequest{
		ProductID: "p", WarehouseID: uuid.NewString(), Quantity: 5, HandledBy: "worker001",
	})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
}

func TestIssueManual_NewOrderNumber(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	svc := NewService(repo, zap.NewNop())
	res, err := svc.IssueManual(context.Background(), ManualRequest{
		ProductID: uuid.NewString(), WarehouseID: uuid.NewString(), Quantity: 5,
		HandledBy: "worker001", Notes: "파손 교체",
	})
	require.NoError(t, err)
	assert.Equal(t, "완료", res.Status)
	require.Len(t, repo.manual, 1)
	assert.Regexp(t, `^MAN-[0-9A-Za-z]{27}$`, repo.manual[0].OrderNumber)
	assert.Nil(t, repo.manual[0].OrderID)
	assert.Equal(t, "파손 교체", repo.manual[0].Reason)
}

func TestOrderLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := NewService(newMemRepo(), zap.NewNop())
	o, err := svc.CreateOrder(ctx, CreateOrderRequest{
		CustomerName: "한빛상사", ShippingAddress: "서울시 중구", ExpectedDelivery: "2024-03-10",
		Items: []CreateItemRequest{{ProductID: uuid.NewString(), Quantity: 2}, {ProductID: uuid.NewString(), Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, 5, o.TotalQuantity)
	assert.True(t, strings.HasPrefix(o.OrderNumber, "ORD-"))

	_, err = svc.UpdateStatus(ctx, o.ID.String(), UpdateStatusRequest{Status: "shipped", UserID: "admin"})
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	got, err := svc.UpdateStatus(ctx, o.ID.String(), UpdateStatusRequest{Status: "cancelled", UserID: "admin"})
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)

	_, err = svc.UpdateStatus(ctx, o.ID.String(), UpdateStatusRequest{Status: "lost", UserID: "admin"})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, ValidStatuses, ae.Data["validValues"])

	_, err = svc.GetOrder(ctx, uuid.NewString())
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCreateOrder_BadInput(t *testing.T) {
	t.Parallel()

	svc := NewService(newMemRepo(), zap.NewNop())
	base := CreateOrderRequest{CustomerName: "c", ShippingAddress: "a"}

	_, err := svc.CreateOrder(context.Background(), base)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, []string{"items"}, ae.Data["required"])

	bad := base
	bad.ExpectedDelivery = "next week"
	bad.Items = []CreateItemRequest{{ProductID: uuid.NewString(), Quantity: 1}}
	_, err = svc.CreateOrder(context.Background(), bad)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))

	bad.ExpectedDelivery = ""
	bad.Items[0].Quantity = 0
	_, err = svc.CreateOrder(context.Background(), bad)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
}

func TestHandler_ManualInsufficient(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	repo.err = apperr.InsufficientStock(4, 9)
	r := chi.NewRouter()
	NewHandler(NewService(repo, zap.NewNop())).RegisterRoutes(r)

	body := `{"productId":"` + uuid.NewString() + `","warehouseId":"` + uuid.NewString() +
		`","quantity":9,"handledBy":"worker001"}`
	req := httptest.NewRequest(http.MethodPost, "/api/outbound/manual", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var env map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.EqualValues(t, 4, env["available"])
	assert.EqualValues(t, 9, env["requested"])
}
