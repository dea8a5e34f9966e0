package stock

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/modules/audit"
	"github.com/georgemunganga/wms-backend/internal/modules/product"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	products map[uuid.UUID]*product.Product
	levels   []*View
	demand   int

	lastStatus   statusChange
	lastTransfer transfer
	lastCount    countInput
	lastReserve  *Reservation
	expiredAt    time.Time
	err          error
}

func (f *fakeRepo) GetProduct(_ context.Context, id uuid.UUID) (*product.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakeRepo) Levels(_ context.Context, productID uuid.UUID, warehouseID *uuid.UUID) ([]*View, error) {
	var out []*View
	for _, l := range f.levels {
		if l.ProductID == productID && (warehouseID == nil || l.WarehouseID == *warehouseID) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeRepo) List(context.Context, ListFilter) ([]*View, int, error) {
	return f.levels, len(f.levels), nil
}

func (f *fakeRepo) OpenDemand(context.Context, uuid.UUID) (int, error) { return f.demand, nil }

func (f *fakeRepo) ChangeStatus(_ context.Context, c statusChange) (*StatusChangeResult, error) {
	f.lastStatus = c
	return &StatusChangeResult{From: c.From, To: c.To, Moved: c.Quantity}, f.err
}

func (f *fakeRepo) Transfer(_ context.Context, t transfer) (*TransferResult, error) {
	f.lastTransfer = t
	if f.err != nil {
		return nil, f.err
	}
	return &TransferResult{TransferID: "TRF-test"}, nil
}

func (f *fakeRepo) RecordCount(_ context.Context, c countInput) (*CountResult, error) {
	f.lastCount = c
	return &CountResult{Count: &Count{CountNumber: "CNT-test"}}, f.err
}

func (f *fakeRepo) ResolveCount(context.Context, string, string, bool, string) (*CountResult, error) {
	return &CountResult{}, f.err
}

func (f *fakeRepo) Reserve(_ context.Context, r *Reservation) (*ReserveResult, error) {
	f.lastReserve = r
	if f.err != nil {
		return nil, f.err
	}
	return &ReserveResult{ReservationID: r.ReservationNumber, Reservation: r}, nil
}

func (f *fakeRepo) Release(context.Context, string, string) (*Reservation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &Reservation{Status: ReservationReleased}, nil
}

func (f *fakeRepo) ExpireReservations(_ context.Context, now time.Time) (int, error) {
	f.expiredAt = now
	return 2, f.err
}

type fakeAudit struct {
	entries []*audit.Entry
	last    audit.Filter
}

func (f *fakeAudit) Insert(_ context.Context, e *audit.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeAudit) List(_ context.Context, flt audit.Filter) ([]*audit.Entry, error) {
	f.last = flt
	return f.entries, nil
}

func (f *fakeAudit) Latest(context.Context, string, string) (*audit.Entry, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeAudit) GroupByUser(context.Context) ([]*audit.UserSummary, error) { return nil, nil }

func (f *fakeAudit) CountBy(context.Context, string, audit.Filter) ([]*audit.Count, error) {
	return nil, nil
}

var fixedNow = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func newTestService(repo *fakeRepo, aud *fakeAudit) *service {
	svc := NewService(repo, aud, 24*time.Hour, zap.NewNop()).(*service)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestGetProductStock_SumsBuckets(t *testing.T) {
	t.Parallel()

	pid := uuid.New()
	wh1, wh2 := uuid.New(), uuid.New()
	repo := &fakeRepo{
		products: map[uuid.UUID]*product.Product{pid: {ID: pid, Code: "PROD001", Name: "Product A", SKU: "SKU001"}},
		levels: []*View{
			{Level: Level{WarehouseID: wh1, ProductID: pid, Quantity: 100, ReservedQuantity: 10, DefectiveQuantity: 5}},
			{Level: Level{WarehouseID: wh2, ProductID: pid, Quantity: 40}},
		},
	}
	svc := newTestService(repo, &fakeAudit{})

	ps, err := svc.GetProductStock(context.Background(), pid.String(), "")
	require.NoError(t, err)
	assert.Equal(t, 125, ps.NormalStock)
	assert.Equal(t, 10, ps.ReservedStock)
	assert.Equal(t, 5, ps.DefectiveStock)
	assert.Equal(t, 140, ps.TotalStock)
	assert.Len(t, ps.WarehouseDetails, 2)

	ps, err = svc.GetProductStock(context.Background(), pid.String(), wh2.String())
	require.NoError(t, err)
	assert.Equal(t, 40, ps.TotalStock)

	_, err = svc.GetProductStock(context.Background(), uuid.NewString(), "")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = svc.GetProductStock(context.Background(), "not-a-uuid", "")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
}

func TestGetAvailability_NetsOpenDemand(t *testing.T) {
	t.Parallel()

	pid := uuid.New()
	repo := &fakeRepo{
		products: map[uuid.UUID]*product.Product{pid: {ID: pid}},
		levels:   []*View{{Level: Level{ProductID: pid, Quantity: 50, ReservedQuantity: 10}}},
		demand:   15,
	}
	svc := newTestService(repo, &fakeAudit{})

	a, err := svc.GetAvailability(context.Background(), pid.String())
	require.NoError(t, err)
	assert.Equal(t, 40, a.NormalStock)
	assert.Equal(t, 25, a.Available)

	repo.demand = 90
	a, err = svc.GetAvailability(context.Background(), pid.String())
	require.NoError(t, err)
	assert.Equal(t, 0, a.Available)
}

func TestChangeStatus_Validation(t *testing.T) {
	t.Parallel()

	pid := uuid.NewString()
	tests := []struct {
		name     string
		req      ChangeStatusRequest
		required []string
		field    string
		msgID    string
	}{
		{name: "missing fields", req: ChangeStatusRequest{ProductID: pid},
			required: []string{"changeQuantity", "fromStatus", "toStatus", "userId"}},
		{name: "unknown from status", req: ChangeStatusRequest{ProductID: pid, ChangeQuantity: 1, FromStatus: "ok", ToStatus: "불량", UserID: "u"},
			field: "fromStatus"},
		{name: "same status", req: ChangeStatusRequest{ProductID: pid, ChangeQuantity: 1, FromStatus: "정상", ToStatus: "정상", UserID: "u"},
			msgID: "SameStatus"},
		{name: "negative quantity", req: ChangeStatusRequest{ProductID: pid, ChangeQuantity: -3, FromStatus: "정상", ToStatus: "불량", UserID: "u"},
			msgID: "PositiveQuantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newTestService(&fakeRepo{}, &fakeAudit{})
			_, err := svc.ChangeStatus(context.Background(), tt.req)
			ae, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindInvalid, ae.Kind)
			if tt.required != nil {
				assert.Equal(t, tt.required, ae.Data["required"])
			}
			if tt.field != "" {
				assert.Equal(t, tt.field, ae.Data["field"])
				assert.Equal(t, ValidBuckets, ae.Data["validValues"])
			}
			if tt.msgID != "" {
				assert.Equal(t, tt.msgID, ae.MessageID)
			}
		})
	}
}

func TestChangeStatus_PassesParsedMove(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeAudit{})
	pid, wid := uuid.New(), uuid.New()

	_, err := svc.ChangeStatus(context.Background(), ChangeStatusRequest{
		ProductID: pid.String(), WarehouseID: wid.String(), ChangeQuantity: 7,
		FromStatus: "정상", ToStatus: "불량", UserID: "worker001", Reason: "damaged",
	})
	require.NoError(t, err)
	assert.Equal(t, pid, repo.lastStatus.ProductID)
	require.NotNil(t, repo.lastStatus.WarehouseID)
	assert.Equal(t, wid, *repo.lastStatus.WarehouseID)
	assert.Equal(t, BucketNormal, repo.lastStatus.From)
	assert.Equal(t, BucketDefective, repo.lastStatus.To)
}

func TestTransfer_Validation(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeAudit{})
	wh := uuid.NewString()

	_, err := svc.Transfer(context.Background(), TransferRequest{
		ProductID: uuid.NewString(), FromWarehouseID: wh, ToWarehouseID: wh, Quantity: 5, UserID: "u",
	})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "SameWarehouse", ae.MessageID)

	repo.err = apperr.InsufficientStock(3, 5)
	_, err = svc.Transfer(context.Background(), TransferRequest{
		ProductID: uuid.NewString(), FromWarehouseID: wh, ToWarehouseID: uuid.NewString(), Quantity: 5, UserID: "u",
	})
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))
	assert.Equal(t, 5, repo.lastTransfer.Quantity)
}

func TestRecordCount_RequiresQuantity(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeAudit{})

	_, err := svc.RecordCount(context.Background(), CountRequest{
		ProductID: uuid.NewString(), WarehouseID: uuid.NewString(), Auditor: "kim",
	})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, []string{"auditQuantity"}, ae.Data["required"])

	// zero is a legitimate count
	_, err = svc.RecordCount(context.Background(), CountRequest{
		ProductID: uuid.NewString(), WarehouseID: uuid.NewString(), Auditor: "kim", AuditQuantity: ptr(0),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, repo.lastCount.Counted)
}

func TestReserve_DefaultsExpiry(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeAudit{})

	res, err := svc.Reserve(context.Background(), ReserveRequest{ProductID: uuid.NewString(), Quantity: 4, UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(24*time.Hour), repo.lastReserve.ExpiresAt)
	assert.Equal(t, uuid.Nil, repo.lastReserve.WarehouseID)
	assert.Equal(t, ReservationActive, repo.lastReserve.Status)
	assert.Regexp(t, `^RSV-[0-9A-Za-z]{27}$`, res.ReservationID)

	past := fixedNow.Add(-time.Minute)
	_, err = svc.Reserve(context.Background(), ReserveRequest{ProductID: uuid.NewString(), Quantity: 4, UserID: "u1", ExpiresAt: &past})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
}

func TestRelease_PropagatesConflict(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{err: apperr.Conflict("AlreadyResolved", "reservation is no longer active")}
	svc := newTestService(repo, &fakeAudit{})

	_, err := svc.Release(context.Background(), "RSV-x", "u1")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	_, err = svc.Release(context.Background(), "", "u1")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
}

func TestExpireReservations_UsesClock(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeAudit{})

	n, err := svc.ExpireReservations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, fixedNow, repo.expiredAt)
}

func TestMovements(t *testing.T) {
	t.Parallel()

	aud := &fakeAudit{entries: []*audit.Entry{
		{Action: audit.ActionStockLocationChange},
		{Action: audit.ActionInboundManual},
		{Action: audit.ActionStockReserve},
	}}
	svc := newTestService(&fakeRepo{}, aud)

	out, err := svc.Movements(context.Background(), "", "", 0)
	require.NoError(t, err)
	assert.Equal(t, audit.StockActions, aud.last.Actions)
	assert.Equal(t, defaultMovementLimit, aud.last.Limit)
	require.Len(t, out, 3)
	assert.Equal(t, "transfer", out[0].Type)
	assert.Equal(t, "inbound", out[1].Type)
	assert.Equal(t, "reservation", out[2].Type)

	_, err = svc.Movements(context.Background(), "cycle-count", "PROD001", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{audit.ActionStockAudit}, aud.last.Actions)
	assert.Equal(t, "PROD001", aud.last.Search)

	_, err = svc.Movements(context.Background(), "teleport", "", 0)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Contains(t, ae.Data["validValues"], "all")
}
