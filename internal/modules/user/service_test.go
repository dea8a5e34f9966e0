package user

import (
	"context"
	"database/sql"
	"slices"
	"testing"
	"time"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/modules/audit"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memAudit keeps entries in insertion order and answers newest first.
type memAudit struct {
	entries []*audit.Entry
}

func (m *memAudit) Insert(_ context.Context, e *audit.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memAudit) List(_ context.Context, f audit.Filter) ([]*audit.Entry, error) {
	var out []*audit.Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if len(f.Actions) > 0 && !slices.Contains(f.Actions, e.Action) {
			continue
		}
		if (f.Entity != "" && e.Entity != f.Entity) || (f.UserID != "" && e.UserID != f.UserID) {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (m *memAudit) Latest(ctx context.Context, action, entityID string) (*audit.Entry, error) {
	entries, _ := m.List(ctx, audit.Filter{Actions: []string{action}})
	for _, e := range entries {
		if e.EntityID == entityID {
			return e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memAudit) GroupByUser(context.Context) ([]*audit.UserSummary, error) {
	var out []*audit.UserSummary
	idx := map[string]*audit.UserSummary{}
	for _, e := range m.entries {
		s, ok := idx[e.UserID]
		if !ok {
			s = &audit.UserSummary{UserID: e.UserID, FirstActivity: e.CreatedAt}
			idx[e.UserID] = s
			out = append(out, s)
		}
		s.ActionCount++
		s.LastActivity = e.CreatedAt
	}
	return out, nil
}

func (m *memAudit) CountBy(context.Context, string, audit.Filter) ([]*audit.Count, error) {
	return nil, nil
}

var fixedNow = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func newTestService(aud *memAudit) *service {
	svc := NewService(aud, zap.NewNop()).(*service)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestRoles(t *testing.T) {
	t.Parallel()

	role, ok := Lookup("manager")
	assert.True(t, ok)
	assert.Equal(t, RoleManager, role)
	_, ok = Lookup("intruder")
	assert.False(t, ok)
	assert.Equal(t, RoleWorker, RoleOf("picker42"))
	assert.Equal(t, []string{"admin", "manager", "worker001"}, Accounts())

	perms := Permissions(RoleWorker)
	perms[0] = "changed"
	assert.Equal(t, "stock.read", Permissions(RoleWorker)[0])
}

func TestCreateUser_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestService(&memAudit{})

	_, err := svc.CreateUser(context.Background(), CreateRequest{UserID: "kim", Role: "admin"})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, []string{"username", "email", "createdBy"}, ae.Data["required"])

	_, err = svc.CreateUser(context.Background(), CreateRequest{
		UserID: "kim", Username: "Kim", Email: "kim@example.com", Role: "owner", CreatedBy: "admin",
	})
	ae, ok = apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, ValidRoles, ae.Data["validValues"])
}

func TestDirectory_FromAuditTrail(t *testing.T) {
	t.Parallel()

	aud := &memAudit{}
	svc := newTestService(aud)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateRequest{
		UserID: "lee", Username: "Lee", Email: "lee@example.com", Role: "manager", CreatedBy: "admin",
	})
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, CreateRequest{
		UserID: "park", Username: "Park", Email: "park@example.com", Role: "worker", CreatedBy: "admin",
	})
	require.NoError(t, err)
	_, err = svc.DeleteUser(ctx, "park", "admin")
	require.NoError(t, err)

	res, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)

	byID := map[string]*User{}
	for _, u := range res.Users {
		byID[u.UserID] = u
	}
	assert.Equal(t, 3, byID["admin"].ActivityCount)
	assert.Equal(t, RoleAdmin, byID["admin"].Role)
	assert.True(t, byID["lee"].IsActive)
	assert.Equal(t, RoleManager, byID["lee"].Role)
	assert.Equal(t, "lee@example.com", byID["lee"].Email)
	assert.Zero(t, byID["lee"].ActivityCount)
	assert.False(t, byID["park"].IsActive)
}

func TestPermissions(t *testing.T) {
	t.Parallel()

	aud := &memAudit{}
	svc := newTestService(aud)
	ctx := context.Background()

	set, err := svc.GetPermissions(ctx, "worker001")
	require.NoError(t, err)
	assert.Equal(t, RoleWorker, set.Role)
	assert.Equal(t, Permissions(RoleWorker), set.Permissions)

	_, err = svc.UpdatePermissions(ctx, PermissionsRequest{UserID: "worker001", UpdatedBy: "admin"})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, []string{"role", "permissions"}, ae.Data["required"])

	set, err = svc.UpdatePermissions(ctx, PermissionsRequest{UserID: "worker001", Role: "manager", UpdatedBy: "admin"})
	require.NoError(t, err)
	assert.Equal(t, Permissions(RoleManager), set.Permissions)

	set, err = svc.UpdatePermissions(ctx, PermissionsRequest{
		UserID: "worker001", Permissions: []string{"stock.read"}, UpdatedBy: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, RoleCustom, set.Role)

	set, err = svc.GetPermissions(ctx, "worker001")
	require.NoError(t, err)
	assert.Equal(t, RoleCustom, set.Role)
	assert.Equal(t, []string{"stock.read"}, set.Permissions)
	assert.Equal(t, "admin", set.UpdatedBy)
}

func TestActivity_Stats(t *testing.T) {
	t.Parallel()

	aud := &memAudit{entries: []*audit.Entry{
		{Action: audit.ActionInboundManual, Entity: "Inbound", UserID: "worker001", Changes: types.JSONText(`{}`)},
		{Action: audit.ActionStockReserve, Entity: "StockReservation", UserID: "worker001", Changes: types.JSONText(`{}`)},
		{Action: audit.ActionInboundManual, Entity: "Inbound", UserID: "manager", Changes: types.JSONText(`{}`)},
	}}
	res, err := newTestService(aud).Activity(context.Background(), ActivityFilter{UserID: "worker001"})
	require.NoError(t, err)
	assert.Equal(t, "worker001", res.Filters.UserID)
	assert.Equal(t, "all", res.Filters.Action)
	assert.Equal(t, 2, res.Stats.TotalActivities)
	assert.Equal(t, map[string]int{audit.ActionInboundManual: 1, audit.ActionStockReserve: 1}, res.Stats.ByAction)
	assert.Equal(t, 1, res.Stats.ByEntity["Inbound"])

	empty, err := newTestService(&memAudit{}).Activity(context.Background(), ActivityFilter{Action: "NOPE"})
	require.NoError(t, err)
	assert.NotNil(t, empty.Activities)
}

func TestUpdateUser_RoleChecked(t *testing.T) {
	t.Parallel()

	svc := newTestService(&memAudit{})
	_, err := svc.UpdateUser(context.Background(), UpdateRequest{
		UserID: "lee", Updates: map[string]any{"role": "boss"}, UpdatedBy: "admin",
	})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))

	res, err := svc.UpdateUser(context.Background(), UpdateRequest{
		UserID: "lee", Updates: map[string]any{"email": "lee@corp.example"}, UpdatedBy: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, res.UpdatedAt)
}
