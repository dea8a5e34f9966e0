package warehouse

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/modules/stock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	warehouses map[uuid.UUID]*Warehouse
	lastZone   *uuid.UUID
}

func (m *memRepo) List(_ context.Context, page, limit int) ([]*Warehouse, int, error) {
	var out []*Warehouse
	for _, w := range m.warehouses {
		out = append(out, w)
	}
	return out, len(out), nil
}

func (m *memRepo) Get(_ context.Context, id uuid.UUID, zoneID *uuid.UUID) (*Warehouse, error) {
	m.lastZone = zoneID
	w, ok := m.warehouses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return w, nil
}

func TestOccupancyRate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, occupancyRate(0, MaxCapacity))
	assert.Equal(t, 1.23, occupancyRate(1234, MaxCapacity))
	assert.Equal(t, 100.0, occupancyRate(MaxCapacity, MaxCapacity))
	assert.Equal(t, 0.0, occupancyRate(10, 0))
}

func TestGetStockSummary(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	w := &Warehouse{
		ID: id, Name: "서울 센터", Code: "WH001",
		Zones: []*Zone{{ID: uuid.New(), Code: "A", Name: "Zone A", Capacity: 400,
			Locations: []*Location{{Occupied: 10}, {Occupied: 15}}}},
		Products: []*stock.View{
			{Level: stock.Level{Quantity: 500, SafeStock: 100}},
			{Level: stock.Level{Quantity: 20, SafeStock: 50}},
			{Level: stock.Level{Quantity: 1714, SafeStock: 0}},
		},
	}
	svc := NewService(&memRepo{warehouses: map[uuid.UUID]*Warehouse{id: w}})

	s, err := svc.GetStockSummary(context.Background(), id.String(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalProducts)
	assert.Equal(t, 2234, s.TotalQuantity)
	assert.Equal(t, 1, s.LowStockCount)
	assert.Equal(t, 2.23, s.OccupancyRate)
	assert.Equal(t, MaxCapacity, s.MaxCapacity)
	require.Len(t, s.Zones, 1)
	assert.Equal(t, 2, s.Zones[0].LocationCount)
	assert.Equal(t, 25, s.Zones[0].Occupied)

	_, err = svc.GetStockSummary(context.Background(), uuid.NewString(), "")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = svc.GetStockSummary(context.Background(), id.String(), "zone-a")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
}

func TestHandler_ListPaginates(t *testing.T) {
	t.Parallel()

	repo := &memRepo{warehouses: map[uuid.UUID]*Warehouse{}}
	for range 3 {
		id := uuid.New()
		repo.warehouses[id] = &Warehouse{ID: id}
	}
	r := chi.NewRouter()
	NewHandler(NewService(repo)).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/warehouse?page=1&limit=2", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalPages":2`)
	assert.Contains(t, rec.Body.String(), `"total":3`)
}
