package warehouse

import (
	"context"
	"math"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/google/uuid"
)

// Service defines warehouse read operations.
type Service interface {
	ListWarehouses(ctx context.Context, page, limit int) ([]*Warehouse, int, error)
	GetStockSummary(ctx context.Context, id, zoneID string) (*StockSummary, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// ErrNotFound is returned for unknown warehouse ids.
func ErrNotFound() *apperr.Error {
	return apperr.NotFound("WarehouseNotFound", "warehouse not found")
}

func (s *service) ListWarehouses(ctx context.Context, page, limit int) ([]*Warehouse, int, error) {
	ws, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return ws, total, nil
}

func (s *service) GetStockSummary(ctx context.Context, id, zoneID string) (*StockSummary, error) {
	wid, err := httpx.ParseID("id", id)
	if err != nil {
		return nil, err
	}
	var zid *uuid.UUID
	if zoneID != "" {
		z, err := httpx.ParseID("zoneId", zoneID)
		if err != nil {
			return nil, err
		}
		zid = &z
	}
	w, err := s.repo.Get(ctx, wid, zid)
	if err != nil {
		return nil, apperr.FromRepo(err, ErrNotFound())
	}
	return summarize(w), nil
}

func summarize(w *Warehouse) *StockSummary {
	out := &StockSummary{
		WarehouseID:   w.ID,
		WarehouseName: w.Name,
		WarehouseCode: w.Code,
		Zones:         make([]*ZoneSummary, 0, len(w.Zones)),
		TotalProducts: len(w.Products),
		MaxCapacity:   MaxCapacity,
		Products:      w.Products,
	}
	for _, p := range w.Products {
		out.TotalQuantity += p.Quantity
		if p.Quantity < p.SafeStock {
			out.LowStockCount++
		}
	}
	for _, z := range w.Zones {
		zs := &ZoneSummary{ZoneID: z.ID, ZoneName: z.Name, ZoneCode: z.Code, LocationCount: len(z.Locations), Capacity: z.Capacity}
		for _, l := range z.Locations {
			zs.Occupied += l.Occupied
		}
		out.Zones = append(out.Zones, zs)
	}
	out.OccupancyRate = occupancyRate(out.TotalQuantity, MaxCapacity)
	return out
}

// occupancyRate is total/capacity as a percentage rounded to two decimals.
func occupancyRate(total, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	return math.Round(float64(total)/float64(capacity)*10000) / 100
}
