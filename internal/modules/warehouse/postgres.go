package warehouse

import (
	"context"
	"fmt"

	"github.com/georgemunganga/wms-backend/internal/modules/stock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const warehouseColumns = `id, name, code, address, is_active, created_at, updated_at`

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) List(ctx context.Context, page, limit int) ([]*Warehouse, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM warehouses`); err != nil {
		return nil, 0, fmt.Errorf("count warehouses: %w", err)
	}
	var out []*Warehouse
	if err := r.db.SelectContext(ctx, &out,
		`SELECT `+warehouseColumns+` FROM warehouses ORDER BY created_at DESC, code LIMIT $1 OFFSET $2`,
		limit, (page-1)*limit); err != nil {
		return nil, 0, fmt.Errorf("list warehouses: %w", err)
	}
	if err := r.load(ctx, out, nil); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *postgresRepo) Get(ctx context.Context, id uuid.UUID, zoneID *uuid.UUID) (*Warehouse, error) {
	w := &Warehouse{}
	if err := r.db.GetContext(ctx, w, `SELECT `+warehouseColumns+` FROM warehouses WHERE id = $1`, id); err != nil {
		return nil, err
	}
	if err := r.load(ctx, []*Warehouse{w}, zoneID); err != nil {
		return nil, err
	}
	return w, nil
}

// load attaches zones, locations and stock rows to ws with one query per table.
func (r *postgresRepo) load(ctx context.Context, ws []*Warehouse, zoneID *uuid.UUID) error {
	if len(ws) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Warehouse, len(ws))
	ids := make([]uuid.UUID, 0, len(ws))
	for _, w := range ws {
		w.Zones, w.Products = []*Zone{}, []*stock.View{}
		byID[w.ID] = w
		ids = append(ids, w.ID)
	}

	query, args, err := sqlx.In(`SELECT id, warehouse_id, code, name, capacity FROM zones WHERE warehouse_id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("build zone query: %w", err)
	}
	if zoneID != nil {
		query += ` AND id = ?`
		args = append(args, *zoneID)
	}
	var zones []*Zone
	if err := r.db.SelectContext(ctx, &zones, r.db.Rebind(query+` ORDER BY code`), args...); err != nil {
		return fmt.Errorf("list zones: %w", err)
	}
	if len(zones) > 0 {
		zoneByID := make(map[uuid.UUID]*Zone, len(zones))
		zoneIDs := make([]uuid.UUID, 0, len(zones))
		for _, z := range zones {
			z.Locations = []*Location{}
			zoneByID[z.ID] = z
			zoneIDs = append(zoneIDs, z.ID)
			byID[z.WarehouseID].Zones = append(byID[z.WarehouseID].Zones, z)
		}
		query, args, err := sqlx.In(`SELECT id, zone_id, code, capacity, occupied FROM locations WHERE zone_id IN (?) ORDER BY code`, zoneIDs)
		if err != nil {
			return fmt.Errorf("build location query: %w", err)
		}
		var locs []*Location
		if err := r.db.SelectContext(ctx, &locs, r.db.Rebind(query), args...); err != nil {
			return fmt.Errorf("list locations: %w", err)
		}
		for _, l := range locs {
			zoneByID[l.ZoneID].Locations = append(zoneByID[l.ZoneID].Locations, l)
		}
	}

	views, err := stock.ViewsByWarehouse(ctx, r.db, ids)
	if err != nil {
		return err
	}
	for _, v := range views {
		byID[v.WarehouseID].Products = append(byID[v.WarehouseID].Products, v)
	}
	return nil
}
