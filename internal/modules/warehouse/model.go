package warehouse

import (
	"time"

	"github.com/georgemunganga/wms-backend/internal/modules/stock"
	"github.com/google/uuid"
)

// MaxCapacity is the unit capacity assumed for every warehouse.
const MaxCapacity = 100000

type Warehouse struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	Name      string        `db:"name" json:"name"`
	Code      string        `db:"code" json:"code"`
	Address   string        `db:"address" json:"address"`
	IsActive  bool          `db:"is_active" json:"isActive"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `db:"updated_at" json:"updatedAt"`
	Zones     []*Zone       `db:"-" json:"zones"`
	Products  []*stock.View `db:"-" json:"products"`
}

type Zone struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	WarehouseID uuid.UUID   `db:"warehouse_id" json:"warehouseId"`
	Code        string      `db:"code" json:"code"`
	Name        string      `db:"name" json:"name"`
	Capacity    int         `db:"capacity" json:"capacity"`
	Locations   []*Location `db:"-" json:"locations"`
}

type Location struct {
	ID       uuid.UUID `db:"id" json:"id"`
	ZoneID   uuid.UUID `db:"zone_id" json:"zoneId"`
	Code     string    `db:"code" json:"code"`
	Capacity int       `db:"capacity" json:"capacity"`
	Occupied int       `db:"occupied" json:"occupied"`
}

// ZoneSummary is a zone's share of the warehouse's location capacity.
type ZoneSummary struct {
	ZoneID        uuid.UUID `json:"zoneId"`
	ZoneName      string    `json:"zoneName"`
	ZoneCode      string    `json:"zoneCode"`
	LocationCount int       `json:"locationCount"`
	Capacity      int       `json:"capacity"`
	Occupied      int       `json:"occupied"`
}

// StockSummary is the per-warehouse stock overview.
type StockSummary struct {
	WarehouseID   uuid.UUID      `json:"warehouseId"`
	WarehouseName string         `json:"warehouseName"`
	WarehouseCode string         `json:"warehouseCode"`
	Zones         []*ZoneSummary `json:"zones"`
	TotalProducts int            `json:"totalProducts"`
	TotalQuantity int            `json:"totalQuantity"`
	MaxCapacity   int            `json:"maxCapacity"`
	OccupancyRate float64        `json:"occupancyRate"`
	LowStockCount int            `json:"lowStockCount"`
	Products      []*stock.View  `json:"products"`
}
