package warehouse

import (
	"context"

	"github.com/google/uuid"
)

// Repository reads warehouses with their zones, locations and stock rows.
type Repository interface {
	// List returns one page of warehouses, newest first, fully loaded.
	List(ctx context.Context, page, limit int) ([]*Warehouse, int, error)

	// Get returns one warehouse, or sql.ErrNoRows. zoneID restricts the zones loaded.
	Get(ctx context.Context, id uuid.UUID, zoneID *uuid.UUID) (*Warehouse, error)
}
