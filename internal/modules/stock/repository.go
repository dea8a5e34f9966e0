package stock

import (
	"context"
	"time"

	"github.com/georgemunganga/wms-backend/internal/modules/product"
	"github.com/google/uuid"
)

// statusChange is a validated bucket move.
type statusChange struct {
	ProductID   uuid.UUID
	WarehouseID *uuid.UUID
	From, To    Bucket
	Quantity    int
	UserID      string
	Reason      string
}

// transfer is a validated warehouse-to-warehouse move.
type transfer struct {
	ProductID       uuid.UUID
	FromWarehouseID uuid.UUID
	ToWarehouseID   uuid.UUID
	Quantity        int
	UserID          string
	Reason          string
}

// countInput is a validated physical count.
type countInput struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Counted     int
	Auditor     string
	Notes       string
}

// Repository owns the stock tables. Every mutating method runs in its own
// transaction and writes its audit row in that transaction.
type Repository interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*product.Product, error)

	// Levels returns the product's rows, optionally restricted to one warehouse.
	Levels(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID) ([]*View, error)
	List(ctx context.Context, f ListFilter) ([]*View, int, error)

	// OpenDemand sums unpicked units of orders still waiting to leave.
	OpenDemand(ctx context.Context, productID uuid.UUID) (int, error)

	ChangeStatus(ctx context.Context, c statusChange) (*StatusChangeResult, error)
	Transfer(ctx context.Context, t transfer) (*TransferResult, error)
	RecordCount(ctx context.Context, c countInput) (*CountResult, error)
	ResolveCount(ctx context.Context, countNumber, approver string, approve bool, reason string) (*CountResult, error)

	Reserve(ctx context.Context, r *Reservation) (*ReserveResult, error)
	Release(ctx context.Context, reservationNumber, userID string) (*Reservation, error)

	// ExpireReservations releases every active reservation whose expiry is not after now.
	ExpireReservations(ctx context.Context, now time.Time) (int, error)
}
