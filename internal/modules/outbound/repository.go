package outbound

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type manualOutbound struct {
	ProductID    uuid.UUID
	WarehouseID  uuid.UUID
	Quantity     int
	HandledBy    string
	OrderID      *uuid.UUID
	OrderNumber  string
	CustomerName string
	Reason       string
}

type newItem struct {
	ProductID   uuid.UUID
	WarehouseID *uuid.UUID
	Quantity    int
	UnitPrice   *decimal.Decimal
}

type newOrder struct {
	Number           string
	CustomerName     string
	ShippingAddress  string
	ExpectedDelivery *time.Time
	Notes            string
	CreatedBy        string
	Items            []newItem
}

// Repository defines outbound order storage. Mutations own their transaction.
type Repository interface {
	CreateManual(ctx context.Context, m manualOutbound) (*ManualResult, error)
	Create(ctx context.Context, o newOrder) (*Order, error)
	List(ctx context.Context, f ListFilter) ([]*Order, int, error)
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to Status, actor, reason string) (*Order, error)
}
