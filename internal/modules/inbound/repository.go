package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type manualInbound struct {
	Number      string
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	SupplierID  *uuid.UUID
	Quantity    int
	UnitPrice   decimal.Decimal
	HandledBy   string
	Notes       string
}

type newItem struct {
	SKU       string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

type newRequest struct {
	Number       string
	PONumber     string
	SupplierName string
	WarehouseID  *uuid.UUID
	Items        []newItem
	RequestDate  time.Time
	ExpectedDate *time.Time
	Memo         string
	CreatedBy    string
}

type statusUpdate struct {
	Number       string
	Status       Status
	ApproverName string
	Reason       string
	Actor        string
}

// Repository owns the inbound tables. Writes run in one transaction each.
type Repository interface {
	// CreateManual records a completed receipt and adds the stock.
	CreateManual(ctx context.Context, m manualInbound) (*ManualResult, error)

	// CreateRequest stores a submitted request, creating unknown suppliers and products.
	CreateRequest(ctx context.Context, in newRequest) (*Request, error)
	ListRequests(ctx context.Context, status Status) ([]*Request, error)

	// GetRequest loads a request by number with items and approval, or sql.ErrNoRows.
	GetRequest(ctx context.Context, number string) (*Request, error)
	UpdateStatus(ctx context.Context, u statusUpdate) (*Request, error)
	DeleteRequest(ctx context.Context, number, actor string) error

	ListSchedules(ctx context.Context, status string) ([]*Schedule, error)
}
