package shipping

import (
	"context"
	"time"

	"github.com/georgemunganga/wms-backend/internal/modules/outbound"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type dispatch struct {
	OrderID          uuid.UUID
	Carrier          string
	TrackingNumber   string
	ShippingAddress  string
	ShippingFee      decimal.Decimal
	RecipientName    string
	RecipientPhone   string
	ShippedAt        time.Time
	ExpectedDelivery time.Time
	Actor            string
}

// Repository defines shipment storage. Mutations own their transaction.
type Repository interface {
	Ship(ctx context.Context, d dispatch) (*outbound.Order, int64, error)
	Deliver(ctx context.Context, orderID uuid.UUID, actor string, at time.Time) (*outbound.Order, error)
	List(ctx context.Context, f ListFilter) ([]*Shipment, int, error)
	Track(ctx context.Context, trackingNumber string) (*Shipment, error)
}
