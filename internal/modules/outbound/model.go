package outbound

import (
	"slices"
	"time"

	"github.com/georgemunganga/wms-backend/internal/modules/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an outbound order.
type Status string

const (
	StatusPending     Status = "pending"
	StatusPicking     Status = "picking"
	StatusPacking     Status = "packing"
	StatusReadyToShip Status = "ready_to_ship"
	StatusShipped     Status = "shipped"
	StatusDelivered   Status = "delivered"
	StatusCancelled   Status = "cancelled"
)

// ValidStatuses lists every order status.
var ValidStatuses = []string{
	string(StatusPending), string(StatusPicking), string(StatusPacking), string(StatusReadyToShip),
	string(StatusShipped), string(StatusDelivered), string(StatusCancelled),
}

// validTransitions defines the allowed status state machine. picking may fall
// back to pending when its picking task is cancelled.
var validTransitions = map[Status][]Status{
	StatusPending:     {StatusPicking, StatusCancelled},
	StatusPicking:     {StatusPacking, StatusPending, StatusCancelled},
	StatusPacking:     {StatusReadyToShip, StatusShipped, StatusCancelled},
	StatusReadyToShip: {StatusShipped, StatusCancelled},
	StatusShipped:     {StatusDelivered},
	StatusDelivered:   {},
	StatusCancelled:   {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	return slices.Contains(validTransitions[from], to)
}

// Closed reports whether the order has reached a status with no way out.
func (s Status) Closed() bool {
	next, ok := validTransitions[s]
	return ok && len(next) == 0
}

type Order struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	OrderNumber      string     `db:"order_number" json:"orderNumber"`
	CustomerName     string     `db:"customer_name" json:"customerName"`
	ShippingAddress  string     `db:"shipping_address" json:"shippingAddress"`
	Status           Status     `db:"status" json:"status"`
	TotalQuantity    int        `db:"total_quantity" json:"totalQuantity"`
	OrderDate        time.Time  `db:"order_date" json:"orderDate"`
	ExpectedDelivery *time.Time `db:"expected_delivery" json:"expectedDelivery,omitempty"`
	ShippingDate     *time.Time `db:"shipping_date" json:"shippingDate,omitempty"`
	Carrier          string     `db:"carrier" json:"carrier,omitempty"`
	TrackingNumber   string     `db:"tracking_number" json:"trackingNumber,omitempty"`
	Notes            string     `db:"notes" json:"notes,omitempty"`
	CreatedBy        string     `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updatedAt"`
	Items            []*Item    `db:"-" json:"items"`
}

// Item is one order line joined with its product display fields.
type Item struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	OrderID     uuid.UUID       `db:"order_id" json:"orderId"`
	ProductID   uuid.UUID       `db:"product_id" json:"productId"`
	WarehouseID *uuid.UUID      `db:"warehouse_id" json:"warehouseId,omitempty"`
	Quantity    int             `db:"quantity" json:"quantity"`
	PickedQty   int             `db:"picked_qty" json:"pickedQty"`
	PackedQty   int             `db:"packed_qty" json:"packedQty"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unitPrice"`
	LotNumber   string          `db:"lot_number" json:"lotNumber,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	ProductCode string          `db:"product_code" json:"productCode"`
	ProductName string          `db:"product_name" json:"productName"`
	SKU         string          `db:"sku" json:"sku"`
}

// ListFilter narrows order listings.
type ListFilter struct {
	Status Status
	Search string
	Page   int
	Limit  int
}

// ManualRequest issues stock directly out of a warehouse.
type ManualRequest struct {
	ProductID    string `json:"productId"`
	WarehouseID  string `json:"warehouseId"`
	Quantity     int    `json:"quantity"`
	HandledBy    string `json:"handledBy"`
	OrderID      string `json:"orderId,omitempty"`
	CustomerName string `json:"customerName,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// ManualResult reports a manual issue.
type ManualResult struct {
	OutboundID     uuid.UUID      `json:"outboundId"`
	OutboundDate   time.Time      `json:"outboundDate"`
	Status         string         `json:"status"`
	UpdatedStock   *stock.View    `json:"updatedStock"`
	Movement       stock.Movement `json:"movement"`
	OutboundRecord Record         `json:"outboundRecord"`
}

type Record struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"orderNumber"`
	Quantity    int       `json:"quantity"`
	Reason      string    `json:"reason"`
	HandledBy   string    `json:"handledBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreateItemRequest struct {
	ProductID   string           `json:"productId"`
	WarehouseID string           `json:"warehouseId,omitempty"`
	Quantity    int              `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unitPrice,omitempty"`
}

// CreateOrderRequest registers a customer order for picking.
type CreateOrderRequest struct {
	CustomerName     string              `json:"customerName"`
	ShippingAddress  string              `json:"shippingAddress"`
	ExpectedDelivery string              `json:"expectedDelivery,omitempty"`
	Notes            string              `json:"notes,omitempty"`
	CreatedBy        string              `json:"createdBy,omitempty"`
	Items            []CreateItemRequest `json:"items"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
	UserID string `json:"userId"`
	Reason string `json:"reason,omitempty"`
}
