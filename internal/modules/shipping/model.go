package shipping

import (
	"time"

	"github.com/georgemunganga/wms-backend/internal/modules/outbound"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shipment is the carrier view of a shipped order.
type Shipment struct {
	OrderID          uuid.UUID       `db:"id" json:"orderId"`
	OrderNumber      string          `db:"order_number" json:"orderNumber"`
	CustomerName     string          `db:"customer_name" json:"customerName"`
	ShippingAddress  string          `db:"shipping_address" json:"shippingAddress"`
	Carrier          string          `db:"carrier" json:"carrier"`
	TrackingNumber   string          `db:"tracking_number" json:"trackingNumber"`
	Status           outbound.Status `db:"status" json:"status"`
	ShippedAt        *time.Time      `db:"shipping_date" json:"shippedAt"`
	ExpectedDelivery *time.Time      `db:"expected_delivery" json:"estimatedDelivery"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updatedAt"`
}

type ListFilter struct {
	Status  outbound.Status
	Carrier string
	Page    int
	Limit   int
}

type ProcessRequest struct {
	OrderID         string           `json:"orderId"`
	Carrier         string           `json:"carrier"`
	ShippingAddress string           `json:"shippingAddress,omitempty"`
	ShippingFee     *decimal.Decimal `json:"shippingFee,omitempty"`
	RecipientName   string           `json:"recipientName,omitempty"`
	RecipientPhone  string           `json:"recipientPhone,omitempty"`
	UserID          string           `json:"userId"`
}

type DeliverRequest struct {
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
}

type OrderSummary struct {
	ID            uuid.UUID `json:"id"`
	OrderNumber   string    `json:"orderNumber"`
	ItemCount     int       `json:"itemCount"`
	TotalQuantity int       `json:"totalQuantity"`
}

type Details struct {
	Carrier          string          `json:"carrier"`
	ShippingFee      decimal.Decimal `json:"shippingFee"`
	StartTime        time.Time       `json:"startTime"`
	ExpectedDelivery time.Time       `json:"expectedDelivery"`
}

type Recipient struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ProcessResult reports an order handed to its carrier.
type ProcessResult struct {
	ShippingID     uuid.UUID    `json:"shippingId"`
	TrackingNumber string       `json:"trackingNumber"`
	Status         string       `json:"status"`
	Order          OrderSummary `json:"order"`
	Shipping       Details      `json:"shipping"`
	Recipient      Recipient    `json:"recipient"`
	PackingClosed  int64        `json:"packingTasksCompleted"`
}

type DeliverResult struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	Status      string    `json:"status"`
	DeliveredAt time.Time `json:"deliveredAt"`
}
