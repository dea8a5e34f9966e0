package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// Action names recorded in the audit trail.
const (
	ActionInboundManual       = "INBOUND_MANUAL"
	ActionInboundReceived     = "INBOUND_RECEIVED"
	ActionInboundRequest      = "INBOUND_REQUEST"
	ActionInboundStatus       = "INBOUND_STATUS_CHANGE"
	ActionInboundDelete       = "INBOUND_DELETE"
	ActionOutboundManual      = "OUTBOUND_MANUAL"
	ActionOrderCreate         = "ORDER_CREATE"
	ActionOrderStatus         = "ORDER_STATUS_CHANGE"
	ActionStockReserve        = "STOCK_RESERVE"
	ActionStockUnreserve      = "STOCK_UNRESERVE"
	ActionStockAudit          = "STOCK_AUDIT"
	ActionStockAdjusted       = "STOCK_ADJUSTED"
	ActionStockStatusChange   = "STOCK_STATUS_CHANGE"
	ActionStockLocationChange = "STOCK_LOCATION_CHANGE"
	ActionPickingAssigned     = "PICKING_ASSIGNED"
	ActionBatchPicking        = "BATCH_PICKING"
	ActionReassign            = "REASSIGN"
	ActionCancel              = "CANCEL"
	ActionProductPicked       = "PRODUCT_PICKED"
	ActionShippingStart       = "SHIPPING_START"
	ActionShippingDelivered   = "SHIPPING_DELIVERED"
	ActionReturnRequest       = "RETURN_REQUEST"
	ActionReturnStatus        = "RETURN_STATUS_CHANGE"
	ActionReturnInspect       = "RETURN_INSPECT"
	ActionReturnClassify      = "RETURN_CLASSIFY"
	ActionReturnProcess       = "RETURN_PROCESS"
	ActionReturnRefund        = "RETURN_REFUND"
	ActionUserLogin           = "USER_LOGIN"
	ActionUserCreate          = "USER_CREATE"
	ActionUserUpdate          = "USER_UPDATE"
	ActionUserDelete          = "USER_DELETE"
	ActionPermissionsUpdate   = "PERMISSIONS_UPDATE"
)

// StockActions are the actions that change stock on hand or its buckets.
var StockActions = []string{
	ActionInboundManual,
	ActionInboundReceived,
	ActionOutboundManual,
	ActionStockReserve,
	ActionStockUnreserve,
	ActionStockAudit,
	ActionStockAdjusted,
	ActionStockStatusChange,
	ActionStockLocationChange,
	ActionReturnProcess,
}

// Entry is one append-only audit row. Changes holds the operation's before/after state.
type Entry struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	Action    string         `db:"action" json:"action"`
	Entity    string         `db:"entity" json:"entity"`
	EntityID  string         `db:"entity_id" json:"entityId"`
	UserID    string         `db:"user_id" json:"userId"`
	Changes   types.JSONText `db:"changes" json:"changes"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

// Filter narrows a List query. Zero fields are ignored.
type Filter struct {
	Actions  []string
	Entity   string
	EntityID string
	UserID   string
	From     *time.Time
	To       *time.Time
	Search   string
	Limit    int
}

// UserSummary aggregates audit rows per actor.
type UserSummary struct {
	UserID        string    `db:"user_id" json:"userId"`
	ActionCount   int       `db:"action_count" json:"actionCount"`
	FirstActivity time.Time `db:"first_activity" json:"firstActivity"`
	LastActivity  time.Time `db:"last_activity" json:"lastActivity"`
}

// Count is a grouped tally.
type Count struct {
	Key   string `db:"key" json:"key"`
	Count int    `db:"count" json:"count"`
}
