package stock

import (
	"time"

	"github.com/google/uuid"
)

// Level is one warehouse_products row: stock on hand for a (warehouse, product) pair.
// Reserved and defective units are carved out of Quantity.
type Level struct {
	ID                uuid.UUID `db:"id" json:"id"`
	WarehouseID       uuid.UUID `db:"warehouse_id" json:"warehouseId"`
	ProductID         uuid.UUID `db:"product_id" json:"productId"`
	Quantity          int       `db:"quantity" json:"quantity"`
	ReservedQuantity  int       `db:"reserved_quantity" json:"reservedQuantity"`
	DefectiveQuantity int       `db:"defective_quantity" json:"defectiveQuantity"`
	SafeStock         int       `db:"safe_stock" json:"safeStock"`
	IsActive          bool      `db:"is_active" json:"isActive"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}

// Buckets splits the level into its status buckets.
func (l Level) Buckets() Buckets {
	normal := l.Quantity - l.ReservedQuantity - l.DefectiveQuantity
	if normal < 0 {
		normal = 0
	}
	return Buckets{Normal: normal, Reserved: l.ReservedQuantity, Defective: l.DefectiveQuantity}
}

// View is a Level joined with the product and warehouse display fields.
type View struct {
	Level
	ProductCode   string `db:"product_code" json:"productCode"`
	ProductName   string `db:"product_name" json:"productName"`
	SKU           string `db:"sku" json:"sku"`
	WarehouseCode string `db:"warehouse_code" json:"warehouseCode"`
	WarehouseName string `db:"warehouse_name" json:"warehouseName"`
}

// Movement is the before/after record of one ledger mutation.
type Movement struct {
	WarehouseID uuid.UUID `json:"warehouseId"`
	ProductID   uuid.UUID `json:"productId"`
	Before      int       `json:"before"`
	After       int       `json:"after"`
	Delta       int       `json:"delta"`
	Created     bool      `json:"created,omitempty"`
}

// Bucket is a stock status as named by warehouse staff.
type Bucket string

const (
	BucketNormal    Bucket = "정상"
	BucketReserved  Bucket = "예약"
	BucketDefective Bucket = "불량"
)

// ValidBuckets lists the statuses accepted by the status endpoint.
var ValidBuckets = []string{string(BucketNormal), string(BucketReserved), string(BucketDefective)}

// Buckets is the status distribution of one level.
type Buckets struct {
	Normal    int `json:"normal"`
	Reserved  int `json:"reserved"`
	Defective int `json:"defective"`
}

func (b Buckets) Total() int { return b.Normal + b.Reserved + b.Defective }

// ReservationStatus is the lifecycle of a stock hold.
type ReservationStatus string

const (
	ReservationActive   ReservationStatus = "active"
	ReservationReleased ReservationStatus = "released"
	ReservationExpired  ReservationStatus = "expired"
)

// Reservation holds units of a level for a user or order until it expires.
type Reservation struct {
	ID                uuid.UUID         `db:"id" json:"id"`
	ReservationNumber string            `db:"reservation_number" json:"reservationId"`
	ProductID         uuid.UUID         `db:"product_id" json:"productId"`
	WarehouseID       uuid.UUID         `db:"warehouse_id" json:"warehouseId"`
	OrderID           *uuid.UUID        `db:"order_id" json:"orderId,omitempty"`
	Quantity          int               `db:"quantity" json:"quantity"`
	UserID            string            `db:"user_id" json:"userId"`
	Status            ReservationStatus `db:"status" json:"status"`
	ExpiresAt         time.Time         `db:"expires_at" json:"expiresAt"`
	ReleasedAt        *time.Time        `db:"released_at" json:"releasedAt,omitempty"`
	CreatedAt         time.Time         `db:"created_at" json:"createdAt"`
}

// CountStatus is the approval state of a cycle count.
type CountStatus string

const (
	CountPending  CountStatus = "pending"
	CountApproved CountStatus = "approved"
	CountRejected CountStatus = "rejected"
)

// Display names used in count responses.
var countStatusLabels = map[CountStatus]string{
	CountPending:  "승인대기",
	CountApproved: "승인",
	CountRejected: "반려",
}

// Label returns the staff-facing status name.
func (s CountStatus) Label() string { return countStatusLabels[s] }

// Count is a physical stock count against the recorded quantity.
type Count struct {
	ID               uuid.UUID   `db:"id" json:"id"`
	CountNumber      string      `db:"count_number" json:"auditId"`
	ProductID        uuid.UUID   `db:"product_id" json:"productId"`
	WarehouseID      uuid.UUID   `db:"warehouse_id" json:"warehouseId"`
	ExpectedQuantity int         `db:"expected_quantity" json:"expectedQuantity"`
	CountedQuantity  int         `db:"counted_quantity" json:"auditQuantity"`
	Difference       int         `db:"difference" json:"difference"`
	Status           CountStatus `db:"status" json:"status"`
	Auditor          string      `db:"auditor" json:"auditor"`
	Approver         string      `db:"approver" json:"approver,omitempty"`
	Notes            string      `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time   `db:"created_at" json:"createdAt"`
	ResolvedAt       *time.Time  `db:"resolved_at" json:"resolvedAt,omitempty"`
}

// ── requests ─────────────────────────────────────────────────────────────────

// ChangeStatusRequest moves units between status buckets.
type ChangeStatusRequest struct {
	ProductID      string `json:"productId"`
	WarehouseID    string `json:"warehouseId,omitempty"`
	ChangeQuantity int    `json:"changeQuantity"`
	FromStatus     string `json:"fromStatus"`
	ToStatus       string `json:"toStatus"`
	UserID         string `json:"userId"`
	Reason         string `json:"reason,omitempty"`
}

// TransferRequest moves units between warehouses.
type TransferRequest struct {
	ProductID       string `json:"productId"`
	FromWarehouseID string `json:"fromWarehouseId"`
	ToWarehouseID   string `json:"toWarehouseId"`
	Quantity        int    `json:"quantity"`
	UserID          string `json:"userId"`
	Reason          string `json:"reason,omitempty"`
}

// CountRequest records a physical count.
type CountRequest struct {
	ProductID     string `json:"productId"`
	WarehouseID   string `json:"warehouseId"`
	AuditQuantity *int   `json:"auditQuantity"`
	Auditor       string `json:"auditor"`
	Notes         string `json:"notes,omitempty"`
}

// ResolveCountRequest approves or rejects a pending count.
type ResolveCountRequest struct {
	AuditID  string `json:"auditId"`
	Approver string `json:"approver"`
	Approve  *bool  `json:"approve,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// ReserveRequest holds units for a user or order.
type ReserveRequest struct {
	ProductID   string     `json:"productId"`
	WarehouseID string     `json:"warehouseId,omitempty"`
	OrderID     string     `json:"orderId,omitempty"`
	Quantity    int        `json:"quantity"`
	UserID      string     `json:"userId"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

// ListFilter narrows stock listings.
type ListFilter struct {
	WarehouseID *uuid.UUID
	LowStock    bool
	Search      string
	Page        int
	Limit       int
}

// ── responses ────────────────────────────────────────────────────────────────

// ProductStock is the per-product summary across warehouses.
type ProductStock struct {
	ProductID        uuid.UUID `json:"productId"`
	ProductCode      string    `json:"productCode"`
	ProductName      string    `json:"productName"`
	SKU              string    `json:"sku"`
	NormalStock      int       `json:"normalStock"`
	ReservedStock    int       `json:"reservedStock"`
	DefectiveStock   int       `json:"defectiveStock"`
	TotalStock       int       `json:"totalStock"`
	WarehouseDetails []*View   `json:"warehouseDetails"`
}

// StatusChangeResult reports a bucket move.
type StatusChangeResult struct {
	Stock  *View   `json:"stock"`
	Before Buckets `json:"before"`
	After  Buckets `json:"after"`
	From   Bucket  `json:"fromStatus"`
	To     Bucket  `json:"toStatus"`
	Moved  int     `json:"changeQuantity"`
}

// TransferResult reports both sides of a transfer.
type TransferResult struct {
	TransferID string         `json:"transferId"`
	Source     *View          `json:"source"`
	Target     *View          `json:"target"`
	Movement   TransferDetail `json:"movement"`
}

type TransferDetail struct {
	From              string `json:"from"`
	To                string `json:"to"`
	Quantity          int    `json:"quantity"`
	RemainingAtSource int    `json:"remainingAtSource"`
}

// CountResult reports a cycle count outcome.
type CountResult struct {
	Count            *Count `json:"audit"`
	Status           string `json:"status"`
	DifferenceRate   string `json:"differenceRate"`
	RequiresApproval bool   `json:"requiresApproval"`
	Adjusted         bool   `json:"adjusted"`
	Stock            *View  `json:"stock"`
}

// ReserveResult reports a new reservation.
type ReserveResult struct {
	ReservationID      string       `json:"reservationId"`
	Reservation        *Reservation `json:"reservation"`
	Stock              *View        `json:"stock"`
	RemainingAvailable int          `json:"remainingAvailable"`
}
