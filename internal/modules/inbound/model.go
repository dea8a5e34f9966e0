package inbound

import (
	"time"

	"github.com/georgemunganga/wms-backend/internal/modules/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the stored lifecycle state of an inbound request.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// Staff-facing status names.
const (
	LabelPending   = "승인대기"
	LabelApproved  = "승인완료"
	LabelRejected  = "반려됨"
	LabelCompleted = "입고완료"
)

var statusLabels = map[Status]string{
	StatusDraft:     LabelPending,
	StatusSubmitted: LabelPending,
	StatusApproved:  LabelApproved,
	StatusRejected:  LabelRejected,
	StatusCompleted: LabelCompleted,
}

// labelStatuses maps the names accepted by the status endpoint back to stored states.
var labelStatuses = map[string]Status{
	LabelPending:   StatusSubmitted,
	LabelApproved:  StatusApproved,
	LabelRejected:  StatusRejected,
	LabelCompleted: StatusCompleted,
}

// ValidLabels lists the accepted status names in display order.
var ValidLabels = []string{LabelPending, LabelApproved, LabelRejected, LabelCompleted}

// Label returns the staff-facing name, 승인대기 for unknown states.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return LabelPending
}

// CanTransition reports whether a request in s may move to next. Completed
// requests have booked their goods and stay completed.
func (s Status) CanTransition(next Status) bool {
	return s != StatusCompleted || next == StatusCompleted
}

// Schedule states.
const (
	ScheduleOnSchedule = "on-schedule"
	SchedulePending    = "pending"
	ScheduleDelayed    = "delayed"
	ScheduleArrived    = "arrived"
)

// ValidScheduleStatuses lists the schedule filter values.
var ValidScheduleStatuses = []string{SchedulePending, ScheduleOnSchedule, ScheduleDelayed, ScheduleArrived}

// Approval states.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

type Supplier struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type Request struct {
	ID            uuid.UUID  `db:"id" json:"-"`
	RequestNumber string     `db:"request_number" json:"id"`
	PONumber      string     `db:"po_number" json:"poNumber"`
	SupplierID    *uuid.UUID `db:"supplier_id" json:"supplierId,omitempty"`
	SupplierName  string     `db:"supplier_name" json:"supplierName"`
	WarehouseID   *uuid.UUID `db:"warehouse_id" json:"warehouseId,omitempty"`
	Status        Status     `db:"status" json:"status"`
	RequestDate   time.Time  `db:"request_date" json:"requestDate"`
	ExpectedDate  *time.Time `db:"expected_date" json:"expectedDate,omitempty"`
	Memo          string     `db:"memo" json:"memo"`
	CreatedBy     string     `db:"created_by" json:"createdBy"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
	Items         []*Item    `db:"-" json:"items"`
	Approval      *Approval  `db:"-" json:"approval,omitempty"`
}

// TotalQuantity sums the item quantities.
func (r *Request) TotalQuantity() int {
	n := 0
	for _, it := range r.Items {
		n += it.Quantity
	}
	return n
}

type Item struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	RequestID   uuid.UUID       `db:"request_id" json:"-"`
	ProductID   uuid.UUID       `db:"product_id" json:"productId"`
	SKU         string          `db:"sku" json:"skuCode"`
	ProductName string          `db:"product_name" json:"productName"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unitPrice"`
}

type Schedule struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	RequestID      uuid.UUID  `db:"request_id" json:"-"`
	RequestNumber  string     `db:"request_number" json:"requestNumber"`
	Carrier        string     `db:"carrier" json:"carrier"`
	TrackingNumber string     `db:"tracking_number" json:"trackingNumber"`
	Status         string     `db:"status" json:"status"`
	ScheduledDate  *time.Time `db:"scheduled_date" json:"scheduledDate,omitempty"`
	ArrivedAt      *time.Time `db:"arrived_at" json:"arrivedAt,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

type Approval struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	RequestID         uuid.UUID  `db:"request_id" json:"-"`
	Status            string     `db:"status" json:"status"`
	ApproverName      string     `db:"approver_name" json:"approverName"`
	ApprovalDate      *time.Time `db:"approval_date" json:"approvalDate"`
	RejectionReason   *string    `db:"rejection_reason" json:"rejectionReason"`
	AllocatedZone     *string    `db:"allocated_zone" json:"allocatedZone,omitempty"`
	AllocatedLocation *string    `db:"allocated_location" json:"allocatedLocation,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

// decide records an approval decision for the request's new state.
// approvalDate is set only when approved, rejectionReason only when rejected.
func (a *Approval) decide(status Status, approverName, reason string, now time.Time) {
	a.ApprovalDate, a.RejectionReason = nil, nil
	switch status {
	case StatusApproved:
		a.Status = ApprovalApproved
		a.ApprovalDate = &now
	case StatusRejected:
		a.Status = ApprovalRejected
		if reason != "" {
			a.RejectionReason = &reason
		}
	case StatusCompleted:
		// a completed receipt keeps its approval
		a.Status = ApprovalApproved
		if a.ApprovalDate == nil {
			a.ApprovalDate = &now
		}
	default:
		a.Status = ApprovalPending
	}
	if approverName != "" {
		a.ApproverName = approverName
	}
	a.UpdatedAt = now
}

// ── requests ─────────────────────────────────────────────────────────────────

// ManualRequest receives goods directly into a warehouse.
type ManualRequest struct {
	ProductID   string           `json:"productId"`
	WarehouseID string           `json:"warehouseId"`
	Quantity    int              `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unitPrice,omitempty"`
	SupplierID  string           `json:"supplierId,omitempty"`
	HandledBy   string           `json:"handledBy"`
	Notes       string           `json:"notes,omitempty"`
}

type CreateItemRequest struct {
	SKUCode     string           `json:"skuCode"`
	ProductName string           `json:"productName"`
	Quantity    int              `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unitPrice,omitempty"`
}

// CreateRequest registers a purchase order for approval.
type CreateRequest struct {
	PONumber     string              `json:"poNumber"`
	SupplierName string              `json:"supplierName"`
	WarehouseID  string              `json:"warehouseId,omitempty"`
	Items        []CreateItemRequest `json:"items"`
	RequestDate  string              `json:"requestDate,omitempty"`
	ExpectedDate string              `json:"expectedDate,omitempty"`
	Memo         string              `json:"memo,omitempty"`
	CreatedBy    string              `json:"createdBy,omitempty"`
}

// UpdateStatusRequest changes a request's status by its staff-facing name.
type UpdateStatusRequest struct {
	Status          string `json:"status"`
	ApproverName    string `json:"approverName,omitempty"`
	RejectionReason string `json:"rejectionReason,omitempty"`
	Reason          string `json:"reason,omitempty"`
	UserID          string `json:"userId,omitempty"`
}

// ── responses ────────────────────────────────────────────────────────────────

// ManualResult reports a manual receipt.
type ManualResult struct {
	InboundID    string          `json:"inboundId"`
	InboundDate  time.Time       `json:"inboundDate"`
	Status       string          `json:"status"`
	UpdatedStock *stock.View     `json:"updatedStock"`
	Movement     *stock.Movement `json:"movement"`
	Request      *Request        `json:"inboundRecord"`
}

// RequestView is the listing shape of a request.
type RequestView struct {
	ID             string     `json:"id"`
	PONumber       string     `json:"poNumber"`
	SupplierName   string     `json:"supplierName"`
	Items          []ItemView `json:"items"`
	TotalQuantity  int        `json:"totalQuantity"`
	RequestDate    string     `json:"requestDate"`
	ExpectedDate   string     `json:"expectedDate"`
	ApprovalStatus string     `json:"approvalStatus"`
	Memo           string     `json:"memo"`
}

type ItemView struct {
	ID          uuid.UUID `json:"id"`
	SKUCode     string    `json:"skuCode"`
	ProductName string    `json:"productName"`
	Quantity    int       `json:"quantity"`
	Unit        string    `json:"unit"`
}

// StatusView is the response of the inbound-status endpoints.
type StatusView struct {
	ID             string       `json:"id"`
	Status         string       `json:"status"`
	UpdatedAt      time.Time    `json:"updatedAt"`
	Reason         string       `json:"reason"`
	TotalQuantity  int          `json:"totalQuantity"`
	RequestDetails *RequestView `json:"requestDetails,omitempty"`
	Approval       *Approval    `json:"approval,omitempty"`
}

func newRequestView(r *Request) *RequestView {
	v := &RequestView{
		ID:             r.RequestNumber,
		PONumber:       r.PONumber,
		SupplierName:   r.SupplierName,
		Items:          make([]ItemView, 0, len(r.Items)),
		TotalQuantity:  r.TotalQuantity(),
		RequestDate:    r.RequestDate.Format(time.DateOnly),
		ApprovalStatus: r.Status.Label(),
		Memo:           r.Memo,
	}
	if v.PONumber == "" {
		v.PONumber = r.RequestNumber
	}
	if r.ExpectedDate != nil {
		v.ExpectedDate = r.ExpectedDate.Format(time.DateOnly)
	}
	for _, it := range r.Items {
		v.Items = append(v.Items, ItemView{ID: it.ID, SKUCode: it.SKU, ProductName: it.ProductName, Quantity: it.Quantity, Unit: "EA"})
	}
	return v
}

func newStatusView(r *Request) *StatusView {
	return &StatusView{
		ID:             r.RequestNumber,
		Status:         r.Status.Label(),
		UpdatedAt:      r.UpdatedAt,
		Reason:         r.Memo,
		TotalQuantity:  r.TotalQuantity(),
		RequestDetails: newRequestView(r),
		Approval:       r.Approval,
	}
}
