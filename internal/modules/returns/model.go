package returns

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// Status is the stage a return has reached.
type Status string

const (
	StatusRequested  Status = "requested"
	StatusReceived   Status = "received"
	StatusInspecting Status = "inspecting"
	StatusInspected  Status = "inspected"
	StatusClassified Status = "classified"
	StatusProcessed  Status = "processed"
	StatusRefunded   Status = "refunded"
	StatusRejected   Status = "rejected"
)

// validTransitions sequences the return pipeline. Inspection may be recorded
// straight from requested or received, and classification may be skipped.
var validTransitions = map[Status][]Status{
	StatusRequested:  {StatusReceived, StatusInspected, StatusRejected},
	StatusReceived:   {StatusInspecting, StatusInspected, StatusRejected},
	StatusInspecting: {StatusInspected, StatusRejected},
	StatusInspected:  {StatusClassified, StatusProcessed, StatusRejected},
	StatusClassified: {StatusProcessed, StatusRejected},
	StatusProcessed:  {StatusRefunded},
	StatusRefunded:   {},
	StatusRejected:   {},
}

// CanTransition reports whether a return may move from one status to another.
func CanTransition(from, to Status) bool {
	return slices.Contains(validTransitions[from], to)
}

var statusLabels = map[Status]string{
	StatusRequested:  "요청",
	StatusReceived:   "접수",
	StatusInspecting: "검수중",
	StatusInspected:  "검수완료",
	StatusClassified: "분류완료",
	StatusProcessed:  "처리완료",
	StatusRefunded:   "완료",
	StatusRejected:   "거절",
}

// Label is the status as shown to customer service staff.
func (s Status) Label() string { return statusLabels[s] }

var (
	// ValidReasons are the reasons a customer may give for a return.
	ValidReasons = []string{"불량", "색상차이", "배송오류", "고객변심"}
	// ManualStatuses may be set directly through the status endpoint.
	ManualStatuses      = []string{string(StatusReceived), string(StatusInspecting), string(StatusProcessed), string(StatusRefunded), string(StatusRejected)}
	ValidDefectTypes    = []string{"파손", "오배송", "불량", "단순변심", "기타"}
	ValidDispositions   = []string{"resale", "repair", "discard"}
	ValidSeverities     = []string{"critical", "major", "minor"}
	ValidProcessActions = []string{"restock", "discard", "repair"}
	ValidRefundMethods  = []string{"card", "cash", "credit"}
)

// ReturnRequest is a customer return moving through the pipeline.
type ReturnRequest struct {
	ID                  uuid.UUID           `db:"id" json:"returnId"`
	ReturnNumber        string              `db:"return_number" json:"returnNumber"`
	OrderID             uuid.UUID           `db:"order_id" json:"orderId"`
	OrderNumber         string              `db:"order_number" json:"orderNumber"`
	Reason              string              `db:"reason" json:"reason"`
	Description         string              `db:"description" json:"description,omitempty"`
	ReturnQuantity      int                 `db:"return_quantity" json:"quantity"`
	Status              Status              `db:"status" json:"status"`
	RequestedBy         string              `db:"requested_by" json:"requestedBy"`
	ExpectedProcessDate time.Time           `db:"expected_process_date" json:"expectedProcessDate"`
	Inspection          *types.JSONText     `db:"inspection" json:"inspection,omitempty"`
	InspectedAt         *time.Time          `db:"inspected_at" json:"inspectedAt,omitempty"`
	ProcessedAt         *time.Time          `db:"processed_at" json:"processedAt,omitempty"`
	RefundNumber        *string             `db:"refund_number" json:"refundNumber,omitempty"`
	RefundAmount        decimal.NullDecimal `db:"refund_amount" json:"refundAmount"`
	RefundMethod        *string             `db:"refund_method" json:"refundMethod,omitempty"`
	ExpectedRefundDate  *time.Time          `db:"expected_refund_date" json:"expectedRefundDate,omitempty"`
	RefundedAt          *time.Time          `db:"refunded_at" json:"refundedAt,omitempty"`
	Notes               string              `db:"notes" json:"notes,omitempty"`
	CreatedAt           time.Time           `db:"created_at" json:"requestDate"`
	UpdatedAt           time.Time           `db:"updated_at" json:"updatedAt"`
}

// View adds the display label to a return.
type View struct {
	*ReturnRequest
	StatusLabel string `json:"statusLabel"`
}

func newView(r *ReturnRequest) *View { return &View{ReturnRequest: r, StatusLabel: r.Status.Label()} }

type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Rejected  int `json:"rejected"`
}

type ListResult struct {
	Stats   Stats   `json:"stats"`
	Returns []*View `json:"returns"`
}

type CreateRequest struct {
	OrderID        string `json:"orderId"`
	Reason         string `json:"reason"`
	ReturnQuantity int    `json:"returnQuantity,omitempty"`
	Description    string `json:"description,omitempty"`
	UserID         string `json:"userId"`
}

type StatusRequest struct {
	ReturnRequestID string `json:"returnRequestId"`
	Status          string `json:"status"`
	UserID          string `json:"userId"`
	Notes           string `json:"notes,omitempty"`
}

type StatusResult struct {
	ReturnRequestID uuid.UUID `json:"returnRequestId"`
	ReturnNumber    string    `json:"returnNumber"`
	PreviousStatus  Status    `json:"previousStatus"`
	Status          Status    `json:"status"`
	Notes           string    `json:"notes"`
	UpdatedBy       string    `json:"updatedBy"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type InspectItemRequest struct {
	ProductID   string `json:"productId"`
	ExpectedQty int    `json:"expectedQty"`
	ReceivedQty int    `json:"receivedQty"`
	Condition   string `json:"condition"`
	DamageType  string `json:"damageType,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type InspectRequest struct {
	ReturnRequestID string               `json:"returnRequestId"`
	Inspector       string               `json:"inspector"`
	Items           []InspectItemRequest `json:"items"`
}

type InspectedItem struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	ExpectedQty int       `json:"expectedQty"`
	ReceivedQty int       `json:"receivedQty"`
	Condition   string    `json:"condition"`
	DamageType  string    `json:"damageType,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Status      string    `json:"status"`
}

type InspectionSummary struct {
	TotalExpected  int    `json:"totalExpected"`
	TotalReceived  int    `json:"totalReceived"`
	TotalNormal    int    `json:"totalNormal"`
	TotalDamaged   int    `json:"totalDamaged"`
	TotalMissing   int    `json:"totalMissing"`
	InspectionRate string `json:"inspectionRate"`
}

// Inspection is the stored result of checking returned goods against the request.
type Inspection struct {
	InspectionID string            `json:"inspectionId"`
	Summary      InspectionSummary `json:"summary"`
	Items        []InspectedItem   `json:"items"`
	InspectedBy  string            `json:"inspectedBy"`
	InspectedAt  time.Time         `json:"inspectedAt"`
}

type ClassifyRequest struct {
	ReturnRequestID string `json:"returnRequestId"`
	ProductID       string `json:"productId"`
	DefectType      string `json:"defectType"`
	Disposition     string `json:"disposition"`
	Severity        string `json:"severity,omitempty"`
	UserID          string `json:"userId"`
}

// Classification records what is wrong with a returned product and what to do with it.
type Classification struct {
	ID                   uuid.UUID `db:"id" json:"id"`
	ClassificationNumber string    `db:"classification_number" json:"classificationId"`
	ReturnID             uuid.UUID `db:"return_id" json:"returnRequestId"`
	ProductID            uuid.UUID `db:"product_id" json:"productId"`
	ProductCode          string    `db:"-" json:"productCode"`
	ProductName          string    `db:"-" json:"productName"`
	DefectType           string    `db:"defect_type" json:"defectType"`
	Disposition          string    `db:"disposition" json:"disposition"`
	Severity             string    `db:"severity" json:"severity"`
	ActionRequired       string    `db:"action_required" json:"actionRequired"`
	ClassifiedBy         string    `db:"classified_by" json:"classifiedBy"`
	CreatedAt            time.Time `db:"created_at" json:"classifiedAt"`
}

type ProcessItemRequest struct {
	ProductID   string `json:"productId"`
	Quantity    int    `json:"quantity"`
	Disposition string `json:"disposition"`
}

type ProcessRequest struct {
	ReturnRequestID string               `json:"returnRequestId"`
	WarehouseID     string               `json:"warehouseId,omitempty"`
	Items           []ProcessItemRequest `json:"items"`
	UserID          string               `json:"userId"`
}

type ProcessedItem struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	Quantity    int       `json:"quantity"`
	Disposition string    `json:"disposition"`
	StockAfter  *int      `json:"stockAfter,omitempty"`
}

type ProcessResult struct {
	ReturnRequestID uuid.UUID       `json:"returnRequestId"`
	ReturnNumber    string          `json:"returnNumber"`
	ProcessedItems  []ProcessedItem `json:"processedItems"`
	Restocked       int             `json:"restockedQuantity"`
	ProcessedBy     string          `json:"processedBy"`
	ProcessedAt     time.Time       `json:"processedAt"`
}

type RefundRequest struct {
	ReturnRequestID string          `json:"returnRequestId"`
	RefundAmount    decimal.Decimal `json:"refundAmount"`
	RefundMethod    string          `json:"refundMethod"`
	UserID          string          `json:"userId"`
}

type RefundResult struct {
	RefundID        string          `json:"refundId"`
	ReturnRequestID uuid.UUID       `json:"returnRequestId"`
	Method          string          `json:"method"`
	Amount          decimal.Decimal `json:"amount"`
	ExpectedDate    string          `json:"expectedDate"`
	Status          Status          `json:"status"`
	ProcessedBy     string          `json:"processedBy"`
	ProcessedAt     time.Time       `json:"processedAt"`
}
