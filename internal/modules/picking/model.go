package picking

import (
	"time"

	"github.com/georgemunganga/wms-backend/internal/modules/outbound"
	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskPicking   TaskStatus = "picking"
	TaskCompleted TaskStatus = "completed"
	TaskCancelled TaskStatus = "cancelled"
)

// ValidTaskStatuses lists every picking task status.
var ValidTaskStatuses = []string{string(TaskPending), string(TaskPicking), string(TaskCompleted), string(TaskCancelled)}

// live reports whether the task still holds its order.
func (s TaskStatus) live() bool { return s == TaskPending || s == TaskPicking }

// Task is a picking assignment of one order to one worker.
type Task struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	TaskNumber       string          `db:"task_number" json:"pickingNumber"`
	OrderID          uuid.UUID       `db:"order_id" json:"orderId"`
	OrderNumber      string          `db:"order_number" json:"orderNumber"`
	WorkerID         string          `db:"worker_id" json:"assignedWorker"`
	Status           TaskStatus      `db:"status" json:"status"`
	EstimatedMinutes int             `db:"estimated_minutes" json:"estimatedMinutes"`
	StartTime        *time.Time      `db:"start_time" json:"startTime,omitempty"`
	CompletionTime   *time.Time      `db:"completion_time" json:"completionTime,omitempty"`
	Notes            string          `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updatedAt"`
	Order            *outbound.Order `db:"-" json:"-"`
}

type PackingStatus string

const (
	PackingPending   PackingStatus = "pending"
	PackingPacking   PackingStatus = "packing"
	PackingCompleted PackingStatus = "completed"
)

// PackingTask is created when every line of an order has been picked.
type PackingTask struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	TaskNumber     string        `db:"task_number" json:"packingNumber"`
	OrderID        uuid.UUID     `db:"order_id" json:"orderId"`
	WorkerID       string        `db:"worker_id" json:"workerId"`
	Status         PackingStatus `db:"status" json:"status"`
	StartTime      *time.Time    `db:"start_time" json:"assignedAt,omitempty"`
	CompletionTime *time.Time    `db:"completion_time" json:"packedAt,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updatedAt"`
}

// PackingView is a packing task with the first order line for display.
type PackingView struct {
	*PackingTask
	OrderNumber string `db:"order_number" json:"orderNumber"`
	ProductCode string `db:"product_code" json:"productCode"`
	ProductName string `db:"product_name" json:"productName"`
	Quantity    int    `db:"quantity" json:"quantity"`
}

type QueueProduct struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductCode string    `json:"productCode"`
	ProductName string    `json:"productName"`
	Quantity    int       `json:"quantity"`
}

type QueueEntry struct {
	OrderID          uuid.UUID      `json:"orderId"`
	OrderNumber      string         `json:"orderNumber"`
	OrderDate        time.Time      `json:"orderDate"`
	ExpectedDelivery *time.Time     `json:"expectedDelivery"`
	IsUrgent         bool           `json:"isUrgent"`
	TotalQuantity    int            `json:"totalQuantity"`
	ItemCount        int            `json:"itemCount"`
	Products         []QueueProduct `json:"products"`
	WaitingMinutes   int            `json:"waitingMinutes"`
}

// Queue is the list of orders waiting to be picked.
type Queue struct {
	TotalCount            int           `json:"totalCount"`
	UrgentCount           int           `json:"urgentCount"`
	NormalCount           int           `json:"normalCount"`
	AverageWaitingMinutes int           `json:"averageWaitingMinutes"`
	Orders                []*QueueEntry `json:"orders"`
}

type AssignRequest struct {
	OrderID          string `json:"orderId"`
	WorkerID         string `json:"workerId"`
	UserID           string `json:"userId,omitempty"`
	AssignedQuantity int    `json:"assignedQuantity,omitempty"`
}

type OrderSummary struct {
	ID            uuid.UUID `json:"id"`
	OrderNumber   string    `json:"orderNumber"`
	TotalQuantity int       `json:"totalQuantity"`
	ItemCount     int       `json:"itemCount"`
}

type Worker struct {
	ID              string `json:"id"`
	CurrentWorkload int    `json:"currentWorkload"`
}

type AssignResult struct {
	AssignmentID     uuid.UUID    `json:"assignmentId"`
	PickingNumber    string       `json:"pickingNumber"`
	Status           string       `json:"status"`
	Order            OrderSummary `json:"order"`
	Worker           Worker       `json:"worker"`
	EstimatedMinutes int          `json:"estimatedMinutes"`
	AssignedAt       time.Time    `json:"assignedAt"`
}

type BatchRequest struct {
	OrderIDs []string `json:"orderIds"`
	WorkerID string   `json:"workerId"`
	UserID   string   `json:"userId"`
}

type BatchSummary struct {
	Total       int    `json:"total"`
	Success     int    `json:"success"`
	Failed      int    `json:"failed"`
	SuccessRate string `json:"successRate"`
}

type BatchTask struct {
	PickingTaskID uuid.UUID `json:"pickingTaskId"`
	PickingNumber string    `json:"pickingNumber"`
	OrderNumber   string    `json:"orderNumber"`
	ItemCount     int       `json:"itemCount"`
	TotalQuantity int       `json:"totalQuantity"`
}

type BatchError struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber,omitempty"`
	Error       string `json:"error"`
}

type BatchResult struct {
	Summary        BatchSummary `json:"summary"`
	AssignedWorker string       `json:"assignedWorker"`
	Tasks          []BatchTask  `json:"tasks"`
	Errors         []BatchError `json:"errors"`
	Message        string       `json:"message"`
}

type ReassignRequest struct {
	PickingTaskID string `json:"pickingTaskId"`
	NewWorkerID   string `json:"newWorkerId"`
	UserID        string `json:"userId"`
	Reason        string `json:"reason,omitempty"`
}

type ReassignResult struct {
	PickingTaskID  uuid.UUID `json:"pickingTaskId"`
	PickingNumber  string    `json:"pickingNumber"`
	OrderNumber    string    `json:"orderNumber"`
	PreviousWorker string    `json:"previousWorker"`
	NewWorker      string    `json:"newWorker"`
	Reason         string    `json:"reason"`
	ReassignedBy   string    `json:"reassignedBy"`
	ReassignedAt   time.Time `json:"reassignedAt"`
}

type CancelRequest struct {
	PickingTaskID string `json:"pickingTaskId"`
	UserID        string `json:"userId"`
	Reason        string `json:"reason,omitempty"`
}

type CancelResult struct {
	PickingTaskID  uuid.UUID  `json:"pickingTaskId"`
	PickingNumber  string     `json:"pickingNumber"`
	OrderNumber    string     `json:"orderNumber"`
	PreviousStatus TaskStatus `json:"previousStatus"`
	Reason         string     `json:"reason"`
	CancelledBy    string     `json:"cancelledBy"`
	CancelledAt    time.Time  `json:"cancelledAt"`
}

type TaskItem struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	OrderedQty  int       `json:"orderedQty"`
	PickedQty   int       `json:"pickedQty"`
}

// TaskView is a picking task with its progress.
type TaskView struct {
	*Task
	CompletionRate string     `json:"completionRate"`
	TotalItems     int        `json:"totalItems"`
	PickedItems    int        `json:"pickedItems"`
	Items          []TaskItem `json:"items"`
}

type PickRequest struct {
	AssignmentID   string `json:"assignmentId"`
	ProductID      string `json:"productId"`
	PickedQuantity int    `json:"pickedQuantity"`
	LotNumber      string `json:"lotNumber,omitempty"`
	UserID         string `json:"userId,omitempty"`
}

type PickedProduct struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
	Name string    `json:"name"`
}

type PickResult struct {
	PickingID       uuid.UUID     `json:"pickingId"`
	Status          string        `json:"status"`
	Product         PickedProduct `json:"product"`
	OrderedQuantity int           `json:"orderedQuantity"`
	PickedQuantity  int           `json:"pickedQuantity"`
	LotNumber       string        `json:"lotNumber,omitempty"`
	CompletionRate  string        `json:"completionRate"`
	RemainingItems  int           `json:"remainingItems"`
	IsQuantityMatch bool          `json:"isQuantityMatch"`
	ErrorMessage    *string       `json:"errorMessage"`
	PackingTask     *PackingTask  `json:"packingTask,omitempty"`
}

type BarcodeVerifyRequest struct {
	AssignmentID      string `json:"assignmentId"`
	BarcodeData       string `json:"barcodeData"`
	ExpectedProductID string `json:"expectedProductId"`
}

// Barcode verification outcomes.
const (
	VerifySuccess = "success"
	VerifyError   = "error"

	ErrInvalidBarcode  = "INVALID_BARCODE"
	ErrProductNotFound = "PRODUCT_NOT_FOUND"
	ErrInvalidChecksum = "INVALID_CHECKSUM"
	ErrProductMismatch = "PRODUCT_MISMATCH"
)

// Verification is the outcome of scanning a product barcode.
type Verification struct {
	VerificationResult string  `json:"verificationResult"`
	ScannedProductID   *string `json:"scannedProductId"`
	ExpectedProductID  string  `json:"expectedProductId,omitempty"`
	IsMatched          bool    `json:"isMatched"`
	Message            string  `json:"message"`
	ErrorType          string  `json:"errorType,omitempty"`
	ScannedProductName string  `json:"scannedProductName,omitempty"`
	ScannedProductCode string  `json:"scannedProductCode,omitempty"`
}

type BarcodeView struct {
	ProductID uuid.UUID `json:"productId"`
	Code      string    `json:"productCode"`
	Name      string    `json:"productName"`
	Barcode   string    `json:"barcode"`
	Checksum  int       `json:"checksum"`
}
