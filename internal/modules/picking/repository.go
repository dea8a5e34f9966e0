package picking

import (
	"context"
	"time"

	"github.com/georgemunganga/wms-backend/internal/modules/outbound"
	"github.com/georgemunganga/wms-backend/internal/modules/product"
	"github.com/google/uuid"
)

type assignment struct {
	OrderID  uuid.UUID
	WorkerID string
	Actor    string
	Number   string
	Notes    string
}

type batch struct {
	OrderIDs []uuid.UUID
	WorkerID string
	Actor    string
}

// batchOutcome is the per-order result of a batch assignment; Task is nil on failure.
type batchOutcome struct {
	OrderID uuid.UUID
	Order   *outbound.Order
	Task    *Task
	Err     error
}

type pick struct {
	TaskID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	LotNumber string
	Actor     string
}

type pickOutcome struct {
	Task    *Task
	Item    *outbound.Item
	Packing *PackingTask
}

// Repository defines picking and packing storage. Mutations own their transaction.
type Repository interface {
	PendingOrders(ctx context.Context, byExpectedDelivery bool, urgentBefore *time.Time) ([]*outbound.Order, error)
	Assign(ctx context.Context, a assignment) (*Task, int, error)
	AssignBatch(ctx context.Context, b batch) ([]batchOutcome, error)
	Reassign(ctx context.Context, taskID uuid.UUID, newWorker, actor, reason string) (*Task, string, error)
	Cancel(ctx context.Context, taskID uuid.UUID, actor, reason string) (*Task, TaskStatus, error)
	Tasks(ctx context.Context, status TaskStatus, workerID string) ([]*Task, error)
	Pick(ctx context.Context, p pick) (*pickOutcome, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*product.Product, error)
	PackingTasks(ctx context.Context, status PackingStatus, page, limit int) ([]*PackingView, int, error)
}
