package returns

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type newReturn struct {
	Number              string
	OrderID             uuid.UUID
	Reason              string
	Description         string
	Quantity            int
	RequestedBy         string
	ExpectedProcessDate time.Time
}

type listFilter struct {
	Ref    string
	Since  time.Time
	Status Status
}

type classification struct {
	Ref         string
	Number      string
	ProductID   uuid.UUID
	DefectType  string
	Disposition string
	Severity    string
	Action      string
	Actor       string
}

type processItem struct {
	ProductID   uuid.UUID
	Quantity    int
	Disposition string
}

type processing struct {
	Ref         string
	WarehouseID *uuid.UUID
	Items       []processItem
	Actor       string
}

type refund struct {
	Ref          string
	Number       string
	Amount       decimal.Decimal
	Method       string
	ExpectedDate time.Time
	Actor        string
}

// Repository stores returns. ref is either the return id or its RET- number.
// Mutations own their transaction.
type Repository interface {
	Create(ctx context.Context, in newReturn) (*ReturnRequest, error)
	List(ctx context.Context, f listFilter) ([]*ReturnRequest, error)
	UpdateStatus(ctx context.Context, ref string, to Status, actor, notes string) (*ReturnRequest, Status, error)
	ProductNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	Inspect(ctx context.Context, ref string, in *Inspection) (*ReturnRequest, error)
	Classify(ctx context.Context, c classification) (*Classification, error)
	Process(ctx context.Context, p processing) (*ReturnRequest, []ProcessedItem, error)
	Refund(ctx context.Context, rf refund) (*ReturnRequest, error)
}
