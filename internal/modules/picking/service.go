package picking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/georgemunganga/wms-backend/internal/modules/outbound"
	"github.com/georgemunganga/wms-backend/internal/modules/product"
	"github.com/georgemunganga/wms-backend/internal/refid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// urgentWindow is how close an expected delivery must be for an order to count as urgent.
const urgentWindow = 48 * time.Hour

var (
	validSorts   = []string{"orderDate", "expectedDelivery"}
	validFilters = []string{"all", "urgent", "normal"}
)

// Service defines picking and packing business logic.
type Service interface {
	Queue(ctx context.Context, sortBy, filter string) (*Queue, error)
	Assign(ctx context.Context, req AssignRequest) (*AssignResult, error)
	AssignBatch(ctx context.Context, req BatchRequest) (*BatchResult, error)
	Reassign(ctx context.Context, req ReassignRequest) (*ReassignResult, error)
	Cancel(ctx context.Context, req CancelRequest) (*CancelResult, error)
	Tasks(ctx context.Context, status, workerID string) ([]*TaskView, error)
	Pick(ctx context.Context, req PickRequest) (*PickResult, error)
	VerifyBarcode(ctx context.Context, req BarcodeVerifyRequest) (*Verification, error)
	BarcodeFor(ctx context.Context, productID string) (*BarcodeView, error)
	PackingTasks(ctx context.Context, status string, page, limit int) ([]*PackingView, int, error)
}

type service struct {
	repo Repository
	now  func() time.Time
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) Service {
	return &service{repo: repo, now: time.Now, log: log}
}

func (s *service) Queue(ctx context.Context, sortBy, filter string) (*Queue, error) {
	if sortBy == "" {
		sortBy = "orderDate"
	}
	if filter == "" {
		filter = "all"
	}
	if !slices.Contains(validSorts, sortBy) {
		return nil, apperr.InvalidValue("sortBy", validSorts)
	}
	if !slices.Contains(validFilters, filter) {
		return nil, apperr.InvalidValue("filter", validFilters)
	}
	now := s.now()
	var urgentBefore *time.Time
	if filter == "urgent" {
		t := now.Add(urgentWindow)
		urgentBefore = &t
	}
	orders, err := s.repo.PendingOrders(ctx, sortBy == "expectedDelivery", urgentBefore)
	if err != nil {
		return nil, classify(err)
	}
	q := buildQueue(orders, now)
	if filter == "normal" {
		normal := q.Orders[:0]
		for _, e := range q.Orders {
			if !e.IsUrgent {
				normal = append(normal, e)
			}
		}
		q = summarize(normal)
	}
	return q, nil
}

func buildQueue(orders []*outbound.Order, now time.Time) *Queue {
	entries := make([]*QueueEntry, 0, len(orders))
	for _, o := range orders {
		e := &QueueEntry{
			OrderID:          o.ID,
			OrderNumber:      o.OrderNumber,
			OrderDate:        o.OrderDate,
			ExpectedDelivery: o.ExpectedDelivery,
			IsUrgent:         o.ExpectedDelivery != nil && o.ExpectedDelivery.Sub(now) <= urgentWindow,
			TotalQuantity:    o.TotalQuantity,
			ItemCount:        len(o.Items),
			Products:         make([]QueueProduct, 0, len(o.Items)),
			WaitingMinutes:   int(now.Sub(o.OrderDate).Minutes()),
		}
		for _, it := range o.Items {
			e.Products = append(e.Products, QueueProduct{
				ProductID: it.ProductID, ProductCode: it.ProductCode, ProductName: it.ProductName, Quantity: it.Quantity,
			})
		}
		entries = append(entries, e)
	}
	return summarize(entries)
}

func summarize(entries []*QueueEntry) *Queue {
	q := &Queue{TotalCount: len(entries), Orders: entries}
	waiting := 0
	for _, e := range entries {
		if e.IsUrgent {
			q.UrgentCount++
		}
		waiting += e.WaitingMinutes
	}
	q.NormalCount = q.TotalCount - q.UrgentCount
	if len(entries) > 0 {
		q.AverageWaitingMinutes = waiting / len(entries)
	}
	return q
}

func (s *service) Assign(ctx context.Context, req AssignRequest) (*AssignResult, error) {
	if err := httpx.Required(httpx.F("orderId", req.OrderID), httpx.F("workerId", req.WorkerID)); err != nil {
		return nil, err
	}
	orderID, err := httpx.ParseID("orderId", req.OrderID)
	if err != nil {
		return nil, err
	}
	a := assignment{
		OrderID:  orderID,
		WorkerID: req.WorkerID,
		Actor:    req.UserID,
		Number:   refid.New(refid.Picking),
		Notes:    "전체 상품 피킹",
	}
	if a.Actor == "" {
		a.Actor = req.WorkerID
	}
	if req.AssignedQuantity > 0 {
		a.Notes = fmt.Sprintf("할당 수량: %d", req.AssignedQuantity)
	}
	t, workload, err := s.repo.Assign(ctx, a)
	if err != nil {
		return nil, classify(err)
	}
	s.log.Info("picking assigned",
		zap.String("task", t.TaskNumber), zap.String("order", t.OrderNumber), zap.String("worker", t.WorkerID))
	return &AssignResult{
		AssignmentID:  t.ID,
		PickingNumber: t.TaskNumber,
		Status:        "할당완료",
		Order: OrderSummary{
			ID:            t.Order.ID,
			OrderNumber:   t.Order.OrderNumber,
			TotalQuantity: t.Order.TotalQuantity,
			ItemCount:     len(t.Order.Items),
		},
		Worker:           Worker{ID: t.WorkerID, CurrentWorkload: workload},
		EstimatedMinutes: t.EstimatedMinutes,
		AssignedAt:       t.CreatedAt,
	}, nil
}

func (s *service) AssignBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	if err := httpx.Required(
		httpx.F("orderIds", req.OrderIDs),
		httpx.F("workerId", req.WorkerID),
		httpx.F("userId", req.UserID),
	); err != nil {
		return nil, err
	}
	res := &BatchResult{AssignedWorker: req.WorkerID, Tasks: []BatchTask{}, Errors: []BatchError{}}
	b := batch{WorkerID: req.WorkerID, Actor: req.UserID}
	for _, raw := range req.OrderIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			res.Errors = append(res.Errors, BatchError{OrderID: raw, Error: "invalid order id"})
			continue
		}
		b.OrderIDs = append(b.OrderIDs, id)
	}

	if len(b.OrderIDs) > 0 {
		outcomes, err := s.repo.AssignBatch(ctx, b)
		if err != nil {
			return nil, classify(err)
		}
		for _, o := range outcomes {
			if o.Task == nil {
				be := BatchError{OrderID: o.OrderID.String(), Error: errorMessage(o.Err)}
				if o.Order != nil {
					be.OrderNumber = o.Order.OrderNumber
				}
				res.Errors = append(res.Errors, be)
				continue
			}
			total := 0
			for _, it := range o.Order.Items {
				total += it.Quantity
			}
			res.Tasks = append(res.Tasks, BatchTask{
				PickingTaskID: o.Task.ID,
				PickingNumber: o.Task.TaskNumber,
				OrderNumber:   o.Order.OrderNumber,
				ItemCount:     len(o.Order.Items),
				TotalQuantity: total,
			})
		}
	}

	res.Summary = BatchSummary{
		Total:   len(req.OrderIDs),
		Success: len(res.Tasks),
		Failed:  len(res.Errors),
	}
	res.Summary.SuccessRate = fmt.Sprintf("%d%%", int(math.Round(float64(res.Summary.Success)/float64(res.Summary.Total)*100)))
	if res.Summary.Failed == 0 {
		res.Message = fmt.Sprintf("%d개 피킹 작업이 생성되었습니다.", res.Summary.Success)
	} else {
		res.Message = fmt.Sprintf("%d개 성공, %d개 실패", res.Summary.Success, res.Summary.Failed)
	}
	s.log.Info("batch picking",
		zap.String("worker", req.WorkerID), zap.Int("success", res.Summary.Success), zap.Int("failed", res.Summary.Failed))
	return res, nil
}

func errorMessage(err error) string {
	if ae, ok := apperr.As(err); ok {
		return ae.Message
	}
	return "internal error"
}

func (s *service) Reassign(ctx context.Context, req ReassignRequest) (*ReassignResult, error) {
	if err := httpx.Required(
		httpx.F("pickingTaskId", req.PickingTaskID),
		httpx.F("newWorkerId", req.NewWorkerID),
		httpx.F("userId", req.UserID),
	); err != nil {
		return nil, err
	}
	id, err := httpx.ParseID("pickingTaskId", req.PickingTaskID)
	if err != nil {
		return nil, err
	}
	reason := req.Reason
	if reason == "" {
		reason = "-"
	}
	t, previous, err := s.repo.Reassign(ctx, id, req.NewWorkerID, req.UserID, reason)
	if err != nil {
		return nil, classify(err)
	}
	s.log.Info("picking reassigned",
		zap.String("task", t.TaskNumber), zap.String("from", previous), zap.String("to", t.WorkerID))
	return &ReassignResult{
		PickingTaskID:  t.ID,
		PickingNumber:  t.TaskNumber,
		OrderNumber:    t.OrderNumber,
		PreviousWorker: previous,
		NewWorker:      t.WorkerID,
		Reason:         reason,
		ReassignedBy:   req.UserID,
		ReassignedAt:   t.UpdatedAt,
	}, nil
}

func (s *service) Cancel(ctx context.Context, req CancelRequest) (*CancelResult, error) {
	if err := httpx.Required(httpx.F("pickingTaskId", req.PickingTaskID), httpx.F("userId", req.UserID)); err != nil {
		return nil, err
	}
	id, err := httpx.ParseID("pickingTaskId", req.PickingTaskID)
	if err != nil {
		return nil, err
	}
	reason := req.Reason
	if reason == "" {
		reason = "사용자 요청"
	}
	t, previous, err := s.repo.Cancel(ctx, id, req.UserID, reason)
	if err != nil {
		return nil, classify(err)
	}
	s.log.Info("picking cancelled", zap.String("task", t.TaskNumber), zap.String("by", req.UserID))
	return &CancelResult{
		PickingTaskID:  t.ID,
		PickingNumber:  t.TaskNumber,
		OrderNumber:    t.OrderNumber,
		PreviousStatus: previous,
		Reason:         reason,
		CancelledBy:    req.UserID,
		CancelledAt:    t.UpdatedAt,
	}, nil
}

func (s *service) Tasks(ctx context.Context, status, workerID string) ([]*TaskView, error) {
	if status != "" && !slices.Contains(ValidTaskStatuses, status) {
		return nil, apperr.InvalidValue("status", ValidTaskStatuses)
	}
	tasks, err := s.repo.Tasks(ctx, TaskStatus(status), workerID)
	if err != nil {
		return nil, classify(err)
	}
	out := make([]*TaskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskView(t))
	}
	return out, nil
}

func newTaskView(t *Task) *TaskView {
	v := &TaskView{Task: t, Items: []TaskItem{}}
	if t.Order != nil {
		v.PickedItems, v.TotalItems = progress(t.Order.Items)
		for _, it := range t.Order.Items {
			v.Items = append(v.Items, TaskItem{
				ProductID: it.ProductID, ProductName: it.ProductName, OrderedQty: it.Quantity, PickedQty: it.PickedQty,
			})
		}
	}
	v.CompletionRate = completionRate(v.PickedItems, v.TotalItems)
	return v
}

// progress counts the order lines picked in full.
func progress(items []*outbound.Item) (picked, total int) {
	for _, it := range items {
		if it.PickedQty >= it.Quantity {
			picked++
		}
	}
	return picked, len(items)
}

func completionRate(picked, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(picked)/float64(total)*100)
}

func (s *service) Pick(ctx context.Context, req PickRequest) (*PickResult, error) {
	if err := httpx.Required(
		httpx.F("assignmentId", req.AssignmentID),
		httpx.F("productId", req.ProductID),
		httpx.F("pickedQuantity", req.PickedQuantity),
	); err != nil {
		return nil, err
	}
	if req.PickedQuantity < 0 {
		return nil, apperr.Invalid("PositiveQuantity", "quantity must be greater than zero")
	}
	p := pick{Quantity: req.PickedQuantity, LotNumber: req.LotNumber, Actor: req.UserID}
	var err error
	if p.TaskID, err = httpx.ParseID("assignmentId", req.AssignmentID); err != nil {
		return nil, err
	}
	if p.ProductID, err = httpx.ParseID("productId", req.ProductID); err != nil {
		return nil, err
	}
	out, err := s.repo.Pick(ctx, p)
	if err != nil {
		return nil, classify(err)
	}

	picked, total := progress(out.Task.Order.Items)
	res := &PickResult{
		PickingID:       out.Task.ID,
		Status:          "진행중",
		Product:         PickedProduct{ID: out.Item.ProductID, Code: out.Item.ProductCode, Name: out.Item.ProductName},
		OrderedQuantity: out.Item.Quantity,
		PickedQuantity:  p.Quantity,
		LotNumber:       out.Item.LotNumber,
		CompletionRate:  completionRate(picked, total),
		RemainingItems:  total - picked,
		IsQuantityMatch: p.Quantity == out.Item.Quantity,
		PackingTask:     out.Packing,
	}
	if picked == total {
		res.Status = "완료"
	}
	if !res.IsQuantityMatch {
		msg := fmt.Sprintf("수량 불일치: 주문 %d개, 피킹 %d개", out.Item.Quantity, p.Quantity)
		res.ErrorMessage = &msg
	}
	s.log.Info("product picked",
		zap.String("task", out.Task.TaskNumber),
		zap.String("product", p.ProductID.String()),
		zap.Int("quantity", p.Quantity),
		zap.String("completion", res.CompletionRate))
	return res, nil
}

func (s *service) VerifyBarcode(ctx context.Context, req BarcodeVerifyRequest) (*Verification, error) {
	if err := httpx.Required(
		httpx.F("assignmentId", req.AssignmentID),
		httpx.F("barcodeData", req.BarcodeData),
		httpx.F("expectedProductId", req.ExpectedProductID),
	); err != nil {
		return nil, err
	}
	scanned, digit, ok := ParseBarcode(req.BarcodeData)
	if !ok {
		return &Verification{
			VerificationResult: VerifyError,
			Message:            "유효하지 않은 바코드 형식입니다.",
			ErrorType:          ErrInvalidBarcode,
		}, nil
	}
	v := &Verification{VerificationResult: VerifyError, ScannedProductID: &scanned}

	var p *product.Product
	if id, err := uuid.Parse(scanned); err == nil {
		p, err = s.repo.GetProduct(ctx, id)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, classify(err)
		}
	}
	if p == nil {
		v.Message = "존재하지 않는 상품입니다."
		v.ErrorType = ErrProductNotFound
		return v, nil
	}
	if digit != Checksum(scanned) {
		v.Message = "바코드 체크디지트 검증 실패 (손상된 바코드)"
		v.ErrorType = ErrInvalidChecksum
		return v, nil
	}

	v.ExpectedProductID = req.ExpectedProductID
	v.ScannedProductName = p.Name
	v.ScannedProductCode = p.Code
	if !strings.EqualFold(scanned, req.ExpectedProductID) {
		v.Message = fmt.Sprintf("상품이 일치하지 않습니다. (기대: %s, 스캔: %s)", req.ExpectedProductID, scanned)
		v.ErrorType = ErrProductMismatch
		s.log.Warn("barcode mismatch",
			zap.String("assignment", req.AssignmentID), zap.String("expected", req.ExpectedProductID), zap.String("scanned", scanned))
		return v, nil
	}
	v.VerificationResult = VerifySuccess
	v.IsMatched = true
	v.Message = "바코드 검증 성공. 상품이 일치합니다."
	s.log.Info("barcode verified", zap.String("assignment", req.AssignmentID), zap.String("product", scanned))
	return v, nil
}

func (s *service) BarcodeFor(ctx context.Context, productID string) (*BarcodeView, error) {
	id, err := httpx.ParseID("productId", productID)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, apperr.FromRepo(err, product.ErrNotFound())
	}
	key := p.ID.String()
	return &BarcodeView{ProductID: p.ID, Code: p.Code, Name: p.Name, Barcode: Barcode(key), Checksum: Checksum(key)}, nil
}

func (s *service) PackingTasks(ctx context.Context, status string, page, limit int) ([]*PackingView, int, error) {
	valid := []string{string(PackingPending), string(PackingPacking), string(PackingCompleted)}
	if status != "" && !slices.Contains(valid, status) {
		return nil, 0, apperr.InvalidValue("status", valid)
	}
	out, total, err := s.repo.PackingTasks(ctx, PackingStatus(status), page, limit)
	if err != nil {
		return nil, 0, classify(err)
	}
	return out, total, nil
}

func classify(err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Internal(err)
}
