package returns

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/georgemunganga/wms-backend/internal/refid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	processingDays = 3
	defaultPeriod  = 30
)

var refundDays = map[string]int{"card": 7, "cash": 1, "credit": 0}

var dispositionActions = map[string]string{
	"resale":  "재판매 가능 - 정상 재고로 입고",
	"repair":  "수리 필요 - 수리 센터 이동",
	"discard": "폐기 필요 - 폐기 프로세스 진행",
}

// Service defines the return pipeline.
type Service interface {
	Request(ctx context.Context, req CreateRequest) (*View, error)
	List(ctx context.Context, ref string, period int, status string) (*ListResult, error)
	UpdateStatus(ctx context.Context, req StatusRequest) (*StatusResult, error)
	Inspect(ctx context.Context, req InspectRequest) (*Inspection, error)
	Classify(ctx context.Context, req ClassifyRequest) (*Classification, error)
	Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}

type service struct {
	repo Repository
	now  func() time.Time
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) Service {
	return &service{repo: repo, now: time.Now, log: log}
}

func ErrNotFound() *apperr.Error {
	return apperr.NotFound("ReturnNotFound", "return request not found")
}

// ErrTransition rejects a return status change outside validTransitions.
func ErrTransition(from, to Status) *apperr.Error {
	return apperr.InvalidTransition("return", string(from), string(to))
}

func (s *service) Request(ctx context.Context, req CreateRequest) (*View, error) {
	if err := httpx.Required(
		httpx.F("orderId", req.OrderID),
		httpx.F("reason", req.Reason),
		httpx.F("userId", req.UserID),
	); err != nil {
		return nil, err
	}
	if !slices.Contains(ValidReasons, req.Reason) {
		return nil, apperr.InvalidValue("reason", ValidReasons)
	}
	if req.ReturnQuantity < 0 {
		return nil, apperr.Invalid("PositiveQuantity", "return quantity must be greater than zero")
	}
	oid, err := httpx.ParseID("orderId", req.OrderID)
	if err != nil {
		return nil, err
	}
	rr, err := s.repo.Create(ctx, newReturn{
		Number:              refid.New(refid.Return),
		OrderID:             oid,
		Reason:              req.Reason,
		Description:         req.Description,
		Quantity:            req.ReturnQuantity,
		RequestedBy:         req.UserID,
		ExpectedProcessDate: s.now().UTC().AddDate(0, 0, processingDays),
	})
	if err != nil {
		return nil, classify(err)
	}
	s.log.Info("return requested", zap.String("return", rr.ReturnNumber), zap.String("order", rr.OrderNumber))
	return newView(rr), nil
}

func (s *service) List(ctx context.Context, ref string, period int, status string) (*ListResult, error) {
	if status != "" && status != "all" && statusLabels[Status(status)] == "" {
		return nil, apperr.InvalidValue("status", statusNames())
	}
	if period <= 0 {
		period = defaultPeriod
	}
	all, err := s.repo.List(ctx, listFilter{Ref: ref, Since: s.now().UTC().AddDate(0, 0, -period)})
	if err != nil {
		return nil, classify(err)
	}
	res := &ListResult{Stats: stats(all), Returns: []*View{}}
	for _, rr := range all {
		if status == "" || status == "all" || rr.Status == Status(status) {
			res.Returns = append(res.Returns, newView(rr))
		}
	}
	return res, nil
}

// stats counts returns by outcome. Pending covers returns not yet inspected.
func stats(all []*ReturnRequest) Stats {
	st := Stats{Total: len(all)}
	for _, rr := range all {
		switch rr.Status {
		case StatusRequested, StatusReceived:
			st.Pending++
		case StatusRefunded:
			st.Completed++
		case StatusRejected:
			st.Rejected++
		}
	}
	return st
}

func statusNames() []string {
	names := make([]string, 0, len(statusLabels))
	for s := range statusLabels {
		names = append(names, string(s))
	}
	slices.Sort(names)
	return names
}

func (s *service) UpdateStatus(ctx context.Context, req StatusRequest) (*StatusResult, error) {
	if err := httpx.Required(
		httpx.F("returnRequestId", req.ReturnRequestID),
		httpx.F("status", req.Status),
		httpx.F("userId", req.UserID),
	); err != nil {
		return nil, err
	}
	if !slices.Contains(ManualStatuses, req.Status) {
		return nil, apperr.InvalidValue("status", ManualStatuses)
	}
	rr, from, err := s.repo.UpdateStatus(ctx, req.ReturnRequestID, Status(req.Status), req.UserID, req.Notes)
	if err != nil {
		return nil, classify(err)
	}
	s.log.Info("return status changed",
		zap.String("return", rr.ReturnNumber),
		zap.String("from", string(from)),
		zap.String("to", string(rr.Status)))
	return &StatusResult{
		ReturnRequestID: rr.ID,
		ReturnNumber:    rr.ReturnNumber,
		PreviousStatus:  from,
		Status:          rr.Status,
		Notes:           rr.Notes,
		UpdatedBy:       req.UserID,
		UpdatedAt:       rr.UpdatedAt,
	}, nil
}

func (s *service) Inspect(ctx context.Context, req InspectRequest) (*Inspection, error) {
	if err := httpx.Required(
		httpx.F("returnRequestId", req.ReturnRequestID),
		httpx.F("inspector", req.Inspector),
		httpx.F("items", req.Items),
	); err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(req.Items))
	for i, it := range req.Items {
		if it.ExpectedQty < 0 || it.ReceivedQty < 0 {
			return nil, apperr.Invalid("InvalidValue", "quantities must not be negative").With("field", "items")
		}
		id, err := httpx.ParseID("productId", it.ProductID)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	names, err := s.repo.ProductNames(ctx, ids)
	if err != nil {
		return nil, classify(err)
	}
	in := inspect(req.Items, ids, names)
	in.InspectionID = refid.New(refid.Inspection)
	in.InspectedBy = req.Inspector
	in.InspectedAt = s.now().UTC()

	if _, err := s.repo.Inspect(ctx, req.ReturnRequestID, in); err != nil {
		return nil, classify(err)
	}
	s.log.Info("return inspected",
		zap.String("return", req.ReturnRequestID),
		zap.String("rate", in.Summary.InspectionRate))
	return in, nil
}

// inspect totals the received goods. Missing counts shortfalls only; surplus
// units are neither missing nor subtracted from other lines.
func inspect(items []InspectItemRequest, ids []uuid.UUID, names map[uuid.UUID]string) *Inspection {
	in := &Inspection{Items: make([]InspectedItem, 0, len(items))}
	sum := &in.Summary
	for i, it := range items {
		sum.TotalExpected += it.ExpectedQty
		sum.TotalReceived += it.ReceivedQty
		switch it.Condition {
		case "normal":
			sum.TotalNormal += it.ReceivedQty
		case "damaged":
			sum.TotalDamaged += it.ReceivedQty
		}
		if it.ReceivedQty < it.ExpectedQty {
			sum.TotalMissing += it.ExpectedQty - it.ReceivedQty
		}
		line := InspectedItem{
			ProductID:   ids[i],
			ProductName: names[ids[i]],
			ExpectedQty: it.ExpectedQty,
			ReceivedQty: it.ReceivedQty,
			Condition:   it.Condition,
			DamageType:  it.DamageType,
			Notes:       it.Notes,
			Status:      "match",
		}
		if line.ProductName == "" {
			line.ProductName = "Unknown"
		}
		if line.Condition == "" {
			line.Condition = "unknown"
		}
		if it.ReceivedQty != it.ExpectedQty {
			line.Status = "mismatch"
		}
		in.Items = append(in.Items, line)
	}
	rate := 0
	if sum.TotalExpected > 0 {
		rate = int(math.Round(float64(sum.TotalReceived) / float64(sum.TotalExpected) * 100))
	}
	sum.InspectionRate = fmt.Sprintf("%d%%", rate)
	return in
}

func (s *service) Classify(ctx context.Context, req ClassifyRequest) (*Classification, error) {
	if err := httpx.Required(
		httpx.F("returnRequestId", req.ReturnRequestID),
		httpx.F("productId", req.ProductID),
		httpx.F("defectType", req.DefectType),
		httpx.F("disposition", req.Disposition),
	); err != nil {
		return nil, err
	}
	if !slices.Contains(ValidDefectTypes, req.DefectType) {
		return nil, apperr.InvalidValue("defectType", ValidDefectTypes)
	}
	if !slices.Contains(ValidDispositions, req.Disposition) {
		return nil, apperr.InvalidValue("disposition", ValidDispositions)
	}
	severity := strings.ToLower(req.Severity)
	if severity == "" {
		severity = "minor"
	}
	if !slices.Contains(ValidSeverities, severity) {
		return nil, apperr.InvalidValue("severity", ValidSeverities)
	}
	pid, err := httpx.ParseID("productId", req.ProductID)
	if err != nil {
		return nil, err
	}
	cl, err := s.repo.Classify(ctx, classification{
		Ref:         req.ReturnRequestID,
		Number:      refid.New(refid.Classification),
		ProductID:   pid,
		DefectType:  req.DefectType,
		Disposition: req.Disposition,
		Severity:    severity,
		Action:      dispositionActions[req.Disposition],
		Actor:       req.UserID,
	})
	if err != nil {
		return nil, classify(err)
	}
	s.log.Info("return classified",
		zap.String("classification", cl.ClassificationNumber),
		zap.String("disposition", cl.Disposition))
	return cl, nil
}

func (s *service) Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	if err := httpx.Required(
		httpx.F("returnRequestId", req.ReturnRequestID),
		httpx.F("items", req.Items),
		httpx.F("userId", req.UserID),
	); err != nil {
		return nil, err
	}
	p := processing{Ref: req.ReturnRequestID, Actor: req.UserID}
	restock := false
	for _, it := range req.Items {
		if !slices.Contains(ValidProcessActions, it.Disposition) {
			return nil, apperr.InvalidValue("disposition", ValidProcessActions)
		}
		if it.Quantity <= 0 {
			return nil, apperr.Invalid("PositiveQuantity", "quantity must be greater than zero")
		}
		pid, err := httpx.ParseID("productId", it.ProductID)
		if err != nil {
			return nil, err
		}
		restock = restock || it.Disposition == "restock"
		p.Items = append(p.Items, processItem{ProductID: pid, Quantity: it.Quantity, Disposition: it.Disposition})
	}
	if restock && req.WarehouseID == "" {
		return nil, apperr.MissingFields("warehouseId")
	}
	if req.WarehouseID != "" {
		wid, err := httpx.ParseID("warehouseId", req.WarehouseID)
		if err != nil {
			return nil, err
		}
		p.WarehouseID = &wid
	}

	rr, items, err := s.repo.Process(ctx, p)
	if err != nil {
		return nil, classify(err)
	}
	res := &ProcessResult{
		ReturnRequestID: rr.ID,
		ReturnNumber:    rr.ReturnNumber,
		ProcessedItems:  items,
		ProcessedBy:     req.UserID,
		ProcessedAt:     *rr.ProcessedAt,
	}
	for _, it := range items {
		if it.Disposition == "restock" {
			res.Restocked += it.Quantity
		}
	}
	s.log.Info("return processed", zap.String("return", rr.ReturnNumber), zap.Int("restocked", res.Restocked))
	return res, nil
}

func (s *service) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	if err := httpx.Required(
		httpx.F("returnRequestId", req.ReturnRequestID),
		httpx.F("refundAmount", req.RefundAmount),
		httpx.F("refundMethod", req.RefundMethod),
	); err != nil {
		return nil, err
	}
	if !req.RefundAmount.IsPositive() {
		return nil, apperr.Invalid("InvalidValue", "refund amount must be greater than zero").With("field", "refundAmount")
	}
	days, ok := refundDays[req.RefundMethod]
	if !ok {
		return nil, apperr.InvalidValue("refundMethod", ValidRefundMethods)
	}
	expected := s.now().UTC().AddDate(0, 0, days)
	rf := refund{
		Ref:          req.ReturnRequestID,
		Number:       refid.New(refid.Refund),
		Amount:       req.RefundAmount,
		Method:       req.RefundMethod,
		ExpectedDate: expected,
		Actor:        req.UserID,
	}
	rr, err := s.repo.Refund(ctx, rf)
	if err != nil {
		return nil, classify(err)
	}
	s.log.Info("return refunded",
		zap.String("return", rr.ReturnNumber),
		zap.String("refund", rf.Number),
		zap.String("amount", rf.Amount.String()))
	return &RefundResult{
		RefundID:        rf.Number,
		ReturnRequestID: rr.ID,
		Method:          rf.Method,
		Amount:          rf.Amount,
		ExpectedDate:    expected.Format(time.DateOnly),
		Status:          rr.Status,
		ProcessedBy:     req.UserID,
		ProcessedAt:     *rr.RefundedAt,
	}, nil
}

func classify(err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Internal(err)
}
