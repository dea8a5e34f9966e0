package inbound

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/georgemunganga/wms-backend/internal/refid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service defines inbound business logic.
type Service interface {
	ReceiveManual(ctx context.Context, req ManualRequest) (*ManualResult, error)
	CreateRequest(ctx context.Context, req CreateRequest) (*RequestView, error)
	ListRequests(ctx context.Context, status string) ([]*RequestView, error)
	GetStatus(ctx context.Context, number string) (*StatusView, error)
	UpdateStatus(ctx context.Context, number string, req UpdateStatusRequest) (*StatusView, error)
	DeleteRequest(ctx context.Context, number, actor string) error
	ListSchedules(ctx context.Context, status string) ([]*Schedule, error)
}

type service struct {
	repo Repository
	now  func() time.Time
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) Service {
	return &service{repo: repo, now: time.Now, log: log}
}

// ErrNotFound is returned for unknown request numbers.
func ErrNotFound() *apperr.Error {
	return apperr.NotFound("InboundNotFound", "inbound request not found")
}

func (s *service) ReceiveManual(ctx context.Context, req ManualRequest) (*ManualResult, error) {
	if err := httpx.Required(
		httpx.F("productId", req.ProductID),
		httpx.F("warehouseId", req.WarehouseID),
		httpx.F("quantity", req.Quantity),
		httpx.F("handledBy", req.HandledBy),
	); err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, apperr.Invalid("PositiveQuantity", "quantity must be greater than zero")
	}
	m := manualInbound{
		Number:    refid.New(refid.ManualInbound),
		Quantity:  req.Quantity,
		HandledBy: req.HandledBy,
		Notes:     req.Notes,
	}
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return nil, apperr.Invalid("InvalidValue", "unit price must not be negative").With("field", "unitPrice")
		}
		m.UnitPrice = *req.UnitPrice
	}
	var err error
	if m.ProductID, err = httpx.ParseID("productId", req.ProductID); err != nil {
		return nil, err
	}
	if m.WarehouseID, err = httpx.ParseID("warehouseId", req.WarehouseID); err != nil {
		return nil, err
	}
	if req.SupplierID != "" {
		sid, err := httpx.ParseID("supplierId", req.SupplierID)
		if err != nil {
			return nil, err
		}
		m.SupplierID = &sid
	}

	res, err := s.repo.CreateManual(ctx, m)
	if err != nil {
		return nil, classify(err)
	}
	s.log.Info("manual inbound recorded",
		zap.String("inbound_id", m.Number),
		zap.String("product_id", m.ProductID.String()),
		zap.Int("quantity", m.Quantity))
	return res, nil
}

func (s *service) CreateRequest(ctx context.Context, req CreateRequest) (*RequestView, error) {
	req.PONumber = strings.TrimSpace(req.PONumber)
	req.SupplierName = strings.TrimSpace(req.SupplierName)
	if err := httpx.Required(
		httpx.F("poNumber", req.PONumber),
		httpx.F("supplierName", req.SupplierName),
		httpx.F("items", req.Items),
	); err != nil {
		return nil, err
	}

	in := newRequest{
		Number:       req.PONumber,
		PONumber:     req.PONumber,
		SupplierName: req.SupplierName,
		RequestDate:  s.now().UTC(),
		Memo:         req.Memo,
		CreatedBy:    req.CreatedBy,
	}
	for i, it := range req.Items {
		if strings.TrimSpace(it.SKUCode) == "" {
			return nil, apperr.MissingFields("items.skuCode")
		}
		if it.Quantity <= 0 {
			return nil, apperr.Invalid("PositiveQuantity", "quantity must be greater than zero").With("item", i)
		}
		ni := newItem{SKU: strings.TrimSpace(it.SKUCode), Name: it.ProductName, Quantity: it.Quantity, UnitPrice: decimal.Zero}
		if ni.Name == "" {
			ni.Name = ni.SKU
		}
		if it.UnitPrice != nil {
			ni.UnitPrice = *it.UnitPrice
		}
		in.Items = append(in.Items, ni)
	}
	if req.RequestDate != "" {
		d, err := httpx.ParseDate(req.RequestDate)
		if err != nil {
			return nil, apperr.Invalid("InvalidValue", "invalid requestDate").With("field", "requestDate")
		}
		in.RequestDate = d
	}
	expected := in.RequestDate
	if req.ExpectedDate != "" {
		d, err := httpx.ParseDate(req.ExpectedDate)
		if err != nil {
			return nil, apperr.Invalid("InvalidValue", "invalid expectedDate").With("field", "expectedDate")
		}
		expected = d
	}
	in.ExpectedDate = &expected
	if req.WarehouseID != "" {
		wid, err := httpx.ParseID("warehouseId", req.WarehouseID)
		if err != nil {
			return nil, err
		}
		in.WarehouseID = &wid
	}

	created, err := s.repo.CreateRequest(ctx, in)
	if err != nil {
		return nil, classify(err)
	}
	s.log.Info("inbound request created",
		zap.String("request_number", created.RequestNumber),
		zap.Int("items", len(created.Items)))
	return newRequestView(created), nil
}

func (s *service) ListRequests(ctx context.Context, status string) ([]*RequestView, error) {
	var st Status
	if status != "" {
		var ok bool
		if st, ok = parseStatus(status); !ok {
			return nil, apperr.InvalidValue("status", ValidLabels)
		}
	}
	reqs, err := s.repo.ListRequests(ctx, st)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := make([]*RequestView, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, newRequestView(r))
	}
	return out, nil
}

// parseStatus accepts a stored state or a staff-facing label.
func parseStatus(s string) (Status, bool) {
	if st, ok := labelStatuses[s]; ok {
		return st, true
	}
	if _, ok := statusLabels[Status(s)]; ok {
		return Status(s), true
	}
	return "", false
}

func (s *service) GetStatus(ctx context.Context, number string) (*StatusView, error) {
	req, err := s.repo.GetRequest(ctx, number)
	if err != nil {
		return nil, apperr.FromRepo(err, ErrNotFound())
	}
	return newStatusView(req), nil
}

func (s *service) UpdateStatus(ctx context.Context, number string, req UpdateStatusRequest) (*StatusView, error) {
	if err := httpx.Required(httpx.F("status", req.Status)); err != nil {
		return nil, err
	}
	st, ok := labelStatuses[req.Status]
	if !ok {
		return nil, apperr.InvalidValue("status", ValidLabels)
	}
	reason := req.Reason
	if st == StatusRejected && req.RejectionReason != "" {
		reason = req.RejectionReason
	}
	approver := req.ApproverName
	if approver == "" {
		approver = "시스템"
	}

	updated, err := s.repo.UpdateStatus(ctx, statusUpdate{
		Number:       number,
		Status:       st,
		ApproverName: approver,
		Reason:       reason,
		Actor:        req.UserID,
	})
	if err != nil {
		return nil, classify(err)
	}
	s.log.Info("inbound status updated",
		zap.String("request_number", number),
		zap.String("status", string(st)))
	return newStatusView(updated), nil
}

func (s *service) DeleteRequest(ctx context.Context, number, actor string) error {
	if err := s.repo.DeleteRequest(ctx, number, actor); err != nil {
		return classify(err)
	}
	s.log.Info("inbound request deleted", zap.String("request_number", number))
	return nil
}

func (s *service) ListSchedules(ctx context.Context, status string) ([]*Schedule, error) {
	if status == "all" {
		status = ""
	}
	if status != "" && !slices.Contains(ValidScheduleStatuses, status) {
		return nil, apperr.InvalidValue("status", ValidScheduleStatuses)
	}
	out, err := s.repo.ListSchedules(ctx, status)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func classify(err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Internal(err)
}
