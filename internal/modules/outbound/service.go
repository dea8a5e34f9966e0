package outbound

import (
	"context"
	"slices"
	"time"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/georgemunganga/wms-backend/internal/refid"
	"go.uber.org/zap"
)

// Service defines outbound business logic.
type Service interface {
	IssueManual(ctx context.Context, req ManualRequest) (*ManualResult, error)
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error)
	ListOrders(ctx context.Context, f ListFilter) ([]*Order, int, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Order, error)
}

type service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) Service {
	return &service{repo: repo, log: log}
}

// ErrNotFound is returned for unknown order ids.
func ErrNotFound() *apperr.Error {
	e := apperr.NotFound("OrderNotFound", "order not found")
	e.Code = apperr.CodeOrderNotFound
	return e
}

// ErrTransition rejects an order status change outside validTransitions.
func ErrTransition(from, to Status) *apperr.Error {
	e := apperr.InvalidTransition("order", string(from), string(to))
	switch from {
	case StatusShipped, StatusDelivered:
		e.Code = apperr.CodeOrderAlreadyShipped
	case StatusCancelled:
		e.Code = apperr.CodeOrderCancelled
	default:
		e.Code = apperr.CodeInvalidOrderStatus
	}
	return e
}

// ErrOrderClosed rejects a manual issue against a delivered or cancelled order.
func ErrOrderClosed(status Status) *apperr.Error {
	e := apperr.Conflict("OrderClosed", "order no longer accepts items").With("status", string(status))
	e.Code = apperr.CodeOrderAlreadyShipped
	if status == StatusCancelled {
		e.Code = apperr.CodeOrderCancelled
	}
	return e
}

func (s *service) IssueManual(ctx context.Context, req ManualRequest) (*ManualResult, error) {
	if err := httpx.Required(
		httpx.F("productId", req.ProductID),
		httpx.F("quantity", req.Quantity),
		httpx.F("warehouseId", req.WarehouseID),
		httpx.F("handledBy", req.HandledBy),
	); err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, apperr.Invalid("PositiveQuantity", "quantity must be greater than zero")
	}
	m := manualOutbound{
		Quantity:     req.Quantity,
		HandledBy:    req.HandledBy,
		OrderNumber:  refid.New(refid.ManualOrder),
		CustomerName: req.CustomerName,
		Reason:       req.Reason,
	}
	if m.Reason == "" {
		m.Reason = req.Notes
	}
	if m.CustomerName == "" {
		m.CustomerName = "수동 출고"
	}
	var err error
	if m.ProductID, err = httpx.ParseID("productId", req.ProductID); err != nil {
		return nil, err
	}
	if m.WarehouseID, err = httpx.ParseID("warehouseId", req.WarehouseID); err != nil {
		return nil, err
	}
	if req.OrderID != "" {
		oid, err := httpx.ParseID("orderId", req.OrderID)
		if err != nil {
			return nil, err
		}
		m.OrderID = &oid
	}

	res, err := s.repo.CreateManual(ctx, m)
	if err != nil {
		return nil, classify(err)
	}
	s.log.Info("manual outbound",
		zap.String("order", res.OutboundRecord.OrderNumber),
		zap.String("product", m.ProductID.String()),
		zap.Int("quantity", m.Quantity),
		zap.String("handled_by", m.HandledBy))
	return res, nil
}

func (s *service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if err := httpx.Required(
		httpx.F("customerName", req.CustomerName),
		httpx.F("shippingAddress", req.ShippingAddress),
		httpx.F("items", req.Items),
	); err != nil {
		return nil, err
	}
	in := newOrder{
		Number:          refid.New(refid.Order),
		CustomerName:    req.CustomerName,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		CreatedBy:       req.CreatedBy,
	}
	if req.ExpectedDelivery != "" {
		d, err := httpx.ParseDate(req.ExpectedDelivery)
		if err != nil {
			return nil, apperr.Invalid("InvalidDate", "expectedDelivery must be a date").With("field", "expectedDelivery")
		}
		in.ExpectedDelivery = &d
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, apperr.Invalid("PositiveQuantity", "quantity must be greater than zero")
		}
		if it.UnitPrice != nil && it.UnitPrice.IsNegative() {
			return nil, apperr.Invalid("InvalidValue", "unit price must not be negative").With("field", "unitPrice")
		}
		pid, err := httpx.ParseID("productId", it.ProductID)
		if err != nil {
			return nil, err
		}
		ni := newItem{ProductID: pid, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
		if it.WarehouseID != "" {
			wid, err := httpx.ParseID("warehouseId", it.WarehouseID)
			if err != nil {
				return nil, err
			}
			ni.WarehouseID = &wid
		}
		in.Items = append(in.Items, ni)
	}

	o, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, classify(err)
	}
	s.log.Info("order created", zap.String("order", o.OrderNumber), zap.Int("total_quantity", o.TotalQuantity))
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, f ListFilter) ([]*Order, int, error) {
	if f.Status != "" && !slices.Contains(ValidStatuses, string(f.Status)) {
		return nil, 0, apperr.InvalidValue("status", ValidStatuses)
	}
	orders, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, classify(err)
	}
	return orders, total, nil
}

func (s *service) GetOrder(ctx context.Context, id string) (*Order, error) {
	oid, err := httpx.ParseID("id", id)
	if err != nil {
		return nil, err
	}
	o, err := s.repo.Get(ctx, oid)
	if err != nil {
		return nil, apperr.FromRepo(err, ErrNotFound())
	}
	return o, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Order, error) {
	if err := httpx.Required(httpx.F("status", req.Status), httpx.F("userId", req.UserID)); err != nil {
		return nil, err
	}
	if !slices.Contains(ValidStatuses, req.Status) {
		return nil, apperr.InvalidValue("status", ValidStatuses)
	}
	oid, err := httpx.ParseID("id", id)
	if err != nil {
		return nil, err
	}
	o, err := s.repo.UpdateStatus(ctx, oid, Status(req.Status), req.UserID, req.Reason)
	if err != nil {
		return nil, classify(err)
	}
	s.log.Info("order status changed", zap.String("order", o.OrderNumber), zap.String("status", string(o.Status)))
	return o, nil
}

// ExpectedDelivery is the delivery date promised when an order ships.
func ExpectedDelivery(shipped time.Time) time.Time { return shipped.AddDate(0, 0, 3) }

func classify(err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Internal(err)
}
