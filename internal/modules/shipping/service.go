package shipping

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/georgemunganga/wms-backend/internal/modules/outbound"
	"github.com/georgemunganga/wms-backend/internal/refid"
	"go.uber.org/zap"
)

// systemActor records shipments started without a named user.
const systemActor = "SHIPPING_SYSTEM"

type Service interface {
	Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error)
	Deliver(ctx context.Context, req DeliverRequest) (*DeliverResult, error)
	List(ctx context.Context, f ListFilter) ([]*Shipment, int, error)
	Track(ctx context.Context, trackingNumber string) (*Shipment, error)
}

type service struct {
	repo Repository
	now  func() time.Time
	log  *zap.Logger
}

func NewService(repo Repository, log *zap.Logger) Service {
	return &service{repo: repo, now: time.Now, log: log}
}

// ErrShipmentNotFound is returned for unknown tracking numbers.
func ErrShipmentNotFound() *apperr.Error {
	e := apperr.NotFound("ShipmentNotFound", "shipment not found")
	e.Code = apperr.CodeOrderNotFound
	return e
}

// checkShippable rejects orders that cannot be handed to a carrier. Orders still
// waiting on picking are a client error; finished or cancelled ones a conflict.
func checkShippable(status outbound.Status) error {
	switch {
	case status == outbound.StatusPending || status == outbound.StatusPicking:
		e := apperr.Invalid("PickingIncomplete", "order has not finished picking").With("currentStatus", status)
		e.Code = apperr.CodeInvalidOrderStatus
		return e
	case !outbound.CanTransition(status, outbound.StatusShipped):
		return outbound.ErrTransition(status, outbound.StatusShipped)
	}
	return nil
}

func (s *service) Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	if err := httpx.Required(httpx.F("orderId", req.OrderID), httpx.F("carrier", req.Carrier)); err != nil {
		return nil, err
	}
	orderID, err := httpx.ParseID("orderId", req.OrderID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	d := dispatch{
		OrderID:          orderID,
		Carrier:          strings.TrimSpace(req.Carrier),
		TrackingNumber:   refid.Tracking(req.Carrier),
		ShippingAddress:  req.ShippingAddress,
		RecipientName:    req.RecipientName,
		RecipientPhone:   req.RecipientPhone,
		ShippedAt:        now,
		ExpectedDelivery: outbound.ExpectedDelivery(now),
		Actor:            req.UserID,
	}
	if req.ShippingFee != nil {
		if req.ShippingFee.IsNegative() {
			return nil, apperr.Invalid("InvalidValue", "shipping fee must not be negative").With("field", "shippingFee")
		}
		d.ShippingFee = *req.ShippingFee
	}
	if d.RecipientName == "" {
		d.RecipientName = "수령인"
	}
	if d.RecipientPhone == "" {
		d.RecipientPhone = "-"
	}
	if d.Actor == "" {
		d.Actor = systemActor
	}

	o, closed, err := s.repo.Ship(ctx, d)
	if err != nil {
		return nil, classify(err)
	}
	s.log.Info("order shipped",
		zap.String("order", o.OrderNumber), zap.String("carrier", d.Carrier), zap.String("tracking", d.TrackingNumber))
	return &ProcessResult{
		ShippingID:     o.ID,
		TrackingNumber: d.TrackingNumber,
		Status:         "배송중",
		Order:          OrderSummary{ID: o.ID, OrderNumber: o.OrderNumber, ItemCount: len(o.Items), TotalQuantity: o.TotalQuantity},
		Shipping: Details{
			Carrier: d.Carrier, ShippingFee: d.ShippingFee, StartTime: d.ShippedAt, ExpectedDelivery: d.ExpectedDelivery,
		},
		Recipient:     Recipient{Name: d.RecipientName, Phone: d.RecipientPhone, Address: o.ShippingAddress},
		PackingClosed: closed,
	}, nil
}

func (s *service) Deliver(ctx context.Context, req DeliverRequest) (*DeliverResult, error) {
	if err := httpx.Required(httpx.F("orderId", req.OrderID), httpx.F("userId", req.UserID)); err != nil {
		return nil, err
	}
	orderID, err := httpx.ParseID("orderId", req.OrderID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	o, err := s.repo.Deliver(ctx, orderID, req.UserID, now)
	if err != nil {
		return nil, classify(err)
	}
	s.log.Info("order delivered", zap.String("order", o.OrderNumber))
	return &DeliverResult{OrderID: o.ID, OrderNumber: o.OrderNumber, Status: "배송완료", DeliveredAt: now}, nil
}

func (s *service) List(ctx context.Context, f ListFilter) ([]*Shipment, int, error) {
	if f.Status == "all" {
		f.Status = ""
	}
	if f.Carrier == "all" {
		f.Carrier = ""
	}
	if f.Status != "" && !slices.Contains(outbound.ValidStatuses, string(f.Status)) {
		return nil, 0, apperr.InvalidValue("status", outbound.ValidStatuses)
	}
	out, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, classify(err)
	}
	return out, total, nil
}

func (s *service) Track(ctx context.Context, trackingNumber string) (*Shipment, error) {
	sh, err := s.repo.Track(ctx, trackingNumber)
	if err != nil {
		return nil, apperr.FromRepo(err, ErrShipmentNotFound())
	}
	return sh, nil
}

func classify(err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Internal(err)
}
