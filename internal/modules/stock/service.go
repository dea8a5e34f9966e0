package stock

import (
	"context"
	"slices"
	"time"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/georgemunganga/wms-backend/internal/modules/audit"
	"github.com/georgemunganga/wms-backend/internal/modules/product"
	"github.com/georgemunganga/wms-backend/internal/refid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultMovementLimit = 100

// Availability is normal stock net of open order demand.
type Availability struct {
	ProductID        uuid.UUID `json:"productId"`
	NormalStock      int       `json:"normalStock"`
	OpenDemand       int       `json:"openDemand"`
	Available        int       `json:"available"`
	WarehouseDetails []*View   `json:"warehouseDetails"`
}

// MovementEntry is one stock-affecting audit row with its movement type.
type MovementEntry struct {
	*audit.Entry
	Type string `json:"type"`
}

// Service defines stock business logic.
type Service interface {
	GetProductStock(ctx context.Context, productID, warehouseID string) (*ProductStock, error)
	GetAvailability(ctx context.Context, productID string) (*Availability, error)
	ListStock(ctx context.Context, f ListFilter) ([]*View, int, error)
	ChangeStatus(ctx context.Context, req ChangeStatusRequest) (*StatusChangeResult, error)
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
	RecordCount(ctx context.Context, req CountRequest) (*CountResult, error)
	ResolveCount(ctx context.Context, req ResolveCountRequest) (*CountResult, error)
	Reserve(ctx context.Context, req ReserveRequest) (*ReserveResult, error)
	Release(ctx context.Context, reservationID, userID string) (*Reservation, error)
	ExpireReservations(ctx context.Context) (int, error)
	Movements(ctx context.Context, movementType, search string, limit int) ([]*MovementEntry, error)
}

type service struct {
	repo           Repository
	audit          audit.Repository
	reservationTTL time.Duration
	now            func() time.Time
	log            *zap.Logger
}

// NewService creates a new stock service. Reservations without an explicit
// expiry are held for reservationTTL.
func NewService(repo Repository, auditRepo audit.Repository, reservationTTL time.Duration, log *zap.Logger) Service {
	return &service{
		repo:           repo,
		audit:          auditRepo,
		reservationTTL: reservationTTL,
		now:            time.Now,
		log:            log,
	}
}

func (s *service) GetProductStock(ctx context.Context, productID, warehouseID string) (*ProductStock, error) {
	pid, err := httpx.ParseID("productId", productID)
	if err != nil {
		return nil, err
	}
	var wid *uuid.UUID
	if warehouseID != "" {
		id, err := httpx.ParseID("warehouseId", warehouseID)
		if err != nil {
			return nil, err
		}
		wid = &id
	}

	p, err := s.repo.GetProduct(ctx, pid)
	if err != nil {
		return nil, apperr.FromRepo(err, product.ErrNotFound())
	}
	levels, err := s.repo.Levels(ctx, pid, wid)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	out := &ProductStock{
		ProductID:        p.ID,
		ProductCode:      p.Code,
		ProductName:      p.Name,
		SKU:              p.SKU,
		WarehouseDetails: levels,
	}
	for _, l := range levels {
		b := l.Buckets()
		out.NormalStock += b.Normal
		out.ReservedStock += b.Reserved
		out.DefectiveStock += b.Defective
		out.TotalStock += l.Quantity
	}
	if out.WarehouseDetails == nil {
		out.WarehouseDetails = []*View{}
	}
	return out, nil
}

func (s *service) GetAvailability(ctx context.Context, productID string) (*Availability, error) {
	ps, err := s.GetProductStock(ctx, productID, "")
	if err != nil {
		return nil, err
	}
	demand, err := s.repo.OpenDemand(ctx, ps.ProductID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Availability{
		ProductID:        ps.ProductID,
		NormalStock:      ps.NormalStock,
		OpenDemand:       demand,
		Available:        max(ps.NormalStock-demand, 0),
		WarehouseDetails: ps.WarehouseDetails,
	}, nil
}

func (s *service) ListStock(ctx context.Context, f ListFilter) ([]*View, int, error) {
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return items, total, nil
}

func (s *service) ChangeStatus(ctx context.Context, req ChangeStatusRequest) (*StatusChangeResult, error) {
	if err := httpx.Required(
		httpx.F("productId", req.ProductID),
		httpx.F("changeQuantity", req.ChangeQuantity),
		httpx.F("fromStatus", req.FromStatus),
		httpx.F("toStatus", req.ToStatus),
		httpx.F("userId", req.UserID),
	); err != nil {
		return nil, err
	}
	from, err := ParseBucket("fromStatus", req.FromStatus)
	if err != nil {
		return nil, err
	}
	to, err := ParseBucket("toStatus", req.ToStatus)
	if err != nil {
		return nil, err
	}
	if from == to {
		return nil, apperr.Invalid("SameStatus", "from and to status are the same")
	}
	if req.ChangeQuantity <= 0 {
		return nil, apperr.Invalid("PositiveQuantity", "quantity must be greater than zero")
	}
	pid, err := httpx.ParseID("productId", req.ProductID)
	if err != nil {
		return nil, err
	}
	c := statusChange{ProductID: pid, From: from, To: to, Quantity: req.ChangeQuantity, UserID: req.UserID, Reason: req.Reason}
	if req.WarehouseID != "" {
		wid, err := httpx.ParseID("warehouseId", req.WarehouseID)
		if err != nil {
			return nil, err
		}
		c.WarehouseID = &wid
	}

	res, err := s.repo.ChangeStatus(ctx, c)
	if err != nil {
		return nil, classify(err)
	}
	s.log.Info("stock status changed",
		zap.String("product_id", pid.String()),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Int("quantity", c.Quantity))
	return res, nil
}

func (s *service) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if err := httpx.Required(
		httpx.F("productId", req.ProductID),
		httpx.F("fromWarehouseId", req.FromWarehouseID),
		httpx.F("toWarehouseId", req.ToWarehouseID),
		httpx.F("quantity", req.Quantity),
		httpx.F("userId", req.UserID),
	); err != nil {
		return nil, err
	}
	if req.FromWarehouseID == req.ToWarehouseID {
		return nil, apperr.Invalid("SameWarehouse", "source and destination warehouse are the same")
	}
	if req.Quantity <= 0 {
		return nil, apperr.Invalid("PositiveQuantity", "quantity must be greater than zero")
	}
	t := transfer{Quantity: req.Quantity, UserID: req.UserID, Reason: req.Reason}
	var err error
	if t.ProductID, err = httpx.ParseID("productId", req.ProductID); err != nil {
		return nil, err
	}
	if t.FromWarehouseID, err = httpx.ParseID("fromWarehouseId", req.FromWarehouseID); err != nil {
		return nil, err
	}
	if t.ToWarehouseID, err = httpx.ParseID("toWarehouseId", req.ToWarehouseID); err != nil {
		return nil, err
	}

	res, err := s.repo.Transfer(ctx, t)
	if err != nil {
		return nil, classify(err)
	}
	s.log.Info("stock transferred",
		zap.String("transfer_id", res.TransferID),
		zap.String("product_id", t.ProductID.String()),
		zap.Int("quantity", t.Quantity))
	return res, nil
}

func (s *service) RecordCount(ctx context.Context, req CountRequest) (*CountResult, error) {
	if err := httpx.Required(
		httpx.F("productId", req.ProductID),
		httpx.F("warehouseId", req.WarehouseID),
		httpx.F("auditQuantity", req.AuditQuantity),
		httpx.F("auditor", req.Auditor),
	); err != nil {
		return nil, err
	}
	if *req.AuditQuantity < 0 {
		return nil, apperr.Invalid("InvalidValue", "audit quantity must not be negative").With("field", "auditQuantity")
	}
	in := countInput{Counted: *req.AuditQuantity, Auditor: req.Auditor, Notes: req.Notes}
	var err error
	if in.ProductID, err = httpx.ParseID("productId", req.ProductID); err != nil {
		return nil, err
	}
	if in.WarehouseID, err = httpx.ParseID("warehouseId", req.WarehouseID); err != nil {
		return nil, err
	}

	res, err := s.repo.RecordCount(ctx, in)
	if err != nil {
		return nil, classify(err)
	}
	if res.RequiresApproval {
		s.log.Warn("stock count awaits approval",
			zap.String("audit_id", res.Count.CountNumber),
			zap.Int("difference", res.Count.Difference))
	}
	return res, nil
}

func (s *service) ResolveCount(ctx context.Context, req ResolveCountRequest) (*CountResult, error) {
	if err := httpx.Required(
		httpx.F("auditId", req.AuditID),
		httpx.F("approver", req.Approver),
	); err != nil {
		return nil, err
	}
	approve := req.Approve == nil || *req.Approve
	res, err := s.repo.ResolveCount(ctx, req.AuditID, req.Approver, approve, req.Reason)
	if err != nil {
		return nil, classify(err)
	}
	return res, nil
}

func (s *service) Reserve(ctx context.Context, req ReserveRequest) (*ReserveResult, error) {
	if err := httpx.Required(
		httpx.F("productId", req.ProductID),
		httpx.F("quantity", req.Quantity),
		httpx.F("userId", req.UserID),
	); err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, apperr.Invalid("PositiveQuantity", "quantity must be greater than zero")
	}
	now := s.now().UTC()
	rsv := &Reservation{
		ID:                uuid.New(),
		ReservationNumber: refid.New(refid.Reservation),
		Quantity:          req.Quantity,
		UserID:            req.UserID,
		Status:            ReservationActive,
		ExpiresAt:         now.Add(s.reservationTTL),
		CreatedAt:         now,
	}
	if req.ExpiresAt != nil {
		if !req.ExpiresAt.After(now) {
			return nil, apperr.Invalid("InvalidValue", "expiry must be in the future").With("field", "expiresAt")
		}
		rsv.ExpiresAt = req.ExpiresAt.UTC()
	}
	var err error
	if rsv.ProductID, err = httpx.ParseID("productId", req.ProductID); err != nil {
		return nil, err
	}
	if req.WarehouseID != "" {
		if rsv.WarehouseID, err = httpx.ParseID("warehouseId", req.WarehouseID); err != nil {
			return nil, err
		}
	}
	if req.OrderID != "" {
		oid, err := httpx.ParseID("orderId", req.OrderID)
		if err != nil {
			return nil, err
		}
		rsv.OrderID = &oid
	}

	res, err := s.repo.Reserve(ctx, rsv)
	if err != nil {
		return nil, classify(err)
	}
	s.log.Info("stock reserved",
		zap.String("reservation_id", rsv.ReservationNumber),
		zap.Int("quantity", rsv.Quantity),
		zap.Time("expires_at", rsv.ExpiresAt))
	return res, nil
}

func (s *service) Release(ctx context.Context, reservationID, userID string) (*Reservation, error) {
	if err := httpx.Required(
		httpx.F("reservationId", reservationID),
		httpx.F("userId", userID),
	); err != nil {
		return nil, err
	}
	rsv, err := s.repo.Release(ctx, reservationID, userID)
	if err != nil {
		return nil, classify(err)
	}
	return rsv, nil
}

func (s *service) ExpireReservations(ctx context.Context) (int, error) {
	n, err := s.repo.ExpireReservations(ctx, s.now().UTC())
	if err != nil {
		return 0, classify(err)
	}
	if n > 0 {
		s.log.Info("expired reservations released", zap.Int("count", n))
	}
	return n, nil
}

func (s *service) Movements(ctx context.Context, movementType, search string, limit int) ([]*MovementEntry, error) {
	f := audit.Filter{Actions: audit.StockActions, Search: search, Limit: limit}
	if f.Limit <= 0 {
		f.Limit = defaultMovementLimit
	}
	if movementType != "" && movementType != "all" {
		actions, ok := movementActions[movementType]
		if !ok {
			return nil, apperr.InvalidValue("type", append([]string{"all"}, MovementTypes...))
		}
		f.Actions = actions
	}

	entries, err := s.audit.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := make([]*MovementEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, &MovementEntry{Entry: e, Type: movementTypeOf(e.Action)})
	}
	return out, nil
}

// movementTypeOf names the movement filter an action belongs to.
func movementTypeOf(action string) string {
	for _, t := range MovementTypes {
		if slices.Contains(movementActions[t], action) {
			return t
		}
	}
	return "other"
}

// classify passes application errors through and wraps the rest.
func classify(err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Internal(err)
}
