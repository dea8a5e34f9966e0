package inbound

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/database"
	"github.com/georgemunganga/wms-backend/internal/modules/audit"
	"github.com/georgemunganga/wms-backend/internal/modules/product"
	"github.com/georgemunganga/wms-backend/internal/modules/stock"
	"github.com/georgemunganga/wms-backend/internal/refid"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	entityInbound          = "InboundRequest"
	entityWarehouseProduct = "WarehouseProduct"
)

const requestSelect = `
	SELECT r.id, r.request_number, r.po_number, r.supplier_id, COALESCE(s.name, '') AS supplier_name,
	       r.warehouse_id, r.status, r.request_date, r.expected_date, r.memo, r.created_by,
	       r.created_at, r.updated_at
	FROM inbound_requests r
	LEFT JOIN suppliers s ON s.id = r.supplier_id`

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) CreateManual(ctx context.Context, m manualInbound) (*ManualResult, error) {
	var res *ManualResult
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		p, err := product.Get(ctx, tx, m.ProductID)
		if errors.Is(err, sql.ErrNoRows) {
			return product.ErrNotFound()
		}
		if err != nil {
			return fmt.Errorf("load product: %w", err)
		}
		if err := stock.RequireWarehouse(ctx, tx, m.WarehouseID); err != nil {
			return err
		}

		now := time.Now().UTC()
		req := &Request{
			ID:            uuid.New(),
			RequestNumber: m.Number,
			SupplierID:    m.SupplierID,
			WarehouseID:   &m.WarehouseID,
			Status:        StatusCompleted,
			RequestDate:   now,
			ExpectedDate:  &now,
			Memo:          m.Notes,
			CreatedBy:     m.HandledBy,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := insertRequest(ctx, tx, req); err != nil {
			return err
		}
		item := &Item{
			ID: uuid.New(), RequestID: req.ID, ProductID: p.ID, SKU: p.SKU, ProductName: p.Name,
			Quantity: m.Quantity, UnitPrice: m.UnitPrice,
		}
		if err := insertItem(ctx, tx, item); err != nil {
			return err
		}
		req.Items = []*Item{item}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO inbound_schedules (id, request_id, carrier, status, scheduled_date, arrived_at)
			VALUES ($1, $2, 'manual', $3, $4, $4)`,
			uuid.New(), req.ID, ScheduleArrived, now); err != nil {
			return fmt.Errorf("insert inbound schedule: %w", err)
		}

		mv, err := stock.Increment(ctx, tx, stock.OpInbound, m.WarehouseID, m.ProductID, m.Quantity)
		if err != nil {
			return err
		}
		if _, err := audit.Record(ctx, tx, audit.ActionInboundManual, entityWarehouseProduct, m.ProductID.String(), m.HandledBy, map[string]any{
			"inboundId":   m.Number,
			"warehouseId": m.WarehouseID,
			"quantity":    m.Quantity,
			"before":      mv.Before,
			"after":       mv.After,
			"unitPrice":   m.UnitPrice,
			"notes":       m.Notes,
		}); err != nil {
			return err
		}
		view, err := stock.GetView(ctx, tx, m.WarehouseID, m.ProductID)
		if err != nil {
			return err
		}
		res = &ManualResult{
			InboundID:    m.Number,
			InboundDate:  now,
			Status:       "완료",
			UpdatedStock: view,
			Movement:     mv,
			Request:      req,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func insertRequest(ctx context.Context, tx *sqlx.Tx, req *Request) error {
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO inbound_requests (id, request_number, po_number, supplier_id, warehouse_id, status,
			request_date, expected_date, memo, created_by, created_at, updated_at)
		VALUES (:id, :request_number, :po_number, :supplier_id, :warehouse_id, :status,
			:request_date, :expected_date, :memo, :created_by, :created_at, :updated_at)`, req)
	if err != nil {
		return fmt.Errorf("insert inbound request: %w", err)
	}
	return nil
}

func insertItem(ctx context.Context, tx *sqlx.Tx, it *Item) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO inbound_request_items (id, request_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`,
		it.ID, it.RequestID, it.ProductID, it.Quantity, it.UnitPrice)
	if err != nil {
		return fmt.Errorf("insert inbound item: %w", err)
	}
	return nil
}

// findOrCreateSupplier looks a supplier up by name, registering it when unknown.
func findOrCreateSupplier(ctx context.Context, tx *sqlx.Tx, name string) (*Supplier, error) {
	s := &Supplier{
		ID:    uuid.New(),
		Name:  name,
		Code:  refid.New(refid.Supplier),
		Email: strings.ToLower(strings.Join(strings.Fields(name), "")) + "@example.com",
	}
	err := tx.GetContext(ctx, s, `
		INSERT INTO suppliers (id, name, code, email)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, code, email, created_at`,
		s.ID, s.Name, s.Code, s.Email)
	if err != nil {
		return nil, fmt.Errorf("find or create supplier: %w", err)
	}
	return s, nil
}

func (r *postgresRepo) CreateRequest(ctx context.Context, in newRequest) (*Request, error) {
	var out *Request
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		sup, err := findOrCreateSupplier(ctx, tx, in.SupplierName)
		if err != nil {
			return err
		}
		if in.WarehouseID != nil {
			if err := stock.RequireWarehouse(ctx, tx, *in.WarehouseID); err != nil {
				return err
			}
		}
		now := time.Now().UTC()
		req := &Request{
			ID:            uuid.New(),
			RequestNumber: in.Number,
			PONumber:      in.PONumber,
			SupplierID:    &sup.ID,
			SupplierName:  sup.Name,
			WarehouseID:   in.WarehouseID,
			Status:        StatusSubmitted,
			RequestDate:   in.RequestDate,
			ExpectedDate:  in.ExpectedDate,
			Memo:          in.Memo,
			CreatedBy:     in.CreatedBy,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := insertRequest(ctx, tx, req); err != nil {
			if database.IsUniqueViolation(err) {
				return apperr.Conflict("Duplicate", "inbound request already exists")
			}
			return err
		}
		for _, ni := range in.Items {
			p, _, err := product.FindOrCreateBySKU(ctx, tx, ni.SKU, ni.Name, ni.UnitPrice)
			if err != nil {
				return err
			}
			it := &Item{
				ID: uuid.New(), RequestID: req.ID, ProductID: p.ID, SKU: p.SKU, ProductName: p.Name,
				Quantity: ni.Quantity, UnitPrice: ni.UnitPrice,
			}
			if err := insertItem(ctx, tx, it); err != nil {
				return err
			}
			req.Items = append(req.Items, it)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO inbound_schedules (id, request_id, status, scheduled_date) VALUES ($1, $2, $3, $4)`,
			uuid.New(), req.ID, SchedulePending, req.ExpectedDate); err != nil {
			return fmt.Errorf("insert inbound schedule: %w", err)
		}
		req.Approval = &Approval{ID: uuid.New(), RequestID: req.ID, Status: ApprovalPending, CreatedAt: now, UpdatedAt: now}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO inbound_approvals (id, request_id, status, approver_name, created_at, updated_at)
			VALUES (:id, :request_id, :status, :approver_name, :created_at, :updated_at)`, req.Approval); err != nil {
			return fmt.Errorf("insert inbound approval: %w", err)
		}
		if _, err := audit.Record(ctx, tx, audit.ActionInboundRequest, entityInbound, req.RequestNumber, in.CreatedBy, map[string]any{
			"supplier":      sup.Name,
			"itemCount":     len(req.Items),
			"totalQuantity": req.TotalQuantity(),
		}); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) ListRequests(ctx context.Context, status Status) ([]*Request, error) {
	query := requestSelect
	var args []any
	if status != "" {
		query += ` WHERE r.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY r.request_date DESC`
	var out []*Request
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list inbound requests: %w", err)
	}
	if err := loadDetails(ctx, r.db, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) GetRequest(ctx context.Context, number string) (*Request, error) {
	return getRequest(ctx, r.db, number, false)
}

func getRequest(ctx context.Context, q sqlx.ExtContext, number string, forUpdate bool) (*Request, error) {
	query := requestSelect + ` WHERE r.request_number = $1`
	if forUpdate {
		query += ` FOR UPDATE OF r`
	}
	req := &Request{}
	if err := sqlx.GetContext(ctx, q, req, query, number); err != nil {
		return nil, err
	}
	if err := loadDetails(ctx, q, []*Request{req}); err != nil {
		return nil, err
	}
	return req, nil
}

// loadDetails attaches items and approvals to reqs.
func loadDetails(ctx context.Context, q sqlx.ExtContext, reqs []*Request) error {
	if len(reqs) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Request, len(reqs))
	ids := make([]uuid.UUID, 0, len(reqs))
	for _, req := range reqs {
		req.Items = []*Item{}
		byID[req.ID] = req
		ids = append(ids, req.ID)
	}

	query, args, err := sqlx.In(`
		SELECT i.id, i.request_id, i.product_id, p.sku, p.name AS product_name, i.quantity, i.unit_price
		FROM inbound_request_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.request_id IN (?)
		ORDER BY p.sku`, ids)
	if err != nil {
		return fmt.Errorf("build item query: %w", err)
	}
	var items []*Item
	if err := sqlx.SelectContext(ctx, q, &items, q.Rebind(query), args...); err != nil {
		return fmt.Errorf("list inbound items: %w", err)
	}
	for _, it := range items {
		byID[it.RequestID].Items = append(byID[it.RequestID].Items, it)
	}

	query, args, err = sqlx.In(`SELECT * FROM inbound_approvals WHERE request_id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("build approval query: %w", err)
	}
	var approvals []*Approval
	if err := sqlx.SelectContext(ctx, q, &approvals, q.Rebind(query), args...); err != nil {
		return fmt.Errorf("list inbound approvals: %w", err)
	}
	for _, a := range approvals {
		byID[a.RequestID].Approval = a
	}
	return nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, u statusUpdate) (*Request, error) {
	var out *Request
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		req, err := getRequest(ctx, tx, u.Number, true)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound()
		}
		if err != nil {
			return err
		}
		prev := req.Status
		if !prev.CanTransition(u.Status) {
			return apperr.InvalidTransition(entityInbound, string(prev), string(u.Status))
		}
		if prev == StatusCompleted {
			// already received; nothing to book again
			out = req
			return nil
		}
		now := time.Now().UTC()
		req.Status = u.Status
		req.UpdatedAt = now
		if u.Reason != "" {
			req.Memo = u.Reason
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE inbound_requests SET status = $1, memo = $2, updated_at = $3 WHERE id = $4`,
			req.Status, req.Memo, now, req.ID); err != nil {
			return fmt.Errorf("update inbound status: %w", err)
		}

		if a := req.Approval; a != nil {
			a.decide(u.Status, u.ApproverName, u.Reason, now)
			if _, err := tx.NamedExecContext(ctx, `
				UPDATE inbound_approvals
				SET status = :status, approver_name = :approver_name, approval_date = :approval_date,
				    rejection_reason = :rejection_reason, updated_at = :updated_at
				WHERE id = :id`, a); err != nil {
				return fmt.Errorf("update inbound approval: %w", err)
			}
		}

		// goods are booked on the move into completed, which is terminal
		if u.Status == StatusCompleted && req.WarehouseID != nil {
			for _, it := range req.Items {
				mv, err := stock.Increment(ctx, tx, stock.OpInbound, *req.WarehouseID, it.ProductID, it.Quantity)
				if err != nil {
					return err
				}
				if _, err := audit.Record(ctx, tx, audit.ActionInboundReceived, entityWarehouseProduct, it.ProductID.String(), u.Actor, map[string]any{
					"inboundId":   req.RequestNumber,
					"warehouseId": *req.WarehouseID,
					"quantity":    it.Quantity,
					"before":      mv.Before,
					"after":       mv.After,
				}); err != nil {
					return err
				}
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE inbound_schedules SET status = $1, arrived_at = $2, updated_at = $2 WHERE request_id = $3`,
				ScheduleArrived, now, req.ID); err != nil {
				return fmt.Errorf("update inbound schedule: %w", err)
			}
		}

		if _, err := audit.Record(ctx, tx, audit.ActionInboundStatus, entityInbound, req.RequestNumber, u.Actor, map[string]any{
			"from":   prev,
			"to":     req.Status,
			"reason": u.Reason,
		}); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) DeleteRequest(ctx context.Context, number, actor string) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var id uuid.UUID
		err := tx.GetContext(ctx, &id, `DELETE FROM inbound_requests WHERE request_number = $1 RETURNING id`, number)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound()
		}
		if err != nil {
			return fmt.Errorf("delete inbound request: %w", err)
		}
		_, err = audit.Record(ctx, tx, audit.ActionInboundDelete, entityInbound, number, actor, map[string]any{"id": id})
		return err
	})
}

func (r *postgresRepo) ListSchedules(ctx context.Context, status string) ([]*Schedule, error) {
	query := `
		SELECT sc.id, sc.request_id, r.request_number, sc.carrier, sc.tracking_number, sc.status,
		       sc.scheduled_date, sc.arrived_at, sc.created_at, sc.updated_at
		FROM inbound_schedules sc
		JOIN inbound_requests r ON r.id = sc.request_id`
	var args []any
	if status != "" {
		query += ` WHERE sc.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY sc.scheduled_date NULLS LAST, sc.created_at`
	var out []*Schedule
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list inbound schedules: %w", err)
	}
	return out, nil
}
