package returns

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/georgemunganga/wms-backend/internal/database"
	"github.com/georgemunganga/wms-backend/internal/modules/audit"
	"github.com/georgemunganga/wms-backend/internal/modules/outbound"
	"github.com/georgemunganga/wms-backend/internal/modules/product"
	"github.com/georgemunganga/wms-backend/internal/modules/stock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

const entityReturn = "ReturnRequest"

const returnSelect = `
	SELECT r.id, r.return_number, r.order_id, o.order_number, r.reason, r.description, r.return_quantity,
	       r.status, r.requested_by, r.expected_process_date, r.inspection, r.inspected_at, r.processed_at,
	       r.refund_number, r.refund_amount, r.refund_method, r.expected_refund_date, r.refunded_at,
	       r.notes, r.created_at, r.updated_at
	FROM return_requests r
	JOIN outbound_orders o ON o.id = r.order_id`

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

// refCondition matches a return by id or by return number.
func refCondition(ref string) (string, any) {
	if id, err := uuid.Parse(ref); err == nil {
		return "r.id = ?", id
	}
	return "r.return_number = ?", ref
}

func lockReturn(ctx context.Context, tx *sqlx.Tx, ref string) (*ReturnRequest, error) {
	cond, arg := refCondition(ref)
	rr := &ReturnRequest{}
	err := tx.GetContext(ctx, rr, tx.Rebind(returnSelect+` WHERE `+cond+` FOR UPDATE OF r`), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("load return: %w", err)
	}
	return rr, nil
}

func (r *postgresRepo) Create(ctx context.Context, in newReturn) (*ReturnRequest, error) {
	var out *ReturnRequest
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		o, err := outbound.Get(ctx, tx, in.OrderID, false)
		if errors.Is(err, sql.ErrNoRows) {
			return outbound.ErrNotFound()
		}
		if err != nil {
			return err
		}
		qty := in.Quantity
		if qty == 0 {
			qty = o.TotalQuantity
		}
		now := time.Now().UTC()
		rr := &ReturnRequest{
			ID:                  uuid.New(),
			ReturnNumber:        in.Number,
			OrderID:             o.ID,
			OrderNumber:         o.OrderNumber,
			Reason:              in.Reason,
			Description:         in.Description,
			ReturnQuantity:      qty,
			Status:              StatusRequested,
			RequestedBy:         in.RequestedBy,
			ExpectedProcessDate: in.ExpectedProcessDate,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO return_requests (id, return_number, order_id, reason, description, return_quantity,
				status, requested_by, expected_process_date, created_at, updated_at)
			VALUES (:id, :return_number, :order_id, :reason, :description, :return_quantity,
				:status, :requested_by, :expected_process_date, :created_at, :updated_at)`, rr); err != nil {
			return fmt.Errorf("insert return: %w", err)
		}
		if _, err := audit.Record(ctx, tx, audit.ActionReturnRequest, entityReturn, rr.ID.String(), in.RequestedBy, map[string]any{
			"returnNumber": rr.ReturnNumber,
			"orderNumber":  o.OrderNumber,
			"reason":       rr.Reason,
			"quantity":     qty,
		}); err != nil {
			return err
		}
		out = rr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) List(ctx context.Context, f listFilter) ([]*ReturnRequest, error) {
	conds := []string{"r.created_at >= ?"}
	args := []any{f.Since}
	if f.Ref != "" {
		cond, arg := refCondition(f.Ref)
		conds = append(conds, cond)
		args = append(args, arg)
	}
	if f.Status != "" {
		conds = append(conds, "r.status = ?")
		args = append(args, f.Status)
	}
	query := returnSelect + ` WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY r.created_at DESC`
	var out []*ReturnRequest
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list returns: %w", err)
	}
	return out, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, ref string, to Status, actor, notes string) (*ReturnRequest, Status, error) {
	var (
		out  *ReturnRequest
		from Status
	)
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		rr, err := lockReturn(ctx, tx, ref)
		if err != nil {
			return err
		}
		from = rr.Status
		if !CanTransition(from, to) {
			return ErrTransition(from, to)
		}
		now := time.Now().UTC()
		rr.Status, rr.UpdatedAt = to, now
		if notes != "" {
			rr.Notes = notes
		}
		if to == StatusProcessed {
			rr.ProcessedAt = &now
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE return_requests SET status = $1, notes = $2, processed_at = $3, updated_at = $4 WHERE id = $5`,
			rr.Status, rr.Notes, rr.ProcessedAt, now, rr.ID); err != nil {
			return fmt.Errorf("update return status: %w", err)
		}
		if _, err := audit.Record(ctx, tx, audit.ActionReturnStatus, entityReturn, rr.ID.String(), actor, map[string]any{
			"returnNumber": rr.ReturnNumber,
			"from":         from,
			"to":           to,
			"notes":        notes,
		}); err != nil {
			return err
		}
		out = rr
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return out, from, nil
}

func (r *postgresRepo) ProductNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	query, args, err := sqlx.In(`SELECT id, name FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build product name query: %w", err)
	}
	var rows []struct {
		ID   uuid.UUID `db:"id"`
		Name string    `db:"name"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load product names: %w", err)
	}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

func (r *postgresRepo) Inspect(ctx context.Context, ref string, in *Inspection) (*ReturnRequest, error) {
	var out *ReturnRequest
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		rr, err := lockReturn(ctx, tx, ref)
		if err != nil {
			return err
		}
		if !CanTransition(rr.Status, StatusInspected) {
			return ErrTransition(rr.Status, StatusInspected)
		}
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal inspection: %w", err)
		}
		doc := types.JSONText(raw)
		rr.Status, rr.Inspection, rr.InspectedAt, rr.UpdatedAt = StatusInspected, &doc, &in.InspectedAt, in.InspectedAt
		if _, err := tx.ExecContext(ctx, `
			UPDATE return_requests SET status = $1, inspection = $2, inspected_at = $3, updated_at = $3 WHERE id = $4`,
			rr.Status, doc, in.InspectedAt, rr.ID); err != nil {
			return fmt.Errorf("store inspection: %w", err)
		}
		if _, err := audit.Record(ctx, tx, audit.ActionReturnInspect, entityReturn, rr.ID.String(), in.InspectedBy, map[string]any{
			"returnNumber": rr.ReturnNumber,
			"inspectionId": in.InspectionID,
			"summary":      in.Summary,
		}); err != nil {
			return err
		}
		out = rr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) Classify(ctx context.Context, c classification) (*Classification, error) {
	var out *Classification
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		rr, err := lockReturn(ctx, tx, c.Ref)
		if err != nil {
			return err
		}
		if rr.Status != StatusClassified && !CanTransition(rr.Status, StatusClassified) {
			return ErrTransition(rr.Status, StatusClassified)
		}
		p, err := product.Get(ctx, tx, c.ProductID)
		if errors.Is(err, sql.ErrNoRows) {
			return product.ErrNotFound()
		}
		if err != nil {
			return fmt.Errorf("load product: %w", err)
		}
		now := time.Now().UTC()
		cl := &Classification{
			ID:                   uuid.New(),
			ClassificationNumber: c.Number,
			ReturnID:             rr.ID,
			ProductID:            p.ID,
			ProductCode:          p.Code,
			ProductName:          p.Name,
			DefectType:           c.DefectType,
			Disposition:          c.Disposition,
			Severity:             c.Severity,
			ActionRequired:       c.Action,
			ClassifiedBy:         c.Actor,
			CreatedAt:            now,
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO return_classifications (id, classification_number, return_id, product_id, defect_type,
				disposition, severity, action_required, classified_by, created_at)
			VALUES (:id, :classification_number, :return_id, :product_id, :defect_type,
				:disposition, :severity, :action_required, :classified_by, :created_at)`, cl); err != nil {
			return fmt.Errorf("insert classification: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE return_requests SET status = $1, updated_at = $2 WHERE id = $3`, StatusClassified, now, rr.ID); err != nil {
			return fmt.Errorf("update return status: %w", err)
		}
		if _, err := audit.Record(ctx, tx, audit.ActionReturnClassify, entityReturn, rr.ID.String(), c.Actor, map[string]any{
			"returnNumber":     rr.ReturnNumber,
			"classificationId": cl.ClassificationNumber,
			"productId":        p.ID,
			"defectType":       cl.DefectType,
			"disposition":      cl.Disposition,
			"severity":         cl.Severity,
		}); err != nil {
			return err
		}
		out = cl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) Process(ctx context.Context, p processing) (*ReturnRequest, []ProcessedItem, error) {
	var (
		out   *ReturnRequest
		items []ProcessedItem
	)
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		rr, err := lockReturn(ctx, tx, p.Ref)
		if err != nil {
			return err
		}
		if !CanTransition(rr.Status, StatusProcessed) {
			return ErrTransition(rr.Status, StatusProcessed)
		}
		if p.WarehouseID != nil {
			if err := stock.RequireWarehouse(ctx, tx, *p.WarehouseID); err != nil {
				return err
			}
		}
		now := time.Now().UTC()
		items = make([]ProcessedItem, 0, len(p.Items))
		for _, it := range p.Items {
			prod, err := product.Get(ctx, tx, it.ProductID)
			if errors.Is(err, sql.ErrNoRows) {
				return product.ErrNotFound().With("productId", it.ProductID)
			}
			if err != nil {
				return fmt.Errorf("load product: %w", err)
			}
			done := ProcessedItem{
				ProductID:   prod.ID,
				ProductName: prod.Name,
				Quantity:    it.Quantity,
				Disposition: it.Disposition,
			}
			if it.Disposition == "restock" {
				mv, err := stock.Increment(ctx, tx, stock.OpRestock, *p.WarehouseID, prod.ID, it.Quantity)
				if err != nil {
					return err
				}
				done.StockAfter = &mv.After
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO return_process_items (id, return_id, product_id, warehouse_id, quantity, disposition, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				uuid.New(), rr.ID, prod.ID, p.WarehouseID, it.Quantity, it.Disposition, now); err != nil {
				return fmt.Errorf("insert processed item: %w", err)
			}
			items = append(items, done)
		}
		rr.Status, rr.ProcessedAt, rr.UpdatedAt = StatusProcessed, &now, now
		if _, err := tx.ExecContext(ctx,
			`UPDATE return_requests SET status = $1, processed_at = $2, updated_at = $2 WHERE id = $3`,
			rr.Status, now, rr.ID); err != nil {
			return fmt.Errorf("update return status: %w", err)
		}
		if _, err := audit.Record(ctx, tx, audit.ActionReturnProcess, entityReturn, rr.ID.String(), p.Actor, map[string]any{
			"returnNumber": rr.ReturnNumber,
			"warehouseId":  p.WarehouseID,
			"items":        items,
		}); err != nil {
			return err
		}
		out = rr
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, items, nil
}

func (r *postgresRepo) Refund(ctx context.Context, rf refund) (*ReturnRequest, error) {
	var out *ReturnRequest
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		rr, err := lockReturn(ctx, tx, rf.Ref)
		if err != nil {
			return err
		}
		if !CanTransition(rr.Status, StatusRefunded) {
			return ErrTransition(rr.Status, StatusRefunded)
		}
		now := time.Now().UTC()
		rr.Status, rr.UpdatedAt, rr.RefundedAt = StatusRefunded, now, &now
		rr.RefundNumber, rr.RefundMethod, rr.ExpectedRefundDate = &rf.Number, &rf.Method, &rf.ExpectedDate
		rr.RefundAmount.Decimal, rr.RefundAmount.Valid = rf.Amount, true
		if _, err := tx.ExecContext(ctx, `
			UPDATE return_requests
			SET status = $1, refund_number = $2, refund_amount = $3, refund_method = $4,
			    expected_refund_date = $5, refunded_at = $6, updated_at = $6
			WHERE id = $7`,
			rr.Status, rf.Number, rf.Amount, rf.Method, rf.ExpectedDate, now, rr.ID); err != nil {
			return fmt.Errorf("record refund: %w", err)
		}
		if _, err := audit.Record(ctx, tx, audit.ActionReturnRefund, entityReturn, rr.ID.String(), rf.Actor, map[string]any{
			"returnNumber": rr.ReturnNumber,
			"refundId":     rf.Number,
			"amount":       rf.Amount,
			"method":       rf.Method,
		}); err != nil {
			return err
		}
		out = rr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
