package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/database"
	"github.com/georgemunganga/wms-backend/internal/metrics"
	"github.com/georgemunganga/wms-backend/internal/modules/audit"
	"github.com/georgemunganga/wms-backend/internal/modules/product"
	"github.com/georgemunganga/wms-backend/internal/refid"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const entityWarehouseProduct = "WarehouseProduct"

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) GetProduct(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	return product.Get(ctx, r.db, id)
}

func (r *postgresRepo) Levels(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID) ([]*View, error) {
	query := viewSelect + ` WHERE wp.product_id = $1`
	args := []any{productID}
	if warehouseID != nil {
		query += ` AND wp.warehouse_id = $2`
		args = append(args, *warehouseID)
	}
	query += ` ORDER BY w.code`

	var out []*View
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list product stock: %w", err)
	}
	return out, nil
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]*View, int, error) {
	conds := []string{"wp.is_active"}
	var args []any
	if f.WarehouseID != nil {
		conds = append(conds, "wp.warehouse_id = ?")
		args = append(args, *f.WarehouseID)
	}
	if f.LowStock {
		conds = append(conds, "wp.quantity < wp.safe_stock")
	}
	if f.Search != "" {
		conds = append(conds, "(p.name ILIKE ? OR p.code ILIKE ? OR p.sku ILIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like, like)
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	countQuery := r.db.Rebind(`
		SELECT COUNT(*)
		FROM warehouse_products wp
		JOIN products p ON p.id = wp.product_id
		JOIN warehouses w ON w.id = wp.warehouse_id` + where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count stock: %w", err)
	}

	query := r.db.Rebind(viewSelect + where + ` ORDER BY w.code, p.code LIMIT ? OFFSET ?`)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	var out []*View
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list stock: %w", err)
	}
	return out, total, nil
}

func (r *postgresRepo) OpenDemand(ctx context.Context, productID uuid.UUID) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
		SELECT COALESCE(SUM(GREATEST(i.quantity - i.picked_qty, 0)), 0)
		FROM outbound_order_items i
		JOIN outbound_orders o ON o.id = i.order_id
		WHERE i.product_id = $1 AND o.status IN ('pending', 'picking', 'packing')`, productID)
	if err != nil {
		return 0, fmt.Errorf("sum open demand: %w", err)
	}
	return n, nil
}

// lockTarget locks the named warehouse's row, or the product's row with the
// most normal stock when no warehouse is given.
func lockTarget(ctx context.Context, tx *sqlx.Tx, productID uuid.UUID, warehouseID *uuid.UUID) (*Level, error) {
	if warehouseID != nil {
		return Lock(ctx, tx, *warehouseID, productID)
	}
	l := &Level{}
	err := tx.GetContext(ctx, l, `
		SELECT id, warehouse_id, product_id, quantity, reserved_quantity, defective_quantity,
		       safe_stock, is_active, updated_at
		FROM warehouse_products
		WHERE product_id = $1 AND is_active
		ORDER BY GREATEST(quantity - reserved_quantity - defective_quantity, 0) DESC, quantity DESC
		LIMIT 1
		FOR UPDATE`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStockNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("lock product stock: %w", err)
	}
	return l, nil
}

func (r *postgresRepo) ChangeStatus(ctx context.Context, c statusChange) (*StatusChangeResult, error) {
	var res *StatusChangeResult
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		l, err := lockTarget(ctx, tx, c.ProductID, c.WarehouseID)
		if err != nil {
			return err
		}
		before := l.Buckets()
		after, err := before.Move(c.From, c.To, c.Quantity)
		if err != nil {
			if apperr.IsKind(err, apperr.KindInsufficientStock) {
				metrics.ObserveRejection("status_change", "insufficient")
			}
			return err
		}
		if err := SetBuckets(ctx, tx, l.ID, after); err != nil {
			return err
		}
		if _, err := audit.Record(ctx, tx, audit.ActionStockStatusChange, entityWarehouseProduct, c.ProductID.String(), c.UserID, map[string]any{
			"warehouseId":    l.WarehouseID,
			"fromStatus":     c.From,
			"toStatus":       c.To,
			"changeQuantity": c.Quantity,
			"before":         before,
			"after":          after,
			"reason":         c.Reason,
		}); err != nil {
			return err
		}
		view, err := GetView(ctx, tx, l.WarehouseID, l.ProductID)
		if err != nil {
			return err
		}
		res = &StatusChangeResult{Stock: view, Before: before, After: after, From: c.From, To: c.To, Moved: c.Quantity}
		return nil
	})
	if err != nil {
		return nil, ledgerErr("status_change", err)
	}
	return res, nil
}

func (r *postgresRepo) Transfer(ctx context.Context, t transfer) (*TransferResult, error) {
	var res *TransferResult
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		out, _, err := Transfer(ctx, tx, t.ProductID, t.FromWarehouseID, t.ToWarehouseID, t.Quantity)
		if err != nil {
			return err
		}
		source, err := GetView(ctx, tx, t.FromWarehouseID, t.ProductID)
		if err != nil {
			return err
		}
		target, err := GetView(ctx, tx, t.ToWarehouseID, t.ProductID)
		if err != nil {
			return err
		}
		transferID := refid.New(refid.Transfer)
		if _, err := audit.Record(ctx, tx, audit.ActionStockLocationChange, entityWarehouseProduct, t.ProductID.String(), t.UserID, map[string]any{
			"transferId":      transferID,
			"fromWarehouseId": t.FromWarehouseID,
			"toWarehouseId":   t.ToWarehouseID,
			"quantity":        t.Quantity,
			"sourceBefore":    out.Before,
			"sourceAfter":     out.After,
			"reason":          t.Reason,
		}); err != nil {
			return err
		}
		res = &TransferResult{
			TransferID: transferID,
			Source:     source,
			Target:     target,
			Movement: TransferDetail{
				From:              source.WarehouseName,
				To:                target.WarehouseName,
				Quantity:          t.Quantity,
				RemainingAtSource: out.After,
			},
		}
		return nil
	})
	if err != nil {
		return nil, ledgerErr(OpTransferOut, err)
	}
	return res, nil
}

func (r *postgresRepo) RecordCount(ctx context.Context, in countInput) (*CountResult, error) {
	var res *CountResult
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		l, err := Lock(ctx, tx, in.WarehouseID, in.ProductID)
		if err != nil {
			return err
		}
		diff, rate, needsApproval := evaluateCount(l.Quantity, in.Counted)
		now := time.Now().UTC()
		c := &Count{
			ID:               uuid.New(),
			CountNumber:      refid.New(refid.StockCount),
			ProductID:        in.ProductID,
			WarehouseID:      in.WarehouseID,
			ExpectedQuantity: l.Quantity,
			CountedQuantity:  in.Counted,
			Difference:       diff,
			Status:           CountPending,
			Auditor:          in.Auditor,
			Notes:            in.Notes,
			CreatedAt:        now,
		}
		if !needsApproval {
			c.Status = CountApproved
			c.ResolvedAt = &now
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO stock_counts (id, count_number, product_id, warehouse_id, expected_quantity,
				counted_quantity, difference, status, auditor, approver, notes, created_at, resolved_at)
			VALUES (:id, :count_number, :product_id, :warehouse_id, :expected_quantity,
				:counted_quantity, :difference, :status, :auditor, :approver, :notes, :created_at, :resolved_at)`, c); err != nil {
			return fmt.Errorf("insert stock count: %w", err)
		}

		adjusted := false
		if !needsApproval && diff != 0 {
			if err := applyCount(ctx, tx, c, in.Auditor); err != nil {
				return err
			}
			adjusted = true
		}
		if _, err := audit.Record(ctx, tx, audit.ActionStockAudit, entityWarehouseProduct, in.ProductID.String(), in.Auditor, map[string]any{
			"auditId":          c.CountNumber,
			"warehouseId":      in.WarehouseID,
			"systemQuantity":   c.ExpectedQuantity,
			"auditQuantity":    c.CountedQuantity,
			"difference":       diff,
			"differenceRate":   rate,
			"requiresApproval": needsApproval,
			"notes":            in.Notes,
		}); err != nil {
			return err
		}
		view, err := GetView(ctx, tx, in.WarehouseID, in.ProductID)
		if err != nil {
			return err
		}
		res = &CountResult{
			Count:            c,
			Status:           c.Status.Label(),
			DifferenceRate:   rate,
			RequiresApproval: needsApproval,
			Adjusted:         adjusted,
			Stock:            view,
		}
		return nil
	})
	if err != nil {
		return nil, ledgerErr(OpAdjust, err)
	}
	return res, nil
}

// applyCount sets the level to the counted quantity and records the adjustment.
func applyCount(ctx context.Context, tx *sqlx.Tx, c *Count, actor string) error {
	mv, err := Set(ctx, tx, OpAdjust, c.WarehouseID, c.ProductID, c.CountedQuantity)
	if err != nil {
		return err
	}
	_, err = audit.Record(ctx, tx, audit.ActionStockAdjusted, entityWarehouseProduct, c.ProductID.String(), actor, map[string]any{
		"auditId":     c.CountNumber,
		"warehouseId": c.WarehouseID,
		"before":      mv.Before,
		"after":       mv.After,
		"delta":       mv.Delta,
	})
	return err
}

func (r *postgresRepo) ResolveCount(ctx context.Context, countNumber, approver string, approve bool, reason string) (*CountResult, error) {
	var res *CountResult
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		c := &Count{}
		err := tx.GetContext(ctx, c, `SELECT * FROM stock_counts WHERE count_number = $1 FOR UPDATE`, countNumber)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("StockCountNotFound", "stock count not found")
		}
		if err != nil {
			return fmt.Errorf("lock stock count: %w", err)
		}
		if c.Status != CountPending {
			return apperr.Conflict("AlreadyResolved", "stock count already resolved")
		}

		c.Status = CountRejected
		if approve {
			c.Status = CountApproved
			if err := applyCount(ctx, tx, c, approver); err != nil {
				return err
			}
		}
		now := time.Now().UTC()
		c.Approver = approver
		c.ResolvedAt = &now
		if reason != "" {
			c.Notes = strings.TrimSpace(c.Notes + "\n" + reason)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE stock_counts SET status = $1, approver = $2, notes = $3, resolved_at = $4 WHERE id = $5`,
			c.Status, c.Approver, c.Notes, now, c.ID); err != nil {
			return fmt.Errorf("resolve stock count: %w", err)
		}
		view, err := GetView(ctx, tx, c.WarehouseID, c.ProductID)
		if err != nil {
			return err
		}
		_, rate, _ := evaluateCount(c.ExpectedQuantity, c.CountedQuantity)
		res = &CountResult{
			Count:          c,
			Status:         c.Status.Label(),
			DifferenceRate: rate,
			Adjusted:       approve && c.Difference != 0,
			Stock:          view,
		}
		return nil
	})
	if err != nil {
		return nil, ledgerErr(OpAdjust, err)
	}
	return res, nil
}

func (r *postgresRepo) Reserve(ctx context.Context, rsv *Reservation) (*ReserveResult, error) {
	var res *ReserveResult
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var target *uuid.UUID
		if rsv.WarehouseID != uuid.Nil {
			target = &rsv.WarehouseID
		}
		l, err := lockTarget(ctx, tx, rsv.ProductID, target)
		if err != nil {
			return err
		}
		after, err := l.Buckets().Move(BucketNormal, BucketReserved, rsv.Quantity)
		if err != nil {
			if apperr.IsKind(err, apperr.KindInsufficientStock) {
				metrics.ObserveRejection("reserve", "insufficient")
			}
			return err
		}
		if err := SetBuckets(ctx, tx, l.ID, after); err != nil {
			return err
		}

		rsv.WarehouseID = l.WarehouseID
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO stock_reservations (id, reservation_number, product_id, warehouse_id, order_id,
				quantity, user_id, status, expires_at, created_at)
			VALUES (:id, :reservation_number, :product_id, :warehouse_id, :order_id,
				:quantity, :user_id, :status, :expires_at, :created_at)`, rsv); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		if _, err := audit.Record(ctx, tx, audit.ActionStockReserve, entityWarehouseProduct, rsv.ProductID.String(), rsv.UserID, map[string]any{
			"reservationId": rsv.ReservationNumber,
			"warehouseId":   rsv.WarehouseID,
			"quantity":      rsv.Quantity,
			"expiresAt":     rsv.ExpiresAt,
			"orderId":       rsv.OrderID,
		}); err != nil {
			return err
		}

		var remaining int
		if err := tx.GetContext(ctx, &remaining, `
			SELECT COALESCE(SUM(GREATEST(quantity - reserved_quantity - defective_quantity, 0)), 0)
			FROM warehouse_products WHERE product_id = $1 AND is_active`, rsv.ProductID); err != nil {
			return fmt.Errorf("sum available stock: %w", err)
		}
		view, err := GetView(ctx, tx, l.WarehouseID, l.ProductID)
		if err != nil {
			return err
		}
		res = &ReserveResult{
			ReservationID:      rsv.ReservationNumber,
			Reservation:        rsv,
			Stock:              view,
			RemainingAvailable: remaining,
		}
		return nil
	})
	if err != nil {
		return nil, ledgerErr("reserve", err)
	}
	return res, nil
}

// ErrReservationNotFound is returned for unknown reservation numbers.
func ErrReservationNotFound() *apperr.Error {
	return apperr.NotFound("ReservationNotFound", "reservation not found")
}

func (r *postgresRepo) Release(ctx context.Context, reservationNumber, userID string) (*Reservation, error) {
	var out *Reservation
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		rsv := &Reservation{}
		err := tx.GetContext(ctx, rsv,
			`SELECT * FROM stock_reservations WHERE reservation_number = $1 FOR UPDATE`, reservationNumber)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReservationNotFound()
		}
		if err != nil {
			return fmt.Errorf("lock reservation: %w", err)
		}
		if rsv.Status != ReservationActive {
			return apperr.Conflict("AlreadyResolved", "reservation is no longer active")
		}
		if err := release(ctx, tx, rsv, ReservationReleased, userID); err != nil {
			return err
		}
		out = rsv
		return nil
	})
	if err != nil {
		return nil, ledgerErr("release", err)
	}
	return out, nil
}

func (r *postgresRepo) ExpireReservations(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var due []*Reservation
		if err := tx.SelectContext(ctx, &due, `
			SELECT * FROM stock_reservations
			WHERE status = $1 AND expires_at <= $2
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED`, ReservationActive, now); err != nil {
			return fmt.Errorf("select expired reservations: %w", err)
		}
		for _, rsv := range due {
			if err := release(ctx, tx, rsv, ReservationExpired, "system"); err != nil {
				return err
			}
		}
		n = len(due)
		return nil
	})
	if err != nil {
		return 0, ledgerErr("release", err)
	}
	return n, nil
}

// release returns a locked reservation's units to the normal bucket.
func release(ctx context.Context, tx *sqlx.Tx, rsv *Reservation, status ReservationStatus, actor string) error {
	l, err := Lock(ctx, tx, rsv.WarehouseID, rsv.ProductID)
	if err != nil {
		return err
	}
	b := l.Buckets()
	freed := rsv.Quantity
	if freed > b.Reserved {
		// buckets were edited by hand since the hold was placed
		freed = b.Reserved
	}
	b.Reserved -= freed
	if err := SetBuckets(ctx, tx, l.ID, b); err != nil {
		return err
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE stock_reservations SET status = $1, released_at = $2 WHERE id = $3`,
		status, now, rsv.ID); err != nil {
		return fmt.Errorf("release reservation: %w", err)
	}
	rsv.Status = status
	rsv.ReleasedAt = &now

	_, err = audit.Record(ctx, tx, audit.ActionStockUnreserve, entityWarehouseProduct, rsv.ProductID.String(), actor, map[string]any{
		"reservationId": rsv.ReservationNumber,
		"warehouseId":   rsv.WarehouseID,
		"quantity":      freed,
		"status":        status,
	})
	return err
}
