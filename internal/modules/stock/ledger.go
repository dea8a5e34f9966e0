package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/database"
	"github.com/georgemunganga/wms-backend/internal/metrics"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Ledger operation names, used as metric labels.
const (
	OpInbound     = "inbound"
	OpOutbound    = "outbound"
	OpTransferOut = "transfer_out"
	OpTransferIn  = "transfer_in"
	OpAdjust      = "adjust"
	OpRestock     = "return_restock"
)

// Every function in this file takes a sqlx.ExtContext so it can run inside the
// caller's transaction. Quantities never go below zero: decrements are a single
// conditional UPDATE and absolute writes lock the row first.

// ErrStockNotFound is returned when no warehouse_products row exists for the pair.
func ErrStockNotFound() *apperr.Error {
	e := apperr.NotFound("StockNotFound", "stock record not found")
	e.Code = apperr.CodeInventoryNotFound
	return e
}

// Increment adds qty units, creating the row when the pair has never been stocked.
func Increment(ctx context.Context, q sqlx.ExtContext, op string, warehouseID, productID uuid.UUID, qty int) (*Movement, error) {
	if qty <= 0 {
		return nil, apperr.Invalid("PositiveQuantity", "quantity must be greater than zero")
	}
	var row struct {
		Quantity int  `db:"quantity"`
		Inserted bool `db:"inserted"`
	}
	err := sqlx.GetContext(ctx, q, &row, `
		INSERT INTO warehouse_products (id, warehouse_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (warehouse_id, product_id)
		DO UPDATE SET quantity = warehouse_products.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING quantity, (xmax = 0) AS inserted`,
		uuid.New(), warehouseID, productID, qty)
	if err != nil {
		return nil, ledgerErr(op, fmt.Errorf("increment stock: %w", err))
	}
	metrics.ObserveMovement(op, qty)
	return &Movement{
		WarehouseID: warehouseID,
		ProductID:   productID,
		Before:      row.Quantity - qty,
		After:       row.Quantity,
		Delta:       qty,
		Created:     row.Inserted,
	}, nil
}

// Decrement removes qty units from the normal bucket. Reserved and defective
// units are never drawn down. A missing row is NotFound; a short row is
// InsufficientStock carrying the normal quantity seen.
func Decrement(ctx context.Context, q sqlx.ExtContext, op string, warehouseID, productID uuid.UUID, qty int) (*Movement, error) {
	if qty <= 0 {
		return nil, apperr.Invalid("PositiveQuantity", "quantity must be greater than zero")
	}
	var after int
	err := sqlx.GetContext(ctx, q, &after, `
		UPDATE warehouse_products
		SET quantity = quantity - $1, updated_at = NOW()
		WHERE warehouse_id = $2 AND product_id = $3
		  AND quantity - reserved_quantity - defective_quantity >= $1
		RETURNING quantity`,
		qty, warehouseID, productID)
	if err == nil {
		metrics.ObserveMovement(op, qty)
		return &Movement{
			WarehouseID: warehouseID,
			ProductID:   productID,
			Before:      after + qty,
			After:       after,
			Delta:       -qty,
		}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, ledgerErr(op, fmt.Errorf("decrement stock: %w", err))
	}

	// the guarded update matched nothing: tell the caller why
	var current Level
	err = sqlx.GetContext(ctx, q, &current, `
		SELECT quantity, reserved_quantity, defective_quantity
		FROM warehouse_products WHERE warehouse_id = $1 AND product_id = $2`,
		warehouseID, productID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		metrics.ObserveRejection(op, "not_found")
		return nil, ErrStockNotFound()
	case err != nil:
		return nil, ledgerErr(op, fmt.Errorf("read stock: %w", err))
	}
	return nil, shortfall(op, current, qty)
}

// shortfall explains a decrement of qty that the guarded update refused.
func shortfall(op string, l Level, qty int) error {
	available := l.Buckets().Normal
	if available >= qty {
		// another transaction topped the row up after our update was evaluated
		metrics.ObserveRejection(op, "concurrent")
		return apperr.ConcurrentModification("stock")
	}
	metrics.ObserveRejection(op, "insufficient")
	return apperr.InsufficientStock(available, qty)
}

// Lock reads the level with FOR UPDATE. The row stays locked until q's transaction ends.
func Lock(ctx context.Context, q sqlx.ExtContext, warehouseID, productID uuid.UUID) (*Level, error) {
	l := &Level{}
	err := sqlx.GetContext(ctx, q, l, `
		SELECT id, warehouse_id, product_id, quantity, reserved_quantity, defective_quantity,
		       safe_stock, is_active, updated_at
		FROM warehouse_products
		WHERE warehouse_id = $1 AND product_id = $2
		FOR UPDATE`,
		warehouseID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStockNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("lock stock: %w", err)
	}
	return l, nil
}

// Set writes an absolute quantity, used by cycle-count adjustments. The new
// quantity must still cover the reserved and defective buckets.
func Set(ctx context.Context, q sqlx.ExtContext, op string, warehouseID, productID uuid.UUID, qty int) (*Movement, error) {
	if qty < 0 {
		return nil, apperr.Invalid("InvalidValue", "quantity must not be negative").With("field", "quantity")
	}
	l, err := Lock(ctx, q, warehouseID, productID)
	if err != nil {
		return nil, err
	}
	if err := checkFloor(*l, qty); err != nil {
		metrics.ObserveRejection(op, "below_held")
		return nil, err
	}
	if _, err := q.ExecContext(ctx,
		`UPDATE warehouse_products SET quantity = $1, updated_at = NOW() WHERE id = $2`,
		qty, l.ID); err != nil {
		return nil, ledgerErr(op, fmt.Errorf("set stock: %w", err))
	}
	metrics.ObserveMovement(op, qty-l.Quantity)
	return &Movement{
		WarehouseID: warehouseID,
		ProductID:   productID,
		Before:      l.Quantity,
		After:       qty,
		Delta:       qty - l.Quantity,
	}, nil
}

// Transfer moves qty units from one warehouse to another. The sum across the
// two rows is unchanged.
func Transfer(ctx context.Context, q sqlx.ExtContext, productID, fromWarehouseID, toWarehouseID uuid.UUID, qty int) (out, in *Movement, err error) {
	if out, err = Decrement(ctx, q, OpTransferOut, fromWarehouseID, productID, qty); err != nil {
		return nil, nil, err
	}
	if err = RequireWarehouse(ctx, q, toWarehouseID); err != nil {
		return nil, nil, err
	}
	if in, err = Increment(ctx, q, OpTransferIn, toWarehouseID, productID, qty); err != nil {
		return nil, nil, err
	}
	return out, in, nil
}

// RequireWarehouse returns WarehouseNotFound unless id names an active warehouse.
func RequireWarehouse(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) error {
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists,
		`SELECT EXISTS (SELECT 1 FROM warehouses WHERE id = $1 AND is_active)`, id); err != nil {
		return fmt.Errorf("check warehouse: %w", err)
	}
	if !exists {
		return apperr.NotFound("WarehouseNotFound", "warehouse not found")
	}
	return nil
}

// SetBuckets persists the reserved and defective split of a locked level.
func SetBuckets(ctx context.Context, q sqlx.ExtContext, levelID uuid.UUID, b Buckets) error {
	_, err := q.ExecContext(ctx, `
		UPDATE warehouse_products
		SET reserved_quantity = $1, defective_quantity = $2, updated_at = NOW()
		WHERE id = $3`,
		b.Reserved, b.Defective, levelID)
	if err != nil {
		return fmt.Errorf("set stock buckets: %w", err)
	}
	return nil
}

// GetView loads the joined display row for the pair.
func GetView(ctx context.Context, q sqlx.QueryerContext, warehouseID, productID uuid.UUID) (*View, error) {
	v := &View{}
	err := sqlx.GetContext(ctx, q, v, viewSelect+` WHERE wp.warehouse_id = $1 AND wp.product_id = $2`,
		warehouseID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStockNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("get stock view: %w", err)
	}
	return v, nil
}

// ViewsByWarehouse loads the display rows of every listed warehouse, ordered by product code.
func ViewsByWarehouse(ctx context.Context, q sqlx.QueryerContext, warehouseIDs []uuid.UUID) ([]*View, error) {
	if len(warehouseIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(warehouseIDs))
	for i, id := range warehouseIDs {
		ids[i] = id.String()
	}
	var out []*View
	if err := sqlx.SelectContext(ctx, q, &out,
		viewSelect+` WHERE wp.warehouse_id = ANY($1::uuid[]) ORDER BY w.code, p.code`,
		pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list warehouse stock: %w", err)
	}
	return out, nil
}

const viewSelect = `
	SELECT wp.id, wp.warehouse_id, wp.product_id, wp.quantity, wp.reserved_quantity,
	       wp.defective_quantity, wp.safe_stock, wp.is_active, wp.updated_at,
	       p.code AS product_code, p.name AS product_name, p.sku,
	       w.code AS warehouse_code, w.name AS warehouse_name
	FROM warehouse_products wp
	JOIN products p ON p.id = wp.product_id
	JOIN warehouses w ON w.id = wp.warehouse_id`

// checkFloor rejects an absolute quantity smaller than the units held back in
// the reserved and defective buckets.
func checkFloor(l Level, qty int) error {
	held := l.ReservedQuantity + l.DefectiveQuantity
	if qty >= held {
		return nil
	}
	return apperr.Invalid("QuantityBelowHeld", "quantity cannot be less than the reserved and defective units").
		With("field", "quantity").
		With("held", held).
		With("requested", qty)
}

func ledgerErr(op string, err error) error {
	if database.IsSerializationFailure(err) {
		metrics.ObserveRejection(op, "concurrent")
		return apperr.ConcurrentModification("stock").Wrap(err)
	}
	return err
}
