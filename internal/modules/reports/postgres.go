package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/georgemunganga/wms-backend/internal/modules/inbound"
	"github.com/georgemunganga/wms-backend/internal/modules/outbound"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Only shipped goods count as sold and only approved receipts as stocked.
var (
	soldStatuses     = pq.Array([]string{string(outbound.StatusShipped), string(outbound.StatusDelivered)})
	receivedStatuses = pq.Array([]string{string(inbound.StatusApproved), string(inbound.StatusCompleted)})
)

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Activity(ctx context.Context, from, to time.Time) (*Activity, error) {
	a := &Activity{}
	if err := r.db.SelectContext(ctx, &a.Inbound, `
		SELECT r.request_date AS at, COALESCE(SUM(i.quantity), 0) AS quantity
		FROM inbound_requests r
		LEFT JOIN inbound_request_items i ON i.request_id = r.id
		WHERE r.request_date >= $1 AND r.request_date < $2
		GROUP BY r.id, r.request_date`, from, to); err != nil {
		return nil, fmt.Errorf("inbound activity: %w", err)
	}
	if err := r.db.SelectContext(ctx, &a.Outbound, `
		SELECT order_date AS at, total_quantity AS quantity
		FROM outbound_orders
		WHERE order_date >= $1 AND order_date < $2`, from, to); err != nil {
		return nil, fmt.Errorf("outbound activity: %w", err)
	}
	counts := []struct {
		dst   *int
		query string
		args  []any
	}{
		{&a.Picking, `SELECT COUNT(*) FROM picking_tasks WHERE created_at >= $1 AND created_at < $2`, nil},
		{&a.Returns, `SELECT COUNT(*) FROM return_requests WHERE created_at >= $1 AND created_at < $2`, nil},
		{&a.Shipping, `SELECT COUNT(*) FROM outbound_orders
			WHERE shipping_date >= $1 AND shipping_date < $2 AND status = ANY($3)`, []any{soldStatuses}},
	}
	for _, c := range counts {
		args := append([]any{from, to}, c.args...)
		if err := r.db.GetContext(ctx, c.dst, c.query, args...); err != nil {
			return nil, fmt.Errorf("count activity: %w", err)
		}
	}
	return a, nil
}

func (r *postgresRepo) Sales(ctx context.Context, since time.Time) ([]*SalesRow, error) {
	var rows []*SalesRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT p.id, p.code, p.name, p.price,
		       SUM(i.quantity) AS quantity, COUNT(DISTINCT i.order_id) AS orders
		FROM outbound_order_items i
		JOIN outbound_orders o ON o.id = i.order_id
		JOIN products p ON p.id = i.product_id
		WHERE o.order_date >= $1 AND o.status = ANY($2)
		GROUP BY p.id, p.code, p.name, p.price`, since, soldStatuses)
	if err != nil {
		return nil, fmt.Errorf("sales by product: %w", err)
	}
	return rows, nil
}

func (r *postgresRepo) Turnover(ctx context.Context, since time.Time, productID *uuid.UUID) ([]*TurnoverRow, error) {
	query := `
		SELECT p.id, p.code, p.name,
		       COALESCE((SELECT SUM(wp.quantity) FROM warehouse_products wp WHERE wp.product_id = p.id), 0) AS current_stock,
		       COALESCE((SELECT SUM(i.quantity)
		                 FROM outbound_order_items i
		                 JOIN outbound_orders o ON o.id = i.order_id
		                 WHERE i.product_id = p.id AND o.order_date >= ? AND o.status = ANY(?)), 0) AS sold
		FROM products p`
	args := []any{since, soldStatuses}
	if productID != nil {
		query += ` WHERE p.id = ?`
		args = append(args, *productID)
	}
	query += ` ORDER BY p.code`
	var rows []*TurnoverRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("turnover by product: %w", err)
	}
	return rows, nil
}

func (r *postgresRepo) MonthlyTotals(ctx context.Context, from, to time.Time) (*MonthlyTotals, error) {
	t := &MonthlyTotals{}
	err := r.db.GetContext(ctx, t, `
		SELECT
		  COALESCE((SELECT SUM(i.quantity) FROM inbound_request_items i JOIN inbound_requests r ON r.id = i.request_id
		            WHERE r.request_date < $1 AND r.status = ANY($3)), 0) AS inbound_before,
		  COALESCE((SELECT SUM(i.quantity) FROM outbound_order_items i JOIN outbound_orders o ON o.id = i.order_id
		            WHERE o.order_date < $1 AND o.status = ANY($4)), 0) AS outbound_before,
		  COALESCE((SELECT SUM(i.quantity) FROM inbound_request_items i JOIN inbound_requests r ON r.id = i.request_id
		            WHERE r.request_date >= $1 AND r.request_date < $2 AND r.status = ANY($3)), 0) AS inbound,
		  COALESCE((SELECT SUM(i.quantity) FROM outbound_order_items i JOIN outbound_orders o ON o.id = i.order_id
		            WHERE o.order_date >= $1 AND o.order_date < $2 AND o.status = ANY($4)), 0) AS outbound`,
		from, to, receivedStatuses, soldStatuses)
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	return t, nil
}

func (r *postgresRepo) MonthlyProducts(ctx context.Context, from, to time.Time, limit int) ([]*MonthlyProduct, error) {
	var rows []*MonthlyProduct
	err := r.db.SelectContext(ctx, &rows, `
		SELECT p.code, p.name,
		       COALESCE((SELECT SUM(i.quantity) FROM inbound_request_items i JOIN inbound_requests r ON r.id = i.request_id
		                 WHERE i.product_id = p.id AND r.request_date >= $1 AND r.request_date < $2
		                   AND r.status = ANY($3)), 0) AS inbound,
		       COALESCE((SELECT SUM(i.quantity) FROM outbound_order_items i JOIN outbound_orders o ON o.id = i.order_id
		                 WHERE i.product_id = p.id AND o.order_date >= $1 AND o.order_date < $2
		                   AND o.status = ANY($4)), 0) AS outbound,
		       COALESCE((SELECT SUM(wp.quantity) FROM warehouse_products wp WHERE wp.product_id = p.id), 0) AS current_stock
		FROM products p
		ORDER BY p.code
		LIMIT $5`, from, to, receivedStatuses, soldStatuses, limit)
	if err != nil {
		return nil, fmt.Errorf("monthly product flows: %w", err)
	}
	return rows, nil
}
