package outbound

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
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const entityOrder = "OutboundOrder"

const orderColumns = `id, order_number, customer_name, shipping_address, status, total_quantity, order_date,
	expected_delivery, shipping_date, carrier, tracking_number, notes, created_by, created_at, updated_at`

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

// errNoStockRow is how a manual issue reports a pair that was never stocked.
func errNoStockRow() *apperr.Error {
	e := apperr.Invalid("StockNotFound", "no stock recorded for this product in the warehouse")
	e.Code = apperr.CodeInventoryNotFound
	return e
}

func (r *postgresRepo) CreateManual(ctx context.Context, m manualOutbound) (*ManualResult, error) {
	var res *ManualResult
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		p, err := product.Get(ctx, tx, m.ProductID)
		if errors.Is(err, sql.ErrNoRows) {
			return product.ErrNotFound()
		}
		if err != nil {
			return fmt.Errorf("load product: %w", err)
		}

		now := time.Now().UTC()
		var order *Order
		if m.OrderID != nil {
			order, err = Get(ctx, tx, *m.OrderID, true)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound()
			}
			if err != nil {
				return err
			}
			if order.Status.Closed() {
				return ErrOrderClosed(order.Status)
			}
		} else {
			order = &Order{
				ID:            uuid.New(),
				OrderNumber:   m.OrderNumber,
				CustomerName:  m.CustomerName,
				Status:        StatusShipped,
				TotalQuantity: m.Quantity,
				OrderDate:     now,
				ShippingDate:  &now,
				Notes:         "수동 출고 - 사유: " + m.Reason,
				CreatedBy:     m.HandledBy,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := insertOrder(ctx, tx, order); err != nil {
				return err
			}
		}

		mv, err := stock.Decrement(ctx, tx, stock.OpOutbound, m.WarehouseID, m.ProductID, m.Quantity)
		if err != nil {
			if ae, ok := apperr.As(err); ok && ae.MessageID == "StockNotFound" {
				return errNoStockRow()
			}
			return err
		}

		item := &Item{
			ID: uuid.New(), OrderID: order.ID, ProductID: p.ID, WarehouseID: &m.WarehouseID,
			Quantity: m.Quantity, PickedQty: m.Quantity, PackedQty: m.Quantity, UnitPrice: p.Price,
			CreatedAt: now, ProductCode: p.Code, ProductName: p.Name, SKU: p.SKU,
		}
		if err := insertItem(ctx, tx, item); err != nil {
			return err
		}
		if m.OrderID != nil {
			order.TotalQuantity += m.Quantity
			if _, err := tx.ExecContext(ctx,
				`UPDATE outbound_orders SET total_quantity = $1, updated_at = $2 WHERE id = $3`,
				order.TotalQuantity, now, order.ID); err != nil {
				return fmt.Errorf("update order total: %w", err)
			}
		}

		if _, err := audit.Record(ctx, tx, audit.ActionOutboundManual, entityOrder, order.ID.String(), m.HandledBy, map[string]any{
			"orderNumber": order.OrderNumber,
			"productId":   m.ProductID,
			"warehouseId": m.WarehouseID,
			"quantity":    m.Quantity,
			"before":      mv.Before,
			"after":       mv.After,
			"reason":      m.Reason,
		}); err != nil {
			return err
		}
		view, err := stock.GetView(ctx, tx, m.WarehouseID, m.ProductID)
		if err != nil {
			return err
		}
		res = &ManualResult{
			OutboundID:   order.ID,
			OutboundDate: now,
			Status:       "완료",
			UpdatedStock: view,
			Movement:     *mv,
			OutboundRecord: Record{
				ID:          item.ID,
				OrderNumber: order.OrderNumber,
				Quantity:    m.Quantity,
				Reason:      m.Reason,
				HandledBy:   m.HandledBy,
				CreatedAt:   now,
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func insertOrder(ctx context.Context, tx *sqlx.Tx, o *Order) error {
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO outbound_orders (id, order_number, customer_name, shipping_address, status, total_quantity,
			order_date, expected_delivery, shipping_date, notes, created_by, created_at, updated_at)
		VALUES (:id, :order_number, :customer_name, :shipping_address, :status, :total_quantity,
			:order_date, :expected_delivery, :shipping_date, :notes, :created_by, :created_at, :updated_at)`, o)
	if err != nil {
		return fmt.Errorf("insert outbound order: %w", err)
	}
	return nil
}

func insertItem(ctx context.Context, tx *sqlx.Tx, it *Item) error {
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO outbound_order_items (id, order_id, product_id, warehouse_id, quantity, picked_qty,
			packed_qty, unit_price, lot_number, created_at)
		VALUES (:id, :order_id, :product_id, :warehouse_id, :quantity, :picked_qty,
			:packed_qty, :unit_price, :lot_number, :created_at)`, it)
	if err != nil {
		return fmt.Errorf("insert outbound item: %w", err)
	}
	return nil
}

func (r *postgresRepo) Create(ctx context.Context, in newOrder) (*Order, error) {
	var out *Order
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()
		o := &Order{
			ID:               uuid.New(),
			OrderNumber:      in.Number,
			CustomerName:     in.CustomerName,
			ShippingAddress:  in.ShippingAddress,
			Status:           StatusPending,
			OrderDate:        now,
			ExpectedDelivery: in.ExpectedDelivery,
			Notes:            in.Notes,
			CreatedBy:        in.CreatedBy,
			CreatedAt:        now,
			UpdatedAt:        now,
			Items:            []*Item{},
		}
		for _, ni := range in.Items {
			o.TotalQuantity += ni.Quantity
		}
		if err := insertOrder(ctx, tx, o); err != nil {
			if database.IsUniqueViolation(err) {
				return apperr.Conflict("Duplicate", "order already exists")
			}
			return err
		}
		for _, ni := range in.Items {
			p, err := product.Get(ctx, tx, ni.ProductID)
			if errors.Is(err, sql.ErrNoRows) {
				return product.ErrNotFound().With("productId", ni.ProductID)
			}
			if err != nil {
				return fmt.Errorf("load product: %w", err)
			}
			if ni.WarehouseID != nil {
				if err := stock.RequireWarehouse(ctx, tx, *ni.WarehouseID); err != nil {
					return err
				}
			}
			price := p.Price
			if ni.UnitPrice != nil {
				price = *ni.UnitPrice
			}
			it := &Item{
				ID: uuid.New(), OrderID: o.ID, ProductID: p.ID, WarehouseID: ni.WarehouseID,
				Quantity: ni.Quantity, UnitPrice: price, CreatedAt: now,
				ProductCode: p.Code, ProductName: p.Name, SKU: p.SKU,
			}
			if err := insertItem(ctx, tx, it); err != nil {
				return err
			}
			o.Items = append(o.Items, it)
		}
		if _, err := audit.Record(ctx, tx, audit.ActionOrderCreate, entityOrder, o.ID.String(), in.CreatedBy, map[string]any{
			"orderNumber":   o.OrderNumber,
			"customerName":  o.CustomerName,
			"itemCount":     len(o.Items),
			"totalQuantity": o.TotalQuantity,
		}); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]*Order, int, error) {
	var conds []string
	var args []any
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Search != "" {
		conds = append(conds, "(order_number ILIKE ? OR customer_name ILIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM outbound_orders`+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count outbound orders: %w", err)
	}
	query := `SELECT ` + orderColumns + ` FROM outbound_orders` + where + ` ORDER BY order_date DESC LIMIT ? OFFSET ?`
	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	var orders []*Order
	if err := r.db.SelectContext(ctx, &orders, r.db.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("list outbound orders: %w", err)
	}
	if err := LoadItems(ctx, r.db, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *postgresRepo) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return Get(ctx, r.db, id, false)
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id uuid.UUID, to Status, actor, reason string) (*Order, error) {
	var out *Order
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		o, err := Get(ctx, tx, id, true)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound()
		}
		if err != nil {
			return err
		}
		from := o.Status
		if !CanTransition(from, to) {
			return ErrTransition(from, to)
		}
		if err := SetStatus(ctx, tx, o, to); err != nil {
			return err
		}
		if _, err := audit.Record(ctx, tx, audit.ActionOrderStatus, entityOrder, o.ID.String(), actor, map[string]any{
			"orderNumber": o.OrderNumber,
			"from":        from,
			"to":          to,
			"reason":      reason,
		}); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get loads an order with its items through q. forUpdate locks the order row
// until the surrounding transaction ends. A missing order is sql.ErrNoRows.
func Get(ctx context.Context, q sqlx.ExtContext, id uuid.UUID, forUpdate bool) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM outbound_orders WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	o := &Order{}
	if err := sqlx.GetContext(ctx, q, o, query, id); err != nil {
		return nil, err
	}
	if err := LoadItems(ctx, q, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// LoadItems attaches order lines, with product display fields, to orders.
func LoadItems(ctx context.Context, q sqlx.ExtContext, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Order, len(orders))
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		o.Items = []*Item{}
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}
	query, args, err := sqlx.In(`
		SELECT i.id, i.order_id, i.product_id, i.warehouse_id, i.quantity, i.picked_qty, i.packed_qty,
		       i.unit_price, i.lot_number, i.created_at,
		       p.code AS product_code, p.name AS product_name, p.sku
		FROM outbound_order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id IN (?)
		ORDER BY i.created_at, p.code`, ids)
	if err != nil {
		return fmt.Errorf("build order item query: %w", err)
	}
	var items []*Item
	if err := sqlx.SelectContext(ctx, q, &items, q.Rebind(query), args...); err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	for _, it := range items {
		byID[it.OrderID].Items = append(byID[it.OrderID].Items, it)
	}
	return nil
}

// SetStatus writes o's new status. The caller checks the transition.
func SetStatus(ctx context.Context, q sqlx.ExecerContext, o *Order, to Status) error {
	now := time.Now().UTC()
	if _, err := q.ExecContext(ctx,
		`UPDATE outbound_orders SET status = $1, updated_at = $2 WHERE id = $3`, to, now, o.ID); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	o.Status = to
	o.UpdatedAt = now
	return nil
}

// Find loads the orders matching cond, a condition on outbound_orders, with their items.
func Find(ctx context.Context, q sqlx.ExtContext, cond, orderBy string, args ...any) ([]*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM outbound_orders WHERE ` + cond
	if orderBy != "" {
		query += ` ORDER BY ` + orderBy
	}
	var orders []*Order
	if err := sqlx.SelectContext(ctx, q, &orders, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("find outbound orders: %w", err)
	}
	if err := LoadItems(ctx, q, orders); err != nil {
		return nil, err
	}
	return orders, nil
}
