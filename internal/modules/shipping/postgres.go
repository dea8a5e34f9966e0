package shipping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/georgemunganga/wms-backend/internal/database"
	"github.com/georgemunganga/wms-backend/internal/modules/audit"
	"github.com/georgemunganga/wms-backend/internal/modules/outbound"
	"github.com/georgemunganga/wms-backend/internal/modules/picking"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const entityOrder = "OutboundOrder"

const shipmentSelect = `
	SELECT id, order_number, customer_name, shipping_address, carrier, tracking_number, status,
	       shipping_date, expected_delivery, updated_at
	FROM outbound_orders`

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

func lockOrder(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*outbound.Order, error) {
	o, err := outbound.Get(ctx, tx, id, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, outbound.ErrNotFound()
	}
	return o, err
}

func (r *postgresRepo) Ship(ctx context.Context, d dispatch) (*outbound.Order, int64, error) {
	var (
		out    *outbound.Order
		closed int64
	)
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		o, err := lockOrder(ctx, tx, d.OrderID)
		if err != nil {
			return err
		}
		if err := checkShippable(o.Status); err != nil {
			return err
		}
		if d.ShippingAddress == "" {
			d.ShippingAddress = o.ShippingAddress
		}
		notes := fmt.Sprintf("배송사: %s, 송장: %s", d.Carrier, d.TrackingNumber)
		if o.Notes != "" {
			notes += "\n" + o.Notes
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE outbound_orders
			SET status = $1, shipping_date = $2, expected_delivery = $3, carrier = $4, tracking_number = $5,
			    shipping_address = $6, notes = $7, updated_at = $2
			WHERE id = $8`,
			outbound.StatusShipped, d.ShippedAt, d.ExpectedDelivery, d.Carrier, d.TrackingNumber,
			d.ShippingAddress, notes, o.ID); err != nil {
			return fmt.Errorf("ship order: %w", err)
		}
		o.Status = outbound.StatusShipped
		o.ShippingDate = &d.ShippedAt
		o.ExpectedDelivery = &d.ExpectedDelivery
		o.Carrier, o.TrackingNumber, o.ShippingAddress, o.Notes = d.Carrier, d.TrackingNumber, d.ShippingAddress, notes
		o.UpdatedAt = d.ShippedAt

		if closed, err = picking.CompleteOpenPacking(ctx, tx, o.ID, d.ShippedAt); err != nil {
			return err
		}
		if _, err := audit.Record(ctx, tx, audit.ActionShippingStart, entityOrder, o.ID.String(), d.Actor, map[string]any{
			"orderNumber":      o.OrderNumber,
			"carrier":          d.Carrier,
			"trackingNumber":   d.TrackingNumber,
			"shippingFee":      d.ShippingFee,
			"shippingAddress":  d.ShippingAddress,
			"recipientName":    d.RecipientName,
			"recipientPhone":   d.RecipientPhone,
			"expectedDelivery": d.ExpectedDelivery,
		}); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return out, closed, nil
}

func (r *postgresRepo) Deliver(ctx context.Context, orderID uuid.UUID, actor string, at time.Time) (*outbound.Order, error) {
	var out *outbound.Order
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		o, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if o.Status != outbound.StatusShipped {
			return outbound.ErrTransition(o.Status, outbound.StatusDelivered)
		}
		if err := outbound.SetStatus(ctx, tx, o, outbound.StatusDelivered); err != nil {
			return err
		}
		if _, err := audit.Record(ctx, tx, audit.ActionShippingDelivered, entityOrder, o.ID.String(), actor, map[string]any{
			"orderNumber":    o.OrderNumber,
			"trackingNumber": o.TrackingNumber,
			"deliveredAt":    at,
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

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]*Shipment, int, error) {
	conds := []string{"status = ANY(?)"}
	statuses := []string{string(outbound.StatusShipped), string(outbound.StatusDelivered)}
	if f.Status != "" {
		statuses = []string{string(f.Status)}
	}
	args := []any{pq.Array(statuses)}
	if f.Carrier != "" {
		conds = append(conds, "carrier ILIKE ?")
		args = append(args, "%"+f.Carrier+"%")
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(`SELECT COUNT(*) FROM outbound_orders`+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count shipments: %w", err)
	}
	query := shipmentSelect + where + ` ORDER BY shipping_date DESC NULLS LAST LIMIT ? OFFSET ?`
	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	var out []*Shipment
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("list shipments: %w", err)
	}
	return out, total, nil
}

func (r *postgresRepo) Track(ctx context.Context, trackingNumber string) (*Shipment, error) {
	s := &Shipment{}
	if err := r.db.GetContext(ctx, s, shipmentSelect+` WHERE tracking_number = $1`, trackingNumber); err != nil {
		return nil, err
	}
	return s, nil
}
