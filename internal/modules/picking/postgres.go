package picking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/database"
	"github.com/georgemunganga/wms-backend/internal/modules/audit"
	"github.com/georgemunganga/wms-backend/internal/modules/outbound"
	"github.com/georgemunganga/wms-backend/internal/modules/product"
	"github.com/georgemunganga/wms-backend/internal/refid"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	entityPickingTask = "PickingTask"
	entityOrderItem   = "OutboundOrderItem"
)

const taskSelect = `
	SELECT t.id, t.task_number, t.order_id, o.order_number, t.worker_id, t.status, t.estimated_minutes,
	       t.start_time, t.completion_time, t.notes, t.created_at, t.updated_at
	FROM picking_tasks t
	JOIN outbound_orders o ON o.id = t.order_id`

// minutesPerLine is the planning estimate for picking one order line.
const minutesPerLine = 5

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

// ErrTaskNotFound is returned for unknown picking task ids.
func ErrTaskNotFound() *apperr.Error {
	return apperr.NotFound("PickingTaskNotFound", "picking task not found")
}

func errNotPending(o *outbound.Order) *apperr.Error {
	e := apperr.Invalid("OrderNotPending", fmt.Sprintf("order is already %s", o.Status)).
		With("currentStatus", o.Status)
	e.Code = apperr.CodeInvalidOrderStatus
	return e
}

func errTaskClosed(t *Task) *apperr.Error {
	return apperr.Invalid("TaskClosed", fmt.Sprintf("picking task is %s", t.Status)).
		With("currentStatus", t.Status)
}

func (r *postgresRepo) PendingOrders(ctx context.Context, byExpectedDelivery bool, urgentBefore *time.Time) ([]*outbound.Order, error) {
	cond := `status = ?`
	args := []any{outbound.StatusPending}
	if urgentBefore != nil {
		cond += ` AND expected_delivery <= ?`
		args = append(args, *urgentBefore)
	}
	orderBy := `order_date`
	if byExpectedDelivery {
		orderBy = `expected_delivery NULLS LAST, order_date`
	}
	return outbound.Find(ctx, r.db, cond, orderBy, args...)
}

func lockOrder(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*outbound.Order, error) {
	o, err := outbound.Get(ctx, tx, id, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, outbound.ErrNotFound()
	}
	return o, err
}

func lockTask(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Task, error) {
	t := &Task{}
	err := tx.GetContext(ctx, t, taskSelect+` WHERE t.id = $1 FOR UPDATE OF t`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("load picking task: %w", err)
	}
	return t, nil
}

func insertTask(ctx context.Context, tx *sqlx.Tx, t *Task) error {
	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO picking_tasks (id, task_number, order_id, worker_id, status, estimated_minutes, notes,
			created_at, updated_at)
		VALUES (:id, :task_number, :order_id, :worker_id, :status, :estimated_minutes, :notes,
			:created_at, :updated_at)`, t)
	if err != nil {
		return fmt.Errorf("insert picking task: %w", err)
	}
	return nil
}

// createTask assigns a locked pending order to worker and moves it into picking.
func createTask(ctx context.Context, tx *sqlx.Tx, o *outbound.Order, number, worker, notes string) (*Task, error) {
	now := time.Now().UTC()
	t := &Task{
		ID:               uuid.New(),
		TaskNumber:       number,
		OrderID:          o.ID,
		OrderNumber:      o.OrderNumber,
		WorkerID:         worker,
		Status:           TaskPending,
		EstimatedMinutes: len(o.Items) * minutesPerLine,
		Notes:            notes,
		CreatedAt:        now,
		UpdatedAt:        now,
		Order:            o,
	}
	if err := insertTask(ctx, tx, t); err != nil {
		return nil, err
	}
	if err := outbound.SetStatus(ctx, tx, o, outbound.StatusPicking); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresRepo) Assign(ctx context.Context, a assignment) (*Task, int, error) {
	var (
		task     *Task
		workload int
	)
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		o, err := lockOrder(ctx, tx, a.OrderID)
		if err != nil {
			return err
		}
		if o.Status != outbound.StatusPending {
			return errNotPending(o)
		}
		if err := tx.GetContext(ctx, &workload,
			`SELECT COUNT(*) FROM picking_tasks WHERE worker_id = $1 AND status = ANY($2)`,
			a.WorkerID, pq.Array([]string{string(TaskPending), string(TaskPicking)})); err != nil {
			return fmt.Errorf("count worker tasks: %w", err)
		}
		t, err := createTask(ctx, tx, o, a.Number, a.WorkerID, a.Notes)
		if err != nil {
			return err
		}
		if _, err := audit.Record(ctx, tx, audit.ActionPickingAssigned, entityPickingTask, t.ID.String(), a.Actor, map[string]any{
			"orderId":       o.ID,
			"orderNumber":   o.OrderNumber,
			"workerId":      a.WorkerID,
			"itemCount":     len(o.Items),
			"totalQuantity": o.TotalQuantity,
		}); err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return task, workload, nil
}

func (r *postgresRepo) AssignBatch(ctx context.Context, b batch) ([]batchOutcome, error) {
	query, args, err := sqlx.In(`
		SELECT DISTINCT order_id FROM picking_tasks WHERE order_id IN (?) AND status IN (?)`,
		b.OrderIDs, []string{string(TaskPending), string(TaskPicking), string(TaskCompleted)})
	if err != nil {
		return nil, fmt.Errorf("build live task query: %w", err)
	}
	var taken []uuid.UUID
	if err := r.db.SelectContext(ctx, &taken, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list live tasks: %w", err)
	}
	hasTask := make(map[uuid.UUID]bool, len(taken))
	for _, id := range taken {
		hasTask[id] = true
	}

	out := make([]batchOutcome, 0, len(b.OrderIDs))
	for _, id := range b.OrderIDs {
		res := batchOutcome{OrderID: id}
		res.Err = database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
			o, err := lockOrder(ctx, tx, id)
			if err != nil {
				return err
			}
			res.Order = o
			if hasTask[id] {
				return apperr.Conflict("TaskExists", "a picking task already exists for this order")
			}
			if o.Status != outbound.StatusPending {
				return errNotPending(o)
			}
			t, err := createTask(ctx, tx, o, refid.New(refid.Picking), b.WorkerID, "")
			if err != nil {
				return err
			}
			res.Task = t
			return nil
		})
		if res.Err != nil {
			res.Task = nil
		}
		out = append(out, res)
	}

	var success int
	for _, res := range out {
		if res.Task != nil {
			success++
		}
	}
	if _, err := audit.Record(ctx, r.db, audit.ActionBatchPicking, entityPickingTask, "bulk", b.Actor, map[string]any{
		"totalOrders":  len(out),
		"successCount": success,
		"failedCount":  len(out) - success,
		"workerId":     b.WorkerID,
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) Reassign(ctx context.Context, taskID uuid.UUID, newWorker, actor, reason string) (*Task, string, error) {
	var (
		task     *Task
		previous string
	)
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		t, err := lockTask(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if !t.Status.live() {
			return errTaskClosed(t)
		}
		previous = t.WorkerID
		now := time.Now().UTC()
		t.WorkerID = newWorker
		t.Status = TaskPending
		t.Notes = fmt.Sprintf("재할당: %s → %s. 사유: %s", previous, newWorker, reason)
		t.UpdatedAt = now
		if _, err := tx.ExecContext(ctx,
			`UPDATE picking_tasks SET worker_id = $1, status = $2, notes = $3, updated_at = $4 WHERE id = $5`,
			t.WorkerID, t.Status, t.Notes, now, t.ID); err != nil {
			return fmt.Errorf("reassign picking task: %w", err)
		}
		if _, err := audit.Record(ctx, tx, audit.ActionReassign, entityPickingTask, t.ID.String(), actor, map[string]any{
			"pickingNumber":  t.TaskNumber,
			"orderNumber":    t.OrderNumber,
			"previousWorker": previous,
			"newWorker":      newWorker,
			"reason":         reason,
		}); err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return task, previous, nil
}

func (r *postgresRepo) Cancel(ctx context.Context, taskID uuid.UUID, actor, reason string) (*Task, TaskStatus, error) {
	var (
		task     *Task
		previous TaskStatus
	)
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		t, err := lockTask(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if !t.Status.live() {
			return errTaskClosed(t)
		}
		previous = t.Status
		now := time.Now().UTC()
		t.Status = TaskCancelled
		t.Notes = "취소 사유: " + reason
		t.UpdatedAt = now
		if _, err := tx.ExecContext(ctx,
			`UPDATE picking_tasks SET status = $1, notes = $2, updated_at = $3 WHERE id = $4`,
			t.Status, t.Notes, now, t.ID); err != nil {
			return fmt.Errorf("cancel picking task: %w", err)
		}

		o, err := lockOrder(ctx, tx, t.OrderID)
		if err != nil {
			return err
		}
		if o.Status == outbound.StatusPicking {
			if err := outbound.SetStatus(ctx, tx, o, outbound.StatusPending); err != nil {
				return err
			}
		}
		t.Order = o

		if _, err := audit.Record(ctx, tx, audit.ActionCancel, entityPickingTask, t.ID.String(), actor, map[string]any{
			"pickingNumber":  t.TaskNumber,
			"orderNumber":    t.OrderNumber,
			"previousStatus": previous,
			"reason":         reason,
		}); err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return task, previous, nil
}

func (r *postgresRepo) Tasks(ctx context.Context, status TaskStatus, workerID string) ([]*Task, error) {
	query := taskSelect + ` WHERE ($1 = '' OR t.status = $1) AND ($2 = '' OR t.worker_id = $2)
		ORDER BY t.created_at DESC LIMIT 50`
	var tasks []*Task
	if err := r.db.SelectContext(ctx, &tasks, query, string(status), workerID); err != nil {
		return nil, fmt.Errorf("list picking tasks: %w", err)
	}
	if err := attachOrders(ctx, r.db, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// attachOrders loads the order lines behind tasks in one query.
func attachOrders(ctx context.Context, q sqlx.ExtContext, tasks []*Task) error {
	byID := map[uuid.UUID]*outbound.Order{}
	var orders []*outbound.Order
	for _, t := range tasks {
		o, ok := byID[t.OrderID]
		if !ok {
			o = &outbound.Order{ID: t.OrderID, OrderNumber: t.OrderNumber}
			byID[t.OrderID] = o
			orders = append(orders, o)
		}
		t.Order = o
	}
	return outbound.LoadItems(ctx, q, orders)
}

func (r *postgresRepo) Pick(ctx context.Context, p pick) (*pickOutcome, error) {
	var out *pickOutcome
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		t, err := lockTask(ctx, tx, p.TaskID)
		if err != nil {
			return err
		}
		if !t.Status.live() {
			return errTaskClosed(t)
		}
		o, err := lockOrder(ctx, tx, t.OrderID)
		if err != nil {
			return err
		}
		t.Order = o

		var item *outbound.Item
		for _, it := range o.Items {
			if it.ProductID == p.ProductID {
				item = it
				break
			}
		}
		if item == nil {
			return apperr.Invalid("ProductNotInOrder", "product is not part of this order").
				With("productId", p.ProductID)
		}
		if p.Quantity > item.Quantity {
			return apperr.Invalid("PickExceedsOrder", "picked quantity exceeds the ordered quantity").
				With("ordered", item.Quantity).
				With("picked", p.Quantity)
		}
		item.PickedQty = p.Quantity
		if p.LotNumber != "" {
			item.LotNumber = p.LotNumber
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE outbound_order_items SET picked_qty = $1, lot_number = $2 WHERE id = $3`,
			item.PickedQty, item.LotNumber, item.ID); err != nil {
			return fmt.Errorf("update picked quantity: %w", err)
		}

		now := time.Now().UTC()
		if t.Status == TaskPending {
			t.Status = TaskPicking
			t.StartTime = &now
		}
		res := &pickOutcome{Task: t, Item: item}
		if picked, total := progress(o.Items); picked == total {
			t.Status = TaskCompleted
			t.CompletionTime = &now
			if outbound.CanTransition(o.Status, outbound.StatusPacking) {
				if err := outbound.SetStatus(ctx, tx, o, outbound.StatusPacking); err != nil {
					return err
				}
			}
			res.Packing = &PackingTask{
				ID: uuid.New(), TaskNumber: refid.New(refid.Packing), OrderID: o.ID,
				Status: PackingPending, CreatedAt: now, UpdatedAt: now,
			}
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO packing_tasks (id, task_number, order_id, worker_id, status, created_at, updated_at)
				VALUES (:id, :task_number, :order_id, :worker_id, :status, :created_at, :updated_at)`, res.Packing); err != nil {
				return fmt.Errorf("insert packing task: %w", err)
			}
		}
		t.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, `
			UPDATE picking_tasks SET status = $1, start_time = $2, completion_time = $3, updated_at = $4
			WHERE id = $5`,
			t.Status, t.StartTime, t.CompletionTime, now, t.ID); err != nil {
			return fmt.Errorf("update picking task: %w", err)
		}

		actor := p.Actor
		if actor == "" {
			actor = t.WorkerID
		}
		if _, err := audit.Record(ctx, tx, audit.ActionProductPicked, entityOrderItem, item.ID.String(), actor, map[string]any{
			"assignmentId":    t.ID,
			"productId":       p.ProductID,
			"productName":     item.ProductName,
			"orderedQuantity": item.Quantity,
			"pickedQuantity":  p.Quantity,
			"lotNumber":       p.LotNumber,
			"isQuantityMatch": p.Quantity == item.Quantity,
		}); err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) GetProduct(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	return product.Get(ctx, r.db, id)
}

func (r *postgresRepo) PackingTasks(ctx context.Context, status PackingStatus, page, limit int) ([]*PackingView, int, error) {
	statuses := []string{string(PackingPending), string(PackingPacking), string(PackingCompleted)}
	if status != "" {
		statuses = []string{string(status)}
	}
	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM packing_tasks WHERE status = ANY($1)`, pq.Array(statuses)); err != nil {
		return nil, 0, fmt.Errorf("count packing tasks: %w", err)
	}
	var out []*PackingView
	err := r.db.SelectContext(ctx, &out, `
		SELECT pt.id, pt.task_number, pt.order_id, pt.worker_id, pt.status, pt.start_time,
		       pt.completion_time, pt.created_at, pt.updated_at, o.order_number,
		       COALESCE(fi.code, '') AS product_code, COALESCE(fi.name, '') AS product_name,
		       COALESCE(fi.quantity, 0) AS quantity
		FROM packing_tasks pt
		JOIN outbound_orders o ON o.id = pt.order_id
		LEFT JOIN LATERAL (
			SELECT p.code, p.name, i.quantity
			FROM outbound_order_items i
			JOIN products p ON p.id = i.product_id
			WHERE i.order_id = pt.order_id
			ORDER BY i.created_at
			LIMIT 1
		) fi ON true
		WHERE pt.status = ANY($1)
		ORDER BY pt.created_at DESC
		LIMIT $2 OFFSET $3`,
		pq.Array(statuses), limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list packing tasks: %w", err)
	}
	return out, total, nil
}

// CompleteOpenPacking closes the order's unfinished packing tasks once it ships.
func CompleteOpenPacking(ctx context.Context, q sqlx.ExecerContext, orderID uuid.UUID, at time.Time) (int64, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE packing_tasks SET status = $1, completion_time = $2, updated_at = $2
		WHERE order_id = $3 AND status <> $1`,
		PackingCompleted, at, orderID)
	if err != nil {
		return 0, fmt.Errorf("complete packing tasks: %w", err)
	}
	return res.RowsAffected()
}
