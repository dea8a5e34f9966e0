package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Record appends one audit row using q, which may be a transaction so the row
// commits or rolls back with the change it describes.
func Record(ctx context.Context, q sqlx.ExtContext, action, entity, entityID, userID string, changes any) (*Entry, error) {
	raw, err := json.Marshal(changes)
	if err != nil {
		return nil, fmt.Errorf("marshal audit changes: %w", err)
	}
	e := &Entry{
		ID:        uuid.New(),
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		UserID:    userID,
		Changes:   raw,
		CreatedAt: time.Now().UTC(),
	}
	if err := insert(ctx, q, e); err != nil {
		return nil, err
	}
	return e, nil
}

func insert(ctx context.Context, q sqlx.ExtContext, e *Entry) error {
	if len(e.Changes) == 0 {
		e.Changes = []byte("{}")
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO audit_logs (id, action, entity, entity_id, user_id, changes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.Action, e.Entity, e.EntityID, e.UserID, e.Changes, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit_log: %w", err)
	}
	return nil
}

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Insert(ctx context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return insert(ctx, r.db, e)
}

func (r *postgresRepo) List(ctx context.Context, f Filter) ([]*Entry, error) {
	where, args := f.where()
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, action, entity, entity_id, user_id, changes, created_at FROM audit_logs` +
		where + ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	var entries []*Entry
	if err := r.db.SelectContext(ctx, &entries, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list audit_logs: %w", err)
	}
	return entries, nil
}

func (r *postgresRepo) Latest(ctx context.Context, action, entityID string) (*Entry, error) {
	e := &Entry{}
	err := r.db.GetContext(ctx, e, `
		SELECT id, action, entity, entity_id, user_id, changes, created_at
		FROM audit_logs WHERE action=$1 AND entity_id=$2
		ORDER BY created_at DESC LIMIT 1`, action, entityID)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *postgresRepo) GroupByUser(ctx context.Context) ([]*UserSummary, error) {
	var out []*UserSummary
	err := r.db.SelectContext(ctx, &out, `
		SELECT user_id, COUNT(*) AS action_count,
		       MIN(created_at) AS first_activity, MAX(created_at) AS last_activity
		FROM audit_logs WHERE user_id <> ''
		GROUP BY user_id ORDER BY last_activity DESC`)
	if err != nil {
		return nil, fmt.Errorf("group audit_logs by user: %w", err)
	}
	return out, nil
}

func (r *postgresRepo) CountBy(ctx context.Context, column string, f Filter) ([]*Count, error) {
	if column != "action" && column != "entity" {
		return nil, fmt.Errorf("cannot group audit_logs by %q", column)
	}
	where, args := f.where()
	query := `SELECT ` + column + ` AS key, COUNT(*) AS count FROM audit_logs` + where +
		` GROUP BY ` + column + ` ORDER BY count DESC`

	var out []*Count
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("count audit_logs by %s: %w", column, err)
	}
	return out, nil
}

// where renders the filter with ? placeholders for Rebind.
func (f Filter) where() (string, []any) {
	var conds []string
	var args []any
	if len(f.Actions) > 0 {
		conds = append(conds, "action = ANY(?)")
		args = append(args, pq.Array(f.Actions))
	}
	if f.Entity != "" {
		conds = append(conds, "entity = ?")
		args = append(args, f.Entity)
	}
	if f.EntityID != "" {
		conds = append(conds, "entity_id = ?")
		args = append(args, f.EntityID)
	}
	if f.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.From != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		conds = append(conds, "created_at < ?")
		args = append(args, *f.To)
	}
	if f.Search != "" {
		conds = append(conds, "(entity_id ILIKE ? OR changes::text ILIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
