package audit

import "context"

// Repository reads and appends audit rows outside of another module's transaction.
type Repository interface {
	Insert(ctx context.Context, e *Entry) error

	// List returns matching rows newest first.
	List(ctx context.Context, f Filter) ([]*Entry, error)

	// Latest returns the newest row for action and entityID, or sql.ErrNoRows.
	Latest(ctx context.Context, action, entityID string) (*Entry, error)

	// GroupByUser summarises activity per user id.
	GroupByUser(ctx context.Context) ([]*UserSummary, error)

	// CountBy groups matching rows by "action" or "entity".
	CountBy(ctx context.Context, column string, f Filter) ([]*Count, error)
}
