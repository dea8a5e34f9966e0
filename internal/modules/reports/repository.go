package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository runs the read-only aggregates behind the reports. Windows are
// half-open: from is included, to is not.
type Repository interface {
	Activity(ctx context.Context, from, to time.Time) (*Activity, error)
	Sales(ctx context.Context, since time.Time) ([]*SalesRow, error)
	Turnover(ctx context.Context, since time.Time, productID *uuid.UUID) ([]*TurnoverRow, error)
	MonthlyTotals(ctx context.Context, from, to time.Time) (*MonthlyTotals, error)
	MonthlyProducts(ctx context.Context, from, to time.Time, limit int) ([]*MonthlyProduct, error)
}
