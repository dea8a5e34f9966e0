package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultSalesLimit = 20

type Service interface {
	Daily(ctx context.Context, date *time.Time, hourlyBuckets bool) (*DailyReport, error)
	Weekly(ctx context.Context, week string) (*WeeklyReport, error)
	Sales(ctx context.Context, period string, limit int) (*SalesReport, error)
	Turnover(ctx context.Context, period, productID string) (*TurnoverReport, error)
	MonthlyInventory(ctx context.Context, year, month int) (*MonthlyReport, error)
}

type service struct {
	repo Repository
	loc  *time.Location
	now  func() time.Time
	log  *zap.Logger
}

// NewService builds the report service. Day and week boundaries fall in loc.
func NewService(repo Repository, loc *time.Location, log *zap.Logger) Service {
	return &service{repo: repo, loc: loc, now: time.Now, log: log}
}

func (s *service) today() time.Time { return s.now().In(s.loc) }

func (s *service) Daily(ctx context.Context, date *time.Time, hourlyBuckets bool) (*DailyReport, error) {
	start := startOfDay(s.today())
	if date != nil {
		y, m, d := date.Date()
		start = time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	}
	a, err := s.repo.Activity(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	rep := &DailyReport{Date: day(start), Summary: summarizeDay(a)}
	if hourlyBuckets {
		rep.HourlyData = hourly(a, start)
	}
	return rep, nil
}

func (s *service) Weekly(ctx context.Context, week string) (*WeeklyReport, error) {
	start := weekStart(s.today())
	switch week {
	case "", "current":
	case "last":
		start = start.AddDate(0, 0, -7)
	default:
		return nil, apperr.InvalidValue("week", []string{"current", "last"})
	}
	current, err := s.repo.Activity(ctx, start, start.AddDate(0, 0, 7))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	last, err := s.repo.Activity(ctx, start.AddDate(0, 0, -7), start)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return weekly(current, last, start), nil
}

func (s *service) window(period string) (time.Time, int, error) {
	if period == "" {
		period = "1month"
	}
	days, ok := periodDays[period]
	if !ok {
		return time.Time{}, 0, apperr.InvalidValue("period", validPeriods)
	}
	return s.today().AddDate(0, 0, -days), days, nil
}

func (s *service) Sales(ctx context.Context, period string, limit int) (*SalesReport, error) {
	if period == "" {
		period = "1month"
	}
	since, _, err := s.window(period)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultSalesLimit
	}
	rows, err := s.repo.Sales(ctx, since)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	products, sum := sales(rows, limit)
	s.log.Debug("sales report", zap.String("period", period), zap.Int("products", len(products)))
	rep := &SalesReport{
		Period:      RangePeriod{From: day(since), To: day(s.today()), Type: period},
		Summary:     sum,
		BestSellers: products[:min(bestSellerCount, len(products))],
		Products:    products,
	}
	return rep, nil
}

func (s *service) Turnover(ctx context.Context, period, productID string) (*TurnoverReport, error) {
	since, days, err := s.window(period)
	if err != nil {
		return nil, err
	}
	var filter *uuid.UUID
	if productID != "" {
		id, err := httpx.ParseID("productId", productID)
		if err != nil {
			return nil, err
		}
		filter = &id
	}
	rows, err := s.repo.Turnover(ctx, since, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	products, sum := turnover(rows, days)
	return &TurnoverReport{
		Period:   RangePeriod{From: day(since), To: day(s.today()), Days: days},
		Summary:  sum,
		Products: products,
	}, nil
}

func (s *service) MonthlyInventory(ctx context.Context, year, month int) (*MonthlyReport, error) {
	now := s.today()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	if month < 1 || month > 12 {
		return nil, apperr.Invalid("InvalidValue", "month must be between 1 and 12").With("field", "month")
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 1, 0)

	totals, err := s.repo.MonthlyTotals(ctx, from, to)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	products, err := s.repo.MonthlyProducts(ctx, from, to, monthlyProductMax)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if products == nil {
		products = []*MonthlyProduct{}
	}
	return &MonthlyReport{
		Period:   MonthPeriod{Year: year, Month: month, Label: fmt.Sprintf("%d년 %d월", year, month)},
		Summary:  monthly(totals),
		Products: products,
	}, nil
}
