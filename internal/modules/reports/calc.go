package reports

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

const (
	bestSellerCount   = 5
	fastTurnover      = 3.0
	slowTurnover      = 1.0
	monthlyProductMax = 50
)

var dayNames = [...]string{"일", "월", "화", "수", "목", "금", "토"}

// periodDays maps the named report windows to their length in days.
var periodDays = map[string]int{"1month": 30, "3months": 90, "6months": 180, "1year": 365}

var validPeriods = []string{"1month", "3months", "6months", "1year"}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// weekStart is the Monday that begins t's week.
func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return startOfDay(t).AddDate(0, 0, -offset)
}

func day(t time.Time) string { return t.Format(time.DateOnly) }

// change is the week-over-week growth as shown on the dashboard. A previous
// value of zero reads as 100% growth if anything happened, otherwise 0%.
func change(current, last int) string {
	if last == 0 {
		if current > 0 {
			return "100%"
		}
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(current-last)/float64(last)*100)
}

func percent(part, whole int) string {
	if whole == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(whole)*100)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func summarizeDay(a *Activity) DailySummary {
	s := DailySummary{
		InboundCount:  len(a.Inbound),
		OutboundCount: len(a.Outbound),
		PickingCount:  a.Picking,
		ReturnCount:   a.Returns,
		ShippingCount: a.Shipping,
	}
	for _, e := range a.Inbound {
		s.InboundQuantity += e.Quantity
	}
	for _, e := range a.Outbound {
		s.OutboundQuantity += e.Quantity
	}
	return s
}

// hourly spreads a day's documents over 24 buckets in the day's location.
func hourly(a *Activity, dayStart time.Time) []HourlyBucket {
	buckets := make([]HourlyBucket, 24)
	for h := range buckets {
		buckets[h].Hour = fmt.Sprintf("%02d:00", h)
	}
	bucket := func(at time.Time) (int, bool) {
		h := int(at.In(dayStart.Location()).Sub(dayStart) / time.Hour)
		return h, h >= 0 && h < 24
	}
	for _, e := range a.Inbound {
		if h, ok := bucket(e.At); ok {
			buckets[h].Inbound++
		}
	}
	for _, e := range a.Outbound {
		if h, ok := bucket(e.At); ok {
			buckets[h].Outbound++
		}
	}
	return buckets
}

func weekly(current, last *Activity, start time.Time) *WeeklyReport {
	stats := func(a *Activity) WeeklyStats {
		return WeeklyStats{
			Inbound: len(a.Inbound), Outbound: len(a.Outbound),
			Picking: a.Picking, Returns: a.Returns, Shipping: a.Shipping,
		}
	}
	cur, prev := stats(current), stats(last)
	rep := &WeeklyReport{
		Period:      Period{Start: day(start), End: day(start.AddDate(0, 0, 6))},
		WeeklyStats: cur,
		Comparison: Comparison{
			Inbound:  change(cur.Inbound, prev.Inbound),
			Outbound: change(cur.Outbound, prev.Outbound),
			Picking:  change(cur.Picking, prev.Picking),
			Returns:  change(cur.Returns, prev.Returns),
			Shipping: change(cur.Shipping, prev.Shipping),
		},
		KeyMetrics: KeyMetrics{
			DeliveryRate: percent(cur.Shipping, cur.Outbound),
			ErrorRate:    percent(cur.Returns, cur.Outbound),
			Productivity: "0",
		},
		DailyTrend: make([]DayTrend, 7),
	}
	if cur.Picking > 0 {
		rep.KeyMetrics.Productivity = fmt.Sprintf("%.1f", float64(cur.Outbound)/float64(cur.Picking))
	}
	for i := range rep.DailyTrend {
		d := start.AddDate(0, 0, i)
		rep.DailyTrend[i] = DayTrend{Date: day(d), Day: dayNames[d.Weekday()]}
	}
	index := func(at time.Time) (int, bool) {
		i := int(startOfDay(at.In(start.Location())).Sub(start).Hours() / 24)
		return i, i >= 0 && i < 7
	}
	for _, e := range current.Inbound {
		if i, ok := index(e.At); ok {
			rep.DailyTrend[i].Inbound++
		}
	}
	for _, e := range current.Outbound {
		if i, ok := index(e.At); ok {
			rep.DailyTrend[i].Outbound++
		}
	}
	return rep
}

// sales ranks products by revenue and keeps the top limit.
func sales(rows []*SalesRow, limit int) ([]*ProductSales, SalesSummary) {
	out := make([]*ProductSales, 0, len(rows))
	for _, r := range rows {
		if r.Quantity <= 0 {
			continue
		}
		ps := &ProductSales{
			ProductID:     r.ProductID,
			ProductCode:   r.Code,
			ProductName:   r.Name,
			TotalQuantity: r.Quantity,
			TotalRevenue:  r.Price.Mul(decimal.NewFromInt(int64(r.Quantity))),
			OrderCount:    r.Orders,
			UnitPrice:     r.Price,
		}
		if r.Orders > 0 {
			ps.AvgQuantityPerOrder = round(float64(r.Quantity)/float64(r.Orders), 1)
		}
		out = append(out, ps)
	}
	slices.SortStableFunc(out, func(a, b *ProductSales) int { return b.TotalRevenue.Cmp(a.TotalRevenue) })
	if len(out) > limit {
		out = out[:limit]
	}

	sum := SalesSummary{TotalRevenue: decimal.Zero, AvgRevenuePerOrder: decimal.Zero, ProductCount: len(out)}
	for _, ps := range out {
		sum.TotalRevenue = sum.TotalRevenue.Add(ps.TotalRevenue)
		sum.TotalQuantity += ps.TotalQuantity
		sum.TotalOrders += ps.OrderCount
	}
	if sum.TotalOrders > 0 {
		sum.AvgRevenuePerOrder = sum.TotalRevenue.Div(decimal.NewFromInt(int64(sum.TotalOrders))).Round(0)
	}
	return out, sum
}

// turnover rates each product as units sold per unit on hand. Current stock
// stands in for average stock.
func turnover(rows []*TurnoverRow, days int) ([]*ProductTurnover, TurnoverSummary) {
	out := make([]*ProductTurnover, 0, len(rows))
	sum := TurnoverSummary{TotalProducts: len(rows)}
	var total float64
	for _, r := range rows {
		pt := &ProductTurnover{
			ProductID:    r.ProductID,
			ProductCode:  r.Code,
			ProductName:  r.Name,
			CurrentStock: r.CurrentStock,
			TotalSold:    r.Sold,
			AvgStock:     r.CurrentStock,
			Status:       "normal",
		}
		if pt.AvgStock > 0 {
			pt.TurnoverRate = round(float64(r.Sold)/float64(pt.AvgStock), 2)
		}
		if pt.TurnoverRate > 0 {
			pt.TurnoverDays = int(math.Round(float64(days) / pt.TurnoverRate))
		}
		switch {
		case pt.TurnoverRate >= fastTurnover:
			pt.Status = "fast"
			sum.FastMoving++
		case pt.TurnoverRate < slowTurnover:
			pt.Status = "slow"
			sum.SlowMoving++
		default:
			sum.Normal++
		}
		total += pt.TurnoverRate
		out = append(out, pt)
	}
	slices.SortStableFunc(out, func(a, b *ProductTurnover) int { return cmp.Compare(b.TurnoverRate, a.TurnoverRate) })
	if len(out) > 0 {
		sum.AvgTurnoverRate = round(total/float64(len(out)), 2)
	}
	return out, sum
}

func monthly(t *MonthlyTotals) MonthlySummary {
	s := MonthlySummary{
		OpeningStock:  t.InboundBefore - t.OutboundBefore,
		TotalInbound:  t.Inbound,
		TotalOutbound: t.Outbound,
		ChangeRate:    "0.00%",
	}
	s.ClosingStock = s.OpeningStock + s.TotalInbound - s.TotalOutbound
	s.NetChange = s.ClosingStock - s.OpeningStock
	if s.OpeningStock > 0 {
		s.ChangeRate = fmt.Sprintf("%.2f%%", float64(s.NetChange)/float64(s.OpeningStock)*100)
	}
	return s
}
