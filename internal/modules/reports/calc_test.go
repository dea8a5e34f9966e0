package reports

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seoul = time.FixedZone("KST", 9*60*60)

func TestChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		current, last int
		want          string
	}{
		{0, 0, "0%"},
		{5, 0, "100%"},
		{10, 10, "0.0%"},
		{15, 10, "50.0%"},
		{1, 3, "-66.7%"},
		{2, 3, "-33.3%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, change(tt.current, tt.last), "%d vs %d", tt.current, tt.last)
	}
}

func TestWeekStart(t *testing.T) {
	t.Parallel()

	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, seoul)
	for _, d := range []time.Time{
		time.Date(2024, 3, 4, 0, 0, 0, 0, seoul),
		time.Date(2024, 3, 6, 15, 30, 0, 0, seoul),
		time.Date(2024, 3, 10, 23, 59, 0, 0, seoul), // sunday
	} {
		assert.Equal(t, monday, weekStart(d), d.Weekday())
	}
}

func TestHourly(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 4, 0, 0, 0, 0, seoul)
	a := &Activity{
		Inbound: []Event{{At: start.Add(30 * time.Minute)}, {At: start.Add(9*time.Hour + 5*time.Minute)}},
		// 09:10 KST expressed in UTC still lands in the 09:00 bucket
		Outbound: []Event{{At: time.Date(2024, 3, 4, 0, 10, 0, 0, time.UTC)}},
	}
	buckets := hourly(a, start)
	require.Len(t, buckets, 24)
	assert.Equal(t, "00:00", buckets[0].Hour)
	assert.Equal(t, 1, buckets[0].Inbound)
	assert.Equal(t, HourlyBucket{Hour: "09:00", Inbound: 1, Outbound: 1}, buckets[9])
	assert.Equal(t, "23:00", buckets[23].Hour)
}

func TestWeekly(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 4, 0, 0, 0, 0, seoul)
	current := &Activity{
		Inbound:  []Event{{At: start}, {At: start.AddDate(0, 0, 6).Add(time.Hour)}},
		Outbound: []Event{{At: start}, {At: start}, {At: start.AddDate(0, 0, 2)}, {At: start.AddDate(0, 0, 2)}},
		Picking:  2,
		Returns:  1,
		Shipping: 3,
	}
	last := &Activity{Inbound: []Event{{At: start}}, Outbound: make([]Event, 4), Picking: 0, Shipping: 3}

	rep := weekly(current, last, start)
	assert.Equal(t, Period{Start: "2024-03-04", End: "2024-03-10"}, rep.Period)
	assert.Equal(t, Comparison{Inbound: "100.0%", Outbound: "0.0%", Picking: "100%", Returns: "100%", Shipping: "0.0%"}, rep.Comparison)
	assert.Equal(t, KeyMetrics{DeliveryRate: "75.0%", ErrorRate: "25.0%", Productivity: "2.0"}, rep.KeyMetrics)
	require.Len(t, rep.DailyTrend, 7)
	assert.Equal(t, DayTrend{Date: "2024-03-04", Day: "월", Inbound: 1, Outbound: 2}, rep.DailyTrend[0])
	assert.Equal(t, 2, rep.DailyTrend[2].Outbound)
	assert.Equal(t, DayTrend{Date: "2024-03-10", Day: "일", Inbound: 1}, rep.DailyTrend[6])
}

func TestSales(t *testing.T) {
	t.Parallel()

	rows := []*SalesRow{
		{ProductID: uuid.New(), Code: "A", Price: decimal.RequireFromString("1000.50"), Quantity: 2, Orders: 2},
		{ProductID: uuid.New(), Code: "B", Price: decimal.NewFromInt(300), Quantity: 10, Orders: 3},
		{ProductID: uuid.New(), Code: "C", Price: decimal.NewFromInt(5000), Quantity: 0, Orders: 0},
	}
	products, sum := sales(rows, 20)
	require.Len(t, products, 2)
	assert.Equal(t, "B", products[0].ProductCode)
	assert.True(t, decimal.NewFromInt(3000).Equal(products[0].TotalRevenue))
	assert.InDelta(t, 3.3, products[0].AvgQuantityPerOrder, 1e-9)
	assert.True(t, decimal.RequireFromString("5001").Equal(sum.TotalRevenue))
	assert.Equal(t, 12, sum.TotalQuantity)
	assert.Equal(t, 5, sum.TotalOrders)
	assert.True(t, decimal.NewFromInt(1000).Equal(sum.AvgRevenuePerOrder), sum.AvgRevenuePerOrder.String())

	top, _ := sales(rows, 1)
	assert.Len(t, top, 1)
}

func TestTurnover(t *testing.T) {
	t.Parallel()

	rows := []*TurnoverRow{
		{Code: "slow", CurrentStock: 100, Sold: 50},
		{Code: "fast", CurrentStock: 10, Sold: 45},
		{Code: "normal", CurrentStock: 30, Sold: 60},
		{Code: "empty", CurrentStock: 0, Sold: 5},
	}
	products, sum := turnover(rows, 30)
	require.Len(t, products, 4)
	assert.Equal(t, "fast", products[0].ProductCode)
	assert.Equal(t, 4.5, products[0].TurnoverRate)
	assert.Equal(t, 7, products[0].TurnoverDays)
	assert.Equal(t, "fast", products[0].Status)
	assert.Equal(t, "normal", products[1].Status)
	assert.Equal(t, 15, products[1].TurnoverDays)
	assert.Equal(t, "slow", products[2].Status)
	assert.Equal(t, 0, products[3].TurnoverDays)
	assert.Equal(t, TurnoverSummary{TotalProducts: 4, AvgTurnoverRate: 1.75, FastMoving: 1, Normal: 1, SlowMoving: 2}, sum)
}

func TestMonthly(t *testing.T) {
	t.Parallel()

	s := monthly(&MonthlyTotals{InboundBefore: 300, OutboundBefore: 100, Inbound: 80, Outbound: 30})
	assert.Equal(t, MonthlySummary{
		OpeningStock: 200, TotalInbound: 80, TotalOutbound: 30, ClosingStock: 250, NetChange: 50, ChangeRate: "25.00%",
	}, s)

	assert.Equal(t, "0.00%", monthly(&MonthlyTotals{Inbound: 5}).ChangeRate)
}
