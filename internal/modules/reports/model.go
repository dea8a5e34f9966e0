package reports

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event is one dated document with the quantity it moved.
type Event struct {
	At       time.Time `db:"at"`
	Quantity int       `db:"quantity"`
}

// Activity is everything that happened in a time window.
type Activity struct {
	Inbound  []Event
	Outbound []Event
	Picking  int
	Returns  int
	Shipping int
}

type DailySummary struct {
	InboundCount     int `json:"inboundCount"`
	InboundQuantity  int `json:"inboundQuantity"`
	OutboundCount    int `json:"outboundCount"`
	OutboundQuantity int `json:"outboundQuantity"`
	PickingCount     int `json:"pickingCount"`
	ReturnCount      int `json:"returnCount"`
	ShippingCount    int `json:"shippingCount"`
}

type HourlyBucket struct {
	Hour     string `json:"hour"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type DailyReport struct {
	Date       string         `json:"date"`
	Summary    DailySummary   `json:"summary"`
	HourlyData []HourlyBucket `json:"hourlyData"`
}

type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type WeeklyStats struct {
	Inbound  int `json:"inbound"`
	Outbound int `json:"outbound"`
	Picking  int `json:"picking"`
	Returns  int `json:"returns"`
	Shipping int `json:"shipping"`
}

type Comparison struct {
	Inbound  string `json:"inbound"`
	Outbound string `json:"outbound"`
	Picking  string `json:"picking"`
	Returns  string `json:"returns"`
	Shipping string `json:"shipping"`
}

type KeyMetrics struct {
	DeliveryRate string `json:"deliveryRate"`
	ErrorRate    string `json:"errorRate"`
	Productivity string `json:"productivity"`
}

type DayTrend struct {
	Date     string `json:"date"`
	Day      string `json:"day"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type WeeklyReport struct {
	Period      Period      `json:"period"`
	WeeklyStats WeeklyStats `json:"weeklyStats"`
	Comparison  Comparison  `json:"comparison"`
	KeyMetrics  KeyMetrics  `json:"keyMetrics"`
	DailyTrend  []DayTrend  `json:"dailyTrend"`
}

// SalesRow is a product's shipped volume over a window.
type SalesRow struct {
	ProductID uuid.UUID       `db:"id"`
	Code      string          `db:"code"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	Quantity  int             `db:"quantity"`
	Orders    int             `db:"orders"`
}

type ProductSales struct {
	ProductID           uuid.UUID       `json:"productId"`
	ProductCode         string          `json:"productCode"`
	ProductName         string          `json:"productName"`
	TotalQuantity       int             `json:"totalQuantity"`
	TotalRevenue        decimal.Decimal `json:"totalRevenue"`
	OrderCount          int             `json:"orderCount"`
	AvgQuantityPerOrder float64         `json:"avgQuantityPerOrder"`
	UnitPrice           decimal.Decimal `json:"unitPrice"`
}

type RangePeriod struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type,omitempty"`
	Days int    `json:"days,omitempty"`
}

type SalesSummary struct {
	TotalRevenue       decimal.Decimal `json:"totalRevenue"`
	TotalQuantity      int             `json:"totalQuantity"`
	TotalOrders        int             `json:"totalOrders"`
	AvgRevenuePerOrder decimal.Decimal `json:"avgRevenuePerOrder"`
	ProductCount       int             `json:"productCount"`
}

type SalesReport struct {
	Period      RangePeriod     `json:"period"`
	Summary     SalesSummary    `json:"summary"`
	BestSellers []*ProductSales `json:"bestSellers"`
	Products    []*ProductSales `json:"products"`
}

type TurnoverRow struct {
	ProductID    uuid.UUID `db:"id"`
	Code         string    `db:"code"`
	Name         string    `db:"name"`
	CurrentStock int       `db:"current_stock"`
	Sold         int       `db:"sold"`
}

type ProductTurnover struct {
	ProductID    uuid.UUID `json:"productId"`
	ProductCode  string    `json:"productCode"`
	ProductName  string    `json:"productName"`
	CurrentStock int       `json:"currentStock"`
	TotalSold    int       `json:"totalSold"`
	AvgStock     int       `json:"avgStock"`
	TurnoverRate float64   `json:"turnoverRate"`
	TurnoverDays int       `json:"turnoverDays"`
	Status       string    `json:"status"`
}

type TurnoverSummary struct {
	TotalProducts   int     `json:"totalProducts"`
	AvgTurnoverRate float64 `json:"avgTurnoverRate"`
	FastMoving      int     `json:"fastMoving"`
	Normal          int     `json:"normal"`
	SlowMoving      int     `json:"slowMoving"`
}

type TurnoverReport struct {
	Period   RangePeriod        `json:"period"`
	Summary  TurnoverSummary    `json:"summary"`
	Products []*ProductTurnover `json:"products"`
}

// MonthlyTotals are the stock flows before and during a month.
type MonthlyTotals struct {
	InboundBefore  int `db:"inbound_before"`
	OutboundBefore int `db:"outbound_before"`
	Inbound        int `db:"inbound"`
	Outbound       int `db:"outbound"`
}

type MonthlyProduct struct {
	ProductCode  string `db:"code" json:"productCode"`
	ProductName  string `db:"name" json:"productName"`
	Inbound      int    `db:"inbound" json:"inbound"`
	Outbound     int    `db:"outbound" json:"outbound"`
	CurrentStock int    `db:"current_stock" json:"currentStock"`
}

type MonthPeriod struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Label string `json:"label"`
}

type MonthlySummary struct {
	OpeningStock  int    `json:"openingStock"`
	TotalInbound  int    `json:"totalInbound"`
	TotalOutbound int    `json:"totalOutbound"`
	ClosingStock  int    `json:"closingStock"`
	NetChange     int    `json:"netChange"`
	ChangeRate    string `json:"changeRate"`
}

type MonthlyReport struct {
	Period   MonthPeriod       `json:"period"`
	Summary  MonthlySummary    `json:"summary"`
	Products []*MonthlyProduct `json:"products"`
}
