package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter counts all HTTP requests with labels
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDurationHistogram records request duration in seconds
	RequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// StockMovements counts applied ledger mutations per operation.
	StockMovements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wms_stock_movements_total",
			Help: "Stock ledger mutations applied, by operation",
		},
		[]string{"operation"},
	)

	// StockUnits sums the absolute quantity moved per operation.
	StockUnits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wms_stock_units_total",
			Help: "Units moved through the stock ledger, by operation",
		},
		[]string{"operation"},
	)

	StockRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wms_stock_rejections_total",
			Help: "Stock mutations rejected, by operation and reason",
		},
		[]string{"operation", "reason"},
	)
)

// Register adds every collector to reg. Call once per registry.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		RequestCounter,
		RequestDurationHistogram,
		StockMovements,
		StockUnits,
		StockRejections,
	)
}

// ObserveMovement records one successful ledger mutation.
func ObserveMovement(operation string, units int) {
	if units < 0 {
		units = -units
	}
	StockMovements.WithLabelValues(operation).Inc()
	StockUnits.WithLabelValues(operation).Add(float64(units))
}

// ObserveRejection records a ledger mutation that was refused.
func ObserveRejection(operation, reason string) {
	StockRejections.WithLabelValues(operation, reason).Inc()
}

// Middleware records request count and latency. The path label is the chi route
// pattern so ids do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		labels := []string{r.Method, path, strconv.Itoa(status)}
		RequestCounter.WithLabelValues(labels...).Inc()
		RequestDurationHistogram.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
