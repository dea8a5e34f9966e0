package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { Register(reg) })
}

func TestObserveMovement(t *testing.T) {
	before := testutil.ToFloat64(StockUnits.WithLabelValues("test_decrement"))

	ObserveMovement("test_decrement", -7)
	ObserveMovement("test_decrement", 3)

	assert.InDelta(t, before+10, testutil.ToFloat64(StockUnits.WithLabelValues("test_decrement")), 0.001)
	assert.InDelta(t, 2, testutil.ToFloat64(StockMovements.WithLabelValues("test_decrement")), 0.001)
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/stock/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/stock/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/stock/def", nil))

	got := testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "/api/stock/{id}", "404"))
	assert.InDelta(t, 2, got, 0.001)
}
