package reports

import (
	"net/http"

	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/go-chi/chi/v5"
)

type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/reports", func(r chi.Router) {
		r.Get("/daily", h.daily)               // GET /api/reports/daily?date=2024-03-04&timeUnit=hourly|daily
		r.Get("/weekly", h.weekly)             // GET /api/reports/weekly?week=current|last
		r.Get("/sales", h.sales)               // GET /api/reports/sales?period=1month&limit=20
		r.Get("/turnover", h.turnover)         // GET /api/reports/turnover?period=1month&productId=
		r.Get("/inventory/monthly", h.monthly) // GET /api/reports/inventory/monthly?year=2024&month=3
	})
}

func (h *Handler) daily(w http.ResponseWriter, r *http.Request) {
	date, err := httpx.QueryDate(r, "date")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	rep, err := h.service.Daily(r.Context(), date, r.URL.Query().Get("timeUnit") != "daily")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, rep)
}

func (h *Handler) weekly(w http.ResponseWriter, r *http.Request) {
	rep, err := h.service.Weekly(r.Context(), r.URL.Query().Get("week"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, rep)
}

func (h *Handler) sales(w http.ResponseWriter, r *http.Request) {
	limit, err := httpx.QueryInt(r, "limit", defaultSalesLimit)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	rep, err := h.service.Sales(r.Context(), r.URL.Query().Get("period"), limit)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, rep)
}

func (h *Handler) turnover(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rep, err := h.service.Turnover(r.Context(), q.Get("period"), q.Get("productId"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, rep)
}

func (h *Handler) monthly(w http.ResponseWriter, r *http.Request) {
	year, err := httpx.QueryInt(r, "year", 0)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	month, err := httpx.QueryInt(r, "month", 0)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	rep, err := h.service.MonthlyInventory(r.Context(), year, month)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, rep)
}
