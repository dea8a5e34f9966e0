package warehouse

import (
	"net/http"

	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/go-chi/chi/v5"
)

type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/warehouse", func(r chi.Router) {
		r.Get("/", h.listWarehouses)     // GET /api/warehouse?page=1&limit=20
		r.Get("/{id}/stock", h.getStock) // GET /api/warehouse/{id}/stock?zoneId=
	})
}

func (h *Handler) listWarehouses(w http.ResponseWriter, r *http.Request) {
	page, limit, err := httpx.PageParams(r)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	ws, total, err := h.service.ListWarehouses(r.Context(), page, limit)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Paginated(w, ws, httpx.NewPagination(page, limit, total))
}

func (h *Handler) getStock(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetStockSummary(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("zoneId"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, summary)
}
