package outbound

import (
	"net/http"

	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/go-chi/chi/v5"
)

// Handler exposes outbound HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/outbound", func(r chi.Router) {
		r.Post("/manual", h.issueManual)        // POST /api/outbound/manual
		r.Post("/", h.createOrder)              // POST /api/outbound
		r.Get("/", h.listOrders)                // GET /api/outbound?status=&search=&page=1&limit=20
		r.Get("/{id}", h.getOrder)              // GET /api/outbound/{id}
		r.Patch("/{id}/status", h.updateStatus) // PATCH /api/outbound/{id}/status
	})
}

func (h *Handler) issueManual(w http.ResponseWriter, r *http.Request) {
	var req ManualRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.IssueManual(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, res)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	o, err := h.service.CreateOrder(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	page, limit, err := httpx.PageParams(r)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	f := ListFilter{
		Status: Status(r.URL.Query().Get("status")),
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	}
	orders, total, err := h.service.ListOrders(r.Context(), f)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Paginated(w, orders, httpx.NewPagination(page, limit, total))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, o)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	o, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OKMessage(w, o, "order status updated")
}
