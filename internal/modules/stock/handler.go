package stock

import (
	"net/http"

	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/go-chi/chi/v5"
)

// Handler exposes stock HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/stock", func(r chi.Router) {
		r.Get("/", h.listStock)                  // GET    /api/stock?warehouseId=&lowStock=true&search=&page=1&limit=20
		r.Get("/movement", h.listMovements)      // GET    /api/stock/movement?type=transfer&search=&limit=100
		r.Get("/available/{id}", h.available)    // GET    /api/stock/available/{productId}
		r.Patch("/status", h.changeStatus)       // PATCH  /api/stock/status
		r.Patch("/location", h.transfer)         // PATCH  /api/stock/location
		r.Post("/audit", h.recordCount)          // POST   /api/stock/audit
		r.Post("/audit/approve", h.resolveCount) // POST   /api/stock/audit/approve
		r.Post("/reserve", h.reserve)            // POST   /api/stock/reserve
		r.Delete("/reserve", h.release)          // DELETE /api/stock/reserve?reservationId=&userId=
		r.Get("/{id}", h.getProductStock)        // GET    /api/stock/{productId}?warehouseId=
	})
}

func (h *Handler) listStock(w http.ResponseWriter, r *http.Request) {
	page, limit, err := httpx.PageParams(r)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	warehouseID, err := httpx.QueryUUID(r, "warehouseId")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	f := ListFilter{
		WarehouseID: warehouseID,
		LowStock:    r.URL.Query().Get("lowStock") == "true",
		Search:      r.URL.Query().Get("search"),
		Page:        page,
		Limit:       limit,
	}
	items, total, err := h.service.ListStock(r.Context(), f)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Paginated(w, items, httpx.NewPagination(page, limit, total))
}

func (h *Handler) getProductStock(w http.ResponseWriter, r *http.Request) {
	ps, err := h.service.GetProductStock(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("warehouseId"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, ps)
}

func (h *Handler) available(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.GetAvailability(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, a)
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	var req ChangeStatusRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.ChangeStatus(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, res)
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.Transfer(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, res)
}

func (h *Handler) recordCount(w http.ResponseWriter, r *http.Request) {
	var req CountRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.RecordCount(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, res)
}

func (h *Handler) resolveCount(w http.ResponseWriter, r *http.Request) {
	var req ResolveCountRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.ResolveCount(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, res)
}

func (h *Handler) reserve(w http.ResponseWriter, r *http.Request) {
	var req ReserveRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.Reserve(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, res)
}

func (h *Handler) release(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rsv, err := h.service.Release(r.Context(), q.Get("reservationId"), q.Get("userId"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, rsv)
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	limit, err := httpx.QueryInt(r, "limit", defaultMovementLimit)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	q := r.URL.Query()
	entries, err := h.service.Movements(r.Context(), q.Get("type"), q.Get("search"), limit)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, entries)
}
