package shipping

import (
	"net/http"

	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/georgemunganga/wms-backend/internal/modules/outbound"
	"github.com/go-chi/chi/v5"
)

type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/shipping", func(r chi.Router) {
		r.Post("/process", h.process)             // POST /api/shipping/process
		r.Patch("/deliver", h.deliver)            // PATCH /api/shipping/deliver
		r.Get("/list", h.list)                    // GET /api/shipping/list?status=&carrier=&page=1&limit=20
		r.Get("/track/{trackingNumber}", h.track) // GET /api/shipping/track/{trackingNumber}
	})
}

func (h *Handler) process(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.Process(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OKMessage(w, res, "배송이 시작되었습니다.")
}

func (h *Handler) deliver(w http.ResponseWriter, r *http.Request) {
	var req DeliverRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.Deliver(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, res)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit, err := httpx.PageParams(r)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	f := ListFilter{
		Status:  outbound.Status(r.URL.Query().Get("status")),
		Carrier: r.URL.Query().Get("carrier"),
		Page:    page,
		Limit:   limit,
	}
	out, total, err := h.service.List(r.Context(), f)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Paginated(w, out, httpx.NewPagination(page, limit, total))
}

func (h *Handler) track(w http.ResponseWriter, r *http.Request) {
	sh, err := h.service.Track(r.Context(), chi.URLParam(r, "trackingNumber"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, sh)
}
