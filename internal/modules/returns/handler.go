package returns

import (
	"net/http"

	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/go-chi/chi/v5"
)

// Handler exposes the return pipeline over HTTP.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/returns", func(r chi.Router) {
		r.Post("/request", h.request)      // POST /api/returns/request
		r.Get("/request", h.list)          // GET /api/returns/request?returnId=&period=30&status=
		r.Patch("/status", h.updateStatus) // PATCH /api/returns/status
		r.Post("/inspect", h.inspect)      // POST /api/returns/inspect
		r.Post("/classify", h.classify)    // POST /api/returns/classify
		r.Post("/process", h.process)      // POST /api/returns/process
		r.Post("/refund", h.refund)        // POST /api/returns/refund
	})
}

func (h *Handler) request(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	v, err := h.service.Request(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, v)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	period, err := httpx.QueryInt(r, "period", defaultPeriod)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	q := r.URL.Query()
	res, err := h.service.List(r.Context(), q.Get("returnId"), period, q.Get("status"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, res)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.UpdateStatus(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, res)
}

func (h *Handler) inspect(w http.ResponseWriter, r *http.Request) {
	var req InspectRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.Inspect(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OKMessage(w, res, "검수가 완료되었습니다.")
}

func (h *Handler) classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.Classify(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, res)
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
	httpx.OK(w, res)
}

func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	var req RefundRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.Refund(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OKMessage(w, res, "환불이 처리되었습니다.")
}
