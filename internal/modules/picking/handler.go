package picking

import (
	"net/http"

	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/go-chi/chi/v5"
)

// Handler exposes picking and packing HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/picking", func(r chi.Router) {
		r.Get("/queue", h.queue)                   // GET /api/picking/queue?sortBy=orderDate&filter=urgent
		r.Post("/assign", h.assign)                // POST /api/picking/assign
		r.Post("/batch", h.batch)                  // POST /api/picking/batch
		r.Patch("/reassign", h.reassign)           // PATCH /api/picking/reassign
		r.Post("/cancel", h.cancel)                // POST /api/picking/cancel
		r.Get("/pick", h.tasks)                    // GET /api/picking/pick?status=&workerId=
		r.Post("/pick", h.pick)                    // POST /api/picking/pick
		r.Post("/barcode-verify", h.verifyBarcode) // POST /api/picking/barcode-verify
		r.Get("/barcode/{productId}", h.barcode)   // GET /api/picking/barcode/{productId}
		r.Get("/packing", h.packing)               // GET /api/picking/packing?status=&page=1&limit=20
	})
}

func (h *Handler) queue(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.Queue(r.Context(), r.URL.Query().Get("sortBy"), r.URL.Query().Get("filter"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, q)
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.Assign(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, res)
}

func (h *Handler) batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.AssignBatch(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OKMessage(w, res, res.Message)
}

func (h *Handler) reassign(w http.ResponseWriter, r *http.Request) {
	var req ReassignRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.Reassign(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OKMessage(w, res, "피킹 작업이 재할당되었습니다.")
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.Cancel(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OKMessage(w, res, "피킹 작업이 취소되었습니다.")
}

func (h *Handler) tasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := h.service.Tasks(r.Context(), q.Get("status"), q.Get("workerId"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, tasks)
}

func (h *Handler) pick(w http.ResponseWriter, r *http.Request) {
	var req PickRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.Pick(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, res)
}

func (h *Handler) verifyBarcode(w http.ResponseWriter, r *http.Request) {
	var req BarcodeVerifyRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.VerifyBarcode(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, res)
}

func (h *Handler) barcode(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.BarcodeFor(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, res)
}

func (h *Handler) packing(w http.ResponseWriter, r *http.Request) {
	page, limit, err := httpx.PageParams(r)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	tasks, total, err := h.service.PackingTasks(r.Context(), r.URL.Query().Get("status"), page, limit)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Paginated(w, tasks, httpx.NewPagination(page, limit, total))
}
