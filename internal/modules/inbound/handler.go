package inbound

import (
	"net/http"

	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/go-chi/chi/v5"
)

// Handler exposes inbound HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/inbound/manual", h.receiveManual)   // POST /api/inbound/manual
	r.Get("/api/inbound/schedules", h.listSchedules) // GET /api/inbound/schedules?status=pending

	r.Route("/api/inbound-requests", func(r chi.Router) {
		r.Get("/", h.listRequests)   // GET  /api/inbound-requests?status=
		r.Post("/", h.createRequest) // POST /api/inbound-requests
	})

	r.Route("/api/inbound-status/{requestNumber}", func(r chi.Router) {
		r.Get("/", h.getStatus)        // GET    /api/inbound-status/{requestNumber}
		r.Patch("/", h.updateStatus)   // PATCH  /api/inbound-status/{requestNumber}
		r.Delete("/", h.deleteRequest) // DELETE /api/inbound-status/{requestNumber}?userId=
	})
}

func (h *Handler) receiveManual(w http.ResponseWriter, r *http.Request) {
	var req ManualRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.ReceiveManual(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, res)
}

func (h *Handler) listSchedules(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListSchedules(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, out)
}

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListRequests(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, out)
}

func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	out, err := h.service.CreateRequest(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, out)
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.GetStatus(r.Context(), chi.URLParam(r, "requestNumber"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, out)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	out, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "requestNumber"), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OKMessage(w, out, "status updated")
}

func (h *Handler) deleteRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRequest(r.Context(), chi.URLParam(r, "requestNumber"), r.URL.Query().Get("userId")); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OKMessage(w, nil, "inbound request deleted")
}
