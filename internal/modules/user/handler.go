package user

import (
	"net/http"
	"time"

	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", h.listUsers)                      // GET /api/users
		r.Post("/", h.createUser)                    // POST /api/users
		r.Patch("/", h.updateUser)                   // PATCH /api/users
		r.Delete("/", h.deleteUser)                  // DELETE /api/users?userId=&deletedBy=
		r.Get("/permissions", h.getPermissions)      // GET /api/users/permissions?userId=
		r.Patch("/permissions", h.updatePermissions) // PATCH /api/users/permissions
		r.Get("/activity", h.activity)               // GET /api/users/activity?userId=&action=&startDate=&endDate=&limit=50
	})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ListUsers(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, res)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.CreateUser(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, res)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.UpdateUser(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OKMessage(w, res, "사용자 정보가 수정되었습니다.")
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.service.DeleteUser(r.Context(), q.Get("userId"), q.Get("deletedBy"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OKMessage(w, res, "사용자가 삭제되었습니다.")
}

func (h *Handler) getPermissions(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.GetPermissions(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, res)
}

func (h *Handler) updatePermissions(w http.ResponseWriter, r *http.Request) {
	var req PermissionsRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.service.UpdatePermissions(r.Context(), req)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OKMessage(w, res, "권한이 업데이트되었습니다.")
}

func (h *Handler) activity(w http.ResponseWriter, r *http.Request) {
	limit, err := httpx.QueryInt(r, "limit", defaultActivityLimit)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	from, err := httpx.QueryDate(r, "startDate")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	to, err := httpx.QueryDate(r, "endDate")
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	// a bare end date covers that whole day
	if to != nil && len(r.URL.Query().Get("endDate")) == len(time.DateOnly) {
		end := to.AddDate(0, 0, 1)
		to = &end
	}
	q := r.URL.Query()
	res, err := h.service.Activity(r.Context(), ActivityFilter{
		UserID: q.Get("userId"),
		Action: q.Get("action"),
		From:   from,
		To:     to,
		Limit:  limit,
	})
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, res)
}
