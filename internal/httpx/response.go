// Package httpx holds the JSON envelope and request helpers shared by every module handler.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/i18n"
	"github.com/georgemunganga/wms-backend/internal/logger"
	"go.uber.org/zap"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success     bool        `json:"success"`
	Data        any         `json:"data,omitempty"`
	Message     string      `json:"message,omitempty"`
	Error       string      `json:"error,omitempty"`
	Code        apperr.Code `json:"code,omitempty"`
	Details     string      `json:"details,omitempty"`
	Required    any         `json:"required,omitempty"`
	ValidValues any         `json:"validValues,omitempty"`
	Available   any         `json:"available,omitempty"`
	Requested   any         `json:"requested,omitempty"`
	Pagination  *Pagination `json:"pagination,omitempty"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes totalPages as ceil(total/limit).
func NewPagination(page, limit, total int) *Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// ShowDetails controls whether internal error text is echoed to clients.
var ShowDetails = true

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func OK(w http.ResponseWriter, data any) {
	respond(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(w http.ResponseWriter, data any) {
	respond(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// OKMessage writes data together with a human-readable message.
func OKMessage(w http.ResponseWriter, data any, message string) {
	respond(w, http.StatusOK, Envelope{Success: true, Data: data, Message: message})
}

func Paginated(w http.ResponseWriter, data any, p *Pagination) {
	respond(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: p})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalid, apperr.KindInsufficientStock:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindConcurrentModification:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as a localized envelope. Unclassified errors become 500s and are logged.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		ae = apperr.Internal(err)
	}
	status := StatusFor(ae.Kind)

	body := Envelope{
		Success: false,
		Error:   i18n.Message(i18n.FromContext(r.Context()), ae.MessageID, ae.Message, ae.Data),
		Code:    ae.Code,
	}
	if ae.Data != nil {
		body.Required = ae.Data["required"]
		body.ValidValues = ae.Data["validValues"]
		body.Available = ae.Data["available"]
		body.Requested = ae.Data["requested"]
	}
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		if ShowDetails {
			body.Details = err.Error()
		}
	}
	respond(w, status, body)
}
