package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/georgemunganga/wms-backend/internal/logger"
	"go.uber.org/zap"
)

const loginPath = "/api/auth/login"

type contextKey struct{}

// WithClaims stores c in ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the caller's claims, or nil for anonymous requests.
func FromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(contextKey{}).(*Claims)
	return c
}

// Middleware reads "Authorization: Bearer <token>". With required set, /api
// routes other than login answer 401 unless the token verifies; otherwise a
// bad token is logged and the request continues anonymously.
func Middleware(issuer *Issuer, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guarded := required && strings.HasPrefix(r.URL.Path, "/api/") && r.URL.Path != loginPath

			raw, ok := bearer(r)
			if !ok {
				if guarded {
					httpx.Error(w, r, errMissingToken())
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			claims, err := issuer.Parse(raw)
			if err != nil {
				if guarded {
					httpx.Error(w, r, errInvalidToken().Wrap(err))
					return
				}
				logger.FromContext(r.Context()).Debug("ignoring unverifiable token", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func errMissingToken() *apperr.Error {
	e := apperr.Unauthorized("authentication required")
	e.MessageID = "TokenRequired"
	return e
}

func errInvalidToken() *apperr.Error {
	e := apperr.Unauthorized("invalid or expired token")
	e.MessageID = "TokenInvalid"
	return e
}
