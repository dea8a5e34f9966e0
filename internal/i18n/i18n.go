// Package i18n localizes client-facing messages for the ko, en and vi locales.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Supported lists the locales shipped with the binary.
var Supported = []language.Tag{language.Korean, language.English, language.Vietnamese}

// Translator resolves message ids against the embedded catalogs.
type Translator struct {
	bundle        *goi18n.Bundle
	defaultLocale string
}

// New loads every embedded catalog. defaultLocale is used when a request names no supported locale.
func New(defaultLocale string) (*Translator, error) {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.Korean
	}

	bundle := goi18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	files, err := fs.Glob(localeFS, "locales/*.json")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(localeFS, f); err != nil {
			return nil, err
		}
	}
	return &Translator{bundle: bundle, defaultLocale: tag.String()}, nil
}

// Localizer returns a localizer preferring the given languages in order.
func (t *Translator) Localizer(langs ...string) *goi18n.Localizer {
	return goi18n.NewLocalizer(t.bundle, append(langs, t.defaultLocale)...)
}

// Message localizes id; fallback is returned when the catalog has no entry.
func Message(l *goi18n.Localizer, id, fallback string, data map[string]any) string {
	if l == nil || id == "" {
		return fallback
	}
	msg, err := l.Localize(&goi18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil || msg == "" {
		return fallback
	}
	return msg
}

type contextKey struct{}

// WithLocalizer stores the request localizer in ctx.
func WithLocalizer(ctx context.Context, l *goi18n.Localizer) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the request localizer or nil.
func FromContext(ctx context.Context) *goi18n.Localizer {
	l, _ := ctx.Value(contextKey{}).(*goi18n.Localizer)
	return l
}

// Middleware picks the locale from ?locale= first, then Accept-Language.
func (t *Translator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var langs []string
		if q := r.URL.Query().Get("locale"); q != "" {
			langs = append(langs, q)
		}
		if accept := r.Header.Get("Accept-Language"); accept != "" {
			langs = append(langs, accept)
		}
		ctx := WithLocalizer(r.Context(), t.Localizer(langs...))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
