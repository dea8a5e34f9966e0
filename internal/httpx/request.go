package httpx

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/google/uuid"
)

// Decode reads a JSON body into dst.
func Decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Invalid("InvalidBody", "invalid request body").Wrap(err)
	}
	return nil
}

// Field names one request value for a Required check.
type Field struct {
	Name  string
	Value any
}

// F is shorthand for Field.
func F(name string, value any) Field { return Field{Name: name, Value: value} }

// Required returns a MissingFields error listing every zero-valued field.
func Required(fields ...Field) error {
	var missing []string
	for _, f := range fields {
		if isZero(f.Value) {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return apperr.MissingFields(missing...)
	}
	return nil
}

func isZero(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.String:
		return strings.TrimSpace(rv.String()) == ""
	default:
		return rv.IsZero()
	}
}

// QueryInt parses an integer query parameter, returning def when absent.
func QueryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidQuery(key, err)
	}
	return n, nil
}

// QueryDate parses a YYYY-MM-DD or RFC3339 query parameter. Missing → nil.
func QueryDate(r *http.Request, key string) (*time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		return nil, invalidQuery(key, err)
	}
	return &t, nil
}

// ParseDate accepts a calendar date or a full RFC3339 timestamp.
func ParseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// QueryUUID parses an optional uuid query parameter.
func QueryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, invalidQuery(key, err)
	}
	return &id, nil
}

// PageParams reads page and limit with the listing defaults (1 and 20).
func PageParams(r *http.Request) (page, limit int, err error) {
	if page, err = QueryInt(r, "page", 1); err != nil {
		return 0, 0, err
	}
	if limit, err = QueryInt(r, "limit", 20); err != nil {
		return 0, 0, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit, nil
}

// ParseID parses a path or body identifier, reporting the field name on failure.
func ParseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Invalid("InvalidValue", "invalid "+field).With("field", field).Wrap(err)
	}
	return id, nil
}

func invalidQuery(key string, err error) error {
	return apperr.Invalid("InvalidQuery", "invalid query parameter "+key).With("field", key).Wrap(err)
}
