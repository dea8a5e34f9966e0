package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/georgemunganga/wms-backend/internal/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestError_InsufficientStockHints(t *testing.T) {
	t.Parallel()

	tr, err := i18n.New("ko")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/outbound/manual", nil)
	req = req.WithContext(i18n.WithLocalizer(req.Context(), tr.Localizer("en")))
	rec := httptest.NewRecorder()

	Error(rec, req, apperr.InsufficientStock(100, 160))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "WMS-1002", body["code"])
	assert.EqualValues(t, 100, body["available"])
	assert.EqualValues(t, 160, body["requested"])
	assert.Equal(t, "Insufficient stock (available: 100, requested: 160)", body["error"])
}

func TestError_UnclassifiedIsInternal(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "internal error", body["error"])
	assert.Contains(t, body["details"], "boom")
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusBadRequest, StatusFor(apperr.KindInvalid))
	assert.Equal(t, http.StatusBadRequest, StatusFor(apperr.KindInsufficientStock))
	assert.Equal(t, http.StatusNotFound, StatusFor(apperr.KindNotFound))
	assert.Equal(t, http.StatusConflict, StatusFor(apperr.KindConcurrentModification))
	assert.Equal(t, http.StatusConflict, StatusFor(apperr.KindConflict))
	assert.Equal(t, http.StatusUnauthorized, StatusFor(apperr.KindUnauthorized))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(apperr.KindInternal))
}

func TestRequired(t *testing.T) {
	t.Parallel()

	var nilPtr *int
	err := Required(F("productId", ""), F("quantity", 0), F("items", []string{}), F("ptr", nilPtr), F("name", "ok"))
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, []string{"productId", "quantity", "items", "ptr"}, ae.Data["required"])

	require.NoError(t, Required(F("quantity", 3), F("name", "x")))
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	var dst struct{ A int }
	err := Decode(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{")), &dst)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))
}

func TestPageParamsAndPagination(t *testing.T) {
	t.Parallel()

	page, limit, err := PageParams(httptest.NewRequest(http.MethodGet, "/?page=0&limit=500", nil))
	require.NoError(t, err)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)

	_, _, err = PageParams(httptest.NewRequest(http.MethodGet, "/?page=abc", nil))
	assert.True(t, apperr.IsKind(err, apperr.KindInvalid))

	p := NewPagination(2, 20, 41)
	assert.Equal(t, 3, p.TotalPages)
}

func TestQueryDate(t *testing.T) {
	t.Parallel()

	d, err := QueryDate(httptest.NewRequest(http.MethodGet, "/?date=2024-03-05", nil), "date")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 5, d.Day())

	_, err = QueryDate(httptest.NewRequest(http.MethodGet, "/?date=05/03/2024", nil), "date")
	assert.Error(t, err)

	d, err = QueryDate(httptest.NewRequest(http.MethodGet, "/", nil), "date")
	require.NoError(t, err)
	assert.Nil(t, d)
}
