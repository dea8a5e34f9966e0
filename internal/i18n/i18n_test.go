package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage(t *testing.T) {
	t.Parallel()

	tr, err := New("ko")
	require.NoError(t, err)

	data := map[string]any{"available": 40, "requested": 60}

	tests := []struct {
		name   string
		langs  []string
		id     string
		expect string
	}{
		{"korean default", nil, "InsufficientStock", "재고가 부족합니다 (가용: 40, 요청: 60)"},
		{"english", []string{"en"}, "InsufficientStock", "Insufficient stock (available: 40, requested: 60)"},
		{"accept-language header", []string{"vi-VN,vi;q=0.9"}, "ProductNotFound", "Không tìm thấy sản phẩm"},
		{"unsupported falls back", []string{"fr"}, "ProductNotFound", "상품을 찾을 수 없습니다"},
		{"unknown id uses fallback", []string{"en"}, "NoSuchMessage", "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Message(tr.Localizer(tt.langs...), tt.id, "fallback", data)
			assert.Equal(t, tt.expect, got)
		})
	}
}

func TestMessage_NilLocalizer(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "fallback", Message(nil, "ProductNotFound", "fallback", nil))
}

func TestMiddleware_QueryWinsOverHeader(t *testing.T) {
	t.Parallel()

	tr, err := New("ko")
	require.NoError(t, err)

	var got string
	h := tr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = Message(FromContext(r.Context()), "OrderNotFound", "", nil)
	}))

	req := httptest.NewRequest(http.MethodGet, "/?locale=en", nil)
	req.Header.Set("Accept-Language", "vi")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "Order not found", got)
}
