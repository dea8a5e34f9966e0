package picking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksum_Luhn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   string
		want int
	}{
		{"7992739871", 3},
		{"0", 0},
		{"1", 8},
		{"", 0},
		// only digits count
		{"79a92-739b871", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Checksum(tt.id), tt.id)
	}
}

func TestParseBarcode(t *testing.T) {
	t.Parallel()

	id := "1b4e28ba-2fa1-11d2-883f-0016d3cca427"
	productID, digit, ok := ParseBarcode(Barcode(id))
	assert.True(t, ok)
	assert.Equal(t, id, productID)
	assert.Equal(t, Checksum(id), digit)

	for _, bad := range []string{"", "PROD-", "PROD-abc", "ITEM-abc-1", "PROD-abc-x"} {
		_, _, ok := ParseBarcode(bad)
		assert.False(t, ok, bad)
	}
}
