package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterWhere(t *testing.T) {
	t.Parallel()

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		filter   Filter
		where    string
		argCount int
	}{
		{"empty", Filter{}, "", 0},
		{"user only", Filter{UserID: "admin"}, " WHERE user_id = ?", 1},
		{
			name:     "actions and range",
			filter:   Filter{Actions: []string{ActionStockAudit}, From: &from},
			where:    " WHERE action = ANY(?) AND created_at >= ?",
			argCount: 2,
		},
		{
			name:     "search binds twice",
			filter:   Filter{Entity: "WarehouseProduct", Search: "PROD"},
			where:    " WHERE entity = ? AND (entity_id ILIKE ? OR changes::text ILIKE ?)",
			argCount: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			where, args := tt.filter.where()
			assert.Equal(t, tt.where, where)
			require.Len(t, args, tt.argCount)
		})
	}
}

func TestStockActionsCoverLedgerWrites(t *testing.T) {
	t.Parallel()

	assert.Contains(t, StockActions, ActionStockLocationChange)
	assert.Contains(t, StockActions, ActionOutboundManual)
	assert.Contains(t, StockActions, ActionInboundReceived)
	assert.NotContains(t, StockActions, ActionUserLogin)
}
