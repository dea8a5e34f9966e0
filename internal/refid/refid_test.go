package refid

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_UniqueUnderConcurrency(t *testing.T) {
	t.Parallel()

	const n = 500
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- New(Reservation)
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]struct{}{}
	for id := range ids {
		require.True(t, strings.HasPrefix(id, "RSV-"), id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestNew_Format(t *testing.T) {
	t.Parallel()

	id := New(Picking)
	assert.Equal(t, "PICK", Prefix(id))
	assert.Len(t, strings.TrimPrefix(id, "PICK-"), 27)
}

func TestTracking(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "CJL", Prefix(Tracking("cj logistics")))
	assert.Equal(t, "DHL", Prefix(Tracking("dhl")))
	assert.Equal(t, "UP", Prefix(Tracking("up")))
	assert.Equal(t, "TRK", Prefix(Tracking("")))
}

func TestPrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", Prefix("nodash"))
	assert.Equal(t, "RET", Prefix("RET-abc"))
}
