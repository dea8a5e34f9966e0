package stock

import (
	"testing"

	"github.com/georgemunganga/wms-backend/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketsMove(t *testing.T) {
	t.Parallel()

	start := Buckets{Normal: 80, Reserved: 15, Defective: 5}

	tests := []struct {
		name     string
		from, to Bucket
		n        int
		want     Buckets
		wantKind *apperr.Kind
		avail    int
	}{
		{name: "normal to defective", from: BucketNormal, to: BucketDefective, n: 10,
			want: Buckets{Normal: 70, Reserved: 15, Defective: 15}},
		{name: "reserved back to normal", from: BucketReserved, to: BucketNormal, n: 15,
			want: Buckets{Normal: 95, Reserved: 0, Defective: 5}},
		{name: "defective exceeds", from: BucketDefective, to: BucketNormal, n: 6,
			wantKind: ptr(apperr.KindInsufficientStock), avail: 5},
		{name: "same status", from: BucketNormal, to: BucketNormal, n: 1,
			wantKind: ptr(apperr.KindInvalid)},
		{name: "zero quantity", from: BucketNormal, to: BucketReserved, n: 0,
			wantKind: ptr(apperr.KindInvalid)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := start.Move(tt.from, tt.to, tt.n)
			if tt.wantKind != nil {
				ae, ok := apperr.As(err)
				require.True(t, ok)
				assert.Equal(t, *tt.wantKind, ae.Kind)
				if ae.Kind == apperr.KindInsufficientStock {
					assert.Equal(t, tt.avail, ae.Data["available"])
					assert.Equal(t, tt.n, ae.Data["requested"])
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, start.Total(), got.Total())
		})
	}
}

func TestLevelBuckets_ClampsNormal(t *testing.T) {
	t.Parallel()

	l := Level{Quantity: 10, ReservedQuantity: 8, DefectiveQuantity: 5}
	assert.Equal(t, Buckets{Normal: 0, Reserved: 8, Defective: 5}, l.Buckets())

	l = Level{Quantity: 100, ReservedQuantity: 20}
	assert.Equal(t, 80, l.Buckets().Normal)
}

func TestShortfall_ReportsNormalBucket(t *testing.T) {
	t.Parallel()

	// 100 on hand but 80 of them are held back
	err := shortfall(OpOutbound, Level{Quantity: 100, ReservedQuantity: 70, DefectiveQuantity: 10}, 60)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInsufficientStock, ae.Kind)
	assert.Equal(t, 20, ae.Data["available"])
	assert.Equal(t, 60, ae.Data["requested"])

	err = shortfall(OpOutbound, Level{Quantity: 100, ReservedQuantity: 20}, 60)
	assert.True(t, apperr.IsKind(err, apperr.KindConcurrentModification))
}

func TestCheckFloor(t *testing.T) {
	t.Parallel()

	l := Level{Quantity: 50, ReservedQuantity: 15, DefectiveQuantity: 5}

	tests := []struct {
		name    string
		qty     int
		wantErr bool
	}{
		{name: "above held", qty: 30},
		{name: "exactly held", qty: 20},
		{name: "below held", qty: 19, wantErr: true},
		{name: "zero with holds", qty: 0, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := checkFloor(l, tt.qty)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			ae, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindInvalid, ae.Kind)
			assert.Equal(t, 20, ae.Data["held"])
		})
	}

	assert.NoError(t, checkFloor(Level{}, 0))
}

func TestParseBucket(t *testing.T) {
	t.Parallel()

	b, err := ParseBucket("toStatus", "불량")
	require.NoError(t, err)
	assert.Equal(t, BucketDefective, b)

	_, err = ParseBucket("fromStatus", "broken")
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, ValidBuckets, ae.Data["validValues"])
	assert.Equal(t, "fromStatus", ae.Data["field"])
}

func TestEvaluateCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expected, counted int
		diff              int
		rate              string
		approval          bool
	}{
		{100, 100, 0, "0.00%", false},
		{100, 95, -5, "-5.00%", false},
		{100, 110, 10, "10.00%", false},
		{100, 111, 11, "11.00%", true},
		{100, 80, -20, "-20.00%", true},
		{0, 7, 7, "0.00%", false},
		{3, 4, 1, "33.33%", false},
	}
	for _, tt := range tests {
		diff, rate, approval := evaluateCount(tt.expected, tt.counted)
		assert.Equal(t, tt.diff, diff)
		assert.Equal(t, tt.rate, rate)
		assert.Equal(t, tt.approval, approval, "expected=%d counted=%d", tt.expected, tt.counted)
	}
}

func ptr[T any](v T) *T { return &v }
