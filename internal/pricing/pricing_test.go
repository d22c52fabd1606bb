package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNights(t *testing.T) {
	in := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)

	n, err := Nights(in, out)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// hour components must not change the count
	n, err = Nights(in.Add(23*time.Hour), out.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = Nights(in, in)
	assert.ErrorIs(t, err, ErrInvalidStay)

	_, err = Nights(out, in)
	assert.ErrorIs(t, err, ErrInvalidStay)
}

func TestBreakdownTotalEqualsSumOfParts(t *testing.T) {
	cases := []struct {
		name    string
		nightly int64
		nights  int
		feeBps  int
		taxBps  int
	}{
		{"three nights default rates", 45000, 3, 500, 1000},
		{"one night", 99999, 1, 500, 1000},
		{"zero fee and tax", 120000, 7, 0, 0},
		{"odd amounts round down", 33333, 2, 725, 1337},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := Breakdown(tc.nightly, tc.nights, tc.feeBps, tc.taxBps)
			assert.Equal(t, tc.nightly*int64(tc.nights), b.SubtotalCents)
			assert.Equal(t, b.SubtotalCents+b.ServiceFeeCents+b.TaxCents, b.TotalCents)
			assert.GreaterOrEqual(t, b.ServiceFeeCents, int64(0))
			assert.GreaterOrEqual(t, b.TaxCents, int64(0))
		})
	}
}

func TestBreakdownExample(t *testing.T) {
	// 450 MAD/night for 3 nights, 5% service fee, 10% taxes
	b := Breakdown(45000, 3, 500, 1000)
	assert.Equal(t, int64(135000), b.SubtotalCents)
	assert.Equal(t, int64(6750), b.ServiceFeeCents)
	assert.Equal(t, int64(13500), b.TaxCents)
	assert.Equal(t, int64(155250), b.TotalCents)
}
