package utils

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	txnPattern     = regexp.MustCompile(`^TXN-\d+-[A-Z0-9]{9}$`)
	receiptPattern = regexp.MustCompile(`^SAF-\d{8}-\d{4}$`)
)

func TestNewTransactionIDFormat(t *testing.T) {
	id, err := NewTransactionID()
	require.NoError(t, err)
	assert.Regexp(t, txnPattern, id)
}

func TestNewReceiptNumberFormat(t *testing.T) {
	now := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	rn, err := NewReceiptNumber(now)
	require.NoError(t, err)
	assert.Regexp(t, receiptPattern, rn)
	assert.Equal(t, "SAF-20250601-", rn[:13])
}

// Transaction ids must not collide across concurrent generation.  The
// receipt number only carries four random digits, so its collisions are
// expected occasionally and handled by the insert retry instead.
func TestNewTransactionIDConcurrentUniqueness(t *testing.T) {
	const n = 1000
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := NewTransactionID()
			if err == nil {
				ids <- id
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]struct{}, n)
	for id := range ids {
		_, dup := seen[id]
		require.False(t, dup, "duplicate transaction id %s", id)
		seen[id] = struct{}{}
	}
	require.Len(t, seen, n)
}
