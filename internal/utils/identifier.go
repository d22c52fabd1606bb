package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Identifier formats:
//
//	transaction id : TXN-<unix millis>-<9 random chars A-Z0-9>
//	receipt number : SAF-YYYYMMDD-NNNN
//
// Neither is unique by construction alone; the payments table enforces
// uniqueness and the caller regenerates on a duplicate-key insert.

const txnAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewTransactionID returns a caller-facing settlement reference.  The
// millisecond timestamp keeps ids roughly sortable; the random suffix
// makes collisions between concurrent calls overwhelmingly unlikely
// without any coordination.
func NewTransactionID() (string, error) {
	suffix, err := randomFrom(txnAlphabet, 9)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TXN-%d-%s", time.Now().UTC().UnixMilli(), suffix), nil
}

// NewReceiptNumber returns a human-facing receipt number that encodes
// the creation date plus a fixed-width random disambiguator.
func NewReceiptNumber(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SAF-%s-%04d", now.UTC().Format("20060102"), n.Int64()), nil
}

// randomFrom draws n characters from the given alphabet using
// crypto/rand.
func randomFrom(alphabet string, n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf), nil
}
