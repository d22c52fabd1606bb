// Package pricing computes the price breakdown for a booking.  All
// amounts are integer centimes so the total always equals the sum of
// its parts exactly.
package pricing

import (
	"errors"
	"time"

	"github.com/safaria/booking-server/internal/model"
)

// ErrInvalidStay is returned when the checkout date is not strictly
// after the check-in date.
var ErrInvalidStay = errors.New("checkout must be after checkin")

// Nights returns the stay length in nights between two dates.  Both
// times are truncated to their calendar day in UTC first, so the hour
// components of client-supplied dates do not change the count.
func Nights(checkIn, checkOut time.Time) (int, error) {
	in := truncateDay(checkIn)
	out := truncateDay(checkOut)
	n := int(out.Sub(in).Hours() / 24)
	if n < 1 {
		return 0, ErrInvalidStay
	}
	return n, nil
}

// Breakdown itemizes the price of a stay.  The subtotal is the nightly
// price times the number of nights; service fee and taxes are basis
// points of the subtotal, rounded down.
func Breakdown(nightlyCents int64, nights int, serviceFeeBps, taxBps int) model.PriceBreakdown {
	subtotal := nightlyCents * int64(nights)
	fee := subtotal * int64(serviceFeeBps) / 10000
	tax := subtotal * int64(taxBps) / 10000
	return model.PriceBreakdown{
		SubtotalCents:   subtotal,
		ServiceFeeCents: fee,
		TaxCents:        tax,
		TotalCents:      subtotal + fee + tax,
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
