package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safaria/booking-server/internal/model"
)

func sampleRecords() (*model.Reservation, *model.Payment) {
	res := &model.Reservation{
		ID:             42,
		CustomerEmail:  "a.traveler@example.com",
		CustomerPhone:  "+212600000000",
		ItemType:       model.ItemSejour,
		ItemID:         7,
		ItemName:       "Riad Yasmine, Marrakech",
		ItemPriceCents: 45000,
		CheckIn:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:       time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
		Guests:         2,
		Nights:         3,
		Pricing: model.PriceBreakdown{
			SubtotalCents:   135000,
			ServiceFeeCents: 6750,
			TaxCents:        13500,
			TotalCents:      155250,
		},
		Status: model.ReservationConfirmed,
	}
	p := &model.Payment{
		ID:            9,
		ReservationID: 42,
		TransactionID: "TXN-1748800000000-A1B2C3D4E",
		ReceiptNumber: "SAF-20250601-0042",
		Method:        "card",
		CardLast4:     "1111",
		CardHolder:    "A. Traveler",
		AmountCents:   155250,
		Currency:      "MAD",
		Status:        model.PaymentCompleted,
		CreatedAt:     time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	return res, p
}

func TestBuildProducesPDF(t *testing.T) {
	res, p := sampleRecords()
	out, err := Build(res, p)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "%PDF-", string(out[:5]))
}

func TestBuildWithSpecialRequest(t *testing.T) {
	res, p := sampleRecords()
	sr := "late arrival, around midnight"
	res.SpecialRequest = &sr
	out, err := Build(res, p)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(out[:5]))
}

func TestBuildRejectsAmountMismatch(t *testing.T) {
	res, p := sampleRecords()
	p.AmountCents = res.Pricing.TotalCents + 1
	_, err := Build(res, p)
	assert.ErrorIs(t, err, ErrRender)
}
