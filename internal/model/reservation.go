package model

import "time"

// Reservation statuses.  A reservation is written as CONFIRMED by the
// payment flow (settlement is assumed to have happened upstream); the
// remaining transitions belong to the administrative update path.
const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationCancelled = "cancelled"
	ReservationCompleted = "completed"
)

// Reservation records one booking attempt against a catalog item.  It
// carries a snapshot of the item's name and nightly price at booking
// time together with the full price breakdown, all in integer centimes.
//
// Fields:
//
//	ID             – primary key identifier.
//	CustomerEmail  – contact email of the traveller.
//	CustomerPhone  – contact phone number.
//	ItemType       – catalog the booked item belongs to.
//	ItemID         – row in the matching catalog table.
//	ItemName       – item name snapshot at booking time.
//	ItemPriceCents – nightly price snapshot in centimes.
//	CheckIn        – first night of the stay (date only).
//	CheckOut       – departure date (exclusive).
//	Guests         – number of travellers.
//	Nights         – stay length; CheckOut minus CheckIn in days.
//	SpecialRequest – optional free-text request (nullable).
//	Pricing        – subtotal, service fee, taxes and total.
//	Status         – one of the Reservation* constants above.
//	CreatedAt      – creation timestamp.
//	UpdatedAt      – last update timestamp.
type Reservation struct {
	ID             uint64
	CustomerEmail  string
	CustomerPhone  string
	ItemType       ItemType
	ItemID         uint64
	ItemName       string
	ItemPriceCents int64
	CheckIn        time.Time
	CheckOut       time.Time
	Guests         uint32
	Nights         int
	SpecialRequest *string
	Pricing        PriceBreakdown
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PriceBreakdown itemizes what the traveller pays, in centimes.  The
// invariant TotalCents == SubtotalCents + ServiceFeeCents + TaxCents
// holds for every breakdown produced by the pricing package and is
// re-checked when the receipt is rendered.
type PriceBreakdown struct {
	SubtotalCents   int64
	ServiceFeeCents int64
	TaxCents        int64
	TotalCents      int64
}
