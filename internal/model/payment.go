package model

import "time"

// PaymentCompleted is the only payment status the current flow writes;
// there is no gateway integration, settlement is assumed upstream.
const PaymentCompleted = "completed"

// Payment is the monetary settlement for exactly one reservation.  It is
// created in the same transaction as its reservation and never mutated
// afterwards, except for ReceiptAssetID which is filled in once the PDF
// receipt has been uploaded.  Only the last four digits of the card are
// ever stored.
//
// Fields:
//
//	ID             – primary key identifier.
//	ReservationID  – owning reservation (1:1).
//	TransactionID  – caller-facing settlement reference, globally unique.
//	ReceiptNumber  – human-facing, date-structured, globally unique.
//	Method         – payment method tag (e.g. "card").
//	CardLast4      – last four digits of the instrument.
//	CardHolder     – name on the instrument.
//	BillingAddress – optional billing address (nullable).
//	AmountCents    – settled amount in centimes.
//	Currency       – currency code (MAD).
//	Status         – payment status marker.
//	ReceiptAssetID – blob-store identifier of the PDF receipt (nullable
//	                 until the upload completes).
//	CreatedAt      – creation timestamp.
type Payment struct {
	ID             uint64
	ReservationID  uint64
	TransactionID  string
	ReceiptNumber  string
	Method         string
	CardLast4      string
	CardHolder     string
	BillingAddress *string
	AmountCents    int64
	Currency       string
	Status         string
	ReceiptAssetID *string
	CreatedAt      time.Time
}
