package receipt

import (
	"context"
	"fmt"
	"log"

	"github.com/safaria/booking-server/internal/repository"
)

// maxOutboxAttempts parks an outbox entry as FAILED after this many
// completion failures so a poisoned job cannot retry forever.
const maxOutboxAttempts = 5

// Completer finishes a committed booking by rendering its receipt and
// uploading it to the blob store.  It is invoked inline right after the
// payment transaction commits and again by the background worker for
// entries whose inline attempt failed.  Completion is idempotent: the
// upload key is the receipt number and re-running a DONE entry is a
// no-op.
type Completer struct {
	Reservations *repository.ReservationRepo
	Payments     *repository.PaymentRepo
	Outbox       *repository.ReceiptOutboxRepo
	Store        *Store
}

// Complete processes the outbox entry of one reservation.  Failures are
// recorded on the entry and returned; the financial records are never
// touched.
func (cp *Completer) Complete(ctx context.Context, reservationID uint64) error {
	entry, err := cp.Outbox.GetByReservationID(ctx, reservationID)
	if err != nil {
		return fmt.Errorf("load outbox entry: %w", err)
	}
	if entry.Status == repository.OutboxDone {
		return nil
	}
	if entry.Status == repository.OutboxFailed {
		return fmt.Errorf("outbox entry %d is parked as failed", entry.ID)
	}

	res, err := cp.Reservations.GetByID(ctx, reservationID)
	if err != nil {
		return cp.fail(ctx, entry.ID, fmt.Errorf("load reservation: %w", err))
	}
	pay, err := cp.Payments.GetByReservationID(ctx, reservationID)
	if err != nil {
		return cp.fail(ctx, entry.ID, fmt.Errorf("load payment: %w", err))
	}

	pdf, err := Build(res, pay)
	if err != nil {
		return cp.fail(ctx, entry.ID, err)
	}
	assetID, err := cp.Store.Upload(ctx, pay.ReceiptNumber, pdf)
	if err != nil {
		return cp.fail(ctx, entry.ID, err)
	}
	if err := cp.Payments.SetReceiptAsset(ctx, pay.ID, assetID); err != nil {
		return cp.fail(ctx, entry.ID, fmt.Errorf("record asset id: %w", err))
	}
	if err := cp.Outbox.MarkDone(ctx, entry.ID); err != nil {
		return fmt.Errorf("mark outbox done: %w", err)
	}
	return nil
}

// fail records the failure on the outbox entry and returns the original
// error.  The distinct log line separates "booking committed but receipt
// missing" from ordinary request errors.
func (cp *Completer) fail(ctx context.Context, entryID uint64, cause error) error {
	log.Printf("receipt: completion failed for outbox entry %d (booking is committed, receipt pending): %v", entryID, cause)
	if err := cp.Outbox.RecordFailure(ctx, entryID, cause.Error(), maxOutboxAttempts); err != nil {
		log.Printf("receipt: record failure for outbox entry %d: %v", entryID, err)
	}
	return cause
}
