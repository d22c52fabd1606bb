package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Receipt outbox statuses.
const (
	OutboxPending = "PENDING"
	OutboxDone    = "DONE"
	OutboxFailed  = "FAILED"
)

// OutboxEntry mirrors the receipt_outbox table.  A row is inserted in
// the same transaction as the reservation and payment, so a committed
// booking always carries a durable record of whether its receipt has
// been generated.  The inline path and the background worker both
// complete entries through this repository; completion is idempotent
// because the upload key is derived from the receipt number.
type OutboxEntry struct {
	ID            uint64
	ReservationID uint64
	PaymentID     uint64
	ReceiptNumber string
	Status        string
	Attempts      uint32
	LastError     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ReceiptOutboxRepo persists receipt generation jobs.
type ReceiptOutboxRepo struct {
	db *sql.DB
}

// NewReceiptOutboxRepo returns a new ReceiptOutboxRepo bound to the given database.
func NewReceiptOutboxRepo(db *sql.DB) *ReceiptOutboxRepo { return &ReceiptOutboxRepo{db: db} }

// CreateTx inserts a PENDING outbox row within an existing transaction
// and populates the generated ID.
func (r *ReceiptOutboxRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *OutboxEntry) error {
	const q = `INSERT INTO receipt_outbox (reservation_id, payment_id, receipt_number, status)
		VALUES (?, ?, ?, ?)`
	e.Status = OutboxPending
	result, err := tx.ExecContext(ctx, q, e.ReservationID, e.PaymentID, e.ReceiptNumber, e.Status)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// GetByReservationID loads the outbox entry for a reservation.
func (r *ReceiptOutboxRepo) GetByReservationID(ctx context.Context, reservationID uint64) (*OutboxEntry, error) {
	const q = `SELECT id, reservation_id, payment_id, receipt_number, status, attempts,
		last_error, created_at, updated_at
		FROM receipt_outbox WHERE reservation_id = ? LIMIT 1`
	var (
		e       OutboxEntry
		lastErr sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, reservationID).Scan(
		&e.ID, &e.ReservationID, &e.PaymentID, &e.ReceiptNumber, &e.Status,
		&e.Attempts, &lastErr, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lastErr.Valid {
		s := lastErr.String
		e.LastError = &s
	}
	return &e, nil
}

// MarkDone transitions an entry to DONE.
func (r *ReceiptOutboxRepo) MarkDone(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE receipt_outbox SET status = ?, last_error = NULL WHERE id = ?`,
		OutboxDone, id)
	return err
}

// RecordFailure increments the attempt counter and stores the failure
// reason.  Entries stay PENDING until maxAttempts is reached, after
// which they are parked as FAILED for operator attention.
func (r *ReceiptOutboxRepo) RecordFailure(ctx context.Context, id uint64, reason string, maxAttempts uint32) error {
	const q = `UPDATE receipt_outbox
		SET attempts = attempts + 1,
		    last_error = ?,
		    status = IF(attempts + 1 >= ?, ?, ?)
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, reason, maxAttempts, OutboxFailed, OutboxPending, id)
	return err
}

// ListPending returns up to limit PENDING entries, oldest first.  The
// worker sweeps these at startup so receipts requested while the broker
// or the server was down still get generated.
func (r *ReceiptOutboxRepo) ListPending(ctx context.Context, limit int) ([]OutboxEntry, error) {
	const q = `SELECT id, reservation_id, payment_id, receipt_number, status, attempts,
		last_error, created_at, updated_at
		FROM receipt_outbox WHERE status = ? ORDER BY id LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, OutboxPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]OutboxEntry, 0)
	for rows.Next() {
		var (
			e       OutboxEntry
			lastErr sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ReservationID, &e.PaymentID, &e.ReceiptNumber,
			&e.Status, &e.Attempts, &lastErr, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		if lastErr.Valid {
			s := lastErr.String
			e.LastError = &s
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
