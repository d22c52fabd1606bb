package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/safaria/booking-server/internal/model"
)

// PaymentRepo persists payment rows.  Every payment belongs to exactly
// one reservation and is inserted in the same transaction; the only
// column ever updated afterwards is receipt_asset_id, written once the
// PDF receipt has been uploaded to the blob store.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx inserts a payment within an existing transaction and
// populates the generated ID.  transaction_id and receipt_number carry
// unique indexes; a collision surfaces as ErrDuplicate so the caller
// can regenerate identifiers and retry.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	const q = `INSERT INTO payments
		(reservation_id, transaction_id, receipt_number, method, card_last4,
		 card_holder, billing_address, amount_cents, currency, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		p.ReservationID, p.TransactionID, p.ReceiptNumber, p.Method, p.CardLast4,
		p.CardHolder, p.BillingAddress, p.AmountCents, p.Currency, p.Status,
	)
	if err != nil {
		if IsDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByReservationID loads the payment owned by a reservation.  It
// returns ErrNotFound when the reservation has no payment.
func (r *PaymentRepo) GetByReservationID(ctx context.Context, reservationID uint64) (*model.Payment, error) {
	const q = `SELECT id, reservation_id, transaction_id, receipt_number, method,
		card_last4, card_holder, billing_address, amount_cents, currency, status,
		receipt_asset_id, created_at
		FROM payments WHERE reservation_id = ? LIMIT 1`
	var (
		p       model.Payment
		billing sql.NullString
		asset   sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, reservationID).Scan(
		&p.ID, &p.ReservationID, &p.TransactionID, &p.ReceiptNumber, &p.Method,
		&p.CardLast4, &p.CardHolder, &billing, &p.AmountCents, &p.Currency,
		&p.Status, &asset, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if billing.Valid {
		b := billing.String
		p.BillingAddress = &b
	}
	if asset.Valid {
		a := asset.String
		p.ReceiptAssetID = &a
	}
	return &p, nil
}

// SetReceiptAsset records the blob-store identifier of the uploaded
// receipt on the payment row.
func (r *PaymentRepo) SetReceiptAsset(ctx context.Context, paymentID uint64, assetID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE payments SET receipt_asset_id = ? WHERE id = ?`, assetID, paymentID)
	return err
}
