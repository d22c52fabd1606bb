package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/safaria/booking-server/internal/model"
)

// ReservationRepo provides persistence for reservations.  A reservation
// is created exactly once per successful payment attempt, inside the
// same transaction as its payment row.  Status transitions and deletes
// afterwards belong to the administrative path.  All timestamp fields
// are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new reservation within the scope of an existing
// transaction and populates the generated ID and timestamps on the
// provided model.  The caller must commit or rollback the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations
		(customer_email, customer_phone, item_type, item_id, item_name, item_price_cents,
		 check_in, check_out, guests, nights, special_request,
		 subtotal_cents, service_fee_cents, tax_cents, total_cents, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		res.CustomerEmail, res.CustomerPhone, string(res.ItemType), res.ItemID,
		res.ItemName, res.ItemPriceCents,
		res.CheckIn.UTC().Format("2006-01-02"), res.CheckOut.UTC().Format("2006-01-02"),
		res.Guests, res.Nights, res.SpecialRequest,
		res.Pricing.SubtotalCents, res.Pricing.ServiceFeeCents, res.Pricing.TaxCents,
		res.Pricing.TotalCents, res.Status,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back created_at/updated_at so the caller sees the stored row
	const sel = `SELECT created_at, updated_at FROM reservations WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt, &res.UpdatedAt)
}

// GetByID loads a reservation.  It returns ErrNotFound when the row
// does not exist.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, customer_email, customer_phone, item_type, item_id, item_name,
		item_price_cents, check_in, check_out, guests, nights, special_request,
		subtotal_cents, service_fee_cents, tax_cents, total_cents, status,
		created_at, updated_at
		FROM reservations WHERE id = ?`
	var (
		res      model.Reservation
		itemType string
		special  sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.CustomerEmail, &res.CustomerPhone, &itemType, &res.ItemID,
		&res.ItemName, &res.ItemPriceCents, &res.CheckIn, &res.CheckOut,
		&res.Guests, &res.Nights, &special,
		&res.Pricing.SubtotalCents, &res.Pricing.ServiceFeeCents, &res.Pricing.TaxCents,
		&res.Pricing.TotalCents, &res.Status, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	res.ItemType = model.ItemType(itemType)
	if special.Valid {
		s := special.String
		res.SpecialRequest = &s
	}
	return &res, nil
}

// UpdateStatus sets the reservation status.  It returns ErrNotFound
// when the reservation does not exist.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// distinguish "missing" from "already in this status"
		var exists uint64
		err := r.db.QueryRowContext(ctx,
			`SELECT id FROM reservations WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Delete removes a reservation; the payment row cascades at the
// database layer.  It returns ErrNotFound when no row was deleted.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
