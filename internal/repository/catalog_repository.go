package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safaria/booking-server/internal/model"
)

// CatalogRepo reads the three catalog tables (artisan_experiences,
// sejours, caravanes).  The payment flow uses it to confirm the booked
// item exists and to snapshot its name and nightly price before any
// transaction is opened; the public browse endpoints reuse the same
// queries.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo returns a new CatalogRepo bound to the given database.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// GetItem returns the catalog row for the given type and id.  It
// returns ErrNotFound when no such row exists.
func (r *CatalogRepo) GetItem(ctx context.Context, t model.ItemType, id uint64) (*model.CatalogItem, error) {
	table := t.Table()
	if table == "" {
		return nil, model.ErrUnknownItemType
	}
	q := fmt.Sprintf(
		`SELECT id, name, city, price_cents, description, max_guests FROM %s WHERE id = ?`, table)
	var it model.CatalogItem
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&it.ID, &it.Name, &it.City, &it.PriceCents, &it.Description, &it.MaxGuests,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	it.Type = t
	return &it, nil
}

// List returns all rows of one catalog, newest first.  An optional city
// filter narrows the result.
func (r *CatalogRepo) List(ctx context.Context, t model.ItemType, city string) ([]model.CatalogItem, error) {
	table := t.Table()
	if table == "" {
		return nil, model.ErrUnknownItemType
	}
	q := fmt.Sprintf(
		`SELECT id, name, city, price_cents, description, max_guests FROM %s`, table)
	args := []interface{}{}
	if city != "" {
		q += ` WHERE city = ?`
		args = append(args, city)
	}
	q += ` ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.CatalogItem, 0)
	for rows.Next() {
		var it model.CatalogItem
		if err := rows.Scan(&it.ID, &it.Name, &it.City, &it.PriceCents, &it.Description, &it.MaxGuests); err != nil {
			return nil, err
		}
		it.Type = t
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
