package model

import "errors"

// ItemType identifies which catalog a reservation refers to.  The
// canonical values are the French names used by the catalog tables;
// the English aliases used by older clients are accepted on input.
type ItemType string

const (
	ItemArtisanat ItemType = "artisanat" // artisan experiences
	ItemSejour    ItemType = "sejour"    // stays / séjours
	ItemCaravane  ItemType = "caravane"  // caravan tours
)

// ErrUnknownItemType is returned when a request names a catalog type
// that does not exist.
var ErrUnknownItemType = errors.New("unknown item type")

// ParseItemType normalizes a client-provided item type string.  English
// aliases map onto the canonical values.
func ParseItemType(s string) (ItemType, error) {
	switch s {
	case "artisanat", "artisan-experience":
		return ItemArtisanat, nil
	case "sejour", "stay":
		return ItemSejour, nil
	case "caravane":
		return ItemCaravane, nil
	}
	return "", ErrUnknownItemType
}

// Table returns the catalog table backing this item type.
func (t ItemType) Table() string {
	switch t {
	case ItemArtisanat:
		return "artisan_experiences"
	case ItemSejour:
		return "sejours"
	case ItemCaravane:
		return "caravanes"
	}
	return ""
}

// CatalogItem is the snapshot of a catalog row taken at booking time.
// Name and nightly price are copied onto the reservation so later
// catalog edits do not rewrite history.
type CatalogItem struct {
	ID              uint64
	Type            ItemType
	Name            string
	City            string
	PriceCents      int64 // nightly price in centimes (MAD)
	Description     string
	MaxGuests       uint32
}
