// Package receipt renders payment receipts as PDF documents and stores
// them on a blob store.  The database only ever holds the store-assigned
// asset identifier; bytes are rendered into memory and re-fetched through
// short-lived signed URLs.
package receipt

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/safaria/booking-server/internal/model"
)

// ErrRender is wrapped by every document-generation failure, including
// an inconsistency between the reservation's price breakdown and the
// payment amount.  A render failure aborts receipt generation but never
// touches the committed financial records.
var ErrRender = errors.New("receipt render failed")

// Build renders the receipt for a committed reservation and its payment
// into an in-memory PDF.  The itemized table must add up to the payment
// amount; a mismatch means the records are inconsistent and is reported
// as a render failure rather than papered over.
func Build(res *model.Reservation, p *model.Payment) ([]byte, error) {
	if res.Pricing.TotalCents != p.AmountCents {
		return nil, fmt.Errorf("%w: breakdown total %d does not match payment amount %d",
			ErrRender, res.Pricing.TotalCents, p.AmountCents)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("SAFARIA Receipt "+p.ReceiptNumber, false)
	pdf.AddPage()

	// Branding header
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(196, 90, 27)
	pdf.Cell(0, 12, "SAFARIA")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(90, 90, 90)
	pdf.Cell(0, 6, "Voyages & experiences au Maroc")
	pdf.Ln(12)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "Payment receipt")
	pdf.Ln(10)

	kv := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(45, 6, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
	}

	kv("Receipt number", p.ReceiptNumber)
	kv("Transaction", p.TransactionID)
	kv("Issued", p.CreatedAt.UTC().Format("2 January 2006 15:04 UTC"))
	kv("Status", p.Status)
	pdf.Ln(4)

	kv("Customer", res.CustomerEmail)
	kv("Phone", res.CustomerPhone)
	pdf.Ln(4)

	kv("Booking", res.ItemName)
	kv("Category", string(res.ItemType))
	kv("Stay", fmt.Sprintf("%s to %s (%d nights, %d guests)",
		res.CheckIn.UTC().Format("2006-01-02"),
		res.CheckOut.UTC().Format("2006-01-02"),
		res.Nights, res.Guests))
	if res.SpecialRequest != nil && *res.SpecialRequest != "" {
		kv("Special request", *res.SpecialRequest)
	}
	pdf.Ln(6)

	// Itemized price table
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(240, 235, 226)
	pdf.CellFormat(120, 7, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(60, 7, "Amount", "1", 1, "R", true, 0, "")

	row := func(label string, cents int64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(120, 7, label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 7, money(cents, p.Currency), "1", 1, "R", false, 0, "")
	}
	row(fmt.Sprintf("%s x %d nights", res.ItemName, res.Nights), res.Pricing.SubtotalCents, false)
	row("Service fee", res.Pricing.ServiceFeeCents, false)
	row("Taxes", res.Pricing.TaxCents, false)
	row("Total", res.Pricing.TotalCents, true)
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.Cell(0, 5, fmt.Sprintf("Paid by %s ending in %s, holder %s.",
		p.Method, p.CardLast4, p.CardHolder))
	pdf.Ln(5)
	pdf.Cell(0, 5, fmt.Sprintf("Generated %s. Keep this document for your records.",
		time.Now().UTC().Format("2006-01-02")))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}

// money formats centimes as a decimal amount with its currency code.
func money(cents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, currency)
}
