package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/safaria/booking-server/internal/config"
	"github.com/safaria/booking-server/internal/model"
	"github.com/safaria/booking-server/internal/pricing"
	"github.com/safaria/booking-server/internal/receipt"
	"github.com/safaria/booking-server/internal/repository"
	"github.com/safaria/booking-server/internal/utils"
)

// maxInsertAttempts bounds the regenerate-and-retry loop that handles
// identifier collisions on the payments table.
const maxInsertAttempts = 3

// dateLayout is the only accepted shape for check-in/check-out dates.
const dateLayout = "2006-01-02"

// ReceiptRequester asks the background worker to complete a pending
// receipt.  Publishing is best effort: the outbox row is the durable
// record, the message only shortens the wait.
type ReceiptRequester interface {
	RequestReceipt(ctx context.Context, reservationID uint64, receiptNumber string) error
}

// PaymentHandler implements the reservation/payment workflow: validate,
// generate identifiers, write reservation+payment+outbox atomically,
// then render and store the PDF receipt.  It also serves receipt
// downloads through freshly signed blob-store URLs.
type PaymentHandler struct {
	Cfg          config.Config
	Catalog      *repository.CatalogRepo
	Reservations *repository.ReservationRepo
	Payments     *repository.PaymentRepo
	Outbox       *repository.ReceiptOutboxRepo
	Completer    *receipt.Completer
	Requester    ReceiptRequester // may be nil when no broker is configured
}

// NewPaymentHandler constructs a PaymentHandler.  All repositories and
// the completer must be non-nil; the requester is optional.
func NewPaymentHandler(cfg config.Config, catalog *repository.CatalogRepo, reservations *repository.ReservationRepo, payments *repository.PaymentRepo, outbox *repository.ReceiptOutboxRepo, completer *receipt.Completer, requester ReceiptRequester) *PaymentHandler {
	if catalog == nil || reservations == nil || payments == nil || outbox == nil || completer == nil {
		panic("nil dependency passed to NewPaymentHandler")
	}
	return &PaymentHandler{
		Cfg:          cfg,
		Catalog:      catalog,
		Reservations: reservations,
		Payments:     payments,
		Outbox:       outbox,
		Completer:    completer,
		Requester:    requester,
	}
}

// ProcessPayment handles POST /v1/reservations/payment.  Nothing is
// written until the request is fully validated and the catalog item
// confirmed to exist; after that a single transaction creates the
// reservation, its payment and the receipt outbox row together.
func (h *PaymentHandler) ProcessPayment(c echo.Context) error {
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body", err, h.Cfg.IsProd())
	}
	if missing := missingFields(&req); len(missing) > 0 {
		return respondErrorData(c, http.StatusBadRequest,
			"missing or invalid fields: "+strings.Join(missing, ", "),
			echo.Map{"missing": missing})
	}

	rd, pd := req.ReservationData, req.Payment

	itemType, err := model.ParseItemType(rd.ItemType)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "unknown item type: "+rd.ItemType, nil, h.Cfg.IsProd())
	}
	checkIn, err := time.ParseInLocation(dateLayout, rd.CheckIn, time.UTC)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "checkIn must be YYYY-MM-DD", nil, h.Cfg.IsProd())
	}
	checkOut, err := time.ParseInLocation(dateLayout, rd.CheckOut, time.UTC)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "checkOut must be YYYY-MM-DD", nil, h.Cfg.IsProd())
	}
	nights, err := pricing.Nights(checkIn, checkOut)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "checkOut must be after checkIn", nil, h.Cfg.IsProd())
	}

	ctx := c.Request().Context()

	// Existence check before any transaction is opened: a doomed
	// request must not cost a transaction.
	item, err := h.Catalog.GetItem(ctx, itemType, rd.ItemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return respondError(c, http.StatusNotFound, "catalog item not found", nil, h.Cfg.IsProd())
		}
		return respondError(c, http.StatusInternalServerError, "catalog lookup failed", err, h.Cfg.IsProd())
	}
	if item.MaxGuests > 0 && rd.Guests > item.MaxGuests {
		return respondError(c, http.StatusBadRequest,
			fmt.Sprintf("guests exceeds the maximum of %d for this item", item.MaxGuests), nil, h.Cfg.IsProd())
	}

	breakdown := pricing.Breakdown(item.PriceCents, nights, h.Cfg.ServiceFeeBps, h.Cfg.TaxBps)

	res := &model.Reservation{
		CustomerEmail:  rd.Email,
		CustomerPhone:  rd.Phone,
		ItemType:       itemType,
		ItemID:         item.ID,
		ItemName:       item.Name,
		ItemPriceCents: item.PriceCents,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Guests:         rd.Guests,
		Nights:         nights,
		Pricing:        breakdown,
		Status:         model.ReservationConfirmed,
	}
	if rd.SpecialRequest != "" {
		sr := rd.SpecialRequest
		res.SpecialRequest = &sr
	}

	method := pd.Method
	if method == "" {
		method = "card"
	}
	pay := &model.Payment{
		Method:      method,
		CardLast4:   pd.CardNumber[len(pd.CardNumber)-4:], // full number never leaves this handler
		CardHolder:  pd.CardHolder,
		AmountCents: breakdown.TotalCents,
		Currency:    h.Cfg.Currency,
		Status:      model.PaymentCompleted,
	}
	if pd.BillingAddress != "" {
		ba := pd.BillingAddress
		pay.BillingAddress = &ba
	}

	if err := h.writeBooking(ctx, res, pay); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return respondError(c, http.StatusConflict, "could not allocate unique identifiers, please retry", nil, h.Cfg.IsProd())
		}
		return respondError(c, http.StatusInternalServerError, "payment processing failed", err, h.Cfg.IsProd())
	}

	// The booking is committed; receipt generation can no longer fail
	// the request.  Try inline first so the common case has a receipt
	// immediately, and fall back to the worker via the outbox.
	if err := h.Completer.Complete(ctx, res.ID); err != nil {
		log.Printf("payment: inline receipt completion for reservation %d deferred to worker: %v", res.ID, err)
		if h.Requester != nil {
			if perr := h.Requester.RequestReceipt(ctx, res.ID, pay.ReceiptNumber); perr != nil {
				log.Printf("payment: publish receipt request for reservation %d: %v", res.ID, perr)
			}
		}
	}

	return respond(c, http.StatusCreated, "reservation confirmed", echo.Map{
		"reservationId": res.ID,
		"transactionId": pay.TransactionID,
		"receiptNumber": pay.ReceiptNumber,
	})
}

// writeBooking runs the transactional insert of reservation, payment
// and outbox row.  A duplicate-key failure on the payment's unique
// identifiers rolls the whole attempt back, regenerates both
// identifiers and retries, bounded by maxInsertAttempts.
func (h *PaymentHandler) writeBooking(ctx context.Context, res *model.Reservation, pay *model.Payment) error {
	for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
		txnID, err := utils.NewTransactionID()
		if err != nil {
			return fmt.Errorf("generate transaction id: %w", err)
		}
		receiptNo, err := utils.NewReceiptNumber(time.Now())
		if err != nil {
			return fmt.Errorf("generate receipt number: %w", err)
		}
		pay.TransactionID = txnID
		pay.ReceiptNumber = receiptNo

		err = h.insertOnce(ctx, res, pay)
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrDuplicate) {
			log.Printf("payment: identifier collision on attempt %d/%d, regenerating", attempt, maxInsertAttempts)
			continue
		}
		return err
	}
	return repository.ErrConflict
}

// insertOnce performs one transactional attempt.  Either all three rows
// commit or none do.
func (h *PaymentHandler) insertOnce(ctx context.Context, res *model.Reservation, pay *model.Payment) error {
	tx, err := h.Reservations.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.Reservations.CreateTx(ctx, tx, res); err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	pay.ReservationID = res.ID
	if err := h.Payments.CreateTx(ctx, tx, pay); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return err
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	entry := &repository.OutboxEntry{
		ReservationID: res.ID,
		PaymentID:     pay.ID,
		ReceiptNumber: pay.ReceiptNumber,
	}
	if err := h.Outbox.CreateTx(ctx, tx, entry); err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// DownloadReceipt handles GET /v1/reservations/:id/receipt.  It mints a
// fresh signed URL for the stored PDF, fetches the bytes server-side
// and streams them back with a receipt-number-derived filename.
func (h *PaymentHandler) DownloadReceipt(c echo.Context) error {
	resID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || resID == 0 {
		return respondError(c, http.StatusBadRequest, "invalid reservation id", nil, h.Cfg.IsProd())
	}
	ctx := c.Request().Context()

	pay, err := h.Payments.GetByReservationID(ctx, resID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return respondError(c, http.StatusNotFound, "no receipt exists for this reservation", nil, h.Cfg.IsProd())
		}
		return respondError(c, http.StatusInternalServerError, "payment lookup failed", err, h.Cfg.IsProd())
	}
	if pay.ReceiptAssetID == nil {
		// Committed booking whose receipt has not been uploaded yet.
		return respondError(c, http.StatusNotFound, "receipt not available yet, try again shortly", nil, h.Cfg.IsProd())
	}

	pdf, err := h.Completer.Store.Fetch(ctx, *pay.ReceiptAssetID)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "receipt temporarily unavailable", err, h.Cfg.IsProd())
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s.pdf"`, pay.ReceiptNumber))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
