package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safaria/booking-server/internal/config"
	"github.com/safaria/booking-server/internal/receipt"
	"github.com/safaria/booking-server/internal/repository"
)

func newTestPaymentHandler(t *testing.T) (*PaymentHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		Env:           "test",
		ServiceFeeBps: 500,
		TaxBps:        1000,
		Currency:      "MAD",
	}
	reservations := repository.NewReservationRepo(db)
	payments := repository.NewPaymentRepo(db)
	outbox := repository.NewReceiptOutboxRepo(db)
	completer := &receipt.Completer{
		Reservations: reservations,
		Payments:     payments,
		Outbox:       outbox,
		Store:        receipt.NewStore(nil),
	}
	h := NewPaymentHandler(cfg, repository.NewCatalogRepo(db), reservations, payments, outbox, completer, nil)
	return h, mock
}

func doPayment(t *testing.T, h *PaymentHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations/payment", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.ProcessPayment(e.NewContext(req, rec)))
	return rec
}

const validPaymentBody = `{
	"reservationData": {
		"itemId": 3,
		"itemType": "sejour",
		"email": "amina@example.ma",
		"phone": "+212600000000",
		"checkIn": "2026-09-10",
		"checkOut": "2026-09-13",
		"guests": 2,
		"specialRequest": "late arrival"
	},
	"payment": {
		"cardNumber": "4111111111111111",
		"cardHolder": "Amina Benali",
		"billingAddress": "12 Rue des Consuls, Rabat"
	}
}`

type envelopeResp struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
	Error   string         `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelopeResp {
	t.Helper()
	var env envelopeResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// expectCatalogHit sets up the pre-transaction existence check.
func expectCatalogHit(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`FROM sejours WHERE id = \?`).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "city", "price_cents", "description", "max_guests"}).
			AddRow(3, "Riad Yasmine", "Marrakech", 45000, "Courtyard riad stay", 4))
}

// expectBookingInsert sets up one full transactional attempt that
// succeeds, committing reservation id 7 and payment id 3.
func expectBookingInsert(mock sqlmock.Sqlmock) {
	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reservations`).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery(`SELECT created_at, updated_at FROM reservations`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(`INSERT INTO payments`).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(`INSERT INTO receipt_outbox`).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectCommit()
}

// expectOutboxAlreadyDone makes the inline completion a no-op so the
// tests never reach the blob store.
func expectOutboxAlreadyDone(mock sqlmock.Sqlmock) {
	now := time.Now().UTC()
	mock.ExpectQuery(`FROM receipt_outbox WHERE reservation_id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "reservation_id", "payment_id", "receipt_number", "status",
				"attempts", "last_error", "created_at", "updated_at"}).
			AddRow(5, 7, 3, "SAF-20260910-0001", repository.OutboxDone, 0, nil, now, now))
}

func TestProcessPaymentRejectsMissingFields(t *testing.T) {
	h, mock := newTestPaymentHandler(t)

	rec := doPayment(t, h, `{"reservationData": {"itemId": 3, "itemType": "sejour"}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "missing or invalid fields")

	missing, ok := env.Data["missing"].([]any)
	require.True(t, ok)
	assert.Contains(t, missing, "payment")
	assert.Contains(t, missing, "reservationData.email")
	assert.Contains(t, missing, "reservationData.checkIn")

	// validation failures must not touch the database
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessPaymentRejectsInvalidStay(t *testing.T) {
	h, mock := newTestPaymentHandler(t)

	body := strings.Replace(validPaymentBody, `"checkOut": "2026-09-13"`, `"checkOut": "2026-09-10"`, 1)
	rec := doPayment(t, h, body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeEnvelope(t, rec).Message, "checkOut must be after checkIn")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessPaymentUnknownCatalogItem(t *testing.T) {
	h, mock := newTestPaymentHandler(t)
	mock.ExpectQuery(`FROM sejours WHERE id = \?`).
		WithArgs(uint64(3)).
		WillReturnError(sql.ErrNoRows)

	rec := doPayment(t, h, validPaymentBody)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessPaymentRejectsTooManyGuests(t *testing.T) {
	h, mock := newTestPaymentHandler(t)
	expectCatalogHit(mock)

	body := strings.Replace(validPaymentBody, `"guests": 2`, `"guests": 9`, 1)
	rec := doPayment(t, h, body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeEnvelope(t, rec).Message, "maximum of 4")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessPaymentHappyPath(t *testing.T) {
	h, mock := newTestPaymentHandler(t)
	expectCatalogHit(mock)
	expectBookingInsert(mock)
	expectOutboxAlreadyDone(mock)

	rec := doPayment(t, h, validPaymentBody)

	require.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.EqualValues(t, 7, env.Data["reservationId"])
	assert.Regexp(t, `^TXN-\d+-[A-Z0-9]{9}$`, env.Data["transactionId"])
	assert.Regexp(t, `^SAF-\d{8}-\d{4}$`, env.Data["receiptNumber"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessPaymentRetriesOnIdentifierCollision(t *testing.T) {
	h, mock := newTestPaymentHandler(t)
	expectCatalogHit(mock)

	// first attempt collides on the payments unique index and rolls back
	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reservations`).
		WillReturnResult(sqlmock.NewResult(6, 1))
	mock.ExpectQuery(`SELECT created_at, updated_at FROM reservations`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(`INSERT INTO payments`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	// second attempt, with fresh identifiers, goes through
	expectBookingInsert(mock)
	expectOutboxAlreadyDone(mock)

	rec := doPayment(t, h, validPaymentBody)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessPaymentRollsBackWhenOutboxInsertFails(t *testing.T) {
	h, mock := newTestPaymentHandler(t)
	expectCatalogHit(mock)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reservations`).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery(`SELECT created_at, updated_at FROM reservations`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(`INSERT INTO payments`).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(`INSERT INTO receipt_outbox`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	rec := doPayment(t, h, validPaymentBody)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// nothing may commit when any of the three inserts fails
	assert.NoError(t, mock.ExpectationsWereMet())
}

func downloadReceipt(t *testing.T, h *PaymentHandler, id string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/reservations/:id/receipt")
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h.DownloadReceipt(c))
	return rec
}

func TestDownloadReceiptUnknownReservation(t *testing.T) {
	h, mock := newTestPaymentHandler(t)
	mock.ExpectQuery(`FROM payments WHERE reservation_id = \?`).
		WithArgs(uint64(99)).
		WillReturnError(sql.ErrNoRows)

	rec := downloadReceipt(t, h, "99")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDownloadReceiptNotUploadedYet(t *testing.T) {
	h, mock := newTestPaymentHandler(t)
	mock.ExpectQuery(`FROM payments WHERE reservation_id = \?`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "reservation_id", "transaction_id", "receipt_number", "method",
				"card_last4", "card_holder", "billing_address", "amount_cents", "currency",
				"status", "receipt_asset_id", "created_at"}).
			AddRow(3, 7, "TXN-1757500000000-A1B2C3D4E", "SAF-20260910-0001", "card",
				"1111", "Amina Benali", nil, 155250, "MAD",
				"completed", nil, time.Now().UTC()))

	rec := downloadReceipt(t, h, "7")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeEnvelope(t, rec).Message, "not available yet")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDownloadReceiptInvalidID(t *testing.T) {
	h, _ := newTestPaymentHandler(t)
	rec := downloadReceipt(t, h, "abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
