// Package queue defines message payloads exchanged over the message broker.
package queue

// ReceiptRequestedEvent is published after a booking commits whose
// inline receipt generation did not complete.  The outbox row is the
// durable source of truth; this message only wakes the worker early.
type ReceiptRequestedEvent struct {
	EventID       string `json:"event_id"`
	ReservationID uint64 `json:"reservation_id"`
	ReceiptNumber string `json:"receipt_number"`
	RequestedAt   string `json:"requested_at"`
}
