// Package queue also contains the background worker that completes
// pending receipts: it listens on the receipt.requested queue and
// additionally sweeps the receipt_outbox table so entries survive
// broker or server downtime.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/safaria/booking-server/internal/receipt"
	"github.com/safaria/booking-server/internal/repository"
)

const receiptQueueName = "receipt.requested"

// sweepInterval is how often the worker scans the outbox for PENDING
// entries that never got a broker message.
const sweepInterval = time.Minute

// ReceiptWorker consumes receipt.requested events and periodically
// sweeps the outbox, completing each entry through the shared
// Completer.  Completion is idempotent, so a message raced by the
// sweep (or redelivered by the broker) is harmless.
type ReceiptWorker struct {
	Completer *receipt.Completer
	Outbox    *repository.ReceiptOutboxRepo
	BrokerURL string // empty disables consuming; the sweep still runs
}

// Start runs the consume/reconnect loop and the sweep ticker.  It
// blocks until ctx is cancelled, reconnecting to the broker with
// exponential backoff after any failure.  Without a broker URL only
// the sweep runs, so deferred receipts still complete within a minute.
func (w *ReceiptWorker) Start(ctx context.Context) {
	go w.sweepLoop(ctx)

	url := w.BrokerURL
	if url == "" {
		<-ctx.Done()
		return
	}

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("receipt-worker: failed to dial broker: %v; retrying in %s", err, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := w.consumeLoop(ctx, conn); err != nil {
			log.Printf("receipt-worker: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func (w *ReceiptWorker) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Printf("receipt-worker: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(receiptQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(receiptQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := w.handleMessage(ctx, d.Body); err != nil {
				log.Printf("receipt-worker: handle message failed: %v", err)
				_ = d.Nack(false, false) // failure counting lives in the outbox, do not requeue
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (w *ReceiptWorker) handleMessage(ctx context.Context, body []byte) error {
	var ev ReceiptRequestedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.ReservationID == 0 {
		return fmt.Errorf("event %s carries no reservation id", ev.EventID)
	}
	return w.Completer.Complete(ctx, ev.ReservationID)
}

// sweepLoop retries every PENDING outbox entry on a fixed interval.
func (w *ReceiptWorker) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			entries, err := w.Outbox.ListPending(ctx, 50)
			if err != nil {
				log.Printf("receipt-worker: sweep query failed: %v", err)
				continue
			}
			for _, e := range entries {
				if err := w.Completer.Complete(ctx, e.ReservationID); err != nil {
					log.Printf("receipt-worker: sweep completion for reservation %d failed: %v", e.ReservationID, err)
				}
			}
		}
	}
}
