package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nishant946/masset/internal/logger"
)

// ReceiptSender queues the buyer's receipt.
type ReceiptSender interface {
	SendPurchaseReceipt(ctx context.Context, to, name, assetTitle string, amount int64, currency string) error
}

type Consumer struct {
	url      string
	receipts ReceiptSender
}

func NewConsumer(url string, receipts ReceiptSender) *Consumer {
	return &Consumer{url: url, receipts: receipts}
}

// Run consumes purchase.completed until ctx is cancelled, redialing the
// broker with exponential backoff.
func (c *Consumer) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := amqp.Dial(c.url)
		if err != nil {
			logger.Warn("Event consumer failed to dial broker", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			logger.Info("Event consumer stopped")
			return
		}
		logger.Warn("Event consumer loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		logger.Warn("Event consumer failed to set QoS", "error", err)
	}
	if _, err := ch.QueueDeclare(PurchaseCompletedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, PurchaseCompletedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	logger.Info("Event consumer started", "queue", PurchaseCompletedQueue)
	for d := range msgs {
		if err := c.Handle(ctx, d.Body); err != nil {
			logger.Error("Failed to handle event", "queue", PurchaseCompletedQueue, "error", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// Handle processes one purchase.completed message body.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var ev PurchaseCompleted
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.BuyerEmail == "" {
		logger.Warn("Purchase event without buyer email, skipping receipt", "purchase_id", ev.PurchaseID)
		return nil
	}

	if err := c.receipts.SendPurchaseReceipt(ctx, ev.BuyerEmail, ev.BuyerName, ev.AssetTitle, ev.Amount, ev.Currency); err != nil {
		return fmt.Errorf("queue receipt: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
