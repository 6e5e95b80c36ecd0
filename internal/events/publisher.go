package events

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nishant946/masset/internal/logger"
	"github.com/nishant946/masset/internal/metrics"
)

const defaultDialTimeout = 3 * time.Second

type Publisher struct {
	url         string
	dialTimeout time.Duration
}

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, dialTimeout: defaultDialTimeout}
}

// PublishPurchaseCompleted sends ev as a persistent message. Errors are logged
// and returned; callers treat them as non-fatal.
func (p *Publisher) PublishPurchaseCompleted(ctx context.Context, ev PurchaseCompleted) error {
	err := p.publish(ctx, PurchaseCompletedQueue, ev)
	status := "ok"
	if err != nil {
		status = "error"
		logger.Error("Failed to publish event", "queue", PurchaseCompletedQueue, "purchase_id", ev.PurchaseID, "error", err)
	}
	metrics.RecordEvent(PurchaseCompletedQueue, status)
	return err
}

func (p *Publisher) publish(ctx context.Context, queue string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	conn, err := amqp.DialConfig(p.url, dialConfig(ctx, p.dialTimeout))
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// dialConfig bounds the TCP connect and the AMQP handshake by timeout, or by
// ctx's deadline when that comes first. amqp.Dial would wait 30s on a broker
// that accepts but never answers.
func dialConfig(ctx context.Context, timeout time.Duration) amqp.Config {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	return amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	}
}
