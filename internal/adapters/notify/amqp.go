package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"congregate/internal/domain"
)

// promotedQueue receives waitlist promotion notices for downstream delivery
// (push, email digests) handled by other systems.
const promotedQueue = "rsvp.promoted"

// AMQPConfig holds RabbitMQ connection settings.
type AMQPConfig struct {
	URL string
}

// promotionMessage is the payload published for each notification.
type promotionMessage struct {
	UserID  string    `json:"user_id"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

type amqpDispatcher struct {
	cfg    AMQPConfig
	logger *slog.Logger
}

// NewAMQPDispatcher returns a dispatcher that publishes persistent JSON
// messages to the promotion queue. Each Notify dials a fresh connection;
// notification volume is low (one per promotion) and a dead broker then
// affects nothing but the notice itself.
func NewAMQPDispatcher(cfg AMQPConfig, logger *slog.Logger) domain.NotificationDispatcher {
	return &amqpDispatcher{cfg: cfg, logger: logger}
}

func (d *amqpDispatcher) Notify(ctx context.Context, userID, message string) error {
	conn, err := amqp.Dial(d.cfg.URL)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Durable declare is idempotent; messages survive broker restarts.
	if _, err := ch.QueueDeclare(promotedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp queue declare: %w", err)
	}

	body, err := json.Marshal(promotionMessage{
		UserID:  userID,
		Message: message,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	err = ch.PublishWithContext(ctx, "", promotedQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}
