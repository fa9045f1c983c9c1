// Package notify provides NotificationDispatcher implementations. Delivery is
// best effort: dispatch runs after the registration transaction commits and
// failures are logged by the caller, never propagated into request results.
package notify

import (
	"context"
	"log/slog"

	"congregate/internal/domain"
)

// Config selects and configures a dispatcher provider.
type Config struct {
	Provider string
	AMQP     AMQPConfig
	SES      SESConfig
}

// NewDispatcher creates a dispatcher from config. Provider "amqp" publishes
// to a message queue, "ses" sends email via AWS SES; "noop" or unknown
// providers log and drop.
func NewDispatcher(cfg Config, logger *slog.Logger, directory domain.MembershipRepository) (domain.NotificationDispatcher, error) {
	switch cfg.Provider {
	case "amqp":
		return NewAMQPDispatcher(cfg.AMQP, logger), nil
	case "ses":
		return NewSESDispatcher(cfg.SES, logger, directory)
	case "noop":
		return &noopDispatcher{logger: logger}, nil
	default:
		logger.Warn("unknown notification provider, using noop", "provider", cfg.Provider)
		return &noopDispatcher{logger: logger}, nil
	}
}

type noopDispatcher struct {
	logger *slog.Logger
}

func (d *noopDispatcher) Notify(ctx context.Context, userID, message string) error {
	d.logger.Debug("notification dropped (noop)", "user_id", userID)
	return nil
}
