package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"congregate/internal/domain"
)

// SESConfig holds AWS SES settings for the email provider.
type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	FromAddress     string
	FromName        string
}

type sesDispatcher struct {
	client    *ses.Client
	cfg       SESConfig
	logger    *slog.Logger
	directory domain.MembershipRepository
}

// NewSESDispatcher returns a dispatcher that emails the user via AWS SES,
// resolving the address through the membership directory.
func NewSESDispatcher(cfg SESConfig, logger *slog.Logger, directory domain.MembershipRepository) (domain.NotificationDispatcher, error) {
	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("ses notifier requires a from address")
	}
	awsCfg := aws.Config{
		Region: cfg.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	}
	return &sesDispatcher{
		client:    ses.NewFromConfig(awsCfg),
		cfg:       cfg,
		logger:    logger,
		directory: directory,
	}, nil
}

func (d *sesDispatcher) Notify(ctx context.Context, userID, message string) error {
	email, err := d.directory.GetUserEmail(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve notification address: %w", err)
	}

	from := d.cfg.FromAddress
	if d.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", d.cfg.FromName, d.cfg.FromAddress)
	}
	_, err = d.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(from),
		Destination: &types.Destination{ToAddresses: []string{email}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String("Your registration update")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(message)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}
