package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/mpryor/gatekeeper/internal/models"
	pkglogger "github.com/mpryor/gatekeeper/pkg/logger"
)

// MailDispatcher sends a confirmation email. A single synchronous call with
// a binary outcome; there are no partial-send semantics.
type MailDispatcher interface {
	SendConfirmation(ctx context.Context, recipientEmail, confirmationID string, expiresAt time.Time) error
}

// SESMailDispatcher sends confirmation emails using AWS SES
type SESMailDispatcher struct {
	sesClient   *ses.Client
	fromAddress string
	baseURL     string
	sendTimeout time.Duration
	logger      *slog.Logger
}

// NewSESMailDispatcher creates a new AWS SES mail dispatcher
func NewSESMailDispatcher(region, fromAddress, baseURL string, sendTimeout time.Duration, logger *slog.Logger) (*SESMailDispatcher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESMailDispatcher{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		baseURL:     baseURL,
		sendTimeout: sendTimeout,
		logger:      logger,
	}, nil
}

// SendConfirmation emails the confirmation link for the given token id.
// The call is bounded by the configured send timeout; a failure surfaces as
// ErrMailDispatch and is never retried here.
func (s *SESMailDispatcher) SendConfirmation(ctx context.Context, recipientEmail, confirmationID string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	link := fmt.Sprintf("%s/confirmation/%s", s.baseURL, confirmationID)
	minutes := int(time.Until(expiresAt).Round(time.Minute).Minutes())

	textBody := fmt.Sprintf(`Please click the link to confirm your registration:

%s

The link expires in %d minutes. If you did not create this account, you can ignore this email.
`, link, minutes)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body>
    <p>Please click the link to confirm your registration:</p>
    <p><a href="%s">Confirm your registration</a></p>
    <p>Or copy and paste this link in your browser:<br><code>%s</code></p>
    <p>The link expires in %d minutes. If you did not create this account, you can ignore this email.</p>
</body>
</html>
`, link, link, minutes)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{recipientEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Register Confirmation"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send confirmation email via SES",
			slog.String("email", pkglogger.SanitizedEmail(recipientEmail)),
			slog.Any("error", err))
		return fmt.Errorf("%w: %v", models.ErrMailDispatch, err)
	}

	s.logger.Info("confirmation email sent",
		slog.String("email", pkglogger.SanitizedEmail(recipientEmail)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}
