// Package notify sends the best-effort confirmation email after a
// successful submission. Failures are logged and never affect the
// submission result.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"goodboy-intake/internal/common/config"
	"goodboy-intake/internal/common/logger"
)

// Sender is the slice of the SES client the notifier uses.
type Sender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailNotifier sends order confirmations over SES. A nil notifier is
// valid and does nothing, so callers never need an enabled check.
type EmailNotifier struct {
	sender Sender
	from   string
	logger logger.Logger
}

// NewEmailNotifier builds the notifier, or returns nil when email
// notifications are disabled.
func NewEmailNotifier(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*EmailNotifier, error) {
	if !cfg.Email.Enabled {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Email.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &EmailNotifier{
		sender: ses.NewFromConfig(awsCfg),
		from:   cfg.Email.FromEmail,
		logger: log,
	}, nil
}

// SubmissionConfirmed emails the customer that their order request was
// received. Best-effort: errors are logged, not returned.
func (n *EmailNotifier) SubmissionConfirmed(ctx context.Context, toEmail, contactName, itemName string) {
	if n == nil || toEmail == "" {
		return
	}

	subject := "Your custom order request was received"
	body := fmt.Sprintf(
		"Hi %s,\n\nWe received your custom order request (%s). Our team will review it and get back to you shortly.\n\nGood Boy Custom",
		contactName, itemName)

	_, err := n.sender.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(n.from),
		Destination: &types.Destination{ToAddresses: []string{toEmail}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		n.logger.WithError(err).Warn("confirmation email failed", map[string]interface{}{
			"to": toEmail,
		})
		return
	}
	n.logger.Info("confirmation email sent", map[string]interface{}{"to": toEmail})
}
