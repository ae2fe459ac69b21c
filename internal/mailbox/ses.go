package mailbox

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"github.com/hal9000y/mail-agent/internal/draft"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SES sends mail through Amazon SES from a verified address.
type SES struct {
	api  sesAPI
	from string
	log  *zap.Logger
}

// NewSES loads the default AWS configuration for region and creates an SES sender.
func NewSES(ctx context.Context, region, from string, log *zap.Logger) (*SES, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("config.LoadDefaultConfig failed: %w", err)
	}

	return &SES{api: ses.NewFromConfig(cfg), from: from, log: log}, nil
}

// Send delivers e as a plain text message.
func (s *SES) Send(ctx context.Context, e draft.Email) error {
	out, err := s.api.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(s.from),
		Destination: &types.Destination{ToAddresses: []string{e.Recipient}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(e.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(e.Body), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return &TransportError{Op: "send", Transport: "ses", Err: fmt.Errorf("ses.SendEmail failed: %w", err)}
	}

	s.log.Info("email sent",
		zap.String("transport", "ses"),
		zap.String("to", e.Recipient),
		zap.String("message_id", aws.ToString(out.MessageId)),
	)

	return nil
}
