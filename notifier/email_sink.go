package notifier

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"traffic-reporter/metrics"
	"traffic-reporter/models"
)

// SESAPI is the part of the SES v2 client the email sink needs.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// NewSESClient builds an SES v2 client. Static credentials are used when
// both keys are set, otherwise the default AWS credential chain.
func NewSESClient(ctx context.Context, region, accessKey, secretKey string) (*sesv2.Client, error) {
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return sesv2.NewFromConfig(cfg), nil
}

// EmailSink renders the HTML template and sends a single email to all recipients.
type EmailSink struct {
	client     SESAPI
	renderer   *TemplateRenderer
	from       string
	recipients []string
	logger     *zap.Logger
}

func NewEmailSink(client SESAPI, renderer *TemplateRenderer, from string, recipients []string, logger *zap.Logger) *EmailSink {
	return &EmailSink{client: client, renderer: renderer, from: from, recipients: recipients, logger: logger}
}

func (s *EmailSink) Dispatch(ctx context.Context, subject string, payload *models.ReportPayload, templateID string) error {
	if len(s.recipients) == 0 {
		s.logger.Warn("[EmailSink] no recipients configured, skipping", zap.String("subject", subject))
		return nil
	}

	html, err := s.renderer.Render(templateID, HTML_EXT, payload)
	if err != nil {
		metrics.IncDispatch(CHANNEL_EMAIL, STATUS_FAILED)
		return fmt.Errorf("email: %w", err)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: s.recipients},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(html), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		metrics.IncDispatch(CHANNEL_EMAIL, STATUS_FAILED)
		return fmt.Errorf("email: send %q: %w", subject, err)
	}

	messageID := ""
	if out != nil && out.MessageId != nil {
		messageID = *out.MessageId
	}
	metrics.IncDispatch(CHANNEL_EMAIL, STATUS_SENT)
	s.logger.Info("[EmailSink] report sent",
		zap.String("subject", subject),
		zap.Int("recipients", len(s.recipients)),
		zap.String("message_id", messageID))
	return nil
}
