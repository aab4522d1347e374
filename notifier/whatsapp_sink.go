package notifier

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"traffic-reporter/api/wasender"
	"traffic-reporter/metrics"
	"traffic-reporter/models"
)

// MessageSender posts a WhatsApp message to one number.
type MessageSender interface {
	SendMessage(ctx context.Context, to, text, imageURL string) (*wasender.SendMessageResponse, error)
}

// WhatsAppSink renders the text template and sends it to each recipient.
type WhatsAppSink struct {
	sender     MessageSender
	renderer   *TemplateRenderer
	recipients []string
	logger     *zap.Logger
}

func NewWhatsAppSink(sender MessageSender, renderer *TemplateRenderer, recipients []string, logger *zap.Logger) *WhatsAppSink {
	return &WhatsAppSink{sender: sender, renderer: renderer, recipients: recipients, logger: logger}
}

func (s *WhatsAppSink) Dispatch(ctx context.Context, subject string, payload *models.ReportPayload, templateID string) error {
	text, err := s.renderer.Render(templateID, TEXT_EXT, payload)
	if err != nil {
		metrics.IncDispatch(CHANNEL_WHATSAPP, STATUS_FAILED)
		return fmt.Errorf("whatsapp: %w", err)
	}

	var errs []error
	for _, to := range s.recipients {
		if _, err := s.sender.SendMessage(ctx, to, text, ""); err != nil {
			metrics.IncDispatch(CHANNEL_WHATSAPP, STATUS_FAILED)
			s.logger.Warn("[WhatsAppSink] send failed", zap.String("to", to), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		metrics.IncDispatch(CHANNEL_WHATSAPP, STATUS_SENT)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("whatsapp: %w", err)
	}
	s.logger.Info("[WhatsAppSink] report sent", zap.String("subject", subject), zap.Int("recipients", len(s.recipients)))
	return nil
}
