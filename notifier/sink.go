package notifier

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"traffic-reporter/metrics"
	"traffic-reporter/models"
)

const CHANNEL_LOG = "log"
const CHANNEL_EMAIL = "email"
const CHANNEL_WHATSAPP = "whatsapp"

const STATUS_SENT = "sent"
const STATUS_FAILED = "failed"

// Sink delivers one report through one channel.
type Sink interface {
	Dispatch(ctx context.Context, subject string, payload *models.ReportPayload, templateID string) error
}

// LogSink only logs what would have been sent.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Dispatch(ctx context.Context, subject string, payload *models.ReportPayload, templateID string) error {
	s.logger.Info("[LogSink] report ready",
		zap.String("subject", subject),
		zap.String("template_id", templateID),
		zap.String("last_hour", payload.LastHour),
		zap.Int("last_hour_total", payload.LastHourTotal),
		zap.Ints("weeks", payload.Weeks))
	metrics.IncDispatch(CHANNEL_LOG, STATUS_SENT)
	return nil
}

// MultiSink fans a report out to every sink. A failing sink does not stop
// the others; their errors are joined.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Dispatch(ctx context.Context, subject string, payload *models.ReportPayload, templateID string) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Dispatch(ctx, subject, payload, templateID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of wrapped sinks.
func (m *MultiSink) Len() int {
	return len(m.sinks)
}
