package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"traffic-reporter/metrics"
	"traffic-reporter/models"
)

const DEFAULT_TEMPLATE_ID = "hourly_variation"
const DEFAULT_QUEUE_SIZE = 16

// NotificationSink delivers a rendered report. Implementations live in notifier.
type NotificationSink interface {
	Dispatch(ctx context.Context, subject string, payload *models.ReportPayload, templateID string) error
}

// ReportCache de-duplicates dispatches and keeps the last report per weekday.
// A claim is released when delivery fails so a later run can retry.
type ReportCache interface {
	ClaimDispatch(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseDispatch(ctx context.Context, key string) error
	SaveLastReport(ctx context.Context, weekday int, payload *models.ReportPayload, ttl time.Duration) error
}

// DispatcherOptions tunes a ReportDispatcher. Zero values fall back to defaults.
type DispatcherOptions struct {
	TemplateID      string
	SubjectPrefix   string
	DispatchTimeout time.Duration
	DedupeTTL       time.Duration
	LastReportTTL   time.Duration
	QueueSize       int
}

// DispatchJob is one queued report.
type DispatchJob struct {
	ID     string
	Params VariationParams
	// Force skips the de-duplication claim.
	Force bool
}

// ReportDispatcher assembles reports and hands them to the notification sink
// from a single background worker. Delivery is best-effort: every failure is
// logged and swallowed.
type ReportDispatcher struct {
	reports *ReportService
	sink    NotificationSink
	cache   ReportCache
	opts    DispatcherOptions
	logger  *zap.Logger

	queue   chan DispatchJob
	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewReportDispatcher constructs a dispatcher. cache may be nil.
func NewReportDispatcher(
	reports *ReportService,
	sink NotificationSink,
	cache ReportCache,
	opts DispatcherOptions,
	logger *zap.Logger,
) *ReportDispatcher {
	if opts.TemplateID == "" {
		opts.TemplateID = DEFAULT_TEMPLATE_ID
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DEFAULT_QUEUE_SIZE
	}
	return &ReportDispatcher{
		reports: reports,
		sink:    sink,
		cache:   cache,
		opts:    opts,
		logger:  logger,
		queue:   make(chan DispatchJob, opts.QueueSize),
	}
}

// Start launches the worker. It exits when ctx is cancelled or Stop drains the queue.
func (d *ReportDispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				d.logger.Info("[ReportDispatcher] context cancelled, worker exiting")
				return
			case job, ok := <-d.queue:
				if !ok {
					return
				}
				d.run(ctx, job)
			}
		}
	}()
}

// Enqueue schedules a report without blocking. It returns the job ID, or ""
// when the queue is full or the dispatcher has been stopped.
func (d *ReportDispatcher) Enqueue(p VariationParams, force bool) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		d.logger.Warn("[ReportDispatcher] enqueue after stop", zap.Int("weekday", p.Weekday))
		return ""
	}

	job := DispatchJob{ID: uuid.NewString(), Params: p, Force: force}
	select {
	case d.queue <- job:
		d.logger.Debug("[ReportDispatcher] job queued", zap.String("job_id", job.ID), zap.Int("weekday", p.Weekday))
		return job.ID
	default:
		metrics.DispatchQueueDropped.Inc()
		d.logger.Warn("[ReportDispatcher] queue full, report dropped", zap.Int("weekday", p.Weekday))
		return ""
	}
}

// Stop closes the queue and waits for queued jobs to finish.
func (d *ReportDispatcher) Stop() {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *ReportDispatcher) run(ctx context.Context, job DispatchJob) {
	if d.opts.DispatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.DispatchTimeout)
		defer cancel()
	}
	d.dispatch(ctx, job)
}

// BuildAndDispatch computes the report of p and delivers it synchronously.
// Errors never reach the caller.
func (d *ReportDispatcher) BuildAndDispatch(ctx context.Context, p VariationParams) {
	d.dispatch(ctx, DispatchJob{ID: uuid.NewString(), Params: p, Force: true})
}

func (d *ReportDispatcher) dispatch(ctx context.Context, job DispatchJob) {
	log := d.logger.With(zap.String("job_id", job.ID), zap.Int("weekday", job.Params.Weekday))

	defer func() {
		if r := recover(); r != nil {
			metrics.IncDispatch("all", "panic")
			log.Error("[ReportDispatcher] report assembly panicked", zap.Any("panic", r))
		}
	}()

	result, err := d.reports.ComputeVariation(ctx, job.Params)
	if err != nil {
		metrics.IncDispatch("all", "compute_error")
		log.Error("[ReportDispatcher] could not compute report, skipping cycle", zap.Error(err))
		return
	}

	payload := BuildPayload(result, d.opts.SubjectPrefix)

	claimKey := ""
	if !job.Force && d.cache != nil && payload.LastHour != "" {
		key := dispatchKey(result, payload.LastHour)
		claimed, err := d.cache.ClaimDispatch(ctx, key, d.opts.DedupeTTL)
		switch {
		case err != nil:
			log.Warn("[ReportDispatcher] dedupe claim failed, dispatching anyway", zap.Error(err))
		case !claimed:
			metrics.IncDispatch("all", "duplicate")
			log.Info("[ReportDispatcher] report already dispatched", zap.String("key", key))
			return
		default:
			claimKey = key
		}
	}

	if err := d.sink.Dispatch(ctx, payload.Subject, payload, d.opts.TemplateID); err != nil {
		metrics.IncDispatch("all", "failed")
		log.Error("[ReportDispatcher] dispatch failed", zap.String("subject", payload.Subject), zap.Error(err))
		if claimKey != "" {
			if err := d.cache.ReleaseDispatch(ctx, claimKey); err != nil {
				log.Warn("[ReportDispatcher] could not release dedupe claim", zap.String("key", claimKey), zap.Error(err))
			}
		}
	} else {
		metrics.IncDispatch("all", "sent")
		log.Info("[ReportDispatcher] report dispatched", zap.String("subject", payload.Subject))
	}

	if d.cache != nil {
		if err := d.cache.SaveLastReport(ctx, result.Weekday, payload, d.opts.LastReportTTL); err != nil {
			log.Warn("[ReportDispatcher] could not store last report", zap.Error(err))
		}
	}
}

func dispatchKey(r *models.ReportResult, lastHour string) string {
	return fmt.Sprintf("%d:%d:%d:%s", r.Weekday, r.Year, r.EndWeek, lastHour)
}

// BuildPayload derives the chart scale, the last populated hour of the most
// recent week and the subject line "<day> Orders - HH:00".
func BuildPayload(r *models.ReportResult, subjectPrefix string) *models.ReportPayload {
	p := &models.ReportPayload{
		DayName:      r.DayName,
		Weeks:        r.Weeks,
		MaxVariation: 1,
		Report:       r,
	}

	maxVariation := 0
	for _, row := range r.HourlyData {
		v := row.VariationPercent
		if v < 0 {
			v = -v
		}
		if v > maxVariation {
			maxVariation = v
		}
	}
	if maxVariation > 0 {
		p.MaxVariation = maxVariation
	}

	if hour, count, ok := lastPopulatedHour(r.HourlyData, r.EndWeek); ok {
		p.LastHour = hourLabel(hour)
		p.LastHourTotal = count
	}

	subject := r.DayName + " Orders"
	if p.LastHour != "" {
		subject += " - " + p.LastHour
	}
	if subjectPrefix != "" {
		subject = subjectPrefix + " " + subject
	}
	p.Subject = subject
	return p
}
