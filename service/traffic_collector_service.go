package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"traffic-reporter/metrics"
	"traffic-reporter/models"
	"traffic-reporter/schedule"
)

const COLLECTOR_COMMAND = "hourly data series fetch"

// DataSeriesAPI is the marketing platform endpoint that reports the running
// count of an event.
type DataSeriesAPI interface {
	GetDataSeries(ctx context.Context, eventID string, length int) (*models.DataSeriesResponse, error)
}

// SampleWriter appends collected samples to the traffic series store.
type SampleWriter interface {
	InsertSample(ctx context.Context, sample *models.TrafficSample) error
}

// ExecutionLogWriter records collector runs and manual report requests.
type ExecutionLogWriter interface {
	InsertExecutionLog(ctx context.Context, entry *models.ExecutionLog) error
}

// ReportEnqueuer schedules a report without waiting for delivery.
type ReportEnqueuer interface {
	Enqueue(p VariationParams, force bool) string
}

// OperatingCalendar answers which business day a moment belongs to.
type OperatingCalendar interface {
	IsOperating(ts time.Time) bool
	LogicalBusinessDay(ts time.Time) (int, time.Time)
}

// CollectOutcome tells what a single CollectOnce run did.
type CollectOutcome string

const (
	OUTCOME_STORED         CollectOutcome = "stored"
	OUTCOME_CLOSED         CollectOutcome = "closed"
	OUTCOME_DEAD_ZONE      CollectOutcome = "dead_zone"
	OUTCOME_ERROR          CollectOutcome = "error"
	OUTCOME_EMPTY_RESPONSE CollectOutcome = "empty"
)

// TrafficCollectorService samples the cumulative order counter once per hour
// and triggers the report of the business day it belongs to.
type TrafficCollectorService struct {
	dataSeries DataSeriesAPI
	samples    SampleWriter
	execLogs   ExecutionLogWriter
	reports    ReportEnqueuer
	calendar   OperatingCalendar
	window     schedule.BucketWindow
	eventID    string
	loc        *time.Location
	now        func() time.Time
	logger     *zap.Logger
}

// NewTrafficCollectorService constructs a collector. reports may be nil to
// collect without dispatching.
func NewTrafficCollectorService(
	dataSeries DataSeriesAPI,
	samples SampleWriter,
	execLogs ExecutionLogWriter,
	reports ReportEnqueuer,
	calendar OperatingCalendar,
	window schedule.BucketWindow,
	eventID string,
	loc *time.Location,
	logger *zap.Logger,
) *TrafficCollectorService {
	if loc == nil {
		loc = time.UTC
	}
	return &TrafficCollectorService{
		dataSeries: dataSeries,
		samples:    samples,
		execLogs:   execLogs,
		reports:    reports,
		calendar:   calendar,
		window:     window,
		eventID:    eventID,
		loc:        loc,
		now:        time.Now,
		logger:     logger,
	}
}

// SetClock replaces the wall clock.
func (c *TrafficCollectorService) SetClock(now func() time.Time) {
	c.now = now
}

// StartPeriodicJob launches the background loop. Runs are aligned to
// multiples of interval on the wall clock of the configured timezone (HH:00
// for 1h) so they land in a bucket window instead of the dead zone.
func (c *TrafficCollectorService) StartPeriodicJob(ctx context.Context, interval time.Duration) {
	go c.startPeriodicJob(ctx, interval)
}

func (c *TrafficCollectorService) startPeriodicJob(ctx context.Context, interval time.Duration) {
	for {
		now := c.now()
		timer := time.NewTimer(nextAlignedRun(now, interval, c.loc).Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			c.logger.Info("[TrafficCollectorService] stopping periodic job")
			return
		case <-timer.C:
			c.runScheduled(ctx)
		}
	}
}

func (c *TrafficCollectorService) runScheduled(ctx context.Context) {
	c.logger.Debug("[TrafficCollectorService] running periodic collection")
	outcome, err := c.CollectOnce(ctx)
	if err != nil {
		c.logger.Error("[TrafficCollectorService] collection failed", zap.Error(err))
		return
	}
	c.logger.Debug("[TrafficCollectorService] collection finished", zap.String("outcome", string(outcome)))
}

// nextAlignedRun returns the first multiple of interval, counted from local
// midnight in loc, strictly after now. Offsets such as +05:30 therefore still
// fire at HH:00 local time.
func nextAlignedRun(now time.Time, interval time.Duration, loc *time.Location) time.Time {
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	elapsed := local.Sub(midnight)
	return midnight.Add((elapsed/interval + 1) * interval)
}

// CollectOnce reads the counter, stores it at the bucketed hour and enqueues
// the report of the logical business day. Closed hours and dead-zone minutes
// are skipped.
func (c *TrafficCollectorService) CollectOnce(ctx context.Context) (CollectOutcome, error) {
	ranAt := c.now().In(c.loc)

	hour, rollover, ok := c.window.BucketHour(ranAt.Hour(), ranAt.Minute())
	if !ok {
		metrics.IncCollectorRun(string(OUTCOME_DEAD_ZONE))
		c.logger.Info("[TrafficCollectorService] run inside the dead zone, skipping",
			zap.String("at", ranAt.Format(time.RFC3339)))
		return OUTCOME_DEAD_ZONE, nil
	}
	date := schedule.DateOf(ranAt)
	if rollover {
		date = date.AddDate(0, 0, 1)
	}
	bucketed := date.Add(time.Duration(hour) * time.Hour)

	if !c.calendar.IsOperating(bucketed) {
		metrics.IncCollectorRun(string(OUTCOME_CLOSED))
		c.logger.Info("[TrafficCollectorService] outside operating hours, skipping",
			zap.String("bucket", bucketed.Format("2006-01-02 15:04")))
		return OUTCOME_CLOSED, nil
	}

	resp, err := c.dataSeries.GetDataSeries(ctx, c.eventID, 1)
	if err != nil {
		metrics.IncCollectorRun(string(OUTCOME_ERROR))
		return OUTCOME_ERROR, fmt.Errorf("fetch data series for %s: %w", c.eventID, err)
	}
	if resp == nil || len(resp.Data) == 0 {
		metrics.IncCollectorRun(string(OUTCOME_EMPTY_RESPONSE))
		c.logger.Warn("[TrafficCollectorService] empty data series", zap.String("event_id", c.eventID))
		return OUTCOME_EMPTY_RESPONSE, nil
	}

	sample := &models.TrafficSample{
		Date:  date,
		Time:  models.ClockTime{Hour: hour},
		Count: resp.Data[0].Count,
	}
	if err := c.samples.InsertSample(ctx, sample); err != nil {
		metrics.IncCollectorRun(string(OUTCOME_ERROR))
		return OUTCOME_ERROR, fmt.Errorf("store traffic sample: %w", err)
	}

	entry := &models.ExecutionLog{
		ID:            uuid.NewString(),
		ExecutionType: models.EXECUTION_TYPE_AUTOMATIC,
		Command:       COLLECTOR_COMMAND,
		Date:          schedule.DateOf(ranAt),
		Time:          models.ClockTime{Hour: ranAt.Hour(), Minute: ranAt.Minute(), Second: ranAt.Second()},
	}
	if err := c.execLogs.InsertExecutionLog(ctx, entry); err != nil {
		c.logger.Warn("[TrafficCollectorService] could not record execution log", zap.Error(err))
	}

	metrics.IncCollectorRun(string(OUTCOME_STORED))
	c.logger.Info("[TrafficCollectorService] sample stored",
		zap.String("date", date.Format(models.DATE_LAYOUT)),
		zap.String("time", sample.Time.String()),
		zap.Int("count", sample.Count))

	if c.reports != nil {
		weekday, businessDate := c.calendar.LogicalBusinessDay(bucketed)
		year, week := businessDate.ISOWeek()
		c.reports.Enqueue(VariationParams{Weekday: weekday, Year: &year, EndWeek: &week}, false)
	}
	return OUTCOME_STORED, nil
}
