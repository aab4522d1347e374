package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"traffic-reporter/metrics"
	"traffic-reporter/models"
	"traffic-reporter/schedule"
)

// TrafficSampleSource returns the samples of the given ISO weekdays whose date
// lies in [from, to], ordered by (date, time).
type TrafficSampleSource interface {
	QuerySamples(ctx context.Context, from, to time.Time, weekdays []int) ([]models.TrafficSample, error)
}

// DailyTargetStore looks up the target of a date. A missing target is (nil, nil).
type DailyTargetStore interface {
	GetDailyMeta(ctx context.Context, date time.Time) (*models.DailyMeta, error)
}

// VariationParams are the inputs of ComputeVariation. Nil fields take defaults.
type VariationParams struct {
	Weekday   int  `json:"weekday"`
	StartWeek *int `json:"start_week,omitempty"`
	EndWeek   *int `json:"end_week,omitempty"`
	Year      *int `json:"year,omitempty"`
	StartHour *int `json:"start_hour,omitempty"`
	EndHour   *int `json:"end_hour,omitempty"`
}

// ReportService computes week-over-week traffic variation reports.
type ReportService struct {
	samples      TrafficSampleSource
	targets      DailyTargetStore
	schedule     schedule.Provider
	window       schedule.BucketWindow
	loc          *time.Location
	queryTimeout time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

// NewReportService constructs a ReportService. A nil loc means UTC and a zero
// queryTimeout disables the store deadline.
func NewReportService(
	samples TrafficSampleSource,
	targets DailyTargetStore,
	provider schedule.Provider,
	window schedule.BucketWindow,
	loc *time.Location,
	queryTimeout time.Duration,
	logger *zap.Logger,
) *ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{
		samples:      samples,
		targets:      targets,
		schedule:     provider,
		window:       window,
		loc:          loc,
		queryTimeout: queryTimeout,
		now:          time.Now,
		logger:       logger,
	}
}

// SetClock replaces the wall clock used to resolve default weeks.
func (rs *ReportService) SetClock(now func() time.Time) {
	rs.now = now
}

// ComputeVariation builds the variation report of p.Weekday over the resolved
// week window. Only invalid arguments and store failures are errors; missing
// samples or targets produce empty or zeroed sections.
func (rs *ReportService) ComputeVariation(ctx context.Context, p VariationParams) (*models.ReportResult, error) {
	start := time.Now()
	defer metrics.ObserveReportDuration(start)

	q, err := rs.resolve(p)
	if err != nil {
		metrics.IncReportComputation("invalid")
		return nil, err
	}

	result, err := rs.compute(ctx, q)
	if err != nil {
		metrics.IncReportComputation("error")
		rs.logger.Error("[ReportService] variation computation failed",
			zap.Int("weekday", q.Weekday),
			zap.Int("year", q.Year),
			zap.Int("start_week", q.StartWeek),
			zap.Int("end_week", q.EndWeek),
			zap.Error(err))
		return nil, err
	}

	metrics.IncReportComputation("ok")
	rs.logger.Debug("[ReportService] variation computed",
		zap.Int("weekday", q.Weekday),
		zap.Int("year", q.Year),
		zap.Int("start_week", q.StartWeek),
		zap.Int("end_week", q.EndWeek),
		zap.Int("hours", len(result.HourlyData)))
	return result, nil
}

func (rs *ReportService) compute(ctx context.Context, q reportQuery) (*models.ReportResult, error) {
	from, to := schedule.ISOWeekRange(q.Year, q.StartWeek, q.EndWeek)
	weekdays := []int{q.Weekday}
	if q.Window.CrossesMidnight {
		weekdays = append(weekdays, schedule.NextWeekday(q.Weekday))
		to = to.AddDate(0, 0, 1)
	} else if q.Window.Contains(0) {
		// a 23:58 sample of the previous day rolls over into 00:00
		weekdays = append(weekdays, schedule.PreviousWeekday(q.Weekday))
		from = from.AddDate(0, 0, -1)
	}

	samples, err := rs.querySamples(ctx, from, to, weekdays)
	if err != nil {
		return nil, err
	}

	grid := latestByBucket(assignSamples(q, rs.window, samples))
	hourly := buildHourlyData(q, grid)

	result := &models.ReportResult{
		Weekday:            q.Weekday,
		DayName:            schedule.DayName(q.Weekday),
		Year:               q.Year,
		StartWeek:          q.StartWeek,
		EndWeek:            q.EndWeek,
		StartHour:          q.Window.StartHour,
		EndHour:            q.Window.EndHour,
		CrossesMidnight:    q.Window.CrossesMidnight,
		Weeks:              q.weeks(),
		HourlyData:         hourly,
		DailyVariation:     buildDailyVariation(q, hourly),
		CurrentTimeSummary: buildCurrentTimeSummary(q, hourly),
	}

	if len(hourly) > 0 {
		date := schedule.WeekdayDate(q.Year, q.EndWeek, q.Weekday)
		reconciled, err := rs.Reconcile(ctx, date, hourly, q.EndWeek, q.Window)
		if err != nil {
			return nil, err
		}
		result.DailyMetaVsReal = reconciled
	}
	return result, nil
}

func (rs *ReportService) querySamples(ctx context.Context, from, to time.Time, weekdays []int) ([]models.TrafficSample, error) {
	if rs.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rs.queryTimeout)
		defer cancel()
	}
	samples, err := rs.samples.QuerySamples(ctx, from, to, weekdays)
	if err != nil {
		return nil, fmt.Errorf("query traffic samples %s..%s: %w",
			from.Format(models.DATE_LAYOUT), to.Format(models.DATE_LAYOUT), err)
	}
	return samples, nil
}

// resolve validates p and fills in the defaults: the current ISO week and
// year, the four preceding weeks and the weekday's operating hours.
func (rs *ReportService) resolve(p VariationParams) (reportQuery, error) {
	if p.Weekday < 1 || p.Weekday > 7 {
		return reportQuery{}, fmt.Errorf("%w: weekday %d outside 1..7", ErrInvalidArgument, p.Weekday)
	}

	nowYear, nowWeek := rs.now().In(rs.loc).ISOWeek()
	q := reportQuery{Weekday: p.Weekday, Year: nowYear}

	if p.Year != nil {
		if *p.Year < 1 || *p.Year > 9999 {
			return reportQuery{}, fmt.Errorf("%w: year %d outside 1..9999", ErrInvalidArgument, *p.Year)
		}
		q.Year = *p.Year
	}
	maxWeek := schedule.WeeksInYear(q.Year)

	q.EndWeek = nowWeek
	if q.EndWeek > maxWeek {
		q.EndWeek = maxWeek
	}
	if p.EndWeek != nil {
		q.EndWeek = *p.EndWeek
	}
	q.StartWeek = q.EndWeek - 4
	if q.StartWeek < 1 {
		q.StartWeek = 1
	}
	if p.StartWeek != nil {
		q.StartWeek = *p.StartWeek
	}
	if q.StartWeek < 1 || q.EndWeek > maxWeek || q.StartWeek > q.EndWeek {
		return reportQuery{}, fmt.Errorf("%w: weeks %d..%d outside 1..%d of %d",
			ErrInvalidArgument, q.StartWeek, q.EndWeek, maxWeek, q.Year)
	}

	q.Window = rs.schedule.Window(p.Weekday)
	if p.StartHour != nil || p.EndHour != nil {
		startHour, endHour := q.Window.StartHour, q.Window.EndHour
		if p.StartHour != nil {
			startHour = *p.StartHour
		}
		if p.EndHour != nil {
			endHour = *p.EndHour
		}
		if startHour < 0 || startHour > 23 || endHour < 0 || endHour > 23 {
			return reportQuery{}, fmt.Errorf("%w: hours %d..%d outside 0..23", ErrInvalidArgument, startHour, endHour)
		}
		q.Window = schedule.NewWindow(startHour, endHour)
	}
	return q, nil
}
