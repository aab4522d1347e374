package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"traffic-reporter/models"
	"traffic-reporter/schedule"
)

type recordingSink struct {
	mu       sync.Mutex
	subjects []string
	payloads []*models.ReportPayload
	template string
	err      error
}

func (s *recordingSink) Dispatch(ctx context.Context, subject string, payload *models.ReportPayload, templateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects = append(s.subjects, subject)
	s.payloads = append(s.payloads, payload)
	s.template = templateID
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subjects)
}

type memoryReportCache struct {
	mu       sync.Mutex
	claims   map[string]bool
	last     map[int]*models.ReportPayload
	claimErr error
}

func newMemoryReportCache() *memoryReportCache {
	return &memoryReportCache{claims: map[string]bool{}, last: map[int]*models.ReportPayload{}}
}

func (c *memoryReportCache) ClaimDispatch(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.claimErr != nil {
		return false, c.claimErr
	}
	if c.claims[key] {
		return false, nil
	}
	c.claims[key] = true
	return true, nil
}

func (c *memoryReportCache) ReleaseDispatch(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.claims, key)
	return nil
}

func (c *memoryReportCache) SaveLastReport(ctx context.Context, weekday int, payload *models.ReportPayload, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[weekday] = payload
	return nil
}

func sundaySamples() *fakeSampleSource {
	return &fakeSampleSource{samples: []models.TrafficSample{
		sample(time.July, 20, "20:00:00", 300),
		sample(time.July, 20, "21:00:00", 400),
		sample(time.July, 27, "20:00:00", 150),
		sample(time.July, 27, "21:00:00", 500),
	}}
}

func TestBuildPayload(t *testing.T) {
	rs := newTestReportService(sundaySamples(), &fakeTargetStore{}, schedule.DefaultTable())
	result, err := rs.ComputeVariation(context.Background(), VariationParams{Weekday: 7, Year: intPtr(2025)})
	require.NoError(t, err)

	payload := BuildPayload(result, "")
	assert.Equal(t, "Sunday Orders - 21:00", payload.Subject)
	assert.Equal(t, "21:00", payload.LastHour)
	assert.Equal(t, 500, payload.LastHourTotal)
	assert.Equal(t, 50, payload.MaxVariation)
	assert.Same(t, result, payload.Report)

	assert.Equal(t, "[Stores] Sunday Orders - 21:00", BuildPayload(result, "[Stores]").Subject)
}

func TestBuildPayloadWithoutData(t *testing.T) {
	payload := BuildPayload(&models.ReportResult{DayName: "Monday", EndWeek: 30}, "")
	assert.Equal(t, "Monday Orders", payload.Subject)
	assert.Equal(t, 1, payload.MaxVariation)
	assert.Equal(t, "", payload.LastHour)
}

func TestBuildAndDispatch(t *testing.T) {
	rs := newTestReportService(sundaySamples(), &fakeTargetStore{}, schedule.DefaultTable())
	sink := &recordingSink{}
	cache := newMemoryReportCache()
	d := NewReportDispatcher(rs, sink, cache, DispatcherOptions{}, zap.NewNop())

	d.BuildAndDispatch(context.Background(), VariationParams{Weekday: 7, Year: intPtr(2025)})

	require.Equal(t, 1, sink.count())
	assert.Equal(t, "Sunday Orders - 21:00", sink.subjects[0])
	assert.Equal(t, DEFAULT_TEMPLATE_ID, sink.template)
	require.Contains(t, cache.last, 7)
	assert.Equal(t, "21:00", cache.last[7].LastHour)
}

func TestBuildAndDispatchSwallowsFailures(t *testing.T) {
	t.Run("invalid weekday", func(t *testing.T) {
		sink := &recordingSink{}
		rs := newTestReportService(sundaySamples(), &fakeTargetStore{}, schedule.DefaultTable())
		d := NewReportDispatcher(rs, sink, nil, DispatcherOptions{}, zap.NewNop())

		assert.NotPanics(t, func() {
			d.BuildAndDispatch(context.Background(), VariationParams{Weekday: 9})
		})
		assert.Equal(t, 0, sink.count())
	})

	t.Run("store unavailable", func(t *testing.T) {
		sink := &recordingSink{}
		rs := newTestReportService(&fakeSampleSource{err: errors.New("db down")}, &fakeTargetStore{}, schedule.DefaultTable())
		d := NewReportDispatcher(rs, sink, nil, DispatcherOptions{}, zap.NewNop())

		d.BuildAndDispatch(context.Background(), VariationParams{Weekday: 7})
		assert.Equal(t, 0, sink.count())
	})

	t.Run("sink failure still stores last report", func(t *testing.T) {
		sink := &recordingSink{err: errors.New("smtp timeout")}
		cache := newMemoryReportCache()
		rs := newTestReportService(sundaySamples(), &fakeTargetStore{}, schedule.DefaultTable())
		d := NewReportDispatcher(rs, sink, cache, DispatcherOptions{}, zap.NewNop())

		d.BuildAndDispatch(context.Background(), VariationParams{Weekday: 7, Year: intPtr(2025)})
		assert.Equal(t, 1, sink.count())
		assert.Contains(t, cache.last, 7)
	})
}

func TestDispatcherQueueDeduplicates(t *testing.T) {
	rs := newTestReportService(sundaySamples(), &fakeTargetStore{}, schedule.DefaultTable())
	sink := &recordingSink{}
	cache := newMemoryReportCache()
	d := NewReportDispatcher(rs, sink, cache, DispatcherOptions{DispatchTimeout: time.Second}, zap.NewNop())

	d.Start(context.Background())
	params := VariationParams{Weekday: 7, Year: intPtr(2025)}
	assert.NotEmpty(t, d.Enqueue(params, false))
	assert.NotEmpty(t, d.Enqueue(params, false))
	assert.NotEmpty(t, d.Enqueue(params, true))
	d.Stop()

	assert.Equal(t, 2, sink.count())
	assert.True(t, cache.claims["7:2025:30:21:00"])
	assert.Empty(t, d.Enqueue(params, true))
}

func TestDispatcherDispatchesWhenClaimFails(t *testing.T) {
	rs := newTestReportService(sundaySamples(), &fakeTargetStore{}, schedule.DefaultTable())
	sink := &recordingSink{}
	cache := newMemoryReportCache()
	cache.claimErr = errors.New("redis unavailable")
	d := NewReportDispatcher(rs, sink, cache, DispatcherOptions{}, zap.NewNop())

	d.Start(context.Background())
	d.Enqueue(VariationParams{Weekday: 7, Year: intPtr(2025)}, false)
	d.Stop()

	assert.Equal(t, 1, sink.count())
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	rs := newTestReportService(sundaySamples(), &fakeTargetStore{}, schedule.DefaultTable())
	d := NewReportDispatcher(rs, &recordingSink{}, nil, DispatcherOptions{QueueSize: 1}, zap.NewNop())

	// worker not started, so the queue holds a single job
	assert.NotEmpty(t, d.Enqueue(VariationParams{Weekday: 7}, false))
	assert.Empty(t, d.Enqueue(VariationParams{Weekday: 7}, false))
}

func TestDispatcherRetriesAfterFailedDelivery(t *testing.T) {
	rs := newTestReportService(sundaySamples(), &fakeTargetStore{}, schedule.DefaultTable())
	cache := newMemoryReportCache()
	params := VariationParams{Weekday: 7, Year: intPtr(2025)}

	failing := &recordingSink{err: errors.New("smtp timeout")}
	d := NewReportDispatcher(rs, failing, cache, DispatcherOptions{}, zap.NewNop())
	d.Start(context.Background())
	d.Enqueue(params, false)
	d.Stop()

	assert.Equal(t, 1, failing.count())
	assert.False(t, cache.claims["7:2025:30:21:00"])

	healthy := &recordingSink{}
	d = NewReportDispatcher(rs, healthy, cache, DispatcherOptions{}, zap.NewNop())
	d.Start(context.Background())
	d.Enqueue(params, false)
	d.Enqueue(params, false)
	d.Stop()

	assert.Equal(t, 1, healthy.count())
	assert.True(t, cache.claims["7:2025:30:21:00"])
}
