package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"traffic-reporter/db"
	"traffic-reporter/models"
)

func TestRedisReportDAO_LastReport(t *testing.T) {
	ctx := context.Background()
	dao := NewRedisReportDAO(db.NewMockRedisClient(), zap.NewNop())

	missing, err := dao.GetLastReport(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, missing)

	payload := &models.ReportPayload{
		Subject:  "Friday Orders - 01:00",
		DayName:  "Friday",
		LastHour: "01:00",
		Report: &models.ReportResult{
			Weekday:    5,
			HourlyData: []models.HourBucketResult{{Hour: "01:00", PerWeek: map[int]int{29: 0, 30: 720}, VariationPercent: 100}},
		},
	}
	require.NoError(t, dao.SaveLastReport(ctx, 5, payload, time.Hour))
	require.NoError(t, dao.SaveLastReport(ctx, 7, &models.ReportPayload{Subject: "Sunday Orders"}, time.Hour))

	got, err := dao.GetLastReport(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Friday Orders - 01:00", got.Subject)
	assert.Equal(t, 720, got.Report.HourlyData[0].PerWeek[30])

	weekdays, err := dao.ListLastReportWeekdays(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 7}, weekdays)
}

func TestRedisReportDAO_ClaimDispatch(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client, err := db.NewGoRedisClient(ctx, goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	require.NoError(t, err)
	dao := NewRedisReportDAO(client, zap.NewNop())

	ok, err := dao.ClaimDispatch(ctx, "5:2025:30:01:00", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("report_dispatch_v1:5:2025:30:01:00"))

	ok, err = dao.ClaimDispatch(ctx, "5:2025:30:01:00", 10*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(11 * time.Minute)
	ok, err = dao.ClaimDispatch(ctx, "5:2025:30:01:00", 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisReportDAO_ClaimDispatchError(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client, err := db.NewGoRedisClient(ctx, goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	require.NoError(t, err)
	dao := NewRedisReportDAO(client, zap.NewNop())

	mr.SetError("LOADING")
	_, err = dao.ClaimDispatch(ctx, "1:2025:30:13:00", time.Minute)
	assert.Error(t, err)
}

func TestRedisReportDAO_ReleaseDispatch(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client, err := db.NewGoRedisClient(ctx, goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	require.NoError(t, err)
	dao := NewRedisReportDAO(client, zap.NewNop())

	ok, err := dao.ClaimDispatch(ctx, "7:2025:30:21:00", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, dao.ReleaseDispatch(ctx, "7:2025:30:21:00"))
	assert.False(t, mr.Exists("report_dispatch_v1:7:2025:30:21:00"))

	ok, err = dao.ClaimDispatch(ctx, "7:2025:30:21:00", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	// releasing a claim nobody holds is not an error
	require.NoError(t, dao.ReleaseDispatch(ctx, "1:2025:30:13:00"))
}
