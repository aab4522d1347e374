package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"traffic-reporter/models"
	"traffic-reporter/schedule"
)

var hundred = decimal.NewFromInt(100)

// Reconcile compares the end-of-day total of targetWeek with the target
// stored for date. A missing target is reported as no_meta, never as an error.
func (rs *ReportService) Reconcile(
	ctx context.Context,
	date time.Time,
	hourly []models.HourBucketResult,
	targetWeek int,
	window schedule.Window,
) (*models.DailyMetaVsReal, error) {
	out := &models.DailyMetaVsReal{
		Date:   date.Format(models.DATE_LAYOUT),
		Status: models.META_STATUS_NO_META,
	}

	if rs.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rs.queryTimeout)
		defer cancel()
	}
	meta, err := rs.targets.GetDailyMeta(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("get daily meta %s: %w", out.Date, err)
	}
	if meta == nil {
		rs.logger.Debug("[ReportService] no daily meta", zap.String("date", out.Date))
		return out, nil
	}

	actual, _ := endOfDayTotal(hourly, targetWeek, window)
	out.HasMeta = true
	out.RealCount = actual
	out.MetaCount = meta.TargetCount
	out.Difference = actual - meta.TargetCount
	out.AchievementPercent = achievementPercent(actual, meta.TargetCount)
	out.Status = metaStatus(actual, meta.TargetCount)
	return out, nil
}

// achievementPercent is the signed distance to target, rounded to 2 decimals.
func achievementPercent(actual, target int) float64 {
	if target <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(actual-target)).
		Mul(hundred).
		DivRound(decimal.NewFromInt(int64(target)), 2)
	f, _ := pct.Float64()
	return f
}

// metaStatus classifies actual against target; close means at least 80%.
func metaStatus(actual, target int) string {
	switch {
	case actual >= target:
		return models.META_STATUS_ACHIEVED
	case actual*10 >= target*8:
		return models.META_STATUS_CLOSE
	default:
		return models.META_STATUS_BEHIND
	}
}
