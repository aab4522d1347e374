package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"traffic-reporter/db"
	"traffic-reporter/models"
)

// LAST_REPORT_KEY_FORMAT caches the last dispatched report per ISO weekday.
const LAST_REPORT_KEY_FORMAT = "report_last_v1:%d"
const LAST_REPORT_KEY_PREFIX = "report_last_v1:"

// DISPATCH_CLAIM_KEY_FORMAT marks a (weekday, year, week, hour) report as sent.
const DISPATCH_CLAIM_KEY_FORMAT = "report_dispatch_v1:%s"

// RedisReportDAO keeps report snapshots and dispatch claims in Redis.
type RedisReportDAO struct {
	client db.RedisClient
	logger *zap.Logger
}

// NewRedisReportDAO initializes a RedisReportDAO with the Redis client.
func NewRedisReportDAO(client db.RedisClient, logger *zap.Logger) *RedisReportDAO {
	return &RedisReportDAO{client: client, logger: logger}
}

// ClaimDispatch sets the claim for key if nobody holds it and reports whether
// this caller won it.
func (dao *RedisReportDAO) ClaimDispatch(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	claimKey := fmt.Sprintf(DISPATCH_CLAIM_KEY_FORMAT, key)
	ok, err := dao.client.SetNX(ctx, claimKey, time.Now().UTC().Format(time.RFC3339), ttl)
	if err != nil {
		return false, fmt.Errorf("[RedisReportDAO] failed to claim %s: %w", claimKey, err)
	}
	return ok, nil
}

// ReleaseDispatch drops the claim for key so the report can be sent again.
func (dao *RedisReportDAO) ReleaseDispatch(ctx context.Context, key string) error {
	claimKey := fmt.Sprintf(DISPATCH_CLAIM_KEY_FORMAT, key)
	if err := dao.client.Del(ctx, claimKey); err != nil {
		return fmt.Errorf("[RedisReportDAO] failed to release %s: %w", claimKey, err)
	}
	return nil
}

// SaveLastReport caches payload as the latest report of weekday.
func (dao *RedisReportDAO) SaveLastReport(ctx context.Context, weekday int, payload *models.ReportPayload, ttl time.Duration) error {
	key := fmt.Sprintf(LAST_REPORT_KEY_FORMAT, weekday)
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("[RedisReportDAO] failed to marshal report for weekday %d: %w", weekday, err)
	}
	if err := dao.client.Set(ctx, key, string(data), ttl); err != nil {
		return fmt.Errorf("[RedisReportDAO] failed to set %s: %w", key, err)
	}
	dao.logger.Debug("[RedisReportDAO] last report stored", zap.Int("weekday", weekday))
	return nil
}

// GetLastReport returns the cached report of weekday, or nil on a cache miss.
func (dao *RedisReportDAO) GetLastReport(ctx context.Context, weekday int) (*models.ReportPayload, error) {
	key := fmt.Sprintf(LAST_REPORT_KEY_FORMAT, weekday)
	str, err := dao.client.Get(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[RedisReportDAO] failed to get %s: %w", key, err)
	}
	var p models.ReportPayload
	if err := json.Unmarshal([]byte(str), &p); err != nil {
		return nil, fmt.Errorf("[RedisReportDAO] failed to unmarshal %s: %w", key, err)
	}
	return &p, nil
}

// ListLastReportWeekdays returns the weekdays that have a cached report, ascending.
func (dao *RedisReportDAO) ListLastReportWeekdays(ctx context.Context) ([]int, error) {
	keys, err := dao.client.Keys(ctx, LAST_REPORT_KEY_PREFIX+"*")
	if err != nil {
		return nil, fmt.Errorf("[RedisReportDAO] failed to list report keys: %w", err)
	}
	weekdays := make([]int, 0, len(keys))
	for _, k := range keys {
		wd, err := strconv.Atoi(strings.TrimPrefix(k, LAST_REPORT_KEY_PREFIX))
		if err != nil {
			dao.logger.Warn("[RedisReportDAO] skipping malformed key", zap.String("key", k))
			continue
		}
		weekdays = append(weekdays, wd)
	}
	sort.Ints(weekdays)
	return weekdays, nil
}
