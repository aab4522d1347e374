package sqldao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"traffic-reporter/db"
	"traffic-reporter/models"
)

// SQLDailyMetaDAO reads and writes the per-date order targets.
type SQLDailyMetaDAO struct {
	conn    *sql.DB
	dialect db.Dialect
	logger  *zap.Logger
}

func NewSQLDailyMetaDAO(conn *sql.DB, dialect db.Dialect, logger *zap.Logger) *SQLDailyMetaDAO {
	return &SQLDailyMetaDAO{conn: conn, dialect: dialect, logger: logger}
}

// GetDailyMeta returns the target of date, or nil when none was set.
func (dao *SQLDailyMetaDAO) GetDailyMeta(ctx context.Context, date time.Time) (*models.DailyMeta, error) {
	query := rebind(dao.dialect, fmt.Sprintf(
		`SELECT id, %s, target_count FROM daily_metas WHERE date = ?`, dateColumn(dao.dialect, "date")))

	var (
		meta models.DailyMeta
		day  string
	)
	err := dao.conn.QueryRowContext(ctx, query, formatDate(date)).Scan(&meta.ID, &day, &meta.TargetCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[SQLDailyMetaDAO] get %s: %w", formatDate(date), err)
	}
	if meta.Date, err = parseDate(day); err != nil {
		return nil, fmt.Errorf("[SQLDailyMetaDAO] parse date %q: %w", day, err)
	}
	return &meta, nil
}

// UpsertDailyMeta creates or replaces the target of m.Date and sets m.ID.
func (dao *SQLDailyMetaDAO) UpsertDailyMeta(ctx context.Context, m *models.DailyMeta) error {
	if m.TargetCount < 0 {
		return fmt.Errorf("[SQLDailyMetaDAO] negative target %d for %s", m.TargetCount, formatDate(m.Date))
	}
	query := rebind(dao.dialect, `INSERT INTO daily_metas (date, target_count) VALUES (?, ?)
ON CONFLICT (date) DO UPDATE SET target_count = excluded.target_count
RETURNING id`)
	if err := dao.conn.QueryRowContext(ctx, query, formatDate(m.Date), m.TargetCount).Scan(&m.ID); err != nil {
		return fmt.Errorf("[SQLDailyMetaDAO] upsert %s: %w", formatDate(m.Date), err)
	}
	dao.logger.Info("[SQLDailyMetaDAO] daily meta stored", zap.String("date", formatDate(m.Date)), zap.Int("target", m.TargetCount))
	return nil
}
