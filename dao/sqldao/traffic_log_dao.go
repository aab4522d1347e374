package sqldao

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"traffic-reporter/db"
	"traffic-reporter/models"
)

// SQLTrafficLogDAO stores collected traffic samples in traffic_logs.
type SQLTrafficLogDAO struct {
	conn    *sql.DB
	dialect db.Dialect
	logger  *zap.Logger
}

// NewSQLTrafficLogDAO creates a traffic log DAO for the given dialect.
func NewSQLTrafficLogDAO(conn *sql.DB, dialect db.Dialect, logger *zap.Logger) *SQLTrafficLogDAO {
	return &SQLTrafficLogDAO{conn: conn, dialect: dialect, logger: logger}
}

func (dao *SQLTrafficLogDAO) weekdayFilter(weekdays []int) (string, []interface{}) {
	if dao.dialect == db.DIALECT_POSTGRES {
		isoDays := make([]int64, len(weekdays))
		for i, wd := range weekdays {
			isoDays[i] = int64(wd)
		}
		return "EXTRACT(ISODOW FROM date)::int = ANY(?)", []interface{}{pq.Array(isoDays)}
	}

	placeholders := make([]string, len(weekdays))
	args := make([]interface{}, len(weekdays))
	for i, wd := range weekdays {
		placeholders[i] = "?"
		args[i] = wd
	}
	// strftime('%w') counts Sunday as 0
	return "(CASE strftime('%w', date) WHEN '0' THEN 7 ELSE CAST(strftime('%w', date) AS INTEGER) END) IN (" +
		strings.Join(placeholders, ", ") + ")", args
}

// QuerySamples returns the samples dated within [from, to] that fall on one of
// weekdays (ISO numbering), ordered by date then time.
func (dao *SQLTrafficLogDAO) QuerySamples(ctx context.Context, from, to time.Time, weekdays []int) ([]models.TrafficSample, error) {
	if len(weekdays) == 0 {
		return []models.TrafficSample{}, nil
	}

	filter, filterArgs := dao.weekdayFilter(weekdays)
	query := rebind(dao.dialect, fmt.Sprintf(
		`SELECT id, %s, %s, count FROM traffic_logs WHERE date >= ? AND date <= ? AND %s ORDER BY date, time, id`,
		dateColumn(dao.dialect, "date"), timeColumn(dao.dialect, "time"), filter))
	args := append([]interface{}{formatDate(from), formatDate(to)}, filterArgs...)

	rows, err := dao.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("[SQLTrafficLogDAO] query samples: %w", err)
	}
	defer rows.Close()

	samples := []models.TrafficSample{}
	for rows.Next() {
		var (
			s           models.TrafficSample
			date, clock string
		)
		if err := rows.Scan(&s.ID, &date, &clock, &s.Count); err != nil {
			return nil, fmt.Errorf("[SQLTrafficLogDAO] scan sample: %w", err)
		}
		if s.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("[SQLTrafficLogDAO] sample %d date: %w", s.ID, err)
		}
		if s.Time, err = models.ParseClockTime(clock); err != nil {
			return nil, fmt.Errorf("[SQLTrafficLogDAO] sample %d time: %w", s.ID, err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("[SQLTrafficLogDAO] iterate samples: %w", err)
	}

	dao.logger.Debug("queried traffic samples",
		zap.String("from", formatDate(from)),
		zap.String("to", formatDate(to)),
		zap.Ints("weekdays", weekdays),
		zap.Int("rows", len(samples)))
	return samples, nil
}

// InsertSample appends s and sets its ID.
func (dao *SQLTrafficLogDAO) InsertSample(ctx context.Context, s *models.TrafficSample) error {
	query := rebind(dao.dialect, `INSERT INTO traffic_logs (date, time, count) VALUES (?, ?, ?) RETURNING id`)
	if err := dao.conn.QueryRowContext(ctx, query, formatDate(s.Date), s.Time.String(), s.Count).Scan(&s.ID); err != nil {
		return fmt.Errorf("[SQLTrafficLogDAO] insert sample: %w", err)
	}
	return nil
}
