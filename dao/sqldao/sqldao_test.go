package sqldao

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"traffic-reporter/db"
	"traffic-reporter/models"
)

func day(d int) time.Time {
	return time.Date(2025, time.July, d, 0, 0, 0, 0, time.UTC)
}

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, mock
}

func TestRebind(t *testing.T) {
	q := "SELECT 1 WHERE a = ? AND b = ?"
	assert.Equal(t, q, rebind(db.DIALECT_SQLITE, q))
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND b = $2", rebind(db.DIALECT_POSTGRES, q))
}

func TestSQLiteTrafficLogDAO_QuerySamples(t *testing.T) {
	ctx := context.Background()
	dao := NewSQLTrafficLogDAO(openSQLite(t), db.DIALECT_SQLITE, zap.NewNop())

	inserts := []models.TrafficSample{
		{Date: day(26), Time: models.ClockTime{Hour: 1}, Count: 720},
		{Date: day(25), Time: models.ClockTime{Hour: 20}, Count: 650},
		{Date: day(26), Time: models.ClockTime{Hour: 0}, Count: 700},
		{Date: day(27), Time: models.ClockTime{Hour: 12}, Count: 90},  // sunday
		{Date: day(18), Time: models.ClockTime{Hour: 22}, Count: 100}, // before range
		{Date: day(25), Time: models.ClockTime{Hour: 8, Minute: 58, Second: 4}, Count: 3},
	}
	for i := range inserts {
		require.NoError(t, dao.InsertSample(ctx, &inserts[i]))
		assert.NotZero(t, inserts[i].ID)
	}

	got, err := dao.QuerySamples(ctx, day(21), day(27), []int{5, 6})
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, day(25), got[0].Date)
	assert.Equal(t, models.ClockTime{Hour: 8, Minute: 58, Second: 4}, got[0].Time)
	assert.Equal(t, 650, got[1].Count)
	assert.Equal(t, 700, got[2].Count)
	assert.Equal(t, 720, got[3].Count)

	sundays, err := dao.QuerySamples(ctx, day(21), day(27), []int{7})
	require.NoError(t, err)
	require.Len(t, sundays, 1)
	assert.Equal(t, 90, sundays[0].Count)

	none, err := dao.QuerySamples(ctx, day(21), day(27), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteDailyMetaDAO(t *testing.T) {
	ctx := context.Background()
	dao := NewSQLDailyMetaDAO(openSQLite(t), db.DIALECT_SQLITE, zap.NewNop())

	missing, err := dao.GetDailyMeta(ctx, day(25))
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, dao.UpsertDailyMeta(ctx, &models.DailyMeta{Date: day(25), TargetCount: 1500}))
	require.NoError(t, dao.UpsertDailyMeta(ctx, &models.DailyMeta{Date: day(25), TargetCount: 1600}))

	meta, err := dao.GetDailyMeta(ctx, day(25))
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 1600, meta.TargetCount)
	assert.Equal(t, day(25), meta.Date)

	assert.Error(t, dao.UpsertDailyMeta(ctx, &models.DailyMeta{Date: day(26), TargetCount: -1}))
}

func TestSQLiteExecutionLogDAO(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	dao := NewSQLExecutionLogDAO(conn, db.DIALECT_SQLITE, zap.NewNop())

	entry := &models.ExecutionLog{
		ID:            "5f0c1a52-9a3e-4c41-a0f1-3f1f0a3c9b11",
		ExecutionType: models.EXECUTION_TYPE_MANUAL,
		Command:       "report dispatch",
		Date:          day(25),
		Time:          models.ClockTime{Hour: 20, Minute: 1, Second: 5},
	}
	require.NoError(t, dao.InsertExecutionLog(ctx, entry))

	var command, clock string
	require.NoError(t, conn.QueryRow(`SELECT command, time FROM execution_logs WHERE id = ?`, entry.ID).Scan(&command, &clock))
	assert.Equal(t, "report dispatch", command)
	assert.Equal(t, "20:01:05", clock)

	assert.Error(t, dao.InsertExecutionLog(ctx, entry), "duplicate id")
}

func TestPostgresTrafficLogDAO_QuerySamples(t *testing.T) {
	conn, mock := setupMockDB(t)
	dao := NewSQLTrafficLogDAO(conn, db.DIALECT_POSTGRES, zap.NewNop())

	rows := sqlmock.NewRows([]string{"id", "date", "time", "count"}).
		AddRow(1, "2025-07-25", "20:00:00", 650).
		AddRow(2, "2025-07-26", "01:00:00", 720)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, date::text, to_char(time, 'HH24:MI:SS'), count FROM traffic_logs WHERE date >= $1 AND date <= $2 AND EXTRACT(ISODOW FROM date)::int = ANY($3)`)).
		WithArgs("2025-07-21", "2025-07-27", sqlmock.AnyArg()).
		WillReturnRows(rows)

	got, err := dao.QuerySamples(context.Background(), day(21), day(27), []int{5, 6})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, day(26), got[1].Date)
	assert.Equal(t, models.ClockTime{Hour: 1}, got[1].Time)
	assert.Equal(t, 720, got[1].Count)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDailyMetaDAO_GetDailyMeta(t *testing.T) {
	conn, mock := setupMockDB(t)
	dao := NewSQLDailyMetaDAO(conn, db.DIALECT_POSTGRES, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, date::text, target_count FROM daily_metas WHERE date = $1`)).
		WithArgs("2025-07-25").
		WillReturnRows(sqlmock.NewRows([]string{"id", "date", "target_count"}).AddRow(7, "2025-07-25", 1500))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, date::text, target_count FROM daily_metas WHERE date = $1`)).
		WithArgs("2025-07-26").
		WillReturnError(sql.ErrNoRows)

	meta, err := dao.GetDailyMeta(context.Background(), day(25))
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, int64(7), meta.ID)
	assert.Equal(t, 1500, meta.TargetCount)

	missing, err := dao.GetDailyMeta(context.Background(), day(26))
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTrafficLogDAO_InsertSampleError(t *testing.T) {
	conn, mock := setupMockDB(t)
	dao := NewSQLTrafficLogDAO(conn, db.DIALECT_POSTGRES, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO traffic_logs (date, time, count) VALUES ($1, $2, $3) RETURNING id`)).
		WithArgs("2025-07-25", "20:00:00", 650).
		WillReturnError(sql.ErrConnDone)

	err := dao.InsertSample(context.Background(), &models.TrafficSample{Date: day(25), Time: models.ClockTime{Hour: 20}, Count: 650})
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}
