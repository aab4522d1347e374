package sqldao

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"traffic-reporter/db"
	"traffic-reporter/models"
)

// SQLExecutionLogDAO appends collector and dispatch runs to execution_logs.
type SQLExecutionLogDAO struct {
	conn    *sql.DB
	dialect db.Dialect
	logger  *zap.Logger
}

func NewSQLExecutionLogDAO(conn *sql.DB, dialect db.Dialect, logger *zap.Logger) *SQLExecutionLogDAO {
	return &SQLExecutionLogDAO{conn: conn, dialect: dialect, logger: logger}
}

func (dao *SQLExecutionLogDAO) InsertExecutionLog(ctx context.Context, e *models.ExecutionLog) error {
	query := rebind(dao.dialect,
		`INSERT INTO execution_logs (id, execution_type, command, date, time) VALUES (?, ?, ?, ?, ?)`)
	if _, err := dao.conn.ExecContext(ctx, query, e.ID, e.ExecutionType, e.Command, formatDate(e.Date), e.Time.String()); err != nil {
		return fmt.Errorf("[SQLExecutionLogDAO] insert %s: %w", e.ID, err)
	}
	dao.logger.Debug("execution logged", zap.String("id", e.ID), zap.String("type", e.ExecutionType))
	return nil
}
