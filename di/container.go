package di

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"traffic-reporter/api"
	"traffic-reporter/api/braze"
	"traffic-reporter/api/wasender"
	"traffic-reporter/config"
	"traffic-reporter/dao/redis"
	"traffic-reporter/dao/sqldao"
	"traffic-reporter/db"
	"traffic-reporter/notifier"
	"traffic-reporter/server"
	"traffic-reporter/server/handlers"
	services "traffic-reporter/service"
)

// Container holds all application dependencies.
type Container struct {
	Config                  *config.Config
	Logger                  *zap.Logger
	SQLDB                   *sql.DB
	RedisClient             db.RedisClient
	TrafficLogDao           *sqldao.SQLTrafficLogDAO
	DailyMetaDao            *sqldao.SQLDailyMetaDAO
	ExecutionLogDao         *sqldao.SQLExecutionLogDAO
	RedisReportDao          *redis.RedisReportDAO
	BrazeAPI                braze.BrazeAPI
	NotificationSink        notifier.Sink
	ReportService           *services.ReportService
	ReportDispatcher        *services.ReportDispatcher
	TrafficCollectorService *services.TrafficCollectorService
	ReportHandler           *handlers.ReportHandler
	DailyMetaHandler        *handlers.DailyMetaHandler
	MuxRouter               *mux.Router
	Router                  *server.Router
	TrafficHttpServer       *server.TrafficHttpServer

	closers []func() error
}

// NewContainer initializes and wires up all dependencies. Outside prod the
// Braze client is replaced by a fixture-backed mock and Redis by an in-memory
// client.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	logger.Info("[Container] initializing container", zap.String("env", cfg.Env))
	c := &Container{Config: cfg, Logger: logger}

	loc, err := cfg.Report.Location()
	if err != nil {
		return nil, err
	}
	table, err := cfg.ScheduleTable()
	if err != nil {
		return nil, err
	}
	bucketWindow := cfg.Report.BucketWindow()

	// SQL stores
	dialect, err := db.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	var conn *sql.DB
	switch dialect {
	case db.DIALECT_POSTGRES:
		conn, err = db.NewPostgresDB(ctx, cfg.Database)
		if err == nil {
			if err = db.Migrate(ctx, conn, dialect); err != nil {
				conn.Close()
			}
		}
	default:
		conn, err = db.OpenSQLite(ctx, cfg.Database.DSN)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", dialect, err)
	}
	c.SQLDB = conn
	c.closers = append(c.closers, conn.Close)
	logger.Info("[Container] traffic store ready", zap.String("dialect", string(dialect)))

	c.TrafficLogDao = sqldao.NewSQLTrafficLogDAO(conn, dialect, logger)
	c.DailyMetaDao = sqldao.NewSQLDailyMetaDAO(conn, dialect, logger)
	c.ExecutionLogDao = sqldao.NewSQLExecutionLogDAO(conn, dialect, logger)

	// Redis
	if cfg.IsProd() {
		redisInternalClient := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisClient, err := db.NewGoRedisClient(ctx, redisInternalClient)
		if err != nil {
			redisInternalClient.Close()
			c.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.RedisClient = redisClient
		c.closers = append(c.closers, redisClient.Close)
	} else {
		logger.Info("[Container] using in-memory redis client")
		c.RedisClient = db.NewMockRedisClient()
	}
	c.RedisReportDao = redis.NewRedisReportDAO(c.RedisClient, logger)

	// Braze data series
	if cfg.IsProd() {
		logger.Info("[Container] using prod braze api")
		httpClient := api.NewHTTPClient(cfg.Braze.BaseURL).
			SetRateLimit(cfg.Braze.RequestsPerSecond, cfg.Braze.Burst).
			SetTimeout(cfg.Braze.Timeout)
		c.BrazeAPI = braze.NewBrazeApiClient(httpClient, cfg.Braze.APIKey)
	} else {
		logger.Info("[Container] using mock braze api")
		c.BrazeAPI = braze.NewBrazeApiClientMock(
			config.GetResourcePath(config.DATA_SERIES_CURVE_RESOURCE),
			func() time.Time { return time.Now().In(loc) },
		)
	}

	sink, err := newNotificationSink(ctx, cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.NotificationSink = sink

	// Services
	c.ReportService = services.NewReportService(
		c.TrafficLogDao, c.DailyMetaDao, table, bucketWindow, loc, cfg.Report.QueryTimeout, logger)

	c.ReportDispatcher = services.NewReportDispatcher(c.ReportService, c.NotificationSink, c.RedisReportDao,
		services.DispatcherOptions{
			TemplateID:      cfg.Report.TemplateID,
			SubjectPrefix:   cfg.Report.SubjectPrefix,
			DispatchTimeout: cfg.Report.DispatchTimeout,
			DedupeTTL:       cfg.Report.DispatchDedupeTTL,
			LastReportTTL:   cfg.Report.LastReportTTL,
			QueueSize:       cfg.Report.QueueSize,
		}, logger)

	c.TrafficCollectorService = services.NewTrafficCollectorService(
		c.BrazeAPI, c.TrafficLogDao, c.ExecutionLogDao, c.ReportDispatcher,
		table, bucketWindow, cfg.Braze.EventID, loc, logger)

	// HTTP
	c.ReportHandler = handlers.NewReportHandler(
		c.ReportService, c.ReportDispatcher, c.ExecutionLogDao, c.RedisReportDao, loc, logger)
	c.DailyMetaHandler = handlers.NewDailyMetaHandler(c.DailyMetaDao, logger)
	c.MuxRouter = mux.NewRouter()
	c.Router = server.NewRouter(c.ReportHandler, c.DailyMetaHandler, c.MuxRouter)
	c.TrafficHttpServer = server.NewTrafficHttpServer(c.Router, c.MuxRouter, cfg.Server, logger)

	return c, nil
}

// newNotificationSink always logs reports and adds email and WhatsApp
// delivery when enabled.
func newNotificationSink(ctx context.Context, cfg *config.Config, logger *zap.Logger) (notifier.Sink, error) {
	sinks := []notifier.Sink{notifier.NewLogSink(logger)}
	renderer := notifier.NewTemplateRenderer(filepath.Join(config.BaseDir(), config.RESOURCES_PATH_PREFIX, config.TEMPLATES_RESOURCE_DIR))

	if cfg.Email.Enabled {
		sesClient, err := notifier.NewSESClient(ctx, cfg.Email.Region, cfg.Email.AccessKey, cfg.Email.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("email sink: %w", err)
		}
		sinks = append(sinks, notifier.NewEmailSink(sesClient, renderer, cfg.Email.From, cfg.Email.Recipients, logger))
		logger.Info("[Container] email notifications enabled", zap.Int("recipients", len(cfg.Email.Recipients)))
	}

	if cfg.WhatsApp.Enabled {
		client := wasender.NewWASenderApiClient(api.NewHTTPClient(cfg.WhatsApp.BaseURL), cfg.WhatsApp.APIKey)
		sinks = append(sinks, notifier.NewWhatsAppSink(client, renderer, cfg.WhatsApp.Recipients, logger))
		logger.Info("[Container] whatsapp notifications enabled", zap.Int("recipients", len(cfg.WhatsApp.Recipients)))
	}

	return notifier.NewMultiSink(sinks...), nil
}

// Close releases the database pool and the redis connection.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
