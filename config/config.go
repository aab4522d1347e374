package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"traffic-reporter/schedule"
)

const ENV_PREFIX = "TRAFFIC_"
const CONFIG_FILE_ENV = "TRAFFIC_CONFIG_FILE"
const DEFAULT_CONFIG_FILE = "configs/config.yaml"

// Resources file paths
const RESOURCES_PATH_PREFIX = "resources"
const TEMPLATES_RESOURCE_DIR = "templates"
const DATA_SERIES_CURVE_RESOURCE = "data_series_curve.json"

type Config struct {
	Env       string          `koanf:"env"`
	Log       LogConfig       `koanf:"log"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Report    ReportConfig    `koanf:"report"`
	Schedule  []ScheduleEntry `koanf:"schedule"`
	Braze     BrazeConfig     `koanf:"braze"`
	WhatsApp  WhatsAppConfig  `koanf:"whatsapp"`
	Email     EmailConfig     `koanf:"email"`
	Collector CollectorConfig `koanf:"collector"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `koanf:"driver"`
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type ReportConfig struct {
	StartWindow       int           `koanf:"start_window"`
	EndWindow         int           `koanf:"end_window"`
	Timezone          string        `koanf:"timezone"`
	TemplateID        string        `koanf:"template_id"`
	SubjectPrefix     string        `koanf:"subject_prefix"`
	QueryTimeout      time.Duration `koanf:"query_timeout"`
	DispatchTimeout   time.Duration `koanf:"dispatch_timeout"`
	DispatchDedupeTTL time.Duration `koanf:"dispatch_dedupe_ttl"`
	LastReportTTL     time.Duration `koanf:"last_report_ttl"`
	QueueSize         int           `koanf:"queue_size"`
}

// ScheduleEntry is one row of the operating schedule table.
type ScheduleEntry struct {
	Weekday         int  `koanf:"weekday"`
	StartHour       int  `koanf:"start_hour"`
	EndHour         int  `koanf:"end_hour"`
	CrossesMidnight bool `koanf:"crosses_midnight"`
}

type BrazeConfig struct {
	BaseURL           string        `koanf:"base_url"`
	APIKey            string        `koanf:"api_key"`
	EventID           string        `koanf:"event_id"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	Timeout           time.Duration `koanf:"timeout"`
}

type WhatsAppConfig struct {
	Enabled    bool     `koanf:"enabled"`
	BaseURL    string   `koanf:"base_url"`
	APIKey     string   `koanf:"api_key"`
	Recipients []string `koanf:"recipients"`
}

type EmailConfig struct {
	Enabled    bool     `koanf:"enabled"`
	Region     string   `koanf:"region"`
	AccessKey  string   `koanf:"access_key"`
	SecretKey  string   `koanf:"secret_key"`
	From       string   `koanf:"from"`
	Recipients []string `koanf:"recipients"`
}

type CollectorConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() *Config {
	table := schedule.DefaultTable()
	entries := make([]ScheduleEntry, 0, len(table))
	for wd := 1; wd <= 7; wd++ {
		w := table[wd]
		entries = append(entries, ScheduleEntry{
			Weekday: wd, StartHour: w.StartHour, EndHour: w.EndHour, CrossesMidnight: w.CrossesMidnight,
		})
	}

	return &Config{
		Env: "dev",
		Log: LogConfig{Level: "info", Format: "json"},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "traffic.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{Addr: "redis:6379"},
		Report: ReportConfig{
			StartWindow:       schedule.DEFAULT_START_WINDOW,
			EndWindow:         schedule.DEFAULT_END_WINDOW,
			Timezone:          "America/Guayaquil",
			TemplateID:        "hourly_variation",
			QueryTimeout:      10 * time.Second,
			DispatchTimeout:   30 * time.Second,
			DispatchDedupeTTL: 2 * time.Hour,
			LastReportTTL:     8 * 24 * time.Hour,
			QueueSize:         16,
		},
		Schedule: entries,
		Braze: BrazeConfig{
			BaseURL:           "https://rest.iad-01.braze.com",
			RequestsPerSecond: 1,
			Burst:             2,
			Timeout:           10 * time.Second,
		},
		WhatsApp: WhatsAppConfig{BaseURL: "https://www.wasenderapi.com/api"},
		Email:    EmailConfig{Region: "us-east-1"},
		Collector: CollectorConfig{
			Enabled:  true,
			Interval: time.Hour,
		},
	}
}

// envKey maps TRAFFIC_SERVER_READ_TIMEOUT to server.read_timeout: the first
// segment names the section, the rest is the field.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, ENV_PREFIX))
	return strings.Replace(s, "_", ".", 1)
}

// Load layers struct defaults, the optional YAML file at path and TRAFFIC_*
// environment variables, then validates the result. An empty path falls back
// to $TRAFFIC_CONFIG_FILE and then configs/config.yaml.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	explicit := path != ""
	if path == "" {
		path = os.Getenv(CONFIG_FILE_ENV)
		explicit = path != ""
	}
	if path == "" {
		path = DEFAULT_CONFIG_FILE
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(ENV_PREFIX, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that would otherwise fail deep inside a report.
func (c *Config) Validate() error {
	if _, err := c.ScheduleTable(); err != nil {
		return err
	}
	if err := c.Report.BucketWindow().Validate(); err != nil {
		return err
	}
	if _, err := c.Report.Location(); err != nil {
		return err
	}
	switch c.Database.Driver {
	case "postgres", "postgresql", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("config: unsupported database.driver %q", c.Database.Driver)
	}
	if c.Collector.Enabled && c.Collector.Interval <= 0 {
		return fmt.Errorf("config: collector.interval must be positive, got %s", c.Collector.Interval)
	}
	return nil
}

// IsProd reports whether real external clients should be used.
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

// ScheduleTable converts the configured rows into a validated schedule table.
func (c *Config) ScheduleTable() (schedule.Table, error) {
	table := schedule.Table{}
	for _, e := range c.Schedule {
		if e.Weekday < 1 || e.Weekday > 7 {
			return nil, fmt.Errorf("config: schedule weekday %d outside 1..7", e.Weekday)
		}
		if _, dup := table[e.Weekday]; dup {
			return nil, fmt.Errorf("config: schedule weekday %d listed twice", e.Weekday)
		}
		table[e.Weekday] = schedule.Window{StartHour: e.StartHour, EndHour: e.EndHour, CrossesMidnight: e.CrossesMidnight}
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return table, nil
}

func (r ReportConfig) BucketWindow() schedule.BucketWindow {
	return schedule.BucketWindow{StartWindow: r.StartWindow, EndWindow: r.EndWindow}
}

// Location resolves the report timezone. Empty means UTC.
func (r ReportConfig) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: report.timezone: %w", err)
	}
	return loc, nil
}

// BaseDir returns the absolute path of the project root directory
func BaseDir() string {
	// Check if PROJECT_ROOT is set
	if root := os.Getenv("PROJECT_ROOT"); root != "" {
		return root
	}

	// Default to the current working directory
	wd, err := os.Getwd()
	if err != nil {
		panic("Unable to determine working directory: " + err.Error())
	}

	return wd
}

func GetResourcePath(resourceFile string) string {
	return filepath.Join(BaseDir(), RESOURCES_PATH_PREFIX, resourceFile)
}
