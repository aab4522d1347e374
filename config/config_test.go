package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.False(t, cfg.IsProd())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 57, cfg.Report.StartWindow)
	assert.Equal(t, 12, cfg.Report.EndWindow)
	assert.Equal(t, time.Hour, cfg.Collector.Interval)
	require.Len(t, cfg.Schedule, 7)

	table, err := cfg.ScheduleTable()
	require.NoError(t, err)
	assert.True(t, table.SpansMidnight(5))
	assert.Equal(t, 2, table.Window(5).EndHour)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfigFile(t, `
env: prod
server:
  port: 9000
  read_timeout: 5s
report:
  subject_prefix: "[Stores]"
  timezone: UTC
schedule:
  - {weekday: 1, start_hour: 10, end_hour: 22}
  - {weekday: 2, start_hour: 9, end_hour: 23}
  - {weekday: 3, start_hour: 9, end_hour: 0, crosses_midnight: true}
  - {weekday: 4, start_hour: 9, end_hour: 1, crosses_midnight: true}
  - {weekday: 5, start_hour: 8, end_hour: 2, crosses_midnight: true}
  - {weekday: 6, start_hour: 8, end_hour: 2, crosses_midnight: true}
  - {weekday: 7, start_hour: 8, end_hour: 22}
whatsapp:
  recipients: ["593900000001"]
`)
	t.Setenv("TRAFFIC_SERVER_PORT", "9100")
	t.Setenv("TRAFFIC_REDIS_ADDR", "localhost:6380")
	t.Setenv("TRAFFIC_REPORT_DISPATCH_TIMEOUT", "45s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
	assert.Equal(t, 45*time.Second, cfg.Report.DispatchTimeout)
	assert.Equal(t, "[Stores]", cfg.Report.SubjectPrefix)
	assert.Equal(t, []string{"593900000001"}, cfg.WhatsApp.Recipients)

	table, err := cfg.ScheduleTable()
	require.NoError(t, err)
	assert.Equal(t, 10, table.Window(1).StartHour)

	loc, err := cfg.Report.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"contradictory schedule", `
schedule:
  - {weekday: 1, start_hour: 22, end_hour: 2, crosses_midnight: false}
`},
		{"bad bucket window", `
report:
  start_window: 10
  end_window: 20
`},
		{"unknown driver", `
database:
  driver: mysql
`},
		{"bad timezone", `
report:
  timezone: Mars/Olympus
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfigFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "env", envKey("TRAFFIC_ENV"))
	assert.Equal(t, "redis.addr", envKey("TRAFFIC_REDIS_ADDR"))
	assert.Equal(t, "server.shutdown_timeout", envKey("TRAFFIC_SERVER_SHUTDOWN_TIMEOUT"))
}

func TestGetResourcePath(t *testing.T) {
	t.Setenv("PROJECT_ROOT", "/srv/app")
	assert.Equal(t, "/srv/app/resources/templates", GetResourcePath(TEMPLATES_RESOURCE_DIR))
}
