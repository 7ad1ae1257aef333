package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv(EnvConfigPath, "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, SourceCSV, cfg.Source.Kind)
	assert.Equal(t, "id", cfg.Dashboard.Locale)
	assert.Equal(t, 5000, cfg.Dashboard.SampleSize)
	assert.Equal(t, int64(42), cfg.Dashboard.SampleSeed)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dashboard.yaml")
	yamlContent := `
server:
  port: 9090
  read_timeout: 5s
logging:
  level: debug
source:
  kind: sqlite
  hourly_table: hour
  daily_table: day
  database:
    path: /tmp/bikes.db
dashboard:
  locale: en
  sample_size: 100
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	t.Setenv("DASHBOARD_SERVER_PORT", "9191")
	t.Setenv("DASHBOARD_SAMPLE_SEED", "7")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port, "env overrides yaml")
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, SourceSQLite, cfg.Source.Kind)
	assert.Equal(t, "hour", cfg.Source.HourlyTable)
	assert.Equal(t, "/tmp/bikes.db", cfg.Source.Database.Path)
	assert.Equal(t, "en", cfg.Dashboard.Locale)
	assert.Equal(t, 100, cfg.Dashboard.SampleSize)
	assert.Equal(t, int64(7), cfg.Dashboard.SampleSeed)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_PathFromEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dashboard:\n  locale: en\n"), 0o644))
	t.Setenv(EnvConfigPath, path)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.Dashboard.Locale)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o644))
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("bad env values", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")
		t.Setenv("DASHBOARD_SERVER_PORT", "eighty")
		t.Setenv("DASHBOARD_SERVER_IDLE_TIMEOUT", "forever")
		_, err := LoadConfig("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DASHBOARD_SERVER_PORT")
		assert.Contains(t, err.Error(), "DASHBOARD_SERVER_IDLE_TIMEOUT")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr []string
	}{
		{
			name:   "default is valid",
			mutate: func(c *Config) {},
		},
		{
			name: "unknown source kind",
			mutate: func(c *Config) {
				c.Source.Kind = "parquet"
			},
			wantErr: []string{"source.kind"},
		},
		{
			name: "xlsx without workbook",
			mutate: func(c *Config) {
				c.Source.Kind = SourceXLSX
			},
			wantErr: []string{"workbook_path"},
		},
		{
			name: "sql table injection",
			mutate: func(c *Config) {
				c.Source.Kind = SourcePostgres
				c.Source.HourlyTable = "hourly; DROP TABLE x"
			},
			wantErr: []string{"not a plain identifier"},
		},
		{
			name: "schema qualified table",
			mutate: func(c *Config) {
				c.Source.Kind = SourcePostgres
				c.Source.HourlyTable = "public.hourly"
			},
		},
		{
			name: "several problems reported together",
			mutate: func(c *Config) {
				c.Server.Port = 0
				c.Logging.Level = "loud"
				c.Dashboard.Locale = "fr"
				c.Dashboard.SampleSize = 0
			},
			wantErr: []string{"server.port", "logging.level", "dashboard.locale", "sample_size"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}
