package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Record source kinds
const (
	SourceCSV      = "csv"
	SourceXLSX     = "xlsx"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

// EnvConfigPath names the variable holding the YAML config path
const EnvConfigPath = "DASHBOARD_CONFIG"

var tablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Config is the full application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Source    SourceConfig    `yaml:"source"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SourceConfig selects and locates the record source. Locations are explicit;
// nothing is searched for.
type SourceConfig struct {
	Kind         string         `yaml:"kind"`
	HourlyPath   string         `yaml:"hourly_path"`
	DailyPath    string         `yaml:"daily_path"`
	WorkbookPath string         `yaml:"workbook_path"`
	HourlySheet  string         `yaml:"hourly_sheet"`
	DailySheet   string         `yaml:"daily_sheet"`
	HourlyTable  string         `yaml:"hourly_table"`
	DailyTable   string         `yaml:"daily_table"`
	Database     DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds connection settings for the SQL sources
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	Path            string        `yaml:"path"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// DashboardConfig holds presentation settings
type DashboardConfig struct {
	Locale     string `yaml:"locale"`
	SampleSize int    `yaml:"sample_size"`
	SampleSeed int64  `yaml:"sample_seed"`
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Source: SourceConfig{
			Kind:        SourceCSV,
			HourlyPath:  "data/hourly_cleaned.csv",
			DailyPath:   "data/daily_cleaned.csv",
			HourlySheet: "hourly",
			DailySheet:  "daily",
			HourlyTable: "hourly_rentals",
			DailyTable:  "daily_rentals",
			Database: DatabaseConfig{
				Host:            "localhost",
				Port:            5432,
				User:            "postgres",
				Database:        "bikeshare",
				SSLMode:         "disable",
				MaxOpenConns:    5,
				MaxIdleConns:    2,
				ConnMaxLifetime: 5 * time.Minute,
				ConnMaxIdleTime: time.Minute,
			},
		},
		Dashboard: DashboardConfig{
			Locale:     "id",
			SampleSize: 5000,
			SampleSeed: 42,
		},
	}
}

// LoadConfig builds the configuration: .env, defaults, the YAML file at path
// (or $DASHBOARD_CONFIG when path is empty), then DASHBOARD_* overrides.
func LoadConfig(path string) (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	var result *multierror.Error

	setString := func(key string, dest *string) {
		if v, ok := lookup(key); ok {
			*dest = v
		}
	}
	setInt := func(key string, dest *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dest = n
		}
	}
	setInt64 := func(key string, dest *int64) {
		if v, ok := lookup(key); ok {
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dest = n
		}
	}
	setDuration := func(key string, dest *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dest = d
		}
	}

	setString("DASHBOARD_SERVER_HOST", &c.Server.Host)
	setInt("DASHBOARD_SERVER_PORT", &c.Server.Port)
	setDuration("DASHBOARD_SERVER_READ_TIMEOUT", &c.Server.ReadTimeout)
	setDuration("DASHBOARD_SERVER_WRITE_TIMEOUT", &c.Server.WriteTimeout)
	setDuration("DASHBOARD_SERVER_IDLE_TIMEOUT", &c.Server.IdleTimeout)
	setDuration("DASHBOARD_SERVER_SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)

	setString("DASHBOARD_LOG_LEVEL", &c.Logging.Level)

	setString("DASHBOARD_SOURCE_KIND", &c.Source.Kind)
	setString("DASHBOARD_SOURCE_HOURLY_PATH", &c.Source.HourlyPath)
	setString("DASHBOARD_SOURCE_DAILY_PATH", &c.Source.DailyPath)
	setString("DASHBOARD_SOURCE_WORKBOOK_PATH", &c.Source.WorkbookPath)
	setString("DASHBOARD_SOURCE_HOURLY_SHEET", &c.Source.HourlySheet)
	setString("DASHBOARD_SOURCE_DAILY_SHEET", &c.Source.DailySheet)
	setString("DASHBOARD_SOURCE_HOURLY_TABLE", &c.Source.HourlyTable)
	setString("DASHBOARD_SOURCE_DAILY_TABLE", &c.Source.DailyTable)

	setString("DASHBOARD_DB_HOST", &c.Source.Database.Host)
	setInt("DASHBOARD_DB_PORT", &c.Source.Database.Port)
	setString("DASHBOARD_DB_USER", &c.Source.Database.User)
	setString("DASHBOARD_DB_PASSWORD", &c.Source.Database.Password)
	setString("DASHBOARD_DB_NAME", &c.Source.Database.Database)
	setString("DASHBOARD_DB_SSLMODE", &c.Source.Database.SSLMode)
	setString("DASHBOARD_DB_PATH", &c.Source.Database.Path)

	setString("DASHBOARD_LOCALE", &c.Dashboard.Locale)
	setInt("DASHBOARD_SAMPLE_SIZE", &c.Dashboard.SampleSize)
	setInt64("DASHBOARD_SAMPLE_SEED", &c.Dashboard.SampleSeed)

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("invalid environment override: %w", err)
	}
	return nil
}

// Validate reports every configuration problem at once
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	switch c.Source.Kind {
	case SourceCSV:
		if c.Source.HourlyPath == "" || c.Source.DailyPath == "" {
			result = multierror.Append(result, fmt.Errorf("source.hourly_path and source.daily_path are required for csv sources"))
		}
	case SourceXLSX:
		if c.Source.WorkbookPath == "" {
			result = multierror.Append(result, fmt.Errorf("source.workbook_path is required for xlsx sources"))
		}
		if c.Source.HourlySheet == "" || c.Source.DailySheet == "" {
			result = multierror.Append(result, fmt.Errorf("source.hourly_sheet and source.daily_sheet are required for xlsx sources"))
		}
	case SourcePostgres, SourceSQLite:
		for _, table := range []string{c.Source.HourlyTable, c.Source.DailyTable} {
			if !tablePattern.MatchString(table) {
				result = multierror.Append(result, fmt.Errorf("table name %q is not a plain identifier", table))
			}
		}
		if c.Source.Kind == SourceSQLite && c.Source.Database.Path == "" {
			result = multierror.Append(result, fmt.Errorf("source.database.path is required for sqlite sources"))
		}
		if c.Source.Kind == SourcePostgres && c.Source.Database.Host == "" {
			result = multierror.Append(result, fmt.Errorf("source.database.host is required for postgres sources"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("source.kind %q is not one of csv, xlsx, postgres, sqlite", c.Source.Kind))
	}

	switch c.Dashboard.Locale {
	case "id", "en":
	default:
		result = multierror.Append(result, fmt.Errorf("dashboard.locale %q is not one of id, en", c.Dashboard.Locale))
	}
	if c.Dashboard.SampleSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("dashboard.sample_size must be positive"))
	}

	return result.ErrorOrNil()
}
