// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Database types
const (
	SQLiteDatabase = "sqlite"
)

const defaultPrivateKey = "88888888888888888888888888888888"

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	PrivateKey  string   `mapstructure:"privatekey"`

	// File paths
	DatabasePath          string `mapstructure:"storagepath"`
	DatabaseName          string `mapstructure:"-"` // Derived from other settings
	PublicDirectory       string `mapstructure:"publicdir"`
	PublicAssetsUrlPrefix string `mapstructure:"publicassetsurlprefix"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseType         string `mapstructure:"dbtype"`
	DatabaseMaxOpenConns int    `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int    `mapstructure:"dbmaxidleconns"`

	// Report settings
	ReportCacheTTLSeconds     int `mapstructure:"reportcachettlseconds"`
	QueryTimeoutSeconds       int `mapstructure:"querytimeoutseconds"`
	CustomerValueRowLimit     int `mapstructure:"customervaluerowlimit"`
	DashboardRowLimit         int `mapstructure:"dashboardrowlimit"`
	PurchaseFrequencyRowLimit int `mapstructure:"purchasefrequencyrowlimit"`
	LoaderConcurrency         int `mapstructure:"loaderconcurrency"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		v.SetDefault("appname", "salesboard")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("privatekey", defaultPrivateKey)
		v.SetDefault("storagepath", "storage")
		v.SetDefault("publicdir", "public")
		v.SetDefault("publicassetsurlprefix", "/")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbtype", SQLiteDatabase)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("reportcachettlseconds", 300)
		v.SetDefault("querytimeoutseconds", 30)
		v.SetDefault("customervaluerowlimit", 15000)
		v.SetDefault("dashboardrowlimit", 10000)
		v.SetDefault("purchasefrequencyrowlimit", 10000)
		v.SetDefault("loaderconcurrency", 3)

		v.BindEnv("appname", "SALESBOARD_APP_NAME")
		v.BindEnv("appport", "SALESBOARD_APP_PORT")
		v.BindEnv("environment", "SALESBOARD_ENV")
		v.BindEnv("loglevel", "SALESBOARD_LOG_LEVEL")
		v.BindEnv("privatekey", "SALESBOARD_PRIVATE_KEY")
		v.BindEnv("storagepath", "SALESBOARD_STORAGE_PATH")
		v.BindEnv("publicdir", "SALESBOARD_PUBLIC_DIR")
		v.BindEnv("publicassetsurlprefix", "SALESBOARD_PUBLIC_ASSETS_URL_PREFIX")
		v.BindEnv("logsdir", "SALESBOARD_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "SALESBOARD_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "SALESBOARD_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "SALESBOARD_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbtype", "SALESBOARD_DB_TYPE")
		v.BindEnv("dbmaxopenconns", "SALESBOARD_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "SALESBOARD_DB_MAX_IDLE_CONNS")
		v.BindEnv("reportcachettlseconds", "SALESBOARD_REPORT_CACHE_TTL_SECONDS")
		v.BindEnv("querytimeoutseconds", "SALESBOARD_QUERY_TIMEOUT_SECONDS")
		v.BindEnv("customervaluerowlimit", "SALESBOARD_CUSTOMER_VALUE_ROW_LIMIT")
		v.BindEnv("dashboardrowlimit", "SALESBOARD_DASHBOARD_ROW_LIMIT")
		v.BindEnv("purchasefrequencyrowlimit", "SALESBOARD_PURCHASE_FREQUENCY_ROW_LIMIT")
		v.BindEnv("loaderconcurrency", "SALESBOARD_LOADER_CONCURRENCY")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		// Set derived values
		cfg.DatabaseName = cfg.GetDatabasePath()
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	validDBTypes := map[string]bool{
		SQLiteDatabase: true,
	}
	if !validDBTypes[c.DatabaseType] {
		return fmt.Errorf("invalid database type: %s", c.DatabaseType)
	}

	if c.PrivateKey == "" {
		return fmt.Errorf("private key is required")
	}
	if c.IsProduction() && c.PrivateKey == defaultPrivateKey {
		return fmt.Errorf("production requires a unique SALESBOARD_PRIVATE_KEY (cannot use default)")
	}

	for name, n := range map[string]int{
		"report cache ttl":             c.ReportCacheTTLSeconds,
		"query timeout":                c.QueryTimeoutSeconds,
		"customer value row limit":     c.CustomerValueRowLimit,
		"dashboard row limit":          c.DashboardRowLimit,
		"purchase frequency row limit": c.PurchaseFrequencyRowLimit,
	} {
		if n < 0 {
			return fmt.Errorf("invalid %s: %d", name, n)
		}
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetPort returns the HTTP server port (implements cartridge.Config interface).
func (c *Config) GetPort() string {
	return c.AppPort
}

// GetPublicDirectory returns the path to public/static assets (implements cartridge.Config interface).
func (c *Config) GetPublicDirectory() string {
	return c.PublicDirectory
}

// GetAssetsPrefix returns the URL prefix for static assets (implements cartridge.Config interface).
func (c *Config) GetAssetsPrefix() string {
	return c.PublicAssetsUrlPrefix
}

// GetAppName returns the application name (implements cartridge.FactoryConfig interface).
func (c *Config) GetAppName() string {
	return c.AppName
}

// DatabaseDSN returns the database connection string (implements cartridge.FactoryConfig interface).
func (c *Config) DatabaseDSN() string {
	return c.GetDatabasePath()
}

// GetSessionSecret returns the session encryption key (implements cartridge.FactoryConfig interface).
func (c *Config) GetSessionSecret() string {
	return c.PrivateKey
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1
// - Development/Production: 10 (report loaders read concurrently)
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}

	return 5
}

// GetLogLevel returns the log level as a string (implements cartridge.LogConfigProvider).
func (c *Config) GetLogLevel() string {
	return string(c.LogLevel)
}

// GetLogDirectory returns the logs directory (implements cartridge.LogConfigProvider).
func (c *Config) GetLogDirectory() string {
	return c.LogsDirectory
}

// GetLogMaxSizeMB returns the max log file size in MB (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxSizeMB() int {
	return c.LogsMaxSizeInMb
}

// GetLogMaxBackups returns the max number of log backups (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxBackups() int {
	return c.LogsMaxBackups
}

// GetLogMaxAgeDays returns the max age in days for log files (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxAgeDays() int {
	return c.LogsMaxAgeInDays
}

// ReportCacheTTL is how long a serialized report is served from memory.
func (c *Config) ReportCacheTTL() time.Duration {
	return time.Duration(c.ReportCacheTTLSeconds) * time.Second
}

// QueryTimeout bounds a single report's warehouse reads.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
