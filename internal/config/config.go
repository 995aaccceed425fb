package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Data source kinds
const (
	SourceFile       = "file"
	SourceClickHouse = "clickhouse"
	SourceSSH        = "ssh"
)

type Config struct {
	App        AppConfig
	Data       DataConfig
	ClickHouse ClickHouseConfig
	SSH        SSHConfig
	GeoIP      GeoIPConfig
	Auth       AuthConfig
	HTTP       HTTPConfig
	Dashboard  DashboardConfig
}

type AppConfig struct {
	Env  string
	Port int
	Host string
}

type DataConfig struct {
	Source       string
	Dir          string
	MaxRangeDays int
}

type ClickHouseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type SSHConfig struct {
	Host    string
	Port    int
	User    string
	KeyPath string
	DataDir string
	Timeout time.Duration
}

type GeoIPConfig struct {
	Enabled       bool
	APIURL        string
	Timeout       time.Duration
	CacheTTL      time.Duration
	CacheSize     int
	RatePerMinute int
	StaticFile    string
	MapPrivate    bool
	Persist       bool
}

type AuthConfig struct {
	Username     string
	PasswordHash string
}

// Enabled reports whether basic auth protects the API
func (a AuthConfig) Enabled() bool {
	return a.PasswordHash != ""
}

type HTTPConfig struct {
	RateLimitPerMinute int
	CORSAllowedOrigins []string
}

type DashboardConfig struct {
	APIURL    string
	Username  string
	Password  string
	Timeout   time.Duration
	LogFile   string
	NoticeTTL time.Duration
}

// Load reads configuration from .env, config.yaml and the environment
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration through v, so callers can bind flags to the same instance
func LoadFrom(v *viper.Viper) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Error reading .env file", "error", err)
	}

	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/app")
		v.AddConfigPath("/etc/honeydash")
	}

	// Environment variables
	v.AutomaticEnv()
	bindEnvVars(v)
	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("Error reading config file", "error", err)
		}
	}

	config := &Config{
		App: AppConfig{
			Env:  v.GetString("APP_ENV"),
			Port: v.GetInt("APP_PORT"),
			Host: v.GetString("APP_HOST"),
		},
		Data: DataConfig{
			Source:       strings.ToLower(v.GetString("DATA_SOURCE")),
			Dir:          v.GetString("DATA_DIR"),
			MaxRangeDays: v.GetInt("DATA_MAX_RANGE_DAYS"),
		},
		ClickHouse: ClickHouseConfig{
			Host:     v.GetString("CLICKHOUSE_HOST"),
			Port:     v.GetInt("CLICKHOUSE_PORT"),
			User:     v.GetString("CLICKHOUSE_USER"),
			Password: v.GetString("CLICKHOUSE_PASSWORD"),
			Database: v.GetString("CLICKHOUSE_DATABASE"),
		},
		SSH: SSHConfig{
			Host:    v.GetString("SSH_HOST"),
			Port:    v.GetInt("SSH_PORT"),
			User:    v.GetString("SSH_USER"),
			KeyPath: v.GetString("SSH_KEY_PATH"),
			DataDir: v.GetString("SSH_DATA_DIR"),
			Timeout: v.GetDuration("SSH_TIMEOUT"),
		},
		GeoIP: GeoIPConfig{
			Enabled:       v.GetBool("GEOIP_ENABLED"),
			APIURL:        v.GetString("GEOIP_API_URL"),
			Timeout:       v.GetDuration("GEOIP_TIMEOUT"),
			CacheTTL:      v.GetDuration("GEOIP_CACHE_TTL"),
			CacheSize:     v.GetInt("GEOIP_CACHE_SIZE"),
			RatePerMinute: v.GetInt("GEOIP_RATE_PER_MINUTE"),
			StaticFile:    v.GetString("GEOIP_STATIC_FILE"),
			MapPrivate:    v.GetBool("GEOIP_MAP_PRIVATE"),
			Persist:       v.GetBool("GEOIP_PERSIST"),
		},
		Auth: AuthConfig{
			Username:     v.GetString("AUTH_USERNAME"),
			PasswordHash: v.GetString("AUTH_PASSWORD_HASH"),
		},
		HTTP: HTTPConfig{
			RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Dashboard: DashboardConfig{
			APIURL:    v.GetString("DASHBOARD_API_URL"),
			Username:  v.GetString("DASHBOARD_USERNAME"),
			Password:  v.GetString("DASHBOARD_PASSWORD"),
			Timeout:   v.GetDuration("DASHBOARD_TIMEOUT"),
			LogFile:   v.GetString("DASHBOARD_LOG_FILE"),
			NoticeTTL: v.GetDuration("DASHBOARD_NOTICE_TTL"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that would otherwise fail later at startup
func (c *Config) Validate() error {
	switch c.Data.Source {
	case SourceFile, SourceClickHouse, SourceSSH:
	default:
		return fmt.Errorf("invalid DATA_SOURCE %q (want file, clickhouse or ssh)", c.Data.Source)
	}
	if c.Data.MaxRangeDays < 0 {
		return fmt.Errorf("DATA_MAX_RANGE_DAYS must not be negative")
	}
	if c.Auth.Enabled() && c.Auth.Username == "" {
		return fmt.Errorf("AUTH_USERNAME is required when AUTH_PASSWORD_HASH is set")
	}
	return nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("APP_ENV")
	v.BindEnv("APP_PORT")
	v.BindEnv("APP_HOST")

	// Data
	v.BindEnv("DATA_SOURCE")
	v.BindEnv("DATA_DIR")
	v.BindEnv("DATA_MAX_RANGE_DAYS")

	// ClickHouse
	v.BindEnv("CLICKHOUSE_HOST")
	v.BindEnv("CLICKHOUSE_PORT")
	v.BindEnv("CLICKHOUSE_USER")
	v.BindEnv("CLICKHOUSE_PASSWORD")
	v.BindEnv("CLICKHOUSE_DATABASE")

	// Honeypot SSH
	v.BindEnv("SSH_HOST")
	v.BindEnv("SSH_PORT")
	v.BindEnv("SSH_USER")
	v.BindEnv("SSH_KEY_PATH")
	v.BindEnv("SSH_DATA_DIR")
	v.BindEnv("SSH_TIMEOUT")

	// GeoIP
	v.BindEnv("GEOIP_ENABLED")
	v.BindEnv("GEOIP_API_URL")
	v.BindEnv("GEOIP_TIMEOUT")
	v.BindEnv("GEOIP_CACHE_TTL")
	v.BindEnv("GEOIP_CACHE_SIZE")
	v.BindEnv("GEOIP_RATE_PER_MINUTE")
	v.BindEnv("GEOIP_STATIC_FILE")
	v.BindEnv("GEOIP_MAP_PRIVATE")
	v.BindEnv("GEOIP_PERSIST")

	// Auth
	v.BindEnv("AUTH_USERNAME")
	v.BindEnv("AUTH_PASSWORD_HASH")

	// HTTP
	v.BindEnv("RATE_LIMIT_PER_MINUTE")
	v.BindEnv("CORS_ALLOWED_ORIGINS")

	// Dashboard client
	v.BindEnv("DASHBOARD_API_URL")
	v.BindEnv("DASHBOARD_USERNAME")
	v.BindEnv("DASHBOARD_PASSWORD")
	v.BindEnv("DASHBOARD_TIMEOUT")
	v.BindEnv("DASHBOARD_LOG_FILE")
	v.BindEnv("DASHBOARD_NOTICE_TTL")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", 5000)
	v.SetDefault("APP_HOST", "0.0.0.0")

	// Data defaults
	v.SetDefault("DATA_SOURCE", SourceFile)
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("DATA_MAX_RANGE_DAYS", 366)

	// ClickHouse defaults
	v.SetDefault("CLICKHOUSE_HOST", "localhost")
	v.SetDefault("CLICKHOUSE_PORT", 9000)
	v.SetDefault("CLICKHOUSE_USER", "default")
	v.SetDefault("CLICKHOUSE_DATABASE", "honeypot")

	// Honeypot SSH defaults
	v.SetDefault("SSH_PORT", 22)
	v.SetDefault("SSH_USER", "cowrie")
	v.SetDefault("SSH_DATA_DIR", "data")
	v.SetDefault("SSH_TIMEOUT", 30*time.Second)

	// GeoIP defaults
	v.SetDefault("GEOIP_ENABLED", true)
	v.SetDefault("GEOIP_API_URL", "http://ip-api.com/json")
	v.SetDefault("GEOIP_TIMEOUT", 5*time.Second)
	v.SetDefault("GEOIP_CACHE_TTL", 24*time.Hour)
	v.SetDefault("GEOIP_CACHE_SIZE", 1000)
	v.SetDefault("GEOIP_RATE_PER_MINUTE", 45)
	v.SetDefault("GEOIP_MAP_PRIVATE", true)
	v.SetDefault("GEOIP_PERSIST", false)

	// HTTP defaults
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5000")

	// Dashboard client defaults
	v.SetDefault("DASHBOARD_API_URL", "http://localhost:5000")
	v.SetDefault("DASHBOARD_TIMEOUT", 0)
	v.SetDefault("DASHBOARD_LOG_FILE", "honeydash.log")
	v.SetDefault("DASHBOARD_NOTICE_TTL", 5*time.Second)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func SetupLogger(cfg *Config) *slog.Logger {
	return SetupLoggerTo(cfg, os.Stdout)
}

// SetupLoggerTo installs the default logger writing to w. The terminal
// dashboard passes its log file or io.Discard so output does not corrupt the screen.
func SetupLoggerTo(cfg *Config, w io.Writer) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if cfg.IsDevelopment() {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
