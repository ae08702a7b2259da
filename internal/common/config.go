package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
	Reports     ReportsConfig `toml:"reports"`
	Mail        MailConfig    `toml:"mail"`
	Auth        AuthConfig    `toml:"auth"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// ReportsConfig controls the export pipeline and dataset sizing
type ReportsConfig struct {
	QueueDelay       string  `toml:"queue_delay"`        // Wait before a submitted job enters processing (default: "5s")
	TickInterval     string  `toml:"tick_interval"`      // Spacing between progress stages (default: "2s")
	FaultRate        float64 `toml:"fault_rate"`         // Probability a run fails mid-flight (default: 0.2)
	StuckThreshold   string  `toml:"stuck_threshold"`    // Processing age before a job counts as stuck (default: "2m")
	RecoveryInterval string  `toml:"recovery_interval"`  // Periodic stuck-job sweep spacing; empty disables the sweep
	ExportMaxRows    int     `toml:"export_max_rows"`    // Row cap for download/preview materialization
	SeedTransactions int     `toml:"seed_transactions"`  // Transactions seeded on first start when the store is empty
	ThrottleInterval string  `toml:"throttle_interval"`  // Minimum spacing for progress pushes over websocket
	ProgressTopic    bool    `toml:"progress_broadcast"` // Broadcast progress events to subscribed clients
}

// MailConfig contains SMTP settings for job completion notices
type MailConfig struct {
	Enabled  bool   `toml:"enabled"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
	UseTLS   bool   `toml:"use_tls"`  // Implicit TLS (port 465 style)
	StartTLS bool   `toml:"starttls"` // STARTTLS upgrade (port 587 style)
}

// AuthConfig contains session settings
type AuthConfig struct {
	SessionTTL string `toml:"session_ttl"` // Session lifetime (default: "24h")
	CookieName string `toml:"cookie_name"` // Session cookie name
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data",
				ResetOnStartup: false,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Reports: ReportsConfig{
			QueueDelay:       "5s",
			TickInterval:     "2s",
			FaultRate:        0.2,
			StuckThreshold:   "2m",
			RecoveryInterval: "60s",
			ExportMaxRows:    10000,
			SeedTransactions: 10000,
			ThrottleInterval: "250ms",
			ProgressTopic:    true,
		},
		Mail: MailConfig{
			Enabled: false,
			Host:    "localhost",
			Port:    1025,
			From:    "reports@refero.local",
		},
		Auth: AuthConfig{
			SessionTTL: "24h",
			CookieName: "refero_sid",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("REFERO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("REFERO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("REFERO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("REFERO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("REFERO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("REFERO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if delay := os.Getenv("REFERO_QUEUE_DELAY"); delay != "" {
		config.Reports.QueueDelay = delay
	}
	if tick := os.Getenv("REFERO_TICK_INTERVAL"); tick != "" {
		config.Reports.TickInterval = tick
	}
	if rate := os.Getenv("REFERO_FAULT_RATE"); rate != "" {
		if f, err := strconv.ParseFloat(rate, 64); err == nil {
			config.Reports.FaultRate = f
		}
	}
	if threshold := os.Getenv("REFERO_STUCK_THRESHOLD"); threshold != "" {
		config.Reports.StuckThreshold = threshold
	}
	if seed := os.Getenv("REFERO_SEED_TRANSACTIONS"); seed != "" {
		if n, err := strconv.Atoi(seed); err == nil {
			config.Reports.SeedTransactions = n
		}
	}

	if host := os.Getenv("REFERO_SMTP_HOST"); host != "" {
		config.Mail.Host = host
		config.Mail.Enabled = true
	}
	if port := os.Getenv("REFERO_SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Mail.Port = p
		}
	}
	if user := os.Getenv("REFERO_SMTP_USERNAME"); user != "" {
		config.Mail.Username = user
	}
	if pass := os.Getenv("REFERO_SMTP_PASSWORD"); pass != "" {
		config.Mail.Password = pass
	}
	if from := os.Getenv("REFERO_SMTP_FROM"); from != "" {
		config.Mail.From = from
	}
}

// ApplyFlagOverrides applies CLI flag values to config (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// QueueDelayDuration returns the parsed queue delay, falling back to 5s
func (c *Config) QueueDelayDuration() time.Duration {
	return parseDurationOr(c.Reports.QueueDelay, 5*time.Second)
}

// TickIntervalDuration returns the parsed stage spacing, falling back to 2s
func (c *Config) TickIntervalDuration() time.Duration {
	return parseDurationOr(c.Reports.TickInterval, 2*time.Second)
}

// StuckThresholdDuration returns the parsed stuck-job threshold, falling back to 2m
func (c *Config) StuckThresholdDuration() time.Duration {
	return parseDurationOr(c.Reports.StuckThreshold, 2*time.Minute)
}

// RecoveryIntervalDuration returns the parsed sweep interval; zero disables the sweep
func (c *Config) RecoveryIntervalDuration() time.Duration {
	if c.Reports.RecoveryInterval == "" {
		return 0
	}
	return parseDurationOr(c.Reports.RecoveryInterval, 0)
}

// SessionTTLDuration returns the parsed session lifetime, falling back to 24h
func (c *Config) SessionTTLDuration() time.Duration {
	return parseDurationOr(c.Auth.SessionTTL, 24*time.Hour)
}

// ThrottleIntervalDuration returns the parsed websocket progress spacing; zero disables throttling
func (c *Config) ThrottleIntervalDuration() time.Duration {
	if c.Reports.ThrottleInterval == "" {
		return 0
	}
	return parseDurationOr(c.Reports.ThrottleInterval, 0)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
