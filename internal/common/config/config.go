// Package config provides configuration management for kanboard.
// It supports loading configuration from environment variables, config files, and defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration sections for kanboard.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Board    BoardConfig    `mapstructure:"board"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"readTimeout"`  // in seconds
	WriteTimeout int    `mapstructure:"writeTimeout"` // in seconds
}

// DatabaseConfig holds task store configuration.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // sqlite, postgres, memory
	Path     string `mapstructure:"path"`   // sqlite file
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbName"`
	SSLMode  string `mapstructure:"sslMode"`
	MaxConns int    `mapstructure:"maxConns"`
	MinConns int    `mapstructure:"minConns"`
}

// NATSConfig holds NATS messaging configuration.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	ClientID      string `mapstructure:"clientId"`
	MaxReconnects int    `mapstructure:"maxReconnects"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"outputPath"`
}

// BoardConfig holds settings of the board client (boardctl and embedders).
type BoardConfig struct {
	APIBaseURL     string `mapstructure:"apiBaseUrl"`
	PageSize       int    `mapstructure:"pageSize"`
	DeleteDelayMs  int    `mapstructure:"deleteDelayMs"`
	RequestTimeout int    `mapstructure:"requestTimeout"` // in seconds
	IDStrategy     string `mapstructure:"idStrategy"`     // server, max_loaded, uuid
}

// SeedConfig points at an optional YAML fixture loaded into an empty store.
type SeedConfig struct {
	Path string `mapstructure:"path"`
}

// ReadTimeoutDuration returns the read timeout as a time.Duration.
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write timeout as a time.Duration.
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DeleteDelay returns the delete fade-out delay.
func (b *BoardConfig) DeleteDelay() time.Duration {
	return time.Duration(b.DeleteDelayMs) * time.Millisecond
}

// RequestTimeoutDuration returns the HTTP client timeout.
func (b *BoardConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(b.RequestTimeout) * time.Second
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func detectDefaultLogFormat() string {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "json"
	}
	if env := os.Getenv("KANBOARD_ENV"); env == "production" || env == "prod" {
		return "json"
	}
	return "text"
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./kanboard.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "kanboard")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbName", "kanboard")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxConns", 25)
	v.SetDefault("database.minConns", 5)

	// NATS defaults - empty URL means use in-memory event bus
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.clientId", "kanboard")
	v.SetDefault("nats.maxReconnects", 10)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", detectDefaultLogFormat())
	v.SetDefault("logging.outputPath", "stdout")

	// Board client defaults
	v.SetDefault("board.apiBaseUrl", "http://localhost:4000")
	v.SetDefault("board.pageSize", 10)
	v.SetDefault("board.deleteDelayMs", 300)
	v.SetDefault("board.requestTimeout", 30)
	v.SetDefault("board.idStrategy", "server")

	v.SetDefault("seed.path", "")
}

// Load reads configuration from environment variables, config file, and defaults.
// Environment variables use the prefix KANBOARD_ with the key path joined by
// underscores, e.g. KANBOARD_BOARD_PAGESIZE.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from the specified path or default locations.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("KANBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// camelCase keys do not map onto SNAKE_CASE env vars automatically
	_ = v.BindEnv("database.driver", "KANBOARD_DB_DRIVER", "KANBOARD_DATABASE_DRIVER")
	_ = v.BindEnv("database.path", "KANBOARD_DB_PATH", "KANBOARD_DATABASE_PATH")
	_ = v.BindEnv("board.apiBaseUrl", "KANBOARD_API_URL", "KANBOARD_BOARD_API_BASE_URL")
	_ = v.BindEnv("board.pageSize", "KANBOARD_BOARD_PAGE_SIZE")
	_ = v.BindEnv("board.idStrategy", "KANBOARD_BOARD_ID_STRATEGY")

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/kanboard/")

	// Missing config file is fine
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// validate checks that all required configuration fields are set.
func validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	switch strings.ToLower(cfg.Database.Driver) {
	case "sqlite":
		if cfg.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite driver")
		}
	case "postgres":
		if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
			errs = append(errs, "database.port must be between 1 and 65535")
		}
		if cfg.Database.User == "" {
			errs = append(errs, "database.user is required for the postgres driver")
		}
		if cfg.Database.DBName == "" {
			errs = append(errs, "database.dbName is required for the postgres driver")
		}
	case "memory":
	default:
		errs = append(errs, "database.driver must be one of: sqlite, postgres, memory")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, text")
	}

	if cfg.Board.PageSize <= 0 || cfg.Board.PageSize > 100 {
		errs = append(errs, "board.pageSize must be between 1 and 100")
	}
	if cfg.Board.DeleteDelayMs < 0 {
		errs = append(errs, "board.deleteDelayMs must not be negative")
	}
	if cfg.Board.RequestTimeout <= 0 {
		errs = append(errs, "board.requestTimeout must be positive")
	}
	validStrategies := map[string]bool{"server": true, "max_loaded": true, "uuid": true}
	if !validStrategies[cfg.Board.IDStrategy] {
		errs = append(errs, "board.idStrategy must be one of: server, max_loaded, uuid")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}

	return nil
}
