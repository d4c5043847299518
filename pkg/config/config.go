package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string `validate:"required,numeric"`
	Env  string `validate:"oneof=development staging production test"`

	// Database (optional: empty URL disables Postgres persistence)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External sources
	Yahoo    YahooConfig
	Universe UniverseConfig

	// Output
	Output OutputConfig

	// Scheduler
	ScreenSchedule string `validate:"required"`

	// Logging
	LogLevel  string `validate:"omitempty,oneof=debug info warn warning error fatal panic DEBUG INFO WARN ERROR"`
	LogFormat string `validate:"omitempty,oneof=json console pretty"`

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int `validate:"gte=0"`
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int `validate:"gte=1"`
	MinConns        int `validate:"gte=0"`
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// YahooConfig holds Yahoo Finance collection settings
type YahooConfig struct {
	BaseURL     string  `validate:"required,url"`
	RPS         float64 `validate:"gt=0"`
	Workers     int     `validate:"gte=1,lte=32"`
	HistoryDays int     `validate:"gte=1"`
	CacheTTL    time.Duration
	IndexSymbol string `validate:"required"`
}

// UniverseConfig controls where the constituent list comes from
type UniverseConfig struct {
	URL  string `validate:"required,url"`
	File string // YAML override; takes precedence over URL when set
}

// OutputConfig lists where reports are written
type OutputConfig struct {
	Paths   []string `validate:"min=1,dive,required"`
	CSVPath string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Yahoo: YahooConfig{
			BaseURL:     getEnv("YAHOO_BASE_URL", "https://query2.finance.yahoo.com"),
			RPS:         getEnvAsFloat("YAHOO_RPS", 5),
			Workers:     getEnvAsInt("YAHOO_WORKERS", 4),
			HistoryDays: getEnvAsInt("YAHOO_HISTORY_DAYS", 365),
			CacheTTL:    getEnvAsDuration("YAHOO_CACHE_TTL", "6h"),
			IndexSymbol: getEnv("YAHOO_INDEX_SYMBOL", "^GSPC"),
		},

		Universe: UniverseConfig{
			URL:  getEnv("UNIVERSE_URL", "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"),
			File: getEnv("UNIVERSE_FILE", ""),
		},

		Output: OutputConfig{
			Paths:   getEnvAsList("OUTPUT_PATHS", []string{"stock_data.json", "dashboard/public/stock_data.json"}),
			CSVPath: getEnv("OUTPUT_CSV", ""),
		},

		// 미국장 마감 후 (평일 06:30 KST)
		ScreenSchedule: getEnv("SCREEN_SCHEDULE", "0 30 6 * * 2-6"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ValidationError describes the first invalid configuration field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validate = validator.New()

// Validate checks struct constraints and cross-field rules
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return ValidationError{
				Field:   fe.Namespace(),
				Message: fmt.Sprintf("failed %q (value: %v)", fe.Tag(), fe.Value()),
			}
		}
		return err
	}

	if c.Database.Enabled() && c.Database.MinConns > c.Database.MaxConns {
		return ValidationError{"Config.Database", "MinConns must be <= MaxConns"}
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
