package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"
	_ "time/tzdata" // TIMEZONE must resolve in minimal containers

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL        string
	TelegramToken      string // Empty disables the operator bot
	AdminTelegramID    int64
	LogLevel           string
	Environment        string
	CronSpecDailyBatch string
	BatchConcurrency   int
	BatchTimeout       time.Duration
	StoreTimeout       time.Duration
	StoreMaxRetries    int
	DBMaxOpenConns     int
	RunMigrations      bool
	Timezone           *time.Location
}

// BotEnabled reports whether the operator bot should be started.
func (c *AppConfig) BotEnabled() bool {
	return c.TelegramToken != ""
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")

	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}
	if cfg.BotEnabled() && cfg.AdminTelegramID == 0 {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is required when TELEGRAM_TOKEN is set")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecDailyBatch = os.Getenv("CRON_SPEC_DAILY_BATCH")
	if cfg.CronSpecDailyBatch == "" {
		cfg.CronSpecDailyBatch = "0 6 * * *" // Default: 06:00 daily
	}

	if cfg.BatchConcurrency, err = intEnv("BATCH_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.BatchTimeout, err = durationEnv("BATCH_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.StoreTimeout, err = durationEnv("STORE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.StoreMaxRetries, err = intEnv("STORE_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.DBMaxOpenConns, err = intEnv("DB_MAX_OPEN_CONNS", 25); err != nil {
		return nil, err
	}

	cfg.RunMigrations = true
	if v := os.Getenv("RUN_MIGRATIONS"); v != "" {
		cfg.RunMigrations, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RUN_MIGRATIONS: %w", err)
		}
	}

	tz := os.Getenv("TIMEZONE")
	if tz == "" {
		tz = "Asia/Seoul" // Default: schedule dates follow Korean calendar days
	}
	cfg.Timezone, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q must be a non-negative integer", key, v)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q must be a positive duration such as 5s", key, v)
	}
	return d, nil
}
