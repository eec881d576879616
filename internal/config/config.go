package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the tracker.
type Config struct {
	ServerHost string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite"` // sqlite, postgres
	DatabaseURL    string `env:"DATABASE_URL" envDefault:"daily_tracker.db"`

	Timezone string `env:"TIMEZONE" envDefault:"Local"`

	LoggerLevel  string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text

	// Empty token disables the Telegram front-end.
	TelegramToken string `env:"TELEGRAM_TOKEN"`
	ReportTime    string `env:"REPORT_TIME" envDefault:"21:00"`

	// Empty address disables the processing lock.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"dtrk"`

	EnforceInterval   bool          `env:"RECURRENCE_ENFORCE_INTERVAL" envDefault:"false"`
	ProcessLockTTL    time.Duration `env:"PROCESS_LOCK_TTL" envDefault:"30s"`
	MetricsWindowDays int           `env:"METRICS_WINDOW_DAYS" envDefault:"30"`

	location *time.Location
}

// Load reads configuration from an optional .env file and the environment.
func Load() (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.DatabaseDriver = strings.ToLower(strings.TrimSpace(c.DatabaseDriver))
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DATABASE_DRIVER %q is not supported", c.DatabaseDriver)
	}

	loc, err := loadLocation(strings.TrimSpace(c.Timezone))
	if err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	c.location = loc

	if _, _, err := ParseClock(c.ReportTime); err != nil {
		return fmt.Errorf("REPORT_TIME: %w", err)
	}

	if c.MetricsWindowDays <= 0 {
		c.MetricsWindowDays = 30
	}
	if c.ProcessLockTTL <= 0 {
		c.ProcessLockTTL = 30 * time.Second
	}
	c.TelegramToken = strings.TrimSpace(c.TelegramToken)
	c.RedisAddr = strings.TrimSpace(c.RedisAddr)
	return nil
}

// Location is the zone that defines "today" for every user.
func (c Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	if loc, err := loadLocation(strings.TrimSpace(c.Timezone)); err == nil {
		return loc
	}
	return time.Local
}

func (c Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.LoggerFormat, "text")
}

// ParseClock parses an HH:MM string.
func ParseClock(value string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour, minute, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
