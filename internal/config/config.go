package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Config keeps runtime settings for the bot and the HTTP API.
type Config struct {
	TelegramToken string `yaml:"telegram_token"`
	DatabaseURL   string `yaml:"database_url"`
	HTTPAddr      string `yaml:"http_addr"`
	// ReportTime is the HH:MM local time of the daily summary. Empty disables it.
	ReportTime string `yaml:"report_time"`
	Timezone   string `yaml:"timezone"`
	LogLevel   string `yaml:"log_level"`
	LogFile    string `yaml:"log_file"`

	Location *time.Location `yaml:"-"`
}

// Load reads configuration from an optional YAML file named by TASKCAL_CONFIG,
// then from environment variables, which win over the file.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL: "task_calendar.db",
		ReportTime:  "08:00",
		Timezone:    "Local",
		LogLevel:    "info",
	}

	if path := env("TASKCAL_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	overrideString(&cfg.TelegramToken, "TELEGRAM_TOKEN")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.HTTPAddr, "HTTP_ADDR")
	overrideString(&cfg.ReportTime, "REPORT_TIME")
	overrideString(&cfg.Timezone, "TIMEZONE")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")
	overrideString(&cfg.LogFile, "LOG_FILE")

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return cfg, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.ReportTime != "" {
		if _, _, err := ParseClock(cfg.ReportTime); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

// Validate checks that the configuration can actually serve something.
func (c Config) Validate() error {
	if c.TelegramToken == "" && c.HTTPAddr == "" {
		return errors.New("TELEGRAM_TOKEN or HTTP_ADDR is required")
	}
	return nil
}

// BotEnabled reports whether the Telegram bot should run.
func (c Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

// ParseClock parses an HH:MM time of day.
func ParseClock(raw string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", raw)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hour, minute, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func overrideString(dst *string, key string) {
	if v := env(key); v != "" {
		*dst = v
	}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
