package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Mailer   MailerConfig   `mapstructure:"mailer"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         string `mapstructure:"SERVER_PORT"`
	Host         string `mapstructure:"SERVER_HOST"`
	Env          string `mapstructure:"ENV"`
	ReadTimeout  string `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout string `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	URL          string `mapstructure:"DATABASE_URL"`
	MaxOpenConns int    `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns int    `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type MailerConfig struct {
	BaseURL string `mapstructure:"MAILER_BASE_URL"`
	APIKey  string `mapstructure:"MAILER_API_KEY"`
	From    string `mapstructure:"MAILER_FROM"`
}

type ReminderConfig struct {
	DailyCap int    `mapstructure:"REMINDER_DAILY_CAP"`
	LockTTL  string `mapstructure:"REMINDER_LOCK_TTL"`
	Timezone string `mapstructure:"REMINDER_TIMEZONE"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

// Load reads configuration from environment variables and an optional
// .env file
func Load() (*Config, error) {
	// Don't fail if the .env file doesn't exist
	_ = godotenv.Load()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	viper.SetDefault("DATABASE_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("MAILER_BASE_URL", "https://api.resend.com")
	viper.SetDefault("MAILER_FROM", "reminders@fintrack.dev")
	viper.SetDefault("REMINDER_DAILY_CAP", 5)
	viper.SetDefault("REMINDER_LOCK_TTL", "5m")
	viper.SetDefault("REMINDER_TIMEZONE", "Europe/Istanbul")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")

	// Read from environment variables
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Reminder.DailyCap <= 0 {
		return fmt.Errorf("REMINDER_DAILY_CAP must be greater than 0")
	}

	if _, err := time.ParseDuration(c.Reminder.LockTTL); err != nil {
		return fmt.Errorf("REMINDER_LOCK_TTL must be a valid duration: %w", err)
	}

	if _, err := time.LoadLocation(c.Reminder.Timezone); err != nil {
		return fmt.Errorf("REMINDER_TIMEZONE must be a valid location: %w", err)
	}

	if _, err := time.ParseDuration(c.Server.ReadTimeout); err != nil {
		return fmt.Errorf("SERVER_READ_TIMEOUT must be a valid duration: %w", err)
	}

	if _, err := time.ParseDuration(c.Server.WriteTimeout); err != nil {
		return fmt.Errorf("SERVER_WRITE_TIMEOUT must be a valid duration: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetReminderLockTTL returns the dispatch lock TTL as duration
func (c *Config) GetReminderLockTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Reminder.LockTTL)
	return ttl
}

// GetReminderLocation returns the calendar-day timezone for reminders
func (c *Config) GetReminderLocation() *time.Location {
	loc, err := time.LoadLocation(c.Reminder.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// GetReadTimeout returns the server read timeout as duration
func (c *Config) GetReadTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Server.ReadTimeout)
	return timeout
}

// GetWriteTimeout returns the server write timeout as duration
func (c *Config) GetWriteTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Server.WriteTimeout)
	return timeout
}
