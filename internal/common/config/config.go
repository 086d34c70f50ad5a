// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	LoanService   LoanServiceConfig  `mapstructure:"loan_service"`
	Session       SessionConfig      `mapstructure:"session"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Camunda       CamundaConfig      `mapstructure:"camunda"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port    int `mapstructure:"port"`
	ViewTTL int `mapstructure:"view_ttl"` // milliseconds
}

// LoanServiceConfig points at the remote loan-service REST API.
type LoanServiceConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type SessionConfig struct {
	KeyPrefix string `mapstructure:"key_prefix"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CamundaConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BrokerAddress string `mapstructure:"broker_address"`
	MaxJobsActive int    `mapstructure:"max_jobs_active"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

// NotificationConfig holds the optional command-outcome sinks.
type NotificationConfig struct {
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		Region   string `mapstructure:"region"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func (s ServerConfig) ViewTTLDuration() time.Duration {
	return GetDuration(s.ViewTTL)
}

func (l LoanServiceConfig) TimeoutDuration() time.Duration {
	return GetDuration(l.Timeout)
}

func (c CamundaConfig) TimeoutDuration() time.Duration {
	return GetDuration(c.Timeout)
}
