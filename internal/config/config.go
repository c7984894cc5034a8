package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server       ServerConfig
	Monitor      MonitorConfig
	Surveillance SurveillanceConfig
	Messaging    MessagingConfig
	DB           DatabaseConfig
	Logging      LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type MonitorConfig struct {
	Enabled      bool
	Interval     time.Duration
	ErrorBackoff time.Duration
	Regions      []string
	Diseases     []string
}

type SurveillanceConfig struct {
	BaseURL string
	Timeout time.Duration
}

type MessagingConfig struct {
	GatewayURL string
	Timeout    time.Duration
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Monitor: MonitorConfig{
			Enabled:      getEnvBool("MONITOR_ENABLED", true),
			Interval:     getEnvDuration("MONITOR_INTERVAL", 30*time.Minute),
			ErrorBackoff: getEnvDuration("MONITOR_ERROR_BACKOFF", 5*time.Minute),
			Regions:      getEnvList("MONITOR_REGIONS", "Delhi,Mumbai,Bangalore,Chennai,Kolkata"),
			Diseases:     getEnvList("MONITOR_DISEASES", "dengue,malaria,covid-19,typhoid,cholera"),
		},
		Surveillance: SurveillanceConfig{
			BaseURL: getEnv("SURVEILLANCE_URL", "http://localhost:9090"),
			Timeout: getEnvDuration("SURVEILLANCE_TIMEOUT", 15*time.Second),
		},
		Messaging: MessagingConfig{
			GatewayURL: getEnv("MESSAGING_GATEWAY_URL", "http://localhost:9091/send"),
			Timeout:    getEnvDuration("MESSAGING_TIMEOUT", 10*time.Second),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/health-alerts.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Monitor.Interval < time.Minute {
		return fmt.Errorf("monitor interval must be at least 1 minute")
	}
	if c.Monitor.ErrorBackoff < 30*time.Second {
		return fmt.Errorf("monitor error backoff must be at least 30 seconds")
	}
	if c.Monitor.Enabled {
		if len(c.Monitor.Regions) == 0 {
			return fmt.Errorf("monitor enabled but no regions configured")
		}
		if len(c.Monitor.Diseases) == 0 {
			return fmt.Errorf("monitor enabled but no diseases configured")
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)

	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
