package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Broadcast BroadcastConfig
	Notify    NotifyConfig
	Live      LiveConfig
	GenAI     GenAIConfig
	DB        DatabaseConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	RateLimitRPS int
}

type BroadcastConfig struct {
	RedisAddr string
	Channel   string
}

type NotifyConfig struct {
	WebhookURL string
	Workers    int
	BufferSize int
}

type LiveConfig struct {
	RefreshInterval time.Duration
}

type GenAIConfig struct {
	BaseURL string
	Model   string
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
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			RateLimitRPS: getEnvInt("RATE_LIMIT_RPS", 5),
		},
		Broadcast: BroadcastConfig{
			RedisAddr: getEnv("REDIS_ADDR", ""),
			Channel:   getEnv("BROADCAST_CHANNEL", "relief-connect"),
		},
		Notify: NotifyConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
			Workers:    getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 20),
		},
		Live: LiveConfig{
			RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 30*time.Second),
		},
		GenAI: GenAIConfig{
			BaseURL: getEnv("GENAI_URL", "https://generativelanguage.googleapis.com/v1beta2"),
			Model:   getEnv("GENAI_MODEL", "gemini-1.5-mini"),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/relief-connect.db"),
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

	if c.Live.RefreshInterval < time.Second {
		return fmt.Errorf("refresh interval must be at least 1 second")
	}
	if c.Broadcast.Channel == "" {
		return fmt.Errorf("broadcast channel must not be empty")
	}
	if c.Notify.Workers < 1 {
		return fmt.Errorf("worker count must be at least 1")
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
