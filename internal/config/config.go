package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del wizard (API y CLI).
type Config struct {
	HTTPPort               string `env:"HTTP_PORT" envDefault:"8080"`
	ScoringBaseURL         string `env:"SCORING_BASE_URL" envDefault:"http://127.0.0.1:5000"`
	ScoringTimeoutSeconds  int    `env:"SCORING_TIMEOUT_SECONDS" envDefault:"20"`
	DefaultCountry         string `env:"DEFAULT_COUNTRY" envDefault:"UK"`
	BotReplyDelayMS        int    `env:"BOT_REPLY_DELAY_MS" envDefault:"250"`
	AdvisoryPolicyFile     string `env:"ADVISORY_POLICY_FILE"`
	RedisAddr              string `env:"REDIS_ADDR"`
	RedisPassword          string `env:"REDIS_PASSWORD"`
	RedisDB                int    `env:"REDIS_DB" envDefault:"0"`
	CatalogCacheTTLMinutes int    `env:"CATALOG_CACHE_TTL_MINUTES" envDefault:"60"`
	SessionIdleTTLMinutes  int    `env:"SESSION_IDLE_TTL_MINUTES" envDefault:"30"`
	LogDebug               bool   `env:"LOG_DEBUG" envDefault:"false"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ScoringTimeout() time.Duration {
	if c.ScoringTimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.ScoringTimeoutSeconds) * time.Second
}

func (c *Config) BotReplyDelay() time.Duration {
	if c.BotReplyDelayMS < 0 {
		return 0
	}
	return time.Duration(c.BotReplyDelayMS) * time.Millisecond
}

func (c *Config) CatalogCacheTTL() time.Duration {
	return time.Duration(c.CatalogCacheTTLMinutes) * time.Minute
}

func (c *Config) SessionIdleTTL() time.Duration {
	return time.Duration(c.SessionIdleTTLMinutes) * time.Minute
}
