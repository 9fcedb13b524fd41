// Package config loads and validates the shrine UI server configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Transport and cache backend names accepted in config files.
const (
	TransportHTTP = "http"
	TransportAMQP = "amqp"
	CacheMemory   = "memory"
	CacheRedis    = "redis"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `json:"addr" env:"SHRINE_ADDR" env-default:"127.0.0.1:8080"`
}

// APIConfig points at the shrine backend API.
type APIConfig struct {
	BaseURL        string `json:"base_url" env:"SHRINE_API_URL" env-default:"http://127.0.0.1:8000"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"SHRINE_API_TIMEOUT_SECONDS" env-default:"10"`
}

// LivestreamConfig controls the notification poller.
type LivestreamConfig struct {
	PollIntervalSeconds int     `json:"poll_interval_seconds" env:"SHRINE_POLL_INTERVAL_SECONDS" env-default:"30"`
	WindowMinutes       int     `json:"window_minutes" env:"SHRINE_WINDOW_MINUTES" env-default:"30"`
	ClearOnLapse        bool    `json:"clear_on_lapse" env:"SHRINE_CLEAR_ON_LAPSE" env-default:"false"`
	RequestsPerSecond   float64 `json:"requests_per_second" env:"SHRINE_API_RPS" env-default:"2"`
	Burst               int     `json:"burst" env:"SHRINE_API_BURST" env-default:"4"`
	ResolveThumbnails   bool    `json:"resolve_thumbnails" env:"SHRINE_RESOLVE_THUMBNAILS" env-default:"false"`
	Timezone            string  `json:"timezone" env:"SHRINE_TIMEZONE" env-default:"Local"`
}

// PrayerConfig selects how prayer requests leave the server.
type PrayerConfig struct {
	Transport  string `json:"transport" env:"SHRINE_PRAYER_TRANSPORT" env-default:"http"`
	AMQPURL    string `json:"amqp_url" env:"SHRINE_AMQP_URL"`
	Exchange   string `json:"exchange" env:"SHRINE_AMQP_EXCHANGE" env-default:"shrine.prayers"`
	RoutingKey string `json:"routing_key" env:"SHRINE_AMQP_ROUTING_KEY" env-default:"prayer.created"`
}

// CacheConfig selects where the latest livestream observation is kept.
type CacheConfig struct {
	Backend       string `json:"backend" env:"SHRINE_CACHE_BACKEND" env-default:"memory"`
	RedisAddr     string `json:"redis_addr" env:"SHRINE_REDIS_ADDR" env-default:"127.0.0.1:6379"`
	RedisPassword string `json:"redis_password" env:"SHRINE_REDIS_PASSWORD"`
	RedisDB       int    `json:"redis_db" env:"SHRINE_REDIS_DB" env-default:"0"`
	TTLSeconds    int    `json:"ttl_seconds" env:"SHRINE_CACHE_TTL_SECONDS" env-default:"120"`
}

// SiteConfig configures rendering.
type SiteConfig struct {
	Name            string `json:"name" env:"SHRINE_SITE_NAME" env-default:"Shrine"`
	DefaultLanguage string `json:"default_language" env:"SHRINE_DEFAULT_LANGUAGE" env-default:"en"`
	TemplatesDir    string `json:"templates_dir" env:"SHRINE_TEMPLATES_DIR"`
	AssetsDir       string `json:"assets_dir" env:"SHRINE_ASSETS_DIR" env-default:"web"`
	LocalesDir      string `json:"locales_dir" env:"SHRINE_LOCALES_DIR"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Dir   string `json:"dir" env:"SHRINE_LOG_DIR"`
	Level string `json:"level" env:"SHRINE_LOG_LEVEL" env-default:"info"`
}

// Config represents the combined runtime settings.
type Config struct {
	Server     ServerConfig     `json:"server"`
	API        APIConfig        `json:"api"`
	Livestream LivestreamConfig `json:"livestream"`
	Prayer     PrayerConfig     `json:"prayer"`
	Cache      CacheConfig      `json:"cache"`
	Site       SiteConfig       `json:"site"`
	Logging    LoggingConfig    `json:"logging"`
}

// LoadDotEnv loads the given .env files into the process environment.
// A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// Load reads the JSON config at path, applies environment overrides and
// defaults, and validates the result. An empty path or a missing file falls
// back to environment variables alone.
func Load(path string) (Config, error) {
	var cfg Config
	path = strings.TrimSpace(path)
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
			return cfg, cfg.Validate()
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("stat config: %w", err)
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if strings.TrimSpace(c.API.BaseURL) == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.API.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("api.timeout_seconds must be positive"))
	}
	if c.Livestream.PollIntervalSeconds <= 0 {
		errs = append(errs, errors.New("livestream.poll_interval_seconds must be positive"))
	}
	if c.Livestream.WindowMinutes <= 0 {
		errs = append(errs, errors.New("livestream.window_minutes must be positive"))
	}
	if c.Livestream.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("livestream.requests_per_second must be positive"))
	}
	if c.Livestream.Burst <= 0 {
		errs = append(errs, errors.New("livestream.burst must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("livestream.timezone: %w", err))
	}
	switch c.Prayer.Transport {
	case TransportHTTP:
	case TransportAMQP:
		if strings.TrimSpace(c.Prayer.AMQPURL) == "" {
			errs = append(errs, errors.New("prayer.amqp_url is required for the amqp transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("prayer.transport %q is not supported", c.Prayer.Transport))
	}
	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if strings.TrimSpace(c.Cache.RedisAddr) == "" {
			errs = append(errs, errors.New("cache.redis_addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q is not supported", c.Cache.Backend))
	}
	return errors.Join(errs...)
}

// Location resolves the configured timezone. "Local" and "" use the process zone.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Livestream.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// PollInterval returns the poll period.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Livestream.PollIntervalSeconds) * time.Second
}

// Window returns the pre-start notification window.
func (c Config) Window() time.Duration {
	return time.Duration(c.Livestream.WindowMinutes) * time.Minute
}

// APITimeout returns the timeout for backend calls.
func (c Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long a published observation stays cached.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}
