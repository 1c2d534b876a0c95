package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ham-practice/internal/domain"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Provider struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
		Dir     string `yaml:"dir"`
	} `yaml:"provider"`
	Bank struct {
		CacheTTL string                  `yaml:"cacheTTL"`
		Default  string                  `yaml:"default"`
		Fallback []domain.BankSummary    `yaml:"fallback"`
		Quotas   map[string]domain.Quota `yaml:"quotas"`
	} `yaml:"bank"`
}

// LoadDotEnv loads a .env file from the working directory into the environment.
// Variables already set win; a missing file is fine.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}
}

// Load reads YAML config from path and applies environment overrides. A missing
// file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("config %s not found, using defaults", path)
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvOrDefault("PORT", c.Server.Port)
	c.Redis.Addr = getEnvOrDefault("REDIS_ADDR", c.Redis.Addr)
	c.Postgres.URL = getEnvOrDefault("POSTGRES_URL", c.Postgres.URL)
	c.SQLite.Path = getEnvOrDefault("SQLITE_PATH", c.SQLite.Path)
	c.Provider.URL = getEnvOrDefault("HAM_API_BASE", c.Provider.URL)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
