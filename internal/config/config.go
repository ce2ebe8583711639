package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        string `yaml:"port" env:"QUIZ_SERVER_PORT"`
		PublicURL   string `yaml:"public_url" env:"QUIZ_SERVER_PUBLIC_URL"`
		DefaultRoom string `yaml:"default_room" env:"QUIZ_SERVER_DEFAULT_ROOM"`
		Instance    string `yaml:"instance" env:"QUIZ_SERVER_INSTANCE"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr" env:"QUIZ_REDIS_ADDR"`
		Password string `yaml:"password" env:"QUIZ_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"QUIZ_REDIS_DB"`
		TTL      string `yaml:"ttl" env:"QUIZ_REDIS_TTL"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url" env:"QUIZ_POSTGRES_URL"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path" env:"QUIZ_SQLITE_PATH"`
	} `yaml:"sqlite"`
	Questions struct {
		Set string `yaml:"set" env:"QUIZ_QUESTIONS_SET"`
		Dir string `yaml:"dir" env:"QUIZ_QUESTIONS_DIR"`
		TTL string `yaml:"ttl" env:"QUIZ_QUESTIONS_TTL"`
	} `yaml:"questions"`
	Log struct {
		Level       string `yaml:"level" env:"QUIZ_LOG_LEVEL"`
		Development bool   `yaml:"development" env:"QUIZ_LOG_DEVELOPMENT"`
	} `yaml:"log"`
}

// Load reads YAML config from path, then applies QUIZ_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.DefaultRoom == "" {
		c.Server.DefaultRoom = "main"
	}
	if c.Questions.Set == "" {
		c.Questions.Set = "default"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
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
