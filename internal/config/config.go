// Package config loads service configuration.
// Precedence: defaults < YAML file < .env file < environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Server       Server       `yaml:"server"`
	Database     Database     `yaml:"database"`
	Cache        Cache        `yaml:"cache"`
	Redis        Redis        `yaml:"redis"`
	Logging      Logging      `yaml:"logging"`
	Provisioning Provisioning `yaml:"provisioning"`
}

// Server holds listener configuration.
type Server struct {
	Addr            string        `yaml:"addr" env:"SERVER_ADDR"`
	MetricsAddr     string        `yaml:"metrics_addr" env:"METRICS_ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
}

// Database holds the global catalog connection configuration.
type Database struct {
	Driver          string        `yaml:"driver" env:"DB_DRIVER"` // "pgx" or "postgres" (lib/pq)
	DSN             string        `yaml:"dsn" env:"DATABASE_URL"`
	Host            string        `yaml:"host" env:"DB_HOST"`
	Port            int           `yaml:"port" env:"DB_PORT"`
	User            string        `yaml:"user" env:"DB_USER"`
	Password        string        `yaml:"password" env:"DB_PASSWORD"`
	Name            string        `yaml:"name" env:"DB_NAME"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
}

// ConnectionString returns DSN, or builds one from the discrete fields.
func (d Database) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// Cache holds the tenant settings cache configuration.
type Cache struct {
	Backend     string        `yaml:"backend" env:"CACHE_BACKEND"` // "memory" or "redis"
	SettingsTTL time.Duration `yaml:"settings_ttl" env:"CACHE_SETTINGS_TTL"`
	MaxTenants  int64         `yaml:"max_tenants" env:"CACHE_MAX_TENANTS"`
}

// Redis holds the shared cache connection configuration.
type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	Prefix   string `yaml:"prefix" env:"REDIS_PREFIX"`
}

// Logging holds zerolog configuration.
type Logging struct {
	Level   string `yaml:"level" env:"LOG_LEVEL"`
	Console bool   `yaml:"console" env:"LOG_CONSOLE"`
}

// Provisioning holds tenant sign-up configuration.
type Provisioning struct {
	BcryptCost int `yaml:"bcrypt_cost" env:"BCRYPT_COST"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			MetricsAddr:     ":8081",
			ShutdownTimeout: 15 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Database: Database{
			Driver:          "pgx",
			Host:            "localhost",
			Port:            5432,
			User:            "admin",
			Password:        "securepassword",
			Name:            "tenant_registry",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Cache: Cache{
			Backend:     "memory",
			SettingsTTL: 60 * time.Second,
			MaxTenants:  10000,
		},
		Redis: Redis{
			Addr:   "localhost:6379",
			Prefix: "booking:",
		},
		Logging: Logging{
			Level:   "info",
			Console: true,
		},
		Provisioning: Provisioning{
			BcryptCost: 12,
		},
	}
}

// Load returns a Config using the hierarchy defaults < YAML < .env < ENV.
// Missing YAML or .env files are not an error.
func Load(yamlPath, dotenvPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config dotenv: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}
	return &cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case "pgx", "postgres":
	default:
		return fmt.Errorf("database.driver must be pgx or postgres, got %q", cfg.Database.Driver)
	}
	switch cfg.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("cache.backend must be memory or redis, got %q", cfg.Cache.Backend)
	}
	if cfg.Cache.SettingsTTL <= 0 {
		return errors.New("cache.settings_ttl must be positive")
	}
	if cfg.Cache.MaxTenants <= 0 {
		return errors.New("cache.max_tenants must be positive")
	}
	if cfg.Provisioning.BcryptCost < 4 || cfg.Provisioning.BcryptCost > 31 {
		return fmt.Errorf("provisioning.bcrypt_cost out of range: %d", cfg.Provisioning.BcryptCost)
	}
	return nil
}
