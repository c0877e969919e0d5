// Package config handles configuration loading and validation for cadence.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/colonyops/cadence/internal/core/schedule"
	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"
)

// Server store backends.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config holds the application configuration.
type Config struct {
	Schedule ScheduleConfig `yaml:"schedule"`
	Engine   EngineConfig   `yaml:"engine"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Remote   RemoteConfig   `yaml:"remote"`
	Identity IdentityConfig `yaml:"identity"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Reminder ReminderConfig `yaml:"reminder"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// ScheduleConfig holds the spaced-repetition ladder in days.
type ScheduleConfig struct {
	Ladder []int `yaml:"ladder"`
}

// EngineConfig tunes the sync engine.
type EngineConfig struct {
	MinPending    time.Duration `yaml:"min_pending"`
	SafetyTimeout time.Duration `yaml:"safety_timeout"`
}

// CatalogConfig points at a catalog file that replaces the embedded one.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// RemoteConfig configures the remote progress API used when signed in.
type RemoteConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// IdentityConfig holds a stored bearer token. Empty means local mode.
type IdentityConfig struct {
	Token string `yaml:"token"`
}

// DatabaseConfig holds the SQLite pool settings.
type DatabaseConfig struct {
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	BusyTimeout  time.Duration `yaml:"busy_timeout"`
}

// ServerConfig configures `cadence serve`.
type ServerConfig struct {
	Addr        string        `yaml:"addr"`
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
	Store       string        `yaml:"store"`
	RedisAddr   string        `yaml:"redis_addr"`
	Tracing     bool          `yaml:"tracing"`
	CORSOrigins []string      `yaml:"cors_origins"`
}

// ReminderConfig schedules the due-review digest.
type ReminderConfig struct {
	Cron string `yaml:"cron"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Schedule: ScheduleConfig{
			Ladder: append([]int(nil), schedule.DefaultLadder...),
		},
		Engine: EngineConfig{
			MinPending:    300 * time.Millisecond,
			SafetyTimeout: 5 * time.Second,
		},
		Remote: RemoteConfig{
			Timeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			BusyTimeout:  5 * time.Second,
		},
		Server: ServerConfig{
			Addr:     ":8080",
			TokenTTL: 24 * time.Hour,
			Store:    StoreSQLite,
		},
		Reminder: ReminderConfig{
			Cron: "0 9 * * *",
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.DataDir = dataDir
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills zero values a partial file left behind.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if len(c.Schedule.Ladder) == 0 {
		c.Schedule.Ladder = defaults.Schedule.Ladder
	}
	if c.Engine.SafetyTimeout == 0 {
		c.Engine.SafetyTimeout = defaults.Engine.SafetyTimeout
	}
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = defaults.Remote.Timeout
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.TokenTTL == 0 {
		c.Server.TokenTTL = defaults.Server.TokenTTL
	}
	if c.Server.Store == "" {
		c.Server.Store = defaults.Server.Store
	}
	if c.Reminder.Cron == "" {
		c.Reminder.Cron = defaults.Reminder.Cron
	}
}

// Validate checks structural constraints and returns criterio field errors.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if c.DataDir == "" {
		errs = errs.Append("data_dir", fmt.Errorf("data directory cannot be empty"))
	}
	if _, err := schedule.NewLadder(c.Schedule.Ladder); err != nil {
		errs = errs.Append("schedule.ladder", err)
	}
	if c.Engine.MinPending < 0 {
		errs = errs.Append("engine.min_pending", fmt.Errorf("must not be negative"))
	}
	if c.Engine.SafetyTimeout < 0 {
		errs = errs.Append("engine.safety_timeout", fmt.Errorf("must not be negative"))
	}
	if c.Database.MaxOpenConns < 1 {
		errs = errs.Append("database.max_open_conns", fmt.Errorf("must be at least 1"))
	}

	switch c.Server.Store {
	case StoreSQLite:
	case StoreRedis:
		if c.Server.RedisAddr == "" {
			errs = errs.Append("server.redis_addr", fmt.Errorf("required when server.store is %q", StoreRedis))
		}
	default:
		errs = errs.Append("server.store", fmt.Errorf("must be %q or %q, got %q", StoreSQLite, StoreRedis, c.Server.Store))
	}

	return errs.ToError()
}

// Ladder returns the validated review ladder.
func (c *Config) Ladder() schedule.Ladder {
	l, err := schedule.NewLadder(c.Schedule.Ladder)
	if err != nil {
		return schedule.DefaultLadder
	}
	return l
}
