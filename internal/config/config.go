package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	EventLog  EventLogConfig  `yaml:"eventlog"`
	View      ViewConfig      `yaml:"view"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type EventLogConfig struct {
	// Backend selects the event log store: "postgres", "sqlite" or "memory".
	Backend        string `yaml:"backend"`
	SQLitePath     string `yaml:"sqlite_path"`
	PollIntervalMS int    `yaml:"poll_interval_ms"`
}

type ViewConfig struct {
	ShardCount     int `yaml:"shard_count"`
	IdleTimeoutSec int `yaml:"idle_timeout_sec"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// PollInterval returns the view refresh interval, defaulting to 1s.
func (e EventLogConfig) PollInterval() time.Duration {
	if e.PollIntervalMS <= 0 {
		return time.Second
	}
	return time.Duration(e.PollIntervalMS) * time.Millisecond
}

// IdleTimeout returns the instance eviction window, defaulting to 360s.
func (v ViewConfig) IdleTimeout() time.Duration {
	if v.IdleTimeoutSec <= 0 {
		return 360 * time.Second
	}
	return time.Duration(v.IdleTimeoutSec) * time.Second
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix GYMVIEW_ and underscore-separated paths:
//
//	GYMVIEW_SERVER_HOST, GYMVIEW_SERVER_PORT,
//	GYMVIEW_DB_HOST, GYMVIEW_DB_PORT, GYMVIEW_DB_NAME,
//	GYMVIEW_DB_USER, GYMVIEW_DB_PASSWORD, GYMVIEW_DB_SSLMODE,
//	GYMVIEW_EVENTLOG_BACKEND, GYMVIEW_EVENTLOG_SQLITE_PATH,
//	GYMVIEW_AUTH_API_KEY
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GYMVIEW_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("GYMVIEW_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("GYMVIEW_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("GYMVIEW_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("GYMVIEW_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("GYMVIEW_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("GYMVIEW_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("GYMVIEW_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("GYMVIEW_EVENTLOG_BACKEND"); v != "" {
		cfg.EventLog.Backend = v
	}
	if v := os.Getenv("GYMVIEW_EVENTLOG_SQLITE_PATH"); v != "" {
		cfg.EventLog.SQLitePath = v
	}
	if v := os.Getenv("GYMVIEW_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	switch c.EventLog.Backend {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required for the postgres backend")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required for the postgres backend")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required for the postgres backend")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required for the postgres backend")
		}
	case "sqlite":
		if c.EventLog.SQLitePath == "" {
			return fmt.Errorf("eventlog.sqlite_path is required for the sqlite backend")
		}
	case "memory":
	default:
		return fmt.Errorf("eventlog.backend must be postgres, sqlite or memory, got %q", c.EventLog.Backend)
	}
	if c.View.ShardCount < 0 {
		return fmt.Errorf("view.shard_count must not be negative")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	return nil
}
