package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Locker     LockerConfig     `yaml:"locker"`
	Payment    PaymentConfig    `yaml:"payment"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Watchdog   WatchdogConfig   `yaml:"watchdog"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// AuthConfig carries the capability-check secrets: the JWT signing secret for
// the administrative surface and the shared key devices present.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	DeviceKey string `yaml:"device_key"`
}

// LockerConfig tunes the allocation engine and the administrative override.
type LockerConfig struct {
	CodeLength   int    `yaml:"code_length"`
	OverrideCode string `yaml:"override_code"`
}

// PaymentConfig points at the collaborator endpoint that captures payments.
type PaymentConfig struct {
	CaptureURL     string `yaml:"capture_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// WatchdogConfig tunes the device-health sweep.
type WatchdogConfig struct {
	Enabled             bool          `yaml:"enabled"`
	IntervalSeconds     int           `yaml:"interval_seconds"`
	Interval            time.Duration `yaml:"-"` // Ignored by YAML parser
	OfflineAfterSeconds int           `yaml:"offline_after_seconds"`
	OfflineAfter        time.Duration `yaml:"-"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Locker.CodeLength <= 0 {
		cfg.Locker.CodeLength = 6
	}

	if cfg.Payment.TimeoutSeconds <= 0 {
		cfg.Payment.TimeoutSeconds = 30
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Watchdog.IntervalSeconds <= 0 {
		cfg.Watchdog.IntervalSeconds = 60
	}
	cfg.Watchdog.Interval = time.Duration(cfg.Watchdog.IntervalSeconds) * time.Second

	if cfg.Watchdog.OfflineAfterSeconds <= 0 {
		cfg.Watchdog.OfflineAfterSeconds = 300
	}
	cfg.Watchdog.OfflineAfter = time.Duration(cfg.Watchdog.OfflineAfterSeconds) * time.Second

	return &cfg, nil
}
