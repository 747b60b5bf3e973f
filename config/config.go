package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Scale      ScaleConfig      `yaml:"scale"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Query      QueryConfig      `yaml:"query"`
	Timezone   string           `yaml:"timezone"`

	Location *time.Location `yaml:"-"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// ScaleConfig describes the weight indicator and its serial line.
type ScaleConfig struct {
	Enabled                  bool          `yaml:"enabled"`
	Port                     string        `yaml:"port"`
	Protocol                 string        `yaml:"protocol"`
	BaudRate                 int           `yaml:"baud_rate"`
	DataBits                 int           `yaml:"data_bits"`
	Parity                   string        `yaml:"parity"`
	StopBits                 int           `yaml:"stop_bits"`
	ReadTimeoutMillis        int           `yaml:"read_timeout_ms"`
	ReadTimeout              time.Duration `yaml:"-"`
	ReconnectIntervalSeconds int           `yaml:"reconnect_interval_seconds"`
	ReconnectInterval        time.Duration `yaml:"-"`
	EventLogSize             int           `yaml:"event_log_size"`
	Decimals                 int32         `yaml:"decimals"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// QueryConfig holds the dashboard listing defaults.
type QueryConfig struct {
	PageSize int `yaml:"page_size"`
}

// Load reads the configuration from the given path. Values from a .env file
// and the environment override DATABASE_DSN, SCALE_PORT and SCALE_PROTOCOL.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not read .env file: %v", err)
	}

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

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("SCALE_PORT"); v != "" {
		cfg.Scale.Port = v
	}
	if v := os.Getenv("SCALE_PROTOCOL"); v != "" {
		cfg.Scale.Protocol = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 5
	}

	if cfg.Scale.Protocol == "" {
		cfg.Scale.Protocol = "generic"
	}
	if cfg.Scale.BaudRate <= 0 {
		cfg.Scale.BaudRate = 9600
	}
	if cfg.Scale.DataBits <= 0 {
		cfg.Scale.DataBits = 8
	}
	if cfg.Scale.Parity == "" {
		cfg.Scale.Parity = "none"
	}
	if cfg.Scale.StopBits <= 0 {
		cfg.Scale.StopBits = 1
	}
	if cfg.Scale.ReadTimeoutMillis <= 0 {
		cfg.Scale.ReadTimeoutMillis = 1000
	}
	cfg.Scale.ReadTimeout = time.Duration(cfg.Scale.ReadTimeoutMillis) * time.Millisecond
	if cfg.Scale.ReconnectIntervalSeconds <= 0 {
		cfg.Scale.ReconnectIntervalSeconds = 10
	}
	cfg.Scale.ReconnectInterval = time.Duration(cfg.Scale.ReconnectIntervalSeconds) * time.Second
	if cfg.Scale.EventLogSize <= 0 {
		cfg.Scale.EventLogSize = 50
	}
	if cfg.Scale.Decimals <= 0 {
		cfg.Scale.Decimals = 2
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	if cfg.Query.PageSize <= 0 {
		cfg.Query.PageSize = 20
	}

	if cfg.Timezone == "" {
		cfg.Timezone = "America/Bogota"
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("Warning: invalid timezone %q: %v. Using local time.", cfg.Timezone, err)
		loc = time.Local
	}
	cfg.Location = loc
}
