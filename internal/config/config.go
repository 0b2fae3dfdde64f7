package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	API         APIConfig         `yaml:"api"`
	Database    DatabaseConfig    `yaml:"database"`
	NATS        NATSConfig        `yaml:"nats"`
	JWT         JWTConfig         `yaml:"jwt"`
	Log         LogConfig         `yaml:"log"`
	Admission   AdmissionConfig   `yaml:"admission"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Webhook     WebhookConfig     `yaml:"webhook"`
}

// WebhookConfig represents inbound webhook authentication
type WebhookConfig struct {
	// ProvisioningSecret authenticates the identity provider's member
	// sync calls, which may precede the organization's existence.
	ProvisioningSecret string `yaml:"provisioning_secret"`
}

// ServerConfig represents server identity configuration
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// APIConfig represents REST API configuration
type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
}

// NATSConfig represents NATS configuration
type NATSConfig struct {
	URL               string        `yaml:"url"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	MaxReconnects     int           `yaml:"max_reconnects"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
}

// JWTConfig represents JWT configuration
type JWTConfig struct {
	Secret         string        `yaml:"secret"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AdmissionConfig represents run admission configuration
type AdmissionConfig struct {
	// ClaimTTL overrides the default 24h job claim TTL when set.
	ClaimTTL time.Duration `yaml:"claim_ttl"`

	// DefaultPlan is assigned to organizations created by member sync
	// without an explicit plan.
	DefaultPlan string `yaml:"default_plan"`
}

// MaintenanceConfig represents the background sweep configuration
type MaintenanceConfig struct {
	// Schedule is a cron expression; empty disables the sweeper.
	Schedule string `yaml:"schedule"`

	// ClaimGrace is how long past expiry a claim row survives before
	// compaction removes it.
	ClaimGrace time.Duration `yaml:"claim_grace"`

	// RedispatchAfter is how long a run may sit queued before its
	// handoff message is republished.
	RedispatchAfter time.Duration `yaml:"redispatch_after"`

	// SweepTimeout bounds one full sweep; the cron trigger carries no
	// caller context.
	SweepTimeout time.Duration `yaml:"sweep_timeout"`
}

// Load loads configuration from a YAML file
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		c.NATS.URL = url
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if secret := os.Getenv("WEBHOOK_PROVISIONING_SECRET"); secret != "" {
		c.Webhook.ProvisioningSecret = secret
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// applyDefaults fills in defaults for unset values
func (c *Config) applyDefaults() {
	if c.Server.Name == "" {
		c.Server.Name = "recruitflow-server"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.QueryTimeout == 0 {
		c.Database.QueryTimeout = 5 * time.Second
	}
	if c.JWT.AccessTokenTTL == 0 {
		c.JWT.AccessTokenTTL = time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Admission.ClaimTTL == 0 {
		c.Admission.ClaimTTL = 24 * time.Hour
	}
	if c.Admission.DefaultPlan == "" {
		c.Admission.DefaultPlan = "starter"
	}
	if c.Maintenance.ClaimGrace == 0 {
		c.Maintenance.ClaimGrace = 7 * 24 * time.Hour
	}
	if c.Maintenance.RedispatchAfter == 0 {
		c.Maintenance.RedispatchAfter = 10 * time.Minute
	}
	if c.Maintenance.SweepTimeout == 0 {
		c.Maintenance.SweepTimeout = 2 * time.Minute
	}
}
