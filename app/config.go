package app

import (
	"fmt"

	"github.com/aquafarm-pro/tenantcore/admission"
	"github.com/aquafarm-pro/tenantcore/config"
	"github.com/aquafarm-pro/tenantcore/cost"
	"github.com/aquafarm-pro/tenantcore/database"
	"github.com/aquafarm-pro/tenantcore/events"
	"github.com/aquafarm-pro/tenantcore/logger"
	"github.com/aquafarm-pro/tenantcore/quota"
	"github.com/aquafarm-pro/tenantcore/redis"
	"github.com/aquafarm-pro/tenantcore/usage"
)

// ServerConfig HTTP server settings
type ServerConfig struct {
	// Addr listen address
	Addr string `mapstructure:"addr"`

	// Mode gin mode: debug, release, test
	Mode string `mapstructure:"mode"`
}

// ApplyDefaults fills zero-value fields
func (c *ServerConfig) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Mode == "" {
		c.Mode = "release"
	}
}

// Config full application configuration
type Config struct {
	Logger    logger.Config      `mapstructure:"logger"`
	Server    ServerConfig       `mapstructure:"server"`
	Redis     redis.Config       `mapstructure:"redis"`
	Database  database.Config    `mapstructure:"database"`
	Quota     quota.Config       `mapstructure:"quota"`
	Admission admission.Config   `mapstructure:"admission"`
	Usage     usage.Config       `mapstructure:"usage"`
	Cost      cost.Config        `mapstructure:"cost"`
	Kafka     events.KafkaConfig `mapstructure:"kafka"`

	// Tenants static tenant list for the sampling runner; a deployment
	// with a tenant registry plugs its own TenantLister in instead
	Tenants []string `mapstructure:"tenants"`
}

// LoadConfig reads the application configuration from a file, with
// environment variable overrides
func LoadConfig(path string) (Config, error) {
	loader := config.NewLoader(path, "TENANTCORE")
	if err := loader.Load(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	var cfg Config
	for key, out := range map[string]interface{}{
		"logger":    &cfg.Logger,
		"server":    &cfg.Server,
		"redis":     &cfg.Redis,
		"database":  &cfg.Database,
		"quota":     &cfg.Quota,
		"admission": &cfg.Admission,
		"usage":     &cfg.Usage,
		"cost":      &cfg.Cost,
		"kafka":     &cfg.Kafka,
		"tenants":   &cfg.Tenants,
	} {
		if err := loader.UnmarshalKey(key, out); err != nil {
			return Config{}, fmt.Errorf("unmarshal %s config: %w", key, err)
		}
	}

	if cfg.Quota.Defaults == nil {
		cfg.Quota = quota.DefaultConfig()
	}

	return cfg, nil
}
