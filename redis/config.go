package redis

import (
	"fmt"
	"time"
)

// Config Redis connection settings
type Config struct {
	// Mode "standalone" or "cluster"
	Mode string `mapstructure:"mode"`

	// Addrs address list; standalone mode uses the first entry
	Addrs []string `mapstructure:"addrs"`

	// Password optional auth
	Password string `mapstructure:"password"`

	// DB database number, standalone mode only
	DB int `mapstructure:"db"`

	// PoolSize connection pool size
	PoolSize int `mapstructure:"pool_size"`

	// MinIdleConns minimum idle connections
	MinIdleConns int `mapstructure:"min_idle_conns"`

	// MaxRetries per-command retry budget
	MaxRetries int `mapstructure:"max_retries"`

	// DialTimeout connection timeout
	DialTimeout time.Duration `mapstructure:"dial_timeout"`

	// ReadTimeout read timeout
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout write timeout
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ApplyDefaults fills zero-value fields
func (c *Config) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = "standalone"
	}
	if len(c.Addrs) == 0 {
		c.Addrs = []string{"localhost:6379"}
	}
	if c.PoolSize == 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns == 0 {
		c.MinIdleConns = 5
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3 * time.Second
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Mode != "standalone" && c.Mode != "cluster" {
		return fmt.Errorf("invalid mode: %s (must be standalone or cluster)", c.Mode)
	}
	if len(c.Addrs) == 0 {
		return fmt.Errorf("addrs cannot be empty")
	}
	if c.Mode == "standalone" && (c.DB < 0 || c.DB > 15) {
		return fmt.Errorf("db must be between 0 and 15, got: %d", c.DB)
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("pool_size must be >= 0, got: %d", c.PoolSize)
	}
	return nil
}
