package usage

import (
	"fmt"
	"time"
)

// Config sampler and runner configuration
type Config struct {
	// Interval period between sampling passes
	Interval time.Duration `mapstructure:"interval"`

	// CollectTimeout bound on each individual collector call
	CollectTimeout time.Duration `mapstructure:"collect_timeout"`

	// Workers cross-tenant parallelism of a sampling pass
	Workers int `mapstructure:"workers"`

	// Retention how long persisted samples are kept; older rows are purged
	// after each pass
	Retention time.Duration `mapstructure:"retention"`
}

// ApplyDefaults fills zero-value fields
func (c *Config) ApplyDefaults() {
	if c.Interval == 0 {
		c.Interval = 5 * time.Minute
	}
	if c.CollectTimeout == 0 {
		c.CollectTimeout = 2 * time.Second
	}
	if c.Workers == 0 {
		c.Workers = 8
	}
	if c.Retention == 0 {
		c.Retention = 30 * 24 * time.Hour
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Interval < time.Second {
		return fmt.Errorf("interval must be >= 1s, got %s", c.Interval)
	}
	if c.CollectTimeout <= 0 {
		return fmt.Errorf("collect_timeout must be > 0")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be > 0")
	}
	if c.Retention < 0 {
		return fmt.Errorf("retention must be >= 0")
	}
	return nil
}
