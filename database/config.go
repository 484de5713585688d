package database

import (
	"fmt"
	"time"
)

// Config database connection settings
type Config struct {
	// Driver "mysql", "postgres" or "sqlite"
	Driver string `mapstructure:"driver"`

	// DSN driver-specific connection string
	DSN string `mapstructure:"dsn"`

	// MaxOpenConns connection pool upper bound
	MaxOpenConns int `mapstructure:"max_open_conns"`

	// MaxIdleConns idle connections kept in the pool
	MaxIdleConns int `mapstructure:"max_idle_conns"`

	// ConnMaxLifetime connection recycling age
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ApplyDefaults fills zero-value fields
func (c *Config) ApplyDefaults() {
	if c.Driver == "" {
		c.Driver = "postgres"
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = time.Hour
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	switch c.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported driver: %s", c.Driver)
	}
	if c.DSN == "" {
		return fmt.Errorf("dsn cannot be empty")
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return fmt.Errorf("connection pool sizes must be >= 0")
	}
	return nil
}
