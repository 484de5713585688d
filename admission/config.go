package admission

import (
	"fmt"
	"time"

	"github.com/aquafarm-pro/tenantcore/quota"
)

// StoreType counter store backend
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

// Config rate limit engine configuration
type Config struct {
	// StoreType counter store backend: memory, redis
	StoreType string `mapstructure:"store_type"`

	// KeyPrefix counter key prefix in the shared store
	KeyPrefix string `mapstructure:"key_prefix"`

	// StoreTimeout bound on every counter store call; on expiry the
	// admission path fails open
	StoreTimeout time.Duration `mapstructure:"store_timeout"`

	// PerUserClasses endpoint classes accounted per (tenant, user) instead
	// of per tenant only
	PerUserClasses []string `mapstructure:"per_user_classes"`

	// EventBuffer audit event bus buffer size
	EventBuffer int `mapstructure:"event_buffer"`
}

// ApplyDefaults fills zero-value fields
func (c *Config) ApplyDefaults() {
	if c.StoreType == "" {
		c.StoreType = string(StoreTypeRedis)
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "rate_limit:"
	}
	if c.StoreTimeout == 0 {
		c.StoreTimeout = 500 * time.Millisecond
	}
	if c.EventBuffer == 0 {
		c.EventBuffer = 256
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.StoreType != string(StoreTypeMemory) && c.StoreType != string(StoreTypeRedis) {
		return fmt.Errorf("store_type must be 'memory' or 'redis', got %q", c.StoreType)
	}
	if c.StoreTimeout < 0 {
		return fmt.Errorf("store_timeout must be >= 0")
	}
	return nil
}

// perUser reports whether a class is accounted per user
func (c *Config) perUser(class quota.EndpointClass) bool {
	for _, pc := range c.PerUserClasses {
		if pc == string(class) {
			return true
		}
	}
	return false
}
