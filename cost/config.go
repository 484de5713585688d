package cost

import (
	"fmt"
)

// Config cost accounting configuration
type Config struct {
	// Rates per-resource cost-per-unit overrides; unset resources keep
	// their default rate
	Rates map[string]float64 `mapstructure:"rates"`

	// Currency billing currency code
	Currency string `mapstructure:"currency"`
}

// ApplyDefaults fills zero-value fields
func (c *Config) ApplyDefaults() {
	if c.Currency == "" {
		c.Currency = "USD"
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	for resource, rate := range c.Rates {
		if rate < 0 {
			return fmt.Errorf("rate for %s must be >= 0, got %f", resource, rate)
		}
	}
	return nil
}
