package quota

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// RuleConfig configuration form of one quota rule
type RuleConfig struct {
	// MaxCount maximum admitted requests per window
	MaxCount int64 `mapstructure:"max_count"`

	// Window fixed window length
	Window time.Duration `mapstructure:"window"`
}

// Validate checks rule invariants
func (rc RuleConfig) Validate() error {
	return validation.ValidateStruct(&rc,
		validation.Field(&rc.MaxCount, validation.Required, validation.Min(int64(1))),
		validation.Field(&rc.Window, validation.Required, validation.Min(time.Second)),
	)
}

// Config quota catalog configuration
// Defaults apply to every tier; Tiers holds per-tier overrides merged on top
type Config struct {
	Defaults map[string]RuleConfig            `mapstructure:"defaults"`
	Tiers    map[string]map[string]RuleConfig `mapstructure:"tiers"`
}

// DefaultConfig returns the builtin policy table: base limits per endpoint
// class with premium/enterprise raises, mirroring the platform defaults.
func DefaultConfig() Config {
	return Config{
		Defaults: map[string]RuleConfig{
			string(ClassAPI):       {MaxCount: 1000, Window: time.Hour},
			string(ClassAuth):      {MaxCount: 10, Window: 5 * time.Minute},
			string(ClassUpload):    {MaxCount: 50, Window: time.Hour},
			string(ClassInference): {MaxCount: 100, Window: time.Hour},
			string(ClassTelemetry): {MaxCount: 10000, Window: time.Hour},
		},
		Tiers: map[string]map[string]RuleConfig{
			string(TierPremium): {
				string(ClassAPI):       {MaxCount: 5000, Window: time.Hour},
				string(ClassInference): {MaxCount: 500, Window: time.Hour},
				string(ClassUpload):    {MaxCount: 200, Window: time.Hour},
			},
			string(TierEnterprise): {
				string(ClassAPI):       {MaxCount: 20000, Window: time.Hour},
				string(ClassInference): {MaxCount: 2000, Window: time.Hour},
				string(ClassUpload):    {MaxCount: 1000, Window: time.Hour},
			},
		},
	}
}

// ApplyDefaults fills missing sections from the builtin policy table
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if len(c.Defaults) == 0 {
		c.Defaults = def.Defaults
	}
	if len(c.Tiers) == 0 {
		c.Tiers = def.Tiers
	}
}

// Validate checks every configured rule
func (c *Config) Validate() error {
	for class, rc := range c.Defaults {
		if err := rc.Validate(); err != nil {
			return fmt.Errorf("quota defaults[%s]: %w", class, err)
		}
	}
	for tier, rules := range c.Tiers {
		for class, rc := range rules {
			if err := rc.Validate(); err != nil {
				return fmt.Errorf("quota tiers[%s][%s]: %w", tier, class, err)
			}
		}
	}
	return nil
}
