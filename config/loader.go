// Package config loads layered configuration: YAML file first, then
// environment variables on top (APP_ADMISSION_STORE_TIMEOUT overrides
// admission.store_timeout and so on).
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Loader configuration loader
type Loader struct {
	v         *viper.Viper
	path      string
	envPrefix string
}

// NewLoader creates a loader for the given config file path and env prefix
// path may be empty, in which case only env variables apply
func NewLoader(path, envPrefix string) *Loader {
	if envPrefix == "" {
		envPrefix = "APP"
	}
	return &Loader{
		v:         viper.New(),
		path:      path,
		envPrefix: envPrefix,
	}
}

// Load reads and merges all sources
func (l *Loader) Load() error {
	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.path != "" {
		l.v.SetConfigFile(l.path)
		if err := l.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s failed: %w", l.path, err)
		}
	}
	return nil
}

// UnmarshalKey decodes one configuration section into out
func (l *Loader) UnmarshalKey(key string, out interface{}) error {
	if err := l.v.UnmarshalKey(key, out); err != nil {
		return fmt.Errorf("unmarshal config section %q failed: %w", key, err)
	}
	return nil
}

// IsSet reports whether a key is present in any source
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}

// GetString returns a string value (empty if unset)
func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

// Viper exposes the underlying viper instance
func (l *Loader) Viper() *viper.Viper {
	return l.v
}
