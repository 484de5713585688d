package logger

// Config logger manager configuration
type Config struct {
	// AppName application name (injected into every log line)
	AppName string `mapstructure:"app_name"`

	// Level minimum log level: debug, info, warn, error
	Level string `mapstructure:"level"`

	// Format output format: json, console
	Format string `mapstructure:"format"`

	// OutputDir directory for rotated log files (empty means stdout only)
	OutputDir string `mapstructure:"output_dir"`

	// Stdout also write to stdout when file output is enabled
	Stdout bool `mapstructure:"stdout"`

	// Rotation settings (lumberjack)
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// ApplyDefaults fills zero-value fields with defaults
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 100
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 10
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 30
	}
	if c.OutputDir == "" {
		c.Stdout = true
	}
}
