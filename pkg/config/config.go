package config

import (
	"github.com/sdejongh/locsync/pkg/models"
)

// Config represents the application configuration
type Config struct {
	Manifest    ManifestConfig    `yaml:"manifest" mapstructure:"manifest"`
	Tools       ToolsConfig       `yaml:"tools" mapstructure:"tools"`
	Performance PerformanceConfig `yaml:"performance" mapstructure:"performance"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

// ManifestConfig holds the default manifest file names
type ManifestConfig struct {
	DumpFile     string `yaml:"dump_file" mapstructure:"dump_file"`
	HostinfoFile string `yaml:"hostinfo_file" mapstructure:"hostinfo_file"`
}

// ToolsConfig names the external programs used for transfers
type ToolsConfig struct {
	Rsync string `yaml:"rsync" mapstructure:"rsync"`
	SSH   string `yaml:"ssh" mapstructure:"ssh"`
	SCP   string `yaml:"scp" mapstructure:"scp"`
}

// PerformanceConfig holds performance-related settings
type PerformanceConfig struct {
	MaxWorkers     int   `yaml:"max_workers" mapstructure:"max_workers"`
	BufferSize     int   `yaml:"buffer_size" mapstructure:"buffer_size"`
	BandwidthLimit int64 `yaml:"bandwidth_limit" mapstructure:"bandwidth_limit"` // bytes/s, 0 = unlimited
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Colors   models.ColorScheme `yaml:"colors" mapstructure:"colors"`
	Progress bool               `yaml:"progress" mapstructure:"progress"`
	Quiet    bool               `yaml:"quiet" mapstructure:"quiet"`
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Format string `yaml:"format" mapstructure:"format"` // "json" or "text"
	Level  string `yaml:"level" mapstructure:"level"`   // "debug", "info", "warn", "error"
	File   string `yaml:"file" mapstructure:"file"`     // Log file path (empty = stderr)
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Manifest: ManifestConfig{
			DumpFile:     "locsync_dump.yaml",
			HostinfoFile: "locsync_hostinfo.yaml",
		},
		Tools: ToolsConfig{
			Rsync: "rsync",
			SSH:   "ssh",
			SCP:   "scp",
		},
		Performance: PerformanceConfig{
			MaxWorkers:     4,
			BufferSize:     65536,
			BandwidthLimit: 0,
		},
		Output: OutputConfig{
			Colors:   models.ColorsDark,
			Progress: true,
			Quiet:    false,
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "warn",
			File:   "",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Manifest.DumpFile == "" {
		return &models.ValidationError{Field: "manifest.dump_file", Message: "must not be empty"}
	}

	if c.Manifest.HostinfoFile == "" {
		return &models.ValidationError{Field: "manifest.hostinfo_file", Message: "must not be empty"}
	}

	if c.Tools.Rsync == "" || c.Tools.SSH == "" || c.Tools.SCP == "" {
		return &models.ValidationError{Field: "tools", Message: "rsync, ssh and scp must be named"}
	}

	if c.Performance.MaxWorkers < 1 {
		return &models.ValidationError{
			Field:   "performance.max_workers",
			Message: "must be at least 1",
		}
	}

	if c.Performance.BufferSize < 1024 {
		return &models.ValidationError{
			Field:   "performance.buffer_size",
			Message: "must be at least 1024 bytes",
		}
	}

	if c.Performance.BandwidthLimit < 0 {
		return &models.ValidationError{
			Field:   "performance.bandwidth_limit",
			Message: "must not be negative",
		}
	}

	if c.Output.Colors != models.ColorsNone && c.Output.Colors != models.ColorsDark {
		return &models.ValidationError{
			Field:   "output.colors",
			Message: "must be 'none' or 'dark'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	return nil
}
