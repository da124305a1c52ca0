package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. LOCSYNC_TOOLS_RSYNC
const EnvPrefix = "LOCSYNC"

// Load reads the configuration from path, or from the default location when
// path is empty. A missing default file is not an error; a missing explicit
// file is. Environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	explicit := path != ""
	if !explicit {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	} else {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, fmt.Errorf("failed to expand config path: %w", err)
		}
		path = expanded
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !(errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see it during Unmarshal
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("manifest.dump_file", cfg.Manifest.DumpFile)
	v.SetDefault("manifest.hostinfo_file", cfg.Manifest.HostinfoFile)
	v.SetDefault("tools.rsync", cfg.Tools.Rsync)
	v.SetDefault("tools.ssh", cfg.Tools.SSH)
	v.SetDefault("tools.scp", cfg.Tools.SCP)
	v.SetDefault("performance.max_workers", cfg.Performance.MaxWorkers)
	v.SetDefault("performance.buffer_size", cfg.Performance.BufferSize)
	v.SetDefault("performance.bandwidth_limit", cfg.Performance.BandwidthLimit)
	v.SetDefault("output.colors", string(cfg.Output.Colors))
	v.SetDefault("output.progress", cfg.Output.Progress)
	v.SetDefault("output.quiet", cfg.Output.Quiet)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
}

// SaveToFile saves configuration to a YAML file
func SaveToFile(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".config", "locsync", "config.yaml"), nil
}
