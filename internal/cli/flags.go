package cli

import (
	"fmt"
	"io"

	"github.com/sdejongh/locsync/pkg/config"
	"github.com/sdejongh/locsync/pkg/logging"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/sdejongh/locsync/pkg/ratelimit"
	"github.com/spf13/cobra"
)

// GlobalFlags holds global flag values
type GlobalFlags struct {
	ConfigFile string
	Verbose    bool
	LogFile    string
	LogFormat  string
	LogLevel   string
}

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().StringVar(
		&flags.ConfigFile,
		"config",
		"",
		"config file (default is $HOME/.config/locsync/config.yaml)",
	)
	cmd.PersistentFlags().BoolVarP(
		&flags.Verbose,
		"verbose",
		"v",
		false,
		"log debug messages",
	)
	cmd.PersistentFlags().StringVar(&flags.LogFile, "log-file", "", "write logs to file instead of stderr")
	cmd.PersistentFlags().StringVar(&flags.LogFormat, "log-format", "", "log format: text, json")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
}

// TransferFlags holds the flags shared by cp, mv and rm
type TransferFlags struct {
	Force     bool
	DryRun    bool
	Quiet     bool
	Colors    string
	Bandwidth string
}

func addTransferFlags(cmd *cobra.Command, flags *TransferFlags) {
	cmd.Flags().BoolVarP(&flags.Force, "force", "f", false, "proceed without prompt")
	cmd.Flags().BoolVarP(&flags.DryRun, "dry-run", "n", false, "print the plan and exit")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "do not print progress")
	cmd.Flags().StringVar(&flags.Colors, "colors", "", "color scheme: none, dark")
	cmd.Flags().StringVar(&flags.Bandwidth, "bandwidth", "", `bandwidth limit (e.g. "10MB", "512KiB")`)
}

// options merges flags over the configuration
func (f TransferFlags) options(cfg *config.Config) (models.TransferOptions, error) {
	opts := models.TransferOptions{
		Force:     f.Force,
		DryRun:    f.DryRun,
		Quiet:     f.Quiet || cfg.Output.Quiet || !cfg.Output.Progress,
		Colors:    cfg.Output.Colors,
		Bandwidth: cfg.Performance.BandwidthLimit,
	}
	if f.Colors != "" {
		opts.Colors = models.ColorScheme(f.Colors)
	}
	if f.Bandwidth != "" {
		bw, err := ratelimit.ParseBandwidth(f.Bandwidth)
		if err != nil {
			return opts, &models.ValidationError{Field: "bandwidth", Message: err.Error()}
		}
		opts.Bandwidth = bw
	}
	return opts, opts.Validate()
}

// createLogger builds the console or file logger from configuration and
// flags
func createLogger(cfg *config.Config, flags GlobalFlags, stderr io.Writer) (logging.Logger, error) {
	level := cfg.Logging.Level
	if flags.LogLevel != "" {
		level = flags.LogLevel
	}
	if flags.Verbose {
		level = "debug"
	}

	format := cfg.Logging.Format
	if flags.LogFormat != "" {
		format = flags.LogFormat
	}
	if format != "text" && format != "json" {
		return nil, &models.ValidationError{Field: "log-format", Message: fmt.Sprintf("unknown format %q (valid: text, json)", format)}
	}

	path := cfg.Logging.File
	if flags.LogFile != "" {
		path = flags.LogFile
	}
	if path == "" {
		return logging.NewConsoleLogger(stderr, logging.ParseLevel(level)), nil
	}

	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       path,
		Format:     logging.Format(format),
		Level:      logging.ParseLevel(level),
		MaxSize:    10 * 1024 * 1024, // 10 MB
		MaxBackups: 5,
	})
}
