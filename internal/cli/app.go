package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sdejongh/locsync/pkg/checksum"
	"github.com/sdejongh/locsync/pkg/config"
	"github.com/sdejongh/locsync/pkg/diff"
	"github.com/sdejongh/locsync/pkg/location"
	"github.com/sdejongh/locsync/pkg/logging"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/sdejongh/locsync/pkg/plan"
	"github.com/sdejongh/locsync/pkg/ratelimit"
	"github.com/sdejongh/locsync/pkg/shell"
	"github.com/sdejongh/locsync/pkg/transfer"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// App carries the dependencies shared by all commands
type App struct {
	FS       afero.Fs
	Runner   shell.Runner
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
	Prompter plan.Prompter

	Config *config.Config
	Logger logging.Logger

	global GlobalFlags
}

// NewApp returns an App wired to the OS filesystem, real processes and the
// standard streams
func NewApp() *App {
	return &App{
		FS:     afero.NewOsFs(),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run executes the command line and returns the process exit code
func (a *App) Run(ctx context.Context, args []string) int {
	root := a.RootCommand()
	root.SetArgs(args)
	root.SetIn(a.Stdin)
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)

	err := root.ExecuteContext(ctx)
	if a.Logger != nil {
		if err != nil {
			a.Logger.Debug(ctx, "command failed", logging.Fields{"error": err.Error(), "exit_code": models.ExitCode(err)})
		}
		a.Logger.Close()
	}

	switch {
	case err == nil:
	case errors.Is(err, models.ErrCancelled):
		fmt.Fprintln(a.Stderr, err)
	default:
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
	}
	return models.ExitCode(err)
}

// setup loads the configuration and creates the logger. It runs before
// every command. A preset Config is kept.
func (a *App) setup(cmd *cobra.Command) error {
	if a.Config == nil {
		cfg, err := config.Load(a.global.ConfigFile)
		if err != nil {
			return err
		}
		a.Config = cfg
	}

	logger, err := createLogger(a.Config, a.global, a.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.Logger = logger

	if a.Runner == nil {
		a.Runner = shell.NewExecRunner(logger)
	}
	if a.Prompter == nil {
		a.Prompter = NewPrompter(a.Stdin, a.Stdout)
	}
	return nil
}

// hasRsync reports whether the configured rsync binary is installed
func (a *App) hasRsync() bool {
	return shell.Available(a.Runner, a.Config.Tools.Rsync)
}

// capabilities probes the transfer tools
func (a *App) capabilities() transfer.Capabilities {
	return transfer.Capabilities{
		MirrorAvailable: a.hasRsync(),
		ShellAvailable:  shell.Available(a.Runner, a.Config.Tools.SSH) && shell.Available(a.Runner, a.Config.Tools.SCP),
	}
}

// engine builds the diff engine; rsync is only used when installed
func (a *App) engine() *diff.Engine {
	e := &diff.Engine{
		Existence: &diff.ExistenceStrategy{FS: a.FS, Runner: a.Runner, SSH: a.Config.Tools.SSH, Logger: a.Logger},
		Logger:    a.Logger,
	}
	if a.hasRsync() {
		e.Mirror = &diff.MirrorStrategy{Runner: a.Runner, Rsync: a.Config.Tools.Rsync, SSH: a.Config.Tools.SSH, Logger: a.Logger}
	}
	return e
}

// hasher builds the fingerprint hasher; progress may be nil
func (a *App) hasher(progress transfer.Progress) location.Hasher {
	h := location.Hasher{
		Checksum: checksum.New(a.FS, a.Config.Performance.BufferSize),
		Runner:   a.Runner,
		SSH:      a.Config.Tools.SSH,
		Workers:  a.Config.Performance.MaxWorkers,
		Logger:   a.Logger,
	}
	if progress != nil {
		h.OnFile = func(path string, size int64) {
			progress.BeginFile(path, size)
			progress.EndFile(path)
		}
	}
	return h
}

// scanner builds what Location.Refresh needs
func (a *App) scanner() location.Scanner {
	return location.Scanner{FS: a.FS, Runner: a.Runner, SSH: a.Config.Tools.SSH}
}

// backend builds the transfer backend of kind
func (a *App) backend(kind transfer.Kind, opts models.TransferOptions, progress transfer.Progress) transfer.Backend {
	switch kind {
	case transfer.KindMirror:
		m := &transfer.Mirror{
			Runner:    a.Runner,
			Rsync:     a.Config.Tools.Rsync,
			SSH:       a.Config.Tools.SSH,
			Bandwidth: opts.Bandwidth,
			Logger:    a.Logger,
		}
		if !opts.Quiet {
			m.Output = a.Stdout
		}
		return m
	case transfer.KindRemoteShell:
		return &transfer.RemoteShell{
			Runner:    a.Runner,
			SCP:       a.Config.Tools.SCP,
			SSH:       a.Config.Tools.SSH,
			FS:        a.FS,
			Bandwidth: opts.Bandwidth,
			Progress:  progress,
			Logger:    a.Logger,
		}
	default:
		return &transfer.Local{
			FS:       a.FS,
			Limiter:  ratelimit.NewLimiter(opts.Bandwidth),
			Progress: progress,
			Logger:   a.Logger,
		}
	}
}
