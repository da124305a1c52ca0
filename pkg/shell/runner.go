// Package shell runs the external programs locsync delegates to (rsync,
// ssh, scp, find, sha256sum) and probes whether they are installed.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/sdejongh/locsync/pkg/logging"
)

// Command describes one process invocation
type Command struct {
	Program string
	Args    []string
	// Dir is the working directory (empty = current)
	Dir string
	// Stdin is fed to the process when not empty
	Stdin string
	// Stdout, when set, receives stdout as it is produced in addition to capture
	Stdout io.Writer
}

// String renders the command line for logs and dry runs
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Program)
	for _, a := range c.Args {
		parts = append(parts, Quote(a))
	}
	return strings.Join(parts, " ")
}

// Result holds the captured output of a finished process
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes external programs
type Runner interface {
	// Run executes cmd and returns its output. A non-zero exit is an *ExitError.
	Run(ctx context.Context, cmd Command) (*Result, error)

	// LookPath reports where program is installed
	LookPath(program string) (string, error)
}

// ExitError reports a process that ran but exited non-zero
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	logger logging.Logger
}

// NewExecRunner creates a runner logging every invocation at debug level
func NewExecRunner(logger logging.Logger) *ExecRunner {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &ExecRunner{logger: logger}
}

// Run implements Runner
func (r *ExecRunner) Run(ctx context.Context, c Command) (*Result, error) {
	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	cmd.Dir = c.Dir
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if c.Stdout != nil {
		cmd.Stdout = io.MultiWriter(&stdout, c.Stdout)
	}
	cmd.Stderr = &stderr

	r.logger.Debug(ctx, "running command", logging.Fields{"command": c.String(), "dir": c.Dir})
	err := cmd.Run()

	result := &Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return result, nil
	case ctx.Err() != nil:
		result.ExitCode = -1
		return result, ctx.Err()
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		return result, &ExitError{Command: c.Program, ExitCode: result.ExitCode, Stderr: result.Stderr}
	default:
		result.ExitCode = -1
		return result, fmt.Errorf("failed to run %s: %w", c.Program, err)
	}
}

// LookPath implements Runner
func (r *ExecRunner) LookPath(program string) (string, error) {
	return exec.LookPath(program)
}

// Available reports whether program can be found by the runner
func Available(r Runner, program string) bool {
	_, err := r.LookPath(program)
	return err == nil
}

// Quote quotes s for a POSIX shell when it contains special characters
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, func(c rune) bool {
		return !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || strings.ContainsRune("@%+=:,./_-", c))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// QuotePath is Quote for paths interpreted by a remote shell. A leading
// "~" is rendered as "$HOME" so it still expands.
func QuotePath(p string) string {
	switch {
	case p == "~":
		return `"$HOME"`
	case strings.HasPrefix(p, "~/"):
		rest := strings.TrimLeft(p[2:], "/")
		if rest == "" {
			return `"$HOME"/`
		}
		return `"$HOME"/` + Quote(rest)
	default:
		return Quote(p)
	}
}
