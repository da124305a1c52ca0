package transfer

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sdejongh/locsync/internal/platform"
	"github.com/sdejongh/locsync/pkg/logging"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/sdejongh/locsync/pkg/ratelimit"
	"github.com/sdejongh/locsync/pkg/shell"
)

// Mirror hands each batch to one rsync process, which skips files that are
// already up to date
type Mirror struct {
	Runner    shell.Runner
	Rsync     string
	SSH       string
	Bandwidth int64 // bytes per second, 0 = unlimited
	// Output receives rsync's overall progress when set
	Output   io.Writer
	Progress Progress
	Logger   logging.Logger
}

// Name implements Backend
func (m *Mirror) Name() string { return string(KindMirror) }

// Copy implements Backend
func (m *Mirror) Copy(ctx context.Context, req Request) error {
	return m.run(ctx, req, false)
}

// Move implements Backend. rsync deletes each source file once it is
// transferred.
func (m *Mirror) Move(ctx context.Context, req Request) error {
	if req.SourceHost != req.DestHost {
		return &models.InvariantViolation{Reason: "cannot move files across hosts"}
	}
	return m.run(ctx, req, true)
}

// Remove implements Backend. rsync has no way to delete an explicit file
// list, so removal always goes through another backend.
func (m *Mirror) Remove(ctx context.Context, req RemoveRequest) error {
	return &models.InvariantViolation{Reason: "rsync backend does not remove files"}
}

func (m *Mirror) run(ctx context.Context, req Request, move bool) error {
	if len(req.Files) == 0 {
		return nil
	}
	if platform.IsRemote(req.SourceHost) && platform.IsRemote(req.DestHost) {
		return &models.InvariantViolation{Reason: "cannot copy between two remote locations"}
	}

	progress := progressOrNop(m.Progress)
	progress.Start(len(req.Files), totalSize(req))
	defer progress.Finish()

	cmd := shell.Command{
		Program: m.Rsync,
		Args:    m.args(req, move),
		Stdin:   strings.Join(req.Files, "\n") + "\n",
		Stdout:  m.Output,
	}
	m.logger().Info(ctx, "running rsync", logging.Fields{"command": cmd.String(), "files": len(req.Files)})

	if _, err := m.Runner.Run(ctx, cmd); err != nil {
		return &models.IOError{
			Op:   "rsync",
			Path: platform.Qualify(req.SourceHost, req.SourceRoot),
			Err:  fmt.Errorf("transfer to %s failed: %w", platform.Qualify(req.DestHost, req.DestRoot), err),
		}
	}

	for _, p := range req.Files {
		size := sizeOf(req, p)
		progress.BeginFile(p, size)
		if size > 0 {
			progress.Add(size)
		}
		progress.EndFile(p)
	}
	return nil
}

func (m *Mirror) args(req Request, move bool) []string {
	args := []string{"-a", "--files-from=-"}
	if req.Checksum {
		args = append(args, "--checksum")
	}
	if kib := ratelimit.KiBPerSecond(m.Bandwidth); kib > 0 {
		args = append(args, "--bwlimit="+strconv.FormatInt(kib, 10))
	}
	if m.Output != nil {
		args = append(args, "--info=progress2")
	}
	if move {
		args = append(args, "--remove-source-files")
	}
	if m.SSH != "" && (platform.IsRemote(req.SourceHost) || platform.IsRemote(req.DestHost)) {
		args = append(args, "-e", m.SSH)
	}
	return append(args,
		withSlash(platform.Qualify(req.SourceHost, req.SourceRoot)),
		withSlash(platform.Qualify(req.DestHost, req.DestRoot)),
	)
}

func (m *Mirror) logger() logging.Logger {
	if m.Logger == nil {
		return logging.NewNullLogger()
	}
	return m.Logger
}

func withSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}

var _ Backend = (*Mirror)(nil)
