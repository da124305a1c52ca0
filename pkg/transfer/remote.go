package transfer

import (
	"context"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sdejongh/locsync/internal/platform"
	"github.com/sdejongh/locsync/pkg/logging"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/sdejongh/locsync/pkg/ratelimit"
	"github.com/sdejongh/locsync/pkg/shell"
	"github.com/spf13/afero"
)

// RemoteShell copies one file per scp invocation. It is the fallback when
// rsync is missing and one side is remote.
type RemoteShell struct {
	Runner    shell.Runner
	SCP       string
	SSH       string
	FS        afero.Fs
	Bandwidth int64 // bytes per second, 0 = unlimited
	Progress  Progress
	Logger    logging.Logger
}

// Name implements Backend
func (r *RemoteShell) Name() string { return string(KindRemoteShell) }

// Copy implements Backend
func (r *RemoteShell) Copy(ctx context.Context, req Request) error {
	if len(req.Files) == 0 {
		return nil
	}
	srcRemote := platform.IsRemote(req.SourceHost)
	dstRemote := platform.IsRemote(req.DestHost)
	if srcRemote && dstRemote {
		return &models.InvariantViolation{Reason: "cannot copy between two remote locations"}
	}

	if err := r.makeParents(ctx, req, dstRemote); err != nil {
		return err
	}

	progress := progressOrNop(r.Progress)
	progress.Start(len(req.Files), totalSize(req))
	defer progress.Finish()

	for _, p := range req.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		from, err := platform.JoinRoot(req.SourceRoot, p, srcRemote)
		if err != nil {
			return &models.InvariantViolation{Reason: err.Error()}
		}
		to, err := platform.JoinRoot(req.DestRoot, p, dstRemote)
		if err != nil {
			return &models.InvariantViolation{Reason: err.Error()}
		}

		size := sizeOf(req, p)
		progress.BeginFile(p, size)

		cmd := shell.Command{
			Program: r.SCP,
			Args: append(r.args(),
				platform.Qualify(req.SourceHost, from),
				platform.Qualify(req.DestHost, to),
			),
		}
		if _, err := r.Runner.Run(ctx, cmd); err != nil {
			return &models.IOError{Op: "scp", Path: platform.Qualify(req.SourceHost, from), Err: err}
		}

		if size > 0 {
			progress.Add(size)
		}
		progress.EndFile(p)
		r.logger().Debug(ctx, "file copied", logging.Fields{"path": p, "host": req.DestHost})
	}
	return nil
}

// Move implements Backend. A move must stay on one filesystem, which scp
// cannot guarantee.
func (r *RemoteShell) Move(ctx context.Context, req Request) error {
	return &models.InvariantViolation{Reason: "cannot move files across hosts"}
}

// Remove implements Backend by running rm on the file's host
func (r *RemoteShell) Remove(ctx context.Context, req RemoveRequest) error {
	if len(req.Files) == 0 {
		return nil
	}
	if !platform.IsRemote(req.Host) {
		return &models.InvariantViolation{Reason: "remote shell backend needs a remote host"}
	}

	progress := progressOrNop(r.Progress)
	progress.Start(len(req.Files), -1)
	defer progress.Finish()

	remote := shell.Remote{Runner: r.Runner, SSH: r.SSH, Host: req.Host}
	for _, p := range req.Files {
		full, err := platform.JoinRoot(req.Root, p, true)
		if err != nil {
			return &models.InvariantViolation{Reason: err.Error()}
		}
		progress.BeginFile(p, -1)
		if _, err := remote.Exec(ctx, "rm -- "+shell.QuotePath(full), ""); err != nil {
			return &models.IOError{Op: "remove", Path: platform.Qualify(req.Host, full), Err: err}
		}
		progress.EndFile(p)
	}
	return nil
}

func (r *RemoteShell) args() []string {
	args := []string{"-p"}
	if kbit := ratelimit.KbitPerSecond(r.Bandwidth); kbit > 0 {
		args = append(args, "-l", strconv.FormatInt(kbit, 10))
	}
	return args
}

// makeParents creates the destination directories of all files up front
func (r *RemoteShell) makeParents(ctx context.Context, req Request, remote bool) error {
	seen := make(map[string]struct{})
	var dirs []string
	for _, p := range req.Files {
		dir := path.Dir(p)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		full, err := platform.JoinRoot(req.DestRoot, p, remote)
		if err != nil {
			return &models.InvariantViolation{Reason: err.Error()}
		}
		if remote {
			dirs = append(dirs, path.Dir(full))
		} else {
			dirs = append(dirs, filepath.Dir(full))
		}
	}

	if remote {
		sh := shell.Remote{Runner: r.Runner, SSH: r.SSH, Host: req.DestHost}
		if err := sh.MkdirAll(ctx, dirs); err != nil {
			return &models.IOError{Op: "mkdir", Path: req.DestHost + ":" + strings.Join(dirs, " "), Err: err}
		}
		return nil
	}
	for _, d := range dirs {
		if err := r.FS.MkdirAll(d, 0o755); err != nil {
			return &models.IOError{Op: "mkdir", Path: d, Err: err}
		}
	}
	return nil
}

func (r *RemoteShell) logger() logging.Logger {
	if r.Logger == nil {
		return logging.NewNullLogger()
	}
	return r.Logger
}

var _ Backend = (*RemoteShell)(nil)
