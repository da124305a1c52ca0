package transfer

import (
	"context"
	"io"

	"github.com/sdejongh/locsync/internal/platform"
	"github.com/sdejongh/locsync/pkg/logging"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/sdejongh/locsync/pkg/ratelimit"
	"github.com/sdejongh/locsync/pkg/storage"
	"github.com/spf13/afero"
)

// Local copies files directly through the filesystem
type Local struct {
	FS       afero.Fs
	Limiter  *ratelimit.Limiter
	Progress Progress
	Logger   logging.Logger
}

// Name implements Backend
func (l *Local) Name() string { return string(KindLocal) }

// Copy implements Backend
func (l *Local) Copy(ctx context.Context, req Request) error {
	return l.run(ctx, req, false)
}

// Move implements Backend. Files are renamed when both roots share a
// device and copied then deleted otherwise.
func (l *Local) Move(ctx context.Context, req Request) error {
	return l.run(ctx, req, true)
}

func (l *Local) run(ctx context.Context, req Request, move bool) error {
	if platform.IsRemote(req.SourceHost) || platform.IsRemote(req.DestHost) {
		return &models.InvariantViolation{Reason: "local backend cannot reach remote hosts"}
	}

	src, err := storage.NewLocal(l.FS, req.SourceRoot)
	if err != nil {
		return &models.IOError{Op: "open", Path: req.SourceRoot, Err: err}
	}
	dst, err := storage.NewLocal(l.FS, req.DestRoot)
	if err != nil {
		return &models.IOError{Op: "open", Path: req.DestRoot, Err: err}
	}

	progress := progressOrNop(l.Progress)
	progress.Start(len(req.Files), l.total(ctx, src, req))
	defer progress.Finish()

	op := "copy"
	if move {
		op = "move"
	}

	for _, p := range req.Files {
		if err := ctx.Err(); err != nil {
			return err
		}

		size := sizeOf(req, p)
		if info, err := src.Stat(ctx, p); err == nil {
			size = info.Size
		}
		progress.BeginFile(p, size)

		var pr *progressReader
		wrap := func(r io.Reader) io.Reader {
			pr = newProgressReader(ratelimit.NewReader(ctx, r, l.Limiter), progress.Add)
			return pr
		}

		if move {
			err = storage.MoveFile(ctx, src, p, dst, p, wrap)
		} else {
			err = storage.CopyFile(ctx, src, p, dst, p, wrap)
		}
		if pr != nil {
			pr.flush()
		} else if err == nil && size > 0 {
			// renamed without reading
			progress.Add(size)
		}
		if err != nil {
			return &models.IOError{Op: op, Path: src.Abs(p), Err: err}
		}

		progress.EndFile(p)
		l.logger().Debug(ctx, "file transferred", logging.Fields{"op": op, "path": p, "size": size})
	}
	return nil
}

// Remove implements Backend
func (l *Local) Remove(ctx context.Context, req RemoveRequest) error {
	if platform.IsRemote(req.Host) {
		return &models.InvariantViolation{Reason: "local backend cannot reach remote hosts"}
	}
	root, err := storage.NewLocal(l.FS, req.Root)
	if err != nil {
		return &models.IOError{Op: "open", Path: req.Root, Err: err}
	}

	progress := progressOrNop(l.Progress)
	progress.Start(len(req.Files), -1)
	defer progress.Finish()

	for _, p := range req.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		progress.BeginFile(p, -1)
		if err := root.Delete(ctx, p); err != nil {
			return &models.IOError{Op: "remove", Path: root.Abs(p), Err: err}
		}
		progress.EndFile(p)
		l.logger().Debug(ctx, "file removed", logging.Fields{"path": p})
	}
	return nil
}

func (l *Local) total(ctx context.Context, src *storage.Local, req Request) int64 {
	if n := totalSize(req); n >= 0 {
		return n
	}
	var total int64
	for _, p := range req.Files {
		info, err := src.Stat(ctx, p)
		if err != nil {
			return -1
		}
		total += info.Size
	}
	return total
}

func (l *Local) logger() logging.Logger {
	if l.Logger == nil {
		return logging.NewNullLogger()
	}
	return l.Logger
}

var _ Backend = (*Local)(nil)
