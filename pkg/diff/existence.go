package diff

import (
	"context"

	"github.com/sdejongh/locsync/pkg/location"
	"github.com/sdejongh/locsync/pkg/logging"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/sdejongh/locsync/pkg/shell"
	"github.com/sdejongh/locsync/pkg/storage"
	"github.com/spf13/afero"
)

// ExistenceStrategy only checks which side has each file. It never proves
// equality, so files on both sides are ?=.
type ExistenceStrategy struct {
	FS     afero.Fs
	Runner shell.Runner
	SSH    string
	Logger logging.Logger
}

// Name implements Strategy
func (e *ExistenceStrategy) Name() string { return "existence" }

// Diff implements Strategy
func (e *ExistenceStrategy) Diff(ctx context.Context, src, dst location.Location) (models.DiffResult, error) {
	logger := e.Logger
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	paths := src.Paths()
	inSrc, err := e.existing(ctx, src, paths)
	if err != nil {
		return nil, err
	}
	inDst, err := e.existing(ctx, dst, paths)
	if err != nil {
		return nil, err
	}

	res := models.NewDiffResult()
	for _, p := range paths {
		switch {
		case inSrc[p] && inDst[p]:
			res.Add(models.RelationUnverified, p)
		case inSrc[p]:
			res.Add(models.RelationSourceOnly, p)
		case inDst[p]:
			res.Add(models.RelationDestOnly, p)
		default:
			logger.Warn(ctx, "file missing on both sides, skipped", logging.Fields{"path": p})
		}
	}

	if err := validateWithin(res, paths); err != nil {
		return nil, err
	}
	return res, nil
}

// existing returns which of paths exist below loc's root
func (e *ExistenceStrategy) existing(ctx context.Context, loc location.Location, paths []string) (map[string]bool, error) {
	if loc.IsRemote() {
		remote := shell.Remote{Runner: e.Runner, SSH: e.SSH, Host: loc.Host}
		return remote.ExistingFiles(ctx, loc.Root, paths)
	}

	root, err := storage.NewLocal(e.FS, loc.Root)
	if err != nil {
		return nil, &models.IOError{Op: "stat", Path: loc.Root, Err: err}
	}
	out := make(map[string]bool, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := root.Exists(ctx, p)
		if err != nil {
			return nil, &models.IOError{Op: "stat", Path: root.Abs(p), Err: err}
		}
		out[p] = ok
	}
	return out, nil
}
