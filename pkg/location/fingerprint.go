package location

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/sdejongh/locsync/pkg/checksum"
	"github.com/sdejongh/locsync/pkg/logging"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/sdejongh/locsync/pkg/shell"
	"golang.org/x/sync/errgroup"
)

// Hasher computes sizes and fingerprints for the records of a Location
type Hasher struct {
	Checksum *checksum.Service
	// Runner and SSH are used for remote roots
	Runner shell.Runner
	SSH    string
	// Workers bounds concurrent local hashing (minimum 1)
	Workers int
	// OnFile is called after each local file is hashed; may be nil
	OnFile func(path string, size int64)
	Logger logging.Logger
}

// WithFingerprints returns a copy of l where every record carries size and
// fingerprint. Records that already have them are hashed again.
func (l Location) WithFingerprints(ctx context.Context, h Hasher) (Location, error) {
	if h.Logger == nil {
		h.Logger = logging.NewNullLogger()
	}
	if l.IsRemote() {
		return l.remoteFingerprints(ctx, h)
	}
	return l.localFingerprints(ctx, h)
}

func (l Location) localFingerprints(ctx context.Context, h Hasher) (Location, error) {
	workers := h.Workers
	if workers < 1 {
		workers = 1
	}

	files := l.Files()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var done atomic.Int64
	for i := range files {
		i := i
		g.Go(func() error {
			full, err := l.Resolve(files[i].Path)
			if err != nil {
				return err
			}
			sum, err := h.Checksum.FingerprintFile(gctx, full)
			if err != nil {
				return err
			}
			files[i].Size = sum.Size
			files[i].Fingerprint = sum.Fingerprint
			files[i].HasInfo = true
			if h.OnFile != nil {
				h.OnFile(files[i].Path, sum.Size)
			}
			done.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Location{}, fmt.Errorf("failed to compute fingerprints in %s: %w", l.Root, err)
	}

	h.Logger.Debug(ctx, "computed fingerprints", logging.Fields{"root": l.Root, "files": done.Load(), "workers": workers})
	return l.WithFiles(files)
}

func (l Location) remoteFingerprints(ctx context.Context, h Hasher) (Location, error) {
	files := l.Files()
	if len(files) == 0 {
		return l, nil
	}

	remote := shell.Remote{Runner: h.Runner, SSH: h.SSH, Host: l.Host}
	script := "cd " + shell.QuotePath(l.Root) + " && " + checksum.RemoteInfoScript()
	res, err := remote.Exec(ctx, script, strings.Join(l.Paths(), "\n")+"\n")
	if err != nil {
		return Location{}, &models.IOError{Op: "fingerprint", Path: l.HostPath(), Err: err}
	}

	sums, err := checksum.ParseInfoOutput(strings.NewReader(res.Stdout))
	if err != nil {
		return Location{}, &models.IOError{Op: "fingerprint", Path: l.HostPath(), Err: err}
	}

	for i := range files {
		sum, ok := sums[files[i].Path]
		if !ok {
			return Location{}, &models.IOError{Op: "fingerprint", Path: files[i].Path, Err: fmt.Errorf("no checksum returned by %s", l.Host)}
		}
		files[i].Size = sum.Size
		files[i].Fingerprint = sum.Fingerprint
		files[i].HasInfo = true
	}

	h.Logger.Debug(ctx, "computed remote fingerprints", logging.Fields{"host": l.Host, "root": l.Root, "files": len(files)})
	return l.WithFiles(files)
}
