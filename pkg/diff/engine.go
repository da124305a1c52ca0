package diff

import (
	"context"
	"fmt"

	"github.com/sdejongh/locsync/pkg/location"
	"github.com/sdejongh/locsync/pkg/logging"
	"github.com/sdejongh/locsync/pkg/models"
)

// Engine picks a strategy for a pair of locations and post-processes its
// result
type Engine struct {
	Fingerprint FingerprintStrategy
	// Mirror is nil when rsync is not installed
	Mirror    *MirrorStrategy
	Existence *ExistenceStrategy
	Logger    logging.Logger
}

// LiveOptions tunes Engine.Live
type LiveOptions struct {
	// FingerprintOnly skips rsync and trusts only recorded fingerprints,
	// falling back to existence checks for the rest
	FingerprintOnly bool
}

// Offline compares the recorded file lists of two manifests
func (e *Engine) Offline(ctx context.Context, src, dst location.Location) (models.DiffResult, error) {
	e.logger().Debug(ctx, "comparing recorded file lists", logging.Fields{"strategy": e.Fingerprint.Name()})
	return e.Fingerprint.Diff(ctx, src, dst)
}

// Select returns the live strategy used for the source's files
func (e *Engine) Select(opts LiveOptions) Strategy {
	if e.Mirror != nil && !opts.FingerprintOnly {
		return e.Mirror
	}
	return e.Existence
}

// Live classifies the source's files against what is actually on disk at
// the destination. Paths whose recorded fingerprints already match on both
// sides are == without a live check.
func (e *Engine) Live(ctx context.Context, src, dst location.Location, opts LiveOptions) (models.DiffResult, error) {
	equal := knownEqual(src, dst)
	remaining := src
	if len(equal) > 0 {
		skip := make(map[string]struct{}, len(equal))
		for _, p := range equal {
			skip[p] = struct{}{}
		}
		var rest []string
		for _, p := range src.Paths() {
			if _, ok := skip[p]; !ok {
				rest = append(rest, p)
			}
		}
		var err error
		if remaining, err = src.Subset(rest); err != nil {
			return nil, err
		}
	}

	strategy := e.Select(opts)
	e.logger().Debug(ctx, "comparing locations", logging.Fields{
		"strategy": strategy.Name(),
		"source":   src.HostPath(),
		"dest":     dst.HostPath(),
		"files":    remaining.Len(),
		"known":    len(equal),
	})

	res, err := strategy.Diff(ctx, remaining, dst)
	if err != nil {
		return nil, fmt.Errorf("%s diff failed: %w", strategy.Name(), err)
	}

	for _, p := range equal {
		res.Add(models.RelationEqual, p)
	}

	if err := validateWithin(res, src.Paths()); err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Engine) logger() logging.Logger {
	if e.Logger == nil {
		return logging.NewNullLogger()
	}
	return e.Logger
}
