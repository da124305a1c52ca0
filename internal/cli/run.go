package cli

import (
	"context"
	"fmt"

	"github.com/sdejongh/locsync/pkg/location"
	"github.com/sdejongh/locsync/pkg/logging"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/sdejongh/locsync/pkg/output"
	"github.com/sdejongh/locsync/pkg/plan"
	"github.com/sdejongh/locsync/pkg/transfer"
)

var pastTense = map[models.OperationKind]string{
	models.OperationCopy:   "copied",
	models.OperationMove:   "moved",
	models.OperationRemove: "removed",
}

// executePlan shows, confirms and runs a copy or move plan from src to dst
func (a *App) executePlan(ctx context.Context, p *plan.Plan, opts models.TransferOptions, src, dst location.Location) error {
	if p.State == models.StateDone {
		fmt.Fprintln(a.Stdout, p.Notice)
		return nil
	}

	kind, err := transfer.Select(a.capabilities(), src.Host, dst.Host, p.Kind)
	if err != nil {
		return err
	}

	theme, err := output.NewTheme(opts.Colors)
	if err != nil {
		return err
	}
	if !opts.Force {
		if err := output.WritePlan(a.Stdout, theme, p); err != nil {
			return err
		}
	}

	if err := p.Confirm(opts.Force, opts.DryRun, a.Prompter); err != nil {
		return err
	}
	if p.State == models.StateAborted {
		return nil
	}

	// rsync draws its own progress
	progress := output.NewProgress(a.Stderr, pastTense[p.Kind], opts.Quiet || kind == transfer.KindMirror)
	target := plan.Target{
		SourceRoot: src.Root,
		SourceHost: src.Host,
		DestRoot:   dst.Root,
		DestHost:   dst.Host,
		Sizes:      knownSizes(src),
		Checksum:   opts.Checksum,
	}
	return p.Execute(ctx, a.backend(kind, opts, progress), target, a.Logger)
}

// verifyUnverified fingerprints the ?= paths on both sides and reclassifies
// them as == or !=
func (a *App) verifyUnverified(ctx context.Context, res models.DiffResult, src, dst location.Location, quiet bool) error {
	unverified := append([]string(nil), res.Get(models.RelationUnverified)...)
	if len(unverified) == 0 {
		return nil
	}

	progress := output.NewProgress(a.Stderr, "hashed", quiet)
	progress.Start(2*len(unverified), -1)
	defer progress.Finish()
	h := a.hasher(progress)

	s, err := src.Subset(unverified)
	if err != nil {
		return err
	}
	if s, err = s.WithFingerprints(ctx, h); err != nil {
		return err
	}
	d, err := location.New(dst.Root, dst.Host, nil)
	if err != nil {
		return err
	}
	if d, err = d.WithPaths(unverified); err != nil {
		return err
	}
	if d, err = d.WithFingerprints(ctx, h); err != nil {
		return err
	}

	verified, err := a.engine().Offline(ctx, s, d)
	if err != nil {
		return err
	}
	for _, r := range []models.Relation{models.RelationEqual, models.RelationDiffers} {
		for _, p := range verified.Get(r) {
			res.Promote(p, r)
		}
	}
	a.Logger.Debug(ctx, "verified fingerprints", logging.Fields{
		"files":  len(unverified),
		"equal":  len(verified.Get(models.RelationEqual)),
		"differ": len(verified.Get(models.RelationDiffers)),
	})
	return nil
}

// knownSizes returns the recorded sizes of src's files
func knownSizes(src location.Location) map[string]int64 {
	sizes := make(map[string]int64)
	for _, f := range src.Files() {
		if f.HasInfo {
			sizes[f.Path] = f.Size
		}
	}
	return sizes
}
