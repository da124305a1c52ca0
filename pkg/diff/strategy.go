// Package diff classifies the files of a source location against a
// destination into the relations ==, !=, ?=, -> and <-.
package diff

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sdejongh/locsync/pkg/location"
	"github.com/sdejongh/locsync/pkg/models"
)

// Strategy computes a DiffResult for a source and a destination
type Strategy interface {
	// Name identifies the strategy in logs
	Name() string

	// Diff classifies the source's files against the destination
	Diff(ctx context.Context, src, dst location.Location) (models.DiffResult, error)
}

// FingerprintStrategy compares the recorded file lists of both locations
// without touching either filesystem. Files present on both sides are ==
// or != when both carry metadata and ?= otherwise.
type FingerprintStrategy struct{}

// Name implements Strategy
func (FingerprintStrategy) Name() string { return "fingerprint" }

// Diff implements Strategy
func (FingerprintStrategy) Diff(ctx context.Context, src, dst location.Location) (models.DiffResult, error) {
	srcPaths := src.Paths()
	dstPaths := dst.Paths()
	srcSet := mapset.NewThreadUnsafeSet(srcPaths...)
	dstSet := mapset.NewThreadUnsafeSet(dstPaths...)

	res := models.NewDiffResult()
	for _, p := range srcPaths {
		if !dstSet.Contains(p) {
			res.Add(models.RelationSourceOnly, p)
			continue
		}
		res.Add(compareRecords(src, dst, p), p)
	}
	for _, p := range dstPaths {
		if !srcSet.Contains(p) {
			res.Add(models.RelationDestOnly, p)
		}
	}

	if err := res.Validate(srcSet.Union(dstSet).ToSlice()); err != nil {
		return nil, err
	}
	return res, nil
}

// compareRecords classifies a path present on both sides
func compareRecords(src, dst location.Location, path string) models.Relation {
	a, _ := src.Lookup(path)
	b, _ := dst.Lookup(path)
	if !a.HasInfo || !b.HasInfo {
		return models.RelationUnverified
	}
	if a.Size == b.Size && a.Fingerprint == b.Fingerprint {
		return models.RelationEqual
	}
	return models.RelationDiffers
}

// knownEqual returns the source paths whose metadata on both sides proves
// them equal
func knownEqual(src, dst location.Location) []string {
	var out []string
	for _, p := range src.Paths() {
		if _, ok := dst.Lookup(p); ok && compareRecords(src, dst, p) == models.RelationEqual {
			out = append(out, p)
		}
	}
	return out
}
