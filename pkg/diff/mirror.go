package diff

import (
	"context"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sdejongh/locsync/pkg/location"
	"github.com/sdejongh/locsync/pkg/logging"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/sdejongh/locsync/pkg/shell"
)

// MirrorStrategy asks rsync, in dry-run mode, which files it would
// transfer. Unchanged files are ==, new files ->, files rsync would update
// !=. A second, reverse run finds files that only the destination has.
type MirrorStrategy struct {
	Runner shell.Runner
	Rsync  string
	SSH    string
	Logger logging.Logger
}

// Name implements Strategy
func (m *MirrorStrategy) Name() string { return "mirror" }

// Diff implements Strategy
func (m *MirrorStrategy) Diff(ctx context.Context, src, dst location.Location) (models.DiffResult, error) {
	logger := m.Logger
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	res := models.NewDiffResult()
	paths := src.Paths()
	if len(paths) == 0 {
		return res, nil
	}

	forward, err := m.itemize(ctx, src.HostPath(), dst.HostPath(), paths, false)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, p := range paths {
		item, ok := forward[p]
		if !ok {
			missing = append(missing, p)
			continue
		}
		res.Add(classifyItem(item), p)
	}

	if len(missing) > 0 {
		reverse, err := m.itemize(ctx, dst.HostPath(), src.HostPath(), missing, true)
		if err != nil {
			return nil, err
		}
		for _, p := range missing {
			if _, ok := reverse[p]; ok {
				res.Add(models.RelationDestOnly, p)
				continue
			}
			logger.Warn(ctx, "file missing on both sides, skipped", logging.Fields{"path": p})
		}
	}

	if err := validateWithin(res, paths); err != nil {
		return nil, err
	}
	return res, nil
}

// itemize runs a dry-run rsync over paths and returns the itemized change
// string per reported file
func (m *MirrorStrategy) itemize(ctx context.Context, from, to string, paths []string, ignoreExisting bool) (map[string]string, error) {
	args := []string{
		"-a", "--dry-run", "-ii",
		"--out-format=%i|%n",
		"--files-from=-",
		"--ignore-missing-args",
	}
	if ignoreExisting {
		args = append(args, "--ignore-existing")
	}
	if m.SSH != "" {
		args = append(args, "-e", m.SSH)
	}
	args = append(args, withSlash(from), withSlash(to))

	res, err := m.Runner.Run(ctx, shell.Command{
		Program: m.Rsync,
		Args:    args,
		Stdin:   strings.Join(paths, "\n") + "\n",
	})
	if err != nil {
		return nil, fmt.Errorf("rsync dry run %s -> %s failed: %w", from, to, err)
	}
	return parseItemized(res.Stdout), nil
}

// parseItemized reads "%i|%n" lines, keeping regular files only
func parseItemized(out string) map[string]string {
	items := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		item, name, ok := strings.Cut(line, "|")
		if !ok || len(item) < 2 || item[1] != 'f' {
			continue
		}
		items[name] = item
	}
	return items
}

// classifyItem maps an rsync itemize string to a relation. The first
// character is the update type ('.' = not updated), the second the file
// type and the rest the attribute changes ('+' = newly created).
func classifyItem(item string) models.Relation {
	switch item[0] {
	case '.':
		return models.RelationEqual
	case '<', '>':
		if strings.Trim(item[2:], "+") == "" {
			return models.RelationSourceOnly
		}
		return models.RelationDiffers
	default:
		return models.RelationDiffers
	}
}

func withSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}

// validateWithin checks the partition invariant for live strategies, which
// classify a subset of the requested paths
func validateWithin(res models.DiffResult, paths []string) error {
	if err := res.Validate(nil); err != nil {
		return err
	}
	allowed := mapset.NewThreadUnsafeSet(paths...)
	for _, r := range models.Relations {
		for _, p := range res.Get(r) {
			if !allowed.Contains(p) {
				return &models.InvariantViolation{Reason: fmt.Sprintf("path %q was not requested", p)}
			}
		}
	}
	return nil
}
