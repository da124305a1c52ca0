// Package plan turns a diff into a confirmed, executed file operation.
//
// A plan moves through planned, confirmed and executing into done or
// failed. A declined prompt or a dry run ends in aborted.
package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sdejongh/locsync/pkg/logging"
	"github.com/sdejongh/locsync/pkg/models"
	"github.com/sdejongh/locsync/pkg/transfer"
)

// Prompter asks the user a yes/no question
type Prompter interface {
	Confirm(message string) (bool, error)
}

// PrompterFunc adapts a function to Prompter
type PrompterFunc func(message string) (bool, error)

// Confirm implements Prompter
func (f PrompterFunc) Confirm(message string) (bool, error) { return f(message) }

// Target locates both ends of a plan
type Target struct {
	SourceRoot string
	SourceHost string
	DestRoot   string
	DestHost   string
	// Sizes feeds progress totals when known
	Sizes map[string]int64
	// Checksum is passed on to the backend
	Checksum bool
}

// Plan is one copy, move or remove operation
type Plan struct {
	ID     uuid.UUID
	Kind   models.OperationKind
	State  models.PlanState
	Diff   models.DiffResult
	Notice string

	files []string
	// overwrites is the subset of files replacing a differing destination
	overwrites map[string]struct{}

	StartedAt  time.Time
	FinishedAt time.Time
	Err        error
}

// New builds a plan. For copy and move the diff decides what is transferred
// and files is ignored; for remove files is the explicit list.
func New(kind models.OperationKind, diff models.DiffResult, files []string) (*Plan, error) {
	p := &Plan{
		ID:         uuid.New(),
		Kind:       kind,
		State:      models.StatePlanned,
		Diff:       diff,
		overwrites: make(map[string]struct{}),
	}

	switch kind {
	case models.OperationCopy, models.OperationMove:
		if diff == nil {
			return nil, &models.InvariantViolation{Reason: fmt.Sprintf("cannot %s without a diff", kind.Verb())}
		}
		if back := diff.Get(models.RelationDestOnly); len(back) > 0 {
			return nil, &models.InvariantViolation{
				Reason: fmt.Sprintf("Cannot %s from destination to source (%d files only in destination)", kind.Verb(), len(back)),
			}
		}
		p.files = append(p.files, diff.Get(models.RelationSourceOnly)...)
		for _, f := range diff.Get(models.RelationDiffers) {
			p.files = append(p.files, f)
			p.overwrites[f] = struct{}{}
		}
	case models.OperationRemove:
		p.files = append([]string(nil), files...)
	default:
		return nil, &models.ValidationError{Field: "operation", Message: fmt.Sprintf("unknown operation %q", kind)}
	}

	if len(p.files) == 0 {
		p.State = models.StateDone
		p.Notice = nothingNotice(kind, diff)
	}
	return p, nil
}

func nothingNotice(kind models.OperationKind, diff models.DiffResult) string {
	switch kind {
	case models.OperationMove:
		return "Nothing to move"
	case models.OperationRemove:
		return "Nothing to remove"
	}
	if len(diff.Get(models.RelationEqual)) > 0 {
		return "All files equal"
	}
	return "Nothing to copy"
}

// Files returns the paths the plan operates on, in order
func (p *Plan) Files() []string {
	return append([]string(nil), p.files...)
}

// Overwrites reports whether path replaces an existing, different file
func (p *Plan) Overwrites(path string) bool {
	_, ok := p.overwrites[path]
	return ok
}

// HasOverwrites reports whether any destination file would be replaced
func (p *Plan) HasOverwrites() bool {
	return len(p.overwrites) > 0
}

// Confirm moves a planned plan to confirmed. force skips the prompt; a dry
// run or a declined prompt aborts the plan, the latter with
// models.ErrCancelled.
func (p *Plan) Confirm(force, dryRun bool, prompter Prompter) error {
	if force && dryRun {
		return &models.ValidationError{Field: "force", Message: "cannot use --force with --dry-run"}
	}
	if p.State != models.StatePlanned {
		return fmt.Errorf("cannot confirm plan in state %s", p.State)
	}

	switch {
	case dryRun:
		p.State = models.StateAborted
		return nil
	case force:
		p.State = models.StateConfirmed
		return nil
	}

	if prompter == nil {
		return fmt.Errorf("confirmation required: use --force to %s without prompt", p.Kind.Verb())
	}
	ok, err := prompter.Confirm("Proceed?")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if !ok {
		p.State = models.StateAborted
		return models.ErrCancelled
	}
	p.State = models.StateConfirmed
	return nil
}

// Execute runs a confirmed plan on backend. The first backend error fails
// the plan; files already transferred stay where they are.
func (p *Plan) Execute(ctx context.Context, backend transfer.Backend, target Target, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if p.State != models.StateConfirmed {
		return fmt.Errorf("cannot execute plan in state %s", p.State)
	}

	p.State = models.StateExecuting
	p.StartedAt = time.Now()
	fields := logging.Fields{
		"plan_id": p.ID.String(),
		"op":      string(p.Kind),
		"backend": backend.Name(),
		"files":   len(p.files),
	}
	logger.Info(ctx, "executing plan", fields)

	var err error
	switch p.Kind {
	case models.OperationRemove:
		err = backend.Remove(ctx, transfer.RemoveRequest{Root: target.SourceRoot, Host: target.SourceHost, Files: p.files})
	default:
		req := transfer.Request{
			SourceRoot: target.SourceRoot,
			SourceHost: target.SourceHost,
			DestRoot:   target.DestRoot,
			DestHost:   target.DestHost,
			Files:      p.files,
			Sizes:      target.Sizes,
			Checksum:   target.Checksum,
		}
		if p.Kind == models.OperationMove {
			err = backend.Move(ctx, req)
		} else {
			err = backend.Copy(ctx, req)
		}
	}

	p.FinishedAt = time.Now()
	fields["duration"] = p.FinishedAt.Sub(p.StartedAt).String()
	if err != nil {
		p.State = models.StateFailed
		p.Err = err
		logger.Error(ctx, "plan failed", err, fields)
		return err
	}
	p.State = models.StateDone
	logger.Info(ctx, "plan completed", fields)
	return nil
}
