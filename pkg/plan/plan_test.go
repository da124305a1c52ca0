package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/sdejongh/locsync/pkg/models"
	"github.com/sdejongh/locsync/pkg/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	copied  []transfer.Request
	moved   []transfer.Request
	removed []transfer.RemoveRequest
	err     error
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Copy(ctx context.Context, req transfer.Request) error {
	f.copied = append(f.copied, req)
	return f.err
}

func (f *fakeBackend) Move(ctx context.Context, req transfer.Request) error {
	f.moved = append(f.moved, req)
	return f.err
}

func (f *fakeBackend) Remove(ctx context.Context, req transfer.RemoveRequest) error {
	f.removed = append(f.removed, req)
	return f.err
}

func answer(yes bool) Prompter {
	return PrompterFunc(func(string) (bool, error) { return yes, nil })
}

func diffOf(pairs map[models.Relation][]string) models.DiffResult {
	d := models.NewDiffResult()
	for r, paths := range pairs {
		for _, p := range paths {
			d.Add(r, p)
		}
	}
	return d
}

func TestNew_CopyRejectsDestOnly(t *testing.T) {
	for _, kind := range []models.OperationKind{models.OperationCopy, models.OperationMove} {
		t.Run(string(kind), func(t *testing.T) {
			d := diffOf(map[models.Relation][]string{
				models.RelationSourceOnly: {"a"},
				models.RelationDestOnly:   {"c"},
			})
			_, err := New(kind, d, nil)
			var iv *models.InvariantViolation
			require.ErrorAs(t, err, &iv)
			assert.Contains(t, iv.Reason, "from destination to source")
		})
	}
}

func TestNew_NothingToDo(t *testing.T) {
	tests := []struct {
		name   string
		kind   models.OperationKind
		diff   models.DiffResult
		files  []string
		notice string
	}{
		{"empty copy", models.OperationCopy, models.NewDiffResult(), nil, "Nothing to copy"},
		{"all equal", models.OperationCopy, diffOf(map[models.Relation][]string{models.RelationEqual: {"a"}}), nil, "All files equal"},
		{"unverified only", models.OperationCopy, diffOf(map[models.Relation][]string{models.RelationUnverified: {"a"}}), nil, "Nothing to copy"},
		{"empty move", models.OperationMove, models.NewDiffResult(), nil, "Nothing to move"},
		{"empty remove", models.OperationRemove, nil, nil, "Nothing to remove"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.kind, tt.diff, tt.files)
			require.NoError(t, err)
			assert.Equal(t, models.StateDone, p.State)
			assert.Equal(t, tt.notice, p.Notice)
			assert.Empty(t, p.Files())
		})
	}
}

func TestNew_CopyFiles(t *testing.T) {
	d := diffOf(map[models.Relation][]string{
		models.RelationEqual:      {"same"},
		models.RelationUnverified: {"maybe"},
		models.RelationSourceOnly: {"new"},
		models.RelationDiffers:    {"changed"},
	})
	p, err := New(models.OperationCopy, d, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StatePlanned, p.State)
	assert.Equal(t, []string{"new", "changed"}, p.Files())
	assert.True(t, p.Overwrites("changed"))
	assert.False(t, p.Overwrites("new"))
	assert.True(t, p.HasOverwrites())
	assert.NotEqual(t, "", p.ID.String())
}

func TestConfirm(t *testing.T) {
	newPlan := func(t *testing.T) *Plan {
		p, err := New(models.OperationCopy, diffOf(map[models.Relation][]string{models.RelationSourceOnly: {"a"}}), nil)
		require.NoError(t, err)
		return p
	}

	t.Run("force", func(t *testing.T) {
		p := newPlan(t)
		require.NoError(t, p.Confirm(true, false, nil))
		assert.Equal(t, models.StateConfirmed, p.State)
	})

	t.Run("dry run", func(t *testing.T) {
		p := newPlan(t)
		require.NoError(t, p.Confirm(false, true, answer(true)))
		assert.Equal(t, models.StateAborted, p.State)
	})

	t.Run("force with dry run", func(t *testing.T) {
		p := newPlan(t)
		var ve *models.ValidationError
		require.ErrorAs(t, p.Confirm(true, true, nil), &ve)
		assert.Equal(t, models.StatePlanned, p.State)
	})

	t.Run("accepted", func(t *testing.T) {
		p := newPlan(t)
		require.NoError(t, p.Confirm(false, false, answer(true)))
		assert.Equal(t, models.StateConfirmed, p.State)
	})

	t.Run("declined", func(t *testing.T) {
		p := newPlan(t)
		err := p.Confirm(false, false, answer(false))
		assert.True(t, errors.Is(err, models.ErrCancelled))
		assert.Equal(t, models.StateAborted, p.State)
	})

	t.Run("prompt error", func(t *testing.T) {
		p := newPlan(t)
		err := p.Confirm(false, false, PrompterFunc(func(string) (bool, error) { return false, errors.New("eof") }))
		require.Error(t, err)
		assert.Equal(t, models.StatePlanned, p.State)
	})

	t.Run("done plan", func(t *testing.T) {
		p, err := New(models.OperationCopy, models.NewDiffResult(), nil)
		require.NoError(t, err)
		assert.Error(t, p.Confirm(true, false, nil))
	})
}

func TestExecute(t *testing.T) {
	target := Target{SourceRoot: "/src", DestRoot: "/dst", DestHost: "host"}

	t.Run("copy", func(t *testing.T) {
		p, err := New(models.OperationCopy, diffOf(map[models.Relation][]string{
			models.RelationSourceOnly: {"a"},
			models.RelationEqual:      {"b"},
		}), nil)
		require.NoError(t, err)
		require.NoError(t, p.Confirm(true, false, nil))

		backend := &fakeBackend{}
		require.NoError(t, p.Execute(context.Background(), backend, target, nil))
		assert.Equal(t, models.StateDone, p.State)
		require.Len(t, backend.copied, 1)
		assert.Equal(t, []string{"a"}, backend.copied[0].Files)
		assert.Equal(t, "host", backend.copied[0].DestHost)
		assert.Empty(t, backend.moved)
	})

	t.Run("move", func(t *testing.T) {
		p, err := New(models.OperationMove, diffOf(map[models.Relation][]string{models.RelationSourceOnly: {"a"}}), nil)
		require.NoError(t, err)
		require.NoError(t, p.Confirm(true, false, nil))

		backend := &fakeBackend{}
		require.NoError(t, p.Execute(context.Background(), backend, Target{SourceRoot: "/src", DestRoot: "/dst"}, nil))
		require.Len(t, backend.moved, 1)
	})

	t.Run("remove", func(t *testing.T) {
		p, err := New(models.OperationRemove, nil, []string{"x", "y"})
		require.NoError(t, err)
		require.NoError(t, p.Confirm(true, false, nil))

		backend := &fakeBackend{}
		require.NoError(t, p.Execute(context.Background(), backend, Target{SourceRoot: "/src"}, nil))
		require.Len(t, backend.removed, 1)
		assert.Equal(t, transfer.RemoveRequest{Root: "/src", Files: []string{"x", "y"}}, backend.removed[0])
	})

	t.Run("backend failure", func(t *testing.T) {
		p, err := New(models.OperationCopy, diffOf(map[models.Relation][]string{models.RelationSourceOnly: {"a"}}), nil)
		require.NoError(t, err)
		require.NoError(t, p.Confirm(true, false, nil))

		boom := &models.IOError{Op: "copy", Path: "/src/a", Err: errors.New("disk full")}
		err = p.Execute(context.Background(), &fakeBackend{err: boom}, target, nil)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, models.StateFailed, p.State)
		assert.Same(t, boom, p.Err)
	})

	t.Run("requires confirmation", func(t *testing.T) {
		p, err := New(models.OperationCopy, diffOf(map[models.Relation][]string{models.RelationSourceOnly: {"a"}}), nil)
		require.NoError(t, err)

		backend := &fakeBackend{}
		require.Error(t, p.Execute(context.Background(), backend, target, nil))
		assert.Empty(t, backend.copied)
	})
}
