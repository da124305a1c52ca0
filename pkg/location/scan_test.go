package location

import (
	"context"
	"testing"

	"github.com/sdejongh/locsync/pkg/manifest"
	"github.com/sdejongh/locsync/pkg/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromScan(t *testing.T) {
	loc, err := FromScan(context.Background(), "/data", "", StaticLister{"a.txt", "/data/sub/b.txt", "./a.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "sub/b.txt"}, loc.Paths())

	_, err = FromScan(context.Background(), "/data", "", StaticLister{"/elsewhere/x"})
	assert.Error(t, err)

	remote, err := FromScan(context.Background(), "~/data", "me@box", StaticLister{"./x.h5", "y/z.h5"})
	require.NoError(t, err)
	assert.Equal(t, "~/data", remote.Root)
	assert.Equal(t, []string{"x.h5", "y/z.h5"}, remote.Paths())
	assert.False(t, remote.HasInfo())
}

func TestCommandLister(t *testing.T) {
	t.Run("Local", func(t *testing.T) {
		fake := shell.NewFake().Handle("sh", func(c shell.Command) (*shell.Result, error) {
			assert.Equal(t, []string{"-c", "find . -name '*.h5'"}, c.Args)
			assert.Equal(t, "/data", c.Dir)
			return &shell.Result{Stdout: "./a.h5\n\n./b.h5\n"}, nil
		})
		paths, err := CommandLister{Runner: fake, Dir: "/data", Command: "find . -name '*.h5'"}.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"./a.h5", "./b.h5"}, paths)
	})

	t.Run("Remote", func(t *testing.T) {
		fake := shell.NewFake().Handle("ssh", func(c shell.Command) (*shell.Result, error) {
			assert.Equal(t, "cd /srv && ls", c.Args[1])
			return &shell.Result{Stdout: "x\n"}, nil
		})
		paths, err := CommandLister{Runner: fake, SSH: "ssh", Host: "me@box", Dir: "/srv", Command: "ls"}.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, paths)
	})
}

func TestSearchLister_Local(t *testing.T) {
	fs := memFS(t, map[string]string{
		"/data/run/a.h5":        "",
		"/data/run/b.txt":       "",
		"/data/run/tmp/c.h5":    "",
		"/data/run/deep/x/y.h5": "",
		"/data/other/d.h5":      "",
	})

	lister := SearchLister{
		FS:   fs,
		Root: "/data",
		Specs: []manifest.SearchSpec{
			{RootDir: "run", Name: "*.h5", Skip: []string{"**/tmp/**"}, MaxDepth: 2},
			{RootDir: "other"},
		},
	}
	paths, err := lister.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"run/a.h5", "other/d.h5"}, paths)
}

func TestSearchLister_Remote(t *testing.T) {
	fake := shell.NewFake().Handle("ssh", func(c shell.Command) (*shell.Result, error) {
		assert.Equal(t, "cd /srv && find . -maxdepth 1 -type f", c.Args[1])
		return &shell.Result{Stdout: "./a.h5\n./b.txt\n"}, nil
	})
	lister := SearchLister{
		Runner: fake,
		SSH:    "ssh",
		Host:   "me@box",
		Root:   "/srv",
		Specs:  []manifest.SearchSpec{{Name: "*.h5", MaxDepth: 1}},
	}

	paths, err := lister.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.h5"}, paths)
}

func TestSearchLister_RemoteHomeRoot(t *testing.T) {
	fake := shell.NewFake().Handle("ssh", func(c shell.Command) (*shell.Result, error) {
		assert.Equal(t, `cd "$HOME"/data && find . -type f`, c.Args[1])
		return &shell.Result{Stdout: "./a.h5\n"}, nil
	})
	lister := SearchLister{Runner: fake, SSH: "ssh", Host: "me@box", Root: "~/data", Specs: []manifest.SearchSpec{{}}}

	paths, err := lister.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.h5"}, paths)
}

func TestRefresh(t *testing.T) {
	fs := memFS(t, map[string]string{"/data/lists/dump.yaml": "- a.txt\n- b.txt\n"})
	loc, err := New("/data", "", []FileRecord{{Path: "old.txt", Size: 1, Fingerprint: fooSum, HasInfo: true}})
	require.NoError(t, err)

	t.Run("Dump", func(t *testing.T) {
		l := loc
		l.Dump = "lists/dump.yaml"
		fresh, err := l.Refresh(context.Background(), Scanner{FS: fs})
		require.NoError(t, err)
		assert.Equal(t, []string{"lists/a.txt", "lists/b.txt"}, fresh.Paths())
		assert.False(t, fresh.HasInfo())
		assert.Equal(t, []string{"old.txt"}, loc.Paths())
	})

	t.Run("NothingToRefresh", func(t *testing.T) {
		fresh, err := loc.Refresh(context.Background(), Scanner{FS: fs})
		require.NoError(t, err)
		assert.Equal(t, loc.Files(), fresh.Files())
	})
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		path, pattern string
		want          bool
	}{
		{"a/b/c.tmp", "*.tmp", true},
		{"a/b/c.txt", "*.tmp", false},
		{"a/tmp/c.txt", "tmp/", true},
		{"tmp/c.txt", "tmp/", true},
		{"a/tmp/x/c.txt", "**/tmp/**", true},
		{"build/out.o", "build/*", true},
		{"src/build/out.o", "build/*", false},
		{"x", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchPattern(tt.path, tt.pattern), "matchPattern(%q, %q)", tt.path, tt.pattern)
	}
}

func TestFilter(t *testing.T) {
	f, err := CompileFilter([]string{`\.h5$`, `\.txt$`}, []string{`^tmp/`}, []string{"txt"}, true, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.h5", "b.h5"}, f.Apply([]string{"b.h5", "tmp/c.h5", "d.txt", "a.h5", "e.dat"}))

	f, err = CompileFilter(nil, nil, nil, false, "./{}")
	require.NoError(t, err)
	assert.Equal(t, []string{"./a"}, f.Apply([]string{"a"}))

	_, err = CompileFilter([]string{"("}, nil, nil, false, "")
	assert.Error(t, err)
	_, err = CompileFilter(nil, nil, nil, false, "no placeholder")
	assert.Error(t, err)
}
