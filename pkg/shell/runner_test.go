package shell

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
	tests := map[string]string{
		"plain/path.txt": "plain/path.txt",
		"user@host:/x":   "user@host:/x",
		"":               "''",
		"with space":     "'with space'",
		"it's":           `'it'"'"'s'`,
		"$HOME":          "'$HOME'",
	}
	for in, want := range tests {
		assert.Equal(t, want, Quote(in), "Quote(%q)", in)
	}
}

func TestQuotePath(t *testing.T) {
	tests := map[string]string{
		"/srv/data":    "/srv/data",
		"~":            `"$HOME"`,
		"~/":           `"$HOME"/`,
		"~/data":       `"$HOME"/data`,
		"~/my data/x":  `"$HOME"/'my data/x'`,
		"~other/data":  "'~other/data'",
		"/srv/~/weird": "'/srv/~/weird'",
	}
	for in, want := range tests {
		assert.Equal(t, want, QuotePath(in), "QuotePath(%q)", in)
	}
}

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	r := NewExecRunner(nil)
	ctx := context.Background()

	t.Run("Stdout", func(t *testing.T) {
		res, err := r.Run(ctx, Command{Program: "sh", Args: []string{"-c", "cat"}, Stdin: "hello"})
		require.NoError(t, err)
		assert.Equal(t, "hello", res.Stdout)
	})

	t.Run("NonZeroExit", func(t *testing.T) {
		res, err := r.Run(ctx, Command{Program: "sh", Args: []string{"-c", "echo oops >&2; exit 3"}})
		var exitErr *ExitError
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, 3, exitErr.ExitCode)
		assert.Equal(t, 3, res.ExitCode)
		assert.Contains(t, err.Error(), "oops")
	})

	t.Run("StreamedStdout", func(t *testing.T) {
		var sb strings.Builder
		_, err := r.Run(ctx, Command{Program: "sh", Args: []string{"-c", "echo streamed"}, Stdout: &sb})
		require.NoError(t, err)
		assert.Equal(t, "streamed\n", sb.String())
	})

	t.Run("Missing", func(t *testing.T) {
		assert.False(t, Available(r, "definitely-not-a-real-program-xyz"))
	})
}

func TestRemoteExistingFiles(t *testing.T) {
	fake := NewFake("ssh").Handle("ssh", func(c Command) (*Result, error) {
		require.Equal(t, "me@box", c.Args[0])
		assert.Contains(t, c.Args[1], "cd /srv/data")
		assert.Equal(t, "a.txt\nb.txt\n", c.Stdin)
		return &Result{Stdout: "b.txt\n"}, nil
	})

	remote := Remote{Runner: fake, SSH: "ssh", Host: "me@box"}
	exists, err := remote.ExistingFiles(context.Background(), "/srv/data", []string{"a.txt", "b.txt"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"b.txt": true}, exists)
	assert.Len(t, fake.CallsTo("ssh"), 1)
}

func TestRemoteExistingFiles_HomeRoot(t *testing.T) {
	var script string
	fake := NewFake("ssh").Handle("ssh", func(c Command) (*Result, error) {
		script = c.Args[1]
		return &Result{Stdout: "a.txt\n"}, nil
	})

	remote := Remote{Runner: fake, SSH: "ssh", Host: "me@box"}
	exists, err := remote.ExistingFiles(context.Background(), "~/data", []string{"a.txt"})
	require.NoError(t, err)
	assert.True(t, exists["a.txt"])
	assert.True(t, strings.HasPrefix(script, `[ -e "$HOME"/data ] || exit 0; cd "$HOME"/data || exit 1; `), script)
	assert.NotContains(t, script, "'~")
}

func TestRemoteExistingFiles_CdFailure(t *testing.T) {
	fake := NewFake("ssh").Handle("ssh", func(c Command) (*Result, error) {
		return &Result{ExitCode: 1}, &ExitError{Command: c.String(), ExitCode: 1}
	})

	remote := Remote{Runner: fake, SSH: "ssh", Host: "me@box"}
	_, err := remote.ExistingFiles(context.Background(), "/srv/locked", []string{"a.txt"})
	assert.Error(t, err)
}

func TestRemoteMkdirAll(t *testing.T) {
	fake := NewFake("ssh")
	remote := Remote{Runner: fake, SSH: "ssh", Host: "me@box"}
	require.NoError(t, remote.MkdirAll(context.Background(), []string{"~/data/sub", "/srv/my dir"}))

	calls := fake.CallsTo("ssh")
	require.Len(t, calls, 1)
	assert.Equal(t, `mkdir -p "$HOME"/data/sub '/srv/my dir'`, calls[0].Args[1])
}

func TestRemoteRequiresHost(t *testing.T) {
	_, err := Remote{Runner: NewFake(), SSH: "ssh"}.Exec(context.Background(), "true", "")
	assert.Error(t, err)
}

func TestCommandString(t *testing.T) {
	c := Command{Program: "rsync", Args: []string{"-a", "my dir/", "host:/x"}}
	assert.Equal(t, "rsync -a 'my dir/' host:/x", c.String())
}
