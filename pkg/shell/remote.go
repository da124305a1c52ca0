package shell

import (
	"context"
	"fmt"
	"strings"
)

// Remote runs shell snippets on a host through ssh
type Remote struct {
	Runner Runner
	SSH    string
	Host   string
}

// Exec runs script on the remote host. The script is passed as a single
// argument so the remote login shell interprets it.
func (r Remote) Exec(ctx context.Context, script, stdin string) (*Result, error) {
	if r.Host == "" {
		return nil, fmt.Errorf("no remote host configured")
	}
	return r.Runner.Run(ctx, Command{
		Program: r.SSH,
		Args:    []string{r.Host, script},
		Stdin:   stdin,
	})
}

// ExistingFiles returns the subset of paths (relative to root) that exist
// on the host, using one ssh round trip. A missing root has no files; a
// root that exists but cannot be entered is an error.
func (r Remote) ExistingFiles(ctx context.Context, root string, paths []string) (map[string]bool, error) {
	exists := make(map[string]bool, len(paths))
	if len(paths) == 0 {
		return exists, nil
	}
	dir := QuotePath(root)
	script := fmt.Sprintf(`[ -e %s ] || exit 0; cd %s || exit 1; while IFS= read -r f; do [ -e "$f" ] && printf '%%s\n' "$f"; done; true`, dir, dir)
	res, err := r.Exec(ctx, script, strings.Join(paths, "\n")+"\n")
	if err != nil {
		return nil, fmt.Errorf("failed to check files on %s: %w", r.Host, err)
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		if line != "" {
			exists[line] = true
		}
	}
	return exists, nil
}

// MkdirAll creates directories on the host
func (r Remote) MkdirAll(ctx context.Context, dirs []string) error {
	if len(dirs) == 0 {
		return nil
	}
	quoted := make([]string, len(dirs))
	for i, d := range dirs {
		quoted[i] = QuotePath(d)
	}
	if _, err := r.Exec(ctx, "mkdir -p "+strings.Join(quoted, " "), ""); err != nil {
		return fmt.Errorf("failed to create directories on %s: %w", r.Host, err)
	}
	return nil
}
