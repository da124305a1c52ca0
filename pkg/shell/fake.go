package shell

import (
	"context"
	"fmt"
	"sync"
)

// Fake is a scripted Runner for tests. Handlers are keyed by program name;
// programs without a handler succeed with empty output.
type Fake struct {
	mu        sync.Mutex
	Handlers  map[string]func(Command) (*Result, error)
	Installed map[string]bool
	Calls     []Command
}

// NewFake returns a Fake reporting the given programs as installed
func NewFake(installed ...string) *Fake {
	f := &Fake{
		Handlers:  make(map[string]func(Command) (*Result, error)),
		Installed: make(map[string]bool),
	}
	for _, p := range installed {
		f.Installed[p] = true
	}
	return f
}

// Handle registers the handler for program
func (f *Fake) Handle(program string, h func(Command) (*Result, error)) *Fake {
	f.Handlers[program] = h
	return f
}

// Run implements Runner
func (f *Fake) Run(ctx context.Context, cmd Command) (*Result, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, cmd)
	h := f.Handlers[cmd.Program]
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h == nil {
		return &Result{}, nil
	}
	return h(cmd)
}

// LookPath implements Runner
func (f *Fake) LookPath(program string) (string, error) {
	if f.Installed[program] {
		return "/usr/bin/" + program, nil
	}
	return "", fmt.Errorf("%s: executable file not found in $PATH", program)
}

// CallsTo returns the recorded invocations of program
func (f *Fake) CallsTo(program string) []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Command
	for _, c := range f.Calls {
		if c.Program == program {
			out = append(out, c)
		}
	}
	return out
}
