package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter reads yes/no answers from an input stream
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a prompter reading from in and asking on out
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Confirm implements plan.Prompter. Anything but y or yes declines; end of
// input declines too.
func (p *Prompter) Confirm(message string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N]: ", message)
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
