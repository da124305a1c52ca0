package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/sdejongh/locsync/pkg/transfer"
	"golang.org/x/term"
)

const (
	bytesTemplate = `{{counters . }} {{bar . "[" "=" ">" " " "]"}} {{percent . }} {{speed . }} {{string . "file"}}`
	filesTemplate = `{{counters . }} files {{bar . "[" "=" ">" " " "]"}} {{percent . }} {{string . "file"}}`
	refreshRate   = 200 * time.Millisecond
)

// IsTerminal reports whether w is a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of w, or 0 when w is not a terminal
func TerminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// ProgressBar draws transfer progress with a single pb bar. It counts bytes
// when the batch size is known and files otherwise.
type ProgressBar struct {
	writer io.Writer
	verb   string

	mu       sync.Mutex
	bar      *pb.ProgressBar
	useBytes bool
	files    int
	done     int
	bytes    int64
	start    time.Time
}

// NewProgressBar creates a bar writing to w; verb ("copied", "moved",
// "removed") is used in the closing summary
func NewProgressBar(w io.Writer, verb string) *ProgressBar {
	if w == nil {
		w = os.Stderr
	}
	return &ProgressBar{writer: w, verb: verb}
}

// NewProgress returns a bar, or transfer.NoProgress when quiet
func NewProgress(w io.Writer, verb string, quiet bool) transfer.Progress {
	if quiet {
		return transfer.NoProgress{}
	}
	return NewProgressBar(w, verb)
}

// Start implements transfer.Progress
func (p *ProgressBar) Start(files int, bytes int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.files = files
	p.done = 0
	p.bytes = 0
	p.start = time.Now()
	p.useBytes = bytes >= 0

	total, tmpl := int64(files), filesTemplate
	if p.useBytes {
		total, tmpl = bytes, bytesTemplate
	}

	p.bar = pb.New64(total)
	p.bar.SetTemplateString(tmpl)
	p.bar.SetWriter(p.writer)
	p.bar.SetRefreshRate(refreshRate)
	p.bar.Set(pb.Bytes, p.useBytes)
	p.bar.Set(pb.Terminal, IsTerminal(p.writer))
	if width := TerminalWidth(p.writer); width > 0 {
		p.bar.SetWidth(width)
	}
	p.bar.Start()
}

// BeginFile implements transfer.Progress
func (p *ProgressBar) BeginFile(path string, size int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Set("file", path)
	}
}

// Add implements transfer.Progress
func (p *ProgressBar) Add(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bytes += n
	if p.bar != nil && p.useBytes {
		p.bar.Add64(n)
	}
}

// EndFile implements transfer.Progress
func (p *ProgressBar) EndFile(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if p.bar != nil && !p.useBytes {
		p.bar.Increment()
	}
}

// Finish implements transfer.Progress
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		return
	}
	p.bar.Set("file", "")
	p.bar.Finish()
	p.bar = nil
	fmt.Fprintln(p.writer, p.summary())
}

func (p *ProgressBar) summary() string {
	elapsed := time.Since(p.start).Round(time.Millisecond)
	msg := fmt.Sprintf("%s %d of %d files", p.verb, p.done, p.files)
	if p.bytes > 0 {
		msg += fmt.Sprintf(" (%s)", humanize.Bytes(uint64(p.bytes)))
	}
	return msg + " in " + elapsed.String()
}

var _ transfer.Progress = (*ProgressBar)(nil)
