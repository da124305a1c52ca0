package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// NewConsoleLogger writes human readable records to w. Colors are used only
// when w is a terminal.
func NewConsoleLogger(w io.Writer, level Level) Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}
	handler := tint.NewHandler(w, &tint.Options{
		Level:      level.slogLevel(),
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	})
	return &slogLogger{logger: slog.New(handler)}
}
