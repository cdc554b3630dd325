// ABOUTME: zerolog setup shared by the CLI and TUI
// ABOUTME: Human-readable output on a terminal, JSON lines everywhere else
package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Setup builds a logger on w. An unknown level falls back to info; debug
// forces debug level.
func Setup(w io.Writer, level string, debug bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
	}

	if isTerminal(w) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	logger := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	if debug {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// OpenFile appends to the TUI log under the XDG state directory, since the
// terminal itself is busy drawing.
func OpenFile(app string) (*os.File, error) {
	path, err := xdg.StateFile(filepath.Join(app, "tui.log"))
	if err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}
