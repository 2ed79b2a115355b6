package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation settings for file logging.
const (
	maxSizeMB  = 50
	maxBackups = 5
	maxAgeDays = 28
)

// Options selects the handler and destination for the default logger.
type Options struct {
	Level  slog.Level
	JSON   bool   // JSONHandler instead of TextHandler
	File   string // rotate into this file instead of writing to stderr
	Writer io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init creates and sets the package-level default slog logger. Logs go to
// stderr unless File is set, in which case a size-rotated file is used.
// Writer, when non-nil, overrides both. The returned Closer releases the log
// file and is always safe to call.
func Init(opts Options) io.Closer {
	w, closer := destination(opts)
	hopts := &slog.HandlerOptions{Level: opts.Level}
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, hopts)
	} else {
		handler = slog.NewTextHandler(w, hopts)
	}
	slog.SetDefault(slog.New(handler))
	return closer
}

func destination(opts Options) (io.Writer, io.Closer) {
	switch {
	case opts.Writer != nil:
		return opts.Writer, nopCloser{}
	case opts.File != "":
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		}
		return lj, lj
	default:
		return os.Stderr, nopCloser{}
	}
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to slog.Level.
// Unknown strings default to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
