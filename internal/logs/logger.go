// Package logs builds the process logger: a text handler on a writer,
// optionally fanned out to the systemd journal.
package logs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

type Options struct {
	Level string
	// File, when set, receives the text output instead of Writer.
	File    string
	Journal bool
	Writer  io.Writer
}

// Logger is the configured logger plus whatever it needs closed.
type Logger struct {
	*slog.Logger
	Level  *slog.LevelVar
	closer io.Closer
}

func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func New(opts Options) (*Logger, error) {
	level := new(slog.LevelVar)
	lv, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	level.Set(lv)

	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}
	var closer io.Closer
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	}

	text := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	handlers := []slog.Handler{text}

	if opts.Journal {
		journal, err := slogjournal.NewHandler(&slogjournal.Options{
			Level: level,
			ReplaceGroup: func(key string) string {
				return journalKey(key)
			},
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = journalKey(a.Key)
				return a
			},
		})
		if err != nil {
			record := slog.NewRecord(time.Now(), slog.LevelWarn, "journal unavailable", 0)
			record.Add("err", err)
			_ = text.Handle(context.Background(), record)
		} else {
			handlers = append(handlers, journal)
		}
	}

	return &Logger{
		Logger: slog.New(slogmulti.Fanout(handlers...)),
		Level:  level,
		closer: closer,
	}, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// journald field names are upper case and restricted to [A-Z0-9_].
func journalKey(s string) string {
	s = strings.ToUpper(s)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, s)
}
