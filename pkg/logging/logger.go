package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
)

// TraceLevel sits below slog.LevelDebug, used for per-hop redirect logs
const TraceLevel = slog.Level(-8)

type Options struct {
	Writer io.Writer

	Prefix        string
	ShowTimestamp bool
	ShowCaller    bool
	ShowDebugLogs bool
	ShowTraceLogs bool
}

func New(opts Options) *slog.Logger {
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}

	minLevel := slog.LevelInfo
	if opts.ShowDebugLogs {
		minLevel = slog.LevelDebug
	}
	if opts.ShowTraceLogs {
		minLevel = TraceLevel
	}

	// charm only knows the standard slog levels, anything else maps to info,
	// so filtering happens in leveled and charm always runs at debug
	charm := log.NewWithOptions(opts.Writer, log.Options{
		Prefix:          opts.Prefix,
		Level:           log.DebugLevel,
		ReportTimestamp: opts.ShowTimestamp,
		ReportCaller:    opts.ShowCaller,
	})

	return slog.New(&leveled{min: minLevel, next: charm})
}

type leveled struct {
	min  slog.Level
	next slog.Handler
}

func (h *leveled) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.min
}

func (h *leveled) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < h.min {
		return nil
	}
	// trace records are printed as DEBUG
	if r.Level < slog.LevelDebug {
		r.Level = slog.LevelDebug
	}
	return h.next.Handle(ctx, r)
}

func (h *leveled) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &leveled{min: h.min, next: h.next.WithAttrs(attrs)}
}

func (h *leveled) WithGroup(name string) slog.Handler {
	return &leveled{min: h.min, next: h.next.WithGroup(name)}
}

var _ slog.Handler = (*leveled)(nil)
