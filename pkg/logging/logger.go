package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"narrascroll/pkg/config"
	"narrascroll/pkg/model"
)

// RequestLogger receives HTTP access lines. It writes to the requests log only.
var RequestLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var events struct {
	sync.Mutex
	path string
}

// Init rotates the previous run's logs, installs the default server logger and
// the request logger. The returned func closes the log files.
func Init(cfg *config.LogConfig) (func(), error) {
	for _, p := range []string{cfg.Server.Path, cfg.Requests.Path, cfg.Events.Path} {
		rotate(p)
	}
	SetEventLogPath(cfg.Events.Path)
	EnableTrace = cfg.Trace

	serverFile, err := openLog(cfg.Server.Path)
	if err != nil {
		return nil, fmt.Errorf("server log: %w", err)
	}
	requestFile, err := openLog(cfg.Requests.Path)
	if err != nil {
		serverFile.Close()
		return nil, fmt.Errorf("request log: %w", err)
	}

	level := ParseLevel(cfg.Server.Level)
	slog.SetDefault(slog.New(fanout{
		slog.NewTextHandler(serverFile, &slog.HandlerOptions{Level: level, AddSource: level == slog.LevelDebug}),
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: max(level, slog.LevelInfo)}),
		slog.NewTextHandler(LatestLog, &slog.HandlerOptions{Level: slog.LevelInfo}),
	}))
	RequestLogger = slog.New(slog.NewTextHandler(requestFile, &slog.HandlerOptions{
		Level: ParseLevel(cfg.Requests.Level),
	}))

	return func() {
		serverFile.Close()
		requestFile.Close()
	}, nil
}

// ParseLevel maps a config level name to a slog level. Unknown names yield INFO.
func ParseLevel(name string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// rotate keeps exactly one previous generation as <path>.old.
func rotate(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = os.Remove(path + ".old")
	_ = os.Rename(path, path+".old")
}

// fanout passes each record to every member handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

// nolint:gocritic // slog.Handler takes the record by value
func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) each(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}

// SetEventLogPath sets where LogEvent appends. An empty path disables the file.
func SetEventLogPath(path string) {
	events.Lock()
	events.path = path
	events.Unlock()
}

// LogEvent appends a playback event to the event log and updates LatestEvent.
func LogEvent(ev *model.PlaybackEvent) {
	events.Lock()
	defer events.Unlock()
	if events.path == "" {
		return
	}

	f, err := openLog(events.path)
	if err != nil {
		slog.Error("Event log unavailable", "path", events.path, "error", err)
		return
	}
	defer f.Close()

	line := FormatEvent(ev)
	if _, err := fmt.Fprintln(f, line); err != nil {
		slog.Error("Event log write failed", "error", err)
	}
	_, _ = LatestEvent.Write([]byte(line))
}

// FormatEvent renders "[2006-01-02 15:04:05] [type] story/segment - detail".
func FormatEvent(ev *model.PlaybackEvent) string {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s", ts.Format(time.DateTime), ev.Type, ev.StoryID)
	if ev.SegmentID != "" {
		b.WriteString("/" + ev.SegmentID)
	}
	if ev.Detail != "" {
		b.WriteString(" - " + ev.Detail)
	}
	return b.String()
}
