package logging

import "log/slog"

// EnableTrace turns on per-tick debug logs (narration progress and the like).
var EnableTrace = false

// TraceDefault logs to the default logger at DEBUG if EnableTrace is set.
func TraceDefault(msg string, args ...any) {
	if EnableTrace {
		slog.Debug(msg, args...)
	}
}
