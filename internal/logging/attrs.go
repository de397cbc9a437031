package logging

import (
	"log/slog"
	"time"
)

// Attr is the attribute type accepted by every helper here.
type Attr = slog.Attr

func String(key, value string) Attr { return slog.String(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

// Error renders err under the "error" key; a nil error is spelled out.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// NewNop returns a logger that drops every record.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger tags logger with a component name. A nil logger yields
// a no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// warnDefaults fill the operator-facing fields a warning must carry.
var warnDefaults = []struct{ key, value string }{
	{FieldErrorHint, "check logs for details"},
	{FieldImpact, "operation completed with warnings"},
}

// WarnWithContext logs a warning tagged with eventType. error_hint and
// impact fall back to generic text when attrs leave them out.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	present := make(map[string]bool, len(attrs))
	args := make([]any, 0, len(attrs)+len(warnDefaults)+1)
	for _, attr := range attrs {
		present[attr.Key] = true
		args = append(args, attr)
	}
	if !present[FieldEventType] {
		args = append(args, String(FieldEventType, eventType))
	}
	for _, def := range warnDefaults {
		if !present[def.key] {
			args = append(args, String(def.key, def.value))
		}
	}
	logger.Warn(msg, args...)
}
