package logging

import (
	"log/slog"
	"os"
)

var fallback = slog.New(slog.NewJSONHandler(os.Stderr, nil))

// Setup initializes the global slog logger with JSON output to stdout. Extra
// handlers, such as a DBHandler, receive every record as well.
func Setup(level slog.Level, extra ...slog.Handler) {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	if len(extra) > 0 {
		handler = NewMultiHandler(append([]slog.Handler{handler}, extra...)...)
	}
	slog.SetDefault(slog.New(handler))
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
