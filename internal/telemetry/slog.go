package telemetry

import (
	"log/slog"
	"os"
	"strings"
)

// logLevels maps configuration strings to slog levels. An unrecognised value
// falls back to info so a typo in config loosens logging rather than silencing
// it.
var logLevels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// SetupLogger installs the process-wide slog default from the configured
// format and level. format "json" selects the machine-readable handler for
// production; anything else logs as text for local development. Debug level
// also turns on source locations per record.
func SetupLogger(format, level string) {
	lvl, ok := logLevels[strings.ToLower(level)]
	if !ok {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialised", "format", format, "level", lvl.String())
}
