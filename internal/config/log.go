package config

import (
	"io"
	"log/slog"
	"os"
)

// SetupLog installs the default logger. Level follows LOG_LEVEL (including config file
// reloads) and LOG_FORMAT picks text or json output.
func SetupLog(cfg *Config) {
	lv := new(slog.LevelVar)
	cfg.OnLogLevelChange(lv.Set)
	slog.SetDefault(newLogger(os.Stderr, cfg, lv))
}

func newLogger(w io.Writer, cfg *Config, lv *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     lv,
		AddSource: lv.Level() <= slog.LevelDebug,
	}
	var h slog.Handler
	if cfg.GetLogFormat() == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("service", cfg.GetServiceName())
}
