package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// PatientNameKey is the attribute key carrying a patient's name. Its value is
// replaced with Redacted unless LogConfig.PatientNames is set.
const (
	PatientNameKey = "patient_name"
	Redacted       = "[redacted]"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level        string // "debug", "info", "warn", "error"
	Format       string // "json", "text"
	Output       io.Writer
	PatientNames bool
}

// InitLogger builds a structured slog.Logger and installs it as the default.
func InitLogger(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}
	if !cfg.PatientNames {
		opts.ReplaceAttr = redactPatientName
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// Err wraps an error as a log attribute under the "err" key.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("err", "")
	}
	return slog.String("err", err.Error())
}

func redactPatientName(_ []string, a slog.Attr) slog.Attr {
	if a.Key == PatientNameKey {
		return slog.String(PatientNameKey, Redacted)
	}
	return a
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
