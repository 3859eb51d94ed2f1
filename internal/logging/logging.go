// Package logging builds the structured logger used by synckdf.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const redacted = "[REDACTED]"

// sensitive attribute keys, compared after lower-casing and dropping "_".
var sensitive = map[string]bool{
	"secret":     true,
	"password":   true,
	"passphrase": true,
	"salt":       true,
	"key":        true,
	"derivedkey": true,
	"subkey":     true,
	"token":      true,
}

// ParseLevel converts a config level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// New returns a logger writing text or JSON records to w. Attributes whose
// key names secret material are replaced with a placeholder.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl, ReplaceAttr: redact}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "text", "":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return slog.New(h), nil
}

func redact(groups []string, a slog.Attr) slog.Attr {
	if sensitive[strings.ToLower(strings.ReplaceAll(a.Key, "_", ""))] {
		return slog.String(a.Key, redacted)
	}
	return a
}
