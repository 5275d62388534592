package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyTask       = "task"
	KeyStep       = "step"
	KeyResult     = "result"
	KeyPath       = "path"
	KeyCount      = "count"
	KeyTarget     = "target"
	KeyRemote     = "remote"
	KeyBranch     = "branch"
	KeyDurationMS = "duration_ms"
	KeyURL        = "url"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Task(name string) slog.Attr      { return slog.String(KeyTask, name) }
func Step(desc string) slog.Attr      { return slog.String(KeyStep, desc) }
func Result(r string) slog.Attr       { return slog.String(KeyResult, r) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Target(name string) slog.Attr    { return slog.String(KeyTarget, name) }
func Remote(url string) slog.Attr     { return slog.String(KeyRemote, url) }
func Branch(name string) slog.Attr    { return slog.String(KeyBranch, name) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Duration renders d as fractional milliseconds under KeyDurationMS.
func Duration(d time.Duration) slog.Attr {
	return DurationMS(float64(d.Microseconds()) / 1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
