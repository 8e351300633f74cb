// Package harvest copies monthly chess.com payloads into an archive.
package harvest

import (
	"fmt"
	"io"
	"time"

	"github.com/discochess/tally/internal/window"
)

// Phase names reported through ProgressFunc.
const (
	PhaseFetch = "fetch"
	PhaseSkip  = "skip"
	PhaseDone  = "done"
)

// Progress tracks harvest progress.
type Progress struct {
	Phase        string
	Username     string
	Bucket       window.Bucket
	MonthsDone   int
	MonthsTotal  int
	BytesWritten int64
	StartTime    time.Time
	Error        error
}

// ProgressFunc is called after each month and once at the end.
type ProgressFunc func(Progress)

// FormatBytes formats bytes as human-readable string.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDuration formats duration as human-readable string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// WriterProgress returns a ProgressFunc that prints to w.
func WriterProgress(w io.Writer) ProgressFunc {
	return func(p Progress) {
		switch p.Phase {
		case PhaseFetch:
			fmt.Fprintf(w, "[Fetch] %s %s (%d / %d)\n", p.Username, p.Bucket, p.MonthsDone, p.MonthsTotal)
		case PhaseSkip:
			fmt.Fprintf(w, "[Skip] %s %s: %v\n", p.Username, p.Bucket, p.Error)
		case PhaseDone:
			fmt.Fprintf(w, "[Done] %s: %d / %d months, %s in %s\n",
				p.Username, p.MonthsDone, p.MonthsTotal,
				FormatBytes(p.BytesWritten), FormatDuration(time.Since(p.StartTime)))
		}
	}
}
