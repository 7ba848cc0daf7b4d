package domain

import (
	"fmt"
	"log/slog"
)

// MeanMode selects how the window mean is reduced to stored tenths.
type MeanMode string

const (
	// MeanTruncate divides with truncation toward zero.
	MeanTruncate MeanMode = "truncate"
	// MeanRound rounds half away from zero.
	MeanRound MeanMode = "round"
)

// ParseMeanMode validates a mean mode name.
func ParseMeanMode(s string) (MeanMode, error) {
	switch m := MeanMode(s); m {
	case MeanTruncate, MeanRound:
		return m, nil
	default:
		return "", fmt.Errorf("unknown window mean mode %q", s)
	}
}

// WindowConfig parameterizes the trailing window.
type WindowConfig struct {
	Days       int
	MaxMissing int
	Mean       MeanMode
}

// DefaultWindowConfig is the 30-day window tolerating 3 missing days.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{Days: 30, MaxMissing: 3, Mean: MeanTruncate}
}

// WindowStats reports how many derived days had too little data.
type WindowStats struct {
	Dropped int
}

// WindowAverager derives daily normals as the mean of a trailing circular
// window of raw daily values.
type WindowAverager struct {
	cfg    WindowConfig
	logger *slog.Logger
}

// NewWindowAverager creates an averager. The config is assumed valid, see config.Load.
func NewWindowAverager(cfg WindowConfig, logger *slog.Logger) *WindowAverager {
	return &WindowAverager{cfg: cfg, logger: logger}
}

// Average returns a new collection, sorted by station id, whose records hold
// the window means of the records in c. The input collection is not modified.
func (w *WindowAverager) Average(c *Collection) (*Collection, WindowStats, error) {
	var stats WindowStats
	sorted := c.Sorted()
	out := NewCollection(c.policy)
	for _, rec := range sorted.records {
		derived, dropped := w.averageRecord(rec)
		stats.Dropped += dropped
		if err := out.Add(derived); err != nil {
			return nil, stats, fmt.Errorf("window average: %w", err)
		}
	}
	return out, stats, nil
}

func (w *WindowAverager) averageRecord(rec Record) (Record, int) {
	derived := Record{StationID: rec.StationID, Days: EmptyDays()}
	dropped := 0
	for d0 := range DaysPerYear {
		v, ok := w.windowMean(&rec.Days, d0)
		if !ok {
			w.logger.Debug("no normal for day", "station", rec.StationID, "day", d0+1)
			dropped++
			continue
		}
		derived.Days[d0] = v
	}
	if dropped > 0 {
		w.logger.Info("no normal for station", "station", rec.StationID, "days", dropped)
	}
	return derived, dropped
}

// windowMean averages the Days values ending at index d0 inclusive, wrapping
// into the tail of the year for early days. It reports false when more than
// MaxMissing entries are missing.
func (w *WindowAverager) windowMean(days *Days, d0 int) (int, bool) {
	sum, n, missing := 0, 0, 0
	for i := range w.cfg.Days {
		v := days[(d0-w.cfg.Days+1+i+DaysPerYear)%DaysPerYear]
		if v == Missing {
			missing++
			continue
		}
		sum += v
		n++
	}
	if missing > w.cfg.MaxMissing || n == 0 {
		return 0, false
	}
	if w.cfg.Mean == MeanRound {
		return roundDiv(sum, n), true
	}
	return sum / n, true
}

// roundDiv divides rounding half away from zero.
func roundDiv(sum, n int) int {
	if sum < 0 {
		return -((-sum + n/2) / n)
	}
	return (sum + n/2) / n
}
