package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and gauges for one generator run.
// Runs are short-lived batch jobs, so the metrics live on a private registry
// and are exported through a node-exporter textfile rather than scraped.
type Metrics struct {
	Registry *prometheus.Registry

	LinesRead         *prometheus.CounterVec // labels: generator
	LinesSkipped      *prometheus.CounterVec // labels: generator, reason
	Stations          *prometheus.GaugeVec   // labels: generator
	WindowDaysDropped *prometheus.CounterVec // labels: generator
	RowsEmitted       *prometheus.CounterVec // labels: generator
	RunDuration       *prometheus.GaugeVec   // labels: generator
	LastSuccess       *prometheus.GaugeVec   // labels: generator
	ArtifactUnchanged *prometheus.GaugeVec   // labels: generator
}

// NewMetrics creates and registers all generator metrics with a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		LinesRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daymeans",
			Name:      "lines_read_total",
			Help:      "Input lines read by the parser.",
		}, []string{"generator"}),
		LinesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daymeans",
			Name:      "lines_skipped_total",
			Help:      "Input lines skipped by the parser, by reason.",
		}, []string{"generator", "reason"}),
		Stations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "daymeans",
			Name:      "stations",
			Help:      "Station records in the emitted artifact.",
		}, []string{"generator"}),
		WindowDaysDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daymeans",
			Name:      "window_days_dropped_total",
			Help:      "Derived days left missing because their window had too little data.",
		}, []string{"generator"}),
		RowsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "daymeans",
			Name:      "rows_emitted_total",
			Help:      "Fixture rows written.",
		}, []string{"generator"}),
		RunDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "daymeans",
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}, []string{"generator"}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "daymeans",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}, []string{"generator"}),
		ArtifactUnchanged: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "daymeans",
			Name:      "artifact_unchanged",
			Help:      "1 when the last run produced content identical to the existing artifact.",
		}, []string{"generator"}),
	}

	m.Registry.MustRegister(
		m.LinesRead,
		m.LinesSkipped,
		m.Stations,
		m.WindowDaysDropped,
		m.RowsEmitted,
		m.RunDuration,
		m.LastSuccess,
		m.ArtifactUnchanged,
	)

	return m
}

// WriteTextfile writes the current metric values in the text exposition
// format, atomically replacing path.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
