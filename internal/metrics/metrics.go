package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "timelines"

// Recorder holds the collectors for one registry.
type Recorder struct {
	EventsTotal       *prometheus.CounterVec
	VideosTotal       *prometheus.CounterVec
	PageFetchesTotal  *prometheus.CounterVec
	PageFetchDuration *prometheus.HistogramVec
	AlignmentFailures prometheus.Counter
	ResolutionGaps    prometheus.Counter
	RunDuration       prometheus.Histogram
}

// New registers the collectors on reg. A nil reg registers nothing, which
// keeps the recorder usable when metrics are disabled.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		EventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "events_total",
				Help:      "Temporal events processed, by final status",
			},
			[]string{"status"},
		),
		VideosTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "videos_total",
				Help:      "Video runs, by outcome",
			},
			[]string{"outcome"},
		),
		PageFetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "wikipedia",
				Name:      "fetches_total",
				Help:      "Wikipedia fetches, by kind and result",
			},
			[]string{"kind", "result"},
		),
		PageFetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "wikipedia",
				Name:      "fetch_duration_seconds",
				Help:      "Wikipedia fetch latency in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
			},
			[]string{"kind"},
		),
		AlignmentFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "captions",
				Name:      "alignment_failures_total",
				Help:      "Videos whose sentences could not be aligned to caption chunks",
			},
		),
		ResolutionGaps: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "topics",
				Name:      "resolution_gaps_total",
				Help:      "Article titles without a knowledge-base identifier",
			},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "run_duration_seconds",
				Help:      "Per-video run duration in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
	}
}

// ObserveFetch records one Wikipedia fetch.
func (r *Recorder) ObserveFetch(kind, result string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.PageFetchesTotal.WithLabelValues(kind, result).Inc()
	r.PageFetchDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveResolutionGap records a title that resolved without an identifier.
func (r *Recorder) ObserveResolutionGap() {
	if r == nil {
		return
	}
	r.ResolutionGaps.Inc()
}

// ObserveEvent records the final status of one temporal event.
func (r *Recorder) ObserveEvent(status string) {
	if r == nil {
		return
	}
	r.EventsTotal.WithLabelValues(status).Inc()
}

// ObserveAlignmentFailure records a video aborted by sentence alignment.
func (r *Recorder) ObserveAlignmentFailure() {
	if r == nil {
		return
	}
	r.AlignmentFailures.Inc()
}

// ObserveVideo records a finished video run.
func (r *Recorder) ObserveVideo(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.VideosTotal.WithLabelValues(outcome).Inc()
	r.RunDuration.Observe(elapsed.Seconds())
}
