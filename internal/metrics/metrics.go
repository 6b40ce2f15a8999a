// Package metrics tracks pipeline runs for the status endpoint and Prometheus.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns          int64
	FallbackRuns       int64
	ArticlesCollected  int64
	DuplicatesFiltered int64
	SourceFailures     int64
	DigestsPublished   int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastRunTime   time.Time
	LastCount     int
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool

	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	articles *prometheus.CounterVec
	failures *prometheus.CounterVec
	dups     prometheus.Counter
	duration prometheus.Histogram
	lastNews prometheus.Gauge
}

var Global = New()

// New returns Metrics backed by a private Prometheus registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		IsHealthy: true,
		registry:  reg,
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "econbrief_runs_total",
			Help: "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		articles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "econbrief_articles_collected_total",
			Help: "Articles collected per source.",
		}, []string{"source"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "econbrief_source_failures_total",
			Help: "Listing and article fetch failures per source.",
		}, []string{"source"}),
		dups: f.NewCounter(prometheus.CounterOpts{
			Name: "econbrief_duplicates_filtered_total",
			Help: "Items dropped by the deduplicator.",
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "econbrief_run_duration_seconds",
			Help:    "Wall time of one pipeline run.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		}),
		lastNews: f.NewGauge(prometheus.GaugeOpts{
			Name: "econbrief_last_news_count",
			Help: "Number of items in the last persisted aggregate.",
		}),
	}
}

// RecordSource adds one source's collection outcome.
func (m *Metrics) RecordSource(source string, items, failures int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesCollected += int64(items)
	m.SourceFailures += int64(failures)
	m.articles.WithLabelValues(source).Add(float64(items))
	m.failures.WithLabelValues(source).Add(float64(failures))
}

func (m *Metrics) AddDuplicatesFiltered(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered += int64(n)
	m.dups.Add(float64(n))
}

func (m *Metrics) IncrementDigestsPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DigestsPublished++
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++

	if m.ProcessingCount > 0 {
		m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
	}
	m.duration.Observe(duration.Seconds())
}

// SetLastRun records a completed run and marks the service healthy.
func (m *Metrics) SetLastRun(at time.Time, count int, fallback bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalRuns++
	m.LastRunTime = at
	m.LastCount = count
	m.IsHealthy = true
	m.lastNews.Set(float64(count))
	if fallback {
		m.FallbackRuns++
		m.runs.WithLabelValues("fallback").Inc()
		return
	}
	m.runs.WithLabelValues("success").Inc()
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalRuns++
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
	m.runs.WithLabelValues("error").Inc()
}

// LastRun returns the time of the last successful run, zero if none.
func (m *Metrics) LastRun() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRunTime
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"total_runs":                 m.TotalRuns,
		"fallback_runs":              m.FallbackRuns,
		"articles_collected":         m.ArticlesCollected,
		"duplicates_filtered":        m.DuplicatesFiltered,
		"source_failures":            m.SourceFailures,
		"digests_published":          m.DigestsPublished,
		"last_count":                 m.LastCount,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_time":              m.LastRunTime.Format(time.RFC3339),
		"last_error_time":            m.LastErrorTime.Format(time.RFC3339),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}

// Handler serves the Prometheus exposition of this Metrics' registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
