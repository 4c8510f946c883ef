// Package metrics exposes parse activity as Prometheus metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ppiankov/neurofold/internal/engine"
)

// Metrics holds all Prometheus metrics for parse requests.
type Metrics struct {
	ParsesTotal    prometheus.Counter
	ParseErrors    *prometheus.CounterVec
	LinesTotal     *prometheus.CounterVec
	RuleMatches    *prometheus.CounterVec
	RecordsTotal   *prometheus.CounterVec
	DroppedTotal   *prometheus.CounterVec
	ParseDuration  prometheus.Histogram
	BytesParsed    prometheus.Counter
	BestOOFF1      prometheus.Gauge
	RunDuration    prometheus.Gauge
	ActiveRequests prometheus.Gauge
}

// New creates and registers all parse metrics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ParsesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "neurofold_parses_total",
			Help: "Total logs parsed",
		}),
		ParseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "neurofold_parse_errors_total",
			Help: "Total rejected parse requests by reason",
		}, []string{"reason"}),
		LinesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "neurofold_lines_total",
			Help: "Total log lines classified",
		}, []string{"relevant"}),
		RuleMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "neurofold_rule_matches_total",
			Help: "Total relevant lines by matching rule",
		}, []string{"rule"}),
		RecordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "neurofold_records_total",
			Help: "Total metric records extracted by kind",
		}, []string{"kind"}),
		DroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "neurofold_dropped_values_total",
			Help: "Total extracted values that could not attach to a record",
		}, []string{"field", "reason"}),
		ParseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "neurofold_parse_duration_seconds",
			Help:    "Duration of a single parse",
			Buckets: prometheus.DefBuckets,
		}),
		BytesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "neurofold_bytes_parsed_total",
			Help: "Total bytes of log text parsed",
		}),
		BestOOFF1: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neurofold_last_best_oof_f1",
			Help: "Best out-of-fold F1 of the most recent run that reported one",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neurofold_last_run_duration_seconds",
			Help: "Run duration of the most recently parsed log",
		}),
		ActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neurofold_active_requests",
			Help: "Current in-flight API requests",
		}),
	}
	reg.MustRegister(
		m.ParsesTotal,
		m.ParseErrors,
		m.LinesTotal,
		m.RuleMatches,
		m.RecordsTotal,
		m.DroppedTotal,
		m.ParseDuration,
		m.BytesParsed,
		m.BestOOFF1,
		m.RunDuration,
		m.ActiveRequests,
	)
	return m
}

// Observe records one finished parse of size bytes.
func (m *Metrics) Observe(res *engine.Result, size int, took time.Duration) {
	m.ParsesTotal.Inc()
	m.ParseDuration.Observe(took.Seconds())
	m.BytesParsed.Add(float64(size))

	var relevant, noise int
	rules := make(map[string]int)
	for _, l := range res.Lines {
		if l.Relevant {
			relevant++
			rules[l.Rule]++
		} else {
			noise++
		}
	}
	m.LinesTotal.WithLabelValues(strconv.FormatBool(true)).Add(float64(relevant))
	m.LinesTotal.WithLabelValues(strconv.FormatBool(false)).Add(float64(noise))
	for rule, n := range rules {
		m.RuleMatches.WithLabelValues(rule).Add(float64(n))
	}

	kinds := make(map[string]int)
	for _, r := range res.Metrics {
		kinds[string(r.Kind)]++
	}
	for kind, n := range kinds {
		m.RecordsTotal.WithLabelValues(kind).Add(float64(n))
	}

	for _, d := range res.Dropped {
		m.DroppedTotal.WithLabelValues(string(d.Field), string(d.Reason)).Inc()
	}

	m.RunDuration.Set(res.Summary.RunDurationSeconds)
	if res.Summary.BestOutOfFoldF1 != nil {
		m.BestOOFF1.Set(*res.Summary.BestOutOfFoldF1)
	}
}
