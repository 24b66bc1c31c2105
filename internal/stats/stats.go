// Package stats provides a minimal set of interfaces that build on and are
// backed by go-metrics. We wrap go-metrics so call sites depend on a small
// stable interface instead of the underlying registry, and so a NilStats
// implementation can be swapped in for tests and for callers that don't
// care about metrics.
//
// Original license: github.com/rcrowley/go-metrics/blob/master/LICENSE
package stats

import (
	"time"

	"github.com/rcrowley/go-metrics"
)

// StatsReceiver is scoped (namespaced) metrics access threaded through
// constructors, never referenced as a package-level global by business
// logic.
type StatsReceiver interface {
	// Scope returns a copy that namespaces further names under the given
	// scope elements, e.g. Scope("placement").Counter("scheduled") is
	// equivalent to Counter("placement", "scheduled").
	Scope(scope ...string) StatsReceiver

	Counter(name ...string) Counter
	Gauge(name ...string) Gauge
	Latency(name ...string) Latency
}

type defaultStatsReceiver struct {
	registry metrics.Registry
	scope    []string
}

// New returns a StatsReceiver backed by a fresh go-metrics registry.
func New() StatsReceiver {
	return &defaultStatsReceiver{registry: metrics.NewRegistry()}
}

func (s *defaultStatsReceiver) Scope(scope ...string) StatsReceiver {
	return &defaultStatsReceiver{registry: s.registry, scope: append(append([]string{}, s.scope...), scope...)}
}

func (s *defaultStatsReceiver) scopedName(name ...string) string {
	parts := append(append([]string{}, s.scope...), name...)
	out := parts[0]
	for _, p := range parts[1:] {
		out = out + "/" + p
	}
	return out
}

func (s *defaultStatsReceiver) Counter(name ...string) Counter {
	return &metricCounter{s.registry.GetOrRegister(s.scopedName(name...), metrics.NewCounter).(metrics.Counter)}
}

func (s *defaultStatsReceiver) Gauge(name ...string) Gauge {
	return &metricGauge{s.registry.GetOrRegister(s.scopedName(name...), metrics.NewGauge).(metrics.Gauge)}
}

func (s *defaultStatsReceiver) Latency(name ...string) Latency {
	h := s.registry.GetOrRegister(s.scopedName(name...), func() metrics.Histogram {
		return metrics.NewHistogram(metrics.NewUniformSample(1000))
	}).(metrics.Histogram)
	return &metricLatency{Histogram: h}
}

// Counter is a monotonic event count.
type Counter interface {
	Inc(int64)
	Count() int64
}
type metricCounter struct{ metrics.Counter }

// Gauge holds an arbitrarily-set int64 value.
type Gauge interface {
	Update(int64)
	Value() int64
}
type metricGauge struct{ metrics.Gauge }

// Latency records elapsed-time samples. Time() starts the clock and returns
// self so calls can be chained as `defer stat.Latency("x").Time().Stop()`.
type Latency interface {
	Time() Latency
	Stop()
}
type metricLatency struct {
	metrics.Histogram
	start time.Time
}

func (l *metricLatency) Time() Latency { l.start = time.Now(); return l }
func (l *metricLatency) Stop()         { l.Update(time.Since(l.start).Microseconds()) }

// Nil is a StatsReceiver that discards everything; used where metrics
// aren't wired up (tests, one-off tools).
func Nil() StatsReceiver { return &nilStatsReceiver{} }

type nilStatsReceiver struct{}

func (s *nilStatsReceiver) Scope(scope ...string) StatsReceiver { return s }
func (s *nilStatsReceiver) Counter(name ...string) Counter      { return nilCounter{} }
func (s *nilStatsReceiver) Gauge(name ...string) Gauge          { return nilGauge{} }
func (s *nilStatsReceiver) Latency(name ...string) Latency      { return nilLatency{} }

type nilCounter struct{}

func (nilCounter) Inc(int64)    {}
func (nilCounter) Count() int64 { return 0 }

type nilGauge struct{}

func (nilGauge) Update(int64)  {}
func (nilGauge) Value() int64  { return 0 }

type nilLatency struct{}

func (n nilLatency) Time() Latency { return n }
func (n nilLatency) Stop()         {}
