package cache

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts cache outcomes. A nil *Metrics is valid and counts nothing,
// so instrumentation stays optional.
type Metrics struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
}

// NewMetrics registers counters for one named cache on reg.
func NewMetrics(reg prometheus.Registerer, name string) *Metrics {
	labels := prometheus.Labels{"cache": name}
	m := &Metrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "kolejka",
			Subsystem:   "cache",
			Name:        "hits_total",
			Help:        "Lookups served from a fresh entry.",
			ConstLabels: labels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "kolejka",
			Subsystem:   "cache",
			Name:        "misses_total",
			Help:        "Lookups that required an upstream fetch.",
			ConstLabels: labels,
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "kolejka",
			Subsystem:   "cache",
			Name:        "evictions_total",
			Help:        "Idle entries dropped by the sweep.",
			ConstLabels: labels,
		}),
	}
	reg.MustRegister(m.hits, m.misses, m.evictions)
	return m
}

func (m *Metrics) hit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *Metrics) evict() {
	if m != nil {
		m.evictions.Inc()
	}
}
