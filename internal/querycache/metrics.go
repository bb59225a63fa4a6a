package querycache

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts cache hits and misses per resource.
type Metrics struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
}

// NewMetrics registers the cache counters. Collectors that are already
// registered are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kosha_querycache_hits_total",
		Help: "Number of backend reads served from the query cache.",
	}, []string{"resource"})
	misses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kosha_querycache_misses_total",
		Help: "Number of backend reads that missed the query cache.",
	}, []string{"resource"})

	var err error
	if hits, err = register(reg, hits); err != nil {
		return nil, err
	}
	if misses, err = register(reg, misses); err != nil {
		return nil, err
	}
	return &Metrics{hits: hits, misses: misses}, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				return nil, fmt.Errorf("querycache: unexpected collector type %T", already.ExistingCollector)
			}
			return existing, nil
		}
		return nil, err
	}
	return c, nil
}

func (m *Metrics) hit(resource string) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(resource).Inc()
}

func (m *Metrics) miss(resource string) {
	if m == nil {
		return
	}
	m.misses.WithLabelValues(resource).Inc()
}
