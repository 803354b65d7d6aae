package cache

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ericfisherdev/reviewchecker/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CacheStore = (*InstrumentedStore)(nil)

// InstrumentedStore decorates a CacheStore with hit/miss/error counters,
// labelled by the key's operation prefix (the text before the first ':').
type InstrumentedStore struct {
	next     driven.CacheStore
	lookups  *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewInstrumentedStore wraps next and registers its collectors with reg.
func NewInstrumentedStore(next driven.CacheStore, reg prometheus.Registerer) *InstrumentedStore {
	s := &InstrumentedStore{
		next: next,
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reviewchecker_cache_lookups_total",
				Help: "Cache lookups by operation and result (hit or miss).",
			},
			[]string{"op", "result"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reviewchecker_cache_errors_total",
				Help: "Cache backend errors by operation and method.",
			},
			[]string{"op", "method"},
		),
	}
	reg.MustRegister(s.lookups, s.failures)
	return s
}

func (s *InstrumentedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	op := keyOp(key)
	val, ok, err := s.next.Get(ctx, key)
	switch {
	case err != nil:
		s.failures.WithLabelValues(op, "get").Inc()
	case ok:
		s.lookups.WithLabelValues(op, "hit").Inc()
	default:
		s.lookups.WithLabelValues(op, "miss").Inc()
	}
	return val, ok, err
}

func (s *InstrumentedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.next.Set(ctx, key, value, ttl)
	if err != nil {
		s.failures.WithLabelValues(keyOp(key), "set").Inc()
	}
	return err
}

func keyOp(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "unknown"
}
