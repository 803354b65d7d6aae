package application

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Pinger is a dependency whose reachability can be probed. sqlite.DB and
// cache.RedisStore satisfy it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessReport is the result of probing every registered dependency.
type ReadinessReport struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
}

// HealthService probes the process's stateful dependencies for readiness.
// Liveness needs no service; a responding process is alive.
type HealthService struct {
	mu      sync.RWMutex
	pingers map[string]Pinger
	timeout time.Duration
}

// NewHealthService creates a HealthService that gives each probe timeout.
func NewHealthService(timeout time.Duration) *HealthService {
	return &HealthService{pingers: make(map[string]Pinger), timeout: timeout}
}

// Register adds a named dependency to probe.
func (s *HealthService) Register(name string, p Pinger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingers[name] = p
}

// Readiness pings every registered dependency. A failing probe reports its
// error text under its name and marks the report not ready.
func (s *HealthService) Readiness(ctx context.Context) ReadinessReport {
	s.mu.RLock()
	names := make([]string, 0, len(s.pingers))
	for name := range s.pingers {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)

	report := ReadinessReport{Ready: true, Checks: make(map[string]string, len(names))}
	for _, name := range names {
		s.mu.RLock()
		p := s.pingers[name]
		s.mu.RUnlock()

		pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := p.Ping(pingCtx)
		cancel()

		if err != nil {
			report.Ready = false
			report.Checks[name] = err.Error()
			continue
		}
		report.Checks[name] = "ok"
	}

	return report
}
