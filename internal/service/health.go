package service

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Pinger is the slice of the matrix client the health monitor needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthState is one immutable probe snapshot. The monitor replaces the
// whole record atomically on every tick, so readers never observe a
// half-updated state.
type HealthState struct {
	Reachable   bool
	LastChecked time.Time
	LastError   string
	Probes      uint64 // completed probe count since startup
}

// HealthService runs the recurring reachability probe against the matrix
// and serves the process-wide health state.
//
// Probe failures are terminal here: they are recorded into the state and
// never propagated. The monitor keeps ticking at a fixed interval no matter
// how many probes fail in a row — deliberately no backoff for a device that
// is expected to disappear and come back (power cycles, HDMI-CEC weirdness).
type HealthService struct {
	log       *zap.Logger
	matrix    Pinger
	interval  time.Duration
	startedAt time.Time

	state atomic.Pointer[HealthState]
}

// NewHealthService builds the monitor. Until Run's first probe completes
// the state reports unreachable with zero probes, so readiness starts as
// not-ready rather than optimistically ready.
func NewHealthService(log *zap.Logger, matrix Pinger, interval time.Duration) *HealthService {
	s := &HealthService{
		log:       log.Named("health"),
		matrix:    matrix,
		interval:  interval,
		startedAt: time.Now().UTC(),
	}
	s.state.Store(&HealthState{})
	return s
}

// Run probes once immediately, then on every interval tick until ctx is
// cancelled. Meant to be launched as `go healthsvc.Run(ctx)`.
func (s *HealthService) Run(ctx context.Context) {
	s.log.Info("starting health monitor", zap.Duration("interval", s.interval))

	s.probe(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("health monitor stopped")
			return
		case <-ticker.C:
			s.probe(ctx)
		}
	}
}

// probe runs one ping and swaps in a fresh state snapshot.
func (s *HealthService) probe(ctx context.Context) {
	prev := s.state.Load()
	next := &HealthState{
		LastChecked: time.Now().UTC(),
		Probes:      prev.Probes + 1,
	}

	if err := s.matrix.Ping(ctx); err != nil {
		next.LastError = err.Error()
		s.state.Store(next)
		s.log.Warn("matrix health check failed", zap.Error(err))
		return
	}

	next.Reachable = true
	s.state.Store(next)
	s.log.Debug("matrix health check ok")
}

// Snapshot returns an independent copy of the current health state.
func (s *HealthService) Snapshot() HealthState { return *s.state.Load() }

// Ready reports readiness: the matrix was reachable on the most recent
// probe AND at least one probe has completed since startup.
func (s *HealthService) Ready() bool {
	st := s.state.Load()
	return st.Reachable && st.Probes > 0
}

// Uptime is the time elapsed since the service was constructed.
func (s *HealthService) Uptime() time.Duration { return time.Since(s.startedAt) }
