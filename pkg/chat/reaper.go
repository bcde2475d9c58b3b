package chat

import (
	"context"
	"log/slog"
	"time"

	"chatwire/pkg/metrics"
	"chatwire/pkg/wire"
)

// DefaultSweepInterval is the fixed period between idle sweeps, independent
// of the configured timeout.
const DefaultSweepInterval = 10 * time.Second

// IdleReaper periodically evicts authenticated sessions that have been
// inactive past the timeout.
type IdleReaper struct {
	reg      *Registry
	router   *Router
	timeout  time.Duration
	interval time.Duration
	m        *metrics.Metrics
}

// NewIdleReaper creates a reaper. interval <= 0 falls back to
// DefaultSweepInterval.
func NewIdleReaper(reg *Registry, router *Router, timeout, interval time.Duration, m *metrics.Metrics) *IdleReaper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &IdleReaper{reg: reg, router: router, timeout: timeout, interval: interval, m: m}
}

// Run sweeps on the fixed interval until the context is cancelled.
func (r *IdleReaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep snapshots the authenticated sessions and evicts those idle past the
// timeout.
func (r *IdleReaper) Sweep() {
	for _, s := range r.reg.ListAuthenticated() {
		if s.IdleFor(r.timeout) {
			r.evict(s)
		}
	}
}

func (r *IdleReaper) evict(s *Session) {
	// A line may have arrived since the candidate check; re-verify so a
	// just-active session stays.
	if !s.IdleFor(r.timeout) {
		return
	}

	name := s.Username()
	slog.Info("idle session evicted", "user", name, "remote", s.RemoteAddr(), "timeout", r.timeout)

	r.router.Deliver(s, wire.FormatInfo("timeout-disconnect"))
	r.m.InfosSent.Add(1)
	r.router.BroadcastToOthers(name, wire.FormatInfo(name+" disconnected (timeout)"))

	s.Close(CloseIdle)
	r.reg.Unregister(s.ID())
	r.m.IdleEvictions.Add(1)
}
