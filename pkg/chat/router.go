package chat

import (
	"errors"
	"log/slog"

	"chatwire/pkg/metrics"
	"chatwire/pkg/wire"
)

// Router resolves recipient sets and delivers pre-formatted lines. Delivery
// is best-effort and at-most-once: a failed write is counted and logged at
// debug, the recipient is not notified, the sender is not informed, and
// nothing is re-queued.
type Router struct {
	reg *Registry
	m   *metrics.Metrics
}

// NewRouter creates a router over the given registry.
func NewRouter(reg *Registry, m *metrics.Metrics) *Router {
	return &Router{reg: reg, m: m}
}

// Deliver sends one line to one session, absorbing failures.
func (rt *Router) Deliver(s *Session, line string) {
	err := s.Send(line)
	if err == nil {
		return
	}
	if errors.Is(err, wire.ErrLineTooLong) {
		rt.m.OversizeDrops.Add(1)
		slog.Warn("outbound line dropped, too long", "user", s.Username(), "len", len(line))
		return
	}
	rt.m.SendFailures.Add(1)
	slog.Debug("delivery failed", "user", s.Username(), "remote", s.RemoteAddr(), "err", err)
}

// BroadcastToAll delivers a line to every authenticated session, including
// the one that triggered it.
func (rt *Router) BroadcastToAll(line string) {
	for _, s := range rt.reg.ListAuthenticated() {
		rt.Deliver(s, line)
	}
}

// BroadcastToOthers delivers a line to every authenticated session except
// the one holding senderUsername.
func (rt *Router) BroadcastToOthers(senderUsername, line string) {
	for _, s := range rt.reg.ListAuthenticated() {
		if s.Username() == senderUsername {
			continue
		}
		rt.Deliver(s, line)
	}
}
