package server

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"chatwire/pkg/chat"
	"chatwire/pkg/wire"
)

// floodStrikeLimit is how many consecutive over-budget lines a connection
// may produce before it is closed.
const floodStrikeLimit = 5

// handleConn runs one connection's read loop to completion. It owns the
// session lifecycle: register on entry, unregister plus disconnect notice
// on exit. Reading the transport is the loop's only blocking point; closing
// the session from elsewhere (reaper, shutdown) interrupts it.
func (s *Server) handleConn(conn wire.Conn) {
	sess := chat.NewSession(conn)
	s.registry.Register(sess)

	s.metrics.ConnectionsTotal.Add(1)
	s.metrics.ActiveConnections.Add(1)
	slog.Debug("new connection", "remote", sess.RemoteAddr())

	auditID := int64(-1)
	defer func() {
		reason := sess.Close(chat.ClosePeer)
		s.registry.Unregister(sess.ID())

		s.metrics.ActiveConnections.Add(-1)
		s.metrics.DisconnectsTotal.Add(1)

		name := sess.Username()
		slog.Info("client disconnected", "user", name, "remote", sess.RemoteAddr(), "reason", reason)

		// The reaper and shutdown paths send their own notices.
		if name != "" && (reason == chat.ClosePeer || reason == chat.CloseFlood) {
			s.metrics.InfosSent.Add(1)
			s.router.BroadcastToAll(wire.FormatInfo(name + " disconnected"))
		}

		if s.audit != nil && auditID >= 0 {
			if err := s.audit.RecordDisconnect(auditID, reason.String()); err != nil {
				slog.Error("audit write failed", "err", err)
			}
		}
	}()

	var limiter *rate.Limiter
	if s.cfg.RateLimitPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimitPerSec), s.cfg.RateBurst)
	}

	strikes := 0
	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		line, err := conn.ReadLine()
		if err != nil {
			if !isDisconnectErr(err) {
				slog.Debug("read error", "remote", sess.RemoteAddr(), "err", err)
			}
			return
		}
		s.metrics.LinesHandled.Add(1)

		if limiter != nil && !limiter.Allow() {
			strikes++
			if strikes >= floodStrikeLimit {
				slog.Warn("closing flooding connection",
					"user", sess.Username(), "remote", sess.RemoteAddr())
				s.metrics.FloodDisconnects.Add(1)
				sess.Close(chat.CloseFlood)
				return
			}
			continue // over budget, line discarded
		}
		strikes = 0

		s.dispatcher.HandleLine(sess, line)

		// First authenticated line: open the audit entry.
		if auditID < 0 && s.audit != nil && sess.Authenticated() {
			id, err := s.audit.RecordLogin(sess.Username(), sess.RemoteAddr())
			if err != nil {
				slog.Error("audit write failed", "err", err)
			} else {
				auditID = id
			}
		}
	}
}

// isDisconnectErr reports whether a read error is an ordinary end of
// connection rather than something worth logging.
func isDisconnectErr(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	return strings.Contains(err.Error(), "use of closed network connection")
}
