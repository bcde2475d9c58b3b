package chat

import (
	"errors"
	"log/slog"
	"strings"
	"unicode"

	"chatwire/pkg/metrics"
	"chatwire/pkg/wire"
)

// Dispatcher parses inbound lines into commands and runs them against the
// session and the registry. It owns the authentication gate: before LOGIN
// succeeds only LOGIN and PING are allowed.
type Dispatcher struct {
	reg    *Registry
	router *Router
	m      *metrics.Metrics
}

// NewDispatcher creates a dispatcher over the given registry and router.
func NewDispatcher(reg *Registry, router *Router, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{reg: reg, router: router, m: m}
}

// splitToken splits a line on the first whitespace run into its first token
// and the remainder with leading whitespace removed.
func splitToken(line string) (token, rest string) {
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimLeftFunc(line[i:], unicode.IsSpace)
}

// HandleLine parses one inbound line and executes it. Every malformed or
// rejected command answers with exactly one ERR line and has no other
// effect; errors never propagate past the issuing session.
func (d *Dispatcher) HandleLine(s *Session, rawLine string) {
	s.Touch()

	line := strings.TrimSpace(rawLine)
	if line == "" {
		return
	}

	token, rest := splitToken(line)
	cmd := strings.ToUpper(token)

	switch cmd {
	case "LOGIN":
		d.handleLogin(s, rest)
	case "PING":
		d.router.Deliver(s, wire.RespPong)
	case "MSG", "WHO", "DM":
		if !s.Authenticated() {
			d.router.Deliver(s, wire.Err(wire.ReasonNotAuthenticated))
			return
		}
		switch cmd {
		case "MSG":
			d.handleChat(s, rest)
		case "WHO":
			d.handleWho(s)
		case "DM":
			d.handleDirect(s, rest)
		}
	default:
		// Unknown commands on an unauthenticated session report the gate,
		// not the unknown keyword.
		if !s.Authenticated() {
			d.router.Deliver(s, wire.Err(wire.ReasonNotAuthenticated))
			return
		}
		d.router.Deliver(s, wire.Err(wire.ReasonUnknownCommand))
	}
}

// handleLogin binds a username to the session. Anything after the first
// token of the argument is ignored.
func (d *Dispatcher) handleLogin(s *Session, rest string) {
	if s.Authenticated() {
		d.m.LoginsFailed.Add(1)
		d.router.Deliver(s, wire.Err(wire.ReasonAlreadyAuthenticated))
		return
	}

	username, _ := splitToken(rest)
	if err := ValidateUsername(username); err != nil {
		d.m.LoginsFailed.Add(1)
		d.router.Deliver(s, wire.Err(wire.ReasonInvalidUsername))
		return
	}

	if err := d.reg.TryAuthenticate(s, username); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			d.m.LoginsFailed.Add(1)
			d.router.Deliver(s, wire.Err(wire.ReasonUsernameTaken))
		}
		// ErrSessionClosed: the connection is gone, nothing to answer.
		return
	}

	d.m.LoginsTotal.Add(1)
	slog.Info("client authenticated", "user", username, "remote", s.RemoteAddr())

	d.router.Deliver(s, wire.RespOK)
	d.m.InfosSent.Add(1)
	d.router.BroadcastToAll(wire.FormatInfo(username + " connected"))
}

// handleChat broadcasts a chat message to everyone but the sender.
func (d *Dispatcher) handleChat(s *Session, rest string) {
	text := sanitizeText(strings.TrimSpace(rest))
	if text == "" {
		d.router.Deliver(s, wire.Err(wire.ReasonEmptyMessage))
		return
	}

	d.m.BroadcastsSent.Add(1)
	d.router.BroadcastToOthers(s.Username(), wire.FormatChat(s.Username(), text))
}

// handleWho answers with one USER line per authenticated session, in
// snapshot order.
func (d *Dispatcher) handleWho(s *Session) {
	for _, peer := range d.reg.ListAuthenticated() {
		d.router.Deliver(s, wire.FormatUser(peer.Username()))
	}
}

// handleDirect sends a direct message to one named target. A DM to the
// sender's own name reports user-not-found, same as a missing target.
func (d *Dispatcher) handleDirect(s *Session, rest string) {
	target, body := splitToken(rest)
	if target == "" {
		d.router.Deliver(s, wire.Err(wire.ReasonInvalidDMFormat))
		return
	}

	body = sanitizeText(strings.TrimSpace(body))
	if body == "" {
		d.router.Deliver(s, wire.Err(wire.ReasonEmptyMessage))
		return
	}

	if target == s.Username() {
		d.router.Deliver(s, wire.Err(wire.ReasonUserNotFound))
		return
	}
	peer := d.reg.FindByUsername(target)
	if peer == nil {
		d.router.Deliver(s, wire.Err(wire.ReasonUserNotFound))
		return
	}

	d.m.DirectsSent.Add(1)
	d.router.Deliver(peer, wire.FormatDM(s.Username(), body))
}
