// Package chat implements the chat server core: the session registry, the
// protocol dispatcher, message routing, and idle eviction.
package chat

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"chatwire/pkg/wire"
)

// ErrSessionClosed is returned when an operation targets a session whose
// connection has already been torn down.
var ErrSessionClosed = errors.New("chat: session closed")

// State is a session's lifecycle position. Transitions only move forward:
// Connected -> Authenticated -> Closed, or straight Connected -> Closed.
type State int

const (
	StateConnected State = iota
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CloseReason records why a session entered StateClosed. Only the first
// close attempt records its reason; later attempts are no-ops.
type CloseReason int

const (
	CloseNone     CloseReason = iota
	ClosePeer                 // client disconnected or transport failed
	CloseIdle                 // evicted by the idle reaper
	CloseShutdown             // server shutting down
	CloseFlood                // closed for sustained flooding
)

func (r CloseReason) String() string {
	switch r {
	case ClosePeer:
		return "peer"
	case CloseIdle:
		return "idle-timeout"
	case CloseShutdown:
		return "shutdown"
	case CloseFlood:
		return "flood"
	default:
		return "none"
	}
}

// Session is the server-side state for one connected client. The connection
// handle is exclusively owned by the Session; all outbound writes go through
// Send, which serializes concurrent senders so two deliveries never
// interleave bytes on the wire.
type Session struct {
	id     string
	conn   wire.Conn
	remote string

	writeMu sync.Mutex // serializes Send

	mu           sync.RWMutex // guards the fields below
	username     string       // empty until LOGIN succeeds, immutable after
	state        State
	reason       CloseReason
	lastActivity time.Time
}

// NewSession wraps a freshly accepted connection in an unauthenticated
// session.
func NewSession(conn wire.Conn) *Session {
	return &Session{
		id:           uuid.NewString(),
		conn:         conn,
		remote:       conn.RemoteAddr(),
		state:        StateConnected,
		lastActivity: time.Now(),
	}
}

// ID returns the stable per-connection identifier.
func (s *Session) ID() string { return s.id }

// RemoteAddr identifies the peer for logging.
func (s *Session) RemoteAddr() string { return s.remote }

// Username returns the bound username, or "" before LOGIN succeeds. The name
// survives Close so disconnect notices can still identify the session.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// Authenticated reports whether the session is in StateAuthenticated.
func (s *Session) Authenticated() bool {
	return s.State() == StateAuthenticated
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Touch records inbound activity now.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateClosed {
		s.lastActivity = time.Now()
	}
}

// LastActivity returns the time of the last inbound line.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// IdleFor reports whether the session has been inactive for at least the
// given timeout.
func (s *Session) IdleFor(timeout time.Duration) bool {
	return time.Since(s.LastActivity()) >= timeout
}

// bind promotes the session to StateAuthenticated under the given username.
// Called by the Registry with the directory lock held, which is what makes
// the uniqueness check and the promotion one atomic step.
func (s *Session) bind(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnected {
		return false
	}
	s.username = username
	s.state = StateAuthenticated
	return true
}

// Send delivers one line to the client. Concurrent callers are serialized.
func (s *Session) Send(line string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.State() == StateClosed {
		return ErrSessionClosed
	}
	return s.conn.WriteLine(line)
}

// Close moves the session to StateClosed and closes the connection, which
// also interrupts a pending read. Idempotent: only the first call records
// its reason. Returns the effective reason either way.
func (s *Session) Close(reason CloseReason) CloseReason {
	s.mu.Lock()
	if s.state == StateClosed {
		r := s.reason
		s.mu.Unlock()
		return r
	}
	s.state = StateClosed
	s.reason = reason
	s.mu.Unlock()

	_ = s.conn.Close()
	return reason
}

// CloseReason returns the recorded reason, or CloseNone while still open.
func (s *Session) CloseReason() CloseReason {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}
