package chat

import (
	"io"
	"sync"
	"testing"
	"time"

	"chatwire/pkg/metrics"
)

// testConn is an in-memory wire.Conn that records written lines.
type testConn struct {
	mu       sync.Mutex
	lines    []string
	writeErr error
	closed   bool
}

func (c *testConn) ReadLine() (string, error) { return "", io.EOF }

func (c *testConn) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.lines = append(c.lines, line)
	return nil
}

func (c *testConn) RemoteAddr() string { return "test:0" }

func (c *testConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *testConn) sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *testConn) lastLine() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.lines) == 0 {
		return ""
	}
	return c.lines[len(c.lines)-1]
}

// testCore bundles the chat components the way the server wires them.
type testCore struct {
	reg    *Registry
	router *Router
	disp   *Dispatcher
	m      *metrics.Metrics
}

func newTestCore(t *testing.T) *testCore {
	t.Helper()
	m := metrics.New()
	reg := NewRegistry()
	router := NewRouter(reg, m)
	return &testCore{
		reg:    reg,
		router: router,
		disp:   NewDispatcher(reg, router, m),
		m:      m,
	}
}

// connect registers a fresh unauthenticated session.
func (tc *testCore) connect() (*Session, *testConn) {
	conn := &testConn{}
	s := NewSession(conn)
	tc.reg.Register(s)
	return s, conn
}

// login registers a session and authenticates it, failing the test if the
// LOGIN is not accepted.
func (tc *testCore) login(t *testing.T, name string) (*Session, *testConn) {
	t.Helper()
	s, conn := tc.connect()
	tc.disp.HandleLine(s, "LOGIN "+name)
	lines := conn.sent()
	if len(lines) == 0 || lines[0] != "OK" {
		t.Fatalf("login %s: got %v, want OK first", name, lines)
	}
	return s, conn
}

// backdate rewinds a session's activity clock.
func backdate(s *Session, d time.Duration) {
	s.mu.Lock()
	s.lastActivity = time.Now().Add(-d)
	s.mu.Unlock()
}
