package chat

import (
	"reflect"
	"testing"
	"time"
)

func TestAuthenticationGate(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"msg", "MSG hello", "ERR not-authenticated"},
		{"who", "WHO", "ERR not-authenticated"},
		{"dm", "DM bob hi", "ERR not-authenticated"},
		{"unknown", "FROB twiddle", "ERR not-authenticated"},
		{"ping allowed", "PING", "PONG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestCore(t)
			s, conn := tc.connect()
			tc.disp.HandleLine(s, tt.line)
			if got := conn.lastLine(); got != tt.want {
				t.Errorf("HandleLine(%q) answered %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestLoginSuccess(t *testing.T) {
	tc := newTestCore(t)
	s, conn := tc.connect()

	tc.disp.HandleLine(s, "LOGIN alice")

	want := []string{"OK", "INFO alice connected"}
	if got := conn.sent(); !reflect.DeepEqual(got, want) {
		t.Fatalf("login responses = %v, want %v", got, want)
	}
	if !s.Authenticated() || s.Username() != "alice" {
		t.Fatalf("session not promoted: auth=%t user=%q", s.Authenticated(), s.Username())
	}
}

func TestLoginNoticeReachesOthers(t *testing.T) {
	tc := newTestCore(t)
	_, aliceConn := tc.login(t, "alice")

	tc.login(t, "bob")

	if got := aliceConn.lastLine(); got != "INFO bob connected" {
		t.Fatalf("alice got %q, want connect notice for bob", got)
	}
}

func TestLoginErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"no username", "LOGIN", "ERR invalid-username"},
		{"whitespace only", "LOGIN    ", "ERR invalid-username"},
		{"bad characters", "LOGIN al.ice", "ERR invalid-username"},
		{"too long", "LOGIN aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "ERR invalid-username"},
		{"taken", "LOGIN taken", "ERR username-taken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestCore(t)
			tc.login(t, "taken")

			s, conn := tc.connect()
			tc.disp.HandleLine(s, tt.line)
			if got := conn.lastLine(); got != tt.want {
				t.Errorf("HandleLine(%q) answered %q, want %q", tt.line, got, tt.want)
			}
			if s.Authenticated() {
				t.Error("rejected login must not authenticate")
			}
		})
	}
}

func TestLoginTwice(t *testing.T) {
	tc := newTestCore(t)
	s, conn := tc.login(t, "alice")

	tc.disp.HandleLine(s, "LOGIN other")
	if got := conn.lastLine(); got != "ERR already-authenticated" {
		t.Fatalf("got %q, want ERR already-authenticated", got)
	}
	if s.Username() != "alice" {
		t.Fatal("username changed by repeated login")
	}
}

func TestLoginIgnoresTrailingTokens(t *testing.T) {
	tc := newTestCore(t)
	s, conn := tc.connect()

	tc.disp.HandleLine(s, "LOGIN carol some trailing words")
	if got := conn.sent()[0]; got != "OK" {
		t.Fatalf("got %q, want OK", got)
	}
	if s.Username() != "carol" {
		t.Fatalf("username = %q, want carol", s.Username())
	}
}

func TestChatBroadcastExcludesSender(t *testing.T) {
	tc := newTestCore(t)
	alice, aliceConn := tc.login(t, "alice")
	_, bobConn := tc.login(t, "bob")
	_, carolConn := tc.login(t, "carol")

	before := len(aliceConn.sent())
	tc.disp.HandleLine(alice, "MSG hello world")

	for name, conn := range map[string]*testConn{"bob": bobConn, "carol": carolConn} {
		if got := conn.lastLine(); got != "MSG alice hello world" {
			t.Errorf("%s got %q, want MSG alice hello world", name, got)
		}
	}
	if got := len(aliceConn.sent()); got != before {
		t.Errorf("sender received %d extra lines, want none", got-before)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	tc := newTestCore(t)
	alice, conn := tc.login(t, "alice")

	tc.disp.HandleLine(alice, "MSG    ")
	if got := conn.lastLine(); got != "ERR empty-message" {
		t.Fatalf("got %q, want ERR empty-message", got)
	}
}

func TestChatStripsControlCharacters(t *testing.T) {
	tc := newTestCore(t)
	alice, _ := tc.login(t, "alice")
	_, bobConn := tc.login(t, "bob")

	tc.disp.HandleLine(alice, "MSG he\x1b[31mllo\x00")
	if got := bobConn.lastLine(); got != "MSG alice he[31mllo" {
		t.Fatalf("got %q, control characters not stripped", got)
	}
}

func TestWhoListsSnapshotOrder(t *testing.T) {
	tc := newTestCore(t)
	tc.login(t, "zoe")
	alice, conn := tc.login(t, "alice")
	tc.login(t, "mike")

	before := len(conn.sent())
	tc.disp.HandleLine(alice, "WHO")

	want := []string{"USER alice", "USER mike", "USER zoe"}
	if got := conn.sent()[before:]; !reflect.DeepEqual(got, want) {
		t.Fatalf("WHO reply = %v, want %v", got, want)
	}
}

func TestDirectMessage(t *testing.T) {
	tc := newTestCore(t)
	alice, aliceConn := tc.login(t, "alice")
	_, bobConn := tc.login(t, "bob")

	before := len(aliceConn.sent())
	tc.disp.HandleLine(alice, "DM bob hi there")

	if got := bobConn.lastLine(); got != "DM alice hi there" {
		t.Fatalf("bob got %q, want DM alice hi there", got)
	}
	if got := len(aliceConn.sent()); got != before {
		t.Fatal("sender must not receive a DM confirmation")
	}
}

func TestDirectMessageErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"missing target", "DM", "ERR invalid-dm-format"},
		{"missing body", "DM bob", "ERR empty-message"},
		{"blank body", "DM bob    ", "ERR empty-message"},
		{"to self", "DM alice hi", "ERR user-not-found"},
		{"unknown target", "DM ghost hi", "ERR user-not-found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := newTestCore(t)
			alice, conn := tc.login(t, "alice")
			tc.login(t, "bob")

			tc.disp.HandleLine(alice, tt.line)
			if got := conn.lastLine(); got != tt.want {
				t.Errorf("HandleLine(%q) answered %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestCommandsCaseInsensitive(t *testing.T) {
	tc := newTestCore(t)
	s, conn := tc.connect()

	tc.disp.HandleLine(s, "ping")
	if got := conn.lastLine(); got != "PONG" {
		t.Fatalf("got %q, want PONG", got)
	}

	tc.disp.HandleLine(s, "login dave")
	if got := conn.lastLine(); got != "INFO dave connected" {
		t.Fatalf("lowercase login failed, last line %q", got)
	}
}

func TestEmptyLineIsNoop(t *testing.T) {
	tc := newTestCore(t)
	s, conn := tc.login(t, "alice")

	before := len(conn.sent())
	tc.disp.HandleLine(s, "   \t ")
	if got := len(conn.sent()); got != before {
		t.Fatalf("empty line produced %d responses, want none", got-before)
	}
}

func TestUnknownCommandAuthenticated(t *testing.T) {
	tc := newTestCore(t)
	s, conn := tc.login(t, "alice")

	tc.disp.HandleLine(s, "TELEPORT home")
	if got := conn.lastLine(); got != "ERR unknown-command" {
		t.Fatalf("got %q, want ERR unknown-command", got)
	}
}

func TestLineUpdatesActivity(t *testing.T) {
	tc := newTestCore(t)
	s, _ := tc.login(t, "alice")

	backdate(s, time.Hour)
	tc.disp.HandleLine(s, "PING")
	if s.IdleFor(time.Minute) {
		t.Fatal("inbound line did not refresh the activity clock")
	}
}
