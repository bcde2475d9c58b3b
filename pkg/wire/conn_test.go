package wire

import (
	"errors"
	"io"
	"net"
	"strings"
	"testing"
)

// pipePair returns a TCPConn over one end of an in-memory pipe and the raw
// peer end for the test to drive.
func pipePair(t *testing.T, maxLine int) (*TCPConn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return NewTCPConn(server, maxLine), client
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"lf", "LOGIN alice\n", []string{"LOGIN alice"}},
		{"crlf", "LOGIN alice\r\n", []string{"LOGIN alice"}},
		{"two lines", "PING\nWHO\n", []string{"PING", "WHO"}},
		{"empty line", "\n", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, peer := pipePair(t, 0)
			go func() {
				peer.Write([]byte(tt.input))
				peer.Close()
			}()

			for i, want := range tt.want {
				got, err := conn.ReadLine()
				if err != nil {
					t.Fatalf("ReadLine #%d: %v", i, err)
				}
				if got != want {
					t.Errorf("ReadLine #%d = %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestReadLinePartialBeforeEOF(t *testing.T) {
	conn, peer := pipePair(t, 0)
	go func() {
		peer.Write([]byte("MSG no newline"))
		peer.Close()
	}()

	got, err := conn.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if got != "MSG no newline" {
		t.Fatalf("ReadLine = %q, want the unterminated line", got)
	}
	if _, err := conn.ReadLine(); err != io.EOF {
		t.Fatalf("second ReadLine = %v, want io.EOF", err)
	}
}

func TestReadLineTooLong(t *testing.T) {
	conn, peer := pipePair(t, 16)
	go func() {
		peer.Write([]byte(strings.Repeat("a", 64) + "\n"))
		peer.Close()
	}()

	if _, err := conn.ReadLine(); !errors.Is(err, ErrLineTooLong) {
		t.Fatalf("ReadLine = %v, want ErrLineTooLong", err)
	}
}

func TestWriteLine(t *testing.T) {
	conn, peer := pipePair(t, 0)

	errCh := make(chan error, 1)
	go func() { errCh <- conn.WriteLine("MSG alice hi") }()

	buf := make([]byte, 64)
	n, err := peer.Read(buf)
	if err != nil {
		t.Fatalf("peer read: %v", err)
	}
	if got := string(buf[:n]); got != "MSG alice hi\n" {
		t.Fatalf("wire bytes = %q, want newline-terminated line", got)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
}

func TestWriteLineTooLong(t *testing.T) {
	conn, _ := pipePair(t, 16)

	err := conn.WriteLine(strings.Repeat("a", 16))
	if !errors.Is(err, ErrLineTooLong) {
		t.Fatalf("WriteLine = %v, want ErrLineTooLong", err)
	}
}

func TestWriteLineAtLimit(t *testing.T) {
	conn, peer := pipePair(t, 16)
	go io.Copy(io.Discard, peer)

	// 15 bytes of payload plus the newline is exactly the limit.
	if err := conn.WriteLine(strings.Repeat("a", 15)); err != nil {
		t.Fatalf("WriteLine at limit: %v", err)
	}
}
