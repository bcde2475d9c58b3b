package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

// ErrLineTooLong is returned when a line exceeds the configured maximum
// length, on read (the peer misbehaves) or on write (the message is dropped
// locally, never truncated).
var ErrLineTooLong = errors.New("wire: line exceeds maximum length")

// Conn is the line transport capability the chat core runs on. ReadLine
// blocks until a full line arrives; Close interrupts a pending ReadLine.
// Implementations do not serialize concurrent writers; callers own that.
type Conn interface {
	// ReadLine returns the next inbound line with the trailing newline
	// (and any carriage return) stripped. io.EOF signals a clean peer
	// disconnect.
	ReadLine() (string, error)

	// WriteLine sends one line, appending the newline. Returns
	// ErrLineTooLong without writing anything if the serialized line
	// would exceed the maximum length.
	WriteLine(line string) error

	// RemoteAddr identifies the peer for logging.
	RemoteAddr() string

	Close() error
}

// TCPConn adapts a stream net.Conn to the Conn capability using a bounded
// buffered reader. The read buffer doubles as the line-length limit: a line
// that overflows it is reported as ErrLineTooLong.
type TCPConn struct {
	conn    net.Conn
	r       *bufio.Reader
	maxLine int
}

// NewTCPConn wraps a net.Conn. maxLine bounds both directions; values
// below 2 fall back to DefaultMaxLineLen.
func NewTCPConn(conn net.Conn, maxLine int) *TCPConn {
	if maxLine < 2 {
		maxLine = DefaultMaxLineLen
	}
	return &TCPConn{
		conn:    conn,
		r:       bufio.NewReaderSize(conn, maxLine),
		maxLine: maxLine,
	}
}

func (c *TCPConn) ReadLine() (string, error) {
	s, err := c.r.ReadSlice('\n')
	if err != nil {
		if err == bufio.ErrBufferFull {
			return "", ErrLineTooLong
		}
		// A final line without a newline still counts.
		if err == io.EOF && len(s) > 0 {
			return strings.TrimRight(string(s), "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(string(s), "\r\n"), nil
}

func (c *TCPConn) WriteLine(line string) error {
	if len(line)+1 > c.maxLine {
		return fmt.Errorf("%w: %d bytes", ErrLineTooLong, len(line)+1)
	}
	if _, err := c.conn.Write(append([]byte(line), '\n')); err != nil {
		return fmt.Errorf("wire: write: %w", err)
	}
	return nil
}

func (c *TCPConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *TCPConn) Close() error {
	return c.conn.Close()
}
