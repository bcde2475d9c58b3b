package wire

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
)

// WSConn adapts a WebSocket connection to the Conn capability: each text
// message carries exactly one protocol line. Binary and control frames are
// skipped; gorilla handles ping/pong internally.
type WSConn struct {
	conn    *websocket.Conn
	maxLine int
}

// NewWSConn wraps an upgraded WebSocket connection. maxLine bounds both
// directions, mirroring NewTCPConn.
func NewWSConn(conn *websocket.Conn, maxLine int) *WSConn {
	if maxLine < 2 {
		maxLine = DefaultMaxLineLen
	}
	conn.SetReadLimit(int64(maxLine))
	return &WSConn{conn: conn, maxLine: maxLine}
}

func (c *WSConn) ReadLine() (string, error) {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				return "", ErrLineTooLong
			}
			return "", fmt.Errorf("wire: websocket read: %w", err)
		}
		if msgType != websocket.TextMessage {
			continue
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
}

func (c *WSConn) WriteLine(line string) error {
	if len(line)+1 > c.maxLine {
		return fmt.Errorf("%w: %d bytes", ErrLineTooLong, len(line)+1)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		return fmt.Errorf("wire: websocket write: %w", err)
	}
	return nil
}

func (c *WSConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *WSConn) Close() error {
	return c.conn.Close()
}
