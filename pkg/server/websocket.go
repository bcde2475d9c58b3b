package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"chatwire/pkg/wire"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Non-browser clients send no Origin header; browser clients are
	// expected to front this with a proxy that enforces policy.
	CheckOrigin: func(*http.Request) bool { return true },
}

// startWebSocket starts the optional WebSocket listener on /ws. Each
// upgraded connection joins the same dispatcher as a TCP client. Disabled
// when no address is configured.
func (s *Server) startWebSocket() error {
	addr := s.cfg.WSAddr
	if addr == "" {
		return nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen websocket: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWSUpgrade)

	s.wsSrv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("websocket listening", "addr", addr)
		if err := s.wsSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("websocket server error", "err", err)
		}
	}()
	return nil
}

func (s *Server) handleWSUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	// Runs in the HTTP handler goroutine until the client disconnects.
	s.handleConn(wire.NewWSConn(conn, s.cfg.MaxLineBytes))
}
