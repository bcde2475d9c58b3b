package server

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatwire/pkg/chat"
	"chatwire/pkg/wire"
)

// Run starts the server and blocks until a shutdown signal arrives.
func (s *Server) Run() error {
	if err := s.Start(); err != nil {
		return err
	}

	slog.Info("chatwire server running",
		"addr", s.cfg.Addr,
		"ws", s.cfg.WSAddr,
		"idle_timeout", time.Duration(s.cfg.IdleTimeoutSeconds)*time.Second,
	)

	// Periodic metrics logging (every 60s)
	s.metrics.StartPeriodicLog(60*time.Second, s.ctx.Done())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	s.Shutdown()
	return nil
}

// Start binds the listeners and starts the accept loops and the reaper.
// It does not block.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	s.ln = ln
	slog.Info("listening", "addr", ln.Addr().String())

	go s.acceptLoop()
	go s.reaper.Run(s.ctx)

	if err := s.startWebSocket(); err != nil {
		_ = ln.Close()
		return err
	}
	s.startMetricsHTTP()
	return nil
}

// Shutdown stops the listeners and the reaper, then notifies and closes
// every session. Safe to call more than once.
func (s *Server) Shutdown() {
	s.cancel()
	if s.ln != nil {
		_ = s.ln.Close()
	}
	if s.wsSrv != nil {
		_ = s.wsSrv.Close()
	}

	for _, sess := range s.registry.ListAll() {
		s.router.Deliver(sess, wire.FormatInfo("server-shutdown"))
		sess.Close(chat.CloseShutdown)
		s.registry.Unregister(sess.ID())
	}

	if s.audit != nil {
		if err := s.audit.Close(); err != nil {
			slog.Error("audit close failed", "err", err)
		}
		s.audit = nil
	}
	slog.Info("server stopped")
}

// acceptLoop accepts TCP connections until the listener is closed.
func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				slog.Error("accept error", "err", err)
				continue
			}
		}
		go s.handleConn(wire.NewTCPConn(conn, s.cfg.MaxLineBytes))
	}
}
