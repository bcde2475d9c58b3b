// Package server wires the chat core to its transports: the TCP accept
// loop, the optional WebSocket listener, the metrics endpoint, and
// signal-driven shutdown.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"chatwire/pkg/chat"
	"chatwire/pkg/metrics"
	"chatwire/pkg/store"
)

// AuditLog records connection lifecycle events. Satisfied by *store.Store;
// nil disables auditing.
type AuditLog interface {
	RecordLogin(username, remoteAddr string) (int64, error)
	RecordDisconnect(logID int64, reason string) error
	Close() error
}

var _ AuditLog = (*store.Store)(nil)

// Dependencies holds external dependencies for the server.
// Server assumes ownership of Audit and will Close() it on shutdown.
type Dependencies struct {
	Audit AuditLog
}

// Server is the chat server: registry, dispatcher, router, and reaper,
// plus the listeners feeding them.
type Server struct {
	cfg        Config
	registry   *chat.Registry
	router     *chat.Router
	dispatcher *chat.Dispatcher
	reaper     *chat.IdleReaper
	metrics    *metrics.Metrics
	promReg    *prometheus.Registry
	audit      AuditLog

	ln    net.Listener
	wsSrv *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Server instance.
func New(cfg Config, deps Dependencies) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	m := metrics.New()
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(m)

	registry := chat.NewRegistry()
	router := chat.NewRouter(registry, m)

	return &Server{
		cfg:        cfg,
		registry:   registry,
		router:     router,
		dispatcher: chat.NewDispatcher(registry, router, m),
		reaper: chat.NewIdleReaper(registry, router,
			time.Duration(cfg.IdleTimeoutSeconds)*time.Second,
			chat.DefaultSweepInterval, m),
		metrics: m,
		promReg: promReg,
		audit:   deps.Audit,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Registry returns the session registry.
func (s *Server) Registry() *chat.Registry {
	return s.registry
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Addr returns the bound TCP listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}
