// Package metrics tracks server runtime statistics.
//
// Counters are plain atomics so the hot paths (line dispatch, routing) never
// take a lock; the Metrics value doubles as a prometheus.Collector for the
// /metrics endpoint.
package metrics

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks chat server runtime statistics.
type Metrics struct {
	startTime time.Time

	// Connection counters
	ConnectionsTotal  atomic.Int64 // lifetime connections accepted (TCP + WebSocket)
	ActiveConnections atomic.Int64 // currently open connections
	DisconnectsTotal  atomic.Int64 // total disconnects, any cause
	FloodDisconnects  atomic.Int64 // connections closed for sustained flooding

	// Auth counters
	LoginsTotal  atomic.Int64 // successful LOGIN commands
	LoginsFailed atomic.Int64 // rejected LOGIN commands (taken/invalid/repeat)

	// Dispatch counters
	LinesHandled atomic.Int64 // inbound lines read, including discarded ones

	// Routing counters
	BroadcastsSent atomic.Int64 // chat broadcasts routed (MSG)
	DirectsSent    atomic.Int64 // direct messages routed (DM)
	InfosSent      atomic.Int64 // INFO notices routed
	SendFailures   atomic.Int64 // failed deliveries to a recipient
	OversizeDrops  atomic.Int64 // outbound lines dropped for exceeding the length limit

	// Reaper counters
	IdleEvictions atomic.Int64 // sessions evicted for inactivity
}

// New creates a Metrics instance with the start time set to now.
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

var (
	descUptime = prometheus.NewDesc("chatwire_uptime_seconds",
		"Server uptime in seconds.", nil, nil)
	descConnsActive = prometheus.NewDesc("chatwire_connections_active",
		"Currently open client connections.", nil, nil)
	descConnsTotal = prometheus.NewDesc("chatwire_connections_total",
		"Lifetime client connections accepted.", nil, nil)
	descDisconnects = prometheus.NewDesc("chatwire_disconnects_total",
		"Total client disconnects.", nil, nil)
	descFloodDisconnects = prometheus.NewDesc("chatwire_flood_disconnects_total",
		"Connections closed for sustained flooding.", nil, nil)
	descLogins = prometheus.NewDesc("chatwire_logins_total",
		"Successful LOGIN commands.", nil, nil)
	descLoginsFailed = prometheus.NewDesc("chatwire_logins_failed_total",
		"Rejected LOGIN commands.", nil, nil)
	descLines = prometheus.NewDesc("chatwire_lines_total",
		"Inbound protocol lines read.", nil, nil)
	descBroadcasts = prometheus.NewDesc("chatwire_broadcasts_total",
		"Chat broadcasts routed.", nil, nil)
	descDirects = prometheus.NewDesc("chatwire_direct_messages_total",
		"Direct messages routed.", nil, nil)
	descInfos = prometheus.NewDesc("chatwire_info_notices_total",
		"INFO notices routed.", nil, nil)
	descSendFailures = prometheus.NewDesc("chatwire_send_failures_total",
		"Failed deliveries to a recipient.", nil, nil)
	descOversizeDrops = prometheus.NewDesc("chatwire_oversize_drops_total",
		"Outbound lines dropped for exceeding the length limit.", nil, nil)
	descIdleEvictions = prometheus.NewDesc("chatwire_idle_evictions_total",
		"Sessions evicted for inactivity.", nil, nil)
)

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- descUptime
	ch <- descConnsActive
	ch <- descConnsTotal
	ch <- descDisconnects
	ch <- descFloodDisconnects
	ch <- descLogins
	ch <- descLoginsFailed
	ch <- descLines
	ch <- descBroadcasts
	ch <- descDirects
	ch <- descInfos
	ch <- descSendFailures
	ch <- descOversizeDrops
	ch <- descIdleEvictions
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	gauge := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v)
	}
	counter := func(d *prometheus.Desc, v int64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}

	gauge(descUptime, time.Since(m.startTime).Seconds())
	gauge(descConnsActive, float64(m.ActiveConnections.Load()))
	counter(descConnsTotal, m.ConnectionsTotal.Load())
	counter(descDisconnects, m.DisconnectsTotal.Load())
	counter(descFloodDisconnects, m.FloodDisconnects.Load())
	counter(descLogins, m.LoginsTotal.Load())
	counter(descLoginsFailed, m.LoginsFailed.Load())
	counter(descLines, m.LinesHandled.Load())
	counter(descBroadcasts, m.BroadcastsSent.Load())
	counter(descDirects, m.DirectsSent.Load())
	counter(descInfos, m.InfosSent.Load())
	counter(descSendFailures, m.SendFailures.Load())
	counter(descOversizeDrops, m.OversizeDrops.Load())
	counter(descIdleEvictions, m.IdleEvictions.Load())
}

// LogSummary writes a metrics summary to the logger.
func (m *Metrics) LogSummary() {
	slog.Info("metrics",
		"uptime", time.Since(m.startTime).Truncate(time.Second).String(),
		"connections", m.ActiveConnections.Load(),
		"total_connections", m.ConnectionsTotal.Load(),
		"logins", m.LoginsTotal.Load(),
		"broadcasts", m.BroadcastsSent.Load(),
		"directs", m.DirectsSent.Load(),
		"send_failures", m.SendFailures.Load(),
		"idle_evictions", m.IdleEvictions.Load(),
	)
}

// StartPeriodicLog starts a goroutine that logs a summary every interval.
// It stops when the done channel is closed.
func (m *Metrics) StartPeriodicLog(interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				m.LogSummary()
			}
		}
	}()
}
