package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCollectorExportsCounters(t *testing.T) {
	m := New()
	m.ConnectionsTotal.Add(3)
	m.ActiveConnections.Add(2)
	m.LoginsTotal.Add(1)

	reg := prometheus.NewRegistry()
	reg.MustRegister(m)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	got := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				got[mf.GetName()] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				got[mf.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}

	want := map[string]float64{
		"chatwire_connections_total":  3,
		"chatwire_connections_active": 2,
		"chatwire_logins_total":       1,
		"chatwire_broadcasts_total":   0,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s = %v, want %v", name, got[name], v)
		}
	}
	if _, ok := got["chatwire_uptime_seconds"]; !ok {
		t.Error("uptime gauge missing from the gather output")
	}
}
