package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/1090mhz-uk/radarfeed/internal/stats"
	"github.com/1090mhz-uk/radarfeed/internal/telemetry"
)

func TestCollectorExposesCountersOnScrape(t *testing.T) {
	c := NewCollector(
		func() stats.Snapshot { return stats.Snapshot{RxModeES: 42, TxCount: 7} },
		func() telemetry.Snapshot { return telemetry.Snapshot{UptimeSeconds: 99} },
	)

	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "radarfeed_rx_mode_es_total 42") {
		t.Fatalf("missing rx_mode_es_total in output:\n%s", body)
	}
	if !strings.Contains(body, "radarfeed_uptime_seconds 99") {
		t.Fatalf("missing uptime_seconds in output:\n%s", body)
	}
}
