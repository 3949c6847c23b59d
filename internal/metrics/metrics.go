// Package metrics exposes the same counters internal/stats and
// internal/telemetry fold into their wire snapshots as Prometheus
// gauges, purely for local operator visibility. It never touches the
// outbound wire protocol.
//
// Grounded on runZeroInc-sockstats' pkg/exporter.TCPInfoCollector: a
// custom prometheus.Collector whose Collect method pulls fresh values
// from a live source at scrape time rather than pre-registering static
// gauges, the same shape this package uses to read the scheduler's
// latest snapshot without locking the hot path.
package metrics

import (
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/1090mhz-uk/radarfeed/internal/stats"
	"github.com/1090mhz-uk/radarfeed/internal/telemetry"
)

// StatsSource supplies the current radio-stats counters on demand. A
// sched.Loop satisfies this via its StatsSnapshot method.
type StatsSource func() stats.Snapshot

// TelemetrySource supplies the current platform telemetry on demand.
type TelemetrySource func() telemetry.Snapshot

// Collector is a prometheus.Collector that turns two live snapshot
// functions into a fixed set of gauges on every scrape.
type Collector struct {
	statsFn     StatsSource
	telemetryFn TelemetrySource

	rxModeAC, rxModeSS, rxModeES *prometheus.Desc
	dupeSS, dupeES               *prometheus.Desc
	txCount, txBytes             *prometheus.Desc
	connectSuccess, connectFail  *prometheus.Desc
	uptimeSeconds, cpuTempMilliC *prometheus.Desc
	memTotalKB, memFreeKB        *prometheus.Desc
}

// NewCollector builds a Collector reading from the given sources.
func NewCollector(statsFn StatsSource, telemetryFn TelemetrySource) *Collector {
	ns := "radarfeed"
	return &Collector{
		statsFn:        statsFn,
		telemetryFn:    telemetryFn,
		rxModeAC:       prometheus.NewDesc(ns+"_rx_mode_ac_total", "Mode-A/C messages received", nil, nil),
		rxModeSS:       prometheus.NewDesc(ns+"_rx_mode_ss_total", "Mode-S Short Squitter messages received", nil, nil),
		rxModeES:       prometheus.NewDesc(ns+"_rx_mode_es_total", "Mode-S Extended Squitter messages received", nil, nil),
		dupeSS:         prometheus.NewDesc(ns+"_dupe_ss_total", "Mode-S Short Squitter duplicates suppressed", nil, nil),
		dupeES:         prometheus.NewDesc(ns+"_dupe_es_total", "Extended Squitter duplicates suppressed", nil, nil),
		txCount:        prometheus.NewDesc(ns+"_tx_datagrams_total", "Datagrams sent to the aggregator", nil, nil),
		txBytes:        prometheus.NewDesc(ns+"_tx_bytes_total", "Bytes sent to the aggregator", nil, nil),
		connectSuccess: prometheus.NewDesc(ns+"_ingest_connect_success_total", "Successful ingest source connects", nil, nil),
		connectFail:    prometheus.NewDesc(ns+"_ingest_connect_fail_total", "Failed ingest source connect attempts", nil, nil),
		uptimeSeconds:  prometheus.NewDesc(ns+"_uptime_seconds", "Process uptime", nil, nil),
		cpuTempMilliC:  prometheus.NewDesc(ns+"_cpu_temp_millic", "CPU temperature in milli-degrees Celsius", nil, nil),
		memTotalKB:     prometheus.NewDesc(ns+"_mem_total_kb", "Total system memory", nil, nil),
		memFreeKB:      prometheus.NewDesc(ns+"_mem_free_kb", "Available system memory", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.rxModeAC
	ch <- c.rxModeSS
	ch <- c.rxModeES
	ch <- c.dupeSS
	ch <- c.dupeES
	ch <- c.txCount
	ch <- c.txBytes
	ch <- c.connectSuccess
	ch <- c.connectFail
	ch <- c.uptimeSeconds
	ch <- c.cpuTempMilliC
	ch <- c.memTotalKB
	ch <- c.memFreeKB
}

// Collect implements prometheus.Collector, pulling a fresh snapshot on
// every scrape.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.statsFn()
	ch <- prometheus.MustNewConstMetric(c.rxModeAC, prometheus.CounterValue, float64(s.RxModeAC))
	ch <- prometheus.MustNewConstMetric(c.rxModeSS, prometheus.CounterValue, float64(s.RxModeSS))
	ch <- prometheus.MustNewConstMetric(c.rxModeES, prometheus.CounterValue, float64(s.RxModeES))
	ch <- prometheus.MustNewConstMetric(c.dupeSS, prometheus.CounterValue, float64(s.DupeSS))
	ch <- prometheus.MustNewConstMetric(c.dupeES, prometheus.CounterValue, float64(s.DupeES))
	ch <- prometheus.MustNewConstMetric(c.txCount, prometheus.CounterValue, float64(s.TxCount))
	ch <- prometheus.MustNewConstMetric(c.txBytes, prometheus.CounterValue, float64(s.TxBytes))
	ch <- prometheus.MustNewConstMetric(c.connectSuccess, prometheus.CounterValue, float64(s.ConnectSuccess))
	ch <- prometheus.MustNewConstMetric(c.connectFail, prometheus.CounterValue, float64(s.ConnectFail))

	t := c.telemetryFn()
	ch <- prometheus.MustNewConstMetric(c.uptimeSeconds, prometheus.GaugeValue, float64(t.UptimeSeconds))
	ch <- prometheus.MustNewConstMetric(c.cpuTempMilliC, prometheus.GaugeValue, float64(t.CPUTempMilliC))
	ch <- prometheus.MustNewConstMetric(c.memTotalKB, prometheus.GaugeValue, float64(t.MemTotalKB))
	ch <- prometheus.MustNewConstMetric(c.memFreeKB, prometheus.GaugeValue, float64(t.MemFreeKB))
}

// Serve registers c on a fresh registry and starts a loopback-only
// HTTP listener at addr (e.g. "127.0.0.1:9090"), matching SPEC_FULL.md
// §6's "local Prometheus exposition". An addr whose host is not
// "localhost" or a loopback IP is rejected with an error. The returned
// server must be closed by the caller at shutdown.
func Serve(addr string, c *Collector) (*http.Server, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		return nil, fmt.Errorf("metrics: %q is not a loopback address", addr)
	}

	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	go srv.Serve(ln)
	return srv, nil
}
