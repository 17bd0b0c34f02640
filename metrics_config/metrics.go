package metrics_config

import (
	"net/http"
	"os"
	"sync"

	"github.com/dominant-strategies/go-ethrelay/log"
	"github.com/prometheus/client_golang/prometheus"
	metrics "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// DefaultAddr is the listen address of the /metrics endpoint.
const DefaultAddr = ":2112"

// enabled is checked by the constructor functions for all of the standard
// metrics. Collectors built while it is false still work but are never
// registered, so nothing is exported.
var enabled = true

var (
	registryMu sync.Mutex
	// collectors holds every registered collector by name. Engines and relays
	// are constructed many times per process in tests, and prometheus refuses
	// duplicate registrations.
	collectors = make(map[string]prometheus.Collector)
)

func EnableMetrics() {
	enabled = true
}

func DisableMetrics() {
	enabled = false
}

func MetricsEnabled() bool {
	return enabled
}

// StartProcessMetrics serves the default registry plus process usage gauges on
// addr. It returns immediately; the server runs until the process exits.
func StartProcessMetrics(addr string) {
	// Short circuit if the metrics system is disabled
	if !enabled {
		return
	}
	if addr == "" {
		addr = DefaultAddr
	}

	// System usage metrics.
	gaugesMap := make(map[string]*prometheus.GaugeVec)

	gaugesMap["cpu"] = NewGaugeVec("cpu_usage", "The average CPU usage over the last second", "cpu_type")
	gaugesMap["mem"] = NewGaugeVec("mem_usage", "The current memory usage", "mem_type")
	gaugesMap["net"] = NewGaugeVec("net_usage", "The current network usage", "net_type")
	gaugesMap["runtime"] = NewGaugeVec("runtime_stats", "Go runtime memory and scheduler statistics", "stat")

	go initializeHttpMetrics(addr, gaugesMap)
}

// register returns the collector already registered under name, or registers
// and returns c.
func register[T prometheus.Collector](name string, c T) T {
	if !enabled {
		return c
	}
	registryMu.Lock()
	defer registryMu.Unlock()

	if existing, ok := collectors[name]; ok {
		if typed, ok := existing.(T); ok {
			return typed
		}
		log.Global.WithField("name", name).Error("Metric registered twice with different types")
		return c
	}
	prometheus.MustRegister(c)
	collectors[name] = c
	return c
}

func NewGaugeVec(name string, help string, label string) *prometheus.GaugeVec {
	return register(name, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}, []string{label}))
}

func NewGauge(name string, help string) prometheus.Gauge {
	return register(name, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}))
}

func NewCounter(name string, help string) prometheus.Counter {
	return register(name, prometheus.NewCounter(prometheus.CounterOpts{
		Name: name,
		Help: help,
	}))
}

// NewHistogram returns a latency histogram. Callers time a section with
// prometheus.NewTimer(h) and ObserveDuration.
func NewHistogram(name string, help string) prometheus.Histogram {
	return register(name, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: name,
		Help: help,
	}))
}

func initializeHttpMetrics(addr string, metricsMap map[string]*prometheus.GaugeVec) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			updateMetrics(metricsMap)
			promhttp.Handler().ServeHTTP(w, r)
		}),
	))
	log.Global.WithField("addr", addr).Info("Serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Global.WithField("err", err).Error("Metrics server stopped")
	}
}

func updateMetrics(metricsMap map[string]*prometheus.GaugeVec) {
	collectRuntimeMetrics(metricsMap["runtime"])

	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		log.Global.WithField("err", err).Error("Failed to get process")
		return
	}

	collectCPUMetrics(metricsMap["cpu"], proc)
	collectMemoryMetrics(metricsMap["mem"], proc)
	collectNetworkingMetrics(metricsMap["net"], proc)
}

func collectCPUMetrics(cpuGaugeVec *metrics.GaugeVec, proc *process.Process) {
	percent, err := proc.CPUPercent()
	if err != nil {
		log.Global.WithField("err", err).Error("Failed to get CPU percent")
	} else {
		cpuGaugeVec.WithLabelValues("ethrelay").Set(percent)
	}

	usage, err := cpu.Percent(0, false)
	if err != nil || len(usage) == 0 {
		log.Global.WithField("err", err).Error("Failed to get system CPU percent")
	} else {
		cpuGaugeVec.WithLabelValues("System").Set(usage[0])
	}

	threads, err := proc.NumThreads()
	if err != nil {
		log.Global.WithField("err", err).Error("Failed to get threads")
	} else {
		cpuGaugeVec.WithLabelValues("Threads").Set(float64(threads))
	}
}

func collectMemoryMetrics(memGaugeVec *metrics.GaugeVec, proc *process.Process) {
	memInfo, err := proc.MemoryInfo()
	if err != nil {
		log.Global.WithField("err", err).Error("Error while getting memory info")
	} else {
		memGaugeVec.WithLabelValues("Used").Set(float64(memInfo.RSS))
		memGaugeVec.WithLabelValues("Swap").Set(float64(memInfo.Swap))
		memGaugeVec.WithLabelValues("Stack").Set(float64(memInfo.Stack))
	}
}

func collectNetworkingMetrics(netGaugeVec *metrics.GaugeVec, proc *process.Process) {
	tcpConnections, err := net.ConnectionsPid("tcp", proc.Pid)
	if err != nil {
		log.Global.WithField("err", err).Error("Error while getting networking info")
	} else {
		netGaugeVec.WithLabelValues("tcp").Set(float64(len(tcpConnections)))
	}
}
