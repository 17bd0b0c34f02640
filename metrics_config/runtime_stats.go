package metrics_config

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

// runtimeStats is the subset of runtime.MemStats exported on /metrics.
type runtimeStats struct {
	GCPauses     uint32
	GCAllocBytes uint64
	GCFreedBytes uint64

	MemTotal     uint64
	HeapObjects  uint64
	HeapFree     uint64
	HeapReleased uint64
	HeapUnused   uint64

	Goroutines uint64
}

func readRuntimeStats() runtimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return runtimeStats{
		GCPauses:     m.NumGC,
		GCAllocBytes: m.TotalAlloc,
		GCFreedBytes: m.TotalAlloc - m.HeapAlloc,
		MemTotal:     m.Sys,
		HeapObjects:  m.HeapObjects,
		HeapFree:     m.HeapIdle - m.HeapReleased,
		HeapReleased: m.HeapReleased,
		HeapUnused:   m.HeapInuse - m.HeapAlloc,
		Goroutines:   uint64(runtime.NumGoroutine()),
	}
}

func collectRuntimeMetrics(runtimeGaugeVec *prometheus.GaugeVec) {
	stats := readRuntimeStats()
	runtimeGaugeVec.WithLabelValues("gc_cycles").Set(float64(stats.GCPauses))
	runtimeGaugeVec.WithLabelValues("gc_alloc_bytes").Set(float64(stats.GCAllocBytes))
	runtimeGaugeVec.WithLabelValues("gc_freed_bytes").Set(float64(stats.GCFreedBytes))
	runtimeGaugeVec.WithLabelValues("mem_total").Set(float64(stats.MemTotal))
	runtimeGaugeVec.WithLabelValues("heap_objects").Set(float64(stats.HeapObjects))
	runtimeGaugeVec.WithLabelValues("heap_free").Set(float64(stats.HeapFree))
	runtimeGaugeVec.WithLabelValues("heap_released").Set(float64(stats.HeapReleased))
	runtimeGaugeVec.WithLabelValues("heap_unused").Set(float64(stats.HeapUnused))
	runtimeGaugeVec.WithLabelValues("goroutines").Set(float64(stats.Goroutines))
}
