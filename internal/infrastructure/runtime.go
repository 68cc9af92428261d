package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeStats is a point-in-time view of the process, served by the
// detailed health endpoint.
type RuntimeStats struct {
	Goroutines    int           `json:"goroutines"`
	HeapAllocMB   uint64        `json:"heap_alloc_mb"`
	SystemMB      uint64        `json:"system_mb"`
	GCCount       uint32        `json:"gc_count"`
	LastGCPauseMS int64         `json:"last_gc_pause_ms"`
	CPUCount      int           `json:"cpu_count"`
	Uptime        time.Duration `json:"-"`
	UptimeSeconds float64       `json:"uptime_seconds"`
}

// CollectRuntimeStats reads the Go runtime counters
func CollectRuntimeStats(startTime time.Time) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	uptime := time.Since(startTime)
	return RuntimeStats{
		Goroutines:    runtime.NumGoroutine(),
		HeapAllocMB:   mem.Alloc / 1024 / 1024,
		SystemMB:      mem.Sys / 1024 / 1024,
		GCCount:       mem.NumGC,
		LastGCPauseMS: time.Duration(mem.PauseNs[(mem.NumGC+255)%256]).Milliseconds(),
		CPUCount:      runtime.NumCPU(),
		Uptime:        uptime,
		UptimeSeconds: uptime.Seconds(),
	}
}

// RegisterRuntimeGauges exposes goroutine count and process uptime as
// observable gauges, read on every scrape.
func RegisterRuntimeGauges(meter metric.Meter, startTime time.Time) error {
	goroutines, err := meter.Int64ObservableGauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return err
	}

	uptime, err := meter.Float64ObservableGauge(
		"system_process_uptime_seconds",
		metric.WithDescription("Seconds since the service started"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(goroutines, int64(runtime.NumGoroutine()))
		o.ObserveFloat64(uptime, time.Since(startTime).Seconds())
		return nil
	}, goroutines, uptime)
	return err
}
