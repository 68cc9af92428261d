package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/johnfenner/beecker-sub000/internal/infrastructure"
	"github.com/johnfenner/beecker-sub000/pkg/contracts"
)

// SourceChecker reports whether each page's source can be built.
// *FunnelService satisfies it.
type SourceChecker interface {
	CheckSources() map[string]error
}

// HealthService provides health check functionality
type HealthService struct {
	sources   SourceChecker
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual page source health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(sources SourceChecker, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "health_service"))
	logger.Info("HealthService initialized", slog.String("version", contracts.Version))

	return &HealthService{
		sources:   sources,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	stats := infrastructure.CollectRuntimeStats(hs.startTime)
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime":        stats.UptimeSeconds,
			"go_version":    runtime.Version(),
			"goroutines":    stats.Goroutines,
			"heap_alloc_mb": stats.HeapAllocMB,
			"gc_count":      stats.GCCount,
		},
	}
}

// ReadinessCheck is ready when every page has a usable source
// configuration. Sources are not contacted.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services:  make(map[string]ServiceHealth),
	}
	if hs.sources == nil {
		status.Status = "not_ready"
		return status
	}

	for page, err := range hs.sources.CheckSources() {
		if err != nil {
			status.Services[page] = ServiceHealth{Status: "not_ready", Message: err.Error()}
			status.Status = "not_ready"
			continue
		}
		status.Services[page] = ServiceHealth{Status: "ready"}
	}

	if status.Status != "ready" {
		hs.logger.WarnContext(ctx, "ReadinessCheck: not ready", slog.Any("services", status.Services))
	}
	return status
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"service":       info.Service,
		"version":       info.Version,
		"api_version":   info.APIVersion,
		"report_format": info.ReportFormat,
		"build_time":    info.BuildTime,
		"git_commit":    info.GitCommit,
		"go_version":    info.GoVersion,
		"os":            info.OS,
		"arch":          info.Architecture,
		"uptime":        time.Since(hs.startTime).Seconds(),
		"start_time":    hs.startTime.Format(time.RFC3339),
		"current_time":  time.Now().Format(time.RFC3339),
	}
}

// GetDetailedHealth returns comprehensive health information
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"runtime":   infrastructure.CollectRuntimeStats(hs.startTime),
	}
}
