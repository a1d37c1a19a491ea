package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/irfndi/celebrum-odds/internal/services"
)

var startTime = time.Now()

// HealthHandler serves the health, readiness and liveness probes.
type HealthHandler struct {
	db        HealthChecker
	redis     HealthChecker
	collector Collector
	breakers  BreakerReporter
	system    SystemInfoProvider
	version   string
	memory    func(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                                  `json:"status"`
	Timestamp time.Time                               `json:"timestamp"`
	Services  map[string]string                       `json:"services"`
	Version   string                                  `json:"version"`
	Uptime    string                                  `json:"uptime"`
	Memory    *MemoryStatus                           `json:"memory,omitempty"`
	Collector *CollectorStatus                        `json:"collector,omitempty"`
	Breakers  map[string]services.CircuitBreakerStats `json:"circuit_breakers,omitempty"`
	System    map[string]interface{}                  `json:"system,omitempty"`
}

// MemoryStatus is the host memory usage.
type MemoryStatus struct {
	TotalMB     uint64  `json:"total_mb"`
	UsedMB      uint64  `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// CollectorStatus reports the odds collector.
type CollectorStatus struct {
	Running     bool        `json:"running"`
	LastRun     *time.Time  `json:"last_run,omitempty"`
	LastSummary interface{} `json:"last_summary,omitempty"`
	Breaker     interface{} `json:"circuit_breaker"`
}

// NewHealthHandler creates a health handler. Any dependency may be nil;
// a nil database or Redis is reported as not configured.
func NewHealthHandler(db, redis HealthChecker, collector Collector, system SystemInfoProvider, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		redis:     redis,
		collector: collector,
		system:    system,
		version:   version,
		memory:    mem.VirtualMemoryWithContext,
	}
}

// WithBreakers adds circuit breaker states to the health report. An open
// breaker marks the service degraded without failing the probe.
func (h *HealthHandler) WithBreakers(breakers BreakerReporter) *HealthHandler {
	h.breakers = breakers
	return h
}

func checkDependency(ctx context.Context, name string, dep HealthChecker, checks map[string]string) bool {
	if dep == nil {
		checks[name] = "unhealthy: not configured"
		return false
	}
	if err := dep.HealthCheck(ctx); err != nil {
		checks[name] = "unhealthy: " + err.Error()
		return false
	}
	checks[name] = "healthy"
	return true
}

// HealthCheck reports dependency status, memory and collector state.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	checks := make(map[string]string)

	healthy := checkDependency(ctx, "database", h.db, checks)
	healthy = checkDependency(ctx, "redis", h.redis, checks) && healthy

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Services:  checks,
		Version:   h.version,
		Uptime:    time.Since(startTime).Round(time.Second).String(),
	}
	if !healthy {
		response.Status = "unhealthy"
	}

	if vm, err := h.memory(ctx); err == nil {
		response.Memory = &MemoryStatus{
			TotalMB:     vm.Total / 1024 / 1024,
			UsedMB:      vm.Used / 1024 / 1024,
			UsedPercent: vm.UsedPercent,
		}
	}

	if h.collector != nil {
		status := &CollectorStatus{
			Running: h.collector.IsRunning(),
			Breaker: h.collector.BreakerStats(),
		}
		if summary, at := h.collector.LastSummary(); summary != nil {
			status.LastRun = &at
			status.LastSummary = summary
		}
		response.Collector = status
	}
	if h.breakers != nil {
		response.Breakers = h.breakers.GetAllStats()
		for _, stats := range response.Breakers {
			if healthy && stats.State == services.Open.String() {
				response.Status = "degraded"
			}
		}
	}
	if h.system != nil {
		response.System = h.system.GetSystemInfo()
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, response)
}

// ReadinessCheck requires the database, which every read path depends on.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	checks := make(map[string]string)
	ready := checkDependency(c.Request.Context(), "database", h.db, checks)

	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"ready": ready, "services": checks})
}

// LivenessCheck only proves the process is serving requests.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
