package services

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

// ResourceOptimizer sizes the detection worker pool from the host's CPU and
// memory.
type ResourceOptimizer struct {
	mu                 sync.RWMutex
	config             ResourceOptimizerConfig
	cpuCores           int
	memoryGB           float64
	currentCPUUsage    float64
	currentMemoryUsage float64
	optimalConcurrency OptimalConcurrency
	lastOptimization   time.Time
	logger             *logrus.Logger
}

// OptimalConcurrency holds the calculated concurrency limits
type OptimalConcurrency struct {
	DetectionWorkers int     `json:"detection_workers"`
	MemoryThreshold  float64 `json:"memory_threshold"`
	CPUThreshold     float64 `json:"cpu_threshold"`
}

// ResourceOptimizerConfig holds configuration for the resource optimizer
type ResourceOptimizerConfig struct {
	CPUThreshold    float64
	MemoryThreshold float64
	MinWorkers      int
	MaxWorkers      int
}

// NewResourceOptimizer creates a new resource optimizer
func NewResourceOptimizer(config ResourceOptimizerConfig, logger *logrus.Logger) *ResourceOptimizer {
	if config.CPUThreshold == 0 {
		config.CPUThreshold = 80.0
	}
	if config.MemoryThreshold == 0 {
		config.MemoryThreshold = 85.0
	}
	if config.MinWorkers <= 0 {
		config.MinWorkers = 1
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 16
	}
	if config.MaxWorkers < config.MinWorkers {
		config.MaxWorkers = config.MinWorkers
	}
	if logger == nil {
		logger = logrus.New()
	}

	ro := &ResourceOptimizer{
		config:   config,
		cpuCores: runtime.NumCPU(),
		logger:   logger,
	}

	if memInfo, err := mem.VirtualMemory(); err == nil {
		ro.memoryGB = float64(memInfo.Total) / (1024 * 1024 * 1024)
	} else {
		ro.logger.WithError(err).Warn("Could not get memory info, using default")
		ro.memoryGB = 8.0
	}

	ro.calculateOptimalConcurrency()

	ro.logger.WithFields(logrus.Fields{
		"cpu_cores":         ro.cpuCores,
		"memory_gb":         fmt.Sprintf("%.1f", ro.memoryGB),
		"detection_workers": ro.optimalConcurrency.DetectionWorkers,
	}).Info("Resource optimizer initialized")

	return ro
}

// calculateOptimalConcurrency derives the worker count. Callers hold no lock.
func (ro *ResourceOptimizer) calculateOptimalConcurrency() {
	ro.mu.Lock()
	defer ro.mu.Unlock()

	// One worker per core, scaled down on small or busy hosts.
	workers := float64(ro.cpuCores)

	switch {
	case ro.memoryGB < 2.0:
		workers *= 0.5
	case ro.memoryGB < 4.0:
		workers *= 0.75
	}

	switch {
	case ro.currentCPUUsage > ro.config.CPUThreshold:
		workers *= 0.7
	case ro.currentMemoryUsage > ro.config.MemoryThreshold:
		workers *= 0.8
	}

	n := int(workers)
	if n < ro.config.MinWorkers {
		n = ro.config.MinWorkers
	}
	if n > ro.config.MaxWorkers {
		n = ro.config.MaxWorkers
	}

	ro.optimalConcurrency = OptimalConcurrency{
		DetectionWorkers: n,
		MemoryThreshold:  ro.config.MemoryThreshold,
		CPUThreshold:     ro.config.CPUThreshold,
	}
	ro.lastOptimization = time.Now()
}

// DetectionWorkers returns the recommended number of detection goroutines.
func (ro *ResourceOptimizer) DetectionWorkers() int {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	return ro.optimalConcurrency.DetectionWorkers
}

// GetOptimalConcurrency returns the current optimal concurrency settings
func (ro *ResourceOptimizer) GetOptimalConcurrency() OptimalConcurrency {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	return ro.optimalConcurrency
}

// UpdateSystemMetrics samples CPU and memory usage and recalculates the
// worker count.
func (ro *ResourceOptimizer) UpdateSystemMetrics(ctx context.Context) error {
	cpuPercent, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false)
	if err != nil {
		return fmt.Errorf("failed to get CPU usage: %w", err)
	}
	memInfo, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get memory usage: %w", err)
	}

	ro.mu.Lock()
	if len(cpuPercent) > 0 {
		ro.currentCPUUsage = cpuPercent[0]
	}
	ro.currentMemoryUsage = memInfo.UsedPercent
	ro.mu.Unlock()

	ro.calculateOptimalConcurrency()
	return nil
}

// GetSystemInfo returns current system information
func (ro *ResourceOptimizer) GetSystemInfo() map[string]interface{} {
	ro.mu.RLock()
	defer ro.mu.RUnlock()

	return map[string]interface{}{
		"cpu_cores":         ro.cpuCores,
		"memory_gb":         ro.memoryGB,
		"current_cpu":       ro.currentCPUUsage,
		"current_memory":    ro.currentMemoryUsage,
		"goroutines":        runtime.NumGoroutine(),
		"last_optimization": ro.lastOptimization,
		"optimal_config":    ro.optimalConcurrency,
	}
}
