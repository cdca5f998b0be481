package monitor

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

// Recorder is the ingestion entry point resource samples flow into.
// The rule engine satisfies it.
type Recorder interface {
	RecordMetric(name string, value float64)
}

// ResourceCollector periodically samples system resources and records
// them as metrics, so the same rules that watch application metrics
// can watch the host.
type ResourceCollector struct {
	recorder Recorder
	logger   *logrus.Logger
}

// NewResourceCollector creates a collector feeding the given recorder.
func NewResourceCollector(recorder Recorder, logger *logrus.Logger) *ResourceCollector {
	return &ResourceCollector{
		recorder: recorder,
		logger:   logger,
	}
}

// Collect takes one round of samples. Individual gopsutil failures are
// logged and skipped; collection as a whole never fails.
func (c *ResourceCollector) Collect(ctx context.Context) {
	if usage, err := cpu.PercentWithContext(ctx, time.Second, false); err != nil {
		c.logger.WithError(err).Warn("Failed to get CPU usage")
	} else if len(usage) > 0 {
		c.recorder.RecordMetric("cpu_usage", usage[0])
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		c.logger.WithError(err).Warn("Failed to get memory usage")
	} else {
		c.recorder.RecordMetric("memory_usage", vm.UsedPercent)
	}

	if du, err := disk.UsageWithContext(ctx, "/"); err != nil {
		c.logger.WithError(err).Warn("Failed to get disk usage")
	} else {
		c.recorder.RecordMetric("disk_usage", du.UsedPercent)
	}
}
