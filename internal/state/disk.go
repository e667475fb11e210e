package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vzahanych/emotion-stream/internal/logger"
)

// DiskUsage describes the filesystem holding the sample database
type DiskUsage struct {
	TotalBytes     int64
	UsedBytes      int64
	AvailableBytes int64
	UsagePercent   float64
}

// DiskMonitor watches free space under the storage data directory so the
// recorder does not silently fill the disk on long-running devices.
type DiskMonitor struct {
	path            string
	maxUsagePercent float64
	logger          *logger.Logger

	mu            sync.RWMutex
	lastCheck     time.Time
	cacheDuration time.Duration
	cachedUsage   *DiskUsage
}

// NewDiskMonitor creates a monitor for path
func NewDiskMonitor(path string, maxUsagePercent float64, log *logger.Logger) *DiskMonitor {
	return &DiskMonitor{
		path:            path,
		maxUsagePercent: maxUsagePercent,
		logger:          log,
		cacheDuration:   30 * time.Second,
	}
}

// Path returns the monitored directory
func (d *DiskMonitor) Path() string {
	return d.path
}

// GetUsage returns the current usage, cached for a short while
func (d *DiskMonitor) GetUsage(ctx context.Context) (*DiskUsage, error) {
	d.mu.RLock()
	if d.cachedUsage != nil && time.Since(d.lastCheck) < d.cacheDuration {
		usage := *d.cachedUsage
		d.mu.RUnlock()
		return &usage, nil
	}
	d.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	usage, err := statDisk(d.path)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.cachedUsage = usage
	d.lastCheck = time.Now()
	d.mu.Unlock()

	u := *usage
	return &u, nil
}

// HealthCheck fails when usage has reached the configured ceiling
func (d *DiskMonitor) HealthCheck(ctx context.Context) error {
	usage, err := d.GetUsage(ctx)
	if err != nil {
		return err
	}
	if usage.UsagePercent >= d.maxUsagePercent {
		d.logger.Warn("Sample storage disk nearly full",
			"path", d.path,
			"usage_percent", usage.UsagePercent,
			"max_percent", d.maxUsagePercent,
		)
		return fmt.Errorf("disk usage %.1f%% at or above %.1f%%", usage.UsagePercent, d.maxUsagePercent)
	}
	return nil
}
