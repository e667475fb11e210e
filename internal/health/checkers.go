package health

import (
	"context"
	"fmt"
	"time"
)

// Probe is anything that can report its own health with an error
type Probe interface {
	HealthCheck(ctx context.Context) error
}

// ProbeFunc adapts a function to Probe
type ProbeFunc func(ctx context.Context) error

// HealthCheck calls f
func (f ProbeFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

// CameraChecker reports whether the capture device is held. Without a camera
// no stream can be served, so a failure is unhealthy.
type CameraChecker struct {
	camera Probe
}

func NewCameraChecker(camera Probe) *CameraChecker {
	return &CameraChecker{camera: camera}
}

func (c *CameraChecker) Name() string {
	return "camera"
}

func (c *CameraChecker) Check(ctx context.Context) Check {
	check := Check{
		Name:      c.Name(),
		Timestamp: time.Now(),
	}

	if err := c.camera.HealthCheck(ctx); err != nil {
		check.Status = StatusUnhealthy
		check.Message = err.Error()
		return check
	}

	check.Status = StatusHealthy
	check.Message = "Camera is open"
	return check
}

// ClassifierChecker checks the emotion classifier service. Frames keep
// flowing with the fallback label when it is down, so a failure only
// degrades the service.
type ClassifierChecker struct {
	serviceURL string
	classifier Probe
}

func NewClassifierChecker(serviceURL string, classifier Probe) *ClassifierChecker {
	return &ClassifierChecker{serviceURL: serviceURL, classifier: classifier}
}

func (c *ClassifierChecker) Name() string {
	return "classifier"
}

func (c *ClassifierChecker) Check(ctx context.Context) Check {
	check := Check{
		Name:      c.Name(),
		Timestamp: time.Now(),
		Details:   map[string]interface{}{"url": c.serviceURL},
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := c.classifier.HealthCheck(ctx); err != nil {
		check.Status = StatusDegraded
		check.Message = fmt.Sprintf("Classifier unreachable, frames get the fallback label: %v", err)
		return check
	}

	check.Status = StatusHealthy
	check.Message = "Classifier is reachable"
	return check
}

// DatabaseChecker checks sample storage
type DatabaseChecker struct {
	dbPath string
	db     Probe
}

func NewDatabaseChecker(dbPath string, db Probe) *DatabaseChecker {
	return &DatabaseChecker{dbPath: dbPath, db: db}
}

func (c *DatabaseChecker) Name() string {
	return "database"
}

func (c *DatabaseChecker) Check(ctx context.Context) Check {
	check := Check{
		Name:      c.Name(),
		Timestamp: time.Now(),
		Details:   map[string]interface{}{"path": c.dbPath},
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.db.HealthCheck(ctx); err != nil {
		check.Status = StatusDegraded
		check.Message = fmt.Sprintf("Database ping failed: %v", err)
		return check
	}

	check.Status = StatusHealthy
	check.Message = "Database connection OK"
	return check
}

// DiskChecker checks free space under the sample storage directory
type DiskChecker struct {
	path string
	disk Probe
}

func NewDiskChecker(path string, disk Probe) *DiskChecker {
	return &DiskChecker{path: path, disk: disk}
}

func (c *DiskChecker) Name() string {
	return "disk"
}

func (c *DiskChecker) Check(ctx context.Context) Check {
	check := Check{
		Name:      c.Name(),
		Timestamp: time.Now(),
		Details:   map[string]interface{}{"path": c.path},
	}

	if err := c.disk.HealthCheck(ctx); err != nil {
		check.Status = StatusDegraded
		check.Message = fmt.Sprintf("Sample storage: %v", err)
		return check
	}

	check.Status = StatusHealthy
	check.Message = "Disk space OK"
	return check
}
