package health

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vzahanych/emotion-stream/internal/logger"
	"github.com/vzahanych/emotion-stream/internal/service"
)

func ok(ctx context.Context) error { return nil }

func failing(msg string) ProbeFunc {
	return func(ctx context.Context) error { return errors.New(msg) }
}

func TestManager_AllHealthy(t *testing.T) {
	m := NewManager(logger.NewNopLogger(), nil)
	m.RegisterChecker(NewCameraChecker(ProbeFunc(ok)))
	m.RegisterChecker(NewClassifierChecker("http://localhost:5005", ProbeFunc(ok)))
	m.RegisterChecker(NewDatabaseChecker("emotions.db", ProbeFunc(ok)))

	report := m.Check(context.Background())
	assert.Equal(t, StatusHealthy, report.Status)
	assert.Len(t, report.Checks, 3)
	assert.Equal(t, http.StatusOK, HTTPStatus(report))
	assert.Equal(t, "http://localhost:5005", report.Checks["classifier"].Details["url"])
}

func TestManager_ClassifierDownIsDegraded(t *testing.T) {
	m := NewManager(logger.NewNopLogger(), nil)
	m.RegisterChecker(NewCameraChecker(ProbeFunc(ok)))
	m.RegisterChecker(NewClassifierChecker("http://x", failing("connection refused")))

	report := m.Check(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Contains(t, report.Checks["classifier"].Message, "connection refused")
	assert.Equal(t, http.StatusOK, HTTPStatus(report))
}

func TestManager_CameraDownIsUnhealthy(t *testing.T) {
	m := NewManager(logger.NewNopLogger(), nil)
	m.RegisterChecker(NewCameraChecker(failing("camera is not open")))
	m.RegisterChecker(NewDatabaseChecker("x.db", failing("locked")))

	report := m.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, report.Status)
	assert.Equal(t, StatusDegraded, report.Checks["database"].Status)
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(report))
}

func TestDiskChecker(t *testing.T) {
	ok := func(context.Context) error { return nil }

	check := NewDiskChecker("/data/db", ProbeFunc(ok)).Check(context.Background())
	assert.Equal(t, StatusHealthy, check.Status)
	assert.Equal(t, "/data/db", check.Details["path"])

	check = NewDiskChecker("/data/db", failing("disk usage 97.0% at or above 95.0%")).Check(context.Background())
	assert.Equal(t, StatusDegraded, check.Status)
	assert.Contains(t, check.Message, "97.0%")
}

type stubService struct {
	*service.ServiceBase
	err error
}

func (s *stubService) Start(ctx context.Context) error { return s.err }
func (s *stubService) Stop(ctx context.Context) error  { return nil }

func TestManager_IncludesServiceStatuses(t *testing.T) {
	svcMgr := service.NewManager(logger.NewNopLogger())
	svcMgr.Register(&stubService{ServiceBase: service.NewServiceBase("camera", logger.NewNopLogger()), err: errors.New("busy")})
	svcMgr.Register(&stubService{ServiceBase: service.NewServiceBase("web-server", logger.NewNopLogger())})
	require.NoError(t, svcMgr.Start(context.Background()))
	defer svcMgr.Shutdown(context.Background())

	report := NewManager(logger.NewNopLogger(), svcMgr).Check(context.Background())
	require.Len(t, report.Services, 2)

	cam := report.Services["camera"].(map[string]interface{})
	assert.Equal(t, service.StatusError, cam["status"])
	assert.Equal(t, "busy", cam["error"])
	web := report.Services["web-server"].(map[string]interface{})
	assert.Equal(t, service.StatusRunning, web["status"])
	assert.NotContains(t, web, "error")
}
