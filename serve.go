package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/vzahanych/emotion-stream/internal/camera"
	"github.com/vzahanych/emotion-stream/internal/camera/backend"
	"github.com/vzahanych/emotion-stream/internal/chart"
	"github.com/vzahanych/emotion-stream/internal/config"
	"github.com/vzahanych/emotion-stream/internal/emotion"
	"github.com/vzahanych/emotion-stream/internal/health"
	"github.com/vzahanych/emotion-stream/internal/history"
	"github.com/vzahanych/emotion-stream/internal/logger"
	"github.com/vzahanych/emotion-stream/internal/service"
	"github.com/vzahanych/emotion-stream/internal/state"
	"github.com/vzahanych/emotion-stream/internal/video"
	"github.com/vzahanych/emotion-stream/internal/web"
)

const shutdownTimeout = 30 * time.Second

// serve runs the web application until ctx is cancelled. The camera is
// released on every way out of this function, panics included.
func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("Starting emotion-stream",
		"version", version,
		"build_time", buildTime,
		"git_commit", gitCommit,
	)

	svcMgr := service.NewManager(log)
	healthMgr := health.NewManager(log, svcMgr)

	camSvc := camera.NewService(cfg.Camera.Source, backend.Opener(cfg.Camera), log)
	defer func() {
		if err := camSvc.Close(); err != nil {
			log.Error("Failed to release camera", "error", err)
		}
	}()
	svcMgr.Register(camSvc)
	healthMgr.RegisterChecker(health.NewCameraChecker(camSvc))

	classifier := emotion.NewClient(emotion.ClientConfig{
		ServiceURL:      cfg.Classifier.ServiceURL,
		Timeout:         cfg.Classifier.Timeout,
		Fallback:        emotion.Label(cfg.Classifier.FallbackLabel),
		MaxWidth:        cfg.Classifier.MaxWidth,
		DetectorBackend: cfg.Classifier.Detector,
	}, log)
	healthMgr.RegisterChecker(health.NewClassifierChecker(cfg.Classifier.ServiceURL, classifier))

	hist := history.New(history.Config{WarnEvery: cfg.History.WarnEvery}, log)

	var sessions web.SessionStore
	if cfg.Storage.Enabled {
		stateMgr, err := state.NewManager(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to open sample storage: %w", err)
		}
		defer stateMgr.Close()

		if cfg.History.Restore {
			if _, err := stateMgr.RecoverHistory(ctx, hist); err != nil {
				return err
			}
		}
		svcMgr.Register(state.NewRecorder(stateMgr, log))
		sessions = stateMgr
		healthMgr.RegisterChecker(health.NewDatabaseChecker(cfg.Storage.DBPath, health.ProbeFunc(stateMgr.Ping)))

		dbDir := filepath.Dir(cfg.Storage.DBPath)
		disk := state.NewDiskMonitor(dbDir, cfg.Storage.MaxDiskUsagePercent, log)
		healthMgr.RegisterChecker(health.NewDiskChecker(dbDir, disk))
	}

	streamer := video.NewStreamer(video.StreamerConfig{
		JPEGQuality: cfg.Stream.JPEGQuality,
		Annotator: video.AnnotatorConfig{
			FontSize: cfg.Stream.FontSize,
			X:        cfg.Stream.TextX,
			Y:        cfg.Stream.TextY,
		},
	}, camSvc.Source(), classifier, hist, log)
	streamer.SetEventBus(svcMgr.GetEventBus())

	server, err := web.NewServer(&cfg.Web, web.Dependencies{
		Streamer: streamer,
		History:  hist,
		Charts: chart.NewRenderer(chart.Config{
			Width:  cfg.Chart.Width,
			Height: cfg.Chart.Height,
			Title:  cfg.Chart.Title,
		}),
		Health:   healthMgr,
		Sessions: sessions,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}
	server.SetVersion(version)
	svcMgr.Register(server)

	if err := svcMgr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start services: %w", err)
	}

	<-ctx.Done()
	log.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := svcMgr.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}

	log.Info("Shutdown complete")
	return nil
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(logger.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}
