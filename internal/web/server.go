// Package web serves the landing page, the annotated video stream and the
// emotion chart over HTTP.
package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vzahanych/emotion-stream/internal/chart"
	"github.com/vzahanych/emotion-stream/internal/config"
	"github.com/vzahanych/emotion-stream/internal/health"
	"github.com/vzahanych/emotion-stream/internal/history"
	"github.com/vzahanych/emotion-stream/internal/logger"
	"github.com/vzahanych/emotion-stream/internal/service"
	"github.com/vzahanych/emotion-stream/internal/state"
	"github.com/vzahanych/emotion-stream/internal/video"
)

//go:embed templates/index.html
var indexHTML []byte

//go:embed static/*
var staticFiles embed.FS

// SessionStore lists persisted stream sessions
type SessionStore interface {
	ListSessions(ctx context.Context, limit int) ([]state.Session, error)
}

// Dependencies are the components the handlers dispatch to. Health and
// Sessions are optional.
type Dependencies struct {
	Streamer *video.Streamer
	History  *history.History
	Charts   *chart.Renderer
	Health   *health.Manager
	Sessions SessionStore
}

// Server represents the web server service
type Server struct {
	*service.ServiceBase
	config     *config.WebConfig
	logger     *logger.Logger
	httpServer *http.Server
	router     *gin.Engine
	deps       Dependencies
	upgrader   websocket.Upgrader
	version    string

	mu   sync.RWMutex
	addr string
}

// NewServer creates the web server and registers its routes
func NewServer(cfg *config.WebConfig, deps Dependencies, log *logger.Logger) (*Server, error) {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	s := &Server{
		ServiceBase: service.NewServiceBase("web-server", log),
		config:      cfg,
		logger:      log,
		router:      router,
		deps:        deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		version: "dev",
	}

	if err := s.setupRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

// SetVersion sets the application version
func (s *Server) SetVersion(version string) {
	s.version = version
}

// Handler returns the HTTP handler serving all routes
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the address the server listens on, empty before Start
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Start starts the web server
func (s *Server) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.LogInfo("Web server is disabled")
		return nil
	}
	s.GetStatus().SetStatus(service.StatusStarting)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.GetStatus().SetError(err)
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	// WriteTimeout stays 0: /video_feed responses never end on their own
	s.httpServer = &http.Server{
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.LogError("Web server error", err, "address", addr)
		}
	}()

	s.LogInfo("Web server started", "address", s.Addr(), "version", s.version)
	s.GetStatus().SetStatus(service.StatusRunning)
	return nil
}

// Stop stops the web server. Open streams are cut when ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.GetStatus().SetStatus(service.StatusStopping)
	s.LogInfo("Stopping web server")

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		// streaming responses keep connections active; force them closed
		s.httpServer.Close()
	}
	s.GetStatus().SetStatus(service.StatusStopped)
	return err
}

func (s *Server) setupRoutes() error {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/video_feed", s.handleVideoFeed)
	s.router.GET("/emotions_chart", s.handleEmotionsChart)

	var assets http.FileSystem
	if s.config.StaticDir != "" {
		assets = http.Dir(s.config.StaticDir)
	} else {
		sub, err := fs.Sub(staticFiles, "static")
		if err != nil {
			return fmt.Errorf("embedded static assets: %w", err)
		}
		assets = http.FS(sub)
	}
	s.router.StaticFS("/static", filesOnly{assets})

	api := s.router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/emotions", s.handleEmotions)
		api.GET("/sessions", s.handleSessions)
	}
	s.router.GET("/ws/emotions", s.handleEmotionsSocket)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	return nil
}

// filesOnly serves regular files and reports directories as missing, so
// /static never lists its contents
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}

// ginLogger creates a Gin middleware for logging
func ginLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", latency,
			"client_ip", c.ClientIP(),
		)
	}
}
