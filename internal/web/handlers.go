package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vzahanych/emotion-stream/internal/health"
	"github.com/vzahanych/emotion-stream/internal/history"
	"github.com/vzahanych/emotion-stream/internal/service"
	"github.com/vzahanych/emotion-stream/internal/state"
	"github.com/vzahanych/emotion-stream/internal/video"
)

// TallyResponse is the JSON form of the current tally
type TallyResponse struct {
	Total  int             `json:"total"`
	Counts []history.Count `json:"counts"`
}

func newTallyResponse(t history.Tally) TallyResponse {
	counts := []history.Count(t)
	if counts == nil {
		counts = []history.Count{}
	}
	return TallyResponse{Total: t.Total(), Counts: counts}
}

// handleIndex serves the landing page
func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

// handleVideoFeed streams annotated frames until the camera runs dry or the
// client leaves. The end of the stream is never reported as an error.
func (s *Server) handleVideoFeed(c *gin.Context) {
	c.Header("Content-Type", video.ContentType)
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()

	mw := video.NewMultipartWriter(c.Writer)
	reason, err := s.deps.Streamer.Stream(c.Request.Context(), mw)
	if err != nil {
		s.logger.Debug("Video feed closed",
			"reason", string(reason),
			"client_ip", c.ClientIP(),
			"error", err,
		)
	}
}

// handleEmotionsChart renders the tally of everything seen so far
func (s *Server) handleEmotionsChart(c *gin.Context) {
	data, err := s.deps.Charts.Render(s.deps.History.Tally())
	if err != nil {
		s.LogError("Failed to render chart", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render chart"})
		return
	}
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Data(http.StatusOK, "image/png", data)
}

// handleEmotions returns the tally as JSON
func (s *Server) handleEmotions(c *gin.Context) {
	c.JSON(http.StatusOK, newTallyResponse(s.deps.History.Tally()))
}

const maxSessionsLimit = 1000

// handleSessions lists recent stream sessions, newest first
func (s *Server) handleSessions(c *gin.Context) {
	if s.deps.Sessions == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session storage is disabled"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSessionsLimit {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("limit must be an integer between 1 and %d", maxSessionsLimit),
			})
			return
		}
		limit = n
	}

	sessions, err := s.deps.Sessions.ListSessions(c.Request.Context(), limit)
	if err != nil {
		s.LogError("Failed to list sessions", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sessions"})
		return
	}
	if sessions == nil {
		sessions = []state.Session{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// handleHealth returns the health report
func (s *Server) handleHealth(c *gin.Context) {
	if s.deps.Health == nil {
		c.JSON(http.StatusOK, gin.H{
			"status":  health.StatusHealthy,
			"service": "web-server",
		})
		return
	}
	report := s.deps.Health.Check(c.Request.Context())
	c.JSON(health.HTTPStatus(report), report)
}

const (
	socketWriteWait  = 5 * time.Second
	socketPongWait   = 60 * time.Second
	socketPingPeriod = socketPongWait * 9 / 10
)

// handleEmotionsSocket pushes the tally on connect and after every analyzed
// frame until the client disconnects.
func (s *Server) handleEmotionsSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Debug("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var updates <-chan service.Event
	if bus := s.GetEventBus(); bus != nil {
		ch := bus.Subscribe(service.EventTypeEmotionDetected)
		defer bus.Unsubscribe(ch)
		updates = ch
	}

	closed := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(socketPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(socketPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func() error {
		conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
		return conn.WriteJSON(newTallyResponse(s.deps.History.Tally()))
	}
	if err := send(); err != nil {
		return
	}

	ping := time.NewTicker(socketPingPeriod)
	defer ping.Stop()

	for {
		select {
		case _, ok := <-updates:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(socketWriteWait))
				return
			}
			if err := send(); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(socketWriteWait)); err != nil {
				return
			}
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
