package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/raven-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"stopwatch/backend/internal/laps"
	"stopwatch/backend/internal/metrics"
	"stopwatch/backend/internal/prefs"
	"stopwatch/backend/internal/session"
	"stopwatch/backend/internal/util"
)

// Config defines server dependencies.
type Config struct {
	Preferences    *prefs.Manager
	Clock          util.Clock
	TickInterval   time.Duration
	AllowedOrigins []string
	Hook           metrics.CommandHook
	// ReportErrors sends server errors to Sentry.
	ReportErrors bool
}

// Server wires HTTP handlers with the stopwatch session.
type Server struct {
	session        *session.Session
	notifier       *EventNotifier
	allowedOrigins []string
	reportErrors   bool
}

// NewServer constructs the API server and its stopwatch session.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Preferences == nil {
		return nil, errors.New("preferences required")
	}
	notifier := NewEventNotifier()
	sess, err := session.New(cfg.Preferences, session.Options{
		Clock:        cfg.Clock,
		TickInterval: cfg.TickInterval,
		Publisher:    notifier,
		Hook:         cfg.Hook,
	})
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"session": sess.ID(),
		"tick":    cfg.TickInterval,
	}).Info("stopwatch session created")

	return &Server{
		session:        sess,
		notifier:       notifier,
		allowedOrigins: cfg.AllowedOrigins,
		reportErrors:   cfg.ReportErrors,
	}, nil
}

// Session exposes the stopwatch driven by the server.
func (s *Server) Session() *session.Session {
	return s.session
}

// Close stops the session's tick.
func (s *Server) Close() {
	s.session.Close()
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsCfg.ExposeHeaders = []string{"Content-Disposition"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)

	api := r.Group("/api")
	{
		api.GET("/state", s.handleState)
		api.POST("/start", s.handleStart)
		api.POST("/pause", s.handlePause)
		api.POST("/toggle", s.handleToggle)
		api.POST("/reset", s.handleReset)
		api.GET("/laps", s.handleListLaps)
		api.POST("/laps", s.handleRecordLap)
		api.DELETE("/laps", s.handleClearLaps)
		api.GET("/laps/export.csv", s.handleExportCSV)
		api.POST("/keys", s.handleKey)
		api.GET("/preferences", s.handleGetPreferences)
		api.PUT("/preferences", s.handleUpdatePreferences)
		api.GET("/stream", s.handleStream)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"session": s.session.ID(),
		"clients": s.notifier.Clients(),
	})
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleStart(c *gin.Context) {
	applied := s.session.Start()
	s.renderCommand(c, session.CommandStart, applied)
}

func (s *Server) handlePause(c *gin.Context) {
	applied := s.session.Pause()
	s.renderCommand(c, session.CommandPause, applied)
}

func (s *Server) handleToggle(c *gin.Context) {
	cmd, applied := s.session.Toggle()
	s.renderCommand(c, cmd, applied)
}

func (s *Server) handleReset(c *gin.Context) {
	s.session.Reset()
	s.renderCommand(c, session.CommandReset, true)
}

func (s *Server) handleListLaps(c *gin.Context) {
	ext, ranked := s.session.Extremes()
	c.JSON(http.StatusOK, FromLaps(s.session.Laps(), ext, ranked))
}

func (s *Server) handleRecordLap(c *gin.Context) {
	lap, ok, err := s.session.Lap()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		s.renderError(c, http.StatusConflict, session.ErrNotRunning)
		return
	}
	c.JSON(http.StatusCreated, LapResponse{Lap: lap, State: s.session.Snapshot()})
}

func (s *Server) handleClearLaps(c *gin.Context) {
	s.session.ClearLaps()
	s.renderCommand(c, session.CommandClearLaps, true)
}

func (s *Server) handleExportCSV(c *gin.Context) {
	data, ok, err := s.session.Export()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	writeExport(c, data)
}

func (s *Server) handleKey(c *gin.Context) {
	var req KeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("invalid key request: %w", err))
		return
	}
	if req.Key == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("key required"))
		return
	}

	result, err := s.session.HandleKey(req.Key)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	if result.Command == session.CommandExport && result.Applied {
		writeExport(c, result.Export)
		return
	}
	s.renderCommand(c, result.Command, result.Applied)
}

func (s *Server) handleGetPreferences(c *gin.Context) {
	c.JSON(http.StatusOK, FromPreferences(s.session.Preferences().Get()))
}

func (s *Server) handleUpdatePreferences(c *gin.Context) {
	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("invalid preferences: %w", err))
		return
	}

	manager := s.session.Preferences()
	if req.Theme != nil {
		if err := manager.SetTheme(*req.Theme); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, prefs.ErrUnknownTheme) {
				status = http.StatusBadRequest
			}
			s.renderError(c, status, err)
			return
		}
	}
	if req.Sound != nil {
		if err := manager.SetSound(*req.Sound); err != nil {
			s.renderError(c, http.StatusInternalServerError, err)
			return
		}
	}

	p := manager.Get()
	logrus.WithFields(logrus.Fields{
		"sound": p.Sound,
		"theme": p.Theme,
	}).Info("preferences updated")
	c.JSON(http.StatusOK, FromPreferences(p))
}

func (s *Server) handleStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn)
	entry := logrus.WithFields(logrus.Fields{"remote": conn.RemoteAddr().String(), "client": client.id})
	entry.Info("stopwatch websocket connected")
	defer s.notifier.Unregister(client)

	if s.notifier.LastState() == nil {
		state := s.session.Snapshot()
		_ = client.writeJSON(session.Event{
			Type:      session.EventState,
			SessionID: state.SessionID,
			ElapsedMs: state.ElapsedMs,
			State:     &state,
			Timestamp: time.Now().UTC(),
		})
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				entry.Info("stopwatch websocket closed")
			} else {
				entry.WithError(err).Warn("stopwatch websocket unexpected close")
			}
			break
		}
	}
}

func (s *Server) renderCommand(c *gin.Context, cmd session.Command, applied bool) {
	c.JSON(http.StatusOK, CommandResponse{Command: cmd, Applied: applied, State: s.session.Snapshot()})
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		if s.reportErrors {
			raven.CaptureError(err, map[string]string{"path": c.FullPath()})
		}
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func writeExport(c *gin.Context, data []byte) {
	c.Header("Content-Disposition", "attachment; filename="+laps.ExportFilename)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// requestLogger logs every request with its latency.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := util.StartTimer()
		c.Next()
		if c.FullPath() == "/api/stream" {
			return
		}
		logrus.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": timer.ElapsedMs(),
		}).Debug("request served")
	}
}
