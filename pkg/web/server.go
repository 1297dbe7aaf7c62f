// Package web provides a real-time composition dashboard
package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-compose/pkg/guidance"
	"github.com/teslashibe/go-compose/pkg/hub"
	"github.com/teslashibe/go-compose/pkg/protocol"
)

// maxLogs is the size of the log ring buffer
const maxLogs = 500

// LogEntry represents a log line for the dashboard
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, template, smart_compose, zoom, error
	Camera  string `json:"camera,omitempty"`
	Message string `json:"message"`
}

// GuidanceEvent is one camera's guidance update as seen by dashboards.
type GuidanceEvent struct {
	Camera   string                `json:"camera"`
	Sequence uint64                `json:"sequence"`
	Guidance protocol.GuidanceData `json:"guidance"`
	Zoom     *protocol.ZoomData    `json:"zoom,omitempty"`
	Phase    string                `json:"phase"`
	Coaching string                `json:"coaching,omitempty"`
}

// Server is the web dashboard server
type Server struct {
	app     *fiber.App
	port    string
	backend Backend
	logger  *slog.Logger
	started time.Time

	// Log buffer (last maxLogs entries)
	logs   []LogEntry
	logsMu sync.RWMutex

	// Hubs for websocket broadcast
	guidanceHub *hub.Hub
	logHub      *hub.Hub
}

// NewServer creates a new web dashboard server. staticDir is served at /
// when non-empty.
func NewServer(port, staticDir string, backend Backend, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		port:        port,
		backend:     backend,
		logger:      logger,
		started:     time.Now(),
		logs:        make([]LogEntry, 0, maxLogs),
		guidanceHub: hub.New("guidance", logger),
		logHub:      hub.New("logs", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Composer Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	if staticDir != "" {
		app.Static("/", staticDir)
	}

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/templates", s.handleListTemplates)
	api.Get("/tuning", s.handleGetTuning)
	api.Put("/tuning", s.handleSetTuning)
	api.Get("/logs", s.handleGetLogs)
	api.Get("/sessions", s.handleListSessions)
	api.Get("/sessions/:id", s.handleGetSession)
	api.Put("/sessions/:id/template", s.handleSetTemplate)
	api.Post("/sessions/:id/smart-compose", s.handleSmartCompose)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/guidance", websocket.New(s.handleGuidanceWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))

	s.app = app
	return s
}

// App returns the underlying fiber app so other components can mount
// routes on the same listener.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the broadcast hubs and serves until the listener fails or
// Shutdown is called. The hubs stop when ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("web dashboard", "url", "http://localhost:"+s.port)

	go s.guidanceHub.Run(ctx)
	go s.logHub.Run(ctx)

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Warn("web server error", "error", err)
		}
	}()
}

// PublishGuidance broadcasts one camera's output to dashboards subscribed
// to that camera or to all cameras.
func (s *Server) PublishGuidance(cameraID string, out guidance.Output) {
	ev := GuidanceEvent{
		Camera:   cameraID,
		Sequence: out.Sequence,
		Guidance: protocol.GuidanceFromOutput(out),
		Phase:    string(out.Phase),
		Coaching: out.Coaching,
	}
	if out.Zoom != nil {
		ev.Zoom = &protocol.ZoomData{
			RequestID: out.Zoom.RequestID.String(),
			Template:  string(out.Zoom.Template),
			Zoom:      out.Zoom.Zoom,
		}
	}
	if err := s.guidanceHub.PublishJSON(cameraID, ev); err != nil {
		s.logger.Debug("publish guidance failed", "camera", cameraID, "error", err)
	}
}

// AddLog adds a log entry and broadcasts to clients
func (s *Server) AddLog(logType, cameraID, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Camera:  cameraID,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	if err := s.logHub.PublishJSON(cameraID, entry); err != nil {
		s.logger.Debug("publish log failed", "error", err)
	}
}

// Logs returns a copy of the buffered log entries.
func (s *Server) Logs() []LogEntry {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	out := make([]LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// GuidanceHub returns the guidance hub for external use
func (s *Server) GuidanceHub() *hub.Hub {
	return s.guidanceHub
}

// LogHub returns the log hub for external use
func (s *Server) LogHub() *hub.Hub {
	return s.logHub
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
