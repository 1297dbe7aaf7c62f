// Package cloud provides the WebSocket hub that camera clients stream frames
// into and receive guidance from.
package cloud

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-compose/pkg/guidance"
	"github.com/teslashibe/go-compose/pkg/protocol"
	"github.com/teslashibe/go-compose/pkg/smartcompose"
)

// CameraConnection represents a connected camera
type CameraConnection struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time
	LastSeen  time.Time

	mu sync.Mutex
}

// Send sends a message to the camera
func (c *CameraConnection) Send(msg *protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

// Hub manages WebSocket connections from cameras
type Hub struct {
	mu      sync.RWMutex
	cameras map[string]*CameraConnection
	logger  *slog.Logger

	// Callbacks
	onFrame        func(cameraID string, ts time.Time, frame *protocol.FrameData)
	onTemplate     func(cameraID string, tmpl *protocol.TemplateData)
	onSmartCompose func(cameraID string, sc *protocol.SmartComposeData)
	onReset        func(cameraID string)
	onDisconnect   func(cameraID string)

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	framesReceived   atomic.Uint64
	parseErrors      atomic.Uint64
}

// NewHub creates a new camera hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		cameras: make(map[string]*CameraConnection),
		logger:  logger,
	}
}

// OnFrame sets the callback for incoming frames
func (h *Hub) OnFrame(callback func(cameraID string, ts time.Time, frame *protocol.FrameData)) {
	h.mu.Lock()
	h.onFrame = callback
	h.mu.Unlock()
}

// OnTemplate sets the callback for template selections
func (h *Hub) OnTemplate(callback func(cameraID string, tmpl *protocol.TemplateData)) {
	h.mu.Lock()
	h.onTemplate = callback
	h.mu.Unlock()
}

// OnSmartCompose sets the callback for smart compose requests
func (h *Hub) OnSmartCompose(callback func(cameraID string, sc *protocol.SmartComposeData)) {
	h.mu.Lock()
	h.onSmartCompose = callback
	h.mu.Unlock()
}

// OnReset sets the callback for session resets
func (h *Hub) OnReset(callback func(cameraID string)) {
	h.mu.Lock()
	h.onReset = callback
	h.mu.Unlock()
}

// OnDisconnect sets the callback invoked after a camera disconnects
func (h *Hub) OnDisconnect(callback func(cameraID string)) {
	h.mu.Lock()
	h.onDisconnect = callback
	h.mu.Unlock()
}

// RegisterRoutes registers WebSocket routes on a Fiber app
func (h *Hub) RegisterRoutes(app *fiber.App) {
	// WebSocket upgrade middleware
	app.Use("/ws/camera", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// Camera connection endpoint
	app.Get("/ws/camera", websocket.New(h.handleCamera))
	app.Get("/ws/camera/:id", websocket.New(h.handleCamera))
}

// handleCamera handles a camera WebSocket connection
func (h *Hub) handleCamera(c *websocket.Conn) {
	// Get camera ID from path or generate one
	cameraID := c.Params("id")
	if cameraID == "" {
		cameraID = generateCameraID()
	}

	camera := &CameraConnection{
		ID:        cameraID,
		Conn:      c,
		Connected: time.Now(),
		LastSeen:  time.Now(),
	}

	// Register camera
	h.mu.Lock()
	h.cameras[cameraID] = camera
	cameraCount := len(h.cameras)
	h.mu.Unlock()

	h.logger.Info("camera connected", "camera", cameraID, "total", cameraCount)

	defer func() {
		h.mu.Lock()
		if h.cameras[cameraID] == camera {
			delete(h.cameras, cameraID)
		}
		cameraCount := len(h.cameras)
		disconnectCb := h.onDisconnect
		h.mu.Unlock()

		h.logger.Info("camera disconnected", "camera", cameraID, "total", cameraCount)
		if disconnectCb != nil {
			disconnectCb(cameraID)
		}
	}()

	// Read loop
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			h.logger.Debug("camera read error", "camera", cameraID, "error", err)
			return
		}

		camera.mu.Lock()
		camera.LastSeen = time.Now()
		camera.mu.Unlock()

		h.messagesReceived.Add(1)
		h.handleMessage(cameraID, data)
	}
}

// handleMessage processes an incoming message from a camera
func (h *Hub) handleMessage(cameraID string, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		h.parseErrors.Add(1)
		h.logger.Warn("parse error", "camera", cameraID, "error", err)
		h.SendError(cameraID, protocol.ErrCodeBadMessage, err.Error())
		return
	}

	h.mu.RLock()
	frameCb := h.onFrame
	templateCb := h.onTemplate
	smartCb := h.onSmartCompose
	resetCb := h.onReset
	h.mu.RUnlock()

	switch msg.Type {
	case protocol.TypeFrame:
		h.framesReceived.Add(1)
		if frameCb != nil {
			frame, err := msg.GetFrameData()
			if err != nil {
				h.SendError(cameraID, protocol.ErrCodeBadFrame, err.Error())
				return
			}
			ts := msg.Time()
			if ts.IsZero() {
				ts = time.Now()
			}
			frameCb(cameraID, ts, frame)
		}

	case protocol.TypeTemplate:
		if templateCb != nil {
			tmpl, err := msg.GetTemplateData()
			if err == nil {
				templateCb(cameraID, tmpl)
			}
		}

	case protocol.TypeSmartCompose:
		if smartCb != nil {
			sc, err := msg.GetSmartComposeData()
			if err == nil {
				smartCb(cameraID, sc)
			}
		}

	case protocol.TypeReset:
		if resetCb != nil {
			resetCb(cameraID)
		}

	case protocol.TypePing:
		// Respond with pong
		ping, _ := msg.GetPingData()
		id := ""
		if ping != nil {
			id = ping.ID
		}
		h.SendPong(cameraID, id, msg.Timestamp)
	}
}

// SendGuidance sends per-frame guidance to a camera
func (h *Hub) SendGuidance(cameraID string, out guidance.Output) error {
	msg, err := protocol.NewGuidanceMessage(out)
	if err != nil {
		return err
	}
	return h.sendToCamera(cameraID, msg)
}

// SendZoom sends a zoom command to a camera
func (h *Hub) SendZoom(cameraID string, cmd smartcompose.ZoomCommand) error {
	msg, err := protocol.NewZoomMessage(cmd)
	if err != nil {
		return err
	}
	return h.sendToCamera(cameraID, msg)
}

// SendReacquire asks a camera's tracker to reacquire the subject
func (h *Hub) SendReacquire(cameraID string, data protocol.ReacquireData) error {
	msg, err := protocol.NewReacquireMessage(data)
	if err != nil {
		return err
	}
	return h.sendToCamera(cameraID, msg)
}

// SendError reports a failed request to a camera
func (h *Hub) SendError(cameraID, code, message string) error {
	msg, err := protocol.NewErrorMessage(code, message)
	if err != nil {
		return err
	}
	return h.sendToCamera(cameraID, msg)
}

// SendPong sends a pong response to a camera
func (h *Hub) SendPong(cameraID, id string, pingTS int64) error {
	msg, err := protocol.NewPongMessage(id, pingTS, time.Now().UnixMilli())
	if err != nil {
		return err
	}
	return h.sendToCamera(cameraID, msg)
}

// sendToCamera sends a message to a specific camera
func (h *Hub) sendToCamera(cameraID string, msg *protocol.Message) error {
	h.mu.RLock()
	camera, ok := h.cameras[cameraID]
	h.mu.RUnlock()

	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "camera not connected")
	}

	h.messagesSent.Add(1)
	return camera.Send(msg)
}

// Broadcast sends a message to all connected cameras
func (h *Hub) Broadcast(msg *protocol.Message) {
	h.mu.RLock()
	cameras := make([]*CameraConnection, 0, len(h.cameras))
	for _, c := range h.cameras {
		cameras = append(cameras, c)
	}
	h.mu.RUnlock()

	for _, camera := range cameras {
		h.messagesSent.Add(1)
		if err := camera.Send(msg); err != nil {
			h.logger.Debug("broadcast error", "camera", camera.ID, "error", err)
		}
	}
}

// GetCamera returns a camera connection by ID
func (h *Hub) GetCamera(cameraID string) *CameraConnection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cameras[cameraID]
}

// CameraCount returns the number of connected cameras
func (h *Hub) CameraCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.cameras)
}

// Stats contains hub statistics
type Stats struct {
	CameraCount      int    `json:"camera_count"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	FramesReceived   uint64 `json:"frames_received"`
	ParseErrors      uint64 `json:"parse_errors"`
}

// GetStats returns hub statistics
func (h *Hub) GetStats() Stats {
	return Stats{
		CameraCount:      h.CameraCount(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesSent:     h.messagesSent.Load(),
		FramesReceived:   h.framesReceived.Load(),
		ParseErrors:      h.parseErrors.Load(),
	}
}

// CameraInfo contains info about a connected camera
type CameraInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
}

// GetCameraInfos returns info about all connected cameras
func (h *Hub) GetCameraInfos() []CameraInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]CameraInfo, 0, len(h.cameras))
	for _, c := range h.cameras {
		c.mu.Lock()
		infos = append(infos, CameraInfo{
			ID:        c.ID,
			Connected: c.Connected,
			LastSeen:  c.LastSeen,
		})
		c.mu.Unlock()
	}
	return infos
}

// RegisterAPIRoutes registers API routes for camera management
func (h *Hub) RegisterAPIRoutes(api fiber.Router) {
	cameras := api.Group("/cameras")

	// List connected cameras
	cameras.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"cameras": h.GetCameraInfos(),
			"count":   h.CameraCount(),
		})
	})

	// Get hub stats
	cameras.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(h.GetStats())
	})

	// Ask a camera to reacquire its subject at a point
	cameras.Post("/:id/reacquire", func(c *fiber.Ctx) error {
		cameraID := c.Params("id")

		var req protocol.ReacquireData
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		req.Point = req.Point.Clamped()

		if err := h.SendReacquire(cameraID, req); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		return c.JSON(fiber.Map{"status": "sent"})
	})
}

// generateCameraID generates a unique camera ID
func generateCameraID() string {
	return uuid.NewString()
}
