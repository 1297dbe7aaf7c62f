// Package protocol defines the WebSocket message types exchanged between a
// camera client and the composition server.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teslashibe/go-compose/pkg/geom"
	"github.com/teslashibe/go-compose/pkg/tracking"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Camera → Server messages
	TypeFrame        MessageType = "frame"         // Captured frame plus subject estimate
	TypeTemplate     MessageType = "template"      // User picked a template
	TypeSmartCompose MessageType = "smart_compose" // Start, cancel or complete smart compose
	TypeReset        MessageType = "reset"         // Clear session history

	// Server → Camera messages
	TypeGuidance  MessageType = "guidance"  // Per-frame guidance
	TypeZoom      MessageType = "zoom"      // Target zoom command
	TypeReacquire MessageType = "reacquire" // Ask the tracker to reacquire at a point
	TypeError     MessageType = "error"     // Request could not be handled

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Time returns the message timestamp, or the zero time when unset.
func (m *Message) Time() time.Time {
	if m.Timestamp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(m.Timestamp)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Camera → Server Message Types
// =============================================================================

// Frame formats
const (
	FormatGray = "gray" // 8-bit luma, width*height bytes
	FormatRGBA = "rgba" // packed RGBA, width*height*4 bytes
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// FrameData contains a captured frame and the camera's view of the subject
type FrameData struct {
	Width     int                  `json:"width"`
	Height    int                  `json:"height"`
	Format    string               `json:"format"` // see Format constants
	Data      string               `json:"data"`   // base64 encoded
	FrameID   uint64               `json:"frame_id"`
	Template  string               `json:"template,omitempty"`
	Subject   tracking.Observation `json:"subject"`
	UserTap   *geom.Point          `json:"user_tap,omitempty"`
	AutoFocus *geom.Point          `json:"auto_focus,omitempty"`
	Face      *tracking.Face       `json:"face,omitempty"`
}

// TemplateData selects a template
type TemplateData struct {
	Template string `json:"template"`
}

// Smart compose actions
const (
	SmartComposeStart    = "start"
	SmartComposeCancel   = "cancel"
	SmartComposeComplete = "complete"
)

// SmartComposeData controls smart compose
type SmartComposeData struct {
	Action     string  `json:"action"`
	Suggestion string  `json:"suggestion,omitempty"` // Externally suggested template
	Confidence float64 `json:"confidence,omitempty"` // Confidence of the suggestion (0-1)
}

// =============================================================================
// Server → Camera Message Types
// =============================================================================

// GuidanceData is the per-frame guidance
type GuidanceData struct {
	FrameID    uint64         `json:"frame_id"`
	Template   string         `json:"template"`
	DX         float64        `json:"dx"`
	DY         float64        `json:"dy"`
	Strength   float64        `json:"strength"`
	Confidence float64        `json:"confidence"`
	Holding    bool           `json:"holding"`
	Subject    geom.Point     `json:"subject"`
	Target     *geom.Point    `json:"target,omitempty"`
	Diagonal   string         `json:"diagonal,omitempty"`
	Zone       *ZoneData      `json:"zone,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	Phase      tracking.Phase `json:"phase,omitempty"`
	Coaching   string         `json:"coaching,omitempty"`
}

// ZoneData is a negative-space rectangle
type ZoneData struct {
	Name string    `json:"name"`
	Rect geom.Rect `json:"rect"`
}

// ZoomData is a target zoom command
type ZoomData struct {
	RequestID string  `json:"request_id"`
	Template  string  `json:"template"`
	Zoom      float64 `json:"zoom"`
}

// ReacquireData asks the tracker to look for the subject at Point
type ReacquireData struct {
	Point geom.Point `json:"point"`
}

// ErrorData reports a failed request
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeBadMessage = "bad_message"
	ErrCodeBadFrame   = "bad_frame"
	ErrCodeBusy       = "busy"
)

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
