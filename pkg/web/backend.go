package web

import (
	"errors"
	"time"

	"github.com/teslashibe/go-compose/pkg/camera"
	"github.com/teslashibe/go-compose/pkg/guidance"
	"github.com/teslashibe/go-compose/pkg/protocol"
	"github.com/teslashibe/go-compose/pkg/smartcompose"
	"github.com/teslashibe/go-compose/pkg/template"
	"github.com/teslashibe/go-compose/pkg/tracking"
	"github.com/teslashibe/go-compose/pkg/votes"
)

// ErrSessionNotFound is returned by a Backend for an unknown camera id.
var ErrSessionNotFound = errors.New("session not found")

// Backend is the composer state the dashboard reads and controls.
// The interface is defined where it's consumed, not where implemented.
type Backend interface {
	// Status returns process-wide counters.
	Status() Status

	// Sessions lists every connected camera session.
	Sessions() []SessionInfo

	// Session returns one camera session.
	Session(id string) (SessionInfo, error)

	// SetTemplate switches a session's template and returns the canonical kind.
	SetTemplate(id, templateID string) (template.Kind, error)

	// StartSmartCompose scores the session's scene, validates the optional
	// suggestion against it and activates smart compose on the winner.
	StartSmartCompose(id, suggestion string, confidence float64) (votes.Decision, error)

	// CancelSmartCompose aborts any smart compose session.
	CancelSmartCompose(id string) error

	// Tuning returns the current tuning parameters.
	Tuning() guidance.TuningParams

	// SetTuning applies non-zero parameters to every session.
	SetTuning(p guidance.TuningParams)
}

// Status is the dashboard summary.
type Status struct {
	Uptime          string `json:"uptime"`
	Cameras         int    `json:"cameras"`
	FramesProcessed uint64 `json:"frames_processed"`
	FramesDropped   uint64 `json:"frames_dropped"`
	FaceDetection   bool   `json:"face_detection"`
	Dashboards      int    `json:"dashboards"`
}

// SessionInfo describes one camera session.
type SessionInfo struct {
	ID           string                 `json:"id"`
	Template     template.Kind          `json:"template"`
	ConnectedAt  time.Time              `json:"connected_at"`
	Frames       uint64                 `json:"frames"`
	Phase        tracking.Phase         `json:"phase"`
	Guidance     *protocol.GuidanceData `json:"guidance,omitempty"`
	SmartCompose smartcompose.Snapshot  `json:"smart_compose"`
	Zoom         camera.Status          `json:"zoom"`
	HasFace      bool                   `json:"has_face"`
}
