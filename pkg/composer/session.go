package composer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-compose/pkg/camera"
	"github.com/teslashibe/go-compose/pkg/geom"
	"github.com/teslashibe/go-compose/pkg/guidance"
	"github.com/teslashibe/go-compose/pkg/protocol"
	"github.com/teslashibe/go-compose/pkg/smartcompose"
	"github.com/teslashibe/go-compose/pkg/template"
	"github.com/teslashibe/go-compose/pkg/tracking"
	"github.com/teslashibe/go-compose/pkg/tracking/detection"
	"github.com/teslashibe/go-compose/pkg/votes"
	"github.com/teslashibe/go-compose/pkg/web"
)

// Smart compose start errors.
var (
	ErrBusy       = errors.New("smart compose already processing")
	ErrNoFrame    = errors.New("no frame processed yet")
	ErrSuperseded = errors.New("smart compose request superseded")
)

// Session is the pipeline state of one connected camera. Frames for one
// camera arrive in order from a single connection, so Process is never
// called concurrently for the same session.
type Session struct {
	id          string
	connectedAt time.Time
	logger      *slog.Logger
	faceFill    float64

	coord *guidance.Coordinator
	zoom  *camera.Manager
	faces *tracking.FacePerception

	frames  atomic.Uint64
	dropped atomic.Uint64

	mu   sync.Mutex
	face *tracking.Face
}

// NewSession creates a session. detector may be nil.
func NewSession(id string, cfg Config, detector detection.Detector, logger *slog.Logger, opts ...guidance.Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("camera", id)
	opts = append([]guidance.Option{guidance.WithLogger(logger)}, opts...)
	return &Session{
		id:          id,
		connectedAt: time.Now(),
		logger:      logger,
		faceFill:    cfg.FaceFill,
		coord:       guidance.New(cfg.Guidance, opts...),
		zoom:        camera.NewManagerWithConfig(cfg.Zoom),
		faces:       tracking.NewFacePerception(cfg.Guidance.Tracking, detector, logger),
	}
}

// ID returns the camera id.
func (s *Session) ID() string {
	return s.id
}

// Coordinator returns the session's guidance coordinator.
func (s *Session) Coordinator() *guidance.Coordinator {
	return s.coord
}

// Zoom returns the session's zoom driver.
func (s *Session) Zoom() *camera.Manager {
	return s.zoom
}

// Process decodes one frame, runs it through the coordinator and steps the
// zoom driver. It returns false when the frame was stale.
func (s *Session) Process(ts time.Time, fd *protocol.FrameData) (guidance.Output, bool, error) {
	f, err := fd.Decode()
	if err != nil {
		return guidance.Output{}, false, fmt.Errorf("decode frame %d: %w", fd.FrameID, err)
	}

	face := fd.Face
	if face == nil && s.faces.Available() {
		if img, err := f.Image(); err == nil {
			if observed, ok := s.faces.Observe(img); ok {
				face = &observed
			}
		}
	}
	s.mu.Lock()
	s.face = face
	s.mu.Unlock()

	autoFocus := geom.Center
	if fd.AutoFocus != nil {
		autoFocus = *fd.AutoFocus
	}

	out, ok := s.coord.Process(guidance.Input{
		Sequence:        fd.FrameID,
		Time:            ts,
		Frame:           f,
		Template:        fd.Template,
		Subject:         fd.Subject,
		Face:            face,
		UserAnchor:      fd.UserTap,
		AutoFocusAnchor: autoFocus,
	})
	if !ok {
		s.dropped.Add(1)
		return out, false, nil
	}
	s.frames.Add(1)

	if out.Zoom != nil {
		s.zoom.Command(*out.Zoom)
	}
	if err := s.stepZoom(); err != nil {
		s.logger.Warn("zoom step failed", "error", err)
	}
	return out, true, nil
}

// stepZoom advances the zoom driver and completes smart compose once the
// zoom has converged on the active request.
func (s *Session) stepZoom() error {
	st, err := s.zoom.Step()
	if !st.Active {
		return err
	}

	smart := s.coord.SmartCompose()
	snap := smart.Snapshot()
	switch {
	case snap.State == smartcompose.StateIdle:
		s.zoom.Release()
	case snap.State == smartcompose.StateActive && st.Converged && snap.RequestID == st.RequestID:
		if smart.Complete() {
			s.logger.Info("smart compose converged", "template", snap.Template, "zoom", st.Zoom)
		}
		s.zoom.Release()
	}
	return err
}

// Face returns the most recent face observation, or nil.
func (s *Session) Face() *tracking.Face {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.face
}

// StartSmartCompose scores the latest frame's scene, validates the
// suggestion against the scorer's pick, switches to the chosen template and
// activates smart compose with a target zoom estimated from the face.
func (s *Session) StartSmartCompose(scorer *votes.Scorer, suggestion string, confidence float64) (votes.Decision, error) {
	smart := s.coord.SmartCompose()
	id := smartcompose.NewRequestID()

	// Smart compose runs on the frame clock.
	last, ok := s.coord.Last()
	now := time.Now()
	if ok {
		now = last.Time
	}
	if !smart.BeginProcessingAt(id, now) {
		return votes.Decision{}, ErrBusy
	}
	if !ok {
		smart.FailProcessing(id)
		return votes.Decision{}, ErrNoFrame
	}

	face := s.Face()
	scene := votes.SceneFor(last.Analysis, face != nil)
	if suggestion == "" {
		suggestion = scorer.Select(scene).Template.String()
		confidence = 1
	}
	decision := scorer.ValidateSuggestion(votes.Suggestion{Template: suggestion, Confidence: confidence}, scene)

	kind := s.coord.SetTemplate(decision.Template.String())
	target := EstimateZoom(kind, face, s.zoom.Zoom(), s.faceFill, s.zoom.GetConfig())
	if !smart.Activate(id, kind, target, now) {
		return decision, ErrSuperseded
	}

	s.logger.Info("smart compose started",
		"template", kind,
		"reason", decision.Reason,
		"category", scene.Category,
		"target_zoom", target,
	)
	return decision, nil
}

// CancelSmartCompose aborts smart compose and stops zooming.
func (s *Session) CancelSmartCompose() {
	s.coord.SmartCompose().Cancel()
	s.zoom.Release()
}

// CompleteSmartCompose ends an active smart compose session at the
// camera's request.
func (s *Session) CompleteSmartCompose() bool {
	ok := s.coord.SmartCompose().Complete()
	s.zoom.Release()
	return ok
}

// Reset clears all per-session memory.
func (s *Session) Reset() {
	s.coord.Reset()
	s.zoom.Reset()
	s.faces.Reset()
	s.mu.Lock()
	s.face = nil
	s.mu.Unlock()
}

// Info describes the session for the dashboard.
func (s *Session) Info() web.SessionInfo {
	info := web.SessionInfo{
		ID:           s.id,
		Template:     s.coord.Template(),
		ConnectedAt:  s.connectedAt,
		Frames:       s.frames.Load(),
		SmartCompose: s.coord.SmartCompose().Snapshot(),
		Zoom:         s.zoom.Status(),
		HasFace:      s.Face() != nil,
	}
	if last, ok := s.coord.Last(); ok {
		g := protocol.GuidanceFromOutput(last)
		info.Guidance = &g
		info.Phase = last.Phase
	}
	return info
}

// EstimateZoom returns the zoom at which the face fills the wanted share of
// the frame height. Portraits fill fill; other templates leave more room.
// Without a face the current zoom is kept.
func EstimateZoom(kind template.Kind, face *tracking.Face, current, fill float64, cfg camera.Config) float64 {
	if face == nil || face.Box.H <= 0 {
		return cfg.Clamp(current)
	}
	want := fill
	if kind != template.PortraitHeadroom {
		want = fill * 0.6
	}
	return cfg.Clamp(current * want / face.Box.H)
}
