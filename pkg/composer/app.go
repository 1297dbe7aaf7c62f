package composer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-compose/internal/httpc"
	"github.com/teslashibe/go-compose/pkg/cloud"
	"github.com/teslashibe/go-compose/pkg/protocol"
	"github.com/teslashibe/go-compose/pkg/smartcompose"
	"github.com/teslashibe/go-compose/pkg/tracking/detection"
	"github.com/teslashibe/go-compose/pkg/votes"
	"github.com/teslashibe/go-compose/pkg/web"
)

// App is the composer service orchestrator.
// It manages all components and their lifecycle.
type App struct {
	config Config
	logger *slog.Logger

	// Camera connections and dashboard
	cameras   *cloud.Hub
	webServer *web.Server

	// Shared by every session
	detector detection.Detector
	scorer   *votes.Scorer

	mu       sync.RWMutex
	sessions map[string]*Session

	frames  atomic.Uint64
	dropped atomic.Uint64
}

// New creates a composer with the given configuration.
func New(cfg Config, logger *slog.Logger) (*App, error) {
	// Apply environment overrides
	cfg.LoadEnvConfig()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &App{
		config:   cfg,
		logger:   logger,
		scorer:   votes.NewScorer(cfg.Votes),
		sessions: make(map[string]*Session),
	}, nil
}

// Init initializes all components.
// Call this after New() and before Run().
func (a *App) Init() error {
	a.logger.Info("composition guidance engine", "port", a.config.Port)
	if a.config.Debug {
		a.logger.Debug("debug mode enabled")
	}

	if a.config.FaceModel != "" {
		faces := a.config.Faces
		faces.ModelPath = a.config.FaceModel
		d, err := a.openDetector(faces)
		if err != nil {
			a.logger.Warn("face detection disabled", "error", err)
		} else {
			a.detector = d
			a.logger.Info("face detection enabled", "model", faces.ModelPath)
		}
	}

	a.cameras = cloud.NewHub(a.logger.With("component", "cameras"))
	a.webServer = web.NewServer(a.config.Port, a.config.StaticDir, a, a.logger.With("component", "web"))

	a.cameras.RegisterRoutes(a.webServer.App())
	a.cameras.RegisterAPIRoutes(a.webServer.App().Group("/api"))

	a.cameras.OnFrame(a.handleFrame)
	a.cameras.OnTemplate(a.handleTemplate)
	a.cameras.OnSmartCompose(a.handleSmartCompose)
	a.cameras.OnReset(a.handleReset)
	a.cameras.OnDisconnect(a.handleDisconnect)

	return nil
}

// openDetector loads the face model, fetching it into the user cache
// first when it is given as a URL.
func (a *App) openDetector(cfg detection.Config) (detection.Detector, error) {
	if httpc.IsURL(cfg.ModelPath) {
		ctx, cancel := context.WithTimeout(context.Background(), httpc.DefaultTimeout)
		defer cancel()
		p, err := httpc.Fetch(ctx, httpc.Client, cfg.ModelPath, httpc.CacheDir("go-compose"))
		if err != nil {
			return nil, err
		}
		cfg.ModelPath = p
	}
	d, err := detection.NewYuNet(cfg)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Run serves cameras and dashboards.
// Blocks until context is cancelled or the listener fails.
func (a *App) Run(ctx context.Context) error {
	if a.webServer == nil {
		return fmt.Errorf("composer: Run called before Init")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.webServer.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return a.webServer.Shutdown()
	})

	a.webServer.AddLog("info", "", "composer started")
	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// Shutdown releases shared resources.
func (a *App) Shutdown() {
	a.logger.Info("shutting down")

	a.mu.Lock()
	for _, s := range a.sessions {
		s.CancelSmartCompose()
	}
	a.sessions = make(map[string]*Session)
	a.mu.Unlock()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			a.logger.Warn("close face detector", "error", err)
		}
	}
}

// Cameras returns the camera hub.
func (a *App) Cameras() *cloud.Hub {
	return a.cameras
}

// WebServer returns the dashboard server.
func (a *App) WebServer() *web.Server {
	return a.webServer
}

// session returns the session for cameraID, creating it on first use.
func (a *App) session(cameraID string) *Session {
	a.mu.RLock()
	s, ok := a.sessions[cameraID]
	a.mu.RUnlock()
	if ok {
		return s
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.sessions[cameraID]; ok {
		return s
	}

	s = NewSession(cameraID, a.config, a.detector, a.logger)
	s.Zoom().OnZoomChange = func(zoom float64) error {
		snap := s.Coordinator().SmartCompose().Snapshot()
		return a.cameras.SendZoom(cameraID, smartcompose.ZoomCommand{
			RequestID: snap.RequestID,
			Template:  snap.Template,
			Zoom:      zoom,
			At:        time.Now(),
		})
	}
	s.Coordinator().SmartCompose().OnTransition(func(tr smartcompose.Transition) {
		msg := fmt.Sprintf("%s -> %s", tr.From, tr.To)
		if tr.Reason != "" {
			msg += " (" + tr.Reason + ")"
		}
		a.webServer.AddLog("smart_compose", cameraID, msg)
	})
	a.sessions[cameraID] = s
	a.logger.Info("session created", "camera", cameraID)
	return s
}

// lookup returns an existing session.
func (a *App) lookup(cameraID string) (*Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.sessions[cameraID]
	if !ok {
		return nil, fmt.Errorf("camera %s: %w", cameraID, web.ErrSessionNotFound)
	}
	return s, nil
}

func (a *App) handleFrame(cameraID string, ts time.Time, fd *protocol.FrameData) {
	s := a.session(cameraID)
	out, ok, err := s.Process(ts, fd)
	if err != nil {
		a.dropped.Add(1)
		a.logger.Debug("bad frame", "camera", cameraID, "error", err)
		a.cameras.SendError(cameraID, protocol.ErrCodeBadFrame, err.Error())
		return
	}
	if !ok {
		a.dropped.Add(1)
		return
	}
	a.frames.Add(1)

	if err := a.cameras.SendGuidance(cameraID, out); err != nil {
		a.logger.Debug("send guidance failed", "camera", cameraID, "error", err)
	}
	if out.Reacquire != nil {
		a.cameras.SendReacquire(cameraID, protocol.ReacquireData{Point: *out.Reacquire})
		a.webServer.AddLog("info", cameraID, "subject lost, reacquire requested")
	}
	a.webServer.PublishGuidance(cameraID, out)
}

func (a *App) handleTemplate(cameraID string, tmpl *protocol.TemplateData) {
	kind := a.session(cameraID).Coordinator().SetTemplate(tmpl.Template)
	a.webServer.AddLog("template", cameraID, "template set to "+kind.String())
}

func (a *App) handleSmartCompose(cameraID string, sc *protocol.SmartComposeData) {
	s := a.session(cameraID)
	switch sc.Action {
	case protocol.SmartComposeStart:
		d, err := s.StartSmartCompose(a.scorer, sc.Suggestion, sc.Confidence)
		if err != nil {
			a.cameras.SendError(cameraID, protocol.ErrCodeBusy, err.Error())
			return
		}
		a.webServer.AddLog("smart_compose", cameraID, "started on "+d.Template.String()+" ("+d.Reason+")")
	case protocol.SmartComposeCancel:
		s.CancelSmartCompose()
	case protocol.SmartComposeComplete:
		s.CompleteSmartCompose()
	default:
		a.cameras.SendError(cameraID, protocol.ErrCodeBadMessage, "unknown smart compose action: "+sc.Action)
	}
}

func (a *App) handleReset(cameraID string) {
	a.session(cameraID).Reset()
	a.webServer.AddLog("info", cameraID, "session reset")
}

func (a *App) handleDisconnect(cameraID string) {
	a.mu.Lock()
	s, ok := a.sessions[cameraID]
	delete(a.sessions, cameraID)
	a.mu.Unlock()

	if ok {
		s.CancelSmartCompose()
		a.logger.Info("session closed", "camera", cameraID, "frames", s.frames.Load())
	}
}
