package composer

import (
	"sort"

	"github.com/teslashibe/go-compose/pkg/guidance"
	"github.com/teslashibe/go-compose/pkg/template"
	"github.com/teslashibe/go-compose/pkg/votes"
	"github.com/teslashibe/go-compose/pkg/web"
)

var _ web.Backend = (*App)(nil)

// Status implements web.Backend.
func (a *App) Status() web.Status {
	return web.Status{
		Cameras:         a.cameras.CameraCount(),
		FramesProcessed: a.frames.Load(),
		FramesDropped:   a.dropped.Load(),
		FaceDetection:   a.detector != nil,
	}
}

// Sessions implements web.Backend.
func (a *App) Sessions() []web.SessionInfo {
	a.mu.RLock()
	sessions := make([]*Session, 0, len(a.sessions))
	for _, s := range a.sessions {
		sessions = append(sessions, s)
	}
	a.mu.RUnlock()

	out := make([]web.SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Session implements web.Backend.
func (a *App) Session(id string) (web.SessionInfo, error) {
	s, err := a.lookup(id)
	if err != nil {
		return web.SessionInfo{}, err
	}
	return s.Info(), nil
}

// SetTemplate implements web.Backend.
func (a *App) SetTemplate(id, templateID string) (template.Kind, error) {
	s, err := a.lookup(id)
	if err != nil {
		return template.Other, err
	}
	return s.Coordinator().SetTemplate(templateID), nil
}

// StartSmartCompose implements web.Backend.
func (a *App) StartSmartCompose(id, suggestion string, confidence float64) (votes.Decision, error) {
	s, err := a.lookup(id)
	if err != nil {
		return votes.Decision{}, err
	}
	return s.StartSmartCompose(a.scorer, suggestion, confidence)
}

// CancelSmartCompose implements web.Backend.
func (a *App) CancelSmartCompose(id string) error {
	s, err := a.lookup(id)
	if err != nil {
		return err
	}
	s.CancelSmartCompose()
	return nil
}

// Tuning implements web.Backend.
func (a *App) Tuning() guidance.TuningParams {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config.Guidance.Params()
}

// SetTuning implements web.Backend. Parameters apply to every current
// session and to sessions created later.
func (a *App) SetTuning(p guidance.TuningParams) {
	a.mu.Lock()
	a.config.Guidance = p.Apply(a.config.Guidance)
	sessions := make([]*Session, 0, len(a.sessions))
	for _, s := range a.sessions {
		sessions = append(sessions, s)
	}
	a.mu.Unlock()

	for _, s := range sessions {
		s.Coordinator().SetTuningParams(p)
	}
	a.logger.Info("tuning updated", "sessions", len(sessions))
}
