package web

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-compose/pkg/guidance"
	"github.com/teslashibe/go-compose/pkg/hub"
	"github.com/teslashibe/go-compose/pkg/protocol"
	"github.com/teslashibe/go-compose/pkg/template"
)

// TemplateInfo describes an available template
type TemplateInfo struct {
	ID    template.Kind `json:"id"`
	Label string        `json:"label"`
}

// TemplateRequest is the request body for switching templates
type TemplateRequest struct {
	Template string `json:"template"`
}

// handleStatus returns the process summary
func (s *Server) handleStatus(c *fiber.Ctx) error {
	st := s.backend.Status()
	st.Uptime = time.Since(s.started).Round(time.Second).String()
	st.Dashboards = s.guidanceHub.ClientCount() + s.logHub.ClientCount()
	return c.JSON(st)
}

// handleListTemplates returns the canonical templates in display order
func (s *Server) handleListTemplates(c *fiber.Ctx) error {
	kinds := template.All()
	out := make([]TemplateInfo, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, TemplateInfo{ID: k, Label: k.Label()})
	}
	return c.JSON(out)
}

// handleGetTuning returns the current tuning parameters
func (s *Server) handleGetTuning(c *fiber.Ctx) error {
	return c.JSON(s.backend.Tuning())
}

// handleSetTuning applies the non-zero fields of the body
func (s *Server) handleSetTuning(c *fiber.Ctx) error {
	var p guidance.TuningParams
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	s.backend.SetTuning(p)
	s.AddLog("info", "", "tuning updated")
	return c.JSON(s.backend.Tuning())
}

// handleGetLogs returns recent log entries
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	return c.JSON(s.Logs())
}

// handleListSessions returns every camera session
func (s *Server) handleListSessions(c *fiber.Ctx) error {
	sessions := s.backend.Sessions()
	return c.JSON(fiber.Map{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// handleGetSession returns one camera session
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	info, err := s.backend.Session(c.Params("id"))
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(info)
}

// handleSetTemplate switches a session's template
func (s *Server) handleSetTemplate(c *fiber.Ctx) error {
	id := c.Params("id")

	var req TemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	kind, err := s.backend.SetTemplate(id, req.Template)
	if err != nil {
		return sendError(c, err)
	}
	s.AddLog("template", id, "template set to "+kind.String())
	return c.JSON(fiber.Map{"template": kind, "supported": kind.Supported()})
}

// handleSmartCompose starts or cancels smart compose for a session
func (s *Server) handleSmartCompose(c *fiber.Ctx) error {
	id := c.Params("id")

	var req protocol.SmartComposeData
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	switch req.Action {
	case protocol.SmartComposeStart:
		decision, err := s.backend.StartSmartCompose(id, req.Suggestion, req.Confidence)
		if err != nil {
			return sendError(c, err)
		}
		s.AddLog("smart_compose", id, "started on "+decision.Template.String()+" ("+decision.Reason+")")
		return c.JSON(decision)
	case protocol.SmartComposeCancel:
		if err := s.backend.CancelSmartCompose(id); err != nil {
			return sendError(c, err)
		}
		s.AddLog("smart_compose", id, "cancelled")
		return c.JSON(fiber.Map{"status": "cancelled"})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown action: " + req.Action})
}

// sendError maps backend errors to HTTP statuses
func sendError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	if errors.Is(err, ErrSessionNotFound) {
		status = fiber.StatusNotFound
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// handleGuidanceWS streams guidance updates. ?camera=<id> scopes the stream.
func (s *Server) handleGuidanceWS(c *websocket.Conn) {
	hub.Serve(s.guidanceHub, c)
}

// handleLogsWS streams log entries
func (s *Server) handleLogsWS(c *websocket.Conn) {
	hub.Serve(s.logHub, c)
}
