// Package server exposes the simulator service over HTTP: a JSON API for
// session lifecycle, request submission, and decisions, plus a websocket
// stream that replays a session's history and then follows it live.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simdeck/simdeck/sim"
)

// Server carries the handlers' shared dependencies.
type Server struct {
	l   *slog.Logger
	svc *sim.Service
}

func New(l *slog.Logger, svc *sim.Service) *Server {
	return &Server{l: l, svc: svc}
}

// Routes registers every endpoint on g.
func (s *Server) Routes(g *gin.Engine) {
	g.GET("/healthz", s.health)

	v1 := g.Group("/v1")
	v1.POST("/sessions", s.createSession)
	v1.GET("/sessions", s.listSessions)
	v1.GET("/sessions/:id", s.getSession)
	v1.DELETE("/sessions/:id", s.closeSession)
	v1.POST("/sessions/:id/requests", s.submitRequest)
	v1.GET("/sessions/:id/requests/current", s.currentRequest)
	v1.POST("/sessions/:id/decisions", s.submitDecision)
	v1.GET("/sessions/:id/events", s.events)
	v1.GET("/sessions/:id/stream", s.stream)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type createSessionRequest struct {
	AgentName   string `json:"agent_name"`
	Description string `json:"description"`
}

func (s *Server) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, sim.NewError(sim.ErrorKindInvalid, "malformed session body: %v", err))
		return
	}

	sess, err := s.svc.CreateSession(c.Request.Context(), req.AgentName, req.Description)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (s *Server) listSessions(c *gin.Context) {
	sessions, err := s.svc.ListSessions(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	if sessions == nil {
		sessions = []*sim.Session{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (s *Server) getSession(c *gin.Context) {
	sess, err := s.svc.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) closeSession(c *gin.Context) {
	sess, err := s.svc.CloseSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

type submitRequestBody struct {
	AgentName string          `json:"agent_name"`
	Payload   json.RawMessage `json:"payload"`
}

func (s *Server) submitRequest(c *gin.Context) {
	var body submitRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.writeError(c, sim.NewError(sim.ErrorKindInvalid, "malformed request body: %v", err))
		return
	}

	req, err := s.svc.SubmitRequest(c.Request.Context(), c.Param("id"), body.AgentName, body.Payload)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, req)
}

func (s *Server) currentRequest(c *gin.Context) {
	req, err := s.svc.CurrentRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (s *Server) submitDecision(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		s.writeError(c, sim.NewError(sim.ErrorKindInvalid, "malformed decision body: %v", err))
		return
	}

	decision, err := sim.DecodeDecision(raw)
	if err != nil {
		s.writeError(c, err)
		return
	}

	event, err := s.svc.SubmitDecision(c.Request.Context(), c.Param("id"), decision)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (s *Server) events(c *gin.Context) {
	events, err := s.svc.Events(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if events == nil {
		events = []*sim.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// writeError maps a sim.Error kind onto an HTTP status and returns the error
// body verbatim. Anything else is an opaque 500.
func (s *Server) writeError(c *gin.Context, err error) {
	var simErr *sim.Error
	if errors.As(err, &simErr) {
		c.JSON(statusFor(simErr.Kind), gin.H{"error": simErr})
		return
	}

	s.l.Error("request failed",
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": sim.NewError(sim.ErrorKindUnavailable, "internal error"),
	})
}

func statusFor(kind sim.ErrorKind) int {
	switch kind {
	case sim.ErrorKindInvalid:
		return http.StatusBadRequest
	case sim.ErrorKindNotFound:
		return http.StatusNotFound
	case sim.ErrorKindConflict:
		return http.StatusConflict
	case sim.ErrorKindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
