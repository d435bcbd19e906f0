package ui

import (
	"net/http"

	"timestudy/internal/timestudy"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) handleGrantedProcesses(c *gin.Context) {
	processes, err := s.svc.Sessions.GrantedProcesses(c.Request.Context(), identity(c))
	if err != nil {
		s.respondError(c, "handleGrantedProcesses", err)
		return
	}
	c.JSON(http.StatusOK, processes)
}

func (s *Server) handleProcessForTiming(c *gin.Context) {
	processID, ok := s.uuidParam(c, "id")
	if !ok {
		return
	}
	detail, err := s.svc.Sessions.ProcessForTiming(c.Request.Context(), identity(c), processID)
	if err != nil {
		s.respondError(c, "handleProcessForTiming", err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type createSessionRequest struct {
	ProcessID uuid.UUID `json:"process_id" binding:"required"`
}

// handleCreateSession opens a timing session on a granted process
func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if !s.bindJSON(c, "handleCreateSession", &req) {
		return
	}
	session, err := s.svc.Sessions.CreateSession(c.Request.Context(), identity(c), req.ProcessID)
	if err != nil {
		s.respondError(c, "handleCreateSession", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": session.ID})
}

func (s *Server) handleStartOperation(c *gin.Context) {
	var req timestudy.StartRequest
	if !s.bindJSON(c, "handleStartOperation", &req) {
		return
	}
	timing, err := s.svc.Recorder.Start(c.Request.Context(), identity(c), req)
	if err != nil {
		s.respondError(c, "handleStartOperation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timing_id": timing.ID})
}

func (s *Server) handleEndOperation(c *gin.Context) {
	var req timestudy.EndRequest
	if !s.bindJSON(c, "handleEndOperation", &req) {
		return
	}
	timing, err := s.svc.Recorder.End(c.Request.Context(), identity(c), req)
	if err != nil {
		s.respondError(c, "handleEndOperation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timing_id": timing.ID})
}
