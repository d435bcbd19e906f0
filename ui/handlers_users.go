package ui

import (
	"net/http"

	"timestudy/internal/auth"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.svc.Users.List(c.Request.Context(), identity(c))
	if err != nil {
		s.respondError(c, "handleListUsers", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) handleGetUser(c *gin.Context) {
	id, ok := s.uuidParam(c, "id")
	if !ok {
		return
	}
	user, err := s.svc.Users.Get(c.Request.Context(), identity(c), id)
	if err != nil {
		s.respondError(c, "handleGetUser", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var in auth.UserInput
	if !s.bindJSON(c, "handleCreateUser", &in) {
		return
	}
	user, err := s.svc.Users.Create(c.Request.Context(), identity(c), in)
	if err != nil {
		s.respondError(c, "handleCreateUser", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	id, ok := s.uuidParam(c, "id")
	if !ok {
		return
	}
	var in auth.UserInput
	if !s.bindJSON(c, "handleUpdateUser", &in) {
		return
	}
	user, err := s.svc.Users.Update(c.Request.Context(), identity(c), id, in)
	if err != nil {
		s.respondError(c, "handleUpdateUser", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	id, ok := s.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Users.Delete(c.Request.Context(), identity(c), id); err != nil {
		s.respondError(c, "handleDeleteUser", err)
		return
	}
	c.Status(http.StatusNoContent)
}
