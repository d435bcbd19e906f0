package ui

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	BadgeID string `json:"badge_id"`
}

// handleLogin exchanges a badge id for a bearer token, also set as a cookie
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !s.bindJSON(c, "handleLogin", &req) {
		return
	}

	result, err := s.svc.Auth.Login(c.Request.Context(), req.BadgeID)
	if err != nil {
		s.respondError(c, "handleLogin", err)
		return
	}

	maxAge := int(time.Until(result.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.opts.CookieName, result.Token, maxAge, "/", "", false, true)
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleLogout(c *gin.Context) {
	if err := s.svc.Auth.Logout(c.Request.Context(), s.token(c)); err != nil {
		s.respondError(c, "handleLogout", err)
		return
	}
	c.SetCookie(s.opts.CookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, identity(c))
}
