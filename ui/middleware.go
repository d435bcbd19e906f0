package ui

import (
	"strings"

	"timestudy/internal/auth"
	"timestudy/internal/errors"
	"timestudy/models"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// requireAuth resolves the bearer token or session cookie to the caller's identity
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		who, err := s.svc.Auth.Resolve(c.Request.Context(), s.token(c))
		if err != nil {
			s.abortWithError(c, "requireAuth", err)
			return
		}
		c.Set(identityKey, who)
		c.Next()
	}
}

// requireCapability rejects callers whose role lacks capability
func (s *Server) requireCapability(capability auth.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		who := identity(c)
		if !auth.Allows(who.Role, capability) {
			s.abortWithError(c, "requireCapability", errors.AccessDenied("your role cannot perform this action"))
			return
		}
		c.Next()
	}
}

// token returns the bearer token of the request, falling back to the session cookie
func (s *Server) token(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(s.opts.CookieName); err == nil {
		return cookie
	}
	return ""
}

func identity(c *gin.Context) models.Identity {
	if v, ok := c.Get(identityKey); ok {
		if who, ok := v.(models.Identity); ok {
			return who
		}
	}
	return models.Identity{}
}
