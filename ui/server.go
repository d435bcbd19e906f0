package ui

import (
	"net/http"

	"timestudy/internal/auth"
	"timestudy/internal/catalog"
	"timestudy/internal/report"
	"timestudy/internal/timestudy"

	"github.com/gin-gonic/gin"
)

// Services are the application services the HTTP surface delegates to
type Services struct {
	Auth     *auth.Service
	Users    *auth.UserService
	Sessions *timestudy.SessionManager
	Recorder *timestudy.Recorder
	Catalog  *catalog.Service
	Reports  *report.Aggregator
}

// Options tune request handling
type Options struct {
	CookieName     string
	MaxUploadBytes int64
}

// Server is the JSON API of the time study tracker
type Server struct {
	router *gin.Engine
	svc    Services
	opts   Options
}

// NewServer creates the API server and registers its routes
func NewServer(svc Services, opts Options) *Server {
	if opts.CookieName == "" {
		opts.CookieName = "ts_session"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 * 1024 * 1024
	}

	s := &Server{
		router: gin.New(),
		svc:    svc,
		opts:   opts,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler exposes the router for use in an http.Server
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Logger(), gin.Recovery())
	s.router.MaxMultipartMemory = s.opts.MaxUploadBytes
}

// setupRoutes configures the API routes, grouped by the capability they require
func (s *Server) setupRoutes() {
	api := s.router.Group("/api")

	api.POST("/auth/login", s.handleLogin)
	api.POST("/auth/logout", s.handleLogout)

	authed := api.Group("", s.requireAuth())
	authed.GET("/me", s.handleMe)

	operator := authed.Group("")
	operator.GET("/operator/processes", s.requireCapability(auth.CapListGrantedProcesses), s.handleGrantedProcesses)
	operator.GET("/operator/processes/:id", s.requireCapability(auth.CapListGrantedProcesses), s.handleProcessForTiming)

	timing := authed.Group("/time-study", s.requireCapability(auth.CapRecordTimings))
	timing.POST("/sessions", s.handleCreateSession)
	timing.POST("/operations/start", s.handleStartOperation)
	timing.POST("/operations/end", s.handleEndOperation)

	users := authed.Group("/users", s.requireCapability(auth.CapManageUsers))
	users.GET("", s.handleListUsers)
	users.POST("", s.handleCreateUser)
	users.GET("/:id", s.handleGetUser)
	users.PUT("/:id", s.handleUpdateUser)
	users.DELETE("/:id", s.handleDeleteUser)

	processes := authed.Group("/processes", s.requireCapability(auth.CapManageProcesses))
	processes.GET("", s.handleListProcesses)
	processes.GET("/check-name", s.handleCheckProcessName)
	processes.POST("/import", s.handleImportProcess)
	processes.POST("/extract-name", s.handleExtractProcessName)
	processes.GET("/:id", s.handleGetProcess)
	processes.DELETE("/:id", s.handleDeleteProcess)
	processes.POST("/:id/replace", s.handleReplaceOperations)
	processes.GET("/:id/operations", s.handleListOperations)
	processes.POST("/:id/operations", s.handleCreateOperation)
	processes.GET("/:id/operations/:operationId", s.handleGetOperation)
	processes.PUT("/:id/operations/:operationId", s.handleUpdateOperation)
	processes.DELETE("/:id/operations/:operationId", s.handleDeleteOperation)
	processes.GET("/:id/export", s.requireCapability(auth.CapViewReports), s.handleExportProcess)

	reports := authed.Group("/reports", s.requireCapability(auth.CapViewReports))
	reports.GET("/time-study-data", s.handleReportRows)
	reports.GET("/export", s.handleReportExport)
	reports.GET("/summary", s.handleReportSummary)
}
