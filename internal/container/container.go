package container

import (
	"context"
	"fmt"
	"log"
	"strings"

	"timestudy/adapters/excel"
	"timestudy/adapters/postgres"
	"timestudy/internal/auth"
	"timestudy/internal/catalog"
	"timestudy/internal/config"
	"timestudy/internal/errors"
	"timestudy/internal/report"
	"timestudy/internal/timestudy"
	"timestudy/models"
	"timestudy/ports"
	"timestudy/ui"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB    *sqlx.DB
	Codec *excel.Codec

	// Repositories (data access layer)
	CompanyRepo   ports.CompanyRepository
	UserRepo      *postgres.UserRepositoryImpl
	AuthRepo      ports.AuthSessionRepository
	ProcessRepo   ports.ProcessRepository
	OperationRepo ports.OperationRepository
	SessionRepo   ports.SessionRepository
	TimingRepo    ports.TimingRepository
	ReportRepo    ports.ReportRepository

	// Services
	Auth           *auth.Service
	Users          *auth.UserService
	SessionManager *timestudy.SessionManager
	Recorder       *timestudy.Recorder
	Sweeper        *timestudy.Sweeper
	Catalog        *catalog.Service
	Reports        *report.Aggregator
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{Config: cfg}, nil
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db

	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.initRepositories()
	c.initServices()

	log.Printf("Container initialized successfully with %s database", db.DriverName())
	return nil
}

// initRepositories initializes data access repositories
func (c *Container) initRepositories() {
	c.CompanyRepo = postgres.NewCompanyRepository(c.DB)
	c.UserRepo = postgres.NewUserRepository(c.DB)
	c.AuthRepo = postgres.NewAuthSessionRepository(c.DB)
	c.ProcessRepo = postgres.NewProcessRepository(c.DB)
	c.OperationRepo = postgres.NewOperationRepository(c.DB)
	c.SessionRepo = postgres.NewSessionRepository(c.DB)
	c.TimingRepo = postgres.NewTimingRepository(c.DB)
	c.ReportRepo = postgres.NewReportRepository(c.DB)
}

// initServices wires the application services onto the repositories
func (c *Container) initServices() {
	c.Codec = excel.NewCodec()

	c.Auth = auth.NewService(c.UserRepo, c.AuthRepo, c.Config.Auth.SessionTTL, nil)
	c.Users = auth.NewUserService(c.UserRepo, c.ProcessRepo)
	c.SessionManager = timestudy.NewSessionManager(c.UserRepo, c.ProcessRepo, c.OperationRepo, c.SessionRepo, timestudy.SystemClock)
	c.Recorder = timestudy.NewRecorder(c.SessionRepo, c.TimingRepo, c.OperationRepo, timestudy.SystemClock)
	c.Sweeper = timestudy.NewSweeper(c.SessionRepo, c.AuthRepo, c.Config.Sessions.AbandonAfter, timestudy.SystemClock)
	c.Catalog = catalog.NewService(c.ProcessRepo, c.OperationRepo, c.Codec)
	c.Reports = report.NewAggregator(c.ReportRepo, c.ProcessRepo, c.Codec, c.Config.Report.Location)
}

// Server builds the HTTP API on the container's services
func (c *Container) Server() *ui.Server {
	return ui.NewServer(ui.Services{
		Auth:     c.Auth,
		Users:    c.Users,
		Sessions: c.SessionManager,
		Recorder: c.Recorder,
		Catalog:  c.Catalog,
		Reports:  c.Reports,
	}, ui.Options{
		CookieName:     c.Config.Auth.CookieName,
		MaxUploadBytes: c.Config.Upload.MaxBytes,
	})
}

// SeedAdmins recreates one company and admin per badge
func (c *Container) SeedAdmins(ctx context.Context, badges []string) (*auth.SeedResult, error) {
	return auth.SeedAdmins(ctx, c.CompanyRepo, c.UserRepo, badges)
}

// ImportAs imports an operation sheet on behalf of the admin holding adminBadge
func (c *Container) ImportAs(ctx context.Context, adminBadge string, data []byte, processName string) (*catalog.ImportResult, error) {
	admin, err := c.UserRepo.GetByBadgeID(ctx, strings.TrimSpace(adminBadge))
	if err != nil {
		return nil, err
	}
	if admin.Role != models.RoleAdmin {
		return nil, errors.AccessDenied("only admins can import processes")
	}
	who := models.Identity{UserID: admin.ID, CompanyID: admin.CompanyID, Role: admin.Role, Name: admin.Name}
	return c.Catalog.Import(ctx, who, data, processName)
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
