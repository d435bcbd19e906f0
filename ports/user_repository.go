package ports

import (
	"context"
	"time"

	"timestudy/models"

	"github.com/google/uuid"
)

// CompanyRepository defines the interface for tenant data operations
type CompanyRepository interface {
	// Create inserts a company
	Create(ctx context.Context, company *models.Company) error

	// GetByID retrieves a company by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)

	// DeleteAll removes every company and, through cascades, everything it owns
	DeleteAll(ctx context.Context) (int64, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByBadgeID retrieves a user by its globally unique badge
	GetByBadgeID(ctx context.Context, badgeID string) (*models.User, error)

	// GetWithAccess retrieves a user together with its granted processes
	GetWithAccess(ctx context.Context, id uuid.UUID) (*models.UserWithAccess, error)

	// ListByCompany returns the users of a company ordered by name
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.UserWithAccess, error)

	// Create inserts a user and its process grants atomically
	Create(ctx context.Context, user *models.User, processIDs []uuid.UUID) error

	// Update saves a user; when processIDs is non-nil the grants are replaced in the same transaction
	Update(ctx context.Context, user *models.User, processIDs []uuid.UUID) error

	// Delete removes a user
	Delete(ctx context.Context, id uuid.UUID) error
}

// AccessRepository defines the interface for operator process grants
type AccessRepository interface {
	// HasAccess reports whether the user holds a grant for the process
	HasAccess(ctx context.Context, userID, processID uuid.UUID) (bool, error)

	// ListProcessesForUser returns the processes granted to a user ordered by name
	ListProcessesForUser(ctx context.Context, userID uuid.UUID) ([]*models.Process, error)
}

// AuthSessionRepository defines the interface for issued bearer tokens
type AuthSessionRepository interface {
	Create(ctx context.Context, session *models.AuthSession) error
	Get(ctx context.Context, token string) (*models.AuthSession, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
