package ports

import (
	"context"
	"time"

	"timestudy/models"

	"github.com/google/uuid"
)

// SessionRepository defines the interface for timing session data operations
type SessionRepository interface {
	// CreateSession inserts a session and bumps the process tracking counter and
	// last-tracked time in one transaction
	CreateSession(ctx context.Context, session *models.TimingSession) error

	// GetSession retrieves a session owned by a user
	GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.TimingSession, error)

	// MarkCompleted moves an open session to completed
	MarkCompleted(ctx context.Context, sessionID uuid.UUID, at time.Time) error

	// MarkAbandoned moves open sessions started before cutoff to abandoned
	MarkAbandoned(ctx context.Context, cutoff, at time.Time) (int64, error)
}

// TimingRepository defines the interface for operation timing records
type TimingRepository interface {
	// Create inserts an open timing
	Create(ctx context.Context, timing *models.OperationTiming) error

	// FindOpen returns the most recently started open timing for (session, operation)
	FindOpen(ctx context.Context, sessionID, operationID uuid.UUID) (*models.OperationTiming, error)

	// FindLatestClosed returns the closed timing of a session with the latest end time,
	// ignoring excludeID
	FindLatestClosed(ctx context.Context, sessionID, excludeID uuid.UUID) (*models.OperationTiming, error)

	// Close sets end time, total and gap on a timing that is still open
	Close(ctx context.Context, timingID uuid.UUID, endTime time.Time, totalSeconds *float64, gapSeconds *int64) error

	// ListBySession returns the timings of a session ordered by start time
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.OperationTiming, error)
}

// ReportRepository defines the interface for report queries
type ReportRepository interface {
	// QueryTimings returns joined timing records ordered by session start descending,
	// then timing start ascending
	QueryTimings(ctx context.Context, filter models.ReportFilter) ([]models.TimingRecord, error)
}
