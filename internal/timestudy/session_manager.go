package timestudy

import (
	"context"
	"time"

	"timestudy/internal"
	"timestudy/internal/errors"
	"timestudy/models"
	"timestudy/ports"

	"github.com/google/uuid"
)

// Clock returns the current time
type Clock func() time.Time

// SystemClock is the wall clock in UTC
func SystemClock() time.Time {
	return time.Now().UTC()
}

// SessionManager opens timing sessions for operators
type SessionManager struct {
	access     ports.AccessRepository
	processes  ports.ProcessRepository
	operations ports.OperationRepository
	sessions   ports.SessionRepository
	now        Clock
	logger     *internal.Logger
}

// NewSessionManager creates a new session manager
func NewSessionManager(
	access ports.AccessRepository,
	processes ports.ProcessRepository,
	operations ports.OperationRepository,
	sessions ports.SessionRepository,
	now Clock,
) *SessionManager {
	if now == nil {
		now = SystemClock
	}
	return &SessionManager{
		access:     access,
		processes:  processes,
		operations: operations,
		sessions:   sessions,
		now:        now,
		logger:     internal.DefaultLogger.Named("SessionManager"),
	}
}

// CreateSession opens a session for the operator on a process it is granted. The grant
// is checked first so that an operator without access learns nothing about the process.
func (sm *SessionManager) CreateSession(ctx context.Context, who models.Identity, processID uuid.UUID) (*models.TimingSession, error) {
	ok, err := sm.access.HasAccess(ctx, who.UserID, processID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check process access")
	}
	if !ok {
		sm.logger.Warn("operator %s denied session on process %s", who.UserID, processID)
		return nil, errors.AccessDenied("no access to this process")
	}

	if _, err := sm.processes.GetByID(ctx, who.CompanyID, processID); err != nil {
		return nil, err
	}

	session := &models.TimingSession{
		UserID:    who.UserID,
		ProcessID: processID,
		StartedAt: sm.now(),
	}
	if err := sm.sessions.CreateSession(ctx, session); err != nil {
		return nil, errors.Wrap(err, "failed to create time study session")
	}

	sm.logger.Info("session %s opened by %s on process %s", session.ID, who.UserID, processID)
	return session, nil
}

// ProcessForTiming returns a granted process with its operations in sequence order
func (sm *SessionManager) ProcessForTiming(ctx context.Context, who models.Identity, processID uuid.UUID) (*models.ProcessDetail, error) {
	ok, err := sm.access.HasAccess(ctx, who.UserID, processID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check process access")
	}
	if !ok {
		return nil, errors.AccessDenied("no access to this process")
	}

	process, err := sm.processes.GetByID(ctx, who.CompanyID, processID)
	if err != nil {
		return nil, err
	}
	ops, err := sm.operations.ListByProcess(ctx, processID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load operations")
	}
	return &models.ProcessDetail{Process: *process, Operations: ops}, nil
}

// GrantedProcesses lists the processes an operator may time
func (sm *SessionManager) GrantedProcesses(ctx context.Context, who models.Identity) ([]*models.Process, error) {
	processes, err := sm.access.ListProcessesForUser(ctx, who.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list granted processes")
	}
	return processes, nil
}
