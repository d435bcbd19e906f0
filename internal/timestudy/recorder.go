package timestudy

import (
	"context"
	"math"
	"time"

	"timestudy/internal"
	"timestudy/internal/errors"
	"timestudy/models"
	"timestudy/ports"

	"github.com/google/uuid"
)

// StartRequest opens a timing. A nil StartTime means now.
type StartRequest struct {
	SessionID   uuid.UUID  `json:"session_id" binding:"required"`
	OperationID uuid.UUID  `json:"operation_id" binding:"required"`
	StartTime   *time.Time `json:"start_time"`
}

// EndRequest closes the open timing of an operation. A nil EndTime means now; a nil
// TotalTimeSeconds is stored as absent.
type EndRequest struct {
	SessionID        uuid.UUID  `json:"session_id" binding:"required"`
	OperationID      uuid.UUID  `json:"operation_id" binding:"required"`
	EndTime          *time.Time `json:"end_time"`
	TotalTimeSeconds *float64   `json:"total_time_seconds"`
}

// Recorder opens and closes operation timings within a session
type Recorder struct {
	sessions   ports.SessionRepository
	timings    ports.TimingRepository
	operations ports.OperationRepository
	now        Clock
	logger     *internal.Logger
}

// NewRecorder creates a new timing recorder
func NewRecorder(sessions ports.SessionRepository, timings ports.TimingRepository, operations ports.OperationRepository, now Clock) *Recorder {
	if now == nil {
		now = SystemClock
	}
	return &Recorder{
		sessions:   sessions,
		timings:    timings,
		operations: operations,
		now:        now,
		logger:     internal.DefaultLogger.Named("TimingRecorder"),
	}
}

// Start opens a timing for an operation of the session's process
func (r *Recorder) Start(ctx context.Context, who models.Identity, req StartRequest) (*models.OperationTiming, error) {
	session, err := r.sessions.GetSession(ctx, who.UserID, req.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusOpen {
		return nil, errors.Conflict("time study session is " + string(session.Status))
	}

	if _, err := r.operations.GetByID(ctx, session.ProcessID, req.OperationID); err != nil {
		return nil, err
	}

	open, err := r.timings.FindOpen(ctx, session.ID, req.OperationID)
	switch {
	case err == nil:
		r.logger.Warn("session %s already timing operation %s (timing %s)", session.ID, req.OperationID, open.ID)
		return nil, errors.Conflict("operation is already being timed")
	case !errors.IsNotFound(err):
		return nil, errors.Wrap(err, "failed to look up open timing")
	}

	timing := &models.OperationTiming{
		SessionID:   session.ID,
		OperationID: req.OperationID,
		StartTime:   r.timeOrNow(req.StartTime),
	}
	if err := r.timings.Create(ctx, timing); err != nil {
		if errors.IsConflict(err) {
			return nil, errors.Conflict("operation is already being timed")
		}
		return nil, errors.Wrap(err, "failed to start operation timing")
	}

	r.logger.Debug("timing %s started for operation %s in session %s", timing.ID, req.OperationID, session.ID)
	return timing, nil
}

// End closes the most recently started open timing of the operation. The gap since the
// previously closed timing of the session is read before this timing is closed.
// Ending the last operation of the process completes the session.
func (r *Recorder) End(ctx context.Context, who models.Identity, req EndRequest) (*models.OperationTiming, error) {
	if req.TotalTimeSeconds != nil && (*req.TotalTimeSeconds < 0 || math.IsNaN(*req.TotalTimeSeconds)) {
		return nil, errors.ValidationError("total time must not be negative")
	}

	session, err := r.sessions.GetSession(ctx, who.UserID, req.SessionID)
	if err != nil {
		return nil, err
	}

	open, err := r.timings.FindOpen(ctx, session.ID, req.OperationID)
	if err != nil {
		return nil, err
	}

	endTime := r.timeOrNow(req.EndTime)
	if endTime.Before(open.StartTime) {
		return nil, errors.ValidationError("end time is before start time")
	}

	var gap *int64
	previous, err := r.timings.FindLatestClosed(ctx, session.ID, open.ID)
	switch {
	case err == nil:
		g := GapSeconds(previous.EndTime, open.StartTime)
		gap = &g
	case !errors.IsNotFound(err):
		return nil, errors.Wrap(err, "failed to look up previous timing")
	}

	if err := r.timings.Close(ctx, open.ID, endTime, req.TotalTimeSeconds, gap); err != nil {
		return nil, errors.Wrap(err, "failed to end operation timing")
	}

	open.EndTime = &endTime
	open.TotalTimeSeconds = req.TotalTimeSeconds
	open.TimeBetweenOperationsSeconds = gap

	r.completeIfLast(ctx, session, req.OperationID, endTime)
	return open, nil
}

// completeIfLast marks the session completed when the ended operation is the last in
// sequence. The timing is already closed, so failures here are only logged.
func (r *Recorder) completeIfLast(ctx context.Context, session *models.TimingSession, operationID uuid.UUID, at time.Time) {
	op, err := r.operations.GetByID(ctx, session.ProcessID, operationID)
	if err != nil {
		r.logger.Warn("session %s: operation %s lookup failed: %v", session.ID, operationID, err)
		return
	}
	last, err := r.operations.LastSequence(ctx, session.ProcessID)
	if err != nil {
		r.logger.Warn("session %s: last sequence lookup failed: %v", session.ID, err)
		return
	}
	if op.SequenceNumber != last {
		return
	}
	if err := r.sessions.MarkCompleted(ctx, session.ID, at); err != nil {
		r.logger.Error("session %s: failed to mark completed: %v", session.ID, err)
		return
	}
	r.logger.Info("session %s completed", session.ID)
}

func (r *Recorder) timeOrNow(t *time.Time) time.Time {
	if t == nil {
		return r.now()
	}
	return t.UTC()
}

// GapSeconds is the idle time between the end of one timing and the start of the next,
// floored to whole seconds
func GapSeconds(previousEnd *time.Time, start time.Time) int64 {
	ms := start.Sub(*previousEnd).Milliseconds()
	return int64(math.Floor(float64(ms) / 1000))
}
