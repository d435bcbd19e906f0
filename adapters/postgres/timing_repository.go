package postgres

import (
	"context"
	"time"

	"timestudy/models"
	"timestudy/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const timingColumns = `id, session_id, operation_id, start_time, end_time, total_time_seconds,
	time_between_operations_seconds`

// TimingRepositoryImpl implements TimingRepository
type TimingRepositoryImpl struct {
	db *sqlx.DB
}

// NewTimingRepository creates a new operation timing repository
func NewTimingRepository(db *sqlx.DB) ports.TimingRepository {
	return &TimingRepositoryImpl{db: db}
}

func (r *TimingRepositoryImpl) Create(ctx context.Context, timing *models.OperationTiming) error {
	if timing.ID == uuid.Nil {
		timing.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO operation_timings (id, session_id, operation_id, start_time)
		VALUES (?, ?, ?, ?)
	`), timing.ID, timing.SessionID, timing.OperationID, timing.StartTime.UTC())
	return translateError(err, "operation timing")
}

func (r *TimingRepositoryImpl) FindOpen(ctx context.Context, sessionID, operationID uuid.UUID) (*models.OperationTiming, error) {
	var timing models.OperationTiming
	err := r.db.GetContext(ctx, &timing, r.db.Rebind(`
		SELECT `+timingColumns+` FROM operation_timings
		WHERE session_id = ? AND operation_id = ? AND end_time IS NULL
		ORDER BY start_time DESC
		LIMIT 1
	`), sessionID, operationID)
	if err != nil {
		return nil, translateError(err, "open operation timing")
	}
	return &timing, nil
}

func (r *TimingRepositoryImpl) FindLatestClosed(ctx context.Context, sessionID, excludeID uuid.UUID) (*models.OperationTiming, error) {
	var timing models.OperationTiming
	err := r.db.GetContext(ctx, &timing, r.db.Rebind(`
		SELECT `+timingColumns+` FROM operation_timings
		WHERE session_id = ? AND id <> ? AND end_time IS NOT NULL
		ORDER BY end_time DESC
		LIMIT 1
	`), sessionID, excludeID)
	if err != nil {
		return nil, translateError(err, "previous operation timing")
	}
	return &timing, nil
}

// Close only touches a timing that is still open, so a closed record is never rewritten
func (r *TimingRepositoryImpl) Close(ctx context.Context, timingID uuid.UUID, endTime time.Time, totalSeconds *float64, gapSeconds *int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE operation_timings
		SET end_time = ?, total_time_seconds = ?, time_between_operations_seconds = ?
		WHERE id = ? AND end_time IS NULL
	`), endTime.UTC(), totalSeconds, gapSeconds, timingID)
	if err != nil {
		return translateError(err, "operation timing")
	}
	return expectAffected(res, "open operation timing")
}

func (r *TimingRepositoryImpl) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.OperationTiming, error) {
	timings := []models.OperationTiming{}
	err := r.db.SelectContext(ctx, &timings, r.db.Rebind(`
		SELECT `+timingColumns+` FROM operation_timings WHERE session_id = ? ORDER BY start_time ASC
	`), sessionID)
	if err != nil {
		return nil, translateError(err, "operation timing")
	}
	return timings, nil
}
