package postgres

import (
	"context"
	"time"

	"timestudy/models"
	"timestudy/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SessionRepositoryImpl implements SessionRepository
type SessionRepositoryImpl struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new timing session repository
func NewSessionRepository(db *sqlx.DB) ports.SessionRepository {
	return &SessionRepositoryImpl{db: db}
}

// CreateSession inserts the session and bumps the process tracking counters in one transaction
func (r *SessionRepositoryImpl) CreateSession(ctx context.Context, session *models.TimingSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}
	session.Status = models.SessionStatusOpen

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO time_study_sessions (id, user_id, process_id, status, started_at)
			VALUES (?, ?, ?, ?, ?)
		`), session.ID, session.UserID, session.ProcessID, session.Status, session.StartedAt.UTC())
		if err != nil {
			return translateError(err, "time study session")
		}

		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE processes SET tracking_count = tracking_count + 1, last_tracked_at = ? WHERE id = ?
		`), session.StartedAt.UTC(), session.ProcessID)
		if err != nil {
			return translateError(err, "process")
		}
		return expectAffected(res, "process")
	})
}

// GetSession retrieves a session owned by a user
func (r *SessionRepositoryImpl) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.TimingSession, error) {
	var session models.TimingSession
	err := r.db.GetContext(ctx, &session, r.db.Rebind(`
		SELECT id, user_id, process_id, status, started_at, completed_at
		FROM time_study_sessions WHERE id = ? AND user_id = ?
	`), sessionID, userID)
	if err != nil {
		return nil, translateError(err, "time study session")
	}
	return &session, nil
}

// MarkCompleted moves an open session to completed; other states are left untouched
func (r *SessionRepositoryImpl) MarkCompleted(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE time_study_sessions SET status = ?, completed_at = ? WHERE id = ? AND status = ?
	`), models.SessionStatusCompleted, at.UTC(), sessionID, models.SessionStatusOpen)
	return translateError(err, "time study session")
}

// MarkAbandoned moves open sessions started before cutoff to abandoned
func (r *SessionRepositoryImpl) MarkAbandoned(ctx context.Context, cutoff, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE time_study_sessions SET status = ?, completed_at = ? WHERE status = ? AND started_at < ?
	`), models.SessionStatusAbandoned, at.UTC(), models.SessionStatusOpen, cutoff.UTC())
	if err != nil {
		return 0, translateError(err, "time study session")
	}
	return res.RowsAffected()
}
