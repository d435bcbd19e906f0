package postgres

import (
	"context"
	"time"

	"timestudy/models"
	"timestudy/ports"

	"github.com/jmoiron/sqlx"
)

// AuthSessionRepositoryImpl implements AuthSessionRepository
type AuthSessionRepositoryImpl struct {
	db *sqlx.DB
}

// NewAuthSessionRepository creates a new auth session repository
func NewAuthSessionRepository(db *sqlx.DB) ports.AuthSessionRepository {
	return &AuthSessionRepositoryImpl{db: db}
}

func (r *AuthSessionRepositoryImpl) Create(ctx context.Context, session *models.AuthSession) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO auth_sessions (token, user_id, expires_at, created_at)
		VALUES (:token, :user_id, :expires_at, :created_at)
	`, session)
	return translateError(err, "auth session")
}

func (r *AuthSessionRepositoryImpl) Get(ctx context.Context, token string) (*models.AuthSession, error) {
	var session models.AuthSession
	err := r.db.GetContext(ctx, &session, r.db.Rebind(`
		SELECT token, user_id, expires_at, created_at FROM auth_sessions WHERE token = ?
	`), token)
	if err != nil {
		return nil, translateError(err, "auth session")
	}
	return &session, nil
}

func (r *AuthSessionRepositoryImpl) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM auth_sessions WHERE token = ?`), token)
	return translateError(err, "auth session")
}

func (r *AuthSessionRepositoryImpl) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM auth_sessions WHERE expires_at < ?`), now.UTC())
	if err != nil {
		return 0, translateError(err, "auth session")
	}
	return res.RowsAffected()
}
