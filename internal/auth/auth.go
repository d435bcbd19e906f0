package auth

import (
	"context"
	"strings"
	"time"

	"timestudy/internal"
	"timestudy/internal/errors"
	"timestudy/models"
	"timestudy/ports"

	"github.com/google/uuid"
)

// LoginResult is an issued bearer token and the user it identifies
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// Service signs users in by badge and resolves bearer tokens to identities
type Service struct {
	users  ports.UserRepository
	tokens ports.AuthSessionRepository
	ttl    time.Duration
	now    func() time.Time
	logger *internal.Logger
}

// NewService creates an auth service issuing tokens valid for ttl
func NewService(users ports.UserRepository, tokens ports.AuthSessionRepository, ttl time.Duration, now func() time.Time) *Service {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		users:  users,
		tokens: tokens,
		ttl:    ttl,
		now:    now,
		logger: internal.DefaultLogger.Named("Auth"),
	}
}

// Login issues a token for the holder of badgeID
func (s *Service) Login(ctx context.Context, badgeID string) (*LoginResult, error) {
	badgeID = strings.TrimSpace(badgeID)
	if badgeID == "" {
		return nil, errors.ValidationError("badge id is required")
	}

	user, err := s.users.GetByBadgeID(ctx, badgeID)
	if err != nil {
		if errors.IsNotFound(err) {
			s.logger.Warn("login rejected for unknown badge")
			return nil, errors.Unauthorized("invalid badge id")
		}
		return nil, errors.Wrap(err, "failed to look up badge")
	}

	now := s.now()
	session := &models.AuthSession{
		Token:     strings.ReplaceAll(uuid.NewString(), "-", ""),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.tokens.Create(ctx, session); err != nil {
		return nil, errors.Wrap(err, "failed to create auth session")
	}

	s.logger.Info("%s %s signed in", user.Role, user.ID)
	return &LoginResult{Token: session.Token, ExpiresAt: session.ExpiresAt, User: *user}, nil
}

// Logout revokes a token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.tokens.Delete(ctx, token); err != nil {
		return errors.Wrap(err, "failed to revoke auth session")
	}
	return nil
}

// Resolve maps a bearer token to the identity of its user
func (s *Service) Resolve(ctx context.Context, token string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, errors.Unauthorized("authentication required")
	}

	session, err := s.tokens.Get(ctx, token)
	if err != nil {
		if errors.IsNotFound(err) {
			return models.Identity{}, errors.Unauthorized("invalid or expired session")
		}
		return models.Identity{}, errors.Wrap(err, "failed to load auth session")
	}
	if !s.now().Before(session.ExpiresAt) {
		if err := s.tokens.Delete(ctx, token); err != nil {
			s.logger.Warn("failed to purge expired token: %v", err)
		}
		return models.Identity{}, errors.Unauthorized("invalid or expired session")
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.IsNotFound(err) {
			return models.Identity{}, errors.Unauthorized("invalid or expired session")
		}
		return models.Identity{}, errors.Wrap(err, "failed to load user")
	}

	return models.Identity{
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		Role:      user.Role,
		Name:      user.Name,
	}, nil
}
