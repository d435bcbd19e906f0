package timestudy

import (
	"context"
	"time"

	"timestudy/internal"
	"timestudy/internal/errors"
	"timestudy/ports"
)

// SweepResult counts what one sweep cleaned up
type SweepResult struct {
	AbandonedSessions int64 `json:"abandoned_sessions"`
	ExpiredTokens     int64 `json:"expired_tokens"`
}

// Sweeper marks stale open sessions abandoned and purges expired auth tokens
type Sweeper struct {
	sessions     ports.SessionRepository
	tokens       ports.AuthSessionRepository
	abandonAfter time.Duration
	now          Clock
	logger       *internal.Logger
}

// NewSweeper creates a sweeper that abandons sessions open longer than abandonAfter
func NewSweeper(sessions ports.SessionRepository, tokens ports.AuthSessionRepository, abandonAfter time.Duration, now Clock) *Sweeper {
	if now == nil {
		now = SystemClock
	}
	return &Sweeper{
		sessions:     sessions,
		tokens:       tokens,
		abandonAfter: abandonAfter,
		now:          now,
		logger:       internal.DefaultLogger.Named("Sweeper"),
	}
}

// Sweep runs one cleanup pass
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	now := s.now()

	n, err := s.sessions.MarkAbandoned(ctx, now.Add(-s.abandonAfter), now)
	if err != nil {
		return result, errors.Wrap(err, "failed to abandon stale sessions")
	}
	result.AbandonedSessions = n

	n, err = s.tokens.DeleteExpired(ctx, now)
	if err != nil {
		return result, errors.Wrap(err, "failed to purge expired tokens")
	}
	result.ExpiredTokens = n

	if result.AbandonedSessions > 0 || result.ExpiredTokens > 0 {
		s.logger.Info("abandoned %d sessions, purged %d tokens", result.AbandonedSessions, result.ExpiredTokens)
	}
	return result, nil
}

// Run sweeps every interval until ctx is cancelled
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweep failed: %v", err)
			}
		}
	}
}
