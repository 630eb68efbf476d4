// ABOUTME: Periodic re-verification of end-user sessions against the API.
// ABOUTME: A session whose token no longer verifies is ended.

package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/2389/shopdesk/internal/session"
	"github.com/2389/shopdesk/internal/store"
)

// TokenVerifier checks an end-user token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) error
}

// Sessions is the session surface the verifier needs.
type Sessions interface {
	List(ctx context.Context, app store.App) ([]*session.Session, error)
	MarkVerified(ctx context.Context, id string) error
	End(ctx context.Context, id, reason string)
}

// Verifier keeps end-user sessions honest.
type Verifier struct {
	api      TokenVerifier
	sessions Sessions
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewVerifier creates a Verifier. Call Run to start the sweep.
func NewVerifier(api TokenVerifier, sessions Sessions, interval time.Duration, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Verifier{
		api:      api,
		sessions: sessions,
		interval: interval,
		logger:   logger.With("component", "verifier"),
		now:      time.Now,
	}
}

// Verify checks one session now. Any failure, including an unreachable
// API, ends the session and returns false.
func (v *Verifier) Verify(ctx context.Context, sess *session.Session) bool {
	if err := v.api.Verify(ctx, sess.Token); err != nil {
		if ctx.Err() != nil {
			return false
		}
		v.logger.Info("session failed verification", "username", sess.User.Username, "error", err)
		v.sessions.End(ctx, sess.ID, "verify_failed")
		return false
	}
	if err := v.sessions.MarkVerified(ctx, sess.ID); err != nil {
		v.logger.Warn("failed to record verification", "error", err)
	}
	return true
}

// Sweep verifies every end-user session not verified within the interval.
func (v *Verifier) Sweep(ctx context.Context) {
	sessions, err := v.sessions.List(ctx, store.AppUser)
	if err != nil {
		v.logger.Warn("listing sessions for verification failed", "error", err)
		return
	}
	cutoff := v.now().Add(-v.interval)
	for _, sess := range sessions {
		if ctx.Err() != nil {
			return
		}
		if sess.VerifiedAt.After(cutoff) {
			continue
		}
		v.Verify(ctx, sess)
	}
}

// Run sweeps every interval until ctx is done.
func (v *Verifier) Run(ctx context.Context) {
	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.Sweep(ctx)
		}
	}
}
