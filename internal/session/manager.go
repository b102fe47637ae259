package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Manager opens, resolves and closes sessions keyed by access token.
type Manager struct {
	store    Store
	verifier *TokenVerifier
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewManager creates a session manager.
func NewManager(store Store, verifier *TokenVerifier, ttl time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:    store,
		verifier: verifier,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// IDForToken derives the session ID for an access token.
func IDForToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:16])
}

// Open stores a session for a freshly issued token. The session expires at
// the earlier of the configured TTL and the token's own expiry.
func (m *Manager) Open(ctx context.Context, token string, user domain.User) (*domain.Session, error) {
	claims, err := m.verifier.Verify(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	now := m.now().UTC()
	expires := now.Add(m.ttl)
	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(expires) {
		expires = claims.ExpiresAt.Time.UTC()
	}

	s := &domain.Session{
		ID:        IDForToken(token),
		User:      user,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: expires,
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	m.logger.InfoContext(ctx, "session opened",
		slog.String("session_id", s.ID),
		slog.String("user_id", string(user.ID)),
	)
	return s, nil
}

// Resolve verifies token and returns its stored session.
func (m *Manager) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := m.verifier.Verify(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	s, err := m.store.Get(ctx, IDForToken(token))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("session expired")
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s.Expired(m.now()) || string(s.User.ID) != claims.Subject {
		return nil, apperrors.Unauthorized("session expired")
	}
	return s, nil
}

// Update replaces the stored user of s, keeping its expiry.
func (m *Manager) Update(ctx context.Context, s *domain.Session, user domain.User) (*domain.Session, error) {
	next := *s
	next.User = user
	if err := m.store.Save(ctx, &next); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &next, nil
}

// Close deletes the session.
func (m *Manager) Close(ctx context.Context, s *domain.Session) error {
	if err := m.store.Delete(ctx, s.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	m.logger.InfoContext(ctx, "session closed", slog.String("session_id", s.ID))
	return nil
}
