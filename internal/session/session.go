// Package session owns the authenticated backend session: issued at login,
// persisted locally, and invalidated on logout or when the backend answers 401.
// Callers obtain it explicitly and pass it down through context.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"forex-portal-go/internal/models"
	"forex-portal-go/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNotLoggedIn = errors.New("not logged in")

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
}

// Store is the subset of store.PortalStore the manager needs.
type Store interface {
	SaveSession(ctx context.Context, session *models.Session) error
	GetActiveSession(ctx context.Context, now time.Time) (*models.Session, error)
	InvalidateSession(ctx context.Context, sessionId, reason string, at time.Time) error
}

type Manager struct {
	store Store
	auth  Authenticator
	now   func() time.Time

	mu      sync.Mutex
	current *models.Session
}

func NewManager(st Store, auth Authenticator) *Manager {
	return &Manager{store: st, auth: auth, now: time.Now}
}

func (m *Manager) Login(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	result, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	session := &models.Session{
		Id:        uuid.New().String(),
		Email:     email,
		Token:     result.Token,
		IssuedAt:  now,
		ExpiresAt: TokenExpiry(result.Token),
	}
	if result.User.Email != "" {
		session.Email = result.User.Email
	}
	if !session.Active(now) {
		return nil, fmt.Errorf("server issued an already expired token")
	}

	if err := m.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("unable to store session: %w", err)
	}

	m.mu.Lock()
	m.current = session
	m.mu.Unlock()

	zap.L().Info("Logged in",
		zap.String("email", session.Email),
		zap.String("session_id", session.Id),
		zap.Time("expires_at", session.ExpiresAt))
	return session, nil
}

// Current returns the active session, loading it from the store when this
// process has not seen one yet.
func (m *Manager) Current(ctx context.Context) (*models.Session, error) {
	now := m.now()

	m.mu.Lock()
	cached := m.current
	m.mu.Unlock()
	if cached.Active(now) {
		return cached, nil
	}

	session, err := m.store.GetActiveSession(ctx, now)
	if err != nil {
		if errors.Is(err, store.ErrNoSession) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("unable to load session: %w", err)
	}

	m.mu.Lock()
	m.current = session
	m.mu.Unlock()
	return session, nil
}

// Context attaches the current session to ctx.
func (m *Manager) Context(ctx context.Context) (context.Context, error) {
	session, err := m.Current(ctx)
	if err != nil {
		return ctx, err
	}
	return models.WithSession(ctx, session), nil
}

// Logout invalidates the current session. Logging out without a session
// is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	session, err := m.Current(ctx)
	if err != nil {
		if errors.Is(err, ErrNotLoggedIn) {
			return nil
		}
		return err
	}
	return m.invalidate(ctx, session, "logout")
}

// Invalidate ends the session carried by ctx, or the current one.
func (m *Manager) Invalidate(ctx context.Context, reason string) error {
	session := models.GetSession(ctx)
	if session == nil {
		m.mu.Lock()
		session = m.current
		m.mu.Unlock()
	}
	if session == nil {
		return nil
	}
	return m.invalidate(ctx, session, reason)
}

func (m *Manager) invalidate(ctx context.Context, session *models.Session, reason string) error {
	now := m.now().UTC()
	if err := m.store.InvalidateSession(ctx, session.Id, reason, now); err != nil {
		return err
	}

	m.mu.Lock()
	if m.current != nil && m.current.Id == session.Id {
		m.current = nil
	}
	m.mu.Unlock()

	zap.L().Info("Session ended",
		zap.String("session_id", session.Id),
		zap.String("reason", reason))
	return nil
}

// TokenExpiry reads the exp claim without verifying the signature; the
// backend verifies. Opaque tokens yield the zero time.
func TokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		zap.L().Debug("Token is not a JWT, no expiry known")
		return time.Time{}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time.UTC()
}
