package service

import (
	"context"
	"fmt"
	"time"

	domainauth "github.com/uniapply/uniapply-go/internal/domain/auth"
	"github.com/uniapply/uniapply-go/internal/ports"
)

// SessionManager composes the credential and user halves of persisted
// session state into start/end/validate operations. Both halves are
// written and cleared together, never independently.
type SessionManager struct {
	store         ports.SessionStore
	now           ports.Clock
	refreshWindow time.Duration
}

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Store         ports.SessionStore
	Clock         ports.Clock   // optional, defaults to time.Now
	RefreshWindow time.Duration // optional, defaults to 5m
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	window := opts.RefreshWindow
	if window <= 0 {
		window = domainauth.DefaultRefreshWindow
	}
	return &SessionManager{
		store:         opts.Store,
		now:           clock,
		refreshWindow: window,
	}
}

// StartSession persists a credential and user snapshot, credential first.
// Both stores are assumed atomic; there is no rollback on partial failure.
func (m *SessionManager) StartSession(ctx context.Context, cred domainauth.Credential, user domainauth.User) error {
	if err := m.store.SetCredential(ctx, cred); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	if err := m.store.SetUser(ctx, user); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}

// SetCredential overwrites only the credential, keeping the user snapshot.
// Used by the refresh path.
func (m *SessionManager) SetCredential(ctx context.Context, cred domainauth.Credential) error {
	if err := m.store.SetCredential(ctx, cred); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// SetUser overwrites the user snapshot wholesale.
func (m *SessionManager) SetUser(ctx context.Context, user domainauth.User) error {
	if err := m.store.SetUser(ctx, user); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}

// EndSession clears both stores. Idempotent: calling twice has no
// additional effect.
func (m *SessionManager) EndSession(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// IsSessionValid reports whether a usable session is persisted: a
// non-expired credential AND a non-nil user snapshot. A present-but-
// expired credential is invalid even when the user record exists.
func (m *SessionManager) IsSessionValid(ctx context.Context) bool {
	cred, err := m.store.Credential(ctx)
	if err != nil || cred.Expired(m.now()) {
		return false
	}
	user, err := m.store.GetUser(ctx)
	return err == nil && user != nil
}

// IsExpiringSoon reports whether the stored credential expires within the
// refresh window. An absent credential counts as expiring soon.
func (m *SessionManager) IsExpiringSoon(ctx context.Context) bool {
	cred, err := m.store.Credential(ctx)
	if err != nil {
		return true
	}
	return cred.ExpiringSoon(m.now(), m.refreshWindow)
}

// SessionData is the read-only composite snapshot of persisted state.
type SessionData struct {
	User            *domainauth.User
	IsAuthenticated bool
	AccessToken     string
	RefreshToken    string
}

// GetSessionData returns the composite snapshot. IsAuthenticated reflects
// credential validity only; session validity also requires the user.
func (m *SessionManager) GetSessionData(ctx context.Context) SessionData {
	var data SessionData
	cred, err := m.store.Credential(ctx)
	if err == nil {
		data.AccessToken = cred.AccessToken
		data.RefreshToken = cred.RefreshToken
		data.IsAuthenticated = cred.AccessToken != "" && !cred.Expired(m.now())
	}
	if user, err := m.store.GetUser(ctx); err == nil {
		data.User = user
	}
	return data
}

// AccessToken implements ports.TokenProvider so the API client reads the
// bearer token straight from session storage.
func (m *SessionManager) AccessToken(ctx context.Context) string {
	cred, err := m.store.Credential(ctx)
	if err != nil {
		return ""
	}
	return cred.AccessToken
}

// RefreshToken implements ports.TokenProvider.
func (m *SessionManager) RefreshToken(ctx context.Context) string {
	cred, err := m.store.Credential(ctx)
	if err != nil {
		return ""
	}
	return cred.RefreshToken
}
