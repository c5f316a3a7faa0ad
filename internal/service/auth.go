package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/uniapply/uniapply-go/internal/apierrors"
	domainauth "github.com/uniapply/uniapply-go/internal/domain/auth"
	"github.com/uniapply/uniapply-go/internal/ports"
	"github.com/uniapply/uniapply-go/internal/token"
)

// ErrNotAuthenticated is returned by operations that require a signed-in
// user when none is present.
var ErrNotAuthenticated = errors.New("not authenticated")

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	API      ports.AuthAPI
	Sessions *SessionManager
	Logger   *slog.Logger // optional
}

// AuthService is the auth state machine: it owns the observable state
// {user, isAuthenticated, isLoading, error} and decides when to consult
// the session manager versus the external auth API.
//
// Top-level operations serialize on an internal mutex, so two overlapping
// calls cannot stomp each other's state updates. A logout epoch counter
// makes Logout win any race: completions captured before a logout cannot
// resurrect an authenticated state afterwards.
type AuthService struct {
	api      ports.AuthAPI
	sessions *SessionManager
	logger   *slog.Logger

	opMu sync.Mutex // serializes top-level operations

	mu          sync.Mutex // guards state, epoch, subscribers
	state       domainauth.State
	epoch       uint64
	subscribers []func(domainauth.State)

	refreshGroup singleflight.Group
}

// NewAuthService constructs an AuthService in its initial state:
// loading, unauthenticated, no error.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		api:      opts.API,
		sessions: opts.Sessions,
		logger:   logger,
		state:    domainauth.State{IsLoading: true},
	}
}

// State returns a copy of the observable state.
func (s *AuthService) State() domainauth.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// OnChange registers a subscriber notified after every settled transition.
// Subscribers run synchronously on the operation's goroutine; keep them
// cheap.
func (s *AuthService) OnChange(fn func(domainauth.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// ClearError clears the last recorded error.
func (s *AuthService) ClearError() {
	s.mu.Lock()
	s.state.Error = ""
	s.notifyLocked()
	s.mu.Unlock()
}

// Initialize hydrates auth state from persisted session data. Run once at
// startup. A valid session with a credential expiring soon is refreshed
// first; anything else falls back silently to logged-out. Initialize
// never surfaces an error.
func (s *AuthService) Initialize(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLoading(true)

	if !s.sessions.IsSessionValid(ctx) {
		// Clear any partial or expired session data.
		if err := s.sessions.EndSession(ctx); err != nil {
			s.logger.Warn("clear invalid session failed", "error", err)
		}
		s.settleUser(nil, "")
		return
	}

	if s.sessions.IsExpiringSoon(ctx) {
		if err := s.refresh(ctx); err != nil {
			s.logger.Warn("startup token refresh failed", "error", err)
			// refresh already ended the session and settled state.
			return
		}
	}

	data := s.sessions.GetSessionData(ctx)
	s.settleUser(data.User, "")
}

// Login signs in with email and password. On success the session is
// persisted and state becomes authenticated with the error cleared. On
// failure the formatted message is recorded in state and the error is
// returned for local form handling.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.authenticate(ctx, func(ctx context.Context) (ports.AuthResult, error) {
		return s.api.Login(ctx, in)
	})
}

// Register creates an account and signs it in. Same state shape as Login.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.authenticate(ctx, func(ctx context.Context) (ports.AuthResult, error) {
		return s.api.Register(ctx, in)
	})
}

// BeginSocialLogin starts a social-login flow and returns the provider
// auth URL with the state and nonce the caller must hold across the
// redirect.
func (s *AuthService) BeginSocialLogin(ctx context.Context, provider ports.SocialProvider) (authURL, state, nonce string, err error) {
	return provider.Begin(ctx)
}

// CompleteSocialLogin exchanges the provider callback code for a session.
// Same state shape as Login.
func (s *AuthService) CompleteSocialLogin(ctx context.Context, provider ports.SocialProvider, code, state, nonce string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.authenticate(ctx, func(ctx context.Context) (ports.AuthResult, error) {
		return provider.Exchange(ctx, code, state, nonce)
	})
}

// authenticate runs a login-shaped operation: call the API, persist the
// session, settle the authenticated state. Caller holds opMu.
func (s *AuthService) authenticate(ctx context.Context, call func(context.Context) (ports.AuthResult, error)) error {
	epoch := s.beginOp()

	result, err := call(ctx)
	if err != nil {
		s.settleError(apierrors.FormatError(err))
		return err
	}

	if err := s.sessions.StartSession(ctx, result.Credential, result.User); err != nil {
		s.settleError(apierrors.FormatError(err))
		return err
	}

	if !s.commit(epoch, func() {
		user := result.User
		s.state.User = &user
		s.state.IsAuthenticated = true
		s.state.Error = ""
	}) {
		// A logout raced this operation and wins: drop the session we
		// just wrote and stay logged out.
		if err := s.sessions.EndSession(ctx); err != nil {
			s.logger.Warn("discard post-logout session failed", "error", err)
		}
	}
	return nil
}

// Logout ends the session. The API call is best-effort: its failure is
// logged and swallowed, never blocking local cleanup. Final state is
// always {user: nil, authenticated: false, loading: false, error: ""}.
// Logout cannot fail from the caller's perspective.
func (s *AuthService) Logout(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLoading(true)

	if err := s.api.Logout(ctx); err != nil {
		s.logger.Warn("logout API call failed", "error", err)
	}

	if err := s.sessions.EndSession(ctx); err != nil {
		s.logger.Warn("end session failed", "error", err)
	}

	s.mu.Lock()
	s.epoch++ // invalidate any in-flight completion
	s.state = domainauth.State{}
	s.notifyLocked()
	s.mu.Unlock()
}

// RefreshToken rotates the token pair. Concurrent callers share a single
// flight. On failure the session is torn down, state becomes
// unauthenticated, and the error is propagated so callers can force a
// logout flow.
func (s *AuthService) RefreshToken(ctx context.Context) error {
	return s.refresh(ctx)
}

func (s *AuthService) refresh(ctx context.Context) error {
	_, err, _ := s.refreshGroup.Do("refresh", func() (any, error) {
		return nil, s.doRefresh(ctx)
	})
	return err
}

func (s *AuthService) doRefresh(ctx context.Context) error {
	epoch := s.currentEpoch()

	result, err := s.api.Refresh(ctx)
	if err != nil {
		if endErr := s.sessions.EndSession(ctx); endErr != nil {
			s.logger.Warn("end session after failed refresh", "error", endErr)
		}
		s.mu.Lock()
		s.state.User = nil
		s.state.IsAuthenticated = false
		s.state.IsLoading = false
		s.notifyLocked()
		s.mu.Unlock()
		return fmt.Errorf("refresh token: %w", err)
	}

	if s.currentEpoch() != epoch {
		// A logout raced this refresh and wins: do not re-persist the
		// rotated credential.
		return nil
	}

	if err := s.sessions.SetCredential(ctx, result.Credential); err != nil {
		return fmt.Errorf("store refreshed credential: %w", err)
	}

	user := result.User
	if user == nil {
		// Prior snapshot is retained; backfill from token claims only
		// when no snapshot exists at all.
		if stored := s.sessions.GetSessionData(ctx).User; stored == nil {
			if claims, claimsErr := token.UserFromAccessToken(result.Credential.AccessToken); claimsErr == nil {
				user = claims
			}
		}
	}
	if user != nil {
		if err := s.sessions.SetUser(ctx, *user); err != nil {
			return fmt.Errorf("store refreshed user: %w", err)
		}
		if !s.commit(epoch, func() {
			s.state.User = user
			s.state.IsAuthenticated = true
		}) {
			if err := s.sessions.EndSession(ctx); err != nil {
				s.logger.Warn("discard post-logout session failed", "error", err)
			}
		}
	}
	return nil
}

// UpdateProfile sends partial fields and replaces the user snapshot
// wholesale with the server's full record. Requires an authenticated
// state.
func (s *AuthService) UpdateProfile(ctx context.Context, in ports.ProfileUpdate) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if !s.State().IsAuthenticated {
		return ErrNotAuthenticated
	}

	epoch := s.beginOp()

	updated, err := s.api.UpdateProfile(ctx, in)
	if err != nil {
		// Record the error; the user snapshot stays unchanged.
		s.settleError(apierrors.FormatError(err))
		return err
	}

	if err := s.sessions.SetUser(ctx, updated); err != nil {
		s.settleError(apierrors.FormatError(err))
		return err
	}

	s.commit(epoch, func() {
		s.state.User = &updated
		s.state.IsAuthenticated = true
		s.state.Error = ""
	})
	return nil
}

// SetupTwoFactor begins 2FA enrollment. These are side-channel security
// operations: they succeed or fail independently of auth state, which is
// never mutated.
func (s *AuthService) SetupTwoFactor(ctx context.Context) (ports.TwoFactorSetup, error) {
	if !s.State().IsAuthenticated {
		return ports.TwoFactorSetup{}, ErrNotAuthenticated
	}
	return s.api.SetupTwoFactor(ctx)
}

// VerifyTwoFactor submits a TOTP code or backup code.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, in ports.TwoFactorInput) error {
	if !s.State().IsAuthenticated {
		return ErrNotAuthenticated
	}
	return s.api.VerifyTwoFactor(ctx, in)
}

// DisableTwoFactor turns 2FA off.
func (s *AuthService) DisableTwoFactor(ctx context.Context) error {
	if !s.State().IsAuthenticated {
		return ErrNotAuthenticated
	}
	return s.api.DisableTwoFactor(ctx)
}

// ForgotPassword requests a reset email. Auth state changes only through
// the transient loading flag.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	s.setLoading(true)
	defer s.setLoading(false)
	return s.api.ForgotPassword(ctx, email)
}

// ResetPassword completes a password reset with the emailed token.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, password string) error {
	s.setLoading(true)
	defer s.setLoading(false)
	return s.api.ResetPassword(ctx, resetToken, password)
}

// ChangePassword rotates the password for the signed-in user.
func (s *AuthService) ChangePassword(ctx context.Context, current, next string) error {
	if !s.State().IsAuthenticated {
		return ErrNotAuthenticated
	}
	return s.api.ChangePassword(ctx, current, next)
}

// VerifyEmail confirms the account email with the token from the
// verification mail. It works signed in or out (the link can be opened in
// a fresh session); when a user snapshot exists it is re-persisted so the
// stored record reflects the verified account.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.api.VerifyEmail(ctx, token); err != nil {
		return err
	}
	if user := s.State().User; user != nil {
		if err := s.sessions.SetUser(ctx, *user); err != nil {
			return err
		}
	}
	return nil
}

// ResendVerificationEmail requests another verification email for the
// signed-in account.
func (s *AuthService) ResendVerificationEmail(ctx context.Context) error {
	if !s.State().IsAuthenticated {
		return ErrNotAuthenticated
	}
	return s.api.ResendVerificationEmail(ctx)
}

// GenerateBackupCodes replaces the account's 2FA backup codes and returns
// the fresh set.
func (s *AuthService) GenerateBackupCodes(ctx context.Context) ([]string, error) {
	if !s.State().IsAuthenticated {
		return nil, ErrNotAuthenticated
	}
	return s.api.GenerateBackupCodes(ctx)
}

// --- state transition helpers ---

// beginOp marks the start of a top-level operation: loading on, error
// cleared. Returns the epoch to check at commit time.
func (s *AuthService) beginOp() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = true
	s.state.Error = ""
	return s.epoch
}

func (s *AuthService) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// commit applies a state mutation and settles loading, but only when no
// logout happened since the epoch was captured. Reports whether the
// mutation was applied.
func (s *AuthService) commit(epoch uint64, mutate func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false
	}
	mutate()
	s.state.IsLoading = false
	s.notifyLocked()
	return true
}

// settleUser settles state around a user snapshot (nil means logged out).
func (s *AuthService) settleUser(user *domainauth.User, errMsg string) {
	s.mu.Lock()
	s.state.User = user
	s.state.IsAuthenticated = user != nil
	s.state.IsLoading = false
	s.state.Error = errMsg
	s.notifyLocked()
	s.mu.Unlock()
}

// settleError records a failure without touching the user snapshot or the
// authenticated flag.
func (s *AuthService) settleError(msg string) {
	s.mu.Lock()
	s.state.Error = msg
	s.state.IsLoading = false
	s.notifyLocked()
	s.mu.Unlock()
}

func (s *AuthService) setLoading(loading bool) {
	s.mu.Lock()
	s.state.IsLoading = loading
	s.notifyLocked()
	s.mu.Unlock()
}

// snapshotLocked copies state so callers never alias the internal user
// pointer's owner struct. The User pointer itself is shared; treat it as
// read-only.
func (s *AuthService) snapshotLocked() domainauth.State {
	return s.state
}

// notifyLocked fans the current state out to subscribers. Caller holds mu.
func (s *AuthService) notifyLocked() {
	snap := s.snapshotLocked()
	for _, fn := range s.subscribers {
		fn(snap)
	}
}
