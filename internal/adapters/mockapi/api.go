package mockapi

// Package mockapi provides a config-driven, in-memory AuthAPI for local
// development and tests. It is deterministic: no artificial delays, no
// hard-coded fixture identities beyond the configured one.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/uniapply/uniapply-go/internal/apierrors"
	domainauth "github.com/uniapply/uniapply-go/internal/domain/auth"
	"github.com/uniapply/uniapply-go/internal/ports"
)

// Config controls the mock API identity and behavior.
type Config struct {
	Email         string
	Password      string
	FirstName     string
	LastName      string
	Role          domainauth.Role
	TokenLifetime time.Duration // default 1h when zero
	TwoFactorCode string        // default "123456" when empty
}

// API implements ports.AuthAPI entirely in memory.
type API struct {
	mu       sync.Mutex
	users    map[string]account // keyed by email
	current  string             // email of the most recently signed-in account
	lifetime time.Duration
	tfaCode  string
	now      ports.Clock
}

type account struct {
	user     domainauth.User
	password string
}

// New constructs a mock API seeded with the configured identity.
func New(cfg Config) (*API, error) {
	if cfg.Email == "" {
		return nil, errors.New("mockapi: Email is required")
	}
	if cfg.Password == "" {
		return nil, errors.New("mockapi: Password is required")
	}
	role := cfg.Role
	if role == "" {
		role = domainauth.RoleStudent
	}
	lifetime := cfg.TokenLifetime
	if lifetime == 0 {
		lifetime = time.Hour
	}
	tfaCode := cfg.TwoFactorCode
	if tfaCode == "" {
		tfaCode = "123456"
	}

	a := &API{
		users:    make(map[string]account),
		lifetime: lifetime,
		tfaCode:  tfaCode,
		now:      time.Now,
	}
	now := a.now()
	a.users[strings.ToLower(cfg.Email)] = account{
		user: domainauth.User{
			ID:        "mock-" + strings.ToLower(cfg.Email),
			Email:     cfg.Email,
			FirstName: cfg.FirstName,
			LastName:  cfg.LastName,
			Role:      role,
			CreatedAt: now,
			UpdatedAt: now,
		},
		password: cfg.Password,
	}
	return a, nil
}

// SetClock substitutes the time source; tests pin a fixed instant.
func (a *API) SetClock(clock ports.Clock) { a.now = clock }

func (a *API) Login(_ context.Context, in ports.LoginInput) (ports.AuthResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	acct, ok := a.users[strings.ToLower(in.Email)]
	if !ok || acct.password != in.Password {
		return ports.AuthResult{}, &apierrors.APIError{
			Status: http.StatusUnauthorized,
			Code:   "invalid_credentials",
		}
	}
	cred, err := a.issueCredential()
	if err != nil {
		return ports.AuthResult{}, err
	}
	a.current = strings.ToLower(in.Email)
	return ports.AuthResult{User: acct.user, Credential: cred}, nil
}

func (a *API) Register(_ context.Context, in ports.RegisterInput) (ports.AuthResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := strings.ToLower(in.Email)
	if _, exists := a.users[key]; exists {
		return ports.AuthResult{}, &apierrors.APIError{
			Status: http.StatusConflict,
			Code:   "email_taken",
		}
	}
	role := in.Role
	if role == "" {
		role = domainauth.RoleStudent
	}
	now := a.now()
	acct := account{
		user: domainauth.User{
			ID:        "mock-" + key,
			Email:     in.Email,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Role:      role,
			CreatedAt: now,
			UpdatedAt: now,
		},
		password: in.Password,
	}
	a.users[key] = acct

	cred, err := a.issueCredential()
	if err != nil {
		return ports.AuthResult{}, err
	}
	a.current = key
	return ports.AuthResult{User: acct.user, Credential: cred}, nil
}

func (a *API) Logout(context.Context) error { return nil }

// Refresh rotates the token pair. The mock never returns an updated user,
// exercising the snapshot-retained path in the state machine.
func (a *API) Refresh(context.Context) (ports.RefreshResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cred, err := a.issueCredential()
	if err != nil {
		return ports.RefreshResult{}, err
	}
	return ports.RefreshResult{Credential: cred}, nil
}

func (a *API) ForgotPassword(context.Context, string) error { return nil }

func (a *API) ResetPassword(_ context.Context, token, _ string) error {
	if token == "" {
		return &apierrors.APIError{Status: http.StatusBadRequest, Code: "invalid_token"}
	}
	return nil
}

func (a *API) ChangePassword(context.Context, string, string) error { return nil }

func (a *API) VerifyEmail(_ context.Context, token string) error {
	if token == "" {
		return &apierrors.APIError{Status: http.StatusBadRequest, Code: "invalid_token"}
	}
	return nil
}

func (a *API) ResendVerificationEmail(context.Context) error { return nil }

func (a *API) SetupTwoFactor(context.Context) (ports.TwoFactorSetup, error) {
	return ports.TwoFactorSetup{
		Secret:      "JBSWY3DPEHPK3PXP",
		QRCode:      "data:image/png;base64,",
		BackupCodes: []string{"12345678", "87654321"},
	}, nil
}

func (a *API) VerifyTwoFactor(_ context.Context, in ports.TwoFactorInput) error {
	if in.Code == a.tfaCode || in.BackupCode == "12345678" {
		return nil
	}
	return &apierrors.APIError{
		Status:  http.StatusBadRequest,
		Code:    "invalid_code",
		Message: "Invalid verification code",
	}
}

func (a *API) DisableTwoFactor(context.Context) error { return nil }

// GenerateBackupCodes mints a fresh set; the well-known backup code keeps
// working so VerifyTwoFactor stays deterministic.
func (a *API) GenerateBackupCodes(context.Context) ([]string, error) {
	codes := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		code, err := randomString(8)
		if err != nil {
			return nil, fmt.Errorf("generate backup code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// UpdateProfile applies the partial update server-side and returns the
// full record, mirroring the real service contract.
func (a *API) UpdateProfile(_ context.Context, in ports.ProfileUpdate) (domainauth.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	acct, ok := a.users[a.current]
	if !ok {
		return domainauth.User{}, &apierrors.APIError{Status: http.StatusNotFound, Code: "user_not_found"}
	}
	if in.FirstName != nil {
		acct.user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		acct.user.LastName = *in.LastName
	}
	if in.Avatar != nil {
		acct.user.Avatar = *in.Avatar
	}
	if in.Profile != nil {
		acct.user.Profile = in.Profile
	}
	acct.user.UpdatedAt = a.now()
	a.users[a.current] = acct
	return acct.user, nil
}

// issueCredential mints an opaque token pair with the configured lifetime.
func (a *API) issueCredential() (domainauth.Credential, error) {
	access, err := randomString(32)
	if err != nil {
		return domainauth.Credential{}, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := randomString(32)
	if err != nil {
		return domainauth.Credential{}, fmt.Errorf("generate refresh token: %w", err)
	}
	return domainauth.Credential{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    a.now().Add(a.lifetime),
	}, nil
}

// randomString produces a URL-safe random string of exact length.
func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	bLen := (n*3 + 3) / 4
	b := make([]byte, bLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < n {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:n], nil
}
