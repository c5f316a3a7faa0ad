package ports

// Package ports defines interfaces (hexagonal ports) for the session
// lifecycle. Implementations live in internal/adapters; orchestration in
// internal/service.

import (
	"context"
	"time"

	domainauth "github.com/uniapply/uniapply-go/internal/domain/auth"
)

// CredentialStore persists the access/refresh token pair and its expiry.
// Set overwrites any existing value; Clear removes the credential together
// with any derived persisted user data.
type CredentialStore interface {
	SetCredential(ctx context.Context, cred domainauth.Credential) error
	Credential(ctx context.Context) (domainauth.Credential, error)
	Clear(ctx context.Context) error
}

// UserStore persists the last-known authenticated user snapshot.
// Pure key-value semantics: overwritten, not merged. Get returns nil
// when no user is stored.
type UserStore interface {
	SetUser(ctx context.Context, user domainauth.User) error
	GetUser(ctx context.Context) (*domainauth.User, error)
	ClearUser(ctx context.Context) error
}

// SessionStore combines both halves of persisted session state. The file,
// keyring, and redis adapters all implement it so the two records are
// written and cleared by the same backend.
type SessionStore interface {
	CredentialStore
	UserStore
}

// LoginInput carries credentials for a password login.
type LoginInput struct {
	Email    string
	Password string
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Role        domainauth.Role
	AcceptTerms bool
}

// AuthResult is the success payload of login, register, and social-login
// exchanges: the authenticated user plus a fresh credential.
type AuthResult struct {
	User       domainauth.User
	Credential domainauth.Credential
}

// RefreshResult carries a rotated credential. User is non-nil only when
// the server chose to return an updated snapshot alongside the tokens.
type RefreshResult struct {
	Credential domainauth.Credential
	User       *domainauth.User
}

// TwoFactorSetup is the server response to a 2FA enrollment request.
type TwoFactorSetup struct {
	Secret      string
	QRCode      string // data URI
	BackupCodes []string
}

// TwoFactorInput carries either a TOTP code or a backup code, not both.
type TwoFactorInput struct {
	Code       string
	BackupCode string
}

// ProfileUpdate holds the partial profile fields sent to the server.
// The server responds with the full updated user record.
type ProfileUpdate struct {
	FirstName   *string             `json:"first_name,omitempty"`
	LastName    *string             `json:"last_name,omitempty"`
	Avatar      *string             `json:"avatar,omitempty"`
	Profile     *domainauth.Profile `json:"profile,omitempty"`
}

// AuthAPI is the stateless request/response contract of the external
// authentication service. Bearer and refresh tokens are supplied by the
// TokenProvider wired into the implementation, not passed per call.
type AuthAPI interface {
	Login(ctx context.Context, in LoginInput) (AuthResult, error)
	Register(ctx context.Context, in RegisterInput) (AuthResult, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) (RefreshResult, error)

	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	ChangePassword(ctx context.Context, current, next string) error

	VerifyEmail(ctx context.Context, token string) error
	ResendVerificationEmail(ctx context.Context) error

	SetupTwoFactor(ctx context.Context) (TwoFactorSetup, error)
	VerifyTwoFactor(ctx context.Context, in TwoFactorInput) error
	DisableTwoFactor(ctx context.Context) error
	GenerateBackupCodes(ctx context.Context) ([]string, error)

	UpdateProfile(ctx context.Context, in ProfileUpdate) (domainauth.User, error)
}

// SocialProvider initiates and completes a social-login flow against an
// external identity provider (Google, Apple, ...). Begin returns the
// provider auth URL with an opaque state and nonce; Exchange verifies
// them and returns the authenticated result.
type SocialProvider interface {
	Begin(ctx context.Context) (authURL, state, nonce string, err error)
	Exchange(ctx context.Context, code, state, nonce string) (AuthResult, error)
}

// TokenProvider exposes the currently stored tokens to the API client.
type TokenProvider interface {
	AccessToken(ctx context.Context) string
	RefreshToken(ctx context.Context) string
}

// Clock supplies the current time; tests substitute a fixed instant.
type Clock func() time.Time
