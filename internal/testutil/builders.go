package testutil

import (
	"time"

	domainauth "github.com/uniapply/uniapply-go/internal/domain/auth"
)

// UserBuilder provides a fluent interface for building User values for testing.
type UserBuilder struct {
	user domainauth.User
}

// NewUser creates a UserBuilder with sensible defaults.
func NewUser() *UserBuilder {
	return &UserBuilder{
		user: domainauth.User{
			ID:        "user-1",
			Email:     "applicant@example.edu",
			FirstName: "Ada",
			LastName:  "Lovelace",
			Role:      domainauth.RoleStudent,
		},
	}
}

// WithID sets the user ID.
func (b *UserBuilder) WithID(id string) *UserBuilder {
	b.user.ID = id
	return b
}

// WithEmail sets the user email.
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.Email = email
	return b
}

// WithRole sets the user role.
func (b *UserBuilder) WithRole(role domainauth.Role) *UserBuilder {
	b.user.Role = role
	return b
}

// WithName sets the first and last names.
func (b *UserBuilder) WithName(first, last string) *UserBuilder {
	b.user.FirstName = first
	b.user.LastName = last
	return b
}

// WithAvatar sets the avatar URL.
func (b *UserBuilder) WithAvatar(avatar string) *UserBuilder {
	b.user.Avatar = avatar
	return b
}

// Build returns the constructed User.
func (b *UserBuilder) Build() domainauth.User {
	return b.user
}

// BuildPtr returns a pointer to a copy of the constructed User.
func (b *UserBuilder) BuildPtr() *domainauth.User {
	u := b.user
	return &u
}

// CredentialBuilder provides a fluent interface for building Credential values for testing.
type CredentialBuilder struct {
	cred domainauth.Credential
}

// NewCredential creates a CredentialBuilder whose token pair expires one hour
// after the supplied reference time.
func NewCredential(now time.Time) *CredentialBuilder {
	return &CredentialBuilder{
		cred: domainauth.Credential{
			AccessToken:  "access-token",
			RefreshToken: "refresh-token",
			ExpiresAt:    now.Add(time.Hour),
		},
	}
}

// WithTokens sets the access and refresh tokens.
func (b *CredentialBuilder) WithTokens(access, refresh string) *CredentialBuilder {
	b.cred.AccessToken = access
	b.cred.RefreshToken = refresh
	return b
}

// WithExpiresAt sets the absolute access token expiry.
func (b *CredentialBuilder) WithExpiresAt(at time.Time) *CredentialBuilder {
	b.cred.ExpiresAt = at
	return b
}

// Expired marks the credential as already past its expiry relative to now.
func (b *CredentialBuilder) Expired(now time.Time) *CredentialBuilder {
	b.cred.ExpiresAt = now.Add(-time.Minute)
	return b
}

// ExpiringSoon places the expiry inside the refresh window relative to now.
func (b *CredentialBuilder) ExpiringSoon(now time.Time) *CredentialBuilder {
	b.cred.ExpiresAt = now.Add(domainauth.DefaultRefreshWindow / 2)
	return b
}

// Build returns the constructed Credential.
func (b *CredentialBuilder) Build() domainauth.Credential {
	return b.cred
}

// BuildPtr returns a pointer to a copy of the constructed Credential.
func (b *CredentialBuilder) BuildPtr() *domainauth.Credential {
	c := b.cred
	return &c
}
