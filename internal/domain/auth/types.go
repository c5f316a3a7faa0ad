package auth

// Package auth contains domain-level types for the client-side session
// lifecycle. It is pure and free of transport/adapter concerns.

import (
	"fmt"
	"strings"
	"time"
)

// DefaultRefreshWindow is how far ahead of expiry a credential counts as
// expiring soon and should be refreshed proactively.
const DefaultRefreshWindow = 5 * time.Minute

// Role represents an application authorization role.
// Keep string form for easy persistence and wire transfer.
// Valid values are defined as constants below.
type Role string

const (
	RoleStudent   Role = "student"
	RoleCounselor Role = "counselor"
	RoleAdmin     Role = "admin"
)

// UnmarshalText implements encoding.TextUnmarshaler for Role.
// Roles are validated once here, at the deserialization boundary,
// and never re-validated downstream.
func (r *Role) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "student", "counselor", "admin":
		*r = Role(v)
		return nil
	default:
		return fmt.Errorf("invalid Role: %q (valid options: student, counselor, admin)", v)
	}
}

// Valid reports whether the role is one of the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleCounselor, RoleAdmin:
		return true
	}
	return false
}

// Profile carries the optional profile sub-record attached to a user.
type Profile struct {
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Address     *string `json:"address,omitempty"`
	Nationality *string `json:"nationality,omitempty"`
}

// User is the snapshot of the authenticated user's public profile.
// It is replaced wholesale on profile update, never merged field-by-field
// at the store layer.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Avatar    string    `json:"avatar,omitempty"`
	Role      Role      `json:"role"`
	Profile   *Profile  `json:"profile,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName returns the user's display name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Credential holds the access/refresh token pair and its absolute expiry.
// It is created on login/refresh/social-login, overwritten wholesale on
// refresh, and destroyed on logout or failed refresh.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsZero reports whether the credential carries no tokens.
func (c Credential) IsZero() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Expired reports whether the credential has expired at the given instant.
// A zero expiry counts as expired.
func (c Credential) Expired(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return true
	}
	return !now.Before(c.ExpiresAt)
}

// ExpiringSoon reports whether the credential expires within window of now.
// The boundary at exactly expiry-window is inclusive of "expiring soon".
// A zero expiry counts as expiring soon.
func (c Credential) ExpiringSoon(now time.Time, window time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return true
	}
	return !now.Before(c.ExpiresAt.Add(-window))
}

// State is the observable auth state published by the state machine.
// Invariant: IsAuthenticated == (User != nil) after any transition settles.
type State struct {
	User            *User
	IsAuthenticated bool
	IsLoading       bool
	Error           string
}
