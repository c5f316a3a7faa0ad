package token

// Package token peeks at access-token claims to backfill a user snapshot
// when the refresh endpoint returns tokens without one. Signature
// verification is the server's job; the client only reads.

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/uniapply/uniapply-go/internal/domain/auth"
)

// claims is the superset of claim names the platform's tokens carry.
type claims struct {
	jwt.RegisteredClaims
	Email      string `json:"email"`
	FirstName  string `json:"given_name"`
	LastName   string `json:"family_name"`
	Role       string `json:"role"`
	Picture    string `json:"picture"`
}

// UserFromAccessToken extracts a partial user snapshot from a JWT access
// token without verifying its signature. Opaque (non-JWT) tokens return
// an error; callers fall back to the stored snapshot.
func UserFromAccessToken(raw string) (*domainauth.User, error) {
	parser := jwt.NewParser()
	var c claims
	if _, _, err := parser.ParseUnverified(raw, &c); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	if c.Subject == "" {
		return nil, errors.New("access token has no subject")
	}

	u := &domainauth.User{
		ID:        c.Subject,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Avatar:    c.Picture,
	}
	// Role claims are validated here, at the boundary; an absent or
	// unknown role leaves the field empty rather than guessing.
	var role domainauth.Role
	if err := role.UnmarshalText([]byte(c.Role)); err == nil {
		u.Role = role
	}
	return u, nil
}
