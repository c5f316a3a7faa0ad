package oidcauth

// Package oidcauth implements social login (Google, Apple, any OIDC IdP)
// using the standard authorization-code flow. This is where real identity
// provider verification plugs in; the browser original simulated these
// flows with fixtures.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/uniapply/uniapply-go/internal/domain/auth"
	"github.com/uniapply/uniapply-go/internal/ports"
)

// ProviderConfig holds configuration for one social identity provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	IssuerURL    string
	HTTPClient   *http.Client // optional, defaults to a 30s-timeout client
}

// Provider implements ports.SocialProvider over OIDC/OAuth2.
type Provider struct {
	config   *oauth2.Config
	provider *gooidc.Provider
	verifier *gooidc.IDTokenVerifier
}

// NewProvider creates an OIDC social provider. It performs a single
// discovery fetch against the issuer.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if cfg.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(cfg.IssuerURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	scope := cfg.Scope
	if scope == "" {
		scope = "openid profile email"
	}

	return &Provider{
		provider: op,
		verifier: op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       strings.Fields(scope),
			Endpoint:     op.Endpoint(),
		},
	}, nil
}

// Begin returns the provider auth URL plus cryptographically secure state
// and nonce for the caller to hold across the redirect.
func (p *Provider) Begin(_ context.Context) (string, string, string, error) {
	state, err := randomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

// Exchange completes the flow: verifies the ID token and nonce, maps the
// standard claims to a User, and returns the provider tokens as the
// session credential. Social identities always enter as students; role
// elevation is a server-side concern.
func (p *Provider) Exchange(ctx context.Context, code, state, nonce string) (ports.AuthResult, error) {
	if code == "" {
		return ports.AuthResult{}, errors.New("authorization code is required")
	}
	if state == "" {
		return ports.AuthResult{}, errors.New("state is required")
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return ports.AuthResult{}, fmt.Errorf("exchange code for token: %w", err)
	}

	rawID, ok := token.Extra("id_token").(string)
	if !ok || rawID == "" {
		return ports.AuthResult{}, errors.New("missing id_token in token response")
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return ports.AuthResult{}, fmt.Errorf("verify id_token: %w", err)
	}

	var claims idTokenClaims
	if err := idTok.Claims(&claims); err != nil {
		return ports.AuthResult{}, fmt.Errorf("parse id_token claims: %w", err)
	}
	if nonce != "" && claims.Nonce != nonce {
		return ports.AuthResult{}, errors.New("invalid nonce")
	}

	expiresAt := time.Now().Add(time.Hour)
	if !token.Expiry.IsZero() {
		expiresAt = token.Expiry
	}

	return ports.AuthResult{
		User: mapClaims(claims),
		Credential: domainauth.Credential{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			ExpiresAt:    expiresAt,
		},
	}, nil
}

// idTokenClaims covers the standard OIDC profile claim shape.
type idTokenClaims struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Name       string `json:"name"`
	Picture    string `json:"picture"`
	Nonce      string `json:"nonce"`
}

// mapClaims maps ID token claims into a User with precedence rules for
// the name fields.
func mapClaims(c idTokenClaims) domainauth.User {
	first, last := c.GivenName, c.FamilyName
	if first == "" && c.Name != "" {
		parts := strings.SplitN(c.Name, " ", 2)
		first = parts[0]
		if len(parts) > 1 {
			last = parts[1]
		}
	}
	now := time.Now()
	return domainauth.User{
		ID:        c.Sub,
		Email:     c.Email,
		FirstName: first,
		LastName:  last,
		Avatar:    c.Picture,
		Role:      domainauth.RoleStudent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// randomString generates a URL-safe random string of exact length.
func randomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	nBytes := (length*3 + 3) / 4
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < length {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:length], nil
}
