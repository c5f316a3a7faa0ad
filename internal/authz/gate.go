package authz

// Package authz is the route authorization gate: pure decisions over
// (user, required roles), no side effects, no I/O. The presentation layer
// consults it before rendering any protected view.

import (
	domainauth "github.com/uniapply/uniapply-go/internal/domain/auth"
)

// CanAccess reports whether the user may access a view requiring the
// given roles. Nil or empty requiredRoles means a public view. A nil
// user is never allowed into a protected view.
func CanAccess(user *domainauth.User, requiredRoles []domainauth.Role) bool {
	if len(requiredRoles) == 0 {
		return true
	}
	if user == nil {
		return false
	}
	for _, role := range requiredRoles {
		if user.Role == role {
			return true
		}
	}
	return false
}

// Action is what the consumer should do with a gated request.
type Action int

const (
	// ActionAllow renders the requested view.
	ActionAllow Action = iota
	// ActionLogin redirects to the login view, capturing the originally
	// requested path for the post-login return.
	ActionLogin
	// ActionLanding redirects an authenticated but unauthorized user to
	// the default authenticated landing view. Consumers opt in to an
	// explicit denied view instead.
	ActionLanding
)

// Default redirect targets.
const (
	LoginPath   = "/login"
	LandingPath = "/dashboard"
)

// Decision is the outcome of gating one request.
type Decision struct {
	Action     Action
	RedirectTo string
	// ReturnTo is the originally requested path, carried through a login
	// redirect so the user lands where they were headed.
	ReturnTo string
}

// Decide applies the redirect policy to a request for requestedPath.
func Decide(user *domainauth.User, requiredRoles []domainauth.Role, requestedPath string) Decision {
	if CanAccess(user, requiredRoles) {
		return Decision{Action: ActionAllow}
	}
	if user == nil {
		return Decision{
			Action:     ActionLogin,
			RedirectTo: LoginPath,
			ReturnTo:   requestedPath,
		}
	}
	return Decision{
		Action:     ActionLanding,
		RedirectTo: LandingPath,
	}
}
