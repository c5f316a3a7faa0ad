package restapi

import (
	"context"
	"net/http"

	domainauth "github.com/uniapply/uniapply-go/internal/domain/auth"
	"github.com/uniapply/uniapply-go/internal/ports"
)

// authPayload is the wire shape of login/register/social responses.
type authPayload struct {
	User   domainauth.User       `json:"user"`
	Tokens domainauth.Credential `json:"tokens"`
}

// refreshPayload is the wire shape of the refresh response. User is
// optional; when absent the prior snapshot is retained by the caller.
type refreshPayload struct {
	Tokens domainauth.Credential `json:"tokens"`
	User   *domainauth.User      `json:"user,omitempty"`
}

// Login exchanges email/password for a user and credential.
func (c *Client) Login(ctx context.Context, in ports.LoginInput) (ports.AuthResult, error) {
	body := map[string]string{"email": in.Email, "password": in.Password}
	var payload authPayload
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &payload); err != nil {
		return ports.AuthResult{}, err
	}
	return ports.AuthResult{User: payload.User, Credential: payload.Tokens}, nil
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, in ports.RegisterInput) (ports.AuthResult, error) {
	body := map[string]any{
		"email":        in.Email,
		"password":     in.Password,
		"first_name":   in.FirstName,
		"last_name":    in.LastName,
		"role":         in.Role,
		"accept_terms": in.AcceptTerms,
	}
	var payload authPayload
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, &payload); err != nil {
		return ports.AuthResult{}, err
	}
	return ports.AuthResult{User: payload.User, Credential: payload.Tokens}, nil
}

// Logout invalidates the server-side session. Callers treat failures as
// best-effort; local state clears regardless.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Refresh rotates the token pair using the stored refresh token.
func (c *Client) Refresh(ctx context.Context) (ports.RefreshResult, error) {
	var payload refreshPayload
	if err := c.doWithRefreshToken(ctx, http.MethodPost, "/auth/refresh", nil, &payload); err != nil {
		return ports.RefreshResult{}, err
	}
	return ports.RefreshResult{Credential: payload.Tokens, User: payload.User}, nil
}

// ForgotPassword requests a reset email. The service reports success even
// for unknown addresses so accounts cannot be enumerated.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, nil)
}

// ResetPassword completes a reset using the emailed token.
func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	body := map[string]string{"token": token, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/reset-password", body, nil)
}

// ChangePassword rotates the password for the signed-in user.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	body := map[string]string{"current_password": current, "new_password": next}
	return c.do(ctx, http.MethodPost, "/auth/change-password", body, nil)
}

// VerifyEmail confirms ownership of the account email with the token from
// the verification email.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/verify-email", map[string]string{"token": token}, nil)
}

// ResendVerificationEmail requests another verification email for the
// signed-in account.
func (c *Client) ResendVerificationEmail(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/resend-verification", nil, nil)
}

// SetupTwoFactor begins 2FA enrollment.
func (c *Client) SetupTwoFactor(ctx context.Context) (ports.TwoFactorSetup, error) {
	var payload struct {
		Secret      string   `json:"secret"`
		QRCode      string   `json:"qr_code"`
		BackupCodes []string `json:"backup_codes"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/setup-2fa", nil, &payload); err != nil {
		return ports.TwoFactorSetup{}, err
	}
	return ports.TwoFactorSetup{
		Secret:      payload.Secret,
		QRCode:      payload.QRCode,
		BackupCodes: payload.BackupCodes,
	}, nil
}

// VerifyTwoFactor submits a TOTP code or a backup code.
func (c *Client) VerifyTwoFactor(ctx context.Context, in ports.TwoFactorInput) error {
	body := map[string]string{}
	if in.Code != "" {
		body["code"] = in.Code
	}
	if in.BackupCode != "" {
		body["backup_code"] = in.BackupCode
	}
	return c.do(ctx, http.MethodPost, "/auth/verify-2fa", body, nil)
}

// DisableTwoFactor turns 2FA off for the signed-in user.
func (c *Client) DisableTwoFactor(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/disable-2fa", nil, nil)
}

// GenerateBackupCodes replaces the account's 2FA backup codes and returns
// the fresh set. Previously issued codes stop working.
func (c *Client) GenerateBackupCodes(ctx context.Context) ([]string, error) {
	var payload struct {
		BackupCodes []string `json:"backup_codes"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/generate-backup-codes", nil, &payload); err != nil {
		return nil, err
	}
	return payload.BackupCodes, nil
}

// UpdateProfile sends partial profile fields and returns the full updated
// record. The caller replaces its snapshot wholesale; no client-side merge.
func (c *Client) UpdateProfile(ctx context.Context, in ports.ProfileUpdate) (domainauth.User, error) {
	var user domainauth.User
	if err := c.do(ctx, http.MethodPut, "/auth/profile", in, &user); err != nil {
		return domainauth.User{}, err
	}
	return user, nil
}
