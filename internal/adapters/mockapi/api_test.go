package mockapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniapply/uniapply-go/internal/apierrors"
	domainauth "github.com/uniapply/uniapply-go/internal/domain/auth"
	"github.com/uniapply/uniapply-go/internal/ports"
	"github.com/uniapply/uniapply-go/internal/testutil"
)

var mockNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestAPI(t *testing.T) *API {
	t.Helper()
	api, err := New(Config{
		Email:     "dev@uniapply.test",
		Password:  "devpass",
		FirstName: "Dev",
		LastName:  "User",
	})
	require.NoError(t, err)
	api.SetClock(testutil.FixedTimeFunc(mockNow))
	return api
}

func TestNew_RequiresIdentity(t *testing.T) {
	_, err := New(Config{Password: "x"})
	require.Error(t, err)
	_, err = New(Config{Email: "a@b.c"})
	require.Error(t, err)
}

func TestAPI_Login(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t)

	result, err := api.Login(ctx, ports.LoginInput{Email: "dev@uniapply.test", Password: "devpass"})
	require.NoError(t, err)
	assert.Equal(t, "dev@uniapply.test", result.User.Email)
	assert.Equal(t, domainauth.RoleStudent, result.User.Role)
	assert.False(t, result.Credential.IsZero())
	assert.True(t, result.Credential.ExpiresAt.Equal(mockNow.Add(time.Hour)))
}

func TestAPI_LoginIsCaseInsensitiveOnEmail(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t)

	_, err := api.Login(ctx, ports.LoginInput{Email: "DEV@UniApply.Test", Password: "devpass"})
	require.NoError(t, err)
}

func TestAPI_LoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t)

	_, err := api.Login(ctx, ports.LoginInput{Email: "dev@uniapply.test", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierrors.ErrSessionInvalid))

	_, err = api.Login(ctx, ports.LoginInput{Email: "nobody@uniapply.test", Password: "devpass"})
	require.Error(t, err)
}

func TestAPI_RegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t)

	result, err := api.Register(ctx, ports.RegisterInput{
		Email:     "grace@example.edu",
		Password:  "Str0ng!pass",
		FirstName: "Grace",
		LastName:  "Hopper",
		Role:      domainauth.RoleCounselor,
	})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleCounselor, result.User.Role)

	_, err = api.Login(ctx, ports.LoginInput{Email: "grace@example.edu", Password: "Str0ng!pass"})
	require.NoError(t, err)
}

func TestAPI_RegisterRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t)

	_, err := api.Register(ctx, ports.RegisterInput{Email: "Dev@UniApply.Test", Password: "x"})
	require.Error(t, err)

	var apiErr *apierrors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "email_taken", apiErr.Code)
	assert.Equal(t, "An account with this email already exists.", apiErr.UserMessage())
}

func TestAPI_RefreshReturnsTokensOnly(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t)

	result, err := api.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, result.Credential.IsZero())
	assert.Nil(t, result.User)
}

func TestAPI_CredentialsAreUnique(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t)

	a, err := api.Refresh(ctx)
	require.NoError(t, err)
	b, err := api.Refresh(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, a.Credential.AccessToken, b.Credential.AccessToken)
	assert.NotEqual(t, a.Credential.RefreshToken, b.Credential.RefreshToken)
}

func TestAPI_VerifyTwoFactor(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t)

	require.NoError(t, api.VerifyTwoFactor(ctx, ports.TwoFactorInput{Code: "123456"}))
	require.NoError(t, api.VerifyTwoFactor(ctx, ports.TwoFactorInput{BackupCode: "12345678"}))
	require.Error(t, api.VerifyTwoFactor(ctx, ports.TwoFactorInput{Code: "000000"}))
}

func TestAPI_VerifyEmailRequiresToken(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t)

	require.NoError(t, api.VerifyEmail(ctx, "verify-123"))
	require.Error(t, api.VerifyEmail(ctx, ""))
	require.NoError(t, api.ResendVerificationEmail(ctx))
}

func TestAPI_GenerateBackupCodes(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t)

	codes, err := api.GenerateBackupCodes(ctx)
	require.NoError(t, err)
	require.Len(t, codes, 5)
	for _, code := range codes {
		assert.Len(t, code, 8)
	}
}

func TestAPI_UpdateProfileTargetsSignedInAccount(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t)

	_, err := api.Register(ctx, ports.RegisterInput{Email: "grace@example.edu", Password: "pw", FirstName: "Grace", LastName: "Hopper"})
	require.NoError(t, err)

	first := "Grace M."
	updated, err := api.UpdateProfile(ctx, ports.ProfileUpdate{FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, "Grace M.", updated.FirstName)
	assert.Equal(t, "Hopper", updated.LastName, "untouched fields survive")
	assert.Equal(t, "grace@example.edu", updated.Email)
}

func TestAPI_UpdateProfileWithoutSignInFails(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t)

	first := "X"
	_, err := api.UpdateProfile(ctx, ports.ProfileUpdate{FirstName: &first})
	require.Error(t, err)
}

func TestAPI_ResetPasswordRequiresToken(t *testing.T) {
	ctx := context.Background()
	api := newTestAPI(t)

	require.Error(t, api.ResetPassword(ctx, "", "newpass"))
	require.NoError(t, api.ResetPassword(ctx, "reset-token", "newpass"))
}
