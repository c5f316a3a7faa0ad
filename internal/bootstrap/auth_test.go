package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniapply/uniapply-go/config"
	"github.com/uniapply/uniapply-go/internal/ports"
)

func fileStorageConfig(t *testing.T) config.StorageConfig {
	t.Helper()
	return config.StorageConfig{
		Backend: config.StorageFile,
		Path:    filepath.Join(t.TempDir(), "session.json"),
	}
}

func TestBuildSessionStore_File(t *testing.T) {
	store, err := BuildSessionStore(fileStorageConfig(t))
	require.NoError(t, err)
	require.NotNil(t, store)

	cred, err := store.Credential(context.Background())
	require.NoError(t, err)
	assert.True(t, cred.IsZero())
}

func TestBuildSessionStore_Keyring(t *testing.T) {
	store, err := BuildSessionStore(config.StorageConfig{
		Backend:        config.StorageKeyring,
		KeyringService: "uniapply-test",
	})
	require.NoError(t, err)
	require.NotNil(t, store)
}

func TestBuildSessionStore_UnknownBackendFails(t *testing.T) {
	_, err := BuildSessionStore(config.StorageConfig{Backend: "s3"})
	require.Error(t, err)
}

func TestBuildAuthService_MockMode(t *testing.T) {
	cfg := config.AppConfig{
		Storage: fileStorageConfig(t),
		Auth: config.AuthConfig{
			Mode: config.AuthModeMock,
			Mock: config.MockAuthConfig{
				Email:    "dev@uniapply.test",
				Password: "DevPassw0rd!",
				Role:     "student",
			},
		},
	}
	cfg.Sanitize()

	svc, err := BuildAuthService(AuthDeps{Config: cfg})
	require.NoError(t, err)
	require.NotNil(t, svc)

	// The wired mock identity signs in end to end.
	ctx := context.Background()
	svc.Initialize(ctx)
	require.NoError(t, svc.Login(ctx, ports.LoginInput{Email: "dev@uniapply.test", Password: "DevPassw0rd!"}))
	state := svc.State()
	assert.True(t, state.IsAuthenticated)
	require.NotNil(t, state.User)
	assert.Equal(t, "dev@uniapply.test", state.User.Email)
}

func TestBuildAuthService_MockModeRejectsBadRole(t *testing.T) {
	cfg := config.AppConfig{
		Storage: fileStorageConfig(t),
		Auth: config.AuthConfig{
			Mode: config.AuthModeMock,
			Mock: config.MockAuthConfig{
				Email:    "dev@uniapply.test",
				Password: "pw",
				Role:     "superuser",
			},
		},
	}
	_, err := BuildAuthService(AuthDeps{Config: cfg})
	require.Error(t, err)
}

func TestBuildAuthService_LiveMode(t *testing.T) {
	cfg := config.AppConfig{
		Storage: fileStorageConfig(t),
		API:     config.APIConfig{BaseURL: "http://localhost:3001/api"},
		Auth:    config.AuthConfig{Mode: config.AuthModeLive},
	}
	cfg.Sanitize()

	svc, err := BuildAuthService(AuthDeps{Config: cfg})
	require.NoError(t, err)
	require.NotNil(t, svc)
}

func TestBuildSocialProviders_SkipsUnconfigured(t *testing.T) {
	providers := BuildSocialProviders(config.AuthConfig{}, nil)
	assert.Empty(t, providers)
}
