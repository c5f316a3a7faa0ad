package keyringstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/uniapply/uniapply-go/internal/testutil"
)

func TestMain(m *testing.M) {
	keyring.MockInit()
	m.Run()
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := New("uniapply-test")
	t.Cleanup(func() { _ = store.Clear(ctx) })
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cred := testutil.NewCredential(now).WithTokens("at-1", "rt-1").Build()
	require.NoError(t, store.SetCredential(ctx, cred))
	require.NoError(t, store.SetUser(ctx, testutil.NewUser().WithEmail("ada@example.edu").Build()))

	got, err := store.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "at-1", got.AccessToken)
	assert.Equal(t, "rt-1", got.RefreshToken)

	user, err := store.GetUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "ada@example.edu", user.Email)
}

func TestStore_EmptyReadsAsNoSession(t *testing.T) {
	ctx := context.Background()
	store := New("uniapply-test-empty")

	cred, err := store.Credential(ctx)
	require.NoError(t, err)
	assert.True(t, cred.IsZero())

	user, err := store.GetUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := New("uniapply-test-clear")

	require.NoError(t, store.SetCredential(ctx, testutil.NewCredential(time.Now()).Build()))
	require.NoError(t, store.Clear(ctx))

	cred, err := store.Credential(ctx)
	require.NoError(t, err)
	assert.True(t, cred.IsZero())

	require.NoError(t, store.Clear(ctx))
}

func TestNew_DefaultService(t *testing.T) {
	store := New("")
	assert.Equal(t, "uniapply", store.service)
}
