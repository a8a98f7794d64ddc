package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateSessionToken(secret, "sid-1", "user-1", time.Hour)
	require.NoError(t, err)

	sid, uid, err := ParseSessionToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", sid)
	assert.Equal(t, "user-1", uid)

	_, _, err = ParseSessionToken([]byte("other-secret"), token)
	assert.Error(t, err)
}

func TestSessionTokenExpired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateSessionToken(secret, "sid-1", "user-1", -time.Minute)
	require.NoError(t, err)

	_, _, err = ParseSessionToken(secret, token)
	assert.Error(t, err)
}

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	require.NoError(t, store.Save(ctx, "s1", AuthSession{UserID: "u1", Role: "client"}, time.Hour))
	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, "s2", AuthSession{UserID: "u2"}, -time.Second))
	_, err = store.Get(ctx, "s2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
