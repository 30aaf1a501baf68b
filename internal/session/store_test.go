package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client, time.Hour), mr
}

func TestStore_CreateAndResolve(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, 7)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, ok, err := store.UserID(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint(7), userID)
}

func TestStore_AnonymousSessionHasNoUser(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, 0)
	require.NoError(t, err)

	_, ok, err := store.UserID(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_UnknownTokenResolvesToNothing(t *testing.T) {
	store, _ := setupStore(t)

	userID, ok, err := store.UserID(context.Background(), "no-such-token")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, userID)
}

func TestStore_SlidingExpiry(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, 7)
	require.NoError(t, err)

	// Half the TTL passes, then the session is touched.
	mr.FastForward(30 * time.Minute)
	_, ok, err := store.UserID(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)

	// Another 45 minutes would have outlived the original TTL, but the
	// touch reset it.
	mr.FastForward(45 * time.Minute)
	_, ok, err = store.UserID(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)

	// Left alone past the full TTL, the session expires.
	mr.FastForward(2 * time.Hour)
	_, ok, err = store.UserID(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Destroy(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, 7)
	require.NoError(t, err)
	require.NoError(t, store.AddFlash(ctx, token, "info", "hello"))

	require.NoError(t, store.Destroy(ctx, token))

	_, ok, err := store.UserID(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)

	flashes, err := store.ConsumeFlashes(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, flashes)
}

func TestStore_FlashesAreOrderedAndConsumedOnce(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, 7)
	require.NoError(t, err)

	require.NoError(t, store.AddFlash(ctx, token, "success", "Post created!"))
	require.NoError(t, store.AddFlash(ctx, token, "error", "Something failed"))

	flashes, err := store.ConsumeFlashes(ctx, token)
	require.NoError(t, err)
	require.Len(t, flashes, 2)
	assert.Equal(t, Flash{Level: "success", Message: "Post created!"}, flashes[0])
	assert.Equal(t, Flash{Level: "error", Message: "Something failed"}, flashes[1])

	// Second consume finds nothing.
	flashes, err = store.ConsumeFlashes(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, flashes)
}

func TestStore_FlashMessageMayContainSeparator(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, 7)
	require.NoError(t, err)
	require.NoError(t, store.AddFlash(ctx, token, "info", "a|b|c"))

	flashes, err := store.ConsumeFlashes(ctx, token)
	require.NoError(t, err)
	require.Len(t, flashes, 1)
	assert.Equal(t, "info", flashes[0].Level)
	assert.Equal(t, "a|b|c", flashes[0].Message)
}

func TestStore_NextURLConsumedOnce(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, 0)
	require.NoError(t, err)

	require.NoError(t, store.SetNextURL(ctx, token, "/toggle_like/3"))

	url, err := store.ConsumeNextURL(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "/toggle_like/3", url)

	url, err = store.ConsumeNextURL(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestStore_EmptyTokenIsHarmless(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, ok, err := store.UserID(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, store.Destroy(ctx, ""))

	flashes, err := store.ConsumeFlashes(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, flashes)

	url, err := store.ConsumeNextURL(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, url)
}
