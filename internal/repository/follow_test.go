package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository_CreateAndExists(t *testing.T) {
	db := setupDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	require.NoError(t, repo.Create(ctx, alice.ID, bob.ID))

	exists, err := repo.Exists(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	// The edge is directed.
	exists, err = repo.Exists(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFollowRepository_DuplicateEdgeRejected(t *testing.T) {
	db := setupDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	require.NoError(t, repo.Create(ctx, alice.ID, bob.ID))
	err := repo.Create(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, ErrAlreadyFollowing)
}

func TestFollowRepository_Delete(t *testing.T) {
	db := setupDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	require.NoError(t, repo.Create(ctx, alice.ID, bob.ID))
	require.NoError(t, repo.Delete(ctx, alice.ID, bob.ID))

	exists, err := repo.Exists(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	// Deleting an absent edge is a no-op.
	assert.NoError(t, repo.Delete(ctx, alice.ID, bob.ID))
}

func TestFollowRepository_FollowingIDsAndFollowerCount(t *testing.T) {
	db := setupDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	require.NoError(t, repo.Create(ctx, alice.ID, bob.ID))
	require.NoError(t, repo.Create(ctx, alice.ID, carol.ID))
	require.NoError(t, repo.Create(ctx, carol.ID, bob.ID))

	ids, err := repo.FollowingIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{bob.ID, carol.ID}, ids)

	count, err := repo.FollowerCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.FollowerCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
