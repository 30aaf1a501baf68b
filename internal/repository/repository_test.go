package repository

import (
	"context"
	"testing"

	"photogram/internal/database"
	"photogram/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupDB returns a fresh in-memory database with the schema applied.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.ConnectTest()
	require.NoError(t, err)
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "x"}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func createPost(t *testing.T, db *gorm.DB, userID uint, caption string) *models.Post {
	t.Helper()
	post := &models.Post{Caption: caption, UserID: userID}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), post))
	return post
}
