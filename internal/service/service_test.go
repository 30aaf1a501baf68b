package service

import (
	"io"
	"log/slog"
	"testing"

	"photogram/internal/database"
	"photogram/internal/logging"
	"photogram/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testEnv bundles a fresh in-memory database with repositories and a
// discard-backed audit logger.
type testEnv struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository
	audit       *logging.AuditLogger
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.ConnectTest()
	require.NoError(t, err)

	ch := logging.NewChannels(func(string) (io.Writer, error) { return io.Discard, nil }, slog.LevelInfo, false)
	return &testEnv{
		db:          db,
		userRepo:    repository.NewUserRepository(db),
		postRepo:    repository.NewPostRepository(db),
		commentRepo: repository.NewCommentRepository(db),
		followRepo:  repository.NewFollowRepository(db),
		audit:       logging.NewAuditLogger(ch),
	}
}
