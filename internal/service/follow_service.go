package service

import (
	"context"
	"errors"

	"photogram/internal/logging"
	"photogram/internal/models"
	"photogram/internal/observability"
	"photogram/internal/repository"
)

// FollowService manages the directed follow relation between users.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	audit      *logging.AuditLogger
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository, audit *logging.AuditLogger) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo, audit: audit}
}

// Follow creates the (follower, followed) edge. The relation is irreflexive:
// a self-follow is rejected before anything reaches storage. Following a
// user twice is a no-op. Returns the followed user.
func (s *FollowService) Follow(ctx context.Context, follower *models.User, followedID uint) (*models.User, error) {
	followed, err := s.userRepo.GetByID(ctx, followedID)
	if err != nil {
		return nil, err
	}
	if follower.ID == followedID {
		return nil, models.NewValidationError("You cannot follow yourself")
	}

	if err := s.followRepo.Create(ctx, follower.ID, followedID); err != nil {
		if errors.Is(err, repository.ErrAlreadyFollowing) {
			return followed, nil
		}
		return nil, err
	}

	s.audit.FollowAction(ctx, follower.ID, followedID, "follow")
	observability.EngagementEvents.WithLabelValues("follow").Inc()
	return followed, nil
}

// Unfollow removes the (follower, followed) edge if present. Returns the
// unfollowed user.
func (s *FollowService) Unfollow(ctx context.Context, follower *models.User, followedID uint) (*models.User, error) {
	followed, err := s.userRepo.GetByID(ctx, followedID)
	if err != nil {
		return nil, err
	}

	exists, err := s.followRepo.Exists(ctx, follower.ID, followedID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return followed, nil
	}

	if err := s.followRepo.Delete(ctx, follower.ID, followedID); err != nil {
		return nil, err
	}

	s.audit.FollowAction(ctx, follower.ID, followedID, "unfollow")
	observability.EngagementEvents.WithLabelValues("unfollow").Inc()
	return followed, nil
}
