package service

import (
	"context"
	"errors"
	"strings"

	"photogram/internal/logging"
	"photogram/internal/models"
	"photogram/internal/observability"
	"photogram/internal/repository"
)

const maxCaptionLen = 10000

// PostService handles post creation, editing, deletion and like toggling.
type PostService struct {
	postRepo repository.PostRepository
	audit    *logging.AuditLogger
}

func NewPostService(postRepo repository.PostRepository, audit *logging.AuditLogger) *PostService {
	return &PostService{postRepo: postRepo, audit: audit}
}

// CreatePost validates and stores a new post for userID.
func (s *PostService) CreatePost(ctx context.Context, userID uint, caption string) (*models.Post, error) {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return nil, models.NewValidationError("Caption cannot be empty")
	}
	if len(caption) > maxCaptionLen {
		return nil, models.NewValidationError("Caption too long")
	}

	post := &models.Post{Caption: caption, UserID: userID}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.audit.PostCreated(ctx, post.ID, userID, len(caption))
	observability.PostEvents.WithLabelValues("create").Inc()
	return post, nil
}

// EditPost replaces the caption of a post whose ownership has already been
// verified by the gate.
func (s *PostService) EditPost(ctx context.Context, post *models.Post, caption string) error {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return models.NewValidationError("Caption cannot be empty")
	}
	if len(caption) > maxCaptionLen {
		return models.NewValidationError("Caption too long")
	}

	oldCaption := post.Caption
	post.Caption = caption
	if err := s.postRepo.Update(ctx, post); err != nil {
		return err
	}

	s.audit.PostEdited(ctx, post.ID, post.UserID, oldCaption, caption)
	observability.PostEvents.WithLabelValues("update").Inc()
	return nil
}

// DeletePost removes a post and its likes and comments, recording the
// engagement lost by the cascade.
func (s *PostService) DeletePost(ctx context.Context, post *models.Post) error {
	likes, comments, err := s.postRepo.EngagementCounts(ctx, post.ID)
	if err != nil {
		return err
	}
	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return err
	}

	s.audit.PostDeleted(ctx, post.ID, post.UserID, int(likes), int(comments))
	observability.PostEvents.WithLabelValues("delete").Inc()
	return nil
}

// ToggleLike flips the like state of (userID, post). A concurrent duplicate
// like loses to the storage uniqueness constraint and is treated as a no-op;
// the result reports whether the post is liked after the call.
func (s *PostService) ToggleLike(ctx context.Context, userID uint, post *models.Post) (bool, error) {
	liked, err := s.postRepo.IsLiked(ctx, userID, post.ID)
	if err != nil {
		return false, err
	}

	if liked {
		if err := s.postRepo.Unlike(ctx, userID, post.ID); err != nil {
			return true, err
		}
		s.audit.LikeAction(ctx, post.ID, userID, "unlike")
		observability.EngagementEvents.WithLabelValues("unlike").Inc()
		return false, nil
	}

	if err := s.postRepo.Like(ctx, userID, post.ID); err != nil {
		if errors.Is(err, repository.ErrAlreadyLiked) {
			return true, nil
		}
		return false, err
	}
	s.audit.LikeAction(ctx, post.ID, userID, "like")
	observability.EngagementEvents.WithLabelValues("like").Inc()
	return true, nil
}
