package service

import (
	"context"
	"strings"

	"photogram/internal/logging"
	"photogram/internal/models"
	"photogram/internal/observability"
	"photogram/internal/repository"
)

const maxCommentLen = 2000

// CommentService handles comment creation, editing and deletion.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	audit       *logging.AuditLogger
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository, audit *logging.AuditLogger) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo, audit: audit}
}

// CreateComment validates and stores a new comment by userID on postID.
// The parent post must exist.
func (s *CommentService) CreateComment(ctx context.Context, userID, postID uint, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Comment cannot be empty")
	}
	if len(text) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long")
	}

	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{Text: text, UserID: userID, PostID: postID}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.audit.CommentCreated(ctx, comment.ID, postID, userID, len(text))
	observability.EngagementEvents.WithLabelValues("comment").Inc()
	return comment, nil
}

// EditComment replaces the text of a comment whose ownership has already
// been verified by the gate.
func (s *CommentService) EditComment(ctx context.Context, comment *models.Comment, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.NewValidationError("Comment cannot be empty")
	}
	if len(text) > maxCommentLen {
		return models.NewValidationError("Comment too long")
	}

	oldText := comment.Text
	comment.Text = text
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return err
	}

	s.audit.CommentEdited(ctx, comment.ID, comment.UserID, oldText, text)
	return nil
}

// DeleteComment removes a comment.
func (s *CommentService) DeleteComment(ctx context.Context, comment *models.Comment) error {
	if err := s.commentRepo.Delete(ctx, comment.ID); err != nil {
		return err
	}

	s.audit.CommentDeleted(ctx, comment.ID, comment.PostID, comment.UserID)
	return nil
}
