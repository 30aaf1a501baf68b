// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"photogram/internal/models"

	"gorm.io/gorm"
)

// ErrAlreadyLiked is returned when the storage layer rejects a second like
// for the same (user, post) pair via the uniqueness constraint.
var ErrAlreadyLiked = errors.New("post already liked by user")

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Feed(ctx context.Context, userIDs []uint, currentUserID uint) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	EngagementCounts(ctx context.Context, postID uint) (likes int64, comments int64, err error)
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	LikedPostIDs(ctx context.Context, userID uint) ([]uint, error)
	Like(ctx context.Context, userID, postID uint) error
	Unlike(ctx context.Context, userID, postID uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// applyPostDetails selects the computed engagement columns alongside the
// post row: like/comment counts and whether currentUserID liked the post.
func (r *postRepository) applyPostDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	return db.Model(&models.Post{}).
		Select(`posts.*,
			(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count,
			(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count,
			(SELECT COUNT(*) > 0 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS liked`,
			currentUserID)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// Feed returns posts authored by any of userIDs, newest first, with
// engagement columns computed for currentUserID.
func (r *postRepository) Feed(ctx context.Context, userIDs []uint, currentUserID uint) ([]*models.Post, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var posts []*models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Where("posts.user_id IN ?", userIDs).
		Order("posts.created_at DESC, posts.id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Model(post).Update("caption", post.Caption).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes a post and its children. Likes and comments go first,
// inside one transaction, so no like or comment ever dangles.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) EngagementCounts(ctx context.Context, postID uint) (int64, int64, error) {
	var likes, comments int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&likes).Error; err != nil {
		return 0, 0, models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&comments).Error; err != nil {
		return 0, 0, models.NewInternalError(err)
	}
	return likes, comments, nil
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *postRepository) LikedPostIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ?", userID).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// Like inserts the (user, post) pair. A concurrent duplicate insert loses to
// the unique index and surfaces as ErrAlreadyLiked; the application adds no
// locking of its own.
func (r *postRepository) Like(ctx context.Context, userID, postID uint) error {
	like := models.Like{UserID: userID, PostID: postID}
	if err := r.db.WithContext(ctx).Create(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyLiked
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
