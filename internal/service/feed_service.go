package service

import (
	"context"

	"photogram/internal/models"
	"photogram/internal/repository"
)

const suggestedUsersLimit = 5

// FeedService assembles the home page: posts by the user and everyone they
// follow, each with its comment thread, the set of posts the user liked, and
// follow suggestions.
type FeedService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository
	userRepo    repository.UserRepository
}

// HomeFeed is the assembled home page payload.
type HomeFeed struct {
	Posts          []*models.Post `json:"posts"`
	LikedPostIDs   []uint         `json:"liked_post_ids"`
	SuggestedUsers []models.User  `json:"suggested_users"`
	FollowerCount  int64          `json:"follower_count"`
}

func NewFeedService(postRepo repository.PostRepository, commentRepo repository.CommentRepository, followRepo repository.FollowRepository, userRepo repository.UserRepository) *FeedService {
	return &FeedService{postRepo: postRepo, commentRepo: commentRepo, followRepo: followRepo, userRepo: userRepo}
}

// Home builds the feed for user: own posts plus followed users' posts,
// newest first, with each post's comments oldest first.
func (s *FeedService) Home(ctx context.Context, user *models.User) (*HomeFeed, error) {
	followingIDs, err := s.followRepo.FollowingIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	authorIDs := append(followingIDs, user.ID)

	posts, err := s.postRepo.Feed(ctx, authorIDs, user.ID)
	if err != nil {
		return nil, err
	}
	for _, post := range posts {
		comments, err := s.commentRepo.ListByPost(ctx, post.ID)
		if err != nil {
			return nil, err
		}
		post.Comments = comments
	}

	likedIDs, err := s.postRepo.LikedPostIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	suggested, err := s.userRepo.ListSuggested(ctx, authorIDs, suggestedUsersLimit)
	if err != nil {
		return nil, err
	}

	followers, err := s.followRepo.FollowerCount(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &HomeFeed{
		Posts:          posts,
		LikedPostIDs:   likedIDs,
		SuggestedUsers: suggested,
		FollowerCount:  followers,
	}, nil
}
