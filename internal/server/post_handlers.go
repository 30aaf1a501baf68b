package server

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"photogram/internal/middleware"
	"photogram/internal/models"
	"photogram/internal/service"
)

// Home renders the feed: posts by the user and everyone they follow, newest
// first, plus follow suggestions. The assembly is the most query-heavy path
// in the application, so it is timed onto the performance channel.
func (s *Server) Home(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return models.NewUnauthorizedError("Authentication required")
	}

	var feed *service.HomeFeed
	err := s.audit.WithTiming(c.UserContext(), "home_feed", func(ctx context.Context) error {
		var err error
		feed, err = s.feedService.Home(ctx, user)
		return err
	})
	if err != nil {
		return err
	}

	return s.page(c, "home", fiber.Map{
		"user":            user,
		"posts":           feed.Posts,
		"liked_post_ids":  feed.LikedPostIDs,
		"suggested_users": feed.SuggestedUsers,
		"follower_count":  feed.FollowerCount,
	})
}

// CreatePost stores a new post for the authenticated user.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return models.NewUnauthorizedError("Authentication required")
	}

	if _, err := s.postService.CreatePost(c.UserContext(), user.ID, c.FormValue("caption")); err != nil {
		return err
	}
	return s.flashAndRedirect(c, "success", "Post created!", "/home")
}

// EditPostPage renders the edit form for a post the gate already verified
// the requester owns.
func (s *Server) EditPostPage(c *fiber.Ctx) error {
	post := middleware.TargetPost(c)
	return s.page(c, "edit_post", fiber.Map{"post": post})
}

// EditPost replaces the caption of an owned post.
func (s *Server) EditPost(c *fiber.Ctx) error {
	post := middleware.TargetPost(c)
	if err := s.postService.EditPost(c.UserContext(), post, c.FormValue("caption")); err != nil {
		return err
	}
	return s.flashAndRedirect(c, "success", "Post updated successfully!", "/home")
}

// DeletePost removes an owned post together with its likes and comments.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	post := middleware.TargetPost(c)
	if err := s.postService.DeletePost(c.UserContext(), post); err != nil {
		return err
	}
	return s.flashAndRedirect(c, "success", "Post deleted successfully!", "/home")
}

// ToggleLike flips the like state on a post and sends the user back to the
// post's position in the feed.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return models.NewUnauthorizedError("Authentication required")
	}

	postID, err := c.ParamsInt("postId")
	if err != nil || postID <= 0 {
		return models.NewValidationError("Invalid post ID")
	}

	post, err := s.postRepo.GetByID(c.UserContext(), uint(postID))
	if err != nil {
		return err
	}

	if _, err := s.postService.ToggleLike(c.UserContext(), user.ID, post); err != nil {
		return err
	}
	return c.Redirect(fmt.Sprintf("/home#post-%d", post.ID), fiber.StatusFound)
}
