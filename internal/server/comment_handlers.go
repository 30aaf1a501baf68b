package server

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"photogram/internal/middleware"
	"photogram/internal/models"
)

// AddComment stores a new comment on a post and returns to it in the feed.
func (s *Server) AddComment(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return models.NewUnauthorizedError("Authentication required")
	}

	postID, err := c.ParamsInt("postId")
	if err != nil || postID <= 0 {
		return models.NewValidationError("Invalid post ID")
	}

	if _, err := s.commentService.CreateComment(c.UserContext(), user.ID, uint(postID), c.FormValue("text")); err != nil {
		return err
	}
	if err := s.flash(c, "success", "Comment added!"); err != nil {
		return err
	}
	return c.Redirect(fmt.Sprintf("/home#post-%d", postID), fiber.StatusFound)
}

// EditCommentPage renders the edit form for an owned comment.
func (s *Server) EditCommentPage(c *fiber.Ctx) error {
	comment := middleware.TargetComment(c)
	return s.page(c, "edit_comment", fiber.Map{"comment": comment})
}

// EditComment replaces the text of an owned comment.
func (s *Server) EditComment(c *fiber.Ctx) error {
	comment := middleware.TargetComment(c)
	if err := s.commentService.EditComment(c.UserContext(), comment, c.FormValue("text")); err != nil {
		return err
	}
	if err := s.flash(c, "success", "Comment updated successfully!"); err != nil {
		return err
	}
	return c.Redirect(fmt.Sprintf("/home#post-%d", comment.PostID), fiber.StatusFound)
}

// DeleteComment removes an owned comment.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	comment := middleware.TargetComment(c)
	if err := s.commentService.DeleteComment(c.UserContext(), comment); err != nil {
		return err
	}
	if err := s.flash(c, "success", "Comment deleted successfully!"); err != nil {
		return err
	}
	return c.Redirect(fmt.Sprintf("/home#post-%d", comment.PostID), fiber.StatusFound)
}
