package server

import (
	"github.com/gofiber/fiber/v2"

	"photogram/internal/middleware"
	"photogram/internal/models"
)

// Follow creates a follow edge from the authenticated user to :userId.
func (s *Server) Follow(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return models.NewUnauthorizedError("Authentication required")
	}

	followedID, err := c.ParamsInt("userId")
	if err != nil || followedID <= 0 {
		return models.NewValidationError("Invalid user ID")
	}

	followed, err := s.followService.Follow(c.UserContext(), user, uint(followedID))
	if err != nil {
		return err
	}
	return s.flashAndRedirect(c, "success", "You are now following "+followed.Username, "/home")
}

// Unfollow removes the follow edge from the authenticated user to :userId.
func (s *Server) Unfollow(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return models.NewUnauthorizedError("Authentication required")
	}

	followedID, err := c.ParamsInt("userId")
	if err != nil || followedID <= 0 {
		return models.NewValidationError("Invalid user ID")
	}

	followed, err := s.followService.Unfollow(c.UserContext(), user, uint(followedID))
	if err != nil {
		return err
	}
	return s.flashAndRedirect(c, "info", "You unfollowed "+followed.Username, "/home")
}
