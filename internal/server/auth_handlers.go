package server

import (
	"github.com/gofiber/fiber/v2"

	"photogram/internal/middleware"
	"photogram/internal/service"
)

// Index routes the visitor: authenticated users land on the feed, everyone
// else on the login page.
func (s *Server) Index(c *fiber.Ctx) error {
	if _, ok := middleware.CurrentUser(c); ok {
		return c.Redirect("/home", fiber.StatusFound)
	}
	return c.Redirect("/login", fiber.StatusFound)
}

// LoginPage renders the login form. Already-authenticated users are sent to
// the feed instead.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	if _, ok := middleware.CurrentUser(c); ok {
		return c.Redirect("/home", fiber.StatusFound)
	}
	return s.page(c, "login", fiber.Map{})
}

// Login verifies credentials and establishes a fresh session. The previous
// session token, if any, is destroyed so the login rotates the token.
func (s *Server) Login(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := s.authService.Login(ctx, c.FormValue("username"), c.FormValue("password"))
	if err != nil {
		return err
	}

	oldToken := middleware.SessionToken(c)
	nextURL := s.consumeNextURL(c, oldToken)
	if oldToken != "" {
		if err := s.sessions.Destroy(ctx, oldToken); err != nil {
			return err
		}
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return err
	}
	c.Locals(middleware.LocalsSessionToken, token)
	c.Locals(middleware.LocalsCurrentUser, user)
	s.setSessionCookie(c, token)

	if nextURL == "" {
		nextURL = "/home"
	}
	return s.flashAndRedirect(c, "success", "Login successful!", nextURL)
}

// RegisterPage renders the registration form.
func (s *Server) RegisterPage(c *fiber.Ctx) error {
	if _, ok := middleware.CurrentUser(c); ok {
		return c.Redirect("/home", fiber.StatusFound)
	}
	return s.page(c, "register", fiber.Map{})
}

// Register creates an account and logs the new user straight in.
func (s *Server) Register(c *fiber.Ctx) error {
	ctx := c.UserContext()

	user, err := s.authService.Register(ctx, service.RegisterInput{
		Username:        c.FormValue("username"),
		Password:        c.FormValue("password"),
		ConfirmPassword: c.FormValue("confirm_password"),
	})
	if err != nil {
		return err
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return err
	}
	c.Locals(middleware.LocalsSessionToken, token)
	c.Locals(middleware.LocalsCurrentUser, user)
	s.setSessionCookie(c, token)

	return s.flashAndRedirect(c, "success", "Registration successful! Welcome to Photogram!", "/home")
}

// Logout destroys the session and clears the cookie.
func (s *Server) Logout(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if user, ok := middleware.CurrentUser(c); ok {
		s.authService.Logout(ctx, user)
	}
	if token := middleware.SessionToken(c); token != "" {
		if err := s.sessions.Destroy(ctx, token); err != nil {
			return err
		}
	}
	c.Locals(middleware.LocalsCurrentUser, nil)
	c.Locals(middleware.LocalsSessionToken, nil)
	s.clearSessionCookie(c)

	return s.flashAndRedirect(c, "info", "You have been logged out", "/login")
}
