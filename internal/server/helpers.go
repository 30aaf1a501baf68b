package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"photogram/internal/middleware"
	"photogram/internal/session"
)

// ensureSession returns the request's session token, creating an anonymous
// session and setting the cookie when the request carried none. Flashes need
// a session to live on even before login.
func (s *Server) ensureSession(c *fiber.Ctx) (string, error) {
	if token := middleware.SessionToken(c); token != "" {
		return token, nil
	}
	token, err := s.sessions.Create(c.UserContext(), 0)
	if err != nil {
		return "", err
	}
	c.Locals(middleware.LocalsSessionToken, token)
	s.setSessionCookie(c, token)
	return token, nil
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string) {
	session.WriteCookie(c, token, s.config.IsProduction())
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	session.ClearCookie(c)
}

// consumeNextURL reads the stored post-login redirect. Losing the stored URL
// must never fail the login, so a read error is logged and the caller falls
// back to the default destination.
func (s *Server) consumeNextURL(c *fiber.Ctx, token string) string {
	nextURL, err := s.sessions.ConsumeNextURL(c.UserContext(), token)
	if err != nil {
		s.channels.Error.ErrorContext(c.UserContext(), "Failed to read post-login redirect",
			slog.String("error", err.Error()),
		)
		return ""
	}
	return nextURL
}

// flash queues a one-shot message on the request's session.
func (s *Server) flash(c *fiber.Ctx, level, message string) error {
	token, err := s.ensureSession(c)
	if err != nil {
		return err
	}
	return s.sessions.AddFlash(c.UserContext(), token, level, message)
}

// flashAndRedirect queues a message and answers with a 302, the shape every
// successful mutation uses.
func (s *Server) flashAndRedirect(c *fiber.Ctx, level, message, location string) error {
	if err := s.flash(c, level, message); err != nil {
		return err
	}
	return c.Redirect(location, fiber.StatusFound)
}

// consumeFlashes drains the session's queued messages for a page render.
func (s *Server) consumeFlashes(c *fiber.Ctx) []session.Flash {
	token := middleware.SessionToken(c)
	if token == "" {
		return []session.Flash{}
	}
	flashes, err := s.sessions.ConsumeFlashes(c.UserContext(), token)
	if err != nil || flashes == nil {
		return []session.Flash{}
	}
	return flashes
}

// page renders a page body: the named page, its data, and any pending
// flash messages.
func (s *Server) page(c *fiber.Ctx, name string, data fiber.Map) error {
	body := fiber.Map{
		"page":    name,
		"flashes": s.consumeFlashes(c),
	}
	for k, v := range data {
		body[k] = v
	}
	return c.JSON(body)
}
