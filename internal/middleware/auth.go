package middleware

import (
	"fmt"

	"photogram/internal/logging"
	"photogram/internal/models"
	"photogram/internal/observability"
	"photogram/internal/repository"
	"photogram/internal/session"

	"github.com/gofiber/fiber/v2"
)

// ResolveUser loads the authenticated user referenced by the session cookie
// and binds it to the request. A session pointing at a user that no longer
// exists is destroyed and reported as a security event. Requests without a
// valid session proceed anonymously.
func ResolveUser(store *session.Store, userRepo repository.UserRepository, audit *logging.AuditLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(session.CookieName)
		if token == "" {
			return c.Next()
		}
		c.Locals(LocalsSessionToken, token)

		ctx := c.UserContext()
		userID, ok, err := store.UserID(ctx, token)
		if err != nil {
			return err
		}
		if !ok {
			return c.Next()
		}

		user, err := userRepo.GetByID(ctx, userID)
		if err != nil {
			if models.IsNotFound(err) {
				// Session references a deleted user; clear it.
				if destroyErr := store.Destroy(ctx, token); destroyErr != nil {
					return destroyErr
				}
				audit.SecurityEvent(ctx, "invalid_session",
					"Session contained invalid user_id", map[string]any{
						"session_user_id": userID,
					})
				return c.Next()
			}
			return err
		}

		c.Locals(LocalsCurrentUser, user)
		c.SetUserContext(logging.WithUser(ctx, user.ID, user.Username))
		return c.Next()
	}
}

// CurrentUser returns the authenticated user bound to the request, if any.
func CurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(LocalsCurrentUser).(*models.User)
	return user, ok
}

// SessionToken returns the request's session token, or "".
func SessionToken(c *fiber.Ctx) string {
	token, _ := c.Locals(LocalsSessionToken).(string)
	return token
}

// LoginRequired short-circuits unauthenticated requests with a redirect to
// the login page, queueing a flash message and preserving the originally
// requested URL for the post-login redirect. secureCookies marks any cookie
// it sets as HTTPS-only.
func LoginRequired(store *session.Store, secureCookies bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUser(c); ok {
			return c.Next()
		}

		ctx := c.UserContext()
		token := SessionToken(c)
		if token == "" {
			// Anonymous visitors get a session to carry the flash.
			created, err := store.Create(ctx, 0)
			if err != nil {
				return err
			}
			token = created
			session.WriteCookie(c, token, secureCookies)
		}

		if err := store.SetNextURL(ctx, token, c.OriginalURL()); err != nil {
			return err
		}
		if err := store.AddFlash(ctx, token, "error", "Please login to access this page"); err != nil {
			return err
		}
		return c.Redirect("/login", fiber.StatusFound)
	}
}

// PostOwnerRequired loads the post named by the :postId route parameter and
// enforces ownership: 404 when the post does not exist, 403 with a security
// record when the requester is not the owner. The loaded post is stashed in
// locals so handlers do not reload it.
func PostOwnerRequired(postRepo repository.PostRepository, audit *logging.AuditLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return models.NewUnauthorizedError("Authentication required")
		}

		postID, err := c.ParamsInt("postId")
		if err != nil || postID <= 0 {
			return models.NewValidationError("Invalid post ID")
		}

		post, err := postRepo.GetByID(c.UserContext(), uint(postID))
		if err != nil {
			return err
		}

		if post.UserID != user.ID {
			audit.UnauthorizedAccess(c.UserContext(), "post", fmt.Sprint(post.ID), c.Route().Path, user.ID, post.UserID)
			observability.UnauthorizedAccessAttempts.WithLabelValues("post").Inc()
			return models.NewForbiddenError("You do not own this post")
		}

		c.Locals(LocalsTargetPost, post)
		return c.Next()
	}
}

// CommentOwnerRequired is the comment counterpart of PostOwnerRequired,
// keyed by the :commentId route parameter.
func CommentOwnerRequired(commentRepo repository.CommentRepository, audit *logging.AuditLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return models.NewUnauthorizedError("Authentication required")
		}

		commentID, err := c.ParamsInt("commentId")
		if err != nil || commentID <= 0 {
			return models.NewValidationError("Invalid comment ID")
		}

		comment, err := commentRepo.GetByID(c.UserContext(), uint(commentID))
		if err != nil {
			return err
		}

		if comment.UserID != user.ID {
			audit.UnauthorizedAccess(c.UserContext(), "comment", fmt.Sprint(comment.ID), c.Route().Path, user.ID, comment.UserID)
			observability.UnauthorizedAccessAttempts.WithLabelValues("comment").Inc()
			return models.NewForbiddenError("You do not own this comment")
		}

		c.Locals(LocalsTargetComment, comment)
		return c.Next()
	}
}

// TargetPost returns the post loaded by PostOwnerRequired.
func TargetPost(c *fiber.Ctx) *models.Post {
	post, _ := c.Locals(LocalsTargetPost).(*models.Post)
	return post
}

// TargetComment returns the comment loaded by CommentOwnerRequired.
func TargetComment(c *fiber.Ctx) *models.Comment {
	comment, _ := c.Locals(LocalsTargetComment).(*models.Comment)
	return comment
}
