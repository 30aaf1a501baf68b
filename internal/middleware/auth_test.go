package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"photogram/internal/database"
	"photogram/internal/logging"
	"photogram/internal/models"
	"photogram/internal/repository"
	"photogram/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type middlewareEnv struct {
	db       *gorm.DB
	store    *session.Store
	userRepo repository.UserRepository
	postRepo repository.PostRepository
	audit    *logging.AuditLogger
	security *bytes.Buffer
}

func setupMiddlewareEnv(t *testing.T) *middlewareEnv {
	t.Helper()

	db, err := database.ConnectTest()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	security := &bytes.Buffer{}
	ch := logging.NewChannels(func(name string) (io.Writer, error) {
		if name == logging.ChannelSecurity {
			return security, nil
		}
		return io.Discard, nil
	}, slog.LevelInfo, false)

	return &middlewareEnv{
		db:       db,
		store:    session.NewStore(client, time.Hour),
		userRepo: repository.NewUserRepository(db),
		postRepo: repository.NewPostRepository(db),
		audit:    logging.NewAuditLogger(ch),
		security: security,
	}
}

// newTestApp builds a fiber app with the application's error code mapping so
// gate failures surface with their real status codes.
func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var appErr *models.AppError
			if errors.As(err, &appErr) {
				switch appErr.Code {
				case "VALIDATION_ERROR":
					return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
				case "UNAUTHORIZED":
					return models.RespondWithError(c, fiber.StatusUnauthorized, appErr)
				case "FORBIDDEN":
					return models.RespondWithError(c, fiber.StatusForbidden, appErr)
				case "NOT_FOUND":
					return models.RespondWithError(c, fiber.StatusNotFound, appErr)
				}
			}
			return fiber.DefaultErrorHandler(c, err)
		},
	})
}

func (env *middlewareEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "x"}
	require.NoError(t, env.userRepo.Create(context.Background(), user))
	return user
}

func (env *middlewareEnv) sessionFor(t *testing.T, userID uint) string {
	t.Helper()
	token, err := env.store.Create(context.Background(), userID)
	require.NoError(t, err)
	return token
}

func sessionCookie(token string) *http.Cookie {
	return &http.Cookie{Name: session.CookieName, Value: token}
}

func TestResolveUser_BindsAuthenticatedUser(t *testing.T) {
	env := setupMiddlewareEnv(t)
	alice := env.createUser(t, "alice")
	token := env.sessionFor(t, alice.ID)

	app := newTestApp()
	app.Use(ResolveUser(env.store, env.userRepo, env.audit))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		return c.SendString(user.Username)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(sessionCookie(token))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "alice", string(body))
}

func TestResolveUser_NoCookieProceedsAnonymously(t *testing.T) {
	env := setupMiddlewareEnv(t)

	app := newTestApp()
	app.Use(ResolveUser(env.store, env.userRepo, env.audit))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		_, ok := CurrentUser(c)
		assert.False(t, ok)
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestResolveUser_StaleSessionIsDestroyed(t *testing.T) {
	env := setupMiddlewareEnv(t)

	// Session points at a user that does not exist.
	token := env.sessionFor(t, 999)

	app := newTestApp()
	app.Use(ResolveUser(env.store, env.userRepo, env.audit))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		_, ok := CurrentUser(c)
		assert.False(t, ok)
		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(sessionCookie(token))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The session is gone.
	_, ok, err := env.store.UserID(context.Background(), token)
	require.NoError(t, err)
	assert.False(t, ok)

	// And the incident is on the security channel. The payload key carries
	// "session", so the masking handler redacts the stale id itself.
	assert.Contains(t, env.security.String(), "invalid_session")
	assert.Contains(t, env.security.String(), logging.MaskMarker)
	assert.NotContains(t, env.security.String(), "999")
}

func TestLoginRequired_RedirectsAnonymousVisitor(t *testing.T) {
	env := setupMiddlewareEnv(t)

	app := newTestApp()
	app.Use(ResolveUser(env.store, env.userRepo, env.audit))
	app.Get("/home", LoginRequired(env.store, false), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/home", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	// The visitor got an anonymous session carrying the flash and the
	// originally requested URL.
	var token string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == session.CookieName {
			token = cookie.Value
		}
	}
	require.NotEmpty(t, token)

	ctx := context.Background()
	flashes, err := env.store.ConsumeFlashes(ctx, token)
	require.NoError(t, err)
	require.Len(t, flashes, 1)
	assert.Equal(t, "error", flashes[0].Level)
	assert.Equal(t, "Please login to access this page", flashes[0].Message)

	next, err := env.store.ConsumeNextURL(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "/home", next)
}

func TestLoginRequired_PassesAuthenticatedUser(t *testing.T) {
	env := setupMiddlewareEnv(t)
	alice := env.createUser(t, "alice")
	token := env.sessionFor(t, alice.ID)

	app := newTestApp()
	app.Use(ResolveUser(env.store, env.userRepo, env.audit))
	app.Get("/home", LoginRequired(env.store, false), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(sessionCookie(token))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginRequired_SecureCookieFlag(t *testing.T) {
	env := setupMiddlewareEnv(t)

	app := newTestApp()
	app.Use(ResolveUser(env.store, env.userRepo, env.audit))
	app.Get("/home", LoginRequired(env.store, true), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/home", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.Secure)
	assert.True(t, cookie.HttpOnly)
}

func TestPostOwnerRequired(t *testing.T) {
	env := setupMiddlewareEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	post := &models.Post{Caption: "mine", UserID: alice.ID}
	require.NoError(t, env.postRepo.Create(context.Background(), post))

	app := newTestApp()
	app.Use(ResolveUser(env.store, env.userRepo, env.audit))
	app.Post("/edit_post/:postId", PostOwnerRequired(env.postRepo, env.audit), func(c *fiber.Ctx) error {
		loaded := TargetPost(c)
		require.NotNil(t, loaded)
		return c.SendString(loaded.Caption)
	})

	t.Run("owner passes and handler gets the loaded post", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/edit_post/1", nil)
		req.AddCookie(sessionCookie(env.sessionFor(t, alice.ID)))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "mine", string(body))
	})

	t.Run("non-owner gets 403 with a security record", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/edit_post/1", nil)
		req.AddCookie(sessionCookie(env.sessionFor(t, bob.ID)))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Contains(t, env.security.String(), "unauthorized_access")
	})

	t.Run("missing post gets 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/edit_post/999", nil)
		req.AddCookie(sessionCookie(env.sessionFor(t, bob.ID)))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("garbage id gets 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/edit_post/abc", nil)
		req.AddCookie(sessionCookie(env.sessionFor(t, alice.ID)))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCommentOwnerRequired(t *testing.T) {
	env := setupMiddlewareEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	post := &models.Post{Caption: "p", UserID: alice.ID}
	require.NoError(t, env.postRepo.Create(context.Background(), post))
	commentRepo := repository.NewCommentRepository(env.db)
	comment := &models.Comment{Text: "c", UserID: bob.ID, PostID: post.ID}
	require.NoError(t, commentRepo.Create(context.Background(), comment))

	app := newTestApp()
	app.Use(ResolveUser(env.store, env.userRepo, env.audit))
	app.Post("/delete_comment/:commentId", CommentOwnerRequired(commentRepo, env.audit), func(c *fiber.Ctx) error {
		require.NotNil(t, TargetComment(c))
		return c.SendStatus(http.StatusOK)
	})

	// The comment belongs to Bob, not to the post's owner Alice.
	req := httptest.NewRequest(http.MethodPost, "/delete_comment/1", nil)
	req.AddCookie(sessionCookie(env.sessionFor(t, alice.ID)))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/delete_comment/1", nil)
	req.AddCookie(sessionCookie(env.sessionFor(t, bob.ID)))
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
