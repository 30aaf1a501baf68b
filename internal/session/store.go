// Package session implements the server-side session store. A session is an
// opaque token held by the browser; the store keeps at most one
// authenticated user identifier per token, plus flash messages and the
// post-login redirect URL.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"photogram/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CookieName is the browser cookie carrying the session token.
const CookieName = "photogram_session"

// Flash is a one-shot user-facing message consumed on the next page render.
type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Store persists sessions in Redis with a sliding TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a session store around an initialized Redis client.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Connect dials Redis at addr (host:port or redis:// URL) and verifies the
// connection.
func Connect(addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// storeErr counts the failure and wraps it with the failing operation.
func storeErr(op string, err error) error {
	observability.SessionStoreErrors.WithLabelValues(op).Inc()
	return fmt.Errorf("session store %s: %w", op, err)
}

func sessionKey(token string) string {
	return "session:" + token
}

func flashKey(token string) string {
	return "session:" + token + ":flash"
}

// Create establishes a new session. userID 0 creates an anonymous session
// (used to carry flashes for logged-out visitors).
func (s *Store) Create(ctx context.Context, userID uint) (string, error) {
	token := uuid.NewString()
	key := sessionKey(token)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, "user_id", strconv.FormatUint(uint64(userID), 10))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", storeErr("create", err)
	}
	return token, nil
}

// UserID resolves the authenticated user for a token. The second return is
// false when the session does not exist or holds no authenticated user.
func (s *Store) UserID(ctx context.Context, token string) (uint, bool, error) {
	if token == "" {
		return 0, false, nil
	}
	val, err := s.client.HGet(ctx, sessionKey(token), "user_id").Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storeErr("read", err)
	}

	id, err := strconv.ParseUint(val, 10, 32)
	if err != nil || id == 0 {
		return 0, false, nil
	}

	// Sliding expiry: touching a live session extends it.
	s.client.Expire(ctx, sessionKey(token), s.ttl)
	return uint(id), true, nil
}

// Destroy removes the session and everything attached to it.
func (s *Store) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, sessionKey(token), flashKey(token)).Err(); err != nil {
		return storeErr("destroy", err)
	}
	return nil
}

// AddFlash queues a one-shot message on the session.
func (s *Store) AddFlash(ctx context.Context, token, level, message string) error {
	key := flashKey(token)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, level+"|"+message)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return storeErr("add_flash", err)
	}
	return nil
}

// ConsumeFlashes returns and clears all queued flash messages.
func (s *Store) ConsumeFlashes(ctx context.Context, token string) ([]Flash, error) {
	if token == "" {
		return nil, nil
	}
	key := flashKey(token)

	pipe := s.client.TxPipeline()
	rangeCmd := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, storeErr("consume_flashes", err)
	}

	raw := rangeCmd.Val()
	flashes := make([]Flash, 0, len(raw))
	for _, entry := range raw {
		level, message, found := strings.Cut(entry, "|")
		if !found {
			level, message = "info", entry
		}
		flashes = append(flashes, Flash{Level: level, Message: message})
	}
	return flashes, nil
}

// SetNextURL stores the originally requested URL for post-login redirect.
func (s *Store) SetNextURL(ctx context.Context, token, url string) error {
	key := sessionKey(token)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, "next_url", url)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return storeErr("set_next_url", err)
	}
	return nil
}

// ConsumeNextURL returns and clears the stored post-login redirect URL.
func (s *Store) ConsumeNextURL(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", nil
	}
	key := sessionKey(token)
	val, err := s.client.HGet(ctx, key, "next_url").Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", storeErr("read_next_url", err)
	}
	s.client.HDel(ctx, key, "next_url")
	return val, nil
}
