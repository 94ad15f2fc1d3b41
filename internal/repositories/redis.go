package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tallyho/internal/shared"
	"github.com/redis/go-redis/v9"
)

const redisSessionPrefix = "tallyho:session:"

var _ SessionStore = (*RedisSessionStore)(nil)

// RedisSessionStore implements [SessionStore] with one key per token; expiry is enforced by Redis TTLs.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore wraps an existing client.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// DialRedisSessionStore parses a redis:// URL, connects and pings the server.
func DialRedisSessionStore(ctx context.Context, url string) (*RedisSessionStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: redis url: %v", shared.ErrInvalidConfig, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}

	return NewRedisSessionStore(client), nil
}

func (s *RedisSessionStore) key(token string) string {
	return redisSessionPrefix + token
}

// Save stores token for userID; a non-positive remaining lifetime deletes the key instead.
func (s *RedisSessionStore) Save(ctx context.Context, token, userID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return s.Delete(ctx, token)
	}

	if err := s.client.Set(ctx, s.key(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("%w: failed to save session: %v", shared.ErrPersistence, err)
	}
	return nil
}

// Load returns the user id stored for token.
func (s *RedisSessionStore) Load(ctx context.Context, token string) (string, error) {
	userID, err := s.client.Get(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", shared.ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to load session: %v", shared.ErrPersistence, err)
	}
	return userID, nil
}

// Delete removes token.
func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("%w: failed to delete session: %v", shared.ErrPersistence, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}
