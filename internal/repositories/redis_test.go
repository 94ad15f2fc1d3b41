package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/tallyho/internal/shared"
	"github.com/redis/go-redis/v9"
)

// unreachableStore points at a closed port so every command fails fast.
func unreachableStore() *RedisSessionStore {
	return NewRedisSessionStore(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	}))
}

func TestRedisSessionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("DialRedisSessionStore invalid url", func(t *testing.T) {
		_, err := DialRedisSessionStore(ctx, "http://not-redis")
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("key prefix", func(t *testing.T) {
		s := unreachableStore()
		defer s.Close()
		if got := s.key("abc"); got != "tallyho:session:abc" {
			t.Errorf("unexpected key %q", got)
		}
	})

	t.Run("connection failures are persistence errors", func(t *testing.T) {
		s := unreachableStore()
		defer s.Close()

		if _, err := s.Load(ctx, "tok"); !errors.Is(err, shared.ErrPersistence) {
			t.Errorf("expected ErrPersistence from Load, got %v", err)
		}
		if err := s.Save(ctx, "tok", "u", time.Now().Add(time.Hour)); !errors.Is(err, shared.ErrPersistence) {
			t.Errorf("expected ErrPersistence from Save, got %v", err)
		}
		if err := s.Delete(ctx, "tok"); !errors.Is(err, shared.ErrPersistence) {
			t.Errorf("expected ErrPersistence from Delete, got %v", err)
		}
	})
}
