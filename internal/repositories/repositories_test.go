package repositories

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/tallyho/internal/models"
	"github.com/desertthunder/tallyho/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func mustCreate(t *testing.T, repo *UserRepository, user *models.User) *models.User {
	t.Helper()
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(ctx, db, "users")
		if err != nil {
			t.Fatalf("NextSequence() error = %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(ctx, db, "missing"); err == nil {
		t.Error("expected error for a table without a sequence")
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := mustCreate(t, repo, models.NewLocalUser(0, "alice", "hash"))

		if user.ID() == "" {
			t.Error("user ID should be set after creation")
		}
		if user.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", user.Sequence())
		}
	})

	t.Run("Create duplicate username", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		first := mustCreate(t, repo, models.NewLocalUser(0, "alice", "hash-1"))

		err := repo.Create(ctx, models.NewLocalUser(0, "alice", "hash-2"))
		if !errors.Is(err, shared.ErrDuplicateUser) {
			t.Fatalf("expected ErrDuplicateUser, got %v", err)
		}

		stored, err := repo.Get(ctx, first.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if stored.PasswordHash() != "hash-1" {
			t.Errorf("first account should be untouched, got hash %q", stored.PasswordHash())
		}
	})

	t.Run("Create invalid", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		err := repo.Create(ctx, models.NewLocalUser(0, "alice", ""))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := mustCreate(t, repo, models.NewLocalUser(0, "alice", "hash"))

		retrieved, err := repo.Get(ctx, user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		if retrieved.ID() != user.ID() || retrieved.Username() != "alice" {
			t.Errorf("unexpected user %s/%s", retrieved.ID(), retrieved.Username())
		}
		if retrieved.Items() == nil || len(retrieved.Items()) != 0 {
			t.Errorf("expected empty non-nil items, got %v", retrieved.Items())
		}

		if _, err := repo.Get(ctx, "missing"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("GetByUsername", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		mustCreate(t, repo, models.NewLocalUser(0, "alice", "hash"))

		user, err := repo.GetByUsername(ctx, "alice")
		if err != nil {
			t.Fatalf("failed to get user by username: %v", err)
		}
		if user.PasswordHash() != "hash" {
			t.Errorf("expected hash to be loaded, got %q", user.PasswordHash())
		}

		if _, err := repo.GetByUsername(ctx, "bob"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("GetByProviderID", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		g := mustCreate(t, repo, models.NewExternalUser(0, models.ProviderGoogle, "g-1", "Alice"))
		f := mustCreate(t, repo, models.NewExternalUser(0, models.ProviderFacebook, "g-1", ""))

		got, err := repo.GetByProviderID(ctx, models.ProviderGoogle, "g-1")
		if err != nil {
			t.Fatalf("failed to get google user: %v", err)
		}
		if got.ID() != g.ID() || got.DisplayName() != "Alice" {
			t.Errorf("expected google account, got %s", got.ID())
		}

		got, err = repo.GetByProviderID(ctx, models.ProviderFacebook, "g-1")
		if err != nil {
			t.Fatalf("failed to get facebook user: %v", err)
		}
		if got.ID() != f.ID() {
			t.Error("provider ids must not be shared across providers")
		}

		if _, err := repo.GetByProviderID(ctx, models.ProviderLocal, "alice"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := mustCreate(t, repo, models.NewLocalUser(0, "alice", "hash"))

		user.SetDisplayName("Alice A.")
		if err := repo.Update(ctx, user); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}

		got, _ := repo.Get(ctx, user.ID())
		if got.DisplayName() != "Alice A." {
			t.Errorf("expected updated display name, got %q", got.DisplayName())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := mustCreate(t, repo, models.NewLocalUser(0, "alice", "hash"))

		if err := repo.Delete(ctx, user.ID()); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		if _, err := repo.Get(ctx, user.ID()); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound after delete, got %v", err)
		}

		if err := repo.Delete(ctx, user.ID()); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound on second delete, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		mustCreate(t, repo, models.NewLocalUser(0, "alice", "hash"))
		mustCreate(t, repo, models.NewLocalUser(0, "bob", "hash"))
		mustCreate(t, repo, models.NewExternalUser(0, models.ProviderGoogle, "g-1", "Carol"))

		all, err := repo.List(ctx, map[string]any{})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 users, got %d", len(all))
		}
		if all[0].Username() != "alice" || all[2].GoogleID() != "g-1" {
			t.Error("expected users ordered by sequence")
		}

		filtered, err := repo.List(ctx, map[string]any{"username": "bob"})
		if err != nil || len(filtered) != 1 {
			t.Errorf("expected 1 user named bob, got %d (%v)", len(filtered), err)
		}

		local, err := repo.List(ctx, map[string]any{"provider": models.ProviderLocal})
		if err != nil || len(local) != 2 {
			t.Errorf("expected 2 local users, got %d (%v)", len(local), err)
		}

		google, err := repo.List(ctx, map[string]any{"provider": models.ProviderGoogle})
		if err != nil || len(google) != 1 {
			t.Errorf("expected 1 google user, got %d (%v)", len(google), err)
		}
	})
}

func TestUserRepositoryItems(t *testing.T) {
	ctx := context.Background()

	t.Run("AppendItem preserves order and duplicates", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := mustCreate(t, repo, models.NewLocalUser(0, "alice", "hash"))

		for _, item := range []string{"milk", "eggs", "milk", `quote " and [brackets]`} {
			if err := repo.AppendItem(ctx, user.ID(), item); err != nil {
				t.Fatalf("failed to append %q: %v", item, err)
			}
		}

		items, err := repo.Items(ctx, user.ID())
		if err != nil {
			t.Fatalf("failed to get items: %v", err)
		}

		want := []string{"milk", "eggs", "milk", `quote " and [brackets]`}
		if !slices.Equal(items, want) {
			t.Errorf("expected %v, got %v", want, items)
		}
	})

	t.Run("PullItem removes all occurrences", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := mustCreate(t, repo, models.NewLocalUser(0, "alice", "hash"))

		for _, item := range []string{"a", "milk", "b", "milk", "c"} {
			if err := repo.AppendItem(ctx, user.ID(), item); err != nil {
				t.Fatalf("failed to append: %v", err)
			}
		}

		if err := repo.PullItem(ctx, user.ID(), "milk"); err != nil {
			t.Fatalf("failed to pull: %v", err)
		}

		items, _ := repo.Items(ctx, user.ID())
		if !slices.Equal(items, []string{"a", "b", "c"}) {
			t.Errorf("expected [a b c], got %v", items)
		}

		if err := repo.PullItem(ctx, user.ID(), "absent"); err != nil {
			t.Fatalf("pulling an absent item should succeed: %v", err)
		}
		items, _ = repo.Items(ctx, user.ID())
		if len(items) != 3 {
			t.Errorf("expected no change, got %v", items)
		}
	})

	t.Run("PullItem last items leaves empty list", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := mustCreate(t, repo, models.NewLocalUser(0, "alice", "hash"))

		_ = repo.AppendItem(ctx, user.ID(), "only")
		if err := repo.PullItem(ctx, user.ID(), "only"); err != nil {
			t.Fatalf("failed to pull: %v", err)
		}

		items, err := repo.Items(ctx, user.ID())
		if err != nil {
			t.Fatalf("failed to get items: %v", err)
		}
		if items == nil || len(items) != 0 {
			t.Errorf("expected empty non-nil list, got %#v", items)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		if err := repo.AppendItem(ctx, "missing", "x"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
		if err := repo.PullItem(ctx, "missing", "x"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
		if _, err := repo.Items(ctx, "missing"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("SeedIfEmpty", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := mustCreate(t, repo, models.NewLocalUser(0, "alice", "hash"))
		seed := []string{"one", "two", "three"}

		seeded, err := repo.SeedIfEmpty(ctx, user.ID(), seed)
		if err != nil || !seeded {
			t.Fatalf("expected first seed to apply, got %v, %v", seeded, err)
		}

		seeded, err = repo.SeedIfEmpty(ctx, user.ID(), seed)
		if err != nil || seeded {
			t.Fatalf("expected second seed to be skipped, got %v, %v", seeded, err)
		}

		items, _ := repo.Items(ctx, user.ID())
		if !slices.Equal(items, seed) {
			t.Errorf("expected %v, got %v", seed, items)
		}
	})

	t.Run("SeedIfEmpty concurrent callers seed once", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		user := mustCreate(t, repo, models.NewLocalUser(0, "alice", "hash"))

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			count int
		)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				seeded, err := repo.SeedIfEmpty(ctx, user.ID(), []string{"x", "y", "z"})
				if err != nil {
					t.Errorf("SeedIfEmpty() error = %v", err)
					return
				}
				if seeded {
					mu.Lock()
					count++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if count != 1 {
			t.Errorf("expected exactly one seed, got %d", count)
		}
		items, _ := repo.Items(ctx, user.ID())
		if len(items) != 3 {
			t.Errorf("expected 3 items, got %v", items)
		}
	})
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Save and Load", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		if err := repo.Save(ctx, "tok", "user-1", time.Now().Add(time.Hour)); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		userID, err := repo.Load(ctx, "tok")
		if err != nil {
			t.Fatalf("failed to load session: %v", err)
		}
		if userID != "user-1" {
			t.Errorf("expected user-1, got %s", userID)
		}
	})

	t.Run("Load unknown", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		if _, err := repo.Load(ctx, "nope"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("Load expired", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		if err := repo.Save(ctx, "old", "user-1", time.Now().Add(-time.Minute)); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}
		if _, err := repo.Load(ctx, "old"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound for expired session, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		_ = repo.Save(ctx, "tok", "user-1", time.Now().Add(time.Hour))

		if err := repo.Delete(ctx, "tok"); err != nil {
			t.Fatalf("failed to delete session: %v", err)
		}
		if _, err := repo.Load(ctx, "tok"); !errors.Is(err, shared.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
		}
		if err := repo.Delete(ctx, "tok"); err != nil {
			t.Errorf("deleting twice should not fail: %v", err)
		}
	})

	t.Run("PurgeExpired", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		_ = repo.Save(ctx, "live", "u", time.Now().Add(time.Hour))
		_ = repo.Save(ctx, "dead-1", "u", time.Now().Add(-time.Hour))
		_ = repo.Save(ctx, "dead-2", "u", time.Now().Add(-time.Minute))

		n, err := repo.PurgeExpired(ctx)
		if err != nil {
			t.Fatalf("failed to purge: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 purged sessions, got %d", n)
		}
		if _, err := repo.Load(ctx, "live"); err != nil {
			t.Errorf("live session should survive purge: %v", err)
		}
	})
}
