package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/tallyho/internal/shared"
)

func TestBootstrap(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("Defaults", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Database.Path = ":memory:"

		rt, err := Bootstrap(context.Background(), cfg, logger)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer rt.Close()

		if len(rt.App.providers) != 0 {
			t.Errorf("expected no providers without credentials, got %d", len(rt.App.providers))
		}

		w := httptest.NewRecorder()
		rt.App.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})

	t.Run("Enabled Providers", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Database.Path = ":memory:"
		cfg.Session.Secret = "configured"
		cfg.Credentials.Google = shared.ProviderConfig{ClientID: "gid", ClientSecret: "gsecret"}
		cfg.Credentials.Facebook = shared.ProviderConfig{ClientID: "fid", ClientSecret: "fsecret", RedirectURI: "https://todo.test/fb"}

		rt, err := Bootstrap(context.Background(), cfg, logger)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer rt.Close()

		if len(rt.App.providers) != 2 {
			t.Fatalf("expected 2 providers, got %d", len(rt.App.providers))
		}

		w := httptest.NewRecorder()
		rt.App.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/google", nil))
		if w.Code != http.StatusFound {
			t.Errorf("expected redirect to consent page, got %d", w.Code)
		}
	})

	t.Run("Unreachable Redis", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Database.Path = ":memory:"
		cfg.Session.Backend = shared.SessionBackendRedis
		cfg.Session.RedisURL = "not a url"

		_, err := Bootstrap(context.Background(), cfg, logger)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
