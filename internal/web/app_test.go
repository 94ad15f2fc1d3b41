package web

import (
	"bytes"
	"errors"
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tallyho/internal/models"
	"github.com/desertthunder/tallyho/internal/repositories"
	"github.com/desertthunder/tallyho/internal/server"
	"github.com/desertthunder/tallyho/internal/services"
	"github.com/desertthunder/tallyho/internal/shared"
	tu "github.com/desertthunder/tallyho/internal/testing"
	"golang.org/x/crypto/bcrypt"
)

var checkboxRe = regexp.MustCompile(`name="checkbox" value="([^"]*)"`)

type fixture struct {
	srv   *httptest.Server
	users *repositories.UserRepository
	fake  *tu.FakeProvider
	app   *App
}

// newFixture serves a fully wired App, with Google backed by a fake provider.
func newFixture(t *testing.T, clock func() time.Time) *fixture {
	t.Helper()

	var handler http.Handler
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	db := tu.NewTestDB(t)
	users := repositories.NewUserRepository(db)
	logger := shared.NewLogger(io.Discard)

	sessions, err := server.NewSessionManager(server.SessionOpts{
		Store:  repositories.NewSessionRepository(db),
		Users:  users,
		Secret: "test-secret",
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("failed to create sessions: %v", err)
	}

	identity := services.NewIdentityService(services.IdentityOpts{Users: users, BcryptCost: bcrypt.MinCost, Logger: logger})

	fake := tu.NewFakeProvider(t)
	google, err := services.NewOAuthProvider(services.OAuthOpts{
		Key: models.ProviderGoogle,
		Credentials: shared.ProviderConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			RedirectURI:  srv.URL + "/auth/google/callback",
		},
		Endpoint:   fake.Endpoint(),
		ProfileURL: fake.ProfileURL(),
		Identity:   identity,
		HTTPClient: fake.Server.Client(),
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	app, err := NewApp(AppOpts{
		Lists:     services.NewListService(users, logger),
		Local:     services.NewLocalProvider(identity),
		Sessions:  sessions,
		Providers: []server.OAuthProvider{google},
		Logger:    logger,
		Clock:     clock,
	})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	handler = app.Handler()

	return &fixture{srv: srv, users: users, fake: fake, app: app}
}

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

// fetch performs the request, follows redirects and returns the final path and body.
func fetch(t *testing.T, resp *http.Response, err error) (string, string) {
	t.Helper()
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp.Request.URL.Path, string(body)
}

func (f *fixture) get(t *testing.T, c *http.Client, path string) (string, string) {
	t.Helper()
	resp, err := c.Get(f.srv.URL + path)
	return fetch(t, resp, err)
}

func (f *fixture) post(t *testing.T, c *http.Client, path string, form url.Values) (string, string) {
	t.Helper()
	resp, err := c.PostForm(f.srv.URL+path, form)
	return fetch(t, resp, err)
}

func items(body string) []string {
	var out []string
	for _, m := range checkboxRe.FindAllStringSubmatch(body, -1) {
		out = append(out, html.UnescapeString(m[1]))
	}
	return out
}

func TestApp(t *testing.T) {
	t.Run("End To End", func(t *testing.T) {
		f := newFixture(t, nil)
		c := newClient(t)

		path, body := f.post(t, c, "/register", url.Values{"username": {"alice"}, "password": {"pw1"}})
		if path != "/" {
			t.Fatalf("expected list view, got %s", path)
		}
		if got := items(body); !slices.Equal(got, services.OnboardingItems) {
			t.Fatalf("expected onboarding items, got %v", got)
		}
		if !strings.Contains(body, "<h1>Today</h1>") {
			t.Error("expected Today heading")
		}

		_, body = f.post(t, c, "/", url.Values{"newItem": {"buy milk"}})
		got := items(body)
		if len(got) != 4 || got[3] != "buy milk" {
			t.Fatalf("expected buy milk appended, got %v", got)
		}

		_, body = f.post(t, c, "/delete", url.Values{"checkbox": {"buy milk"}})
		if got := items(body); !slices.Equal(got, services.OnboardingItems) {
			t.Fatalf("expected onboarding items again, got %v", got)
		}
	})

	t.Run("Anonymous", func(t *testing.T) {
		f := newFixture(t, nil)
		c := newClient(t)

		for _, tt := range []struct {
			method string
			path   string
		}{
			{http.MethodGet, "/"},
			{http.MethodPost, "/"},
			{http.MethodPost, "/delete"},
		} {
			var path string
			if tt.method == http.MethodGet {
				path, _ = f.get(t, c, tt.path)
			} else {
				path, _ = f.post(t, c, tt.path, url.Values{"newItem": {"x"}, "checkbox": {"x"}})
			}
			if path != "/login" {
				t.Errorf("%s %s: expected /login, got %s", tt.method, tt.path, path)
			}
		}
	})

	t.Run("Login", func(t *testing.T) {
		f := newFixture(t, nil)
		setup := newClient(t)
		f.post(t, setup, "/register", url.Values{"username": {"alice"}, "password": {"pw1"}})

		t.Run("empty fields", func(t *testing.T) {
			path, body := f.post(t, newClient(t), "/login", url.Values{"username": {""}, "password": {""}})
			if path != "/login" || !strings.Contains(body, "Empty Fields!") {
				t.Errorf("expected empty fields alert on /login, got %s", path)
			}
		})

		t.Run("wrong password", func(t *testing.T) {
			path, body := f.post(t, newClient(t), "/login", url.Values{"username": {"alice"}, "password": {"nope"}})
			if path != "/badlogin" || !strings.Contains(body, "Wrong Credentials!") {
				t.Errorf("expected wrong credentials alert on /badlogin, got %s", path)
			}
		})

		t.Run("unknown user", func(t *testing.T) {
			path, _ := f.post(t, newClient(t), "/login", url.Values{"username": {"bob"}, "password": {"pw1"}})
			if path != "/badlogin" {
				t.Errorf("expected /badlogin, got %s", path)
			}
		})

		t.Run("correct password", func(t *testing.T) {
			path, body := f.post(t, newClient(t), "/login", url.Values{"username": {"alice"}, "password": {"pw1"}})
			if path != "/" || len(items(body)) != 3 {
				t.Errorf("expected list view with 3 items, got %s", path)
			}
		})
	})

	t.Run("Register", func(t *testing.T) {
		f := newFixture(t, nil)
		f.post(t, newClient(t), "/register", url.Values{"username": {"alice"}, "password": {"pw1"}})

		t.Run("empty fields", func(t *testing.T) {
			path, body := f.post(t, newClient(t), "/register", url.Values{"username": {"carol"}})
			if path != "/register" || !strings.Contains(body, "Empty Fields!") {
				t.Errorf("expected empty fields alert on /register, got %s", path)
			}
		})

		t.Run("duplicate", func(t *testing.T) {
			path, body := f.post(t, newClient(t), "/register", url.Values{"username": {"alice"}, "password": {"other"}})
			if path != "/badregister" || !strings.Contains(body, "User already exist!") {
				t.Errorf("expected duplicate alert on /badregister, got %s", path)
			}

			if _, err := f.users.GetByUsername(t.Context(), "alice"); err != nil {
				t.Errorf("expected original account intact: %v", err)
			}
		})

		t.Run("password too long", func(t *testing.T) {
			form := url.Values{"username": {"dave"}, "password": {strings.Repeat("p", 73)}}
			path, body := f.post(t, newClient(t), "/register", form)
			if path != "/register" || !strings.Contains(body, "Invalid Password!") {
				t.Errorf("expected password alert on /register, got %s", path)
			}
			if strings.Contains(body, "User already exist!") {
				t.Error("expected no duplicate user alert")
			}
		})
	})

	t.Run("Logout", func(t *testing.T) {
		f := newFixture(t, nil)
		c := newClient(t)
		f.post(t, c, "/register", url.Values{"username": {"alice"}, "password": {"pw1"}})

		path, _ := f.get(t, c, "/logout")
		if path != "/login" {
			t.Errorf("expected /login after logout, got %s", path)
		}
	})

	t.Run("Google Sign In", func(t *testing.T) {
		f := newFixture(t, nil)
		f.fake.AddCode(f.fake.AuthorizeCode, tu.Profile{Sub: "g-1", Name: "Alice Smith"})
		c := newClient(t)

		path, body := f.get(t, c, "/auth/google")
		if path != "/" {
			t.Fatalf("expected list view, got %s", path)
		}
		if len(items(body)) != 3 {
			t.Errorf("expected onboarding items, got %v", items(body))
		}

		user, err := f.users.GetByProviderID(t.Context(), models.ProviderGoogle, "g-1")
		if err != nil {
			t.Fatalf("expected google account: %v", err)
		}
		if user.DisplayName() != "Alice Smith" {
			t.Errorf("expected display name, got %s", user.DisplayName())
		}
	})

	t.Run("Google Sign In Failure", func(t *testing.T) {
		f := newFixture(t, nil)
		c := newClient(t)

		path, _ := f.get(t, c, "/auth/google")
		if path != "/login" {
			t.Errorf("expected /login, got %s", path)
		}
	})

	t.Run("Provider Buttons", func(t *testing.T) {
		f := newFixture(t, nil)

		_, body := f.get(t, newClient(t), "/login")
		if !strings.Contains(body, `href="/auth/google"`) {
			t.Error("expected google button")
		}
		if strings.Contains(body, `href="/auth/facebook"`) {
			t.Error("expected no facebook button when disabled")
		}

		path, _ := f.get(t, newClient(t), "/auth/facebook")
		if path == "/" {
			t.Error("expected disabled provider to have no route")
		}
	})

	t.Run("Weekday Heading", func(t *testing.T) {
		monday := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
		f := newFixture(t, func() time.Time { return monday })
		c := newClient(t)

		_, body := f.post(t, c, "/register", url.Values{"username": {"alice"}, "password": {"pw1"}})
		if !strings.Contains(body, "<h1>Monday</h1>") {
			t.Error("expected Monday heading")
		}
	})

	t.Run("Health And Static", func(t *testing.T) {
		f := newFixture(t, nil)
		c := newClient(t)

		if _, body := f.get(t, c, "/healthz"); body != "ok" {
			t.Errorf("expected ok, got %q", body)
		}

		resp, err := c.Get(f.srv.URL + "/static/styles.css")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("Render Write Failure Is Logged", func(t *testing.T) {
		f := newFixture(t, nil)

		var logs bytes.Buffer
		logger := shared.NewLogger(&logs)
		shared.SetLogLevel(logger, log.DebugLevel)
		f.app.logger = logger

		f.app.render(brokenWriter{httptest.NewRecorder()}, "login", pageData{Title: "Login"})

		if !strings.Contains(logs.String(), "failed to write response") {
			t.Errorf("expected write failure logged, got %q", logs.String())
		}
	})
}
