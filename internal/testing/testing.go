// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/tallyho/internal/shared"
	"golang.org/x/oauth2"
)

// NewTestDB opens an in-memory SQLite database with migrations applied, closed on cleanup.
func NewTestDB(t *testing.T) *sql.DB {
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

// Profile is what [FakeProvider] returns from its profile endpoint.
type Profile struct {
	Sub  string `json:"sub,omitempty"`
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// FakeProvider is an httptest OAuth2 server with authorize, token and profile endpoints.
//
// Codes registered with [FakeProvider.AddCode] exchange for a token whose profile is the registered one.
// The authorize endpoint redirects straight back with AuthorizeCode.
type FakeProvider struct {
	Server        *httptest.Server
	AuthorizeCode string

	mu       sync.Mutex
	profiles map[string]Profile
	// ProfileStatus overrides the profile endpoint status when non-zero.
	ProfileStatus int
}

// NewFakeProvider starts a [FakeProvider] closed on cleanup.
func NewFakeProvider(t *testing.T) *FakeProvider {
	t.Helper()

	f := &FakeProvider{profiles: map[string]Profile{}, AuthorizeCode: "good-code"}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /authorize", f.authorize)
	mux.HandleFunc("POST /token", f.token)
	mux.HandleFunc("GET /profile", f.profile)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// AddCode registers code as exchangeable for p.
func (f *FakeProvider) AddCode(code string, p Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[code] = p
}

// Endpoint returns the provider's [oauth2.Endpoint].
func (f *FakeProvider) Endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   f.Server.URL + "/authorize",
		TokenURL:  f.Server.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// ProfileURL returns the profile endpoint URL.
func (f *FakeProvider) ProfileURL() string {
	return f.Server.URL + "/profile"
}

func (f *FakeProvider) authorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	redirect, err := url.Parse(q.Get("redirect_uri"))
	if err != nil || redirect.String() == "" {
		http.Error(w, "missing redirect_uri", http.StatusBadRequest)
		return
	}

	values := redirect.Query()
	values.Set("code", f.AuthorizeCode)
	values.Set("state", q.Get("state"))
	redirect.RawQuery = values.Encode()
	http.Redirect(w, r, redirect.String(), http.StatusFound)
}

func (f *FakeProvider) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	code := r.PostForm.Get("code")
	f.mu.Lock()
	_, ok := f.profiles[code]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
		return
	}

	json.NewEncoder(w).Encode(map[string]any{
		"access_token": "token-" + code,
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (f *FakeProvider) profile(w http.ResponseWriter, r *http.Request) {
	code, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer token-")

	f.mu.Lock()
	p, known := f.profiles[code]
	status := f.ProfileStatus
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if !ok || !known {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
