package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/desertthunder/tallyho/internal/shared"
)

func text(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("Method Routing", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/", text("get root"))
		r.Handle(http.MethodPost, "/", text("post root"))
		r.Handle(http.MethodGet, "/login", text("login"))

		tests := []struct {
			method string
			path   string
			status int
			body   string
		}{
			{http.MethodGet, "/", http.StatusOK, "get root"},
			{http.MethodPost, "/", http.StatusOK, "post root"},
			{http.MethodGet, "/login", http.StatusOK, "login"},
			{http.MethodDelete, "/", http.StatusMethodNotAllowed, ""},
			{http.MethodGet, "/nope", http.StatusNotFound, ""},
		}

		for _, tt := range tests {
			t.Run(tt.method+" "+tt.path, func(t *testing.T) {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

				if w.Code != tt.status {
					t.Errorf("expected status %d, got %d", tt.status, w.Code)
				}
				if tt.body != "" && w.Body.String() != tt.body {
					t.Errorf("expected body %q, got %q", tt.body, w.Body.String())
				}
			})
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("first"), mark("second"))
		r.Handle(http.MethodGet, "/", text("ok"))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second" {
			t.Errorf("expected first,second got %v", order)
		}
	})

	t.Run("Static", func(t *testing.T) {
		r := NewBasicRouter()
		r.Static("/static/", fstest.MapFS{"styles.css": {Data: []byte("body{}")}})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/styles.css", nil))

		if w.Code != http.StatusOK || w.Body.String() != "body{}" {
			t.Errorf("expected css, got %d %q", w.Code, w.Body.String())
		}
	})

	t.Run("Pattern", func(t *testing.T) {
		if got := Pattern("get", "/"); got != "GET /{$}" {
			t.Errorf("expected anchored root, got %s", got)
		}
		if got := Pattern(http.MethodPost, "/delete"); got != "POST /delete" {
			t.Errorf("unexpected pattern %s", got)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("Logging", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)

		h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			w.Write([]byte("short"))
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/brew", nil))

		out := buf.String()
		for _, want := range []string{"method=GET", "path=/brew", "status=418", "bytes=5"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected log to contain %q, got %q", want, out)
			}
		}
	})

	t.Run("Logging Server Error", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)

		h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if !strings.Contains(buf.String(), "ERRO") {
			t.Errorf("expected error level, got %q", buf.String())
		}
	})

	t.Run("Recover", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)

		h := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("kaboom")
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", w.Code)
		}
		if !strings.Contains(buf.String(), "kaboom") {
			t.Errorf("expected panic logged, got %q", buf.String())
		}
	})
}
