package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tallyho/internal/models"
	"github.com/desertthunder/tallyho/internal/repositories"
	"github.com/desertthunder/tallyho/internal/shared"
	"github.com/gorilla/securecookie"
)

const tokenBytes = 32

type contextKey string

const userKey contextKey = "user"

// UserLoader reloads an account by id on every request.
type UserLoader interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

// SessionManager ties an opaque cookie token to an account id held in a [repositories.SessionStore].
//
// Only the token travels in the cookie, signed with the session secret. The account is
// reloaded from the store on every request so it always reflects current items.
type SessionManager struct {
	store      repositories.SessionStore
	users      UserLoader
	codec      *securecookie.SecureCookie
	cookieName string
	maxAge     time.Duration
	secure     bool
	logger     *log.Logger
	now        func() time.Time
}

// SessionOpts configures a [SessionManager].
type SessionOpts struct {
	Store      repositories.SessionStore
	Users      UserLoader
	Secret     string
	CookieName string
	MaxAge     int // seconds
	Secure     bool
	Logger     *log.Logger
}

// NewSessionManager creates a [SessionManager]. An empty secret is an error.
func NewSessionManager(opts SessionOpts) (*SessionManager, error) {
	if opts.Secret == "" {
		return nil, fmt.Errorf("%w: session secret", shared.ErrMissingConfig)
	}
	if opts.CookieName == "" {
		opts.CookieName = "tallyho.sid"
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 14 * 24 * 60 * 60
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	codec := securecookie.New([]byte(opts.Secret), nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(opts.MaxAge)

	return &SessionManager{
		store:      opts.Store,
		users:      opts.Users,
		codec:      codec,
		cookieName: opts.CookieName,
		maxAge:     time.Duration(opts.MaxAge) * time.Second,
		secure:     opts.Secure,
		logger:     shared.WithLogger(opts.Logger, "component", "sessions"),
		now:        time.Now,
	}, nil
}

// Serialize stores user's id under a fresh token and returns the token.
func (m *SessionManager) Serialize(ctx context.Context, user *models.User) (string, error) {
	token, err := shared.NewToken(tokenBytes)
	if err != nil {
		return "", err
	}

	if err := m.store.Save(ctx, token, user.ID(), m.now().Add(m.maxAge)); err != nil {
		return "", err
	}
	return token, nil
}

// Deserialize loads the account a token points at.
//
// Unknown or expired tokens and deleted accounts yield [shared.ErrSessionNotFound].
func (m *SessionManager) Deserialize(ctx context.Context, token string) (*models.User, error) {
	userID, err := m.store.Load(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := m.users.Get(ctx, userID)
	if errors.Is(err, shared.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: account %s no longer exists", shared.ErrSessionNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login starts an authenticated session for user, replacing any session the request carried.
func (m *SessionManager) Login(w http.ResponseWriter, r *http.Request, user *models.User) error {
	if old, ok := m.token(r); ok {
		if err := m.store.Delete(r.Context(), old); err != nil {
			m.logger.Warn("failed to drop previous session", "error", err)
		}
	}

	token, err := m.Serialize(r.Context(), user)
	if err != nil {
		return err
	}

	return m.SetSignedCookie(w, m.cookieName, token, int(m.maxAge/time.Second))
}

// Logout ends the request's session, if any, and clears the cookie.
func (m *SessionManager) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := m.token(r); ok {
		if err := m.store.Delete(r.Context(), token); err != nil {
			m.logger.Error("failed to delete session", "error", err)
		}
	}
	m.ClearCookie(w, m.cookieName)
}

// Middleware resolves the session cookie into an account on the request context.
//
// Any resolution failure leaves the request anonymous. A cookie that no longer
// resolves is cleared.
func (m *SessionManager) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(m.cookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			var token string
			if err := m.codec.Decode(m.cookieName, cookie.Value, &token); err != nil {
				m.logger.Debug("discarding undecodable session cookie", "error", err)
				m.ClearCookie(w, m.cookieName)
				next.ServeHTTP(w, r)
				return
			}

			user, err := m.Deserialize(r.Context(), token)
			switch {
			case err == nil:
				r = r.WithContext(WithUser(r.Context(), user))
			case errors.Is(err, shared.ErrSessionNotFound):
				m.ClearCookie(w, m.cookieName)
			default:
				m.logger.Error("failed to resolve session", "error", err)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IsAuthenticated reports whether the request carries a resolved account.
func (m *SessionManager) IsAuthenticated(r *http.Request) bool {
	_, ok := UserFrom(r.Context())
	return ok
}

// SetSignedCookie writes an HttpOnly cookie whose value is signed with the session secret.
func (m *SessionManager) SetSignedCookie(w http.ResponseWriter, name, value string, maxAge int) error {
	encoded, err := m.codec.Encode(name, value)
	if err != nil {
		return fmt.Errorf("failed to encode cookie %s: %w", name, err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ReadSignedCookie returns the verified value of a cookie written by [SessionManager.SetSignedCookie].
func (m *SessionManager) ReadSignedCookie(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		return "", err
	}

	var value string
	if err := m.codec.Decode(name, cookie.Value, &value); err != nil {
		return "", err
	}
	return value, nil
}

// ClearCookie expires the named cookie.
func (m *SessionManager) ClearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *SessionManager) token(r *http.Request) (string, bool) {
	token, err := m.ReadSignedCookie(r, m.cookieName)
	return token, err == nil && token != ""
}

// WithUser returns a context carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFrom returns the account the session middleware resolved, if any.
func UserFrom(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}
