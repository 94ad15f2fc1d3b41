package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tallyho/internal/models"
	"github.com/desertthunder/tallyho/internal/services"
	"github.com/desertthunder/tallyho/internal/shared"
)

const stateMaxAge = 10 * 60

// OAuthProvider is an identity provider that signs users in through a consent page.
type OAuthProvider interface {
	Key() models.Provider
	AuthURL(state string) string
	Resolve(ctx context.Context, creds services.Credentials) (*models.User, error)
}

// OAuthHandler runs the authorization code flow for one provider.
// Implements the Handler interface for registration with a Router.
//
// The begin route stores a random state in a signed short-lived cookie and redirects
// to the provider. The callback route checks the state, resolves the code to an account
// and starts a session. Every failure redirects to the failure path.
type OAuthHandler struct {
	provider    OAuthProvider
	sessions    *SessionManager
	logger      *log.Logger
	successPath string
	failurePath string
}

// NewOAuthHandler creates a new OAuth handler for provider.
func NewOAuthHandler(provider OAuthProvider, sessions *SessionManager, logger *log.Logger) *OAuthHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &OAuthHandler{
		provider:    provider,
		sessions:    sessions,
		logger:      shared.WithLogger(logger, "provider", provider.Key()),
		successPath: "/",
		failurePath: "/login",
	}
}

func (h *OAuthHandler) beginPath() string    { return "/auth/" + string(h.provider.Key()) }
func (h *OAuthHandler) callbackPath() string { return h.beginPath() + "/callback" }
func (h *OAuthHandler) stateCookie() string  { return "tallyho.state." + string(h.provider.Key()) }

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{
		Pattern(http.MethodGet, h.beginPath()),
		Pattern(http.MethodGet, h.callbackPath()),
	}
}

// ServeHTTP dispatches to the begin or callback step.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case h.beginPath():
		h.begin(w, r)
	case h.callbackPath():
		h.callback(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *OAuthHandler) begin(w http.ResponseWriter, r *http.Request) {
	state, err := shared.NewToken(16)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.sessions.SetSignedCookie(w, h.stateCookie(), state, stateMaxAge); err != nil {
		h.fail(w, r, err)
		return
	}

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusFound)
}

// callback validates the state parameter, exchanges the authorization code and logs the account in.
func (h *OAuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	expected, err := h.sessions.ReadSignedCookie(r, h.stateCookie())
	h.sessions.ClearCookie(w, h.stateCookie())

	query := r.URL.Query()
	if err != nil || expected == "" || query.Get("state") != expected {
		h.fail(w, r, shared.ErrInvalidState)
		return
	}

	code := query.Get("code")
	if code == "" {
		h.fail(w, r, fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, query.Get("error"), query.Get("error_description")))
		return
	}

	user, err := h.provider.Resolve(r.Context(), services.Credentials{Code: code})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.sessions.Login(w, r, user); err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info("signed in", "user_id", user.ID())
	http.Redirect(w, r, h.successPath, http.StatusFound)
}

func (h *OAuthHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("oauth sign-in failed", "error", err)
	http.Redirect(w, r, h.failurePath, http.StatusFound)
}
