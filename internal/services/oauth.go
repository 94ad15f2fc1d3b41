package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/tallyho/internal/models"
	"github.com/desertthunder/tallyho/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	googleProfileURL   = "https://www.googleapis.com/oauth2/v3/userinfo"
	facebookProfileURL = "https://graph.facebook.com/me?fields=id,name"
)

// OAuthProvider implements [IdentityProvider] with the authorization code flow.
//
// Resolve exchanges the code, fetches the profile and hands the external id to the [IdentityService].
type OAuthProvider struct {
	key        models.Provider
	config     *oauth2.Config
	profileURL string
	httpClient *http.Client
	identity   *IdentityService
}

var _ IdentityProvider = (*OAuthProvider)(nil)

// OAuthOpts configures an [OAuthProvider].
type OAuthOpts struct {
	Key         models.Provider
	Credentials shared.ProviderConfig
	Endpoint    oauth2.Endpoint
	Scopes      []string
	ProfileURL  string
	Identity    *IdentityService
	// HTTPClient is used for the token exchange and the profile request.
	// Defaults to [http.DefaultClient].
	HTTPClient *http.Client
}

// profile holds the fields either provider returns: Google sends "sub", Facebook sends "id".
type profile struct {
	Sub  string `json:"sub"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (p profile) externalID() string {
	if p.Sub != "" {
		return p.Sub
	}
	return p.ID
}

// NewOAuthProvider creates an [OAuthProvider] from explicit endpoints.
func NewOAuthProvider(opts OAuthOpts) (*OAuthProvider, error) {
	if opts.Key == models.ProviderLocal {
		return nil, fmt.Errorf("%w: local is not an oauth provider", shared.ErrInvalidArgument)
	}
	if !opts.Credentials.Enabled() {
		return nil, fmt.Errorf("%w: %s", shared.ErrProviderDisabled, opts.Key)
	}
	if opts.Credentials.RedirectURI == "" {
		return nil, fmt.Errorf("%w: missing redirect_uri for %s", shared.ErrMissingConfig, opts.Key)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	config := &oauth2.Config{
		ClientID:     opts.Credentials.ClientID,
		ClientSecret: opts.Credentials.ClientSecret,
		RedirectURL:  opts.Credentials.RedirectURI,
		Scopes:       opts.Scopes,
		Endpoint:     opts.Endpoint,
	}

	return &OAuthProvider{
		key:        opts.Key,
		config:     config,
		profileURL: opts.ProfileURL,
		httpClient: opts.HTTPClient,
		identity:   opts.Identity,
	}, nil
}

// NewGoogleProvider creates the Google [OAuthProvider].
func NewGoogleProvider(creds shared.ProviderConfig, identity *IdentityService) (*OAuthProvider, error) {
	return NewOAuthProvider(OAuthOpts{
		Key:         models.ProviderGoogle,
		Credentials: creds,
		Endpoint:    endpoints.Google,
		Scopes:      []string{"profile"},
		ProfileURL:  googleProfileURL,
		Identity:    identity,
	})
}

// NewFacebookProvider creates the Facebook [OAuthProvider].
func NewFacebookProvider(creds shared.ProviderConfig, identity *IdentityService) (*OAuthProvider, error) {
	return NewOAuthProvider(OAuthOpts{
		Key:         models.ProviderFacebook,
		Credentials: creds,
		Endpoint:    endpoints.Facebook,
		Scopes:      []string{"email"},
		ProfileURL:  facebookProfileURL,
		Identity:    identity,
	})
}

func (p *OAuthProvider) Key() models.Provider { return p.key }

// AuthURL returns the provider consent page URL carrying state.
func (p *OAuthProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Resolve exchanges creds.Code for a token, reads the profile and finds or creates the account.
//
// Exchange and profile failures are reported as [shared.ErrAuthFailed].
func (p *OAuthProvider) Resolve(ctx context.Context, creds Credentials) (*models.User, error) {
	if creds.Code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", shared.ErrAuthFailed)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.config.Exchange(ctx, creds.Code)
	if err != nil {
		return nil, fmt.Errorf("%w: %s token exchange: %v", shared.ErrAuthFailed, p.key, err)
	}

	prof, err := p.fetchProfile(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %s profile: %v", shared.ErrAuthFailed, p.key, err)
	}

	return p.identity.FindOrCreateExternal(ctx, p.key, prof.externalID(), prof.Name)
}

func (p *OAuthProvider) fetchProfile(ctx context.Context, token *oauth2.Token) (*profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("profile endpoint error: status %d", resp.StatusCode)
	}

	var prof profile
	if err := json.NewDecoder(resp.Body).Decode(&prof); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if prof.externalID() == "" {
		return nil, fmt.Errorf("profile has no id")
	}
	return &prof, nil
}
