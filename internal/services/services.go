// package services defines the IdentityProvider interface and the account and list services
package services

import (
	"context"

	"github.com/desertthunder/tallyho/internal/models"
)

// Credentials carries whatever a provider needs to resolve an identity.
//
// Local sign-in uses Username and Password; OAuth providers use Code.
type Credentials struct {
	Username string
	Password string
	Code     string
}

// IdentityProvider resolves credentials to an account.
type IdentityProvider interface {
	// Key returns the provider's identifier, used in routes and logs.
	Key() models.Provider

	// Resolve validates credentials and returns the matching account.
	Resolve(ctx context.Context, creds Credentials) (*models.User, error)
}

// UserStore is the persistence the identity resolver needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByProviderID(ctx context.Context, provider models.Provider, externalID string) (*models.User, error)
}

// ItemStore is the persistence the list service needs.
type ItemStore interface {
	Items(ctx context.Context, userID string) ([]string, error)
	AppendItem(ctx context.Context, userID, item string) error
	PullItem(ctx context.Context, userID, item string) error
	SeedIfEmpty(ctx context.Context, userID string, items []string) (bool, error)
}
