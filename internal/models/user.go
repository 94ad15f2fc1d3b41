package models

import (
	"fmt"
	"slices"
	"strings"
)

// Provider identifies where an account's identity comes from.
type Provider string

const (
	ProviderLocal    Provider = "local"
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
)

// Providers lists every supported identity source.
var Providers = []Provider{ProviderLocal, ProviderGoogle, ProviderFacebook}

// ParseProvider converts a route or config key into a [Provider].
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Providers, p) {
		return "", fmt.Errorf("unknown provider %q", s)
	}
	return p, nil
}

// Column returns the users column holding this provider's external id.
func (p Provider) Column() string {
	switch p {
	case ProviderGoogle:
		return "google_id"
	case ProviderFacebook:
		return "facebook_id"
	default:
		return "username"
	}
}

// User is an account: a local username with a password hash, or an external provider id, plus the owned items.
//
// The items slice is never nil.
type User struct {
	record
	username     string
	passwordHash string
	googleID     string
	facebookID   string
	displayName  string
	items        []string
}

// NewLocalUser creates an account identified by username with an already hashed password.
func NewLocalUser(sequence int, username, passwordHash string) *User {
	return &User{
		record:       newRecord(sequence),
		username:     username,
		passwordHash: passwordHash,
		displayName:  username,
		items:        []string{},
	}
}

// NewExternalUser creates an account identified by an external provider id.
func NewExternalUser(sequence int, provider Provider, externalID, displayName string) *User {
	u := &User{record: newRecord(sequence), displayName: displayName, items: []string{}}
	u.SetExternalID(provider, externalID)
	return u
}

func (u *User) Username() string     { return u.username }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) GoogleID() string     { return u.googleID }
func (u *User) FacebookID() string   { return u.facebookID }
func (u *User) DisplayName() string  { return u.displayName }

// Items returns a copy of the user's items in insertion order.
func (u *User) Items() []string {
	return slices.Clone(u.items)
}

func (u *User) SetUsername(name string)     { u.username = name }
func (u *User) SetPasswordHash(hash string) { u.passwordHash = hash }
func (u *User) SetDisplayName(name string)  { u.displayName = name }

// SetItems replaces the user's items; nil is stored as an empty list.
func (u *User) SetItems(items []string) {
	if items == nil {
		items = []string{}
	}
	u.items = slices.Clone(items)
}

// ExternalID returns the id stored for provider, or "" for local and unknown providers.
func (u *User) ExternalID(p Provider) string {
	switch p {
	case ProviderGoogle:
		return u.googleID
	case ProviderFacebook:
		return u.facebookID
	default:
		return ""
	}
}

// SetExternalID stores id in the field belonging to provider.
func (u *User) SetExternalID(p Provider, id string) {
	switch p {
	case ProviderGoogle:
		u.googleID = id
	case ProviderFacebook:
		u.facebookID = id
	}
}

// Provider reports which identity source this account was created through.
func (u *User) Provider() Provider {
	switch {
	case u.googleID != "":
		return ProviderGoogle
	case u.facebookID != "":
		return ProviderFacebook
	default:
		return ProviderLocal
	}
}

// Name returns the best human readable label for the account.
func (u *User) Name() string {
	if u.displayName != "" {
		return u.displayName
	}
	if u.username != "" {
		return u.username
	}
	return u.ExternalID(u.Provider())
}

// Validate requires exactly one identity: a username with a password hash, or a provider id.
func (u *User) Validate() error {
	identities := 0
	for _, v := range []string{u.username, u.googleID, u.facebookID} {
		if v != "" {
			identities++
		}
	}

	if identities == 0 {
		return fmt.Errorf("user requires a username or an external id")
	}
	if identities > 1 {
		return fmt.Errorf("user must have exactly one identity, got %d", identities)
	}
	if u.username != "" && u.passwordHash == "" {
		return fmt.Errorf("local user %q requires a password hash", u.username)
	}
	return nil
}

// Snapshot returns the user's items as an [ItemList].
func (u *User) Snapshot() ItemList {
	return ItemList{OwnerID: u.ID(), Owner: u.Name(), Items: u.Items()}
}

// ItemList is a read-only copy of one user's items.
type ItemList struct {
	OwnerID string
	Owner   string
	Items   []string
}
