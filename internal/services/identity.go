package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tallyho/internal/models"
	"github.com/desertthunder/tallyho/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

// IdentityService registers, authenticates and resolves accounts.
type IdentityService struct {
	users  UserStore
	cost   int
	logger *log.Logger
}

// IdentityOpts configures an [IdentityService].
type IdentityOpts struct {
	Users  UserStore
	Logger *log.Logger
	// BcryptCost defaults to [bcrypt.DefaultCost].
	BcryptCost int
}

// NewIdentityService creates an [IdentityService].
func NewIdentityService(opts IdentityOpts) *IdentityService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &IdentityService{
		users:  opts.Users,
		cost:   opts.BcryptCost,
		logger: shared.WithLogger(opts.Logger, "component", "identity"),
	}
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// RegisterLocal creates a local account with a salted bcrypt hash of password.
//
// Blank input and passwords over 72 bytes return [shared.ErrInvalidInput].
func (s *IdentityService) RegisterLocal(ctx context.Context, username, password string) (*models.User, error) {
	if shared.IsBlank(username) || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", shared.ErrInvalidInput)
	}
	if len(password) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password exceeds %d bytes", shared.ErrInvalidInput, maxPasswordBytes)
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrDuplicateUser, username)
	} else if !errors.Is(err, shared.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	user := models.NewLocalUser(0, username, string(hash))
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("registered local user", "user_id", user.ID(), "username", username)
	return user, nil
}

// AuthenticateLocal returns the account for username when password matches its hash.
//
// Unknown usernames and wrong passwords both yield [shared.ErrInvalidCredentials].
func (s *IdentityService) AuthenticateLocal(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, shared.ErrUserNotFound) {
		return nil, shared.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if user.PasswordHash() == "" {
		return nil, shared.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash()), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}

	return user, nil
}

// FindOrCreateExternal returns the account holding externalID for provider, creating it on first sight.
//
// A concurrent creation of the same id loses on the unique index and re-reads the winner.
func (s *IdentityService) FindOrCreateExternal(ctx context.Context, provider models.Provider, externalID, displayName string) (*models.User, error) {
	if provider == models.ProviderLocal {
		return nil, fmt.Errorf("%w: local accounts are not external", shared.ErrInvalidArgument)
	}
	if externalID == "" {
		return nil, fmt.Errorf("%w: empty %s id", shared.ErrInvalidInput, provider)
	}

	user, err := s.users.GetByProviderID(ctx, provider, externalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, shared.ErrUserNotFound) {
		return nil, err
	}

	user = models.NewExternalUser(0, provider, externalID, displayName)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrDuplicateUser) {
			return s.users.GetByProviderID(ctx, provider, externalID)
		}
		return nil, err
	}

	s.logger.Info("created external user", "user_id", user.ID(), "provider", provider)
	return user, nil
}

// LocalProvider implements [IdentityProvider] for username and password sign-in.
type LocalProvider struct {
	identity *IdentityService
}

var _ IdentityProvider = (*LocalProvider)(nil)

// NewLocalProvider creates a [LocalProvider].
func NewLocalProvider(identity *IdentityService) *LocalProvider {
	return &LocalProvider{identity: identity}
}

func (p *LocalProvider) Key() models.Provider { return models.ProviderLocal }

// Resolve authenticates creds.Username with creds.Password.
func (p *LocalProvider) Resolve(ctx context.Context, creds Credentials) (*models.User, error) {
	return p.identity.AuthenticateLocal(ctx, creds.Username, creds.Password)
}

// Register creates a local account; see [IdentityService.RegisterLocal].
func (p *LocalProvider) Register(ctx context.Context, creds Credentials) (*models.User, error) {
	return p.identity.RegisterLocal(ctx, creds.Username, creds.Password)
}
