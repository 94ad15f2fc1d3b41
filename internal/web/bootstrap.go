package web

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tallyho/internal/models"
	"github.com/desertthunder/tallyho/internal/repositories"
	"github.com/desertthunder/tallyho/internal/server"
	"github.com/desertthunder/tallyho/internal/services"
	"github.com/desertthunder/tallyho/internal/shared"
)

// Runtime is a fully wired [App] plus the resources it holds open.
type Runtime struct {
	App      *App
	DB       *sql.DB
	Users    *repositories.UserRepository
	Lists    *services.ListService
	Sessions repositories.SessionStore

	closers []io.Closer
}

// Bootstrap opens the database, runs migrations, picks the session backend and
// builds the [App] with every provider the configuration enables.
func Bootstrap(ctx context.Context, cfg *shared.Config, logger *log.Logger) (*Runtime, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	db, err := shared.OpenConfigured(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{DB: db, closers: []io.Closer{db}}

	if err := rt.wire(ctx, cfg, logger); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) wire(ctx context.Context, cfg *shared.Config, logger *log.Logger) error {
	rt.Users = repositories.NewUserRepository(rt.DB)

	switch cfg.Session.Backend {
	case shared.SessionBackendRedis:
		store, err := repositories.DialRedisSessionStore(ctx, cfg.Session.RedisURL)
		if err != nil {
			return err
		}
		rt.Sessions = store
		rt.closers = append(rt.closers, store)
	default:
		rt.Sessions = repositories.NewSessionRepository(rt.DB)
	}

	secret := cfg.Session.Secret
	if secret == "" {
		generated, err := shared.NewToken(32)
		if err != nil {
			return err
		}
		secret = generated
		logger.Warn("no session secret configured; generated one, sessions will not survive a restart")
	}

	sessions, err := server.NewSessionManager(server.SessionOpts{
		Store:      rt.Sessions,
		Users:      rt.Users,
		Secret:     secret,
		CookieName: cfg.Session.CookieName,
		MaxAge:     cfg.Session.MaxAge,
		Secure:     cfg.Session.Secure,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	identity := services.NewIdentityService(services.IdentityOpts{Users: rt.Users, Logger: logger})
	rt.Lists = services.NewListService(rt.Users, logger)

	providers, err := Providers(cfg, identity, logger)
	if err != nil {
		return err
	}

	rt.App, err = NewApp(AppOpts{
		Lists:     rt.Lists,
		Local:     services.NewLocalProvider(identity),
		Sessions:  sessions,
		Providers: providers,
		Logger:    logger,
	})
	return err
}

// Providers builds an OAuth provider for every enabled credentials block.
//
// A missing redirect URI defaults to the base URL's callback route.
func Providers(cfg *shared.Config, identity *services.IdentityService, logger *log.Logger) ([]server.OAuthProvider, error) {
	builders := []struct {
		key   models.Provider
		creds shared.ProviderConfig
		build func(shared.ProviderConfig, *services.IdentityService) (*services.OAuthProvider, error)
	}{
		{models.ProviderGoogle, cfg.Credentials.Google, services.NewGoogleProvider},
		{models.ProviderFacebook, cfg.Credentials.Facebook, services.NewFacebookProvider},
	}

	var providers []server.OAuthProvider
	for _, b := range builders {
		if !b.creds.Enabled() {
			logger.Debug("identity provider disabled", "provider", b.key)
			continue
		}

		if b.creds.RedirectURI == "" {
			b.creds.RedirectURI = strings.TrimRight(cfg.Server.BaseURL, "/") + "/auth/" + string(b.key) + "/callback"
		}

		p, err := b.build(b.creds, identity)
		if err != nil {
			return nil, fmt.Errorf("failed to configure %s: %w", b.key, err)
		}
		providers = append(providers, p)
	}
	return providers, nil
}

// Close releases the session store and database.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
