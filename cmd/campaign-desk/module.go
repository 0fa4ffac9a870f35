package main

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/joestump/campaign-desk/internal/auth"
	"github.com/joestump/campaign-desk/internal/authstate"
	"github.com/joestump/campaign-desk/internal/config"
	"github.com/joestump/campaign-desk/internal/dataservice"
	"github.com/joestump/campaign-desk/internal/db"
	"github.com/joestump/campaign-desk/internal/handler"
	"github.com/joestump/campaign-desk/internal/session"
	"github.com/joestump/campaign-desk/internal/store"
)

// discoveryTimeout bounds the single background OIDC discovery attempt.
const discoveryTimeout = 30 * time.Second

// Module provides everything the HTTP server needs.
var Module = fx.Options(
	fx.Provide(
		newDatabase,
		newSessionManager,
		session.NewResolver,
		newHub,
		authstate.NewTracker,
		newIdentityProvider,
		store.NewUserStore,
		newUserLister,
		newAuthHandlers,
		newAuthMiddleware,
		newRouter,
	),
)

func newDatabase(lc fx.Lifecycle, cfg *config.Config) (*sqlx.DB, error) {
	database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database, cfg.DB.Driver); err != nil {
		_ = database.Close()
		return nil, err
	}
	lc.Append(fx.StopHook(database.Close))
	return database, nil
}

func newSessionManager(cfg *config.Config, database *sqlx.DB) *scs.SessionManager {
	return session.NewManager(session.StoreFor(database, cfg.DB.Driver), cfg.SessionLifetime, !cfg.InsecureCookies)
}

func newHub(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (authstate.Hub, error) {
	var hub authstate.Hub
	if cfg.UseRedis() {
		rh, err := authstate.NewRedisHub(context.Background(), cfg.Redis.URL, log)
		if err != nil {
			return nil, err
		}
		log.Info("auth events via redis")
		hub = rh
	} else {
		hub = authstate.NewMemoryHub()
	}
	lc.Append(fx.StopHook(hub.Close))
	return hub, nil
}

func newIdentityProvider(cfg *config.Config) *auth.Provider {
	return auth.NewProvider(auth.ProviderConfig{
		Issuer:       cfg.OIDC.Issuer,
		ClientID:     cfg.OIDC.ClientID,
		ClientSecret: cfg.OIDC.ClientSecret,
		RedirectURL:  cfg.OIDC.RedirectURL,
	})
}

func newUserLister(cfg *config.Config, users *store.UserStore, log *zap.Logger) dataservice.UserLister {
	if !cfg.UseRemoteDataService() {
		log.Info("serving users from the local database")
		return dataservice.NewLocal(users)
	}
	return dataservice.NewRemote(dataservice.RemoteOptions{
		BaseURL:      cfg.DataService.URL,
		ClientID:     cfg.DataService.ClientID,
		ClientSecret: cfg.DataService.ClientSecret,
		TokenURL:     cfg.DataService.TokenURL,
	})
}

func newAuthHandlers(cfg *config.Config, p *auth.Provider, resolver *session.Resolver, users *store.UserStore, hub authstate.Hub, log *zap.Logger) *auth.Handlers {
	return auth.NewHandlers(p, resolver, users, hub, log, auth.HandlersConfig{
		AdminEmail:    cfg.AdminEmail,
		DefaultRole:   cfg.DefaultRole,
		SecureCookies: !cfg.InsecureCookies,
	})
}

func newAuthMiddleware(resolver *session.Resolver, users *store.UserStore, log *zap.Logger) *auth.Middleware {
	return auth.NewMiddleware(resolver, users, log)
}

type routerParams struct {
	fx.In

	Resolver       *session.Resolver
	Tracker        *authstate.Tracker
	Hub            authstate.Hub
	AuthHandlers   *auth.Handlers
	AuthMiddleware *auth.Middleware
	UserStore      *store.UserStore
	Users          dataservice.UserLister
	DB             *sqlx.DB
	Log            *zap.Logger
}

func newRouter(p routerParams) http.Handler {
	return handler.NewRouter(handler.Deps{
		Resolver:       p.Resolver,
		Tracker:        p.Tracker,
		Hub:            p.Hub,
		AuthHandlers:   p.AuthHandlers,
		AuthMiddleware: p.AuthMiddleware,
		UserStore:      p.UserStore,
		Users:          p.Users,
		DB:             p.DB,
		Log:            p.Log,
	})
}

// startIdentityProvider runs OIDC discovery once in the background. The auth
// context is marked ready when it finishes, whether or not it succeeded, so
// pages stop waiting; sign-in stays unavailable after a failure.
func startIdentityProvider(lc fx.Lifecycle, p *auth.Provider, tracker *authstate.Tracker, log *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				initCtx, cancelInit := context.WithTimeout(ctx, discoveryTimeout)
				defer cancelInit()

				if err := p.Init(initCtx); err != nil {
					log.Error("identity provider unavailable", zap.Error(err))
				} else {
					log.Info("identity provider ready")
				}
				if err := tracker.MarkReady(ctx); err != nil {
					log.Warn("publish ready", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
