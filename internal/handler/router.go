package handler

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	_ "github.com/joestump/campaign-desk/docs/swagger"
	"github.com/joestump/campaign-desk/internal/api"
	"github.com/joestump/campaign-desk/internal/auth"
	"github.com/joestump/campaign-desk/internal/authstate"
	"github.com/joestump/campaign-desk/internal/dataservice"
	"github.com/joestump/campaign-desk/internal/logging"
	"github.com/joestump/campaign-desk/internal/session"
	"github.com/joestump/campaign-desk/internal/store"
	"github.com/joestump/campaign-desk/web"
)

// Deps holds all dependencies required to build the HTTP router.
type Deps struct {
	Resolver       *session.Resolver
	Tracker        *authstate.Tracker
	Hub            authstate.Hub
	AuthHandlers   *auth.Handlers
	AuthMiddleware *auth.Middleware
	UserStore      *store.UserStore
	Users          dataservice.UserLister
	DB             Pinger
	Log            *zap.Logger
}

// NewRouter assembles the full chi router with all middleware and routes.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Requests(deps.Log))
	r.Use(Boundary(deps.Log))

	// Static assets (embedded). fs.Sub so the file server sees css/app.css
	// directly, not static/css/app.css.
	staticSub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic("failed to sub static FS: " + err.Error())
	}
	r.Handle("/static/*", http.StripPrefix("/static", http.FileServerFS(staticSub)))

	r.Get("/healthz", Health(deps.DB, deps.Log))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/docs/*", httpSwagger.WrapHandler)

	r.Post("/theme", SetTheme)

	// Everything below reads the session.
	r.Group(func(r chi.Router) {
		r.Use(deps.Resolver.Manager().LoadAndSave)
		r.Use(deps.AuthMiddleware.Refresh)

		r.Get("/auth/login", deps.AuthHandlers.Login)
		r.Get("/auth/callback", deps.AuthHandlers.Callback)
		r.Post("/auth/logout", deps.AuthHandlers.Logout)

		watch := NewWatchHandler(deps.Resolver, deps.Tracker, deps.Hub, deps.Log)
		r.Get("/auth/watch", watch.Watch)

		pages := NewPagesHandler(deps.Resolver, deps.Tracker, deps.Log)
		r.Get("/", pages.Home)
		r.Get("/login", pages.Login)
		r.Get("/dashboard", pages.Dashboard)

		dashboards := NewDashboardHandler(deps.Resolver, deps.UserStore, deps.Hub, deps.Log)
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireRole(session.RoleAdmin))
			r.Get("/dashboard/admin", dashboards.Admin)
			r.Put("/dashboard/admin/users/{id}/role", dashboards.UpdateRole)
		})
		r.With(deps.AuthMiddleware.RequireRole(session.RoleInfluencer)).
			Get("/dashboard/influencer", dashboards.Influencer)

		r.Mount("/api", api.NewAPIRouter(api.Deps{
			Users:    deps.Users,
			Resolver: deps.Resolver,
			Tracker:  deps.Tracker,
			Log:      deps.Log,
		}))
	})

	r.NotFound(NotFound)
	return r
}
