package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pixelfolio/pixelfolio/internal/accounts"
	"github.com/pixelfolio/pixelfolio/internal/auth"
	"github.com/pixelfolio/pixelfolio/internal/observability"
	"github.com/pixelfolio/pixelfolio/internal/posts"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	Authenticator   auth.Authenticator
	AuthHandler     *auth.Handler
	AccountsHandler *accounts.Handler
	PostsHandler    *posts.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with Pixelfolio defaults. Every
// request flows authenticate -> authorize -> handler; the authenticator is
// required on /users and optional on /posts, whose mutating subroutes
// require it themselves.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/users", func(r chi.Router) {
		r.Use(params.Authenticator.Require)
		params.AccountsHandler.MountRoutes(r)
	})
	r.Route("/posts", func(r chi.Router) {
		r.Use(params.Authenticator.Optional)
		params.PostsHandler.MountRoutes(r)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
