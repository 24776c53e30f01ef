package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kumar-mithlesh/headless-api/internal/api"
	apiMiddleware "github.com/kumar-mithlesh/headless-api/internal/api/middleware"
	"github.com/kumar-mithlesh/headless-api/internal/api/shared"
	"github.com/kumar-mithlesh/headless-api/internal/resource"
	"github.com/kumar-mithlesh/headless-api/internal/service/authz"
)

// setupRouter mounts the authentication endpoints and one handler per
// registered resource type under /api.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.Trace(app.logger))
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewRateLimiter(app.config.RateLimit).Middleware)

	serializer := resource.NewSerializer(app.registry, app.store)
	authn := apiMiddleware.NewAuthMiddleware(app.tokens, app.store, app.logger)

	users, _ := app.registry.Lookup("users")
	authHandler := api.NewAuthHandler(api.AuthHandlerConfig{
		Users:      users,
		Store:      app.store,
		Records:    app.records,
		Tokens:     app.tokens,
		Passwords:  app.passwords,
		Mailer:     app.mailer,
		ResetURL:   app.config.Mail.ResetURL,
		Serializer: serializer,
		Logger:     app.logger,
	})

	pipeline := api.Pipeline{
		Registry:   app.registry,
		Store:      app.store,
		Records:    app.records,
		Gate:       authz.NewGate(app.logger),
		Serializer: serializer,
		Paginator:  resource.NewPaginator(app.config.Pagination.Limit),
		Cache:      app.responses,
		Logger:     app.logger,
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/forgot_password", authHandler.ForgotPassword)
			r.Post("/reset_password", authHandler.ResetPassword)
			r.With(authn.Authenticate).Post("/logout", authHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn.Authenticate)
			for _, def := range app.registry.All() {
				api.NewResourceHandler(def, pipeline).Routes(r)
			}
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
