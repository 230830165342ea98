package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/storefront/internal/auth"
	"github.com/frahmantamala/storefront/internal/cart"
	"github.com/frahmantamala/storefront/internal/item"
	"github.com/frahmantamala/storefront/internal/observability"
	"github.com/frahmantamala/storefront/internal/transport/middleware"
	"github.com/frahmantamala/storefront/internal/transport/swagger"
	"github.com/frahmantamala/storefront/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
)

// Dependencies are the handlers and collaborators mounted by RegisterAllRoutes.
// A nil handler leaves its routes unmounted.
type Dependencies struct {
	DB          *sql.DB
	Auth        *auth.Handler
	Items       *item.Handler
	Cart        *cart.Handler
	Users       *user.Handler
	Metrics     *observability.Metrics
	Logger      *slog.Logger
	CORS        cors.Options
	MetricsPath string
	OpenAPIPath string
}

// DefaultCORSOptions lets the listed frontends send the session cookie.
func DefaultCORSOptions(origins ...string) cors.Options {
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.TraceHeader},
		ExposedHeaders:   []string{middleware.TraceHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies) {
	healthHandler := NewHealthHandler(deps.DB)

	router.Use(cors.Handler(deps.CORS))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.Trace)
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware)
		metricsPath := deps.MetricsPath
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		router.Handle(metricsPath, deps.Metrics.Handler())
	}

	// Serve the OpenAPI document at root (outside API prefix)
	if deps.OpenAPIPath != "" {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, deps.OpenAPIPath)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Group(func(ar chi.Router) {
			ar.Use(middleware.LoggingMiddleware(deps.Logger))

			if deps.Auth == nil {
				return
			}
			// Every API route sees the principal; gating happens in the services.
			ar.Use(deps.Auth.SessionMiddleware)

			ar.Route("/auth", func(sr chi.Router) {
				sr.Post("/signup", deps.Auth.Signup)
				sr.Post("/signin", deps.Auth.Signin)
				sr.Post("/signout", deps.Auth.Signout)
				sr.Post("/request-reset", deps.Auth.RequestReset)
				sr.Post("/reset-password", deps.Auth.ResetPassword)
			})
			ar.Get("/me", deps.Auth.Me)

			if deps.Items != nil {
				ar.Route("/items", func(ir chi.Router) {
					ir.Get("/", deps.Items.ListItems)
					ir.Post("/", deps.Items.CreateItem)
					ir.Get("/{id}", deps.Items.GetItem)
					ir.Patch("/{id}", deps.Items.UpdateItem)
					ir.Delete("/{id}", deps.Items.DeleteItem)
				})
			}

			if deps.Cart != nil {
				ar.Route("/cart", func(cr chi.Router) {
					cr.Use(deps.Auth.RequireUser)
					cr.Get("/", deps.Cart.GetCart)
					cr.Post("/items", deps.Cart.AddToCart)
					cr.Delete("/items/{id}", deps.Cart.RemoveFromCart)
				})
			}

			if deps.Users != nil {
				ar.Route("/users", func(ur chi.Router) {
					ur.Get("/", deps.Users.ListUsers)
					ur.Put("/{id}/permissions", deps.Users.UpdatePermissions)
				})
			}
		})
	})
}
