package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
	"github.com/upb/readers-hub/app"
	"github.com/upb/readers-hub/middleware"
	"github.com/upb/readers-hub/services/authz"
	"github.com/upb/readers-hub/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	cfg := deps.Config
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(deps.Metrics.Middleware)

	r.Use(secure.New(secure.Options{
		SSLRedirect:          cfg.Security.SSLRedirect,
		SSLProxyHeaders:      map[string]string{"X-Forwarded-Proto": "https"},
		STSSeconds:           cfg.Security.HSTSSeconds,
		STSIncludeSubdomains: true,
		FrameDeny:            true,
		ContentTypeNosniff:   true,
		BrowserXssFilter:     true,
		ReferrerPolicy:       "strict-origin-when-cross-origin",
	}).Handler)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Security.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)
	if deps.Metrics != nil && cfg.Observability.MetricsPort == 0 {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	auth := deps.AuthMiddleware
	users := deps.UserHandler
	library := deps.LibraryHandler
	social := deps.SocialHandler

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))

		r.Route("/auth", func(r chi.Router) {
			r.Use(rateLimit(cfg.RateLimit.AuthRequests, cfg.RateLimit.Window))
			r.Post("/register", deps.AuthHandler.HandleRegister)
			r.Post("/login", deps.AuthHandler.HandleLogin)
			r.Post("/logout", deps.AuthHandler.HandleLogout)
		})

		// Public reads
		r.Get("/books", library.HandleListBooks)
		r.Get("/books/{id}", library.HandleGetBook)
		r.Get("/authors", library.HandleListAuthors)
		r.Get("/authors/{id}", library.HandleGetAuthor)
		r.Get("/users", users.HandleList)
		r.Get("/posts", social.HandleListPosts)
		r.Get("/posts/{id}", social.HandleGetPost)
		r.Get("/posts/{id}/comments", social.HandleListComments)
		r.Get("/comments/{id}", social.HandleGetComment)
		r.Get("/tags/{slug}/posts", social.HandleListPostsByTag)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)

			r.Get("/users/me", deps.AuthHandler.HandleMe)
			r.Put("/users/me", deps.AuthHandler.HandleUpdateMe)
			r.Get("/users/me/following", users.HandleFollowing)
			r.Post("/users/{id}/follow", users.HandleFollow)
			r.Post("/users/{id}/unfollow", users.HandleUnfollow)

			// Catalog writes reject actors without the model permission
			// before the body or path is read
			r.With(auth.RequirePermission(authz.PermAddBook)).Post("/books", library.HandleCreateBook)
			r.With(auth.RequirePermission(authz.PermChangeBook)).Put("/books/{id}", library.HandleUpdateBook)
			r.With(auth.RequirePermission(authz.PermDeleteBook)).Delete("/books/{id}", library.HandleDeleteBook)
			r.With(auth.RequirePermission(authz.PermAddBook)).Post("/authors", library.HandleCreateAuthor)
			r.Get("/dashboards/{role}", library.HandleDashboard)

			// Post and comment writes; ownership is checked by the social service
			r.Post("/posts", social.HandleCreatePost)
			r.Put("/posts/{id}", social.HandleUpdatePost)
			r.Delete("/posts/{id}", social.HandleDeletePost)
			r.Post("/posts/{id}/comments", social.HandleCreateComment)
			r.Put("/comments/{id}", social.HandleUpdateComment)
			r.Delete("/comments/{id}", social.HandleDeleteComment)
			r.Get("/feed", social.HandleFeed)

			r.Get("/notifications", deps.NotificationHandler.HandleList)
			r.Post("/notifications/{id}/read", deps.NotificationHandler.HandleMarkRead)

			// User administration (require admin role)
			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireRole(authz.RoleAdmin))
				r.Get("/roles", users.HandleListRoles)
				r.Get("/permissions", users.HandleListPermissions)
				r.Put("/users/{id}/role", users.HandleSetRole)
				r.Post("/users/{id}/permissions", users.HandleGrantPermission)
				r.Delete("/users/{id}/permissions/{permission}", users.HandleRevokePermission)
				r.Get("/audit", users.HandleListAudit)
			})
		})

		r.Get("/users/{id}", users.HandleGet)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}

// rateLimit limits requests per client IP within window
func rateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			utils.WriteTooManyRequests(w, "Request was throttled. Try again later.")
		}),
	)
}
