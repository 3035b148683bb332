package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/site-cms/internal/api/http/handlers"
	"github.com/spec-kit/site-cms/internal/auth"
	"github.com/spec-kit/site-cms/internal/domain"
	"github.com/spec-kit/site-cms/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Projects       *handlers.ProjectsHandler
	Contacts       *handlers.ContactsHandler
	Uploads        *handlers.UploadsHandler
	AuthMiddleware *auth.AuthMiddleware
	ContactLimiter *IPRateLimiter
	LoginLimiter   *IPRateLimiter
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	protect := cfg.AuthMiddleware.Handle
	staff := auth.Restrict(domain.RoleAdmin, domain.RoleEditor)
	admin := auth.Restrict(domain.RoleAdmin)

	api := app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/login", limit(cfg.LoginLimiter), cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Post("/forgot-password", limit(cfg.LoginLimiter), cfg.Auth.ForgotPassword)
	authGroup.Patch("/reset-password/:token", cfg.Auth.ResetPassword)
	authGroup.Get("/me", protect, cfg.Auth.Me)
	authGroup.Patch("/password", protect, cfg.Auth.UpdatePassword)

	users := api.Group("/users", protect, admin)
	users.Post("/", cfg.Users.Create)
	users.Get("/", cfg.Users.List)
	users.Get("/:id", cfg.Users.Get)
	users.Patch("/:id/role", cfg.Users.ChangeRole)
	users.Delete("/:id", cfg.Users.Deactivate)

	projects := api.Group("/projects")
	projects.Get("/", cfg.AuthMiddleware.Optional, cfg.Projects.List)
	projects.Get("/:idOrSlug", cfg.AuthMiddleware.Optional, cfg.Projects.Get)
	projects.Post("/", protect, staff, cfg.Projects.Create)
	projects.Patch("/:id", protect, staff, cfg.Projects.Update)
	projects.Delete("/:id", protect, staff, cfg.Projects.Delete)

	contacts := api.Group("/contacts")
	contacts.Post("/", limit(cfg.ContactLimiter), cfg.Contacts.Submit)
	contacts.Get("/", protect, staff, cfg.Contacts.List)
	contacts.Get("/:id", protect, staff, cfg.Contacts.Get)
	contacts.Patch("/:id", protect, staff, cfg.Contacts.Update)
	contacts.Delete("/:id", protect, admin, cfg.Contacts.Delete)

	api.Post("/uploads/images", protect, staff, cfg.Uploads.UploadImage)
}

func limit(l *IPRateLimiter) fiber.Handler {
	if l == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return l.Handler()
}
