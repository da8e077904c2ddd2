package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mihas-katc/admissions-api/internal/config"
	"github.com/mihas-katc/admissions-api/internal/handler"
	"github.com/mihas-katc/admissions-api/internal/middleware"
	"github.com/mihas-katc/admissions-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	EligibilityHandler     *handler.EligibilityHandler
	AppealHandler          *handler.AppealHandler
	AdminProgramHandler    *handler.AdminProgramHandler
	AdminAssessmentHandler *handler.AdminAssessmentHandler
	AdminActivityHandler   *handler.AdminActivityHandler
	SeedHandler            *handler.SeedHandler
	HealthProbes           map[string]handler.HealthProbe
	RateLimitStore         fiber.Storage
	JWTMiddleware          fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	eligibility := api.Group("/eligibility", jwtMiddleware, middleware.Authenticated(middleware.AuthRoleApplicant))
	if deps.EligibilityHandler != nil {
		deps.EligibilityHandler.Register(eligibility, middleware.RateLimit("assess", cfg.AssessRateLimit, cfg.AssessRateWindow, deps.RateLimitStore))
	}
	if deps.AppealHandler != nil {
		deps.AppealHandler.Register(eligibility)
	}

	admin := app.Group("/api/admin", jwtMiddleware, middleware.RequireStaff())
	if deps.AdminProgramHandler != nil {
		deps.AdminProgramHandler.Register(admin.Group("/programs"))
	}
	if deps.AdminAssessmentHandler != nil {
		deps.AdminAssessmentHandler.Register(admin.Group("/assessments"))
	}
	if deps.AdminActivityHandler != nil {
		deps.AdminActivityHandler.Register(admin.Group("/activities"))
	}

	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(app.Group("/api/seed"))
	}
}
