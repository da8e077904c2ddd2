package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mihas-katc/admissions-api/internal/utils"
)

// Auth role constants used by WithAuth helper.
const (
	AuthRoleAny       = "any"
	AuthRoleStaff     = "staff"
	AuthRoleApplicant = "applicant"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Role        string
	RequireUser bool
}

// staffRoles may act on any application.
var staffRoles = map[string]struct{}{
	"admin":      {},
	"admissions": {},
	"assessor":   {},
}

// WithAuth wraps a handler with basic authentication/authorization guards.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToLower(strings.TrimSpace(opts.Role))
	if role == "" {
		role = AuthRoleAny
	}

	requireUser := opts.RequireUser
	if !requireUser && role != AuthRoleAny {
		requireUser = true
	}

	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id")
		if requireUser && userID == nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		if role == AuthRoleAny {
			return handler(c)
		}

		currentRole := normalizeRoleValue(c.Locals("user_role"))
		switch role {
		case AuthRoleApplicant:
			if currentRole != AuthRoleApplicant {
				if _, ok := staffRoles[currentRole]; !ok {
					return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
				}
			}
		case AuthRoleStaff:
			if _, ok := staffRoles[currentRole]; !ok {
				return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
			}
		default:
			if currentRole != role {
				return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
			}
		}

		return handler(c)
	}
}

// Authenticated rejects requests without a resolved user.
func Authenticated(role string) fiber.Handler {
	return WithAuth(func(c *fiber.Ctx) error {
		return c.Next()
	}, AuthOptions{Role: role, RequireUser: true})
}
