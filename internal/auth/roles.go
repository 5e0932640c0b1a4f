package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/domain"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// RequireRole gates a route on the authenticated identity's role. A
// missing identity is a hard failure: this gate must never run without
// the authentication gate having executed first, and it refuses to
// assume public access when wiring gets that wrong. With an empty
// allowed set any authenticated identity passes.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized(apperrors.CodeNotAuthenticated, "not authenticated")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[identity.Role]; !exists {
			return apperrors.NewForbidden("not authorized to perform this action")
		}
		return c.Next()
	}
}

// AdminOnly restricts a route to administrators.
func AdminOnly() fiber.Handler {
	return RequireRole(domain.RoleAdministrator)
}
