package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/site-cms/internal/domain"
)

// Restrict lets through only authenticated callers whose role is in allowed.
// It must run after AuthMiddleware.Handle.
func Restrict(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		user, ok := UserFrom(c)
		if !ok {
			return ErrUnauthenticated
		}
		if _, exists := allowedSet[user.Role]; !exists {
			return ErrForbidden
		}
		return c.Next()
	}
}
