package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/site-cms/internal/domain"
)

const identityKey = "auth_identity"

// Identity is the request-scoped caller: either anonymous or an authenticated user.
type Identity struct {
	user *domain.User
}

// Anonymous is the identity of a caller that presented no usable credential.
var Anonymous = Identity{}

// Authenticated wraps a resolved user.
func Authenticated(user *domain.User) Identity {
	return Identity{user: user}
}

// IsAuthenticated reports whether a user is attached.
func (i Identity) IsAuthenticated() bool {
	return i.user != nil
}

// User returns the attached user, or nil for anonymous callers.
func (i Identity) User() *domain.User {
	return i.user
}

// HasRole reports whether the identity is authenticated with one of roles.
func (i Identity) HasRole(roles ...domain.Role) bool {
	return i.user.HasRole(roles...)
}

// IdentityFrom returns the identity attached to the request, or Anonymous.
func IdentityFrom(c *fiber.Ctx) Identity {
	identity, ok := c.Locals(identityKey).(Identity)
	if !ok {
		return Anonymous
	}
	return identity
}

// UserFrom retrieves the authenticated user.
func UserFrom(c *fiber.Ctx) (*domain.User, bool) {
	identity := IdentityFrom(c)
	return identity.User(), identity.IsAuthenticated()
}

func setIdentity(c *fiber.Ctx, identity Identity) {
	c.Locals(identityKey, identity)
}
