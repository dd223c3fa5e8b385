package auth

import (
	"strings"

	"supplychain-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

const CtxPrincipalKey = "principal"

// Principal is the authenticated caller. UserID is zero for identity-provider tokens.
type Principal struct {
	UserID  uint
	Subject string
	Roles   []models.Role
}

func (p Principal) HasAnyRole(roles ...models.Role) bool {
	for _, want := range roles {
		for _, have := range p.Roles {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Verifier turns a bearer token into a Principal.
type Verifier interface {
	Verify(token string) (Principal, error)
}

func JWTMiddleware(v Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
		}

		p, err := v.Verify(parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(CtxPrincipalKey, p)
		return c.Next()
	}
}

func RequireRole(allowed ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
		}
		if !p.HasAnyRole(allowed...) {
			return fiber.NewError(fiber.StatusForbidden, "insufficient role for this resource")
		}
		return c.Next()
	}
}

func PrincipalFrom(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(CtxPrincipalKey).(Principal)
	return p, ok
}

// Actor names the caller for audit records.
func Actor(c *fiber.Ctx) string {
	if p, ok := PrincipalFrom(c); ok && p.Subject != "" {
		return p.Subject
	}
	return "anonymous"
}
