package auth

import (
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/web"

	"github.com/gofiber/fiber/v2"
)

type RegisterRequest struct {
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	Role      models.Role `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	Token string `json:"token"`
}

type ProfileResponse struct {
	ID        uint          `json:"id,omitempty"`
	FirstName string        `json:"first_name,omitempty"`
	LastName  string        `json:"last_name,omitempty"`
	Email     string        `json:"email"`
	Roles     []models.Role `json:"roles"`
}

// POST /api/auth/register
func RegisterHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterRequest
		if err := web.Body(c, &body); err != nil {
			return err
		}

		pair, err := svc.Register(c.UserContext(), RegisterInput{
			FirstName: body.FirstName,
			LastName:  body.LastName,
			Email:     body.Email,
			Password:  body.Password,
			Role:      body.Role,
		})
		if err != nil {
			return err
		}
		return web.Created(c, "user registered", pair)
	}
}

// POST /api/auth/authenticate (and /api/auth/login)
func AuthenticateHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := web.Body(c, &body); err != nil {
			return err
		}
		if body.Email == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "email and password are required")
		}

		pair, err := svc.Authenticate(c.UserContext(), body.Email, body.Password)
		if err != nil {
			return err
		}
		return web.OK(c, "authenticated", pair)
	}
}

// POST /api/auth/refresh-token
func RefreshHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RefreshRequest
		if err := web.Body(c, &body); err != nil {
			return err
		}

		pair, err := svc.Refresh(c.UserContext(), body.Token)
		if err != nil {
			return err
		}
		return web.OK(c, "token refreshed", pair)
	}
}

// GET /api/auth/profile. svc is nil when tokens come from an identity provider.
func ProfileHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
		}

		if svc == nil || p.UserID == 0 {
			return web.OK(c, "profile", ProfileResponse{Email: p.Subject, Roles: p.Roles})
		}

		user, err := svc.Profile(c.UserContext(), p.UserID)
		if err != nil {
			return err
		}
		return web.OK(c, "profile", ProfileResponse{
			ID:        user.ID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			Roles:     []models.Role{user.Role},
		})
	}
}
