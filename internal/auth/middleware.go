package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/GoUserHub/GoUserHub/internal/db/models"
)

// Locals keys under which the middleware stores the authenticated identity.
const (
	LocalsUser  = "auth_user"
	LocalsToken = "auth_token"
)

// RequireAuth returns a middleware that resolves the bearer token and stores
// the authenticated user and token in the request locals.
func (s *Service) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)

		plain, found := strings.CutPrefix(header, "Bearer ")
		if !found || plain == "" {
			return unauthenticated(c)
		}

		account, token, err := s.VerifyToken(plain)
		if errors.Is(err, ErrInvalidToken) {
			return unauthenticated(c)
		} else if err != nil {
			return err
		}

		c.Locals(LocalsUser, account)
		c.Locals(LocalsToken, token)

		return c.Next()
	}
}

// RequireRole returns a middleware that rejects requests whose authenticated
// user does not hold the given role. It has to run after RequireAuth.
func RequireRole(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		account := CurrentUser(c)
		if account == nil {
			return unauthenticated(c)
		}

		if account.Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status":  "error",
				"message": "Forbidden",
			})
		}

		return c.Next()
	}
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"status":  "error",
		"message": "Unauthenticated",
	})
}

// CurrentUser returns the authenticated user stored by RequireAuth, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	account, _ := c.Locals(LocalsUser).(*models.User)

	return account
}

// CurrentToken returns the access token stored by RequireAuth, or nil.
func CurrentToken(c *fiber.Ctx) *models.AccessToken {
	account, _ := c.Locals(LocalsToken).(*models.AccessToken)

	return account
}
