// Package session implements the authentication endpoints of the API:
// register, login, logout and token refresh.
package session

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoUserHub/GoUserHub/internal/auth"
	"github.com/GoUserHub/GoUserHub/internal/config"
	"github.com/GoUserHub/GoUserHub/internal/db/controller/setting"
	"github.com/GoUserHub/GoUserHub/internal/db/controller/user"
	"github.com/GoUserHub/GoUserHub/internal/web/handler"
)

// tokenType names the HTTP authentication scheme of issued tokens.
const tokenType = "Bearer"

// Service is the session handler service.
type Service struct {
	handler.Service
	cfg         *config.Config
	db          *gorm.DB
	authService *auth.Service
}

// Handler is the session handler.
var Handler = Service{}

// Init initializes the session handler and registers its routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) error {
	if app == nil || cfg == nil || db == nil || authService == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.authService = authService

	app.Post("/api/register", s.Register)
	app.Post("/api/login", s.Login)
	app.Post("/api/logout", authService.RequireAuth(), s.Logout)
	app.Post("/api/refresh", authService.RequireAuth(), s.Refresh)
	app.Get("/api/user", authService.RequireAuth(), s.CurrentUser)

	return nil
}

type registerRequest struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required"`
}

// Register handles new account registration. The registration toggle wins
// over everything else: a disabled registration answers 403 before the body
// is even looked at.
func (s *Service) Register(c *fiber.Ctx) error {
	if !setting.BoolValue(s.db, "registration_enabled", true) {
		return handler.Error(c, fiber.StatusForbidden, "Registration is currently disabled")
	}

	var req registerRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if errs := handler.ValidateStruct(req); errs != nil {
		return handler.ValidationError(c, "The given data was invalid.", errs)
	}

	result, err := s.authService.Register(auth.RegisterParams{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})

	var policyErr *auth.PolicyViolationError

	switch {
	case errors.Is(err, auth.ErrRegistrationDisabled):
		return handler.Error(c, fiber.StatusForbidden, "Registration is currently disabled")
	case errors.As(err, &policyErr):
		return handler.ValidationError(c, "The given data was invalid.", fiber.Map{
			"password": policyErr.Violations,
		})
	case errors.Is(err, user.ErrEmailTaken):
		return handler.ValidationError(c, "The given data was invalid.", fiber.Map{
			"email": []string{"The email has already been taken."},
		})
	case err != nil:
		return err
	}

	log.Info().Uint64("user_id", result.User.ID).Msg("user registered")

	message := "Registration successful."
	if result.VerificationSent {
		message = "Registration successful. Please verify your email address."
	}

	return handler.CreatedMessageData(c, message, fiber.Map{
		"user":       result.User,
		"token":      result.Token,
		"token_type": tokenType,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles credential authentication.
func (s *Service) Login(c *fiber.Ctx) error {
	var req loginRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if errs := handler.ValidateStruct(req); errs != nil {
		return handler.ValidationError(c, "The given data was invalid.", errs)
	}

	account, token, err := s.authService.Login(req.Email, req.Password)

	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		return handler.Error(c, fiber.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrEmailNotVerified):
		return handler.Error(c, fiber.StatusForbidden, "Please verify your email address before logging in")
	case err != nil:
		return err
	}

	return handler.Success(c, fiber.Map{
		"user":       account,
		"token":      token,
		"token_type": tokenType,
	})
}

// Logout revokes the token presented with the request. Other sessions of the
// same user stay valid.
func (s *Service) Logout(c *fiber.Ctx) error {
	token := auth.CurrentToken(c)

	if err := s.authService.Logout(token); err != nil {
		return err
	}

	return handler.SuccessMessage(c, "Logged out")
}

// CurrentUser returns the account that owns the presented token.
func (s *Service) CurrentUser(c *fiber.Ctx) error {
	return handler.Success(c, fiber.Map{
		"user": auth.CurrentUser(c),
	})
}

// Refresh revokes every session of the user and returns a single new token.
func (s *Service) Refresh(c *fiber.Ctx) error {
	account := auth.CurrentUser(c)

	token, _, err := s.authService.Refresh(account.ID)
	if err != nil {
		return err
	}

	return handler.Success(c, fiber.Map{
		"token":      token,
		"token_type": tokenType,
	})
}
