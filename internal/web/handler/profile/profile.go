// Package profile implements the authenticated self-service profile endpoints.
package profile

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/GoUserHub/GoUserHub/internal/auth"
	"github.com/GoUserHub/GoUserHub/internal/config"
	"github.com/GoUserHub/GoUserHub/internal/db/controller/user"
	"github.com/GoUserHub/GoUserHub/internal/web/handler"
)

// Path is the base path of the profile endpoints.
const Path = "/api/profile"

// Service is the profile handler service.
type Service struct {
	handler.Service
	cfg         *config.Config
	db          *gorm.DB
	authService *auth.Service
}

// Handler is the profile handler.
var Handler = Service{}

// Init initializes the profile handler and registers its routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) error {
	if app == nil || cfg == nil || db == nil || authService == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.authService = authService

	router := app.Group(Path, authService.RequireAuth())
	router.Get(handler.RouterRootPath, s.Get)
	router.Put(handler.RouterRootPath, s.Update)
	router.Put("/password", s.ChangePassword)

	return nil
}

// Get returns the authenticated user's profile.
func (s *Service) Get(c *fiber.Ctx) error {
	return handler.Success(c, fiber.Map{
		"user": auth.CurrentUser(c),
	})
}

type updateRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=255"`
	Email *string `json:"email" validate:"omitempty,email,max=255"`
	Phone *string `json:"phone" validate:"omitempty,max=20"`
	Bio   *string `json:"bio" validate:"omitempty,max=1000"`
}

// Update applies a partial update to the authenticated user's profile.
// Absent fields keep their current value.
func (s *Service) Update(c *fiber.Ctx) error {
	var req updateRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if errs := handler.ValidateStruct(req); errs != nil {
		return handler.ValidationError(c, "The given data was invalid.", errs)
	}

	account := auth.CurrentUser(c)

	err := user.UpdateProfile(s.db, account, user.ProfilePatch{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Bio:   req.Bio,
	})
	if errors.Is(err, user.ErrEmailTaken) {
		return handler.ValidationError(c, "The given data was invalid.", fiber.Map{
			"email": []string{"The email has already been taken."},
		})
	} else if err != nil {
		return err
	}

	return handler.SuccessMessageData(c, "Profile updated", fiber.Map{
		"user": account,
	})
}

type changePasswordRequest struct {
	CurrentPassword      string `json:"current_password" validate:"required"`
	Password             string `json:"password" validate:"required"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required"`
}

// ChangePassword changes the authenticated user's password and revokes every
// session, including the one used for this request.
func (s *Service) ChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if errs := handler.ValidateStruct(req); errs != nil {
		return handler.ValidationError(c, "The given data was invalid.", errs)
	}

	account := auth.CurrentUser(c)

	err := s.authService.ChangePassword(account, req.CurrentPassword, req.Password, req.PasswordConfirmation)

	var policyErr *auth.PolicyViolationError

	switch {
	case errors.Is(err, user.ErrInvalidCurrentPassword):
		return handler.ValidationError(c, "The given data was invalid.", fiber.Map{
			"current_password": []string{"The current password is incorrect."},
		})
	case errors.As(err, &policyErr):
		return handler.ValidationError(c, "The given data was invalid.", fiber.Map{
			"password": policyErr.Violations,
		})
	case err != nil:
		return err
	}

	return handler.SuccessMessage(c, "Password changed. Please log in again.")
}
