// Package twofactor implements the TOTP based two-factor authentication
// endpoints: setup, confirmation, status, QR provisioning and teardown.
package twofactor

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/GoUserHub/GoUserHub/internal/auth"
	"github.com/GoUserHub/GoUserHub/internal/config"
	"github.com/GoUserHub/GoUserHub/internal/web/handler"
)

// Path is the base path of the two-factor endpoints.
const Path = "/api/2fa"

// Service is the two-factor handler service.
type Service struct {
	handler.Service
	cfg         *config.Config
	db          *gorm.DB
	authService *auth.Service
}

// Handler is the two-factor handler.
var Handler = Service{}

// Init initializes the two-factor handler and registers its routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) error {
	if app == nil || cfg == nil || db == nil || authService == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.authService = authService

	router := app.Group(Path, authService.RequireAuth())
	router.Get("/status", s.Status)
	router.Get("/qr-code", s.QRCode)
	router.Post("/enable", s.Enable)
	router.Post("/confirm", s.Confirm)
	router.Delete("/disable", s.Disable)
	router.Delete("/enable", s.Cancel)

	return nil
}

// Status reports the user's current two-factor state.
func (s *Service) Status(c *fiber.Ctx) error {
	return handler.Success(c, auth.TwoFactorState(auth.CurrentUser(c)))
}

// Enable starts a two-factor setup and returns the secret and otpauth URL.
func (s *Service) Enable(c *fiber.Ctx) error {
	setup, err := s.authService.StartTwoFactor(auth.CurrentUser(c))
	if errors.Is(err, auth.ErrTwoFactorAlreadyEnabled) {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "Two-factor authentication is already enabled")
	} else if err != nil {
		return err
	}

	return handler.SuccessMessageData(c, "Scan the QR code with your authenticator app and confirm with a code.", setup)
}

// QRCode returns the otpauth provisioning URL for a pending setup.
func (s *Service) QRCode(c *fiber.Ctx) error {
	account := auth.CurrentUser(c)

	if account.TwoFactorSecret == "" || account.TwoFactorConfirmedAt != nil {
		return handler.Error(c, fiber.StatusNotFound, "No pending two-factor setup")
	}

	return handler.Success(c, fiber.Map{
		"secret": account.TwoFactorSecret,
		"url":    auth.ProvisioningURL(s.db, account),
	})
}

type codeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// Confirm validates a TOTP code and activates the pending setup.
func (s *Service) Confirm(c *fiber.Ctx) error {
	var req codeRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if errs := handler.ValidateStruct(req); errs != nil {
		return handler.ValidationError(c, "The given data was invalid.", errs)
	}

	err := s.authService.ConfirmTwoFactor(auth.CurrentUser(c), req.Code)

	switch {
	case errors.Is(err, auth.ErrTwoFactorAlreadyEnabled):
		return handler.Error(c, fiber.StatusUnprocessableEntity, "Two-factor authentication is already enabled")
	case errors.Is(err, auth.ErrTwoFactorNotPending):
		return handler.Error(c, fiber.StatusUnprocessableEntity, "No pending two-factor setup")
	case errors.Is(err, auth.ErrInvalidTwoFactorCode):
		return handler.ValidationError(c, "The given data was invalid.", fiber.Map{
			"code": []string{"The provided code is invalid."},
		})
	case err != nil:
		return err
	}

	return handler.SuccessMessage(c, "Two-factor authentication enabled")
}

// Disable turns off an active two-factor setup after code verification.
func (s *Service) Disable(c *fiber.Ctx) error {
	var req codeRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if errs := handler.ValidateStruct(req); errs != nil {
		return handler.ValidationError(c, "The given data was invalid.", errs)
	}

	err := s.authService.DisableTwoFactor(auth.CurrentUser(c), req.Code)

	switch {
	case errors.Is(err, auth.ErrTwoFactorNotEnabled):
		return handler.Error(c, fiber.StatusUnprocessableEntity, "Two-factor authentication is not enabled")
	case errors.Is(err, auth.ErrInvalidTwoFactorCode):
		return handler.ValidationError(c, "The given data was invalid.", fiber.Map{
			"code": []string{"The provided code is invalid."},
		})
	case err != nil:
		return err
	}

	return handler.SuccessMessage(c, "Two-factor authentication disabled")
}

// Cancel aborts a pending, unconfirmed two-factor setup.
func (s *Service) Cancel(c *fiber.Ctx) error {
	err := s.authService.CancelTwoFactor(auth.CurrentUser(c))

	switch {
	case errors.Is(err, auth.ErrTwoFactorAlreadyEnabled):
		return handler.Error(c, fiber.StatusUnprocessableEntity, "Two-factor authentication is already enabled")
	case errors.Is(err, auth.ErrTwoFactorNotPending):
		return handler.Error(c, fiber.StatusUnprocessableEntity, "No pending two-factor setup")
	case err != nil:
		return err
	}

	return handler.SuccessMessage(c, "Two-factor setup cancelled")
}
