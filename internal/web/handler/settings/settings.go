// Package settings exposes the public subset of the application settings.
package settings

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/GoUserHub/GoUserHub/internal/auth"
	"github.com/GoUserHub/GoUserHub/internal/config"
	"github.com/GoUserHub/GoUserHub/internal/db/controller/setting"
	"github.com/GoUserHub/GoUserHub/internal/web/handler"
)

// Path is the path of the public settings endpoint.
const Path = "/api/settings/public"

// Service is the public settings handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the public settings handler.
var Handler = Service{}

// Init initializes the public settings handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, _ *auth.Service) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db

	app.Get(Path, s.Get)

	return nil
}

// Get returns every public setting as a key to typed value map. Private
// settings are never included, no authentication is required.
func (s *Service) Get(c *fiber.Ctx) error {
	values, err := setting.Public(s.db)
	if err != nil {
		return err
	}

	return handler.Success(c, values)
}
