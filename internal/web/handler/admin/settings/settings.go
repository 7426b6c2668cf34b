// Package settings implements the admin settings endpoints: grouped listing,
// batch updates with per-entry errors and a reset to defaults.
package settings

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoUserHub/GoUserHub/internal/auth"
	"github.com/GoUserHub/GoUserHub/internal/config"
	"github.com/GoUserHub/GoUserHub/internal/db/controller/setting"
	"github.com/GoUserHub/GoUserHub/internal/db/models"
	"github.com/GoUserHub/GoUserHub/internal/web/handler"
)

// Path is the base path of the admin settings endpoints.
const Path = "/api/admin/settings"

// Service is the admin settings handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the admin settings handler.
var Handler = Service{}

// Init initializes the admin settings handler and registers its routes.
// Every route requires an authenticated super-admin.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) error {
	if app == nil || cfg == nil || db == nil || authService == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db

	router := app.Group(Path, authService.RequireAuth(), auth.RequireRole(models.RoleSuperAdmin))
	router.Get(handler.RouterRootPath, s.Index)
	router.Put(handler.RouterRootPath, s.Update)
	router.Post("/reset", s.Reset)
	router.Get("/:group", s.ByGroup)

	return nil
}

// settingView is the admin facing projection of a setting. The raw stored
// text is exposed as its typed value.
type settingView struct {
	Key         string              `json:"key"`
	Value       any                 `json:"value"`
	Type        models.SettingType  `json:"type"`
	Group       models.SettingGroup `json:"group"`
	Description string              `json:"description"`
	IsPublic    bool                `json:"is_public"`
}

func view(entry models.Setting) settingView {
	return settingView{
		Key:         entry.Key,
		Value:       entry.TypedValue(),
		Type:        entry.Type,
		Group:       entry.Group,
		Description: entry.Description,
		IsPublic:    entry.IsPublic,
	}
}

func views(entries []models.Setting) []settingView {
	out := make([]settingView, 0, len(entries))
	for _, entry := range entries {
		out = append(out, view(entry))
	}

	return out
}

// Index returns every setting, grouped by settings group in catalog order.
func (s *Service) Index(c *fiber.Ctx) error {
	all, err := setting.All(s.db)
	if err != nil {
		return err
	}

	grouped := make(map[models.SettingGroup][]settingView, len(models.SettingGroups))
	for _, group := range models.SettingGroups {
		grouped[group] = []settingView{}
	}

	for _, entry := range all {
		grouped[entry.Group] = append(grouped[entry.Group], view(entry))
	}

	return handler.Success(c, grouped)
}

// ByGroup returns the settings of a single group.
func (s *Service) ByGroup(c *fiber.Ctx) error {
	group := models.SettingGroup(c.Params("group"))

	entries, err := setting.ByGroup(s.db, group)
	if errors.Is(err, setting.ErrUnknownGroup) {
		return handler.Error(c, fiber.StatusNotFound, "Unknown settings group")
	} else if err != nil {
		return err
	}

	return handler.Success(c, fiber.Map{
		"group":    group,
		"settings": views(entries),
	})
}

type updateRequest struct {
	Settings []setting.Entry `json:"settings" validate:"required,min=1,dive"`
}

// Update applies a batch of setting changes. Entries with unknown keys or
// type mismatches are reported per entry with status 422; valid entries of
// the same batch are still applied.
func (s *Service) Update(c *fiber.Ctx) error {
	var req updateRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if errs := handler.ValidateStruct(req); errs != nil {
		return handler.ValidationError(c, "The given data was invalid.", errs)
	}

	updated, entryErrs, err := setting.SetMany(s.db, req.Settings)
	if err != nil {
		return err
	}

	if len(entryErrs) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(handler.Envelope{
			Status:  handler.StatusError,
			Message: "Some settings could not be updated.",
			Data:    fiber.Map{"updated": views(updated)},
			Errors:  entryErrs,
		})
	}

	log.Info().Int("count", len(updated)).Msg("settings updated")

	return handler.SuccessMessageData(c, "Settings updated", fiber.Map{
		"updated": views(updated),
	})
}

// Reset restores the built-in default settings catalog.
func (s *Service) Reset(c *fiber.Ctx) error {
	if err := setting.ResetToDefaults(s.db); err != nil {
		return err
	}

	log.Info().Msg("settings reset to defaults")

	return handler.SuccessMessage(c, "Settings were reset to defaults")
}
