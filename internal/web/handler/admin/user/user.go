// Package user implements the admin user-management endpoints: listing with
// filters, CRUD, statistics, CSV export and bulk actions.
package user

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoUserHub/GoUserHub/internal/auth"
	"github.com/GoUserHub/GoUserHub/internal/config"
	usercontroller "github.com/GoUserHub/GoUserHub/internal/db/controller/user"
	"github.com/GoUserHub/GoUserHub/internal/db/models"
	"github.com/GoUserHub/GoUserHub/internal/web/handler"
)

// Path is the base path of the admin user endpoints.
const Path = "/api/admin/users"

// Service is the admin user handler service.
type Service struct {
	handler.Service
	cfg         *config.Config
	db          *gorm.DB
	authService *auth.Service
}

// Handler is the admin user handler.
var Handler = Service{}

// Init initializes the admin user handler and registers its routes. Every
// route requires an authenticated super-admin.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service) error {
	if app == nil || cfg == nil || db == nil || authService == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.db = db
	s.authService = authService

	router := app.Group(Path, authService.RequireAuth(), auth.RequireRole(models.RoleSuperAdmin))
	router.Get(handler.RouterRootPath, s.List)
	router.Post(handler.RouterRootPath, s.Create)
	router.Get("/stats", s.Stats)
	router.Get("/export", s.Export)
	router.Post("/bulk-action", s.BulkAction)
	router.Get("/:id", s.Show)
	router.Put("/:id", s.Update)
	router.Delete("/:id", s.Delete)

	return nil
}

func parseFilter(c *fiber.Ctx) usercontroller.Filter {
	return usercontroller.Filter{
		Search:    c.Query("search"),
		Role:      models.Role(c.Query("role")),
		Status:    c.Query("status"),
		TwoFactor: c.Query("two_factor"),
		DateFrom:  c.Query("date_from"),
		DateTo:    c.Query("date_to"),
		SortBy:    c.Query("sort_by"),
		SortDir:   c.Query("sort_dir"),
		Page:      c.QueryInt("page", 1),
		PerPage:   c.QueryInt("per_page", 10),
	}
}

// List returns one page of users matching the query filters.
func (s *Service) List(c *fiber.Ctx) error {
	filter := parseFilter(c)

	users, total, err := usercontroller.List(s.db, filter)
	if err != nil {
		return err
	}

	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 10
	} else if perPage > 100 {
		perPage = 100
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}

	totalPages := (total + int64(perPage) - 1) / int64(perPage)

	return handler.Success(c, fiber.Map{
		"users": users,
		"pagination": fiber.Map{
			"page":        page,
			"per_page":    perPage,
			"total":       total,
			"total_pages": totalPages,
		},
	})
}

type createRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=user super-admin"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Bio      string `json:"bio" validate:"omitempty,max=1000"`
}

// Create adds a new account. Admin created accounts are verified immediately.
func (s *Service) Create(c *fiber.Ctx) error {
	var req createRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if errs := handler.ValidateStruct(req); errs != nil {
		return handler.ValidationError(c, "The given data was invalid.", errs)
	}

	now := time.Now()

	account, err := usercontroller.Create(s.db, usercontroller.CreateParams{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		Role:            models.Role(req.Role),
		Phone:           req.Phone,
		Bio:             req.Bio,
		EmailVerifiedAt: &now,
	})
	if errors.Is(err, usercontroller.ErrEmailTaken) {
		return handler.ValidationError(c, "The given data was invalid.", fiber.Map{
			"email": []string{"The email has already been taken."},
		})
	} else if err != nil {
		return err
	}

	log.Info().Uint64("user_id", account.ID).Str("role", req.Role).Msg("admin created user")

	return handler.Created(c, fiber.Map{"user": account})
}

func (s *Service) findByParam(c *fiber.Ctx) (*models.User, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return nil, usercontroller.ErrUserNotFound
	}

	return usercontroller.GetByID(s.db, id)
}

// Show returns a single user.
func (s *Service) Show(c *fiber.Ctx) error {
	account, err := s.findByParam(c)
	if errors.Is(err, usercontroller.ErrUserNotFound) {
		return handler.Error(c, fiber.StatusNotFound, "User not found")
	} else if err != nil {
		return err
	}

	return handler.Success(c, fiber.Map{"user": account})
}

type updateRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Role     string `json:"role" validate:"required,oneof=user super-admin"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Bio      string `json:"bio" validate:"omitempty,max=1000"`
	Password string `json:"password" validate:"omitempty,min=8"`
}

// Update applies an admin edit to a user. The password is only changed when
// one is provided.
func (s *Service) Update(c *fiber.Ctx) error {
	account, err := s.findByParam(c)
	if errors.Is(err, usercontroller.ErrUserNotFound) {
		return handler.Error(c, fiber.StatusNotFound, "User not found")
	} else if err != nil {
		return err
	}

	var req updateRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if errs := handler.ValidateStruct(req); errs != nil {
		return handler.ValidationError(c, "The given data was invalid.", errs)
	}

	err = usercontroller.AdminUpdate(s.db, account, usercontroller.AdminUpdateParams{
		Name:     req.Name,
		Email:    req.Email,
		Role:     models.Role(req.Role),
		Phone:    req.Phone,
		Bio:      req.Bio,
		Password: req.Password,
	})
	if errors.Is(err, usercontroller.ErrEmailTaken) {
		return handler.ValidationError(c, "The given data was invalid.", fiber.Map{
			"email": []string{"The email has already been taken."},
		})
	} else if err != nil {
		return err
	}

	return handler.SuccessMessageData(c, "User updated", fiber.Map{"user": account})
}

// Delete removes a user. Deleting the own account is rejected.
func (s *Service) Delete(c *fiber.Ctx) error {
	account, err := s.findByParam(c)
	if errors.Is(err, usercontroller.ErrUserNotFound) {
		return handler.Error(c, fiber.StatusNotFound, "User not found")
	} else if err != nil {
		return err
	}

	if account.ID == auth.CurrentUser(c).ID {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "You cannot delete your own account")
	}

	if err := usercontroller.Delete(s.db, account.ID); err != nil {
		return err
	}

	if err := s.authService.RevokeAllTokens(account.ID); err != nil {
		return err
	}

	log.Info().Uint64("user_id", account.ID).Msg("admin deleted user")

	return handler.SuccessMessage(c, "User deleted")
}

// Stats returns aggregate account counts.
func (s *Service) Stats(c *fiber.Ctx) error {
	stats, err := usercontroller.GetStats(s.db)
	if err != nil {
		return err
	}

	return handler.Success(c, stats)
}

// Export streams every user matching the filters as a CSV attachment.
// Pagination parameters are ignored, the filtered set is exported whole.
func (s *Service) Export(c *fiber.Ctx) error {
	users, err := usercontroller.Export(s.db, parseFilter(c))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="users_export_%s.csv"`, time.Now().Format("2006-01-02")))

	writer := csv.NewWriter(c)

	if err := writer.Write([]string{
		"ID", "Name", "Email", "Role", "Email Verified", "Two Factor", "Phone", "Created At",
	}); err != nil {
		return err
	}

	for i := range users {
		u := &users[i]

		verified := ""
		if u.EmailVerifiedAt != nil {
			verified = u.EmailVerifiedAt.Format(time.RFC3339)
		}

		twoFactor := "no"
		if u.HasTwoFactorEnabled() {
			twoFactor = "yes"
		}

		if err := writer.Write([]string{
			strconv.FormatUint(u.ID, 10),
			u.Name,
			u.Email,
			string(u.Role),
			verified,
			twoFactor,
			u.Phone,
			u.CreatedAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}

	writer.Flush()

	return writer.Error()
}

type bulkActionRequest struct {
	Action string   `json:"action" validate:"required,oneof=delete verify unverify enable_2fa disable_2fa change_role"`
	IDs    []uint64 `json:"user_ids" validate:"required,min=1"`
	Role   string   `json:"role" validate:"omitempty,oneof=user super-admin"`
}

// BulkAction applies one action to a set of users in a single transaction.
// The acting admin's own account may not be part of the set.
func (s *Service) BulkAction(c *fiber.Ctx) error {
	var req bulkActionRequest

	if err := c.BodyParser(&req); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if errs := handler.ValidateStruct(req); errs != nil {
		return handler.ValidationError(c, "The given data was invalid.", errs)
	}

	self := auth.CurrentUser(c)
	for _, id := range req.IDs {
		if id == self.ID {
			return handler.Error(c, fiber.StatusUnprocessableEntity, "You cannot apply bulk actions to your own account")
		}
	}

	if req.Action == usercontroller.BulkChangeRole && req.Role == "" {
		return handler.ValidationError(c, "The given data was invalid.", fiber.Map{
			"role": []string{"The role field is required for this action."},
		})
	}

	affected, err := usercontroller.BulkAction(s.db, req.Action, req.IDs, models.Role(req.Role))
	if errors.Is(err, usercontroller.ErrUnknownBulkAction) {
		return handler.Error(c, fiber.StatusUnprocessableEntity, "Unknown bulk action")
	} else if err != nil {
		return err
	}

	if req.Action == usercontroller.BulkDelete {
		for _, id := range req.IDs {
			if err := s.authService.RevokeAllTokens(id); err != nil {
				return err
			}
		}
	}

	log.Info().Str("action", req.Action).Int("ids", len(req.IDs)).Int64("affected", affected).Msg("bulk action applied")

	return handler.SuccessMessageData(c, "Bulk action applied", fiber.Map{
		"affected": affected,
	})
}
