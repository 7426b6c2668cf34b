// Package user implements the account registry: creation, credential
// verification, profile updates and admin queries over user records.
package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/GoUserHub/GoUserHub/internal/db/models"
)

const (
	emailQueryPattern = "email = ?"
	idQueryPattern    = "id = ?"
)

// NormalizeEmail lowercases and trims an email address. All lookups and
// uniqueness checks operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateParams enumerates exactly the fields permitted at account creation.
type CreateParams struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
	Phone    string
	Bio      string
	// EmailVerifiedAt may be pre-set when verification is not required.
	EmailVerifiedAt *time.Time
}

// Create creates a new user account. The password is stored as an Argon2id
// hash only. Returns ErrEmailTaken when the normalized email exists.
func Create(db *gorm.DB, params CreateParams) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	email := NormalizeEmail(params.Email)

	var existing models.User

	err := db.Where(emailQueryPattern, email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	role := params.Role
	if role == "" {
		role = models.RoleUser
	}

	u := models.User{
		Name:            params.Name,
		Email:           email,
		Password:        models.HashPassword(params.Password),
		Role:            role,
		Phone:           params.Phone,
		Bio:             params.Bio,
		EmailVerifiedAt: params.EmailVerifiedAt,
	}

	if err := db.Create(&u).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &u, nil
}

// GetByID retrieves a user by ID.
func GetByID(db *gorm.DB, id uint64) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var u models.User
	if err := db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return &u, nil
}

// GetByEmail retrieves a user by normalized email.
func GetByEmail(db *gorm.DB, email string) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var u models.User
	if err := db.Where(emailQueryPattern, NormalizeEmail(email)).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return &u, nil
}

// Authenticate verifies email and password. Unknown email and wrong password
// both return ErrInvalidCredentials.
func Authenticate(db *gorm.DB, email, password string) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	u, err := GetByEmail(db, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if !u.VerifyPassword(password) {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// ProfilePatch holds the fields a user may change on their own profile.
// Nil fields are left untouched.
type ProfilePatch struct {
	Name  *string
	Email *string
	Phone *string
	Bio   *string
}

// UpdateProfile applies a profile patch. Returns ErrEmailTaken when the new
// email belongs to a different account.
func UpdateProfile(db *gorm.DB, u *models.User, patch ProfilePatch) error {
	if db == nil {
		return ErrDBNil
	}

	if patch.Email != nil {
		email := NormalizeEmail(*patch.Email)

		var other models.User

		err := db.Where("email = ? AND id <> ?", email, u.ID).First(&other).Error
		if err == nil {
			return ErrEmailTaken
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check email uniqueness: %w", err)
		}

		u.Email = email
	}

	if patch.Name != nil {
		u.Name = *patch.Name
	}

	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}

	if patch.Bio != nil {
		u.Bio = *patch.Bio
	}

	return db.Save(u).Error
}

// ChangePassword verifies the current password and stores the hash of the
// new one. Token revocation is the caller's responsibility.
func ChangePassword(db *gorm.DB, u *models.User, currentPassword, newPassword string) error {
	if db == nil {
		return ErrDBNil
	}

	if !u.VerifyPassword(currentPassword) {
		return ErrInvalidCurrentPassword
	}

	hashed := models.HashPassword(newPassword)

	if err := db.Model(&models.User{}).
		Where(idQueryPattern, u.ID).
		Update("password", hashed).Error; err != nil {
		return err
	}

	u.Password = hashed

	return nil
}

// AdminUpdateParams enumerates the fields an admin may change on any account.
// The permitted set differs from ProfilePatch: role changes and password
// resets are admin-only.
type AdminUpdateParams struct {
	Name     string
	Email    string
	Role     models.Role
	Phone    string
	Bio      string
	Password string // optional; empty keeps the current password
}

// AdminUpdate applies an admin edit to a user.
func AdminUpdate(db *gorm.DB, u *models.User, params AdminUpdateParams) error {
	if db == nil {
		return ErrDBNil
	}

	email := NormalizeEmail(params.Email)
	if email != u.Email {
		var other models.User

		err := db.Where("email = ? AND id <> ?", email, u.ID).First(&other).Error
		if err == nil {
			return ErrEmailTaken
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check email uniqueness: %w", err)
		}
	}

	u.Name = params.Name
	u.Email = email
	u.Role = params.Role
	u.Phone = params.Phone
	u.Bio = params.Bio

	if params.Password != "" {
		u.Password = models.HashPassword(params.Password)
	}

	return db.Save(u).Error
}

// Delete removes a user record. Self-deletion checks are enforced by the
// caller before reaching this point.
func Delete(db *gorm.DB, id uint64) error {
	if db == nil {
		return ErrDBNil
	}

	result := db.Delete(&models.User{}, id)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// Filter describes the admin list query: search, facet filters, sorting
// and pagination.
type Filter struct {
	Search    string
	Role      models.Role
	Status    string // "verified" or "unverified"
	TwoFactor string // "enabled" or "disabled"
	DateFrom  string // inclusive lower bound on created_at (YYYY-MM-DD)
	DateTo    string // inclusive upper bound on created_at (YYYY-MM-DD)
	SortBy    string
	SortDir   string
	Page      int
	PerPage   int
}

// sortColumns whitelists the columns the admin list may sort by.
var sortColumns = map[string]bool{
	"id":         true,
	"name":       true,
	"email":      true,
	"role":       true,
	"created_at": true,
	"updated_at": true,
}

func (f Filter) apply(tx *gorm.DB) *gorm.DB {
	if f.Search != "" {
		like := "%" + f.Search + "%"
		tx = tx.Where("name LIKE ? OR email LIKE ?", like, like)
	}

	if f.Role != "" {
		tx = tx.Where("role = ?", f.Role)
	}

	switch f.Status {
	case "verified":
		tx = tx.Where("email_verified_at IS NOT NULL")
	case "unverified":
		tx = tx.Where("email_verified_at IS NULL")
	}

	switch f.TwoFactor {
	case "enabled":
		tx = tx.Where("two_factor_enabled = ?", true)
	case "disabled":
		tx = tx.Where("two_factor_enabled = ?", false)
	}

	if f.DateFrom != "" {
		tx = tx.Where("created_at >= ?", f.DateFrom)
	}

	if f.DateTo != "" {
		tx = tx.Where("created_at <= ?", f.DateTo+" 23:59:59")
	}

	return tx
}

// List returns one page of users matching the filter plus the total count.
func List(db *gorm.DB, f Filter) ([]models.User, int64, error) {
	if db == nil {
		return nil, 0, ErrDBNil
	}

	var (
		users []models.User
		total int64
	)

	tx := f.apply(db.Model(&models.User{}))

	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := f.SortBy
	if !sortColumns[sortBy] {
		sortBy = "created_at"
	}

	sortDir := "desc"
	if strings.EqualFold(f.SortDir, "asc") {
		sortDir = "asc"
	}

	page := f.Page
	if page < 1 {
		page = 1
	}

	perPage := f.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}

	offset := (page - 1) * perPage

	err := tx.Order(sortBy + " " + sortDir).
		Limit(perPage).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Export returns all users matching the filter without pagination, for
// CSV streaming.
func Export(db *gorm.DB, f Filter) ([]models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var users []models.User
	if err := f.apply(db.Model(&models.User{})).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

// Stats summarizes the user table for the admin dashboard.
type Stats struct {
	TotalUsers       int64 `json:"total_users"`
	VerifiedUsers    int64 `json:"verified_users"`
	UnverifiedUsers  int64 `json:"unverified_users"`
	TwoFactorUsers   int64 `json:"two_factor_users"`
	SuperAdmins      int64 `json:"super_admins"`
	RegularUsers     int64 `json:"regular_users"`
	NewUsersThisMonth int64 `json:"new_users_this_month"`
	NewUsersThisWeek  int64 `json:"new_users_this_week"`
}

// GetStats computes the dashboard statistics.
func GetStats(db *gorm.DB) (Stats, error) {
	if db == nil {
		return Stats{}, ErrDBNil
	}

	var s Stats

	counts := []struct {
		dest  *int64
		query func(*gorm.DB) *gorm.DB
	}{
		{&s.TotalUsers, func(tx *gorm.DB) *gorm.DB { return tx }},
		{&s.VerifiedUsers, func(tx *gorm.DB) *gorm.DB { return tx.Where("email_verified_at IS NOT NULL") }},
		{&s.UnverifiedUsers, func(tx *gorm.DB) *gorm.DB { return tx.Where("email_verified_at IS NULL") }},
		{&s.TwoFactorUsers, func(tx *gorm.DB) *gorm.DB { return tx.Where("two_factor_enabled = ?", true) }},
		{&s.SuperAdmins, func(tx *gorm.DB) *gorm.DB { return tx.Where("role = ?", models.RoleSuperAdmin) }},
		{&s.RegularUsers, func(tx *gorm.DB) *gorm.DB { return tx.Where("role = ?", models.RoleUser) }},
	}

	for _, c := range counts {
		if err := c.query(db.Model(&models.User{})).Count(c.dest).Error; err != nil {
			return Stats{}, err
		}
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7 // week starts on Monday
	}
	weekStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, -(weekday - 1))

	if err := db.Model(&models.User{}).
		Where("created_at >= ?", monthStart).
		Count(&s.NewUsersThisMonth).Error; err != nil {
		return Stats{}, err
	}

	if err := db.Model(&models.User{}).
		Where("created_at >= ?", weekStart).
		Count(&s.NewUsersThisWeek).Error; err != nil {
		return Stats{}, err
	}

	return s, nil
}

// Bulk action names accepted by BulkAction.
const (
	BulkDelete     = "delete"
	BulkVerify     = "verify"
	BulkUnverify   = "unverify"
	BulkEnable2FA  = "enable_2fa"
	BulkDisable2FA = "disable_2fa"
	BulkChangeRole = "change_role"
)

// BulkAction applies one action to a set of user ids inside a transaction
// and returns the number of affected rows. Protecting the acting admin's
// own id is the caller's responsibility.
func BulkAction(db *gorm.DB, action string, ids []uint64, role models.Role) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	var affected int64

	err := db.Transaction(func(tx *gorm.DB) error {
		scoped := tx.Model(&models.User{}).Where("id IN ?", ids)

		var result *gorm.DB

		switch action {
		case BulkDelete:
			result = tx.Where("id IN ?", ids).Delete(&models.User{})
		case BulkVerify:
			result = scoped.Update("email_verified_at", time.Now())
		case BulkUnverify:
			result = scoped.Update("email_verified_at", nil)
		case BulkEnable2FA:
			result = scoped.Update("two_factor_enabled", true)
		case BulkDisable2FA:
			result = scoped.Updates(map[string]interface{}{
				"two_factor_enabled":      false,
				"two_factor_secret":       "",
				"two_factor_confirmed_at": nil,
			})
		case BulkChangeRole:
			if !role.Valid() {
				return ErrUnknownBulkAction
			}

			result = scoped.Update("role", role)
		default:
			return ErrUnknownBulkAction
		}

		if result.Error != nil {
			return result.Error
		}

		affected = result.RowsAffected

		return nil
	})
	if err != nil {
		return 0, err
	}

	return affected, nil
}
