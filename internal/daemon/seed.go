package daemon

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoUserHub/GoUserHub/internal/db/controller/setting"
	"github.com/GoUserHub/GoUserHub/internal/db/models"
	"github.com/GoUserHub/GoUserHub/internal/uniuri"
)

// seedAdminEmail is the address of the initial super-admin account.
const seedAdminEmail = "admin@example.com"

// seed fills an empty database with the default settings catalog and an
// initial super-admin account. Existing data is never touched.
func seed(db *gorm.DB) error {
	var settingCount int64
	if err := db.Model(&models.Setting{}).Count(&settingCount).Error; err != nil {
		return errors.WithStack(err)
	}

	if settingCount == 0 {
		if err := setting.ResetToDefaults(db); err != nil {
			return err
		}

		log.Info().Msg("seeded default settings catalog")
	}

	var userCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		return errors.WithStack(err)
	}

	if userCount == 0 {
		password := uniuri.NewLen(16)
		now := time.Now()

		admin := &models.User{
			Name:            "Administrator",
			Email:           seedAdminEmail,
			Password:        models.HashPassword(password),
			Role:            models.RoleSuperAdmin,
			EmailVerifiedAt: &now,
		}

		if err := db.Create(admin).Error; err != nil {
			return errors.WithStack(err)
		}

		log.Warn().
			Str("email", seedAdminEmail).
			Str("password", password).
			Msg("created initial super-admin account, change the password after first login")
	}

	return nil
}
