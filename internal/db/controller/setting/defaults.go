package setting

import (
	"github.com/GoUserHub/GoUserHub/internal/db/models"
)

// Defaults returns the built-in default catalog. ResetToDefaults replaces
// the whole settings table with exactly these rows.
func Defaults() []models.Setting {
	return []models.Setting{
		// General
		{
			Key:         "app_name",
			Value:       "GoUserHub",
			Type:        models.SettingTypeString,
			Group:       models.SettingGroupGeneral,
			Description: "Application name displayed throughout the app",
			IsPublic:    true,
		},
		{
			Key:         "app_url",
			Value:       "http://localhost:3000",
			Type:        models.SettingTypeString,
			Group:       models.SettingGroupGeneral,
			Description: "Base URL of the application",
			IsPublic:    true,
		},
		{
			Key:         "timezone",
			Value:       "UTC",
			Type:        models.SettingTypeString,
			Group:       models.SettingGroupGeneral,
			Description: "Default timezone for the application",
		},
		{
			Key:         "language",
			Value:       "en",
			Type:        models.SettingTypeString,
			Group:       models.SettingGroupGeneral,
			Description: "Default language for new users",
		},
		{
			Key:         "maintenance_mode",
			Value:       "0",
			Type:        models.SettingTypeBoolean,
			Group:       models.SettingGroupGeneral,
			Description: "Enable maintenance mode to restrict access",
			IsPublic:    true,
		},
		{
			Key:         "registration_enabled",
			Value:       "1",
			Type:        models.SettingTypeBoolean,
			Group:       models.SettingGroupGeneral,
			Description: "Allow new users to register",
			IsPublic:    true,
		},
		{
			Key:         "email_verification",
			Value:       "1",
			Type:        models.SettingTypeBoolean,
			Group:       models.SettingGroupGeneral,
			Description: "Require users to verify their email",
		},

		// Security
		{
			Key:         "min_password_length",
			Value:       "8",
			Type:        models.SettingTypeInteger,
			Group:       models.SettingGroupSecurity,
			Description: "Minimum characters required for passwords",
		},
		{
			Key:         "require_uppercase",
			Value:       "1",
			Type:        models.SettingTypeBoolean,
			Group:       models.SettingGroupSecurity,
			Description: "Require uppercase letters in passwords",
		},
		{
			Key:         "require_lowercase",
			Value:       "1",
			Type:        models.SettingTypeBoolean,
			Group:       models.SettingGroupSecurity,
			Description: "Require lowercase letters in passwords",
		},
		{
			Key:         "require_numbers",
			Value:       "1",
			Type:        models.SettingTypeBoolean,
			Group:       models.SettingGroupSecurity,
			Description: "Require numbers in passwords",
		},
		{
			Key:         "require_symbols",
			Value:       "0",
			Type:        models.SettingTypeBoolean,
			Group:       models.SettingGroupSecurity,
			Description: "Require special characters in passwords",
		},
		{
			Key:         "session_timeout",
			Value:       "120",
			Type:        models.SettingTypeInteger,
			Group:       models.SettingGroupSecurity,
			Description: "Session timeout in minutes",
		},
		{
			Key:         "force_two_factor",
			Value:       "0",
			Type:        models.SettingTypeBoolean,
			Group:       models.SettingGroupSecurity,
			Description: "Force 2FA for all users",
		},
		{
			Key:         "rate_limit_enabled",
			Value:       "1",
			Type:        models.SettingTypeBoolean,
			Group:       models.SettingGroupSecurity,
			Description: "Enable rate limiting",
		},
		{
			Key:         "max_login_attempts",
			Value:       "5",
			Type:        models.SettingTypeInteger,
			Group:       models.SettingGroupSecurity,
			Description: "Maximum failed login attempts before lockout",
		},

		// Email
		{
			Key:         "smtp_host",
			Value:       "",
			Type:        models.SettingTypeString,
			Group:       models.SettingGroupEmail,
			Description: "SMTP server hostname",
		},
		{
			Key:         "smtp_port",
			Value:       "587",
			Type:        models.SettingTypeInteger,
			Group:       models.SettingGroupEmail,
			Description: "SMTP server port",
		},
		{
			Key:         "smtp_username",
			Value:       "",
			Type:        models.SettingTypeString,
			Group:       models.SettingGroupEmail,
			Description: "SMTP authentication username",
		},
		{
			Key:         "smtp_password",
			Value:       "",
			Type:        models.SettingTypeString,
			Group:       models.SettingGroupEmail,
			Description: "SMTP authentication password",
		},
		{
			Key:         "smtp_encryption",
			Value:       "1",
			Type:        models.SettingTypeBoolean,
			Group:       models.SettingGroupEmail,
			Description: "Use SSL/TLS for SMTP",
		},
		{
			Key:         "from_email",
			Value:       "noreply@example.com",
			Type:        models.SettingTypeString,
			Group:       models.SettingGroupEmail,
			Description: "Default sender email address",
		},
		{
			Key:         "from_name",
			Value:       "GoUserHub",
			Type:        models.SettingTypeString,
			Group:       models.SettingGroupEmail,
			Description: "Default sender name",
		},
		{
			Key:         "email_notifications",
			Value:       "1",
			Type:        models.SettingTypeBoolean,
			Group:       models.SettingGroupEmail,
			Description: "Enable email notifications",
		},

		// Notifications
		{
			Key:         "notify_new_users",
			Value:       "1",
			Type:        models.SettingTypeBoolean,
			Group:       models.SettingGroupNotifications,
			Description: "Notify on new user registration",
		},
		{
			Key:         "notify_failed_logins",
			Value:       "1",
			Type:        models.SettingTypeBoolean,
			Group:       models.SettingGroupNotifications,
			Description: "Notify on failed login attempts",
		},
		{
			Key:         "notify_system_errors",
			Value:       "1",
			Type:        models.SettingTypeBoolean,
			Group:       models.SettingGroupNotifications,
			Description: "Notify on system errors",
		},
		{
			Key:         "notify_security_events",
			Value:       "1",
			Type:        models.SettingTypeBoolean,
			Group:       models.SettingGroupNotifications,
			Description: "Notify on security events",
		},

		// Advanced
		{
			Key:         "debug_mode",
			Value:       "0",
			Type:        models.SettingTypeBoolean,
			Group:       models.SettingGroupAdvanced,
			Description: "Enable debug mode",
		},
		{
			Key:         "cache_enabled",
			Value:       "1",
			Type:        models.SettingTypeBoolean,
			Group:       models.SettingGroupAdvanced,
			Description: "Enable application caching",
		},
		{
			Key:         "cache_timeout",
			Value:       "60",
			Type:        models.SettingTypeInteger,
			Group:       models.SettingGroupAdvanced,
			Description: "Cache timeout in minutes",
		},
		{
			Key:         "auto_backup",
			Value:       "1",
			Type:        models.SettingTypeBoolean,
			Group:       models.SettingGroupAdvanced,
			Description: "Enable automatic backups",
		},
		{
			Key:         "backup_frequency",
			Value:       "daily",
			Type:        models.SettingTypeString,
			Group:       models.SettingGroupAdvanced,
			Description: "Backup frequency",
		},
		{
			Key:         "log_retention",
			Value:       "1",
			Type:        models.SettingTypeBoolean,
			Group:       models.SettingGroupAdvanced,
			Description: "Enable log retention",
		},
		{
			Key:         "log_retention_days",
			Value:       "30",
			Type:        models.SettingTypeInteger,
			Group:       models.SettingGroupAdvanced,
			Description: "Log retention period in days",
		},
	}
}
