package auth

import (
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"gorm.io/gorm"

	"github.com/GoUserHub/GoUserHub/internal/db/controller/setting"
	"github.com/GoUserHub/GoUserHub/internal/db/models"
)

// TwoFactorSetup is handed to the client after starting a 2FA setup. The
// secret and the otpauth URL are shown exactly once.
type TwoFactorSetup struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

// TwoFactorStatus describes the current 2FA state of a user.
type TwoFactorStatus struct {
	Enabled   bool `json:"enabled"`
	Confirmed bool `json:"confirmed"`
	Pending   bool `json:"pending"`
}

// StartTwoFactor generates a fresh TOTP secret for the user and stores it
// unconfirmed. A previous unconfirmed secret is replaced, a confirmed setup
// must be disabled first.
func (s *Service) StartTwoFactor(account *models.User) (*TwoFactorSetup, error) {
	if account.HasTwoFactorEnabled() {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	issuer := setting.StringValue(s.db, "app_name", "GoUserHub")

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account.Email,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	updates := map[string]any{
		"two_factor_enabled":      true,
		"two_factor_secret":       key.Secret(),
		"two_factor_confirmed_at": nil,
	}
	if err := s.db.Model(account).Updates(updates).Error; err != nil {
		return nil, errors.WithStack(err)
	}

	account.TwoFactorEnabled = true
	account.TwoFactorSecret = key.Secret()
	account.TwoFactorConfirmedAt = nil

	return &TwoFactorSetup{Secret: key.Secret(), URL: key.URL()}, nil
}

// ConfirmTwoFactor validates a TOTP code against the pending secret and
// marks the setup as confirmed.
func (s *Service) ConfirmTwoFactor(account *models.User, code string) error {
	if account.HasTwoFactorEnabled() {
		return ErrTwoFactorAlreadyEnabled
	}

	if account.TwoFactorSecret == "" {
		return ErrTwoFactorNotPending
	}

	if !totp.Validate(code, account.TwoFactorSecret) {
		return ErrInvalidTwoFactorCode
	}

	now := time.Now()
	if err := s.db.Model(account).Update("two_factor_confirmed_at", now).Error; err != nil {
		return errors.WithStack(err)
	}

	account.TwoFactorConfirmedAt = &now

	return nil
}

// DisableTwoFactor turns off a confirmed 2FA setup. The caller has to prove
// possession of the authenticator with a valid code.
func (s *Service) DisableTwoFactor(account *models.User, code string) error {
	if !account.HasTwoFactorEnabled() {
		return ErrTwoFactorNotEnabled
	}

	if !totp.Validate(code, account.TwoFactorSecret) {
		return ErrInvalidTwoFactorCode
	}

	return s.clearTwoFactor(account)
}

// CancelTwoFactor aborts an unconfirmed 2FA setup. No code is required since
// the setup was never active.
func (s *Service) CancelTwoFactor(account *models.User) error {
	if account.HasTwoFactorEnabled() {
		return ErrTwoFactorAlreadyEnabled
	}

	if account.TwoFactorSecret == "" {
		return ErrTwoFactorNotPending
	}

	return s.clearTwoFactor(account)
}

func (s *Service) clearTwoFactor(account *models.User) error {
	updates := map[string]any{
		"two_factor_enabled":      false,
		"two_factor_secret":       "",
		"two_factor_confirmed_at": nil,
	}
	if err := s.db.Model(account).Updates(updates).Error; err != nil {
		return errors.WithStack(err)
	}

	account.TwoFactorEnabled = false
	account.TwoFactorSecret = ""
	account.TwoFactorConfirmedAt = nil

	return nil
}

// ProvisioningURL rebuilds the otpauth URL for the user's stored secret so
// the client can re-render the QR code during a pending setup.
func ProvisioningURL(db *gorm.DB, account *models.User) string {
	issuer := setting.StringValue(db, "app_name", "GoUserHub")

	params := url.Values{}
	params.Set("secret", account.TwoFactorSecret)
	params.Set("issuer", issuer)
	params.Set("algorithm", "SHA1")
	params.Set("digits", "6")
	params.Set("period", "30")

	provisioning := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + issuer + ":" + account.Email,
		RawQuery: params.Encode(),
	}

	return provisioning.String()
}

// TwoFactorState reports the user's current 2FA state.
func TwoFactorState(account *models.User) TwoFactorStatus {
	return TwoFactorStatus{
		Enabled:   account.HasTwoFactorEnabled(),
		Confirmed: account.TwoFactorConfirmedAt != nil,
		Pending:   account.TwoFactorSecret != "" && account.TwoFactorConfirmedAt == nil,
	}
}
