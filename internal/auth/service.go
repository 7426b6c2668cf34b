// Package auth implements token based session management. Tokens are opaque
// strings of the form "<id>|<secret>"; only a SHA-256 hash of the secret is
// stored, the plaintext is shown to the client exactly once.
package auth

import (
	"crypto/subtle"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoUserHub/GoUserHub/internal/db/controller/setting"
	"github.com/GoUserHub/GoUserHub/internal/db/controller/user"
	"github.com/GoUserHub/GoUserHub/internal/db/models"
	"github.com/GoUserHub/GoUserHub/internal/notify"
	"github.com/GoUserHub/GoUserHub/internal/policy"
	"github.com/GoUserHub/GoUserHub/internal/uniuri"
)

// tokenSecretLength is the length of the random secret part of a token.
const tokenSecretLength = 48

// DefaultTokenName is used for tokens issued by register, login and refresh.
const DefaultTokenName = "auth_token"

// Service bundles the database handle and the notifier used for session
// operations.
type Service struct {
	db       *gorm.DB
	notifier notify.Notifier
}

// NewService returns a session service on top of db.
func NewService(db *gorm.DB, notifier notify.Notifier) (*Service, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if notifier == nil {
		notifier = notify.LogNotifier{}
	}

	return &Service{db: db, notifier: notifier}, nil
}

// DB exposes the underlying database handle for handlers wired through this
// service.
func (s *Service) DB() *gorm.DB {
	return s.db
}

// IssueToken creates a new access token for the given user and returns its
// plaintext representation. The plaintext can not be recovered later.
func (s *Service) IssueToken(userID uint64, name string) (string, *models.AccessToken, error) {
	return issueToken(s.db, userID, name)
}

func issueToken(db *gorm.DB, userID uint64, name string) (string, *models.AccessToken, error) {
	secret := uniuri.NewLen(tokenSecretLength)

	token := &models.AccessToken{
		UserID: userID,
		Name:   name,
		Hash:   models.HashTokenSecret(secret),
	}

	if err := db.Create(token).Error; err != nil {
		return "", nil, errors.WithStack(err)
	}

	return fmt.Sprintf("%d|%s", token.ID, secret), token, nil
}

// VerifyToken resolves a plaintext token to its owning user. The token's
// last_used_at timestamp is refreshed on success.
func (s *Service) VerifyToken(plain string) (*models.User, *models.AccessToken, error) {
	id, secret, ok := splitToken(plain)
	if !ok {
		return nil, nil, ErrInvalidToken
	}

	var token models.AccessToken

	err := s.db.First(&token, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrInvalidToken
	} else if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	if subtle.ConstantTimeCompare([]byte(token.Hash), []byte(models.HashTokenSecret(secret))) != 1 {
		return nil, nil, ErrInvalidToken
	}

	owner, err := user.GetByID(s.db, token.UserID)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, nil, ErrInvalidToken
	} else if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	if err := s.db.Model(&token).Update("last_used_at", now).Error; err != nil {
		log.Warn().Err(err).Uint64("token_id", token.ID).Msg("unable to update token usage timestamp")
	} else {
		token.LastUsedAt = &now
	}

	return owner, &token, nil
}

func splitToken(plain string) (uint64, string, bool) {
	idPart, secret, found := strings.Cut(plain, "|")
	if !found || secret == "" {
		return 0, "", false
	}

	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil {
		return 0, "", false
	}

	return id, secret, true
}

// RevokeToken deletes a single access token.
func (s *Service) RevokeToken(tokenID uint64) error {
	if err := s.db.Delete(&models.AccessToken{}, "id = ?", tokenID).Error; err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// RevokeAllTokens deletes every access token of the given user.
func (s *Service) RevokeAllTokens(userID uint64) error {
	return revokeAllTokens(s.db, userID)
}

func revokeAllTokens(db *gorm.DB, userID uint64) error {
	if err := db.Delete(&models.AccessToken{}, "user_id = ?", userID).Error; err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Refresh revokes every token of the user and issues exactly one new token.
// Both steps happen in a single transaction.
func (s *Service) Refresh(userID uint64) (string, *models.AccessToken, error) {
	var (
		plain string
		token *models.AccessToken
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := revokeAllTokens(tx, userID); err != nil {
			return err
		}

		var err error

		plain, token, err = issueToken(tx, userID, DefaultTokenName)

		return err
	})
	if err != nil {
		return "", nil, err
	}

	return plain, token, nil
}

// RegisterParams holds the input of a registration request.
type RegisterParams struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

// RegisterResult is the outcome of a successful registration.
type RegisterResult struct {
	User             *models.User
	Token            string
	VerificationSent bool
}

// Register creates an account and issues its first token. The registration
// toggle is checked before any validation or persistence happens. When email
// verification is required a verification notification is dispatched and the
// account stays unverified; otherwise the account is verified immediately.
// The token is issued in both cases.
func (s *Service) Register(params RegisterParams) (*RegisterResult, error) {
	if !setting.BoolValue(s.db, "registration_enabled", true) {
		return nil, ErrRegistrationDisabled
	}

	pol := policy.Load(s.db)

	if violations := pol.Validate(params.Password, params.PasswordConfirmation); len(violations) > 0 {
		return nil, &PolicyViolationError{Violations: violations}
	}

	account, err := user.Create(s.db, user.CreateParams{
		Name:     params.Name,
		Email:    params.Email,
		Password: params.Password,
		Role:     models.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	verificationRequired := setting.BoolValue(s.db, "email_verification", true)

	if verificationRequired {
		if err := s.notifier.Send(account, notify.Message{Template: notify.TemplateVerifyEmail}); err != nil {
			log.Warn().Err(err).Uint64("user_id", account.ID).Msg("unable to dispatch verification notification")
		}
	} else {
		now := time.Now()
		if err := s.db.Model(account).Update("email_verified_at", now).Error; err != nil {
			return nil, errors.WithStack(err)
		}

		account.EmailVerifiedAt = &now
	}

	plain, _, err := s.IssueToken(account.ID, DefaultTokenName)
	if err != nil {
		return nil, err
	}

	return &RegisterResult{
		User:             account,
		Token:            plain,
		VerificationSent: verificationRequired,
	}, nil
}

// Login authenticates credentials and issues a token. When email
// verification is required, unverified accounts are rejected after the
// credential check so the error never leaks whether the password matched.
func (s *Service) Login(email, password string) (*models.User, string, error) {
	account, err := user.Authenticate(s.db, email, password)
	if err != nil {
		return nil, "", err
	}

	if setting.BoolValue(s.db, "email_verification", true) && !account.HasVerifiedEmail() {
		return nil, "", ErrEmailNotVerified
	}

	plain, _, err := s.IssueToken(account.ID, DefaultTokenName)
	if err != nil {
		return nil, "", err
	}

	return account, plain, nil
}

// Logout revokes the presented token. Other sessions of the user stay valid.
func (s *Service) Logout(token *models.AccessToken) error {
	return s.RevokeToken(token.ID)
}

// ChangePassword verifies the current password, applies the password policy
// to the new one and revokes every session of the user on success.
func (s *Service) ChangePassword(account *models.User, current, password, confirmation string) error {
	pol := policy.Load(s.db)

	if violations := pol.Validate(password, confirmation); len(violations) > 0 {
		return &PolicyViolationError{Violations: violations}
	}

	if err := user.ChangePassword(s.db, account, current, password); err != nil {
		return err
	}

	return s.RevokeAllTokens(account.ID)
}
