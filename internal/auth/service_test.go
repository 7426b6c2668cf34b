package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/GoUserHub/GoUserHub/internal/db/controller/user"
	"github.com/GoUserHub/GoUserHub/internal/db/models"
	"github.com/GoUserHub/GoUserHub/internal/notify"
)

type recordingNotifier struct {
	messages []notify.Message
}

func (n *recordingNotifier) Send(_ *models.User, msg notify.Message) error {
	n.messages = append(n.messages, msg)

	return nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Setting{}, &models.AccessToken{}))

	return db
}

func setupService(t *testing.T) (*Service, *recordingNotifier) {
	t.Helper()

	notifier := &recordingNotifier{}

	svc, err := NewService(setupTestDB(t), notifier)
	require.NoError(t, err)

	return svc, notifier
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	account, err := user.Create(db, user.CreateParams{
		Name:     "Test User",
		Email:    email,
		Password: "Sup3rSecret!",
		Role:     models.RoleUser,
	})
	require.NoError(t, err)

	return account
}

func verifyEmail(t *testing.T, db *gorm.DB, account *models.User) {
	t.Helper()

	now := time.Now()
	require.NoError(t, db.Model(account).Update("email_verified_at", now).Error)
	account.EmailVerifiedAt = &now
}

func countTokens(t *testing.T, db *gorm.DB, userID uint64) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.AccessToken{}).Where("user_id = ?", userID).Count(&count).Error)

	return count
}

func setSetting(t *testing.T, db *gorm.DB, key, value string, typ models.SettingType) {
	t.Helper()

	require.NoError(t, db.Create(&models.Setting{Key: key, Value: value, Type: typ}).Error)
}

func TestNewServiceRequiresDB(t *testing.T) {
	_, err := NewService(nil, nil)
	assert.ErrorIs(t, err, ErrDBNil)
}

func TestIssueAndVerifyToken(t *testing.T) {
	svc, _ := setupService(t)
	account := createUser(t, svc.DB(), "token@example.com")

	plain, token, err := svc.IssueToken(account.ID, DefaultTokenName)
	require.NoError(t, err)
	assert.Contains(t, plain, "|")
	assert.NotContains(t, plain, token.Hash)

	resolved, resolvedToken, err := svc.VerifyToken(plain)
	require.NoError(t, err)
	assert.Equal(t, account.ID, resolved.ID)
	assert.Equal(t, token.ID, resolvedToken.ID)
	assert.NotNil(t, resolvedToken.LastUsedAt)
}

func TestVerifyTokenRejectsBadInput(t *testing.T) {
	svc, _ := setupService(t)
	account := createUser(t, svc.DB(), "token@example.com")

	plain, token, err := svc.IssueToken(account.ID, DefaultTokenName)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "no separator", token: "abcdef"},
		{name: "non numeric id", token: "abc|def"},
		{name: "unknown id", token: "99999|" + strings.Split(plain, "|")[1]},
		{name: "wrong secret", token: strings.Split(plain, "|")[0] + "|wrongsecret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.VerifyToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	require.NoError(t, svc.RevokeToken(token.ID))

	_, _, err = svc.VerifyToken(plain)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshLeavesExactlyOneToken(t *testing.T) {
	svc, _ := setupService(t)
	account := createUser(t, svc.DB(), "refresh@example.com")

	for i := 0; i < 3; i++ {
		_, _, err := svc.IssueToken(account.ID, DefaultTokenName)
		require.NoError(t, err)
	}

	plain, _, err := svc.Refresh(account.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 1, countTokens(t, svc.DB(), account.ID))

	resolved, _, err := svc.VerifyToken(plain)
	require.NoError(t, err)
	assert.Equal(t, account.ID, resolved.ID)
}

func TestLogoutRevokesOnlyPresentedToken(t *testing.T) {
	svc, _ := setupService(t)
	account := createUser(t, svc.DB(), "logout@example.com")

	plainA, tokenA, err := svc.IssueToken(account.ID, DefaultTokenName)
	require.NoError(t, err)

	plainB, _, err := svc.IssueToken(account.ID, DefaultTokenName)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(tokenA))

	_, _, err = svc.VerifyToken(plainA)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = svc.VerifyToken(plainB)
	assert.NoError(t, err)
}

func TestRegisterDisabled(t *testing.T) {
	svc, _ := setupService(t)
	setSetting(t, svc.DB(), "registration_enabled", "0", models.SettingTypeBoolean)

	_, err := svc.Register(RegisterParams{
		Name:                 "New User",
		Email:                "new@example.com",
		Password:             "Sup3rSecret!",
		PasswordConfirmation: "Sup3rSecret!",
	})
	assert.ErrorIs(t, err, ErrRegistrationDisabled)

	_, err = user.GetByEmail(svc.DB(), "new@example.com")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestRegisterPasswordPolicy(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Register(RegisterParams{
		Name:                 "New User",
		Email:                "new@example.com",
		Password:             "short",
		PasswordConfirmation: "short",
	})

	var policyErr *PolicyViolationError
	require.ErrorAs(t, err, &policyErr)
	assert.NotEmpty(t, policyErr.Violations)

	_, err = user.GetByEmail(svc.DB(), "new@example.com")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestRegisterWithVerificationRequired(t *testing.T) {
	svc, notifier := setupService(t)

	result, err := svc.Register(RegisterParams{
		Name:                 "New User",
		Email:                "New@Example.com",
		Password:             "Sup3rSecret!",
		PasswordConfirmation: "Sup3rSecret!",
	})
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", result.User.Email)
	assert.False(t, result.User.HasVerifiedEmail())
	assert.True(t, result.VerificationSent)
	assert.NotEmpty(t, result.Token)

	require.Len(t, notifier.messages, 1)
	assert.Equal(t, notify.TemplateVerifyEmail, notifier.messages[0].Template)

	resolved, _, err := svc.VerifyToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, resolved.ID)
}

func TestRegisterWithoutVerification(t *testing.T) {
	svc, notifier := setupService(t)
	setSetting(t, svc.DB(), "email_verification", "0", models.SettingTypeBoolean)

	result, err := svc.Register(RegisterParams{
		Name:                 "New User",
		Email:                "new@example.com",
		Password:             "Sup3rSecret!",
		PasswordConfirmation: "Sup3rSecret!",
	})
	require.NoError(t, err)

	assert.True(t, result.User.HasVerifiedEmail())
	assert.False(t, result.VerificationSent)
	assert.Empty(t, notifier.messages)
}

func TestLogin(t *testing.T) {
	svc, _ := setupService(t)
	account := createUser(t, svc.DB(), "login@example.com")
	verifyEmail(t, svc.DB(), account)

	tests := []struct {
		name          string
		email         string
		password      string
		expectedError error
	}{
		{name: "valid credentials", email: "login@example.com", password: "Sup3rSecret!"},
		{name: "mixed case email", email: "Login@Example.COM", password: "Sup3rSecret!"},
		{name: "wrong password", email: "login@example.com", password: "nope", expectedError: user.ErrInvalidCredentials},
		{name: "unknown email", email: "who@example.com", password: "Sup3rSecret!", expectedError: user.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, token, err := svc.Login(tt.email, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, account.ID, resolved.ID)
			assert.NotEmpty(t, token)
		})
	}
}

func TestLoginRequiresVerifiedEmail(t *testing.T) {
	svc, _ := setupService(t)
	account := createUser(t, svc.DB(), "unverified@example.com")

	_, _, err := svc.Login(account.Email, "Sup3rSecret!")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	setSetting(t, svc.DB(), "email_verification", "0", models.SettingTypeBoolean)

	_, _, err = svc.Login(account.Email, "Sup3rSecret!")
	assert.NoError(t, err)
}

func TestChangePasswordRevokesAllSessions(t *testing.T) {
	svc, _ := setupService(t)
	account := createUser(t, svc.DB(), "change@example.com")
	verifyEmail(t, svc.DB(), account)

	for i := 0; i < 2; i++ {
		_, _, err := svc.IssueToken(account.ID, DefaultTokenName)
		require.NoError(t, err)
	}

	err := svc.ChangePassword(account, "wrong", "N3wSecret!!", "N3wSecret!!")
	assert.ErrorIs(t, err, user.ErrInvalidCurrentPassword)
	assert.EqualValues(t, 2, countTokens(t, svc.DB(), account.ID))

	var policyErr *PolicyViolationError
	err = svc.ChangePassword(account, "Sup3rSecret!", "short", "short")
	assert.ErrorAs(t, err, &policyErr)

	require.NoError(t, svc.ChangePassword(account, "Sup3rSecret!", "N3wSecret!!", "N3wSecret!!"))
	assert.EqualValues(t, 0, countTokens(t, svc.DB(), account.ID))

	_, _, err = svc.Login(account.Email, "N3wSecret!!")
	assert.NoError(t, err)
}

func TestTwoFactorLifecycle(t *testing.T) {
	svc, _ := setupService(t)
	account := createUser(t, svc.DB(), "2fa@example.com")

	setup, err := svc.StartTwoFactor(account)
	require.NoError(t, err)
	assert.NotEmpty(t, setup.Secret)
	assert.Contains(t, setup.URL, "otpauth://totp/")

	status := TwoFactorState(account)
	assert.True(t, status.Pending)
	assert.False(t, status.Enabled)

	err = svc.ConfirmTwoFactor(account, "000000")
	assert.ErrorIs(t, err, ErrInvalidTwoFactorCode)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.ConfirmTwoFactor(account, code))
	assert.True(t, account.HasTwoFactorEnabled())

	_, err = svc.StartTwoFactor(account)
	assert.ErrorIs(t, err, ErrTwoFactorAlreadyEnabled)

	err = svc.DisableTwoFactor(account, "000000")
	assert.ErrorIs(t, err, ErrInvalidTwoFactorCode)

	code, err = totp.GenerateCode(account.TwoFactorSecret, time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.DisableTwoFactor(account, code))
	assert.False(t, account.HasTwoFactorEnabled())
	assert.Empty(t, account.TwoFactorSecret)
}

func TestTwoFactorCancel(t *testing.T) {
	svc, _ := setupService(t)
	account := createUser(t, svc.DB(), "2fa@example.com")

	err := svc.CancelTwoFactor(account)
	assert.ErrorIs(t, err, ErrTwoFactorNotPending)

	_, err = svc.StartTwoFactor(account)
	require.NoError(t, err)

	require.NoError(t, svc.CancelTwoFactor(account))
	assert.Empty(t, account.TwoFactorSecret)
	assert.False(t, account.TwoFactorEnabled)

	err = svc.DisableTwoFactor(account, "000000")
	assert.ErrorIs(t, err, ErrTwoFactorNotEnabled)
}
