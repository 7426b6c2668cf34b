package session

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/GoUserHub/GoUserHub/internal/auth"
	"github.com/GoUserHub/GoUserHub/internal/config"
	"github.com/GoUserHub/GoUserHub/internal/db/controller/user"
	"github.com/GoUserHub/GoUserHub/internal/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Setting{}, &models.AccessToken{}))

	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		Webserver: config.Webserver{
			URL:  "http://localhost",
			Port: 3000,
		},
	}
}

func newTestApp(t *testing.T, db *gorm.DB) (*fiber.App, *auth.Service) {
	t.Helper()

	app := fiber.New()

	authService, err := auth.NewService(db, nil)
	require.NoError(t, err)

	var s Service
	require.NoError(t, s.Init(app, newTestConfig(), db, authService))

	return app, authService
}

func performJSON(t *testing.T, app *fiber.App, method, target string, body any, token string) *http.Response {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func seedVerifiedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	now := time.Now()

	account, err := user.Create(db, user.CreateParams{
		Name:            "Test User",
		Email:           email,
		Password:        "Sup3rSecret!",
		EmailVerifiedAt: &now,
	})
	require.NoError(t, err)

	return account
}

func TestRegister(t *testing.T) {
	db := newTestDB(t)
	app, _ := newTestApp(t, db)

	resp := performJSON(t, app, http.MethodPost, "/api/register", fiber.Map{
		"name":                  "Alice",
		"email":                 "Alice@Example.com",
		"password":              "Sup3rSecret!",
		"password_confirmation": "Sup3rSecret!",
	}, "")

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "success", body["status"])

	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["token"])
	assert.Equal(t, "Bearer", data["token_type"])
	assert.Equal(t, "alice@example.com", data["user"].(map[string]any)["email"])

	// unverified account can not log in while verification is required
	resp = performJSON(t, app, http.MethodPost, "/api/login", fiber.Map{
		"email":    "alice@example.com",
		"password": "Sup3rSecret!",
	}, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRegisterValidation(t *testing.T) {
	db := newTestDB(t)
	app, _ := newTestApp(t, db)

	tests := []struct {
		name     string
		body     fiber.Map
		errField string
	}{
		{
			name:     "missing name",
			body:     fiber.Map{"email": "a@example.com", "password": "Sup3rSecret!", "password_confirmation": "Sup3rSecret!"},
			errField: "name",
		},
		{
			name:     "invalid email",
			body:     fiber.Map{"name": "A", "email": "nope", "password": "Sup3rSecret!", "password_confirmation": "Sup3rSecret!"},
			errField: "email",
		},
		{
			name:     "weak password",
			body:     fiber.Map{"name": "A", "email": "a@example.com", "password": "short", "password_confirmation": "short"},
			errField: "password",
		},
		{
			name:     "confirmation mismatch",
			body:     fiber.Map{"name": "A", "email": "a@example.com", "password": "Sup3rSecret!", "password_confirmation": "Other1!"},
			errField: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := performJSON(t, app, http.MethodPost, "/api/register", tt.body, "")
			require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, "error", body["status"])
			assert.Contains(t, body["errors"].(map[string]any), tt.errField)
		})
	}
}

func TestRegisterDisabled(t *testing.T) {
	db := newTestDB(t)
	app, _ := newTestApp(t, db)

	require.NoError(t, db.Create(&models.Setting{
		Key:   "registration_enabled",
		Value: "0",
		Type:  models.SettingTypeBoolean,
	}).Error)

	resp := performJSON(t, app, http.MethodPost, "/api/register", fiber.Map{
		"name":                  "Alice",
		"email":                 "alice@example.com",
		"password":              "Sup3rSecret!",
		"password_confirmation": "Sup3rSecret!",
	}, "")

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRegisterDisabledWinsOverValidation(t *testing.T) {
	db := newTestDB(t)
	app, _ := newTestApp(t, db)

	require.NoError(t, db.Create(&models.Setting{
		Key:   "registration_enabled",
		Value: "0",
		Type:  models.SettingTypeBoolean,
	}).Error)

	// The body is missing name and email. The disabled toggle still answers
	// first, so the caller sees 403 rather than a validation error.
	resp := performJSON(t, app, http.MethodPost, "/api/register", fiber.Map{
		"password":              "Sup3rSecret!",
		"password_confirmation": "Sup3rSecret!",
	}, "")

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	app, _ := newTestApp(t, db)
	seedVerifiedUser(t, db, "alice@example.com")

	resp := performJSON(t, app, http.MethodPost, "/api/register", fiber.Map{
		"name":                  "Alice",
		"email":                 "ALICE@example.com",
		"password":              "Sup3rSecret!",
		"password_confirmation": "Sup3rSecret!",
	}, "")

	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Contains(t, body["errors"].(map[string]any), "email")
}

func TestLogin(t *testing.T) {
	db := newTestDB(t)
	app, _ := newTestApp(t, db)
	seedVerifiedUser(t, db, "bob@example.com")

	resp := performJSON(t, app, http.MethodPost, "/api/login", fiber.Map{
		"email":    "bob@example.com",
		"password": "Sup3rSecret!",
	}, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := decodeBody(t, resp)["data"].(map[string]any)
	assert.NotEmpty(t, data["token"])

	// identical failure for wrong password and unknown account
	for _, body := range []fiber.Map{
		{"email": "bob@example.com", "password": "wrong"},
		{"email": "nobody@example.com", "password": "Sup3rSecret!"},
	} {
		resp := performJSON(t, app, http.MethodPost, "/api/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid credentials", decodeBody(t, resp)["message"])
	}
}

func TestLogoutRevokesPresentedTokenOnly(t *testing.T) {
	db := newTestDB(t)
	app, authService := newTestApp(t, db)
	account := seedVerifiedUser(t, db, "bob@example.com")

	tokenA, _, err := authService.IssueToken(account.ID, auth.DefaultTokenName)
	require.NoError(t, err)

	tokenB, _, err := authService.IssueToken(account.ID, auth.DefaultTokenName)
	require.NoError(t, err)

	resp := performJSON(t, app, http.MethodPost, "/api/logout", nil, tokenA)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// revoked token is rejected, the second session is still valid
	resp = performJSON(t, app, http.MethodPost, "/api/logout", nil, tokenA)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = performJSON(t, app, http.MethodPost, "/api/refresh", nil, tokenB)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRefreshLeavesSingleSession(t *testing.T) {
	db := newTestDB(t)
	app, authService := newTestApp(t, db)
	account := seedVerifiedUser(t, db, "bob@example.com")

	token, _, err := authService.IssueToken(account.ID, auth.DefaultTokenName)
	require.NoError(t, err)

	_, _, err = authService.IssueToken(account.ID, auth.DefaultTokenName)
	require.NoError(t, err)

	resp := performJSON(t, app, http.MethodPost, "/api/refresh", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.AccessToken{}).Where("user_id = ?", account.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	newToken := decodeBody(t, resp)["data"].(map[string]any)["token"].(string)
	assert.NotEqual(t, token, newToken)
}

func TestCurrentUser(t *testing.T) {
	db := newTestDB(t)
	app, authService := newTestApp(t, db)
	account := seedVerifiedUser(t, db, "bob@example.com")

	token, _, err := authService.IssueToken(account.ID, auth.DefaultTokenName)
	require.NoError(t, err)

	resp := performJSON(t, app, http.MethodGet, "/api/user", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	userData := decodeBody(t, resp)["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "bob@example.com", userData["email"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	db := newTestDB(t)
	app, _ := newTestApp(t, db)

	for _, target := range []string{"/api/logout", "/api/refresh"} {
		resp := performJSON(t, app, http.MethodPost, target, nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp := performJSON(t, app, http.MethodGet, "/api/user", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
