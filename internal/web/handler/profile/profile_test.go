package profile

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

func newTestApp(t *testing.T, db *gorm.DB) (*fiber.App, *auth.Service) {
	t.Helper()

	app := fiber.New()

	authService, err := auth.NewService(db, nil)
	require.NoError(t, err)

	var s Service
	require.NoError(t, s.Init(app, &config.Config{
		Webserver: config.Webserver{URL: "http://localhost", Port: 3000},
	}, db, authService))

	return app, authService
}

func seedSession(t *testing.T, db *gorm.DB, authService *auth.Service, email string) (*models.User, string) {
	t.Helper()

	now := time.Now()

	account, err := user.Create(db, user.CreateParams{
		Name:            "Test User",
		Email:           email,
		Password:        "Sup3rSecret!",
		EmailVerifiedAt: &now,
	})
	require.NoError(t, err)

	token, _, err := authService.IssueToken(account.ID, auth.DefaultTokenName)
	require.NoError(t, err)

	return account, token
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

func TestGetRequiresAuth(t *testing.T) {
	db := newTestDB(t)
	app, _ := newTestApp(t, db)

	resp := performJSON(t, app, http.MethodGet, Path, nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetReturnsOwnProfile(t *testing.T) {
	db := newTestDB(t)
	app, authService := newTestApp(t, db)
	account, token := seedSession(t, db, authService, "me@example.com")

	resp := performJSON(t, app, http.MethodGet, Path, nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	userData := decodeBody(t, resp)["data"].(map[string]any)["user"].(map[string]any)
	assert.EqualValues(t, account.ID, userData["id"])
	assert.Equal(t, "me@example.com", userData["email"])

	// password material never leaves the API
	assert.NotContains(t, userData, "password")
}

func TestUpdatePartialPatch(t *testing.T) {
	db := newTestDB(t)
	app, authService := newTestApp(t, db)
	account, token := seedSession(t, db, authService, "me@example.com")

	resp := performJSON(t, app, http.MethodPut, Path, fiber.Map{
		"bio":   "Hello there",
		"phone": "12345",
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := user.GetByID(db, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello there", stored.Bio)
	assert.Equal(t, "12345", stored.Phone)

	// absent fields keep their value
	assert.Equal(t, "Test User", stored.Name)
	assert.Equal(t, "me@example.com", stored.Email)
}

func TestUpdateEmailTaken(t *testing.T) {
	db := newTestDB(t)
	app, authService := newTestApp(t, db)
	seedSession(t, db, authService, "other@example.com")
	_, token := seedSession(t, db, authService, "me@example.com")

	resp := performJSON(t, app, http.MethodPut, Path, fiber.Map{
		"email": "Other@Example.com",
	}, token)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Contains(t, body["errors"].(map[string]any), "email")
}

func TestChangePassword(t *testing.T) {
	db := newTestDB(t)
	app, authService := newTestApp(t, db)
	account, token := seedSession(t, db, authService, "me@example.com")

	tests := []struct {
		name           string
		body           fiber.Map
		expectedStatus int
		errField       string
	}{
		{
			name: "wrong current password",
			body: fiber.Map{
				"current_password":      "nope",
				"password":              "N3wSecret!!",
				"password_confirmation": "N3wSecret!!",
			},
			expectedStatus: http.StatusUnprocessableEntity,
			errField:       "current_password",
		},
		{
			name: "policy violation",
			body: fiber.Map{
				"current_password":      "Sup3rSecret!",
				"password":              "short",
				"password_confirmation": "short",
			},
			expectedStatus: http.StatusUnprocessableEntity,
			errField:       "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := performJSON(t, app, http.MethodPut, Path+"/password", tt.body, token)
			require.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Contains(t, decodeBody(t, resp)["errors"].(map[string]any), tt.errField)
		})
	}

	resp := performJSON(t, app, http.MethodPut, Path+"/password", fiber.Map{
		"current_password":      "Sup3rSecret!",
		"password":              "N3wSecret!!",
		"password_confirmation": "N3wSecret!!",
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// every session is revoked, including the one used for the change
	resp = performJSON(t, app, http.MethodGet, Path, nil, token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.AccessToken{}).Where("user_id = ?", account.ID).Count(&count).Error)
	assert.Zero(t, count)
}
