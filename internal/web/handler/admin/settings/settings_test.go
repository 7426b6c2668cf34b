package settings

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
	"github.com/GoUserHub/GoUserHub/internal/db/controller/setting"
	"github.com/GoUserHub/GoUserHub/internal/db/controller/user"
	"github.com/GoUserHub/GoUserHub/internal/db/models"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, string) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Setting{}, &models.AccessToken{}))
	require.NoError(t, setting.ResetToDefaults(db))

	app := fiber.New()

	authService, err := auth.NewService(db, nil)
	require.NoError(t, err)

	var s Service
	require.NoError(t, s.Init(app, &config.Config{
		Webserver: config.Webserver{URL: "http://localhost", Port: 3000},
	}, db, authService))

	now := time.Now()

	admin, err := user.Create(db, user.CreateParams{
		Name:            "Admin",
		Email:           "admin@example.com",
		Password:        "Sup3rSecret!",
		Role:            models.RoleSuperAdmin,
		EmailVerifiedAt: &now,
	})
	require.NoError(t, err)

	token, _, err := authService.IssueToken(admin.ID, auth.DefaultTokenName)
	require.NoError(t, err)

	return app, db, token
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

func TestRoutesRequireSuperAdmin(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp := performJSON(t, app, http.MethodGet, Path, nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIndexGroupsSettings(t *testing.T) {
	app, _, token := newTestApp(t)

	resp := performJSON(t, app, http.MethodGet, Path, nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := decodeBody(t, resp)["data"].(map[string]any)

	for _, group := range models.SettingGroups {
		assert.Contains(t, data, string(group))
	}

	general := data["general"].([]any)
	assert.NotEmpty(t, general)
}

func TestByGroup(t *testing.T) {
	app, _, token := newTestApp(t)

	resp := performJSON(t, app, http.MethodGet, Path+"/security", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := decodeBody(t, resp)["data"].(map[string]any)
	assert.Equal(t, "security", data["group"])
	assert.NotEmpty(t, data["settings"])

	resp = performJSON(t, app, http.MethodGet, Path+"/bogus", nil, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdate(t *testing.T) {
	app, db, token := newTestApp(t)

	resp := performJSON(t, app, http.MethodPut, Path, fiber.Map{
		"settings": []fiber.Map{
			{"key": "min_password_length", "value": 12},
			{"key": "app_name", "value": "Custom"},
		},
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.EqualValues(t, 12, setting.IntValue(db, "min_password_length", 8))
	assert.Equal(t, "Custom", setting.StringValue(db, "app_name", ""))
}

func TestUpdatePartialFailure(t *testing.T) {
	app, db, token := newTestApp(t)

	resp := performJSON(t, app, http.MethodPut, Path, fiber.Map{
		"settings": []fiber.Map{
			{"key": "min_password_length", "value": 12},
			{"key": "does_not_exist", "value": "x"},
			{"key": "maintenance_mode", "value": "not-a-bool"},
		},
	}, token)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "error", body["status"])

	// valid entries of the batch are still applied
	assert.EqualValues(t, 12, setting.IntValue(db, "min_password_length", 8))

	errs := body["errors"].([]any)
	require.Len(t, errs, 2)

	keys := []string{
		errs[0].(map[string]any)["key"].(string),
		errs[1].(map[string]any)["key"].(string),
	}
	assert.Contains(t, keys, "does_not_exist")
	assert.Contains(t, keys, "maintenance_mode")
}

func TestUpdateValidation(t *testing.T) {
	app, _, token := newTestApp(t)

	resp := performJSON(t, app, http.MethodPut, Path, fiber.Map{"settings": []fiber.Map{}}, token)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestReset(t *testing.T) {
	app, db, token := newTestApp(t)

	resp := performJSON(t, app, http.MethodPut, Path, fiber.Map{
		"settings": []fiber.Map{{"key": "app_name", "value": "Custom"}},
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = performJSON(t, app, http.MethodPost, Path+"/reset", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "GoUserHub", setting.StringValue(db, "app_name", ""))
}
