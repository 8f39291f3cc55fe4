package users

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	usersvc "ride-backend/internal/application/users"
	"ride-backend/internal/infrastructure/database"
	"ride-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUsers(t *testing.T) (*fiber.App, *usersvc.Service) {
	t.Helper()
	db, err := database.Open("sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	svc := &usersvc.Service{DB: db, Secret: []byte("secret")}
	h := &Handlers{Service: svc}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Post("/signup", h.Signup)
	app.Post("/verify", h.Verify)
	app.Get("/profile", func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"user_id": c.Get("X-User")})
		return c.Next()
	}, h.Profile)
	return app, svc
}

func post(t *testing.T, app *fiber.App, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

var signup = map[string]string{
	"email":                 "ana@example.com",
	"username":              "ana",
	"password":              "s3cret!pass",
	"password_confirmation": "s3cret!pass",
	"first_name":            "Ana",
	"last_name":             "Ruiz",
}

func TestSignup(t *testing.T) {
	app, _ := setupUsers(t)

	status, out := post(t, app, "/signup", signup)
	require.Equal(t, fiber.StatusCreated, status)
	user := out["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "ana", user["username"])
	_, hasHash := user["password_hash"]
	assert.False(t, hasHash)

	status, out = post(t, app, "/signup", signup)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "email_taken", out["error"].(map[string]interface{})["details"].(map[string]interface{})["code"])
}

func TestSignup_Invalid(t *testing.T) {
	app, _ := setupUsers(t)
	bad := map[string]string{"email": "nope", "username": "ana"}
	status, _ := post(t, app, "/signup", bad)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestVerifyAndProfile(t *testing.T) {
	app, svc := setupUsers(t)
	u, err := svc.Signup(context.Background(), usersvc.SignupInput{
		Email: "ana@example.com", Username: "ana", Password: "s3cret!pass", PasswordConfirmation: "s3cret!pass",
		FirstName: "Ana", LastName: "Ruiz",
	})
	require.NoError(t, err)

	status, _ := post(t, app, "/verify", map[string]string{"token": "bad"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	token, err := usersvc.SignVerificationToken([]byte("secret"), u.UserID, time.Now())
	require.NoError(t, err)
	status, _ = post(t, app, "/verify", map[string]string{"token": token})
	assert.Equal(t, fiber.StatusOK, status)

	req := httptest.NewRequest("GET", "/profile", nil)
	req.Header.Set("X-User", u.UserID.String())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	data := out["data"].(map[string]interface{})
	assert.Equal(t, true, data["user"].(map[string]interface{})["is_verified"])
	assert.EqualValues(t, 5, data["profile"].(map[string]interface{})["reputation"])

	req = httptest.NewRequest("GET", "/profile", nil)
	req.Header.Set("X-User", uuid.NewString())
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
