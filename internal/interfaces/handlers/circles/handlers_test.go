package circles

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	circlesvc "ride-backend/internal/application/circles"
	"ride-backend/internal/infrastructure/database"
	"ride-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCircles(t *testing.T) *fiber.App {
	t.Helper()
	db, err := database.Open("sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	h := &Handlers{Service: &circlesvc.Service{DB: db}}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{"user_id": c.Get("X-User")})
		return c.Next()
	})
	app.Get("/circles", h.List)
	app.Post("/circles", h.Create)
	app.Get("/circles/:slug", h.Get)
	app.Patch("/circles/:slug", h.Update)
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, actor uuid.UUID, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User", actor.String())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestCreateAndGetCircle(t *testing.T) {
	app := setupCircles(t)
	admin := uuid.New()

	status, out := call(t, app, "POST", "/circles", admin, map[string]interface{}{
		"name": "Commuters", "slug_name": "commuters", "about": "Morning rides",
	})
	require.Equal(t, fiber.StatusCreated, status)
	data := out["data"].(map[string]interface{})
	membership := data["membership"].(map[string]interface{})
	assert.Equal(t, true, membership["is_admin"])
	assert.EqualValues(t, circlesvc.DefaultInvitations, membership["remaining_invitations"])

	status, _ = call(t, app, "POST", "/circles", uuid.New(), map[string]interface{}{"name": "Other", "slug_name": "commuters"})
	assert.Equal(t, fiber.StatusConflict, status)

	status, out = call(t, app, "GET", "/circles/commuters", admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Commuters", out["data"].(map[string]interface{})["name"])

	status, _ = call(t, app, "GET", "/circles/missing", admin, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestCreateCircle_LimitValidation(t *testing.T) {
	app := setupCircles(t)
	status, _ := call(t, app, "POST", "/circles", uuid.New(), map[string]interface{}{
		"name": "Limited", "slug_name": "limited", "is_limited": true,
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestListAndUpdate(t *testing.T) {
	app := setupCircles(t)
	admin, stranger := uuid.New(), uuid.New()
	priv := false
	status, _ := call(t, app, "POST", "/circles", admin, map[string]interface{}{"name": "Open", "slug_name": "open"})
	require.Equal(t, fiber.StatusCreated, status)
	status, _ = call(t, app, "POST", "/circles", admin, map[string]interface{}{"name": "Hidden", "slug_name": "hidden", "is_public": priv})
	require.Equal(t, fiber.StatusCreated, status)

	_, out := call(t, app, "GET", "/circles?public=true", admin, nil)
	assert.Len(t, out["data"], 1)
	_, out = call(t, app, "GET", "/circles", admin, nil)
	assert.Len(t, out["data"], 2)

	status, _ = call(t, app, "PATCH", "/circles/open", stranger, map[string]interface{}{"name": "Taken over"})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, out = call(t, app, "PATCH", "/circles/open", admin, map[string]interface{}{"about": "Everyone welcome"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Everyone welcome", out["data"].(map[string]interface{})["about"])
}
