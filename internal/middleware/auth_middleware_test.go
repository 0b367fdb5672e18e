package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"go-cake-store/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, guard fiber.Handler) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Get("/who", guard, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"tenant": TenantID(c), "user": UserID(c)})
	})
	return app
}

func identity(t *testing.T, app *fiber.App, target string, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(body, &out))
	return resp.StatusCode, out
}

func TestRequireIdentity(t *testing.T) {
	tokens := jwt.NewManager("secret", "cake-store", time.Hour)
	app := newTestApp(t, RequireIdentity(tokens))

	token, err := tokens.GenerateToken(3, 9, "bia@example.com", "Bia")
	require.NoError(t, err)

	status, body := identity(t, app, "/who", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(3), body["tenant"])
	assert.Equal(t, float64(9), body["user"])

	status, _ = identity(t, app, "/who?access_token="+token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = identity(t, app, "/who", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = identity(t, app, "/who", map[string]string{"Authorization": "Token " + token})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = identity(t, app, "/who", map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRequireIdentityRejectsAnonymousToken(t *testing.T) {
	tokens := jwt.NewManager("secret", "cake-store", time.Hour)
	app := newTestApp(t, RequireIdentity(tokens))

	token, err := tokens.GenerateToken(3, 0, "", "")
	require.NoError(t, err)

	status, _ := identity(t, app, "/who", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestRequireTenant(t *testing.T) {
	tokens := jwt.NewManager("secret", "cake-store", time.Hour)
	app := newTestApp(t, RequireTenant(tokens))

	status, body := identity(t, app, "/who", map[string]string{TenantHeader: "4"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(4), body["tenant"])
	assert.Equal(t, float64(0), body["user"])

	token, err := tokens.GenerateToken(5, 1, "", "")
	require.NoError(t, err)
	status, body = identity(t, app, "/who", map[string]string{"Authorization": "Bearer " + token, TenantHeader: "4"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(5), body["tenant"])

	status, _ = identity(t, app, "/who", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = identity(t, app, "/who", map[string]string{TenantHeader: "abc"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = identity(t, app, "/who", map[string]string{TenantHeader: "0"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}
