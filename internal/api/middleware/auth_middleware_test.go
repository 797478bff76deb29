package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/maheshrc27/postpipe/configs"
	"github.com/maheshrc27/postpipe/pkg/utils"
)

func newApp(cfg config.Config) *fiber.App {
	app := fiber.New()
	app.Use(NewAuthMiddleware(cfg).AuthMiddleware())
	app.Get("/who", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("subject").(string))
	})
	return app
}

func call(t *testing.T, app *fiber.App, target string, headers map[string]string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestAuthOpenWhenUnconfigured(t *testing.T) {
	status, body := call(t, newApp(config.Config{}), "/who", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "anonymous", body)
}

func TestAuthAPIKey(t *testing.T) {
	app := newApp(config.Config{APIKey: "k-123"})

	status, _ := call(t, app, "/who", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body := call(t, app, "/who", map[string]string{"X-API-Key": "k-123"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "api_key", body)

	status, _ = call(t, app, "/who?api_key=k-123", nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = call(t, app, "/who?api_key=wrong", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = call(t, app, "/who", map[string]string{"Authorization": "Bearer whatever"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAuthBearerToken(t *testing.T) {
	app := newApp(config.Config{SecretKey: "s3cret"})

	token, err := utils.GenerateToken("s3cret", "editor", "workflow", time.Hour)
	require.NoError(t, err)
	status, body := call(t, app, "/who", map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "editor", body)

	bad, err := utils.GenerateToken("other", "editor", "workflow", time.Hour)
	require.NoError(t, err)
	status, _ = call(t, app, "/who", map[string]string{"Authorization": "Bearer " + bad})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
