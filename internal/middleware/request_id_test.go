package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelahq/angela/internal/pkg/keys"
)

func TestRequestID(t *testing.T) {
	t.Run("generates a request ID when not present", func(t *testing.T) {
		app := fiber.New()

		app.Use(RequestID())
		app.Get("/test", func(c *fiber.Ctx) error {
			return c.SendStatus(200)
		})

		req := httptest.NewRequest("GET", "/test", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)

		requestID := resp.Header.Get("X-Request-ID")
		assert.NotEmpty(t, requestID)
		_, err = keys.ParseUUID(requestID)
		assert.NoError(t, err)
	})

	t.Run("echoes the caller's request ID", func(t *testing.T) {
		app := fiber.New()

		app.Use(RequestID())
		app.Get("/test", func(c *fiber.Ctx) error {
			return c.SendStatus(200)
		})

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Request-ID", "retry-attempt-3")

		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, "retry-attempt-3", resp.Header.Get("X-Request-ID"))
	})

	t.Run("makes the ID available via GetRequestID", func(t *testing.T) {
		app := fiber.New()

		var seen string
		app.Use(RequestID())
		app.Get("/test", func(c *fiber.Ctx) error {
			seen = GetRequestID(c)
			return c.SendStatus(200)
		})

		req := httptest.NewRequest("GET", "/test", nil)
		_, err := app.Test(req)
		require.NoError(t, err)

		assert.NotEmpty(t, seen)
	})
}

func TestRequestIDWithConfig(t *testing.T) {
	t.Run("uses a custom header and generator", func(t *testing.T) {
		app := fiber.New()

		calls := 0
		app.Use(RequestID(RequestIDConfig{
			Header: "X-Trace-ID",
			Generator: func() string {
				calls++
				return "trace-7"
			},
		}))
		app.Get("/test", func(c *fiber.Ctx) error {
			return c.SendStatus(200)
		})

		resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)

		assert.Equal(t, "trace-7", resp.Header.Get("X-Trace-ID"))
		assert.Equal(t, 1, calls)
	})

	t.Run("skips the generator when the caller sent an ID", func(t *testing.T) {
		app := fiber.New()

		calls := 0
		app.Use(RequestID(RequestIDConfig{
			Header: "X-Request-ID",
			Generator: func() string {
				calls++
				return "generated"
			},
		}))
		app.Get("/test", func(c *fiber.Ctx) error {
			return c.SendStatus(200)
		})

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Request-ID", "client-id")
		_, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, 0, calls)
	})
}

func TestDefaultRequestIDConfig(t *testing.T) {
	config := DefaultRequestIDConfig()
	assert.Equal(t, "X-Request-ID", config.Header)

	id := config.Generator()
	_, err := keys.ParseUUID(id)
	assert.NoError(t, err)
}
