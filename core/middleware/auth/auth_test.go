package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(cfg Config) *fiber.App {
	app := fiber.New()
	app.Use(New(cfg))
	app.Get("/*", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		path   string
		key    string
		status int
	}{
		{"Disabled", Config{}, "/verification", "", 200},
		{"Missing Key", Config{ApiKey: "k"}, "/verification", "", 401},
		{"Wrong Key", Config{ApiKey: "k"}, "/verification", "x", 401},
		{"Valid Key", Config{ApiKey: "k"}, "/verification", "k", 200},
		{"Skipped Prefix", Config{ApiKey: "k", Skip: []string{"/swagger"}}, "/swagger/index.html", "", 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.key != "" {
				req.Header.Set(HeaderName, tt.key)
			}
			resp, err := newApp(tt.cfg).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
