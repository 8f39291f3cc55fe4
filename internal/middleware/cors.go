package middleware

import (
	"strings"

	"ride-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CORSConfig lists the frontend origins allowed to call the API with credentials.
type CORSConfig struct {
	// AllowedSuffix is a comma separated list of origin suffixes, e.g. ".ridecircles.app".
	AllowedSuffix string
	DevPassword   string
	// AllowLocalhost admits http://localhost and 127.0.0.1 origins outside production.
	AllowLocalhost bool
}

func (cfg CORSConfig) suffixes() []string {
	var out []string
	for _, s := range strings.Split(cfg.AllowedSuffix, ",") {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isLocalOrigin(origin string) bool {
	return strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")
}

// CORS admits requests without an Origin header, origins matching a configured
// suffix, local origins when enabled, and requests carrying the dev-password header.
// Preflights from admitted origins are answered with 204.
func CORS(cfg CORSConfig) fiber.Handler {
	suffixes := cfg.suffixes()
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			return c.Next()
		}
		c.Vary(fiber.HeaderOrigin)

		allowed := cfg.AllowLocalhost && isLocalOrigin(origin)
		lower := strings.ToLower(origin)
		for _, s := range suffixes {
			if strings.HasSuffix(lower, s) {
				allowed = true
				break
			}
		}
		if !allowed && cfg.DevPassword != "" && c.Get("dev-password") == cfg.DevPassword {
			allowed = true
		}
		if !allowed {
			return response.Error(c, "Not allowed by CORS", fiber.StatusForbidden, fiber.Map{"origin": origin})
		}

		setCORSHeaders(c, origin)
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}

func setCORSHeaders(c *fiber.Ctx, origin string) {
	c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
	c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
	c.Set(fiber.HeaderAccessControlAllowHeaders, "Content-Type, dev-password, X-Trace-Id")
	c.Set(fiber.HeaderAccessControlAllowMethods, "GET, POST, PATCH, DELETE, OPTIONS")
	c.Set(fiber.HeaderAccessControlExposeHeaders, "X-Trace-Id, Retry-After")
}
