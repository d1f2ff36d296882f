// Package middleware holds the request middlewares shared across
// routes.
package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// ClientIDKey is the locals key the resolved client identity is stored
// under.
const ClientIDKey = "client_id"

// ClientID resolves the identity used for per-client rate limiting:
// the X-Client-ID header when the client sends one, the remote IP
// otherwise.
func ClientID(c *fiber.Ctx) error {
	id := c.Get("X-Client-ID")
	if id == "" {
		id = c.IP()
	}
	c.Locals(ClientIDKey, id)
	return c.Next()
}

// ResolvedClientID reads the identity stored by ClientID, falling back
// to the remote IP when the middleware did not run.
func ResolvedClientID(c *fiber.Ctx) string {
	if id, ok := c.Locals(ClientIDKey).(string); ok && id != "" {
		return id
	}
	return c.IP()
}
