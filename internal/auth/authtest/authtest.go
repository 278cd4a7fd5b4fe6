// Package authtest provides identity helpers for handler tests.
package authtest

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/wichananm65/ecofinds-backend/internal/auth"
)

// Header carries the caller's user id in tests.
const Header = "X-User-ID"

// Identity trusts the X-User-ID header and stores an unsigned token carrying
// that id, the same shape auth.Middleware leaves on the context.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if v := c.Get(Header); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				c.Locals(auth.LocalsKey, &jwt.Token{Claims: jwt.MapClaims{"user_id": id}})
			}
		}
		return c.Next()
	}
}
