// utils/respond.go - JSON envelope helpers
package utils

import (
	"github.com/gofiber/fiber/v2"
)

// OK sends {ok:true} merged with the given fields.
func OK(c *fiber.Ctx, fields fiber.Map) error {
	payload := fiber.Map{"ok": true}
	for k, v := range fields {
		payload[k] = v
	}
	return c.JSON(payload)
}

// Fail sends {ok:false, error:code} with the given status. The code is
// a stable machine-readable identifier, never a raw error message.
func Fail(c *fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{
		"ok":    false,
		"error": code,
	})
}
