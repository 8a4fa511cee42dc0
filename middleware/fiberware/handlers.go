package fiberware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-membership"
)

// LoginHandler authenticates a posted membership.LoginRequest
func LoginHandler(provider membership.CurrentUserProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := new(membership.LoginRequest)
		if err := c.BodyParser(payload); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "failed to parse payload",
			})
		}

		if err := payload.Validate(); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":      "invalid payload",
				"validation": err.Error(),
			})
		}

		rc := RequestContext(c)
		user, err := provider.Login(c.UserContext(), rc, payload.Username, payload.Password, payload.Remember)
		if err != nil {
			return writeError(c, err)
		}

		return c.JSON(fiber.Map{
			"user":  user,
			"token": rc.Token(),
		})
	}
}

// LogoutHandler ends the session
func LogoutHandler(provider membership.CurrentUserProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := provider.Logout(c.UserContext(), RequestContext(c)); err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

// CurrentHandler returns the current user or 401
func CurrentHandler(provider membership.CurrentUserProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := provider.GetCurrent(RequestContext(c))
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "not authenticated",
			})
		}
		return c.JSON(fiber.Map{"user": user})
	}
}

func writeError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "An unexpected server error occurred"
	textCode := ""

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		if richErr.Code != 0 {
			status = richErr.Code
		}
		message = richErr.Message
		textCode = richErr.TextCode
	}

	return c.Status(status).JSON(fiber.Map{
		"error":     message,
		"text_code": textCode,
	})
}
