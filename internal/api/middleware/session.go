package middleware

import (
	"github.com/amaumene/rankboard/internal/controllers"
	"github.com/gofiber/fiber/v2"
)

// Session headers
const (
	DeviceHeader = "X-Device-ID"
	UserHeader   = "X-User-ID"
)

const sessionKey = "session"

// Session resolves the caller's session from the device and user headers
func Session(sessions *controllers.SessionManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := sessions.Get(c.Get(DeviceHeader), c.Get(UserHeader))
		if err != nil {
			return err
		}
		c.Locals(sessionKey, session)
		return c.Next()
	}
}

// CurrentSession returns the session resolved by Session
func CurrentSession(c *fiber.Ctx) *controllers.Session {
	session, _ := c.Locals(sessionKey).(*controllers.Session)
	return session
}
