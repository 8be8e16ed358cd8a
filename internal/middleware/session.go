package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SessionCookie names the cookie that carries the browser session id.
const SessionCookie = "bd_session"

const sessionLocal = "session_id"

// Session issues a session cookie to browsers that do not present a valid one
// and exposes the id to handlers through SessionID. A zero maxAge issues a
// browser-session cookie.
func Session(secure bool, maxAge time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(SessionCookie)
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     SessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(maxAge.Seconds()),
				Secure:   secure,
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		c.Locals(sessionLocal, sid)
		return c.Next()
	}
}

// SessionID returns the session id assigned by Session.
func SessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(sessionLocal).(string)
	return sid
}
