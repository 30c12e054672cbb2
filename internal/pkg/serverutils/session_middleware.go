package serverutils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const sessionLocalKey = "session_id"

// SessionMiddleware makes sure every request carries a session id cookie and
// exposes it through SessionID.
func SessionMiddleware(cookieName string, ttl time.Duration) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id := ctx.Cookies(cookieName)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		ctx.Cookie(&fiber.Cookie{
			Name:     cookieName,
			Value:    id,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Expires:  time.Now().Add(ttl),
		})
		ctx.Locals(sessionLocalKey, id)
		return ctx.Next()
	}
}

func SessionID(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(sessionLocalKey).(string)
	return id
}
