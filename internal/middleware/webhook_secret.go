package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TelegramSecretHeader carries the secret_token registered with setWebhook.
const TelegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookSecretMiddleware rejects updates whose secret header does not match.
// An empty secret disables the check.
func WebhookSecretMiddleware(secret string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}
		got := c.Get(TelegramSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			log.Warn("webhook secret mismatch", zap.String("ip", c.IP()))
			return c.Status(fiber.StatusForbidden).Send(nil)
		}
		return c.Next()
	}
}
