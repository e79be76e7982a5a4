package http

import (
	"errors"

	"github.com/auth-center/backend/internal/config"
	"github.com/auth-center/backend/internal/http/handlers"
	"github.com/auth-center/backend/internal/metrics"
	"github.com/auth-center/backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// NewApp returns a fiber app whose unhandled errors render as JSON.
func NewApp(log *zap.Logger) *fiber.App {
	return fiber.New(fiber.Config{
		AppName: "auth-center",
		// Request strings (query, params, headers) are stored past the
		// handler, so they must not alias pooled buffers.
		Immutable: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{
				"error":      err.Error(),
				"request_id": middleware.GetRequestID(c),
			})
		},
	})
}

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	m *metrics.Metrics,
	telegramHandler *handlers.TelegramHandler,
	solanaHandler *handlers.SolanaHandler,
	googleHandler *handlers.GoogleHandler,
	exchangeHandler *handlers.ExchangeHandler,
	metaHandler *handlers.MetaHandler,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	// Meta
	app.Get("/", metaHandler.Index)
	app.Get("/methods", metaHandler.GetMethods)

	// Telegram
	app.Post("/qr-session", telegramHandler.CreateSession)
	app.Get("/poll/:token", telegramHandler.Poll)
	app.Post("/webhook", middleware.WebhookSecretMiddleware(cfg.WebhookSecret, log), telegramHandler.Webhook)
	app.Post("/telegram/auth", telegramHandler.WidgetLogin)

	// Solana
	app.Post("/solana/nonce", solanaHandler.Nonce)
	app.Post("/solana/auth", solanaHandler.Auth)

	// Google
	app.Get("/google/login", googleHandler.Login)
	app.Get("/google/callback", googleHandler.Callback)

	// Exchange
	app.Post("/exchange", exchangeHandler.Exchange)
}
