package handlers

import (
	"github.com/auth-center/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

type GoogleHandler struct {
	googleService *services.GoogleService
	log           *zap.Logger
}

func NewGoogleHandler(googleService *services.GoogleService, log *zap.Logger) *GoogleHandler {
	return &GoogleHandler{googleService: googleService, log: log}
}

// Login sends the browser to Google's consent screen.
// GET /google/login?redirect=
func (h *GoogleHandler) Login(c *fiber.Ctx) error {
	// the redirect outlives this request in the state store
	loginURL, err := h.googleService.LoginURL(utils.CopyString(c.Query("redirect")))
	if err != nil {
		return serviceError(c, h.log, err)
	}
	return c.Redirect(loginURL, fiber.StatusFound)
}

// Callback is where Google returns the browser.
// GET /google/callback?code=&state=&error=
func (h *GoogleHandler) Callback(c *fiber.Ctx) error {
	location, err := h.googleService.Callback(c.UserContext(), c.Query("state"), c.Query("code"), c.Query("error"))
	if err != nil {
		return serviceError(c, h.log, err)
	}
	return c.Redirect(location, fiber.StatusFound)
}
