package handlers

import (
	"github.com/auth-center/backend/internal/config"
	"github.com/auth-center/backend/internal/http/dto"
	"github.com/auth-center/backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

const serviceName = "auth-center"

type MetaHandler struct {
	cfg *config.Config
}

func NewMetaHandler(cfg *config.Config) *MetaHandler {
	return &MetaHandler{cfg: cfg}
}

// EnabledMethods lists the login methods this instance can serve.
func (h *MetaHandler) EnabledMethods() []string {
	methods := make([]string, 0, 3)
	if h.cfg.TelegramEnabled() {
		methods = append(methods, models.MethodTelegram)
	}
	methods = append(methods, models.MethodSolana)
	if h.cfg.GoogleEnabled() {
		methods = append(methods, models.MethodGoogle)
	}
	return methods
}

// Index: a visit without ?redirect goes to the default landing page when one
// is configured.
// GET /
func (h *MetaHandler) Index(c *fiber.Ctx) error {
	redirect := c.Query("redirect")
	if redirect == "" && h.cfg.DefaultRedirect != "" {
		return c.Redirect(h.cfg.DefaultRedirect, fiber.StatusFound)
	}
	return c.JSON(dto.MethodsResponse{Service: serviceName, Methods: h.EnabledMethods(), Redirect: redirect})
}

// GET /methods
func (h *MetaHandler) GetMethods(c *fiber.Ctx) error {
	return c.JSON(dto.MethodsResponse{Service: serviceName, Methods: h.EnabledMethods()})
}
