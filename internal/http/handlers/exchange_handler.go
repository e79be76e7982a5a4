package handlers

import (
	"errors"

	"github.com/auth-center/backend/internal/http/dto"
	"github.com/auth-center/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ExchangeHandler struct {
	exchangeService *services.ExchangeService
	log             *zap.Logger
}

func NewExchangeHandler(exchangeService *services.ExchangeService, log *zap.Logger) *ExchangeHandler {
	return &ExchangeHandler{exchangeService: exchangeService, log: log}
}

// Exchange trades a one-time code for the user it was minted for.
// POST /exchange
func (h *ExchangeHandler) Exchange(c *fiber.Ctx) error {
	var req dto.ExchangeRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}

	entry, err := h.exchangeService.Redeem(req.Code, req.AppToken)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorizedApp) {
			h.log.Warn("exchange with unknown app token", zap.String("ip", c.IP()))
		}
		return serviceError(c, h.log, err)
	}

	return c.JSON(dto.ExchangeResponse{OK: true, User: entry.User, Method: entry.Method})
}
