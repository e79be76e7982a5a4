package handlers

import (
	"strings"

	"github.com/auth-center/backend/internal/http/dto"
	"github.com/auth-center/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type SolanaHandler struct {
	solanaService *services.SolanaService
	log           *zap.Logger
}

func NewSolanaHandler(solanaService *services.SolanaService, log *zap.Logger) *SolanaHandler {
	return &SolanaHandler{solanaService: solanaService, log: log}
}

// Nonce выдаёт nonce для подписи кошельком.
// POST /solana/nonce
func (h *SolanaHandler) Nonce(c *fiber.Ctx) error {
	var req dto.SolanaNonceRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.PublicKey) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "missing public_key")
	}

	nonce, err := h.solanaService.IssueNonce(req.PublicKey)
	if err != nil {
		return serviceError(c, h.log, err)
	}
	return c.JSON(dto.NonceResponse{Nonce: nonce})
}

// Auth проверяет подпись и выдаёт exchange code.
// POST /solana/auth
func (h *SolanaHandler) Auth(c *fiber.Ctx) error {
	var req dto.SolanaAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.PublicKey == "" || req.Signature == "" || req.Nonce == "" {
		return errorJSON(c, fiber.StatusBadRequest, "missing fields")
	}

	res, err := h.solanaService.Authenticate(services.SolanaAuthRequest{
		PublicKey: req.PublicKey,
		Signature: req.Signature,
		Nonce:     req.Nonce,
		Redirect:  req.Redirect,
	})
	if err != nil {
		return serviceError(c, h.log, err)
	}

	return c.JSON(dto.SolanaAuthResponse{
		OK:        true,
		PublicKey: res.User.ID,
		Code:      res.Code,
		Redirect:  res.Redirect,
	})
}
