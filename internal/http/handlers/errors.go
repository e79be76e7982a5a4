package handlers

import (
	"errors"
	"strings"

	"github.com/auth-center/backend/internal/http/dto"
	"github.com/auth-center/backend/internal/middleware"
	"github.com/auth-center/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Client-facing statuses for service errors. Messages come from the sentinel,
// never from the wrapped detail, except for malformed input.
var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrMalformed, fiber.StatusBadRequest},
	{services.ErrInvalidState, fiber.StatusBadRequest},
	{services.ErrProviderRejected, fiber.StatusBadRequest},
	{services.ErrInvalidNonce, fiber.StatusForbidden},
	{services.ErrSignature, fiber.StatusForbidden},
	{services.ErrUnauthorizedApp, fiber.StatusForbidden},
	{services.ErrInvalidCode, fiber.StatusForbidden},
	{services.ErrNotFound, fiber.StatusNotFound},
	{services.ErrNotConfigured, fiber.StatusServiceUnavailable},
	{services.ErrUpstream, fiber.StatusBadGateway},
}

// emptyStatus answers with status and no body. c.SendStatus would fill an
// empty body with the status text.
func emptyStatus(c *fiber.Ctx, status int) error {
	return c.Status(status).Send(nil)
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg, RequestID: middleware.GetRequestID(c)})
}

func serviceError(c *fiber.Ctx, log *zap.Logger, err error) error {
	for _, e := range errorStatus {
		if !errors.Is(err, e.err) {
			continue
		}
		switch e.status {
		case fiber.StatusBadGateway, fiber.StatusServiceUnavailable:
			log.Error("provider call failed", zap.String("path", c.Path()), zap.Error(err))
		default:
			log.Debug("request rejected", zap.String("path", c.Path()), zap.Error(err))
		}
		msg := e.err.Error()
		if e.err == services.ErrMalformed {
			// "malformed request: missing code" -> "missing code"
			msg = strings.TrimPrefix(err.Error(), msg+": ")
		}
		return errorJSON(c, e.status, msg)
	}

	log.Error("unexpected error", zap.String("path", c.Path()), zap.Error(err))
	return errorJSON(c, fiber.StatusInternalServerError, "internal error")
}
