package handlers

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/auth-center/backend/internal/http/dto"
	"github.com/auth-center/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const startCommand = "/start "

type TelegramHandler struct {
	telegramService *services.TelegramService
	log             *zap.Logger
}

func NewTelegramHandler(telegramService *services.TelegramService, log *zap.Logger) *TelegramHandler {
	return &TelegramHandler{telegramService: telegramService, log: log}
}

// CreateSession starts a QR login.
// POST /qr-session
func (h *TelegramHandler) CreateSession(c *fiber.Ctx) error {
	// body is optional
	var req dto.QRSessionRequest
	_ = c.BodyParser(&req)

	res, err := h.telegramService.CreateSession(req.Redirect)
	if err != nil {
		h.log.Error("failed to create qr session", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "qr error")
	}
	return c.JSON(dto.QRSessionResponse{Token: res.Token, QR: res.QR, URL: res.URL})
}

// Poll reports the state of a QR session.
// GET /poll/:token
func (h *TelegramHandler) Poll(c *fiber.Ctx) error {
	sess, err := h.telegramService.Poll(c.Params("token"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.PollExpiredResponse{Status: "expired", Error: "expired"})
	}
	return c.JSON(dto.PollResponse{
		Status:   sess.Status,
		User:     sess.User,
		Code:     sess.Code,
		Redirect: sess.Redirect,
	})
}

// Webhook receives Bot API updates. Only "/start <token>" does anything;
// every other well-formed update is acknowledged and dropped.
// POST /webhook
func (h *TelegramHandler) Webhook(c *fiber.Ctx) error {
	var upd dto.TelegramUpdate
	if err := json.Unmarshal(c.Body(), &upd); err != nil {
		h.log.Debug("invalid webhook body", zap.Error(err))
		return emptyStatus(c, fiber.StatusBadRequest)
	}

	msg := upd.Message
	if msg == nil || msg.From == nil || !strings.HasPrefix(msg.Text, startCommand) {
		return emptyStatus(c, fiber.StatusOK)
	}
	token := strings.TrimSpace(strings.TrimPrefix(msg.Text, startCommand))
	if token == "" {
		return emptyStatus(c, fiber.StatusOK)
	}

	h.telegramService.Confirm(token, services.TelegramUser{
		ID:        msg.From.ID,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
		Username:  msg.From.Username,
	})
	return emptyStatus(c, fiber.StatusOK)
}

// WidgetLogin verifies a Telegram Login Widget callback payload.
// POST /telegram/auth
func (h *TelegramHandler) WidgetLogin(c *fiber.Ctx) error {
	fields, err := widgetFields(c.Body())
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	redirect := fields["redirect"]
	delete(fields, "redirect")

	res, err := h.telegramService.WidgetLogin(fields, redirect)
	if err != nil {
		return serviceError(c, h.log, err)
	}
	return c.JSON(dto.LoginResponse{OK: true, User: res.User, Code: res.Code, Redirect: res.Redirect})
}

// widgetFields flattens the widget JSON into strings exactly as Telegram
// hashed them. Numbers keep their original text.
func widgetFields(body []byte) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			fields[k] = val
		case json.Number:
			fields[k] = val.String()
		case nil:
			// absent
		default:
			b, _ := json.Marshal(val)
			fields[k] = string(b)
		}
	}
	return fields, nil
}
