package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/auth-center/backend/internal/auth"
	"github.com/auth-center/backend/internal/metrics"
	"github.com/auth-center/backend/internal/models"
	"github.com/auth-center/backend/internal/store"
	"go.uber.org/zap"
)

// ConfirmOutcome is what a /start webhook did to its session.
type ConfirmOutcome int

const (
	ConfirmIgnored ConfirmOutcome = iota // unknown token or already authenticated
	ConfirmAuthenticated
	ConfirmExpired
)

var errAlreadyAuthenticated = errors.New("session already authenticated")

// TelegramUser is the sender of a bot message or a Login Widget payload.
type TelegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

func (u TelegramUser) Identity() models.Identity {
	return models.Identity{
		ID:        strconv.FormatInt(u.ID, 10),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
	}
}

type QRSessionResult struct {
	Token string `json:"token"`
	QR    string `json:"qr"`
	URL   string `json:"url"`
}

// WidgetLoginResult is returned for a verified Login Widget payload.
type WidgetLoginResult struct {
	User     models.Identity
	Code     string
	Redirect string
}

// TelegramService runs the QR deep-link login and the Login Widget check.
type TelegramService struct {
	sessions     *store.Store[models.QRSession]
	exchange     *ExchangeService
	bot          *BotClient
	botUsername  string
	botToken     string
	widgetMaxAge time.Duration
	now          func() time.Time
	audit        *AuditTrail
	metrics      *metrics.Metrics
	log          *zap.Logger
}

type TelegramConfig struct {
	BotUsername  string
	BotToken     string
	WidgetMaxAge time.Duration
}

func NewTelegramService(
	cfg TelegramConfig,
	sessions *store.Store[models.QRSession],
	exchange *ExchangeService,
	bot *BotClient,
	audit *AuditTrail,
	m *metrics.Metrics,
	log *zap.Logger,
) *TelegramService {
	return &TelegramService{
		sessions:     sessions,
		exchange:     exchange,
		bot:          bot,
		botUsername:  cfg.BotUsername,
		botToken:     cfg.BotToken,
		widgetMaxAge: cfg.WidgetMaxAge,
		now:          time.Now,
		audit:        audit,
		metrics:      m,
		log:          log,
	}
}

// DeepLink is the URL encoded into the QR code.
func (s *TelegramService) DeepLink(token string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", s.botUsername, token)
}

// CreateSession registers a pending session and renders its QR code.
func (s *TelegramService) CreateSession(redirect string) (*QRSessionResult, error) {
	token := auth.RandomToken(auth.TokenBytes)
	link := s.DeepLink(token)

	qrPNG, err := RenderQR(link)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}

	s.sessions.Put(token, models.QRSession{
		Token:    token,
		Status:   models.SessionStatusPending,
		Redirect: redirect,
	})
	s.metrics.TokenIssued(metrics.KindSession)

	return &QRSessionResult{Token: token, QR: qrPNG, URL: link}, nil
}

// Poll returns a snapshot of the session. Code and redirect are present only
// once authenticated and only if a redirect was requested.
func (s *TelegramService) Poll(token string) (*models.QRSession, error) {
	sess, ok := s.sessions.Get(token)
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Status != models.SessionStatusAuthenticated || sess.Redirect == "" {
		sess.Code = ""
		sess.Redirect = ""
	}
	return &sess, nil
}

// Confirm handles "/start <token>" sent to the bot by from.
// A live pending session becomes authenticated; an expired one is left as is.
// The user is told the result through the bot without waiting for delivery.
func (s *TelegramService) Confirm(token string, from TelegramUser) ConfirmOutcome {
	user := from.Identity()
	codeIssued := false

	_, err := s.sessions.Modify(token, func(sess models.QRSession) (models.QRSession, error) {
		if !models.IsValidTransition(sess.Status, models.SessionStatusAuthenticated) {
			return sess, errAlreadyAuthenticated
		}
		sess.Status = models.SessionStatusAuthenticated
		sess.User = &user
		if sess.Redirect != "" {
			sess.Code = s.exchange.Mint(user, models.MethodTelegram)
			codeIssued = true
		}
		return sess, nil
	})

	switch {
	case err == nil:
		s.metrics.LoginCompleted(models.MethodTelegram)
		s.audit.LoginCompleted(models.MethodTelegram, user, codeIssued)
		s.log.Info("qr session authenticated", zap.String("user_id", user.ID))
		s.bot.Notify(from.ID, MsgAuthenticated)
		return ConfirmAuthenticated
	case errors.Is(err, store.ErrExpired):
		s.bot.Notify(from.ID, MsgSessionExpired)
		return ConfirmExpired
	default:
		s.log.Debug("start command ignored", zap.Error(err))
		return ConfirmIgnored
	}
}

// WidgetLogin verifies a Telegram Login Widget payload. fields holds every
// field the widget sent, as strings.
func (s *TelegramService) WidgetLogin(fields map[string]string, redirect string) (*WidgetLoginResult, error) {
	if s.botToken == "" {
		return nil, fmt.Errorf("%w: BOT_TOKEN is empty", ErrNotConfigured)
	}

	err := auth.ValidateTelegramLoginWidget(fields, s.botToken, s.widgetMaxAge, s.now())
	switch {
	case errors.Is(err, auth.ErrWidgetMalformed):
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrSignature, err)
	}

	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid id", ErrMalformed)
	}
	user := TelegramUser{
		ID:        id,
		FirstName: fields["first_name"],
		LastName:  fields["last_name"],
		Username:  fields["username"],
	}.Identity()

	res := &WidgetLoginResult{User: user}
	if redirect != "" {
		res.Code = s.exchange.Mint(user, models.MethodTelegram)
		res.Redirect = redirect
	}

	s.metrics.LoginCompleted(models.MethodTelegram)
	s.audit.LoginCompleted(models.MethodTelegram, user, res.Code != "")
	return res, nil
}
