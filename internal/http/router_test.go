package http

import (
	"bytes"
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/auth-center/backend/internal/config"
	"github.com/auth-center/backend/internal/http/handlers"
	"github.com/auth-center/backend/internal/metrics"
	"github.com/auth-center/backend/internal/middleware"
	"github.com/auth-center/backend/internal/models"
	"github.com/auth-center/backend/internal/services"
	"github.com/auth-center/backend/internal/store"
	"github.com/btcsuite/btcutil/base58"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/h2non/gock.v1"
)

const webhookSecret = "hook-secret"

type testServer struct {
	app    *fiber.App
	google *services.GoogleService
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	cfg := &config.Config{
		BotUsername:        "auth_center_bot",
		WebhookSecret:      webhookSecret,
		TelegramAPIURL:     "http://127.0.0.1:1",
		WidgetMaxAge:       time.Hour,
		GoogleClientID:     "client-id",
		GoogleClientSecret: "client-secret",
		GoogleCallbackURL:  "http://localhost:8886/google/callback",
		SessionTTL:         300 * time.Second,
		StateTTL:           300 * time.Second,
		CodeTTL:            60 * time.Second,
		NonceTTL:           300 * time.Second,
		OutboundTimeout:    time.Second,
		CORSOrigins:        "*",
	}
	if mutate != nil {
		mutate(cfg)
	}

	log := zap.NewNop()
	m := metrics.New()
	audit := services.NewAuditTrail(nil, time.Second, log)
	exchange := services.NewExchangeService(store.New[models.ExchangeCode](cfg.CodeTTL), cfg.AppTokens, audit, m, log)
	bot := services.NewBotClient(cfg.TelegramAPIURL, cfg.BotToken, cfg.OutboundTimeout, log)
	telegram := services.NewTelegramService(services.TelegramConfig{
		BotUsername:  cfg.BotUsername,
		BotToken:     cfg.BotToken,
		WidgetMaxAge: cfg.WidgetMaxAge,
	}, store.New[models.QRSession](cfg.SessionTTL), exchange, bot, audit, m, log)
	solana := services.NewSolanaService(store.New[string](cfg.NonceTTL), exchange, audit, m, log)
	google := services.NewGoogleService(services.GoogleConfig{
		ClientID:        cfg.GoogleClientID,
		ClientSecret:    cfg.GoogleClientSecret,
		CallbackURL:     cfg.GoogleCallbackURL,
		DefaultRedirect: cfg.DefaultRedirect,
		Timeout:         cfg.OutboundTimeout,
	}, store.New[models.OAuthState](cfg.StateTTL), exchange, audit, m, log)

	app := NewApp(log)
	SetupRouter(app, cfg, log, m,
		handlers.NewTelegramHandler(telegram, log),
		handlers.NewSolanaHandler(solana, log),
		handlers.NewGoogleHandler(google, log),
		handlers.NewExchangeHandler(exchange, log),
		handlers.NewMetaHandler(cfg),
	)
	return &testServer{app: app, google: google}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) (*nethttp.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var out map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

// postWebhook sends update and returns the status with the raw body.
func (s *testServer) postWebhook(t *testing.T, body io.Reader, secret string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/webhook", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.TelegramSecretHeader, secret)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode, string(raw)
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func startUpdate(token string) map[string]any {
	return map[string]any{
		"update_id": 1,
		"message": map[string]any{
			"text": "/start " + token,
			"from": map[string]any{"id": 777, "first_name": "Bob", "last_name": "Builder", "username": "bob"},
		},
	}
}

var secretHeader = map[string]string{middleware.TelegramSecretHeader: webhookSecret}

func TestQRFlow_EndToEnd(t *testing.T) {
	s := newTestServer(t, nil)

	resp, body := s.do(t, "POST", "/qr-session", map[string]any{"redirect": "https://app.example/cb"}, nil)
	require.Equal(t, 200, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, "https://t.me/auth_center_bot?start="+token, body["url"])
	assert.NotEmpty(t, body["qr"])

	resp, body = s.do(t, "GET", "/poll/"+token, nil, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "pending", body["status"])
	assert.Nil(t, body["user"])
	assert.NotContains(t, body, "code")

	resp, _ = s.do(t, "POST", "/webhook", startUpdate(token), secretHeader)
	require.Equal(t, 200, resp.StatusCode)

	resp, body = s.do(t, "GET", "/poll/"+token, nil, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "authenticated", body["status"])
	assert.Equal(t, "https://app.example/cb", body["redirect"])
	user, _ := body["user"].(map[string]any)
	assert.Equal(t, "777", user["id"])
	assert.Equal(t, "Bob", user["first_name"])
	assert.Equal(t, "Builder", user["last_name"])
	assert.Equal(t, "bob", user["username"])
	code, _ := body["code"].(string)
	require.NotEmpty(t, code)

	resp, body = s.do(t, "POST", "/exchange", map[string]any{"code": code}, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "telegram", body["method"])
	assert.Equal(t, user, body["user"])

	resp, body = s.do(t, "POST", "/exchange", map[string]any{"code": code}, nil)
	assert.Equal(t, 403, resp.StatusCode)
	assert.Equal(t, "invalid or expired code", body["error"])
}

func TestWebhook_Rejections(t *testing.T) {
	s := newTestServer(t, nil)
	_, body := s.do(t, "POST", "/qr-session", nil, nil)
	token := body["token"].(string)

	status, raw := s.postWebhook(t, jsonBody(t, startUpdate(token)), "wrong")
	assert.Equal(t, 403, status)
	assert.Empty(t, raw)

	_, body = s.do(t, "GET", "/poll/"+token, nil, nil)
	assert.Equal(t, "pending", body["status"], "rejected webhook must not touch the session")

	status, raw = s.postWebhook(t, strings.NewReader("{not json"), webhookSecret)
	assert.Equal(t, 400, status)
	assert.Empty(t, raw)

	other := map[string]any{"message": map[string]any{"text": "hello", "from": map[string]any{"id": 1}}}
	status, raw = s.postWebhook(t, jsonBody(t, other), webhookSecret)
	assert.Equal(t, 200, status)
	assert.Empty(t, raw)

	status, raw = s.postWebhook(t, jsonBody(t, startUpdate("unknown-token")), webhookSecret)
	assert.Equal(t, 200, status)
	assert.Empty(t, raw)

	status, raw = s.postWebhook(t, jsonBody(t, startUpdate(token)), webhookSecret)
	assert.Equal(t, 200, status)
	assert.Empty(t, raw)
}

func TestPoll_Unknown(t *testing.T) {
	s := newTestServer(t, nil)

	resp, body := s.do(t, "GET", "/poll/nope", nil, nil)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "expired", body["status"])
}

func TestSolanaFlow_EndToEnd(t *testing.T) {
	s := newTestServer(t, nil)
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	pk := base58.Encode(pub)

	resp, body := s.do(t, "POST", "/solana/nonce", map[string]any{"public_key": pk}, nil)
	require.Equal(t, 200, resp.StatusCode)
	nonce := body["nonce"].(string)
	assert.True(t, strings.HasPrefix(nonce, "Sign in to Auth Center\nNonce: "))

	sig := base64.StdEncoding.EncodeToString(ed25519.Sign(priv, []byte(nonce)))
	authReq := map[string]any{"public_key": pk, "signature": sig, "nonce": nonce, "redirect": "https://app.example/cb"}
	resp, body = s.do(t, "POST", "/solana/auth", authReq, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, pk, body["public_key"])
	assert.Equal(t, "https://app.example/cb", body["redirect"])
	code := body["code"].(string)

	resp, body = s.do(t, "POST", "/solana/auth", authReq, nil)
	assert.Equal(t, 403, resp.StatusCode)
	assert.Equal(t, "invalid or expired nonce", body["error"])

	resp, body = s.do(t, "POST", "/exchange", map[string]any{"code": code}, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "solana", body["method"])
	assert.Equal(t, pk, body["user"].(map[string]any)["id"])
}

func TestSolana_Errors(t *testing.T) {
	s := newTestServer(t, nil)
	pub, priv, _ := ed25519.GenerateKey(nil)
	_, otherPriv, _ := ed25519.GenerateKey(nil)
	pk := base58.Encode(pub)

	resp, body := s.do(t, "POST", "/solana/nonce", map[string]any{}, nil)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "missing public_key", body["error"])

	_, body = s.do(t, "POST", "/solana/nonce", map[string]any{"public_key": pk}, nil)
	nonce := body["nonce"].(string)

	resp, _ = s.do(t, "POST", "/solana/auth", map[string]any{"public_key": pk, "nonce": nonce}, nil)
	assert.Equal(t, 400, resp.StatusCode)

	resp, _ = s.do(t, "POST", "/solana/auth", map[string]any{"public_key": pk, "signature": "***", "nonce": nonce}, nil)
	assert.Equal(t, 400, resp.StatusCode)

	forged := base64.StdEncoding.EncodeToString(ed25519.Sign(otherPriv, []byte(nonce)))
	resp, body = s.do(t, "POST", "/solana/auth", map[string]any{"public_key": pk, "signature": forged, "nonce": nonce}, nil)
	assert.Equal(t, 403, resp.StatusCode)
	assert.Equal(t, "invalid signature", body["error"])

	good := base64.StdEncoding.EncodeToString(ed25519.Sign(priv, []byte(nonce)))
	resp, body = s.do(t, "POST", "/solana/auth", map[string]any{"public_key": pk, "signature": good, "nonce": nonce}, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.NotContains(t, body, "code")
}

func TestGoogleFlow_EndToEnd(t *testing.T) {
	s := newTestServer(t, nil)
	gock.InterceptClient(s.google.HTTPClient())
	defer gock.RestoreClient(s.google.HTTPClient())
	defer gock.Off()

	gock.New("https://oauth2.googleapis.com").
		Post("/token").
		Reply(200).
		JSON(map[string]any{"access_token": "access-123", "token_type": "Bearer", "expires_in": 3600})
	gock.New("https://www.googleapis.com").
		Get("/oauth2/v3/userinfo").
		MatchHeader("Authorization", "Bearer access-123").
		Reply(200).
		JSON(map[string]any{"sub": "g-1", "email": "carol@example.com", "name": "Carol"})

	resp, _ := s.do(t, "GET", "/google/login?redirect="+url.QueryEscape("https://app.example/cb?x=1"), nil, nil)
	require.Equal(t, 302, resp.StatusCode)
	consent, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", consent.Host)
	state := consent.Query().Get("state")

	resp, _ = s.do(t, "GET", "/google/callback?code=auth-code&state="+state, nil, nil)
	require.Equal(t, 302, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(location, "https://app.example/cb?x=1&code="), location)
	code := strings.TrimPrefix(location, "https://app.example/cb?x=1&code=")

	resp, body := s.do(t, "POST", "/exchange", map[string]any{"code": code}, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "google", body["method"])
	assert.Equal(t, map[string]any{"id": "g-1", "email": "carol@example.com", "name": "Carol"}, body["user"])
}

func TestGoogle_RedirectSurvivesLaterRequests(t *testing.T) {
	s := newTestServer(t, nil)
	gock.InterceptClient(s.google.HTTPClient())
	defer gock.RestoreClient(s.google.HTTPClient())
	defer gock.Off()

	gock.New("https://oauth2.googleapis.com").
		Post("/token").
		Reply(200).
		JSON(map[string]any{"access_token": "access-123", "token_type": "Bearer", "expires_in": 3600})
	gock.New("https://www.googleapis.com").
		Get("/oauth2/v3/userinfo").
		Reply(200).
		JSON(map[string]any{"sub": "g-1"})

	resp, _ := s.do(t, "GET", "/google/login?redirect="+url.QueryEscape("https://app.example/"), nil, nil)
	require.Equal(t, 302, resp.StatusCode)
	consent, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := consent.Query().Get("state")

	// reuse pooled request contexts with different query strings
	for i := 0; i < 20; i++ {
		s.do(t, "GET", "/google/login?redirect=ZZZZZZZZZZZZZZZZZZZZZZZZ", nil, nil)
		s.do(t, "GET", "/?redirect=YYYYYYYYYYYYYYYYYYYYYYYY", nil, nil)
	}

	resp, _ = s.do(t, "GET", "/google/callback?code=auth-code&state="+state, nil, nil)
	require.Equal(t, 302, resp.StatusCode)
	location := resp.Header.Get("Location")
	assert.True(t, strings.HasPrefix(location, "https://app.example/?code="), location)
}

func TestGoogle_ProviderErrorConsumesState(t *testing.T) {
	s := newTestServer(t, nil)

	resp, _ := s.do(t, "GET", "/google/login", nil, nil)
	consent, _ := url.Parse(resp.Header.Get("Location"))
	state := consent.Query().Get("state")

	resp, _ = s.do(t, "GET", "/google/callback?error=access_denied&state="+state, nil, nil)
	assert.Equal(t, 400, resp.StatusCode)

	resp, body := s.do(t, "GET", "/google/callback?code=auth-code&state="+state, nil, nil)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "invalid or expired state", body["error"])
}

func TestGoogle_NotConfigured(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.GoogleClientID = "" })

	resp, _ := s.do(t, "GET", "/google/login", nil, nil)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestExchange_AppTokens(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.AppTokens = []string{"app-1"} })

	resp, body := s.do(t, "POST", "/exchange", map[string]any{"code": "whatever", "app_token": "nope"}, nil)
	assert.Equal(t, 403, resp.StatusCode)
	assert.Equal(t, "unauthorized", body["error"])

	resp, body = s.do(t, "POST", "/exchange", map[string]any{"app_token": "app-1"}, nil)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "missing code", body["error"])

	resp, body = s.do(t, "POST", "/exchange", map[string]any{"code": "whatever", "app_token": "app-1"}, nil)
	assert.Equal(t, 403, resp.StatusCode)
	assert.Equal(t, "invalid or expired code", body["error"])
	assert.NotEmpty(t, body["request_id"])
}

func signedWidget(botToken string, fields map[string]string) map[string]any {
	pairs := make([]string, 0, len(fields))
	for k, v := range fields {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	secret := sha256.Sum256([]byte(botToken))
	h := hmac.New(sha256.New, secret[:])
	h.Write([]byte(strings.Join(pairs, "\n")))

	out := map[string]any{"hash": hex.EncodeToString(h.Sum(nil))}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func TestWidgetLogin(t *testing.T) {
	const botToken = "123:widget-token"
	s := newTestServer(t, func(c *config.Config) { c.BotToken = botToken })

	payload := signedWidget(botToken, map[string]string{
		"id":         "777",
		"first_name": "Bob",
		"auth_date":  strconv.FormatInt(time.Now().Unix(), 10),
	})
	// the widget sends id and auth_date as JSON numbers
	payload["id"] = json.Number("777")
	payload["auth_date"] = json.Number(payload["auth_date"].(string))
	payload["redirect"] = "https://app.example/cb"

	resp, body := s.do(t, "POST", "/telegram/auth", payload, nil)
	require.Equal(t, 200, resp.StatusCode, body)
	assert.Equal(t, "777", body["user"].(map[string]any)["id"])
	code := body["code"].(string)

	resp, body = s.do(t, "POST", "/exchange", map[string]any{"code": code}, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "telegram", body["method"])

	payload["first_name"] = "Mallory"
	resp, _ = s.do(t, "POST", "/telegram/auth", payload, nil)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestIndexAndMeta(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.DefaultRedirect = "https://landing.example" })

	resp, _ := s.do(t, "GET", "/", nil, nil)
	assert.Equal(t, 302, resp.StatusCode)
	assert.Equal(t, "https://landing.example", resp.Header.Get("Location"))

	resp, body := s.do(t, "GET", "/?redirect=https://app.example/cb", nil, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "https://app.example/cb", body["redirect"])

	resp, body = s.do(t, "GET", "/methods", nil, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, []any{"telegram", "solana", "google"}, body["methods"])

	resp, body = s.do(t, "GET", "/health", nil, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, "POST", "/qr-session", nil, nil)

	req := httptest.NewRequest("GET", "/metrics", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), `authcenter_tokens_issued_total{kind="qr_session"} 1`)
}
