package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/auth-center/backend/internal/auth"
	"github.com/auth-center/backend/internal/metrics"
	"github.com/auth-center/backend/internal/models"
	"github.com/auth-center/backend/internal/store"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

type GoogleConfig struct {
	ClientID        string
	ClientSecret    string
	CallbackURL     string
	DefaultRedirect string
	Timeout         time.Duration
}

// GoogleService runs the OAuth authorization-code flow against Google.
type GoogleService struct {
	oauth           *oauth2.Config
	states          *store.Store[models.OAuthState]
	exchange        *ExchangeService
	httpClient      *http.Client
	userInfoURL     string
	defaultRedirect string
	timeout         time.Duration
	audit           *AuditTrail
	metrics         *metrics.Metrics
	log             *zap.Logger
}

func NewGoogleService(
	cfg GoogleConfig,
	states *store.Store[models.OAuthState],
	exchange *ExchangeService,
	audit *AuditTrail,
	m *metrics.Metrics,
	log *zap.Logger,
) *GoogleService {
	return &GoogleService{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		states:          states,
		exchange:        exchange,
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		userInfoURL:     GoogleUserInfoURL,
		defaultRedirect: cfg.DefaultRedirect,
		timeout:         cfg.Timeout,
		audit:           audit,
		metrics:         m,
		log:             log,
	}
}

// HTTPClient is exposed so tests can intercept outbound calls.
func (s *GoogleService) HTTPClient() *http.Client {
	return s.httpClient
}

func (s *GoogleService) Enabled() bool {
	return s.oauth.ClientID != ""
}

// LoginURL stores a fresh state and returns Google's consent URL.
func (s *GoogleService) LoginURL(redirect string) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("%w: GOOGLE_CLIENT_ID is empty", ErrNotConfigured)
	}
	state := auth.RandomToken(auth.TokenBytes)
	s.states.Put(state, models.OAuthState{Redirect: redirect})
	s.metrics.TokenIssued(metrics.KindState)
	return s.oauth.AuthCodeURL(state), nil
}

// Callback finishes the flow and returns where to send the browser.
// The state is consumed before anything else, so it is single use even when
// the provider reports an error.
func (s *GoogleService) Callback(ctx context.Context, state, code, providerErr string) (string, error) {
	st, ok := s.states.Pop(state)
	if !ok {
		return "", ErrInvalidState
	}
	if providerErr != "" {
		return "", fmt.Errorf("%w: %s", ErrProviderRejected, providerErr)
	}
	if code == "" {
		return "", fmt.Errorf("%w: missing code", ErrMalformed)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			return "", fmt.Errorf("%w: token exchange: %s", ErrProviderRejected, rerr.ErrorCode)
		}
		return "", fmt.Errorf("%w: token exchange: %v", ErrUpstream, err)
	}

	user, err := s.fetchUser(ctx, tok)
	if err != nil {
		return "", err
	}

	s.metrics.LoginCompleted(models.MethodGoogle)
	s.log.Info("google login completed", zap.String("user_id", user.ID))

	if st.Redirect == "" {
		s.audit.LoginCompleted(models.MethodGoogle, user, false)
		if s.defaultRedirect != "" {
			return s.defaultRedirect, nil
		}
		return "/", nil
	}

	code = s.exchange.Mint(user, models.MethodGoogle)
	s.audit.LoginCompleted(models.MethodGoogle, user, true)
	return AppendCode(st.Redirect, code), nil
}

type googleUserInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *GoogleService) fetchUser(ctx context.Context, tok *oauth2.Token) (models.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return models.Identity{}, err
	}

	resp, err := s.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: userinfo: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.Identity{}, fmt.Errorf("%w: userinfo returned %d: %s", ErrUpstream, resp.StatusCode, string(b))
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return models.Identity{}, fmt.Errorf("%w: decode userinfo: %v", ErrUpstream, err)
	}
	if info.Sub == "" {
		return models.Identity{}, fmt.Errorf("%w: userinfo without sub", ErrUpstream)
	}
	return models.Identity{ID: info.Sub, Email: info.Email, Name: info.Name}, nil
}

// AppendCode adds code as a query parameter to target.
func AppendCode(target, code string) string {
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + "code=" + code
}
