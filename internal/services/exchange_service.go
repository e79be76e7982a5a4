package services

import (
	"fmt"

	"github.com/auth-center/backend/internal/auth"
	"github.com/auth-center/backend/internal/metrics"
	"github.com/auth-center/backend/internal/models"
	"github.com/auth-center/backend/internal/store"
	"go.uber.org/zap"
)

// ExchangeService mints and redeems one-time codes that carry a finished login
// from the provider flow to the client application.
type ExchangeService struct {
	codes     *store.Store[models.ExchangeCode]
	appTokens map[string]struct{}
	audit     *AuditTrail
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// NewExchangeService: an empty appTokens list lets any caller redeem.
func NewExchangeService(
	codes *store.Store[models.ExchangeCode],
	appTokens []string,
	audit *AuditTrail,
	m *metrics.Metrics,
	log *zap.Logger,
) *ExchangeService {
	allowed := make(map[string]struct{}, len(appTokens))
	for _, t := range appTokens {
		allowed[t] = struct{}{}
	}
	return &ExchangeService{
		codes:     codes,
		appTokens: allowed,
		audit:     audit,
		metrics:   m,
		log:       log,
	}
}

// Mint stores a fresh code for user. Expired codes are swept first.
func (s *ExchangeService) Mint(user models.Identity, method string) string {
	code := auth.RandomToken(auth.TokenBytes)
	s.codes.Put(code, models.ExchangeCode{User: user, Method: method})
	s.metrics.TokenIssued(metrics.KindCode)
	return code
}

// Redeem consumes code. Only one of any number of concurrent calls with the
// same code succeeds.
func (s *ExchangeService) Redeem(code, appToken string) (*models.ExchangeCode, error) {
	if len(s.appTokens) > 0 {
		if _, ok := s.appTokens[appToken]; !ok {
			s.metrics.Exchange(metrics.OutcomeUnauthorized)
			return nil, ErrUnauthorizedApp
		}
	}
	if code == "" {
		return nil, fmt.Errorf("%w: missing code", ErrMalformed)
	}

	entry, ok := s.codes.Pop(code)
	if !ok {
		s.metrics.Exchange(metrics.OutcomeInvalid)
		return nil, ErrInvalidCode
	}

	s.metrics.Exchange(metrics.OutcomeRedeemed)
	s.audit.CodeRedeemed(entry.Method, entry.User)
	s.log.Info("exchange code redeemed",
		zap.String("method", entry.Method),
		zap.String("user_id", entry.User.ID),
	)
	return &entry, nil
}
