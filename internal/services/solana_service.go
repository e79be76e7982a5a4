package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/auth-center/backend/internal/auth"
	"github.com/auth-center/backend/internal/metrics"
	"github.com/auth-center/backend/internal/models"
	"github.com/auth-center/backend/internal/solana"
	"github.com/auth-center/backend/internal/store"
	"go.uber.org/zap"
)

type SolanaService struct {
	nonces   *store.Store[string]
	exchange *ExchangeService
	audit    *AuditTrail
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewSolanaService(
	nonces *store.Store[string],
	exchange *ExchangeService,
	audit *AuditTrail,
	m *metrics.Metrics,
	log *zap.Logger,
) *SolanaService {
	return &SolanaService{
		nonces:   nonces,
		exchange: exchange,
		audit:    audit,
		metrics:  m,
		log:      log,
	}
}

// IssueNonce создаёт nonce для подписи кошельком.
// A new nonce replaces any previous one for the same key.
func (s *SolanaService) IssueNonce(publicKey string) (string, error) {
	publicKey = strings.TrimSpace(publicKey)
	if publicKey == "" {
		return "", fmt.Errorf("%w: missing public_key", ErrMalformed)
	}

	nonce := solana.NoncePrefix + auth.RandomHex(16)
	s.nonces.Put(publicKey, nonce)
	s.metrics.TokenIssued(metrics.KindNonce)
	return nonce, nil
}

type SolanaAuthRequest struct {
	PublicKey string
	Signature string
	Nonce     string
	Redirect  string
}

type SolanaAuthResult struct {
	User     models.Identity
	Code     string
	Redirect string
}

// Authenticate проверяет подпись nonce и потребляет его (одноразовый).
func (s *SolanaService) Authenticate(req SolanaAuthRequest) (*SolanaAuthResult, error) {
	// same key normalization as IssueNonce
	req.PublicKey = strings.TrimSpace(req.PublicKey)
	if req.PublicKey == "" || req.Signature == "" || req.Nonce == "" {
		return nil, fmt.Errorf("%w: missing fields", ErrMalformed)
	}

	// 1. Nonce must be the one we issued and still live
	stored, ok := s.nonces.Get(req.PublicKey)
	if !ok || stored != req.Nonce {
		return nil, ErrInvalidNonce
	}

	// 2. Signature
	if err := solana.Verify(req.PublicKey, req.Signature, req.Nonce); err != nil {
		if errors.Is(err, solana.ErrMalformed) {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return nil, ErrSignature
	}

	// 3. Consume; a concurrent request with the same nonce may have won
	if !s.nonces.CompareAndDelete(req.PublicKey, func(v string) bool { return v == req.Nonce }) {
		return nil, ErrInvalidNonce
	}

	user := models.Identity{ID: req.PublicKey, Address: req.PublicKey}
	res := &SolanaAuthResult{User: user}
	if req.Redirect != "" {
		res.Code = s.exchange.Mint(user, models.MethodSolana)
		res.Redirect = req.Redirect
	}

	s.metrics.LoginCompleted(models.MethodSolana)
	s.audit.LoginCompleted(models.MethodSolana, user, res.Code != "")
	s.log.Info("wallet signature verified", zap.String("public_key", req.PublicKey))
	return res, nil
}
