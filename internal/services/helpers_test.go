package services

import (
	"sync"
	"time"

	"github.com/auth-center/backend/internal/metrics"
	"github.com/auth-center/backend/internal/models"
	"github.com/auth-center/backend/internal/store"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestExchange(clock *fakeClock, appTokens ...string) *ExchangeService {
	var opts []store.Option
	if clock != nil {
		opts = append(opts, store.WithClock(clock.Now))
	}
	return NewExchangeService(
		store.New[models.ExchangeCode](60*time.Second, opts...),
		appTokens,
		NewAuditTrail(nil, time.Second, zap.NewNop()),
		metrics.New(),
		zap.NewNop(),
	)
}
