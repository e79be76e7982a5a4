package services

import (
	"context"
	"time"

	"github.com/auth-center/backend/internal/events"
	"github.com/auth-center/backend/internal/models"
	"go.uber.org/zap"
)

// AuditTrail publishes login events for downstream consumers.
// Publishing is best-effort and never blocks or fails a login.
type AuditTrail struct {
	publisher events.Publisher
	timeout   time.Duration
	log       *zap.Logger
}

func NewAuditTrail(publisher events.Publisher, timeout time.Duration, log *zap.Logger) *AuditTrail {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &AuditTrail{publisher: publisher, timeout: timeout, log: log}
}

func (a *AuditTrail) LoginCompleted(method string, user models.Identity, codeIssued bool) {
	a.emit(events.Event{
		Type: events.EventLoginCompleted,
		Payload: map[string]any{
			"method":      method,
			"user_id":     user.ID,
			"code_issued": codeIssued,
		},
	})
}

func (a *AuditTrail) CodeRedeemed(method string, user models.Identity) {
	a.emit(events.Event{
		Type: events.EventCodeRedeemed,
		Payload: map[string]any{
			"method":  method,
			"user_id": user.ID,
		},
	})
}

func (a *AuditTrail) emit(ev events.Event) {
	if a == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.publisher.Publish(ctx, events.StreamAuth, ev); err != nil {
			a.log.Warn("failed to publish auth event", zap.String("type", ev.Type), zap.Error(err))
		}
	}()
}
