package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shuttleclub/backend/internal/metrics"
	"github.com/shuttleclub/backend/internal/models"
	"go.uber.org/zap"
)

type EventType string

const (
	EventFixedSessionCreated EventType = "FIXED_SESSION_CREATED"
	EventSessionSettled      EventType = "SESSION_SETTLED"
	EventPaymentAccepted     EventType = "PAYMENT_ACCEPTED"
	EventShuttlecockPurchase EventType = "SHUTTLECOCK_PURCHASED"
	EventTeamOpened          EventType = "TEAM_OPENED"
)

// LedgerEvent describes one committed money movement.
type LedgerEvent struct {
	ID        string                       `json:"id"`
	Type      EventType                    `json:"type"`
	ActorID   string                       `json:"actorId"`
	GroupID   string                       `json:"groupId,omitempty"`
	SessionID string                       `json:"sessionId,omitempty"`
	PaymentID string                       `json:"paymentId,omitempty"`
	Entries   []*models.TransactionHistory `json:"entries"`
	Timestamp time.Time                    `json:"timestamp"`
}

// EventPublisher appends ledger events to a Redis list. A nil client turns
// publishing into a no-op.
type EventPublisher struct {
	rdb *redis.Client
	key string
	log *zap.SugaredLogger
}

func NewEventPublisher(rdb *redis.Client, key string, log *zap.SugaredLogger) *EventPublisher {
	return &EventPublisher{rdb: rdb, key: key, log: log}
}

// Publish runs after the transaction has committed. Failures are logged and
// counted but never returned.
func (p *EventPublisher) Publish(ctx context.Context, event LedgerEvent) {
	if p == nil || p.rdb == nil {
		return
	}

	start := time.Now()
	defer func() {
		metrics.EventPublishLatency.Observe(time.Since(start).Seconds())
	}()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		metrics.EventErrors.Inc()
		p.log.Errorw("Failed to marshal ledger event", "eventType", event.Type, "error", err)
		return
	}

	pushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.rdb.RPush(pushCtx, p.key, string(data)).Err(); err != nil {
		metrics.EventErrors.Inc()
		p.log.Errorw("Failed to publish ledger event",
			"eventType", event.Type,
			"eventID", event.ID,
			"error", err,
		)
		return
	}

	p.log.Debugw("Published ledger event", "eventType", event.Type, "eventID", event.ID, "key", p.key)
}
