package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/shuttleclub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestEventPublisher_Publish(t *testing.T) {
	ctx := context.Background()
	groupID := "g1"
	event := LedgerEvent{
		ID:        "evt-1",
		Type:      EventSessionSettled,
		ActorID:   "m1",
		GroupID:   groupID,
		SessionID: "s1",
		Entries: []*models.TransactionHistory{
			{ID: "h1", GroupID: &groupID, Type: models.HistoryTypeGroup, Amount: -1000, BalanceBefore: 5000, BalanceAfter: 4000},
		},
		Timestamp: time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)

	t.Run("pushes onto the list", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		publisher := NewEventPublisher(rdb, "club:ledger-events", zap.NewNop().Sugar())

		mock.ExpectRPush("club:ledger-events", string(data)).SetVal(1)

		publisher.Publish(ctx, event)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis failure is logged only", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		core, logs := observer.New(zap.ErrorLevel)
		publisher := NewEventPublisher(rdb, "club:ledger-events", zap.New(core).Sugar())

		mock.ExpectRPush("club:ledger-events", string(data)).SetErr(assert.AnError)

		assert.NotPanics(t, func() { publisher.Publish(ctx, event) })
		assert.NoError(t, mock.ExpectationsWereMet())
		assert.Equal(t, 1, logs.FilterMessage("Failed to publish ledger event").Len())
	})

	t.Run("nil client is a no-op", func(t *testing.T) {
		publisher := NewEventPublisher(nil, "club:ledger-events", zap.NewNop().Sugar())
		assert.NotPanics(t, func() { publisher.Publish(ctx, event) })

		var nilPublisher *EventPublisher
		assert.NotPanics(t, func() { nilPublisher.Publish(ctx, event) })
	})
}
