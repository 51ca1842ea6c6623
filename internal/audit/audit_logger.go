// Package audit writes one structured record per money movement so that ledger
// activity can be traced independently of the database.
package audit

import (
	"strconv"
	"time"

	"go.uber.org/zap"
)

type Event struct {
	Timestamp time.Time
	EventType string
	SessionID string
	AccountID string
	Amount    int64
	Status    string
	Details   map[string]string
}

type Logger struct {
	log *zap.SugaredLogger
}

func NewLogger(log *zap.SugaredLogger) *Logger {
	return &Logger{log: log.Named("audit")}
}

// LogLedgerEntry records a committed balance change on a member or team account.
func (a *Logger) LogLedgerEntry(accountType, accountID string, amount, balanceAfter int64, reason string) {
	a.write(Event{
		Timestamp: time.Now().UTC(),
		EventType: "LEDGER_" + accountType,
		AccountID: accountID,
		Amount:    amount,
		Status:    "SUCCESS",
		Details: map[string]string{
			"reason":        reason,
			"balance_after": strconv.FormatInt(balanceAfter, 10),
		},
	})
}

// LogOperation records a session or payment status change.
func (a *Logger) LogOperation(entity, id, from, to, actorID string) {
	a.write(Event{
		Timestamp: time.Now().UTC(),
		EventType: "TRANSITION",
		SessionID: id,
		AccountID: actorID,
		Status:    "SUCCESS",
		Details: map[string]string{
			"entity": entity,
			"from":   from,
			"to":     to,
		},
	})
}

func (a *Logger) LogError(operation, id, actorID string, err error) {
	a.write(Event{
		Timestamp: time.Now().UTC(),
		EventType: operation,
		SessionID: id,
		AccountID: actorID,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *Logger) write(event Event) {
	if a == nil || a.log == nil {
		return
	}
	a.log.Infow("AUDIT",
		"timestamp", event.Timestamp,
		"event_type", event.EventType,
		"session_id", event.SessionID,
		"account_id", event.AccountID,
		"amount", event.Amount,
		"status", event.Status,
		"details", event.Details,
	)
}
