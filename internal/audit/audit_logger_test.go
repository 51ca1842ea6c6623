package audit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_LogLedgerEntry(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	a := NewLogger(zap.New(core).Sugar())

	a.LogLedgerEntry("person", "m1", -6000, 4000, "Court fee")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "LEDGER_person", fields["event_type"])
	assert.Equal(t, "m1", fields["account_id"])
	assert.Equal(t, int64(-6000), fields["amount"])
	assert.Equal(t, "audit", entries[0].LoggerName)
}

func TestLogger_LogError(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	a := NewLogger(zap.New(core).Sugar())

	a.LogError("SESSION_PAY", "s1", "m1", errors.New("insufficient balance"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "FAILED", entries[0].ContextMap()["status"])
}

func TestLogger_NilSafe(t *testing.T) {
	var a *Logger
	assert.NotPanics(t, func() { a.LogOperation("session", "s1", "init", "edited", "m1") })
}
