package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shuttleclub/backend/internal/models"
	"github.com/shuttleclub/backend/internal/store"
	"github.com/shuttleclub/backend/internal/store/memstore"
	"github.com/shuttleclub/backend/internal/store/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerService_ApplyMemberDelta(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	st := postgres.New(sqlx.NewDb(db, "postgres"))
	ledger := NewLedgerService(nil)
	ctx := context.Background()

	t.Run("debit writes balance and history together", func(t *testing.T) {
		member := &models.Member{ID: "m1", Balance: 10000}
		sessionID := "s1"
		memberID := "m1"

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE members SET balance = $1, updated_at = $2 WHERE id = $3")).
			WithArgs(4000, sqlmock.AnyArg(), "m1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO transaction_histories").
			WithArgs(sqlmock.AnyArg(), &memberID, nil, &sessionID, "person", -6000, 10000, 4000, "Court fee", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		var entry *models.TransactionHistory
		err := st.WithTx(ctx, func(q store.Queries) error {
			var err error
			entry, err = ledger.ApplyMemberDelta(ctx, q, member, -6000, "Court fee", &sessionID)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4000), member.Balance)
		assert.Equal(t, entry.BalanceAfter-entry.BalanceBefore, entry.Amount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("history failure rolls back balance", func(t *testing.T) {
		member := &models.Member{ID: "m1", Balance: 10000}

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("UPDATE members SET balance")).
			WithArgs(12000, sqlmock.AnyArg(), "m1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO transaction_histories").
			WillReturnError(assert.AnError)
		mock.ExpectRollback()

		err := st.WithTx(ctx, func(q store.Queries) error {
			_, err := ledger.ApplyMemberDelta(ctx, q, member, 2000, "Top up", nil)
			return err
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, int64(10000), member.Balance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerService_ApplyGroupDelta(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	ledger := NewLedgerService(nil)

	team := &models.Team{Name: "Thursday", Amount: 50000, NumberShuttlecock: 12}
	require.NoError(t, st.CreateTeam(ctx, team))

	team.NumberShuttlecock = 24
	memberID := "m1"
	entry, err := ledger.ApplyGroupDelta(ctx, st, team, -20000, "Shuttlecocks", &memberID, nil)
	require.NoError(t, err)

	assert.Equal(t, models.HistoryTypeGroup, entry.Type)
	assert.Equal(t, int64(50000), entry.BalanceBefore)
	assert.Equal(t, int64(30000), entry.BalanceAfter)
	assert.Equal(t, team.ID, *entry.GroupID)
	assert.Equal(t, "m1", *entry.MemberID)

	stored, err := st.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), stored.Amount)
	assert.Equal(t, int64(24), stored.NumberShuttlecock)

	t.Run("missing team leaves amount untouched", func(t *testing.T) {
		ghost := &models.Team{ID: "ghost", Amount: 100}
		_, err := ledger.ApplyGroupDelta(ctx, st, ghost, -50, "x", nil, nil)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Equal(t, int64(100), ghost.Amount)
	})
}

func TestLedgerService_Committed(t *testing.T) {
	ledger := NewLedgerService(nil)
	groupID := "g1"
	assert.NotPanics(t, func() {
		ledger.Committed(&models.TransactionHistory{Type: models.HistoryTypeGroup, GroupID: &groupID, Amount: -5})
	})
	assert.Equal(t, "g1", accountID(&models.TransactionHistory{Type: models.HistoryTypeGroup, GroupID: &groupID}))
}
