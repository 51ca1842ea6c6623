package services

import (
	"context"
	"testing"
	"time"

	"github.com/shuttleclub/backend/internal/audit"
	"github.com/shuttleclub/backend/internal/config"
	"github.com/shuttleclub/backend/internal/models"
	"github.com/shuttleclub/backend/internal/store/memstore"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var (
	leadActor  = models.Actor{MemberID: "lead", Name: "Lan", Role: models.RoleLead}
	adminActor = models.Actor{MemberID: "admin", Name: "Hoa", Role: models.RoleAdmin}
)

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *memstore.Store
	cfg      *config.ClubConfig
	logs     *observer.ObservedLogs
	sessions *SessionService
	teams    *TeamService
	payments *PaymentService
	history  *HistoryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core).Sugar()
	st := memstore.New()
	cfg := &config.ClubConfig{
		Location:         time.UTC,
		DefaultPageSize:  10,
		MaxPageSize:      100,
		SessionListLimit: 20,
	}
	auditLogger := audit.NewLogger(log)
	ledger := NewLedgerService(auditLogger)
	events := NewEventPublisher(nil, "test-events", log)

	st.AddMember(models.Member{ID: leadActor.MemberID, Name: leadActor.Name, Role: models.RoleLead})
	st.AddMember(models.Member{ID: adminActor.MemberID, Name: adminActor.Name, Role: models.RoleAdmin})

	return &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    st,
		cfg:      cfg,
		logs:     logs,
		sessions: NewSessionService(st, ledger, events, auditLogger, cfg, log),
		teams:    NewTeamService(st, ledger, events, auditLogger, log),
		payments: NewPaymentService(st, ledger, events, auditLogger, cfg, log),
		history:  NewHistoryService(st, cfg),
	}
}

func (f *fixture) addMember(id, name string, balance int64) {
	f.store.AddMember(models.Member{ID: id, Name: name, Balance: balance, Role: models.RoleUser})
}

func (f *fixture) addTeam(amount, numberShuttlecock, shuttlecockFee int64) *models.Team {
	f.t.Helper()
	team := &models.Team{
		Name:              "Weeknight",
		Amount:            amount,
		NumberShuttlecock: numberShuttlecock,
		ShuttlecockFee:    shuttlecockFee,
		UpdateByID:        adminActor.MemberID,
	}
	require.NoError(f.t, f.store.CreateTeam(f.ctx, team))
	return team
}

func (f *fixture) balance(memberID string) int64 {
	f.t.Helper()
	m, err := f.store.GetMember(f.ctx, memberID)
	require.NoError(f.t, err)
	return m.Balance
}

func (f *fixture) team(id string) *models.Team {
	f.t.Helper()
	team, err := f.store.GetTeam(f.ctx, id)
	require.NoError(f.t, err)
	return team
}

func (f *fixture) session(id string) *models.Session {
	f.t.Helper()
	s, err := f.store.GetSession(f.ctx, id)
	require.NoError(f.t, err)
	return s
}

func (f *fixture) entries(filter models.HistoryFilter) []models.TransactionHistory {
	f.t.Helper()
	entries, _, err := f.store.ListHistory(f.ctx, filter)
	require.NoError(f.t, err)
	return entries
}

func courtDay(day int) time.Time {
	return time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC)
}

func allFees() models.FeeFlags {
	return models.FeeFlags{IsCourtFeeApplied: true, IsShuttlecockFeeApplied: true, IsExtraFeeApplied: true}
}

func courtOnly() models.FeeFlags {
	return models.FeeFlags{IsCourtFeeApplied: true}
}
