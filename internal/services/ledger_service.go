package services

import (
	"context"
	"fmt"

	"github.com/shuttleclub/backend/internal/audit"
	"github.com/shuttleclub/backend/internal/metrics"
	"github.com/shuttleclub/backend/internal/models"
	"github.com/shuttleclub/backend/internal/store"
)

// LedgerService applies signed balance deltas to member and team accounts and
// writes the matching history entry with the same transaction handle. It does
// not check sufficiency; callers do that before debiting.
type LedgerService struct {
	audit *audit.Logger
}

func NewLedgerService(auditLogger *audit.Logger) *LedgerService {
	return &LedgerService{audit: auditLogger}
}

// ApplyMemberDelta moves member.Balance by amount and records a person entry.
// member is updated in place.
func (s *LedgerService) ApplyMemberDelta(ctx context.Context, q store.Queries, member *models.Member, amount int64, reason string, sessionID *string) (*models.TransactionHistory, error) {
	before := member.Balance
	after := before + amount

	if err := q.SetMemberBalance(ctx, member.ID, after); err != nil {
		return nil, fmt.Errorf("failed to update balance of member %s: %w", member.ID, err)
	}

	memberID := member.ID
	entry := &models.TransactionHistory{
		MemberID:      &memberID,
		SessionID:     sessionID,
		Type:          models.HistoryTypePerson,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Reason:        reason,
	}
	if err := q.InsertHistory(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record history for member %s: %w", member.ID, err)
	}

	member.Balance = after
	return entry, nil
}

// ApplyGroupDelta moves team.Amount by amount and records a group entry. The
// whole team row is persisted, so inventory changes made by the caller on team
// are saved with it.
func (s *LedgerService) ApplyGroupDelta(ctx context.Context, q store.Queries, team *models.Team, amount int64, reason string, memberID, sessionID *string) (*models.TransactionHistory, error) {
	before := team.Amount
	team.Amount = before + amount

	if err := q.UpdateTeam(ctx, team); err != nil {
		team.Amount = before
		return nil, fmt.Errorf("failed to update team %s: %w", team.ID, err)
	}

	groupID := team.ID
	entry := &models.TransactionHistory{
		MemberID:      memberID,
		GroupID:       &groupID,
		SessionID:     sessionID,
		Type:          models.HistoryTypeGroup,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  team.Amount,
		Reason:        reason,
	}
	if err := q.InsertHistory(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record history for team %s: %w", team.ID, err)
	}
	return entry, nil
}

// Committed reports entries whose transaction has committed.
func (s *LedgerService) Committed(entries ...*models.TransactionHistory) {
	for _, e := range entries {
		metrics.LedgerEntries.WithLabelValues(string(e.Type)).Inc()
		s.audit.LogLedgerEntry(string(e.Type), accountID(e), e.Amount, e.BalanceAfter, e.Reason)
	}
}

func accountID(e *models.TransactionHistory) string {
	if e.Type == models.HistoryTypeGroup && e.GroupID != nil {
		return *e.GroupID
	}
	if e.MemberID != nil {
		return *e.MemberID
	}
	return ""
}
