package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shuttleclub/backend/internal/config"
	"github.com/shuttleclub/backend/internal/models"
	"github.com/shuttleclub/backend/internal/store"
)

// HistoryService answers read-only ledger and balance queries.
type HistoryService struct {
	store store.Store
	cfg   *config.ClubConfig
}

func NewHistoryService(st store.Store, cfg *config.ClubConfig) *HistoryService {
	return &HistoryService{store: st, cfg: cfg}
}

// DateRange bounds a history query. Either end may be nil.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// MemberHistory lists the person entries of one member.
func (s *HistoryService) MemberHistory(ctx context.Context, memberID string, dates DateRange, page, limit int) (*models.HistoryPage, error) {
	if _, err := s.store.GetMember(ctx, memberID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NewReferenceError(fmt.Sprintf("member %s not found", memberID))
		}
		return nil, NewTransactionError(err)
	}
	return s.list(ctx, models.HistoryFilter{
		Type:      models.HistoryTypePerson,
		MemberID:  memberID,
		StartDate: dates.Start,
		EndDate:   dates.End,
	}, page, limit)
}

// GroupHistory lists the group entries of one team wallet.
func (s *HistoryService) GroupHistory(ctx context.Context, groupID string, dates DateRange, page, limit int) (*models.HistoryPage, error) {
	if groupID == "" {
		return nil, NewValidationError("groupId is required", map[string]string{"groupId": "required"})
	}
	return s.list(ctx, models.HistoryFilter{
		Type:      models.HistoryTypeGroup,
		GroupID:   groupID,
		StartDate: dates.Start,
		EndDate:   dates.End,
	}, page, limit)
}

func (s *HistoryService) list(ctx context.Context, filter models.HistoryFilter, page, limit int) (*models.HistoryPage, error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, NewValidationError("endDate must not be before startDate", map[string]string{"endDate": "before startDate"})
	}
	filter.Page, filter.Limit = s.cfg.PageParams(page, limit)

	entries, total, err := s.store.ListHistory(ctx, filter)
	if err != nil {
		return nil, NewTransactionError(err)
	}
	return &models.HistoryPage{
		Page:         filter.Page,
		Limit:        filter.Limit,
		TotalPages:   models.TotalPages(total, filter.Limit),
		TotalCount:   total,
		Transactions: entries,
	}, nil
}

// MemberBalances lists active members with their balance and payment totals.
func (s *HistoryService) MemberBalances(ctx context.Context) ([]models.MemberBalance, error) {
	balances, err := s.store.ListMemberBalances(ctx)
	if err != nil {
		return nil, NewTransactionError(err)
	}
	return balances, nil
}
