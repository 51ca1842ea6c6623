package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shuttleclub/backend/internal/models"
	"github.com/shuttleclub/backend/internal/store"
	"go.uber.org/zap"
)

// FeeTotals are the session-wide amounts shared among participants.
type FeeTotals struct {
	CourtFee       int64
	ShuttlecockFee int64
	ExtraFee       int64
}

// ParticipantAllocator prices a participant roster against session fee totals.
type ParticipantAllocator struct {
	log *zap.SugaredLogger
}

func NewParticipantAllocator(log *zap.SugaredLogger) *ParticipantAllocator {
	return &ParticipantAllocator{log: log}
}

// Allocate verifies that every referenced member is active and returns priced
// participants. Shares are handed out in roster order, each primary followed
// by its guests, so earlier entries absorb the remainder units.
func (a *ParticipantAllocator) Allocate(ctx context.Context, q store.Queries, requests []models.ParticipantRequest, totals FeeTotals) (models.Participants, error) {
	if err := a.resolveMembers(ctx, q, requests); err != nil {
		return nil, err
	}

	var court, shuttle, extra int
	countFlags := func(f models.FeeFlags) {
		if f.IsCourtFeeApplied {
			court++
		}
		if f.IsShuttlecockFeeApplied {
			shuttle++
		}
		if f.IsExtraFeeApplied {
			extra++
		}
	}
	for _, p := range requests {
		countFlags(p.FeeFlags)
		for _, sub := range p.Participants {
			countFlags(sub.FeeFlags)
		}
	}

	courtShares := a.split("courtFee", totals.CourtFee, court)
	shuttleShares := a.split("shuttlecockFee", totals.ShuttlecockFee, shuttle)
	extraShares := a.split("extraFee", totals.ExtraFee, extra)

	var ci, si, ei int
	price := func(f models.FeeFlags) models.FeeShares {
		var shares models.FeeShares
		if f.IsCourtFeeApplied {
			shares.CourtFee = courtShares[ci]
			ci++
		}
		if f.IsShuttlecockFeeApplied {
			shares.ShuttlecockFee = shuttleShares[si]
			si++
		}
		if f.IsExtraFeeApplied {
			shares.ExtraFee = extraShares[ei]
			ei++
		}
		return shares
	}

	participants := make(models.Participants, 0, len(requests))
	for _, req := range requests {
		p := models.Participant{
			MemberID:        req.MemberID,
			FeeFlags:        req.FeeFlags,
			FeeShares:       price(req.FeeFlags),
			ModifiedFee:     req.ModifiedFee,
			SubParticipants: make([]models.SubParticipant, 0, len(req.Participants)),
		}
		for _, sub := range req.Participants {
			p.SubParticipants = append(p.SubParticipants, models.SubParticipant{
				Name:      sub.Name,
				FeeFlags:  sub.FeeFlags,
				FeeShares: price(sub.FeeFlags),
			})
		}
		participants = append(participants, p)
	}
	return participants, nil
}

func (a *ParticipantAllocator) resolveMembers(ctx context.Context, q store.Queries, requests []models.ParticipantRequest) error {
	if len(requests) == 0 {
		return nil
	}

	ids := uniqueMemberIDs(requests)
	members, err := q.FindActiveMembers(ctx, ids)
	if err != nil {
		return NewTransactionError(err)
	}
	if len(members) == len(ids) {
		return nil
	}

	found := make(map[string]bool, len(members))
	for _, m := range members {
		found[m.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return NewReferenceError(fmt.Sprintf("members not found: %s", strings.Join(missing, ", ")))
}

func (a *ParticipantAllocator) split(fee string, total int64, count int) []int64 {
	if count == 0 && total != 0 {
		a.log.Warnw("fee written off: no participant opted in", "fee", fee, "total", total)
	}
	return SplitFee(total, count)
}

func uniqueMemberIDs(requests []models.ParticipantRequest) []string {
	seen := make(map[string]bool, len(requests))
	ids := make([]string, 0, len(requests))
	for _, p := range requests {
		if !seen[p.MemberID] {
			seen[p.MemberID] = true
			ids = append(ids, p.MemberID)
		}
	}
	return ids
}
