package services

import (
	"testing"

	"github.com/shuttleclub/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumShares(participants models.Participants) models.FeeShares {
	var total models.FeeShares
	add := func(s models.FeeShares) {
		total.CourtFee += s.CourtFee
		total.ShuttlecockFee += s.ShuttlecockFee
		total.ExtraFee += s.ExtraFee
	}
	for _, p := range participants {
		add(p.FeeShares)
		for _, sub := range p.SubParticipants {
			add(sub.FeeShares)
		}
	}
	return total
}

func TestParticipantAllocator_Allocate(t *testing.T) {
	f := newFixture(t)
	f.addMember("a", "An", 0)
	f.addMember("b", "Binh", 0)
	f.addMember("c", "Chi", 0)
	allocator := NewParticipantAllocator(f.sessions.log)

	t.Run("even court split", func(t *testing.T) {
		participants, err := allocator.Allocate(f.ctx, f.store, []models.ParticipantRequest{
			{MemberID: "a", FeeFlags: courtOnly()},
			{MemberID: "b", FeeFlags: courtOnly()},
			{MemberID: "c", FeeFlags: courtOnly()},
		}, FeeTotals{CourtFee: 90000})
		require.NoError(t, err)
		for _, p := range participants {
			assert.Equal(t, int64(30000), p.CourtFee)
		}
	})

	t.Run("guests take shares in roster order", func(t *testing.T) {
		participants, err := allocator.Allocate(f.ctx, f.store, []models.ParticipantRequest{
			{
				MemberID:     "a",
				FeeFlags:     allFees(),
				ModifiedFee:  500,
				Participants: []models.SubParticipantRequest{{Name: "guest", FeeFlags: courtOnly()}},
			},
			{MemberID: "b", FeeFlags: models.FeeFlags{IsCourtFeeApplied: true, IsShuttlecockFeeApplied: true}},
		}, FeeTotals{CourtFee: 100, ShuttlecockFee: 101, ExtraFee: 50})
		require.NoError(t, err)
		require.Len(t, participants, 2)

		a := participants[0]
		assert.Equal(t, models.FeeShares{CourtFee: 34, ShuttlecockFee: 51, ExtraFee: 50}, a.FeeShares)
		assert.Equal(t, int64(500), a.ModifiedFee)
		require.Len(t, a.SubParticipants, 1)
		assert.Equal(t, models.FeeShares{CourtFee: 33}, a.SubParticipants[0].FeeShares)
		assert.Equal(t, models.FeeShares{CourtFee: 33, ShuttlecockFee: 50}, participants[1].FeeShares)

		assert.Equal(t, models.FeeShares{CourtFee: 100, ShuttlecockFee: 101, ExtraFee: 50}, sumShares(participants))
	})

	t.Run("duplicate members are priced twice", func(t *testing.T) {
		participants, err := allocator.Allocate(f.ctx, f.store, []models.ParticipantRequest{
			{MemberID: "a", FeeFlags: courtOnly()},
			{MemberID: "a", FeeFlags: courtOnly()},
		}, FeeTotals{CourtFee: 3})
		require.NoError(t, err)
		assert.Equal(t, int64(2), participants[0].CourtFee)
		assert.Equal(t, int64(1), participants[1].CourtFee)
	})

	t.Run("unknown member fails the whole allocation", func(t *testing.T) {
		participants, err := allocator.Allocate(f.ctx, f.store, []models.ParticipantRequest{
			{MemberID: "a", FeeFlags: courtOnly()},
			{MemberID: "ghost", FeeFlags: courtOnly()},
		}, FeeTotals{CourtFee: 100})
		assert.Nil(t, participants)
		assert.True(t, IsKind(err, KindReference))
		assert.Contains(t, err.Error(), "ghost")
	})

	t.Run("fee with no takers is written off with a warning", func(t *testing.T) {
		participants, err := allocator.Allocate(f.ctx, f.store, []models.ParticipantRequest{
			{MemberID: "a", FeeFlags: courtOnly()},
		}, FeeTotals{CourtFee: 100, ExtraFee: 40})
		require.NoError(t, err)
		assert.Zero(t, participants[0].ExtraFee)
		assert.Equal(t, 1, f.logs.FilterMessage("fee written off: no participant opted in").Len())
	})

	t.Run("empty roster", func(t *testing.T) {
		participants, err := allocator.Allocate(f.ctx, f.store, nil, FeeTotals{})
		require.NoError(t, err)
		assert.Empty(t, participants)
	})
}
