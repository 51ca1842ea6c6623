package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shuttleclub/backend/internal/audit"
	"github.com/shuttleclub/backend/internal/models"
	"github.com/shuttleclub/backend/internal/store"
	"go.uber.org/zap"
)

// TeamService manages group wallets and their shuttlecock inventory.
type TeamService struct {
	store     store.Store
	ledger    *LedgerService
	events    *EventPublisher
	audit     *audit.Logger
	validator *ValidationHelper
	log       *zap.SugaredLogger
}

func NewTeamService(st store.Store, ledger *LedgerService, events *EventPublisher, auditLogger *audit.Logger, log *zap.SugaredLogger) *TeamService {
	return &TeamService{
		store:     st,
		ledger:    ledger,
		events:    events,
		audit:     auditLogger,
		validator: NewValidationHelper(),
		log:       log,
	}
}

// Create opens a team wallet. A non-zero opening amount is booked as the
// first group ledger entry so the wallet always equals its history.
func (s *TeamService) Create(ctx context.Context, actor models.Actor, req models.TeamRequest) (*models.Team, error) {
	if err := s.validator.ValidateStruct(&req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	members := make(models.TeamMembers, 0, len(req.Members))
	ids := make([]string, 0, len(req.Members))
	for _, m := range req.Members {
		if m.JoinedAt.IsZero() {
			m.JoinedAt = now
		}
		members = append(members, m)
		ids = append(ids, m.MemberID)
	}

	team := &models.Team{
		Name:              req.Name,
		NumberShuttlecock: req.NumberShuttlecock,
		ShuttlecockFee:    req.ShuttlecockFee,
		CourtFee:          req.CourtFee,
		Note:              req.Note,
		UpdateByID:        actor.MemberID,
		UpdateTime:        now,
		Members:           members,
	}

	var entry *models.TransactionHistory
	err := s.store.WithTx(ctx, func(q store.Queries) error {
		if err := s.resolveMembers(ctx, q, ids); err != nil {
			return err
		}
		if err := q.CreateTeam(ctx, team); err != nil {
			return err
		}
		if req.Amount == 0 {
			return nil
		}

		var err error
		entry, err = s.ledger.ApplyGroupDelta(ctx, q, team, req.Amount, "Opening balance", &actor.MemberID, nil)
		return err
	})
	if err != nil {
		return nil, s.fail("TEAM_CREATE", "", actor, err)
	}

	if entry != nil {
		s.ledger.Committed(entry)
		s.events.Publish(ctx, LedgerEvent{
			Type:    EventTeamOpened,
			ActorID: actor.MemberID,
			GroupID: team.ID,
			Entries: []*models.TransactionHistory{entry},
		})
	}
	s.log.Infow("Team created", "teamID", team.ID, "name", team.Name, "amount", team.Amount)
	return team, nil
}

func (s *TeamService) Get(ctx context.Context, id string) (*models.Team, error) {
	team, err := loadTeam(ctx, s.store, id)
	if err != nil {
		return nil, asAppError(err)
	}
	return team, nil
}

// AddFees tops up the shuttlecock inventory without moving money.
func (s *TeamService) AddFees(ctx context.Context, actor models.Actor, id string, req models.TeamFeesRequest) (*models.Team, error) {
	if err := s.validator.ValidateStruct(&req); err != nil {
		return nil, err
	}

	var updated *models.Team
	err := s.store.WithTx(ctx, func(q store.Queries) error {
		team, err := loadTeam(ctx, q, id)
		if err != nil {
			return err
		}
		team.NumberShuttlecock += req.NumberShuttlecock
		team.ShuttlecockFee += req.ShuttlecockFee
		team.UpdateByID = actor.MemberID
		team.UpdateTime = time.Now().UTC()
		if err := q.UpdateTeam(ctx, team); err != nil {
			return err
		}
		updated = team
		return nil
	})
	if err != nil {
		return nil, s.fail("TEAM_ADD_FEES", id, actor, err)
	}
	return updated, nil
}

// PayForShuttlecock buys shuttlecocks out of the team wallet.
func (s *TeamService) PayForShuttlecock(ctx context.Context, actor models.Actor, req models.ShuttlecockFeeRequest) (*models.Team, error) {
	if err := s.validator.ValidateStruct(&req); err != nil {
		return nil, err
	}

	var (
		updated *models.Team
		entry   *models.TransactionHistory
	)
	err := s.store.WithTx(ctx, func(q store.Queries) error {
		team, err := loadTeam(ctx, q, req.GroupID)
		if err != nil {
			return err
		}
		if req.ShuttlecockFee > team.Amount {
			return NewInsufficientFundsError("team balance does not cover the purchase", map[string]string{
				fieldShuttlecockFee: fmt.Sprintf("shuttlecock fee %d exceeds team balance %d", req.ShuttlecockFee, team.Amount),
			})
		}

		team.NumberShuttlecock += req.NumberShuttlecock
		team.ShuttlecockFee += req.ShuttlecockFee
		team.UpdateByID = actor.MemberID
		team.UpdateTime = time.Now().UTC()

		reason := fmt.Sprintf("Payment %d for %d shuttlecocks", req.ShuttlecockFee, req.NumberShuttlecock)
		entry, err = s.ledger.ApplyGroupDelta(ctx, q, team, -req.ShuttlecockFee, reason, &actor.MemberID, nil)
		if err != nil {
			return err
		}
		updated = team
		return nil
	})
	if err != nil {
		return nil, s.fail("TEAM_PAY_SHUTTLECOCK", req.GroupID, actor, err)
	}

	s.ledger.Committed(entry)
	s.events.Publish(ctx, LedgerEvent{
		Type:    EventShuttlecockPurchase,
		ActorID: actor.MemberID,
		GroupID: updated.ID,
		Entries: []*models.TransactionHistory{entry},
	})
	return updated, nil
}

func (s *TeamService) resolveMembers(ctx context.Context, q store.Queries, ids []string) error {
	requests := make([]models.ParticipantRequest, 0, len(ids))
	for _, id := range ids {
		requests = append(requests, models.ParticipantRequest{MemberID: id})
	}
	unique := uniqueMemberIDs(requests)

	found, err := q.FindActiveMembers(ctx, unique)
	if err != nil {
		return err
	}
	if len(found) != len(unique) {
		return NewReferenceError("one or more team members do not exist")
	}
	return nil
}

func (s *TeamService) fail(operation, id string, actor models.Actor, err error) error {
	return reportFailure(s.log, s.audit, operation, id, actor.MemberID, err)
}
