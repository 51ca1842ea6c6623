package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shuttleclub/backend/internal/audit"
	"github.com/shuttleclub/backend/internal/config"
	"github.com/shuttleclub/backend/internal/metrics"
	"github.com/shuttleclub/backend/internal/models"
	"github.com/shuttleclub/backend/internal/store"
	"go.uber.org/zap"
)

const (
	fieldNumberShuttlecock = "numberShuttlecock"
	fieldShuttlecockFee    = "shuttlecockFee"
)

// SessionService drives a badminton session through init, edited, confirmed
// and done. Every write runs inside one store transaction.
type SessionService struct {
	store     store.Store
	allocator *ParticipantAllocator
	ledger    *LedgerService
	events    *EventPublisher
	audit     *audit.Logger
	validator *ValidationHelper
	cfg       *config.ClubConfig
	log       *zap.SugaredLogger
}

func NewSessionService(st store.Store, ledger *LedgerService, events *EventPublisher, auditLogger *audit.Logger, cfg *config.ClubConfig, log *zap.SugaredLogger) *SessionService {
	return &SessionService{
		store:     st,
		allocator: NewParticipantAllocator(log),
		ledger:    ledger,
		events:    events,
		audit:     auditLogger,
		validator: NewValidationHelper(),
		cfg:       cfg,
		log:       log,
	}
}

// Create stores a casual session for the first date, or one fixed session per
// date. A fixed booking pays its whole court fee from the team wallet up front.
func (s *SessionService) Create(ctx context.Context, actor models.Actor, req models.SessionRequest) ([]models.Session, error) {
	if err := s.validator.ValidateStruct(&req); err != nil {
		return nil, err
	}

	if req.CourtType == models.CourtTypeFixed {
		return s.createFixed(ctx, actor, req)
	}

	session := s.newSession(actor, req, req.DateList[0])
	err := s.store.WithTx(ctx, func(q store.Queries) error {
		if _, err := s.loadTeam(ctx, q, req.GroupID); err != nil {
			return err
		}

		participants, err := s.allocator.Allocate(ctx, q, req.Participants, FeeTotals{
			CourtFee:       req.CourtFee,
			ShuttlecockFee: req.ShuttlecockFee,
			ExtraFee:       req.ExtraFee,
		})
		if err != nil {
			return err
		}
		session.Participants = participants

		return q.CreateSession(ctx, session)
	})
	if err != nil {
		return nil, s.fail("SESSION_CREATE", "", actor, err)
	}

	s.transitioned(session, "", actor)
	return []models.Session{*session}, nil
}

func (s *SessionService) createFixed(ctx context.Context, actor models.Actor, req models.SessionRequest) ([]models.Session, error) {
	perDate := decimal.NewFromInt(req.CourtFee).
		Div(decimal.NewFromInt(int64(len(req.DateList)))).
		Round(0).
		IntPart()

	var (
		sessions []models.Session
		entry    *models.TransactionHistory
	)
	err := s.store.WithTx(ctx, func(q store.Queries) error {
		team, err := s.loadTeam(ctx, q, req.GroupID)
		if err != nil {
			return err
		}
		if team.Amount < req.CourtFee {
			return NewInsufficientFundsError("team balance does not cover the fixed court fee", map[string]string{
				"courtFee": fmt.Sprintf("team balance %d is less than court fee %d", team.Amount, req.CourtFee),
			})
		}

		participants, err := s.allocator.Allocate(ctx, q, req.Participants, FeeTotals{CourtFee: perDate})
		if err != nil {
			return err
		}

		sessions = make([]models.Session, 0, len(req.DateList))
		for _, date := range req.DateList {
			session := s.newSession(actor, req, date)
			session.CourtFee = perDate
			session.ShuttlecockFee = 0
			session.ExtraFee = 0
			session.NumberShuttlecock = 0
			session.Participants = cloneParticipants(participants)
			if err := q.CreateSession(ctx, session); err != nil {
				return err
			}
			sessions = append(sessions, *session)
		}

		reason := fmt.Sprintf("Fixed court fee for %s on %s", req.Location, formatHumanDates(req.DateList, s.cfg.Location))
		entry, err = s.ledger.ApplyGroupDelta(ctx, q, team, -req.CourtFee, reason, nil, nil)
		return err
	})
	if err != nil {
		return nil, s.fail("SESSION_CREATE", "", actor, err)
	}

	s.ledger.Committed(entry)
	for i := range sessions {
		s.transitioned(&sessions[i], "", actor)
	}
	s.events.Publish(ctx, LedgerEvent{
		Type:    EventFixedSessionCreated,
		ActorID: actor.MemberID,
		GroupID: req.GroupID,
		Entries: []*models.TransactionHistory{entry},
	})
	return sessions, nil
}

// Update replaces the session contents. Shuttlecock budget overruns are
// returned as warnings and do not block the save.
func (s *SessionService) Update(ctx context.Context, actor models.Actor, id string, req models.SessionRequest) (*models.SessionResult, error) {
	if err := s.validator.ValidateStruct(&req); err != nil {
		return nil, err
	}

	var (
		result *models.SessionResult
		from   models.SessionStatus
	)
	err := s.store.WithTx(ctx, func(q store.Queries) error {
		session, err := s.loadSession(ctx, q, id)
		if err != nil {
			return err
		}
		from = session.Status
		if session.Status != models.SessionStatusInit && session.Status != models.SessionStatusEdited {
			return NewStateError(fmt.Sprintf("session in status %s cannot be edited", session.Status))
		}

		team, err := s.sessionTeam(ctx, q, session, req)
		if err != nil {
			return err
		}
		if err := s.apply(ctx, q, actor, session, req); err != nil {
			return err
		}
		session.Status = models.SessionStatusEdited

		if err := q.UpdateSession(ctx, session); err != nil {
			return err
		}
		result = &models.SessionResult{Session: session, Errors: shuttlecockBudget(team, req)}
		return nil
	})
	if err != nil {
		return nil, s.fail("SESSION_UPDATE", id, actor, err)
	}

	if from != models.SessionStatusEdited {
		s.transitioned(result.Session, from, actor)
	}
	return result, nil
}

// Confirm applies the same replacement as Update, but a shuttlecock budget
// overrun rejects the call and leaves the session untouched.
func (s *SessionService) Confirm(ctx context.Context, actor models.Actor, id string, req models.SessionRequest) (*models.Session, error) {
	if err := s.validator.ValidateStruct(&req); err != nil {
		return nil, err
	}

	var confirmed *models.Session
	err := s.store.WithTx(ctx, func(q store.Queries) error {
		session, err := s.loadSession(ctx, q, id)
		if err != nil {
			return err
		}
		if session.Status != models.SessionStatusEdited {
			return NewStateError(fmt.Sprintf("session in status %s cannot be confirmed", session.Status))
		}

		team, err := s.sessionTeam(ctx, q, session, req)
		if err != nil {
			return err
		}
		if warnings := shuttlecockBudget(team, req); len(warnings) > 0 {
			return NewInsufficientFundsError("shuttlecock budget exceeded", warnings)
		}

		if err := s.apply(ctx, q, actor, session, req); err != nil {
			return err
		}
		session.Status = models.SessionStatusConfirmed

		if err := q.UpdateSession(ctx, session); err != nil {
			return err
		}
		confirmed = session
		return nil
	})
	if err != nil {
		return nil, s.fail("SESSION_CONFIRM", id, actor, err)
	}

	s.transitioned(confirmed, models.SessionStatusEdited, actor)
	return confirmed, nil
}

// Pay settles a confirmed session. Each member is charged the total of their
// own shares, guests and modified fee. The team wallet pays the extra fee, the
// modified fees and, for casual sessions, the court fee. Any shortfall aborts
// the whole settlement.
func (s *SessionService) Pay(ctx context.Context, actor models.Actor, id string) (*models.Session, error) {
	var (
		settled *models.Session
		entries []*models.TransactionHistory
	)
	err := s.store.WithTx(ctx, func(q store.Queries) error {
		entries = nil

		session, err := s.loadSession(ctx, q, id)
		if err != nil {
			return err
		}
		if session.Status != models.SessionStatusConfirmed {
			return NewStateError(fmt.Sprintf("session in status %s cannot be paid", session.Status))
		}

		owed := map[string]int64{}
		var ids []string
		for _, p := range session.Participants {
			if _, ok := owed[p.MemberID]; !ok {
				ids = append(ids, p.MemberID)
			}
			owed[p.MemberID] += p.TotalFee()
		}

		found, err := q.FindActiveMembers(ctx, ids)
		if err != nil {
			return err
		}
		if len(found) != len(ids) {
			return NewReferenceError("one or more participants are no longer active members")
		}
		members := make(map[string]*models.Member, len(found))
		shortfalls := map[string]string{}
		for i := range found {
			m := &found[i]
			members[m.ID] = m
			if m.Balance < owed[m.ID] {
				shortfalls[m.ID] = fmt.Sprintf("balance %d is less than fee %d", m.Balance, owed[m.ID])
			}
		}
		if len(shortfalls) > 0 {
			return NewInsufficientFundsError("member balance does not cover the session fee", shortfalls)
		}

		team, err := s.loadTeam(ctx, q, session.GroupID)
		if err != nil {
			return err
		}

		sessionID := session.ID
		when := formatHumanDate(session.Time, s.cfg.Location)
		for _, p := range session.Participants {
			entry, err := s.ledger.ApplyMemberDelta(ctx, q, members[p.MemberID], -p.TotalFee(),
				fmt.Sprintf("Badminton fee at %s on %s", session.Location, when), &sessionID)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}

		consumeShuttlecocks(team, session.NumberShuttlecock)

		groupDebit := session.ExtraFee + session.Participants.SumModifiedFee()
		if session.CourtType != models.CourtTypeFixed {
			groupDebit += session.CourtFee
		}
		team.UpdateByID = actor.MemberID
		team.UpdateTime = time.Now().UTC()
		entry, err := s.ledger.ApplyGroupDelta(ctx, q, team, -groupDebit,
			fmt.Sprintf("Settlement of %s session at %s on %s", session.CourtType, session.Location, when), nil, &sessionID)
		if err != nil {
			return err
		}
		entries = append(entries, entry)

		session.Status = models.SessionStatusDone
		session.UpdateByID = actor.MemberID
		session.UpdateTime = time.Now().UTC()
		if err := q.UpdateSession(ctx, session); err != nil {
			return err
		}
		settled = session
		return nil
	})
	if err != nil {
		return nil, s.fail("SESSION_PAY", id, actor, err)
	}

	s.ledger.Committed(entries...)
	s.transitioned(settled, models.SessionStatusConfirmed, actor)
	s.events.Publish(ctx, LedgerEvent{
		Type:      EventSessionSettled,
		ActorID:   actor.MemberID,
		GroupID:   settled.GroupID,
		SessionID: settled.ID,
		Entries:   entries,
	})
	return settled, nil
}

// List returns the most recent sessions without participants.
func (s *SessionService) List(ctx context.Context) ([]models.Session, error) {
	sessions, err := s.store.ListSessions(ctx, s.cfg.SessionListLimit)
	if err != nil {
		return nil, NewTransactionError(err)
	}
	for i := range sessions {
		sessions[i].Participants = nil
	}
	return sessions, nil
}

// Get returns a session with participant names and balances resolved.
func (s *SessionService) Get(ctx context.Context, id string) (*models.SessionView, error) {
	session, err := s.loadSession(ctx, s.store, id)
	if err != nil {
		return nil, asAppError(err)
	}

	ids := make([]string, 0, len(session.Participants))
	for _, p := range session.Participants {
		ids = append(ids, p.MemberID)
	}
	members, err := s.store.FindActiveMembers(ctx, ids)
	if err != nil {
		return nil, NewTransactionError(err)
	}
	byID := make(map[string]models.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	view := &models.SessionView{
		Session:           *session,
		NumberParticipant: len(session.Participants),
		ParticipantViews:  make([]models.ParticipantView, 0, len(session.Participants)),
	}
	for _, p := range session.Participants {
		m := byID[p.MemberID]
		view.ParticipantViews = append(view.ParticipantViews, models.ParticipantView{
			Participant: p,
			Name:        m.Name,
			Balance:     m.Balance,
		})
	}
	if updater, err := s.store.GetMember(ctx, session.UpdateByID); err == nil {
		view.UpdateByName = updater.Name
	}
	return view, nil
}

// apply replaces the editable fields of session from req. Fixed sessions keep
// the court fee that was paid at creation.
func (s *SessionService) apply(ctx context.Context, q store.Queries, actor models.Actor, session *models.Session, req models.SessionRequest) error {
	courtFee := req.CourtFee
	if session.CourtType == models.CourtTypeFixed {
		courtFee = session.CourtFee
	}

	participants, err := s.allocator.Allocate(ctx, q, req.Participants, FeeTotals{
		CourtFee:       courtFee,
		ShuttlecockFee: req.ShuttlecockFee,
		ExtraFee:       req.ExtraFee,
	})
	if err != nil {
		return err
	}

	session.Time = req.DateList[0]
	session.StartTime = req.StartTime
	session.EndTime = req.EndTime
	session.Location = req.Location
	session.CourtFee = courtFee
	session.ShuttlecockFee = req.ShuttlecockFee
	session.ExtraFee = req.ExtraFee
	session.NumberShuttlecock = req.NumberShuttlecock
	session.Note = req.Note
	session.Participants = participants
	session.ParticipantsCount = len(participants)
	session.UpdateByID = actor.MemberID
	session.UpdateTime = time.Now().UTC()
	return nil
}

func (s *SessionService) newSession(actor models.Actor, req models.SessionRequest, date time.Time) *models.Session {
	return &models.Session{
		CourtType:         req.CourtType,
		Time:              date,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		Location:          req.Location,
		CourtFee:          req.CourtFee,
		ShuttlecockFee:    req.ShuttlecockFee,
		ExtraFee:          req.ExtraFee,
		NumberShuttlecock: req.NumberShuttlecock,
		ParticipantsCount: len(req.Participants),
		Note:              req.Note,
		Status:            models.SessionStatusInit,
		UpdateTime:        time.Now().UTC(),
		UpdateByID:        actor.MemberID,
		GroupID:           req.GroupID,
	}
}

func (s *SessionService) loadSession(ctx context.Context, q store.Queries, id string) (*models.Session, error) {
	session, err := q.GetSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NewReferenceError(fmt.Sprintf("session %s not found", id))
	}
	return session, err
}

func (s *SessionService) loadTeam(ctx context.Context, q store.Queries, id string) (*models.Team, error) {
	return loadTeam(ctx, q, id)
}

// sessionTeam loads the wallet the session is booked on. A session cannot
// move to another team after creation.
func (s *SessionService) sessionTeam(ctx context.Context, q store.Queries, session *models.Session, req models.SessionRequest) (*models.Team, error) {
	if req.GroupID != session.GroupID {
		return nil, NewValidationError("groupId cannot be changed", map[string]string{"groupId": "must match the session team"})
	}
	return s.loadTeam(ctx, q, session.GroupID)
}

func (s *SessionService) transitioned(session *models.Session, from models.SessionStatus, actor models.Actor) {
	metrics.SessionTransitions.WithLabelValues(string(session.Status)).Inc()
	s.audit.LogOperation("session", session.ID, string(from), string(session.Status), actor.MemberID)
}

func (s *SessionService) fail(operation, id string, actor models.Actor, err error) error {
	return reportFailure(s.log, s.audit, operation, id, actor.MemberID, err)
}

func loadTeam(ctx context.Context, q store.Queries, id string) (*models.Team, error) {
	team, err := q.GetTeam(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NewReferenceError(fmt.Sprintf("team %s not found", id))
	}
	return team, err
}

// shuttlecockBudget reports the requested shuttlecock usage that the team
// cannot cover.
func shuttlecockBudget(team *models.Team, req models.SessionRequest) map[string]string {
	warnings := map[string]string{}
	if req.NumberShuttlecock > team.NumberShuttlecock {
		warnings[fieldNumberShuttlecock] = fmt.Sprintf("requested %d shuttlecocks but the team has %d", req.NumberShuttlecock, team.NumberShuttlecock)
	}
	if team.Amount < req.ShuttlecockFee {
		warnings[fieldShuttlecockFee] = fmt.Sprintf("shuttlecock fee %d exceeds team balance %d", req.ShuttlecockFee, team.Amount)
	}
	return warnings
}

// consumeShuttlecocks removes used shuttlecocks from the team inventory and
// reduces the pooled fee in proportion to the share of stock used.
func consumeShuttlecocks(team *models.Team, used int64) {
	if used <= 0 {
		return
	}
	if team.NumberShuttlecock <= used {
		team.ShuttlecockFee = 0
		team.NumberShuttlecock = 0
		return
	}

	reduction := decimal.NewFromInt(team.ShuttlecockFee).
		Mul(decimal.NewFromInt(used)).
		Div(decimal.NewFromInt(team.NumberShuttlecock)).
		Round(0).
		IntPart()
	team.ShuttlecockFee -= reduction
	team.NumberShuttlecock -= used
}

func cloneParticipants(src models.Participants) models.Participants {
	out := make(models.Participants, len(src))
	for i, p := range src {
		p.SubParticipants = append([]models.SubParticipant(nil), p.SubParticipants...)
		out[i] = p
	}
	return out
}
