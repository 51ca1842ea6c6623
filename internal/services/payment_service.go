package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shuttleclub/backend/internal/audit"
	"github.com/shuttleclub/backend/internal/config"
	"github.com/shuttleclub/backend/internal/metrics"
	"github.com/shuttleclub/backend/internal/models"
	"github.com/shuttleclub/backend/internal/store"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const defaultPaymentNote = "Top up"

// PaymentService handles member funding requests against a team wallet.
type PaymentService struct {
	store     store.Store
	ledger    *LedgerService
	events    *EventPublisher
	audit     *audit.Logger
	validator *ValidationHelper
	cfg       *config.ClubConfig
	log       *zap.SugaredLogger
}

func NewPaymentService(st store.Store, ledger *LedgerService, events *EventPublisher, auditLogger *audit.Logger, cfg *config.ClubConfig, log *zap.SugaredLogger) *PaymentService {
	return &PaymentService{
		store:     st,
		ledger:    ledger,
		events:    events,
		audit:     auditLogger,
		validator: NewValidationHelper(),
		cfg:       cfg,
		log:       log,
	}
}

// Create records a pending payment for the acting member.
func (s *PaymentService) Create(ctx context.Context, actor models.Actor, req models.PaymentRequest) (*models.Payment, error) {
	return s.create(ctx, actor, actor.MemberID, fmt.Sprintf("[%s]", actor.Name), req)
}

// CreateForMember records a pending payment on behalf of another member.
func (s *PaymentService) CreateForMember(ctx context.Context, actor models.Actor, memberID string, req models.PaymentRequest) (*models.Payment, error) {
	member, err := s.store.GetMember(ctx, memberID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NewReferenceError(fmt.Sprintf("member %s not found", memberID))
	}
	if err != nil {
		return nil, NewTransactionError(err)
	}
	return s.create(ctx, actor, member.ID, fmt.Sprintf("[%s -> %s]", actor.Name, member.Name), req)
}

func (s *PaymentService) create(ctx context.Context, actor models.Actor, memberID, prefix string, req models.PaymentRequest) (*models.Payment, error) {
	if err := s.validator.ValidateStruct(&req); err != nil {
		return nil, err
	}

	note := strings.TrimSpace(req.Note)
	if note == "" {
		note = defaultPaymentNote
	}

	now := time.Now().UTC()
	payment := &models.Payment{
		MemberID:   memberID,
		GroupID:    req.GroupID,
		Amount:     req.Amount,
		Date:       now,
		Note:       prefix + " " + note,
		Status:     models.PaymentStatusPending,
		UpdateByID: actor.MemberID,
		UpdateTime: now,
	}

	err := s.store.WithTx(ctx, func(q store.Queries) error {
		active, err := q.FindActiveMembers(ctx, []string{memberID})
		if err != nil {
			return err
		}
		if len(active) == 0 {
			return NewReferenceError(fmt.Sprintf("member %s not found", memberID))
		}
		if _, err := loadTeam(ctx, q, req.GroupID); err != nil {
			return err
		}
		return q.CreatePayment(ctx, payment)
	})
	if err != nil {
		return nil, s.fail("PAYMENT_CREATE", "", actor, err)
	}

	metrics.PaymentTransitions.WithLabelValues(string(payment.Status)).Inc()
	return payment, nil
}

// List pages through payments, newest first. Plain users only see their own.
func (s *PaymentService) List(ctx context.Context, actor models.Actor, filter models.PaymentFilter) (*models.PaymentPage, error) {
	if !actor.HasRole(models.RoleLead, models.RoleAdmin) {
		filter.MemberID = actor.MemberID
	}
	filter.Page, filter.Limit = s.cfg.PageParams(filter.Page, filter.Limit)

	payments, total, err := s.store.ListPayments(ctx, filter)
	if err != nil {
		return nil, NewTransactionError(err)
	}
	return &models.PaymentPage{
		Data: payments,
		Pagination: models.Pagination{
			Total:      total,
			Page:       filter.Page,
			Limit:      filter.Limit,
			TotalPages: models.TotalPages(total, filter.Limit),
		},
	}, nil
}

// Accept credits the member and the team wallet with the payment amount.
func (s *PaymentService) Accept(ctx context.Context, actor models.Actor, id string) (*models.Payment, error) {
	var (
		accepted *models.Payment
		entries  []*models.TransactionHistory
		from     models.PaymentStatus
	)
	err := s.store.WithTx(ctx, func(q store.Queries) error {
		payment, err := s.loadPayment(ctx, q, id)
		if err != nil {
			return err
		}
		if payment.Status == models.PaymentStatusAccepted {
			return NewStateError("payment has already been accepted")
		}
		from = payment.Status

		member, err := q.GetMember(ctx, payment.MemberID)
		if errors.Is(err, store.ErrNotFound) {
			return NewReferenceError(fmt.Sprintf("member %s not found", payment.MemberID))
		}
		if err != nil {
			return err
		}
		team, err := loadTeam(ctx, q, payment.GroupID)
		if err != nil {
			return err
		}

		memberEntry, err := s.ledger.ApplyMemberDelta(ctx, q, member, payment.Amount, "Top up: "+payment.Note, nil)
		if err != nil {
			return err
		}
		groupEntry, err := s.ledger.ApplyGroupDelta(ctx, q, team, payment.Amount,
			fmt.Sprintf("Top up from %s: %s", member.Name, payment.Note), &member.ID, nil)
		if err != nil {
			return err
		}
		entries = []*models.TransactionHistory{memberEntry, groupEntry}

		payment.Status = models.PaymentStatusAccepted
		payment.UpdateByID = actor.MemberID
		payment.UpdateTime = time.Now().UTC()
		if err := q.UpdatePayment(ctx, payment); err != nil {
			return err
		}
		accepted = payment
		return nil
	})
	if err != nil {
		return nil, s.fail("PAYMENT_ACCEPT", id, actor, err)
	}

	s.ledger.Committed(entries...)
	s.transitioned(accepted, from, actor)
	s.events.Publish(ctx, LedgerEvent{
		Type:      EventPaymentAccepted,
		ActorID:   actor.MemberID,
		GroupID:   accepted.GroupID,
		PaymentID: accepted.ID,
		Entries:   entries,
	})
	return accepted, nil
}

// Cancel rejects a pending payment. No money moves.
func (s *PaymentService) Cancel(ctx context.Context, actor models.Actor, id string) (*models.Payment, error) {
	var rejected *models.Payment
	err := s.store.WithTx(ctx, func(q store.Queries) error {
		payment, err := s.loadPayment(ctx, q, id)
		if err != nil {
			return err
		}
		if payment.Status != models.PaymentStatusPending {
			return NewStateError(fmt.Sprintf("payment in status %s cannot be rejected", payment.Status))
		}

		payment.Status = models.PaymentStatusRejected
		payment.UpdateByID = actor.MemberID
		payment.UpdateTime = time.Now().UTC()
		if err := q.UpdatePayment(ctx, payment); err != nil {
			return err
		}
		rejected = payment
		return nil
	})
	if err != nil {
		return nil, s.fail("PAYMENT_CANCEL", id, actor, err)
	}

	s.transitioned(rejected, models.PaymentStatusPending, actor)
	return rejected, nil
}

type paymentReference struct {
	PaymentID string `json:"paymentId"`
	MemberID  string `json:"memberId"`
	GroupID   string `json:"groupId"`
	Amount    int64  `json:"amount"`
	Note      string `json:"note"`
}

// QRCode renders the payment reference as a PNG QR code. Plain users can only
// render their own payments.
func (s *PaymentService) QRCode(ctx context.Context, actor models.Actor, id string) ([]byte, error) {
	payment, err := s.loadPayment(ctx, s.store, id)
	if err != nil {
		return nil, asAppError(err)
	}
	if !actor.HasRole(models.RoleLead, models.RoleAdmin) && payment.MemberID != actor.MemberID {
		return nil, NewReferenceError(fmt.Sprintf("payment %s not found", id))
	}

	data, err := json.Marshal(paymentReference{
		PaymentID: payment.ID,
		MemberID:  payment.MemberID,
		GroupID:   payment.GroupID,
		Amount:    payment.Amount,
		Note:      payment.Note,
	})
	if err != nil {
		return nil, NewTransactionError(err)
	}

	png, err := qrcode.Encode(string(data), qrcode.Medium, 256)
	if err != nil {
		return nil, NewTransactionError(err)
	}
	return png, nil
}

func (s *PaymentService) loadPayment(ctx context.Context, q store.Queries, id string) (*models.Payment, error) {
	payment, err := q.GetPayment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, NewReferenceError(fmt.Sprintf("payment %s not found", id))
	}
	return payment, err
}

func (s *PaymentService) transitioned(payment *models.Payment, from models.PaymentStatus, actor models.Actor) {
	metrics.PaymentTransitions.WithLabelValues(string(payment.Status)).Inc()
	s.audit.LogOperation("payment", payment.ID, string(from), string(payment.Status), actor.MemberID)
}

func (s *PaymentService) fail(operation, id string, actor models.Actor, err error) error {
	return reportFailure(s.log, s.audit, operation, id, actor.MemberID, err)
}
