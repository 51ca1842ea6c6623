// Package store defines the persistence boundary of the club backend. Every
// implementation offers the same queries both directly and inside an atomic
// transaction scope.
package store

import (
	"context"

	"github.com/shuttleclub/backend/internal/models"
)

// Queries is the set of record operations available on a store or a transaction.
type Queries interface {
	// FindActiveMembers returns the non-deleted members among ids.
	FindActiveMembers(ctx context.Context, ids []string) ([]models.Member, error)
	// GetMember returns a non-deleted member or ErrNotFound.
	GetMember(ctx context.Context, id string) (*models.Member, error)
	SetMemberBalance(ctx context.Context, id string, balance int64) error
	ListMemberBalances(ctx context.Context) ([]models.MemberBalance, error)

	CreateTeam(ctx context.Context, team *models.Team) error
	GetTeam(ctx context.Context, id string) (*models.Team, error)
	UpdateTeam(ctx context.Context, team *models.Team) error

	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	UpdateSession(ctx context.Context, session *models.Session) error
	ListSessions(ctx context.Context, limit int) ([]models.Session, error)

	InsertHistory(ctx context.Context, entry *models.TransactionHistory) error
	ListHistory(ctx context.Context, filter models.HistoryFilter) ([]models.TransactionHistory, int, error)

	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	UpdatePayment(ctx context.Context, payment *models.Payment) error
	ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error)
}

// Store is a Queries implementation that can also open transactions.
type Store interface {
	Queries
	// WithTx runs fn inside one transaction. The transaction commits when fn
	// returns nil and rolls back on any error or panic.
	WithTx(ctx context.Context, fn func(q Queries) error) error
}
