package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shuttleclub/backend/internal/models"
)

const memberColumns = `id, name, email, balance, role, deleted_at, created_at, updated_at`

func (q *queries) FindActiveMembers(ctx context.Context, ids []string) ([]models.Member, error) {
	members := []models.Member{}
	err := sqlx.SelectContext(ctx, q.ext, &members, `
		SELECT `+memberColumns+`
		FROM members
		WHERE id = ANY($1) AND deleted_at IS NULL
		ORDER BY id
		FOR UPDATE`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to find members: %w", err)
	}
	return members, nil
}

func (q *queries) GetMember(ctx context.Context, id string) (*models.Member, error) {
	var member models.Member
	err := sqlx.GetContext(ctx, q.ext, &member, `
		SELECT `+memberColumns+`
		FROM members
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &member, nil
}

func (q *queries) SetMemberBalance(ctx context.Context, id string, balance int64) error {
	result, err := q.ext.ExecContext(ctx, `
		UPDATE members
		SET balance = $1, updated_at = $2
		WHERE id = $3`,
		balance, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update member balance: %w", err)
	}
	return expectOneRow(result)
}

type memberBalanceRow struct {
	MemberID string `db:"member_id"`
	Name     string `db:"name"`
	Balance  int64  `db:"balance"`
	Pending  int64  `db:"pending"`
	Accepted int64  `db:"accepted"`
}

func (q *queries) ListMemberBalances(ctx context.Context) ([]models.MemberBalance, error) {
	rows := []memberBalanceRow{}
	err := sqlx.SelectContext(ctx, q.ext, &rows, `
		SELECT m.id AS member_id, m.name, m.balance,
			COALESCE(SUM(p.amount) FILTER (WHERE p.status = 'pending'), 0) AS pending,
			COALESCE(SUM(p.amount) FILTER (WHERE p.status = 'accepted'), 0) AS accepted
		FROM members m
		LEFT JOIN payments p ON p.member_id = m.id
		WHERE m.deleted_at IS NULL
		GROUP BY m.id, m.name, m.balance
		ORDER BY m.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list member balances: %w", err)
	}

	balances := make([]models.MemberBalance, 0, len(rows))
	for _, row := range rows {
		balances = append(balances, models.MemberBalance{
			MemberID: row.MemberID,
			Name:     row.Name,
			Balance:  row.Balance,
			StatusAmounts: models.PaymentSums{
				Pending:  row.Pending,
				Accepted: row.Accepted,
			},
		})
	}
	return balances, nil
}
