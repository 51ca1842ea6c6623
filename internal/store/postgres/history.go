package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shuttleclub/backend/internal/models"
)

func (q *queries) InsertHistory(ctx context.Context, entry *models.TransactionHistory) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := q.ext.ExecContext(ctx, `
		INSERT INTO transaction_histories (id, member_id, group_id, session_id, type, amount, balance_before, balance_after, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.MemberID, entry.GroupID, entry.SessionID, entry.Type,
		entry.Amount, entry.BalanceBefore, entry.BalanceAfter, entry.Reason, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction history: %w", err)
	}
	return nil
}

// ListHistory returns one page of entries, newest first, and the total count.
func (q *queries) ListHistory(ctx context.Context, filter models.HistoryFilter) ([]models.TransactionHistory, int, error) {
	conditions := []string{"type = $1"}
	args := []any{filter.Type}

	if filter.MemberID != "" {
		args = append(args, filter.MemberID)
		conditions = append(conditions, fmt.Sprintf("member_id = $%d", len(args)))
	}
	if filter.GroupID != "" {
		args = append(args, filter.GroupID)
		conditions = append(conditions, fmt.Sprintf("group_id = $%d", len(args)))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := sqlx.GetContext(ctx, q.ext, &total, `SELECT COUNT(*) FROM transaction_histories WHERE `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count transaction history: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	entries := []models.TransactionHistory{}
	err := sqlx.SelectContext(ctx, q.ext, &entries, fmt.Sprintf(`
		SELECT id, member_id, group_id, session_id, type, amount, balance_before, balance_after, reason, created_at
		FROM transaction_histories
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transaction history: %w", err)
	}
	return entries, total, nil
}
