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

const paymentColumns = `id, member_id, group_id, amount, date, note, status, update_by_id, update_time`

func (q *queries) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if payment.Date.IsZero() {
		payment.Date = now
	}
	if payment.UpdateTime.IsZero() {
		payment.UpdateTime = now
	}

	_, err := q.ext.ExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		payment.ID, payment.MemberID, payment.GroupID, payment.Amount, payment.Date,
		payment.Note, payment.Status, payment.UpdateByID, payment.UpdateTime)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (q *queries) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	err := sqlx.GetContext(ctx, q.ext, &payment, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE id = $1
		FOR UPDATE`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

func (q *queries) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	result, err := q.ext.ExecContext(ctx, `
		UPDATE payments
		SET status = $1, note = $2, update_by_id = $3, update_time = $4
		WHERE id = $5`,
		payment.Status, payment.Note, payment.UpdateByID, payment.UpdateTime, payment.ID)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	return expectOneRow(result)
}

func (q *queries) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error) {
	conditions := []string{"TRUE"}
	args := []any{}

	if filter.MemberID != "" {
		args = append(args, filter.MemberID)
		conditions = append(conditions, fmt.Sprintf("member_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := sqlx.GetContext(ctx, q.ext, &total, `SELECT COUNT(*) FROM payments WHERE `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	payments := []models.Payment{}
	err := sqlx.SelectContext(ctx, q.ext, &payments, fmt.Sprintf(`
		SELECT `+paymentColumns+`
		FROM payments
		WHERE %s
		ORDER BY date DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, total, nil
}
