package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shuttleclub/backend/internal/models"
)

const sessionColumns = `id, court_type, time, start_time, end_time, location, court_fee, shuttlecock_fee, extra_fee,
	number_shuttlecock, participants_count, participants, note, status, update_time, update_by_id, group_id`

func (q *queries) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	_, err := q.ext.ExecContext(ctx, `
		INSERT INTO badminton_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		session.ID, session.CourtType, session.Time, session.StartTime, session.EndTime,
		session.Location, session.CourtFee, session.ShuttlecockFee, session.ExtraFee,
		session.NumberShuttlecock, session.ParticipantsCount, session.Participants,
		session.Note, session.Status, session.UpdateTime, session.UpdateByID, session.GroupID)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (q *queries) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := sqlx.GetContext(ctx, q.ext, &session, `
		SELECT `+sessionColumns+`
		FROM badminton_sessions
		WHERE id = $1
		FOR UPDATE`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &session, nil
}

func (q *queries) UpdateSession(ctx context.Context, session *models.Session) error {
	result, err := q.ext.ExecContext(ctx, `
		UPDATE badminton_sessions
		SET time = $1, start_time = $2, end_time = $3, location = $4, court_fee = $5,
			shuttlecock_fee = $6, extra_fee = $7, number_shuttlecock = $8, participants_count = $9,
			participants = $10, note = $11, status = $12, update_time = $13, update_by_id = $14
		WHERE id = $15`,
		session.Time, session.StartTime, session.EndTime, session.Location, session.CourtFee,
		session.ShuttlecockFee, session.ExtraFee, session.NumberShuttlecock, session.ParticipantsCount,
		session.Participants, session.Note, session.Status, session.UpdateTime, session.UpdateByID,
		session.ID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return expectOneRow(result)
}

func (q *queries) ListSessions(ctx context.Context, limit int) ([]models.Session, error) {
	sessions := []models.Session{}
	err := sqlx.SelectContext(ctx, q.ext, &sessions, `
		SELECT `+sessionColumns+`
		FROM badminton_sessions
		ORDER BY time DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}
