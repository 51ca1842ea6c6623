package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shuttleclub/backend/internal/models"
)

func (q *queries) CreateTeam(ctx context.Context, team *models.Team) error {
	if team.ID == "" {
		team.ID = uuid.New().String()
	}
	if team.UpdateTime.IsZero() {
		team.UpdateTime = time.Now().UTC()
	}

	_, err := q.ext.ExecContext(ctx, `
		INSERT INTO teams (id, name, amount, number_shuttlecock, shuttlecock_fee, court_fee, note, update_by_id, update_time, members)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		team.ID, team.Name, team.Amount, team.NumberShuttlecock, team.ShuttlecockFee,
		team.CourtFee, team.Note, team.UpdateByID, team.UpdateTime, team.Members)
	if err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (q *queries) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	var team models.Team
	err := sqlx.GetContext(ctx, q.ext, &team, `
		SELECT id, name, amount, number_shuttlecock, shuttlecock_fee, court_fee, note, update_by_id, update_time, members
		FROM teams
		WHERE id = $1
		FOR UPDATE`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &team, nil
}

func (q *queries) UpdateTeam(ctx context.Context, team *models.Team) error {
	result, err := q.ext.ExecContext(ctx, `
		UPDATE teams
		SET amount = $1, number_shuttlecock = $2, shuttlecock_fee = $3, court_fee = $4,
			note = $5, update_by_id = $6, update_time = $7, members = $8
		WHERE id = $9`,
		team.Amount, team.NumberShuttlecock, team.ShuttlecockFee, team.CourtFee,
		team.Note, team.UpdateByID, team.UpdateTime, team.Members, team.ID)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	return expectOneRow(result)
}
