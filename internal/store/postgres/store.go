// Package postgres implements store.Store on PostgreSQL through database/sql,
// lib/pq and sqlx. Embedded documents (participants, team rosters) live in JSONB
// columns; rows touched by money movement are read with FOR UPDATE.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shuttleclub/backend/internal/store"
)

// Ensure Store implements store.Store
var _ store.Store = (*Store)(nil)

type Store struct {
	*queries
	db *sqlx.DB
}

// New wraps an open database handle.
func New(db *sqlx.DB) *Store {
	return &Store{
		queries: &queries{ext: db},
		db:      db,
	}
}

// WithTx runs fn in a single database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(q store.Queries) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&queries{ext: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type queries struct {
	ext sqlx.ExtContext
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func expectOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}
