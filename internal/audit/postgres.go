package audit

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

// EnsureSchema creates the events table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("audit schema: %w", err)
	}
	return nil
}

// InsertBatch writes events in a single transaction.
func (s *PostgresStore) InsertBatch(ctx context.Context, events []Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const ins = `INSERT INTO membership_events (conn_id, identity, room, kind, members, occurred_at)
	             VALUES ($1, $2, $3, $4, $5, $6)`
	for _, ev := range events {
		if _, err := tx.ExecContext(ctx, ins,
			ev.ConnID.String(), ev.Identity, ev.Room, string(ev.Kind), ev.Members, ev.At,
		); err != nil {
			return fmt.Errorf("insert %s event for %s: %w", ev.Kind, ev.Room, err)
		}
	}
	return tx.Commit()
}
