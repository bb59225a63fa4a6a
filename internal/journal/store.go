package journal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists journal entries.
type Store interface {
	Insert(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// PGStore implements Store on the admin_actions table.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs a PostgreSQL store.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Insert writes one entry.
func (s *PGStore) Insert(ctx context.Context, entry Entry) error {
	detail, err := json.Marshal(entry.Detail)
	if err != nil {
		return fmt.Errorf("journal: encode detail: %w", err)
	}
	actorID := pgtype.Int8{Int64: entry.ActorID, Valid: entry.ActorID != 0}
	_, err = s.pool.Exec(ctx, `INSERT INTO admin_actions (id, admin_id, admin_email, action, resource, resource_id, detail, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, actorID, entry.Actor, entry.Action, entry.Resource, entry.ResourceID, detail, entry.OccurredAt.UTC())
	if err != nil {
		return fmt.Errorf("journal: insert: %w", err)
	}
	return nil
}

// Recent returns the latest entries, newest first.
func (s *PGStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, admin_id, admin_email, action, resource, resource_id, detail, occurred_at
FROM admin_actions ORDER BY occurred_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var (
			e       Entry
			actorID pgtype.Int8
			detail  []byte
		)
		if err := row.Scan(&e.ID, &actorID, &e.Actor, &e.Action, &e.Resource, &e.ResourceID, &detail, &e.OccurredAt); err != nil {
			return Entry{}, err
		}
		if actorID.Valid {
			e.ActorID = actorID.Int64
		}
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &e.Detail); err != nil {
				return Entry{}, err
			}
		}
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("journal: scan: %w", err)
	}
	return entries, nil
}

var _ Store = (*PGStore)(nil)
