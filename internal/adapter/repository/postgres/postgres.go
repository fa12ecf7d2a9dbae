package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vadimbarashkov/shortlinks/internal/entity"
)

// Slot persists slot values in the slots table, one row per key.
type Slot struct {
	db *sqlx.DB
}

func NewSlot(db *sqlx.DB) *Slot {
	return &Slot{db: db}
}

func (s *Slot) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "adapter.repository.postgres.Slot.Get"
	const query = `SELECT value FROM slots WHERE key = $1`

	var value string

	if err := s.db.GetContext(ctx, &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrSlotEmpty)
		}

		return nil, fmt.Errorf("%s: failed to get row from slots table: %w", op, err)
	}

	return []byte(value), nil
}

func (s *Slot) Set(ctx context.Context, key string, value []byte) error {
	const op = "adapter.repository.postgres.Slot.Set"
	const query = `INSERT INTO slots(key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	res, err := s.db.ExecContext(ctx, query, key, string(value))
	if err != nil {
		return fmt.Errorf("%s: failed to upsert into slots table: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: unexpected number of affected rows: %d", op, rowsAffected)
	}

	return nil
}
