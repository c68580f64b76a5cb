package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"hotel-pms/internal/persist"
)

// Querier is the subset of *pgxpool.Pool the snapshot repository uses.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SnapshotRepository persists one JSONB snapshot per store key in store_snapshots.
type SnapshotRepository struct {
	pool Querier
}

var _ persist.Adapter = (*SnapshotRepository)(nil)

func NewSnapshotRepository(pool Querier) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

func (r *SnapshotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx,
		`SELECT payload FROM store_snapshots WHERE key = $1`, key).Scan(&payload)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, persist.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	return payload, nil
}

func (r *SnapshotRepository) Save(ctx context.Context, key string, data []byte) error {
	var revision int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO store_snapshots (key, payload, updated_at, revision)
		 VALUES ($1, $2, $3, 1)
		 ON CONFLICT (key) DO UPDATE
		 SET payload = EXCLUDED.payload,
		     updated_at = EXCLUDED.updated_at,
		     revision = store_snapshots.revision + 1
		 RETURNING revision`,
		key, data, time.Now().UTC()).Scan(&revision)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}

	slog.Debug("snapshot saved", "key", key, "revision", revision, "bytes", len(data))
	return nil
}
