package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SyncStateRepo persists the per-family sync watermark: the timestamp up to
// which a delta sync is known to be complete. The watermark is read before a
// run and written only inside the run's commit transaction, so it can never
// get ahead of the data it vouches for.
type SyncStateRepo struct {
	db *sql.DB
}

// NewSyncStateRepo constructs a SyncStateRepo with the given DB handle.
func NewSyncStateRepo(db *sql.DB) *SyncStateRepo {
	return &SyncStateRepo{db: db}
}

// Get returns the family's watermark, or nil when the family has never
// completed a sync (the next run then requests the full catalog).
func (r *SyncStateRepo) Get(ctx context.Context, family string) (*time.Time, error) {
	const q = `SELECT synced_at FROM sync_state WHERE family = ?`
	var at time.Time
	err := r.db.QueryRowContext(ctx, q, family).Scan(&at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	at = at.UTC()
	return &at, nil
}

// SetTx upserts the family's watermark within the caller's transaction.
func (r *SyncStateRepo) SetTx(ctx context.Context, tx *sql.Tx, family string, at time.Time) error {
	const q = `INSERT INTO sync_state (family, synced_at) VALUES (?, ?)
	           ON DUPLICATE KEY UPDATE synced_at = VALUES(synced_at)`
	_, err := tx.ExecContext(ctx, q, family, at.UTC())
	return err
}
