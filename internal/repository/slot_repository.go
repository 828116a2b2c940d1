package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/samajapp/catalog-sync/internal/catalog"
	"github.com/samajapp/catalog-sync/internal/model"
)

const slotCols = `event_id, id, name, description, available, capacity, updated_at`

// SlotRepo manages persistence for per-event slot inventories ("panthis").
// It mirrors TicketTypeRepo: (event_id, id) keys, upsert inside a sync
// transaction, prune-to-fetched-set semantics.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo constructs a SlotRepo with the given DB handle.
func NewSlotRepo(db *sql.DB) *SlotRepo {
	return &SlotRepo{db: db}
}

// ListByEvent returns every cached slot of one event ordered by ID.
func (r *SlotRepo) ListByEvent(ctx context.Context, eventID string) ([]model.Slot, error) {
	const q = `SELECT ` + slotCols + ` FROM slots WHERE event_id = ? ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Slot, 0)
	for rows.Next() {
		var s model.Slot
		var description sql.NullString
		var capacity sql.NullInt64
		if err := rows.Scan(&s.EventID, &s.ID, &s.Name, &description, &s.Available, &capacity, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if description.Valid {
			d := description.String
			s.Description = &d
		}
		if capacity.Valid {
			c := capacity.Int64
			s.Capacity = &c
		}
		s.UpdatedAt = s.UpdatedAt.UTC()
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ExistingIDsTx returns the set of slot IDs currently cached for one event.
func (r *SlotRepo) ExistingIDsTx(ctx context.Context, tx *sql.Tx, eventID string) (map[int64]struct{}, error) {
	const q = `SELECT id FROM slots WHERE event_id = ?`
	return scanIDSet(ctx, tx, q, eventID)
}

// InsertTx inserts one slot within the caller's transaction.
func (r *SlotRepo) InsertTx(ctx context.Context, tx *sql.Tx, eventID string, s catalog.Slot) error {
	const q = `INSERT INTO slots (` + slotCols + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		eventID, s.ID, s.Name, s.Description, s.Available, s.Capacity, s.UpdatedAt.UTC(),
	)
	return err
}

// UpdateTx overwrites one slot's fields in place.
func (r *SlotRepo) UpdateTx(ctx context.Context, tx *sql.Tx, eventID string, s catalog.Slot) error {
	const q = `UPDATE slots SET name = ?, description = ?, available = ?, capacity = ?, updated_at = ?
	           WHERE event_id = ? AND id = ?`
	_, err := tx.ExecContext(ctx, q,
		s.Name, s.Description, s.Available, s.Capacity, s.UpdatedAt.UTC(),
		eventID, s.ID,
	)
	return err
}

// DeleteExceptTx prunes the event's slots down to the keep set.
func (r *SlotRepo) DeleteExceptTx(ctx context.Context, tx *sql.Tx, eventID string, keep []int64) error {
	return deleteScopedExcept(ctx, tx, "slots", eventID, keep)
}

// nullableTime converts an optional timestamp to a driver-friendly value,
// normalizing to UTC so DATETIME comparisons stay consistent.
func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
