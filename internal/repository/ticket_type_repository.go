package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/samajapp/catalog-sync/internal/catalog"
	"github.com/samajapp/catalog-sync/internal/model"
)

const ticketTypeCols = `event_id, id, name, price_cents, member_price_cents,
	early_bird_price_cents, early_bird_member_price_cents, early_bird_ends_at,
	currency, members_only, updated_at`

// TicketTypeRepo manages persistence for per-event ticket types. Row keys
// are (event_id, id); ticket-type IDs are only unique within their event.
type TicketTypeRepo struct {
	db *sql.DB
}

// NewTicketTypeRepo constructs a TicketTypeRepo with the given DB handle.
func NewTicketTypeRepo(db *sql.DB) *TicketTypeRepo {
	return &TicketTypeRepo{db: db}
}

// ListByEvent returns every cached ticket type of one event ordered by ID.
// When the event has none (or is unknown) it returns an empty slice.
func (r *TicketTypeRepo) ListByEvent(ctx context.Context, eventID string) ([]model.TicketType, error) {
	const q = `SELECT ` + ticketTypeCols + ` FROM ticket_types WHERE event_id = ? ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.TicketType, 0)
	for rows.Next() {
		var t model.TicketType
		var memberPrice, ebPrice, ebMemberPrice sql.NullInt64
		var ebEndsAt sql.NullTime
		if err := rows.Scan(
			&t.EventID, &t.ID, &t.Name, &t.PriceCents, &memberPrice,
			&ebPrice, &ebMemberPrice, &ebEndsAt,
			&t.Currency, &t.MembersOnly, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if memberPrice.Valid {
			v := memberPrice.Int64
			t.MemberPriceCents = &v
		}
		if ebPrice.Valid {
			v := ebPrice.Int64
			t.EarlyBirdPriceCents = &v
		}
		if ebMemberPrice.Valid {
			v := ebMemberPrice.Int64
			t.EarlyBirdMemberPriceCents = &v
		}
		if ebEndsAt.Valid {
			ts := ebEndsAt.Time.UTC()
			t.EarlyBirdEndsAt = &ts
		}
		t.UpdatedAt = t.UpdatedAt.UTC()
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ExistingIDsTx returns the set of ticket-type IDs currently cached for one
// event.
func (r *TicketTypeRepo) ExistingIDsTx(ctx context.Context, tx *sql.Tx, eventID string) (map[int64]struct{}, error) {
	const q = `SELECT id FROM ticket_types WHERE event_id = ?`
	return scanIDSet(ctx, tx, q, eventID)
}

// InsertTx inserts one ticket type within the caller's transaction.
func (r *TicketTypeRepo) InsertTx(ctx context.Context, tx *sql.Tx, eventID string, t catalog.TicketType) error {
	const q = `INSERT INTO ticket_types (` + ticketTypeCols + `)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		eventID, t.ID, t.Name, t.PriceCents, t.MemberPriceCents,
		t.EarlyBirdPriceCents, t.EarlyBirdMemberPriceCents, nullableTime(t.EarlyBirdEndsAt),
		t.Currency, t.MembersOnly, t.UpdatedAt.UTC(),
	)
	return err
}

// UpdateTx overwrites one ticket type's fields in place.
func (r *TicketTypeRepo) UpdateTx(ctx context.Context, tx *sql.Tx, eventID string, t catalog.TicketType) error {
	const q = `UPDATE ticket_types SET
	             name = ?, price_cents = ?, member_price_cents = ?,
	             early_bird_price_cents = ?, early_bird_member_price_cents = ?,
	             early_bird_ends_at = ?, currency = ?, members_only = ?, updated_at = ?
	           WHERE event_id = ? AND id = ?`
	_, err := tx.ExecContext(ctx, q,
		t.Name, t.PriceCents, t.MemberPriceCents,
		t.EarlyBirdPriceCents, t.EarlyBirdMemberPriceCents,
		nullableTime(t.EarlyBirdEndsAt), t.Currency, t.MembersOnly, t.UpdatedAt.UTC(),
		eventID, t.ID,
	)
	return err
}

// DeleteExceptTx prunes the event's ticket types down to the keep set. Each
// remote fetch returns the complete current set for an event, so anything
// outside it is stale. An empty keep set removes every row of the event.
func (r *TicketTypeRepo) DeleteExceptTx(ctx context.Context, tx *sql.Tx, eventID string, keep []int64) error {
	return deleteScopedExcept(ctx, tx, "ticket_types", eventID, keep)
}

// scanIDSet runs a single-column int64 query and collects the results into a
// set.
func scanIDSet(ctx context.Context, tx *sql.Tx, q string, args ...interface{}) (map[int64]struct{}, error) {
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	set := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		set[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// deleteScopedExcept deletes the rows of one event whose id is not in keep.
// table must be one of the fixed per-event child tables; it is never derived
// from input.
func deleteScopedExcept(ctx context.Context, tx *sql.Tx, table, eventID string, keep []int64) error {
	if len(keep) == 0 {
		_, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE event_id = ?`, eventID)
		return err
	}
	args := make([]interface{}, 0, len(keep)+1)
	args = append(args, eventID)
	placeholders := make([]string, 0, len(keep))
	for _, id := range keep {
		args = append(args, id)
		placeholders = append(placeholders, "?")
	}
	q := `DELETE FROM ` + table + ` WHERE event_id = ? AND id NOT IN (` + strings.Join(placeholders, ",") + `)`
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}
