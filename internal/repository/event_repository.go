package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/samajapp/catalog-sync/internal/catalog"
	"github.com/samajapp/catalog-sync/internal/model"
)

// eventCols is the canonical column list for scans of the events table.
const eventCols = `id, title, description, description_html, location, category_name, category_id,
	image_url, registration_enabled, ticketing_enabled, event_date, time_label, info_link,
	uses_slots, parent_event_id, updated_at`

// EventRepo manages persistence for cached events. Mutating methods come in
// *Tx form only: event rows change exclusively inside a sync commit, never
// through ad-hoc single-row writes.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// GetByID retrieves one event. It returns ErrEventNotFound when no row
// matches.
func (r *EventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events WHERE id = ?`
	ev, err := scanEvent(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &ev, nil
}

// ListRecent returns at most limit events for the snapshot projection.
//
// Ordering: "to be announced" events (NULL event_date) first, then dated
// events by date descending. TBA events are upcoming announcements, so they
// are treated as furthest in the future. The trailing id sort makes the
// order deterministic for equal dates.
func (r *EventRepo) ListRecent(ctx context.Context, limit int) ([]model.Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events
	           ORDER BY (event_date IS NULL) DESC, event_date DESC, id ASC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Event, 0, limit)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ExistingIDsTx reports which of the given identifiers already have a row,
// using one IN-set query. An empty input returns an empty map without
// touching the database.
func (r *EventRepo) ExistingIDsTx(ctx context.Context, tx *sql.Tx, ids []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}
	args := make([]interface{}, 0, len(ids))
	placeholders := make([]string, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
		placeholders = append(placeholders, "?")
	}
	q := `SELECT id FROM events WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return existing, nil
}

// InsertTx inserts a new event row within the caller's transaction.
func (r *EventRepo) InsertTx(ctx context.Context, tx *sql.Tx, ev catalog.Event) error {
	const q = `INSERT INTO events (` + eventCols + `)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		ev.ID, ev.Title, ev.Description, ev.DescriptionHTML, ev.Location,
		ev.CategoryName, ev.CategoryID, ev.ImageURL,
		ev.RegistrationEnabled, ev.TicketingEnabled,
		ev.EventDate, ev.TimeLabel, ev.InfoLink,
		ev.UsesSlots, ev.ParentEventID, ev.UpdatedAt.UTC(),
	)
	return err
}

// UpdateTx overwrites every field of an existing row in place. Identifiers
// are stable across syncs, so a matching ID is always an update and never a
// second insert.
func (r *EventRepo) UpdateTx(ctx context.Context, tx *sql.Tx, ev catalog.Event) error {
	const q = `UPDATE events SET
	             title = ?, description = ?, description_html = ?, location = ?,
	             category_name = ?, category_id = ?, image_url = ?,
	             registration_enabled = ?, ticketing_enabled = ?, event_date = ?,
	             time_label = ?, info_link = ?, uses_slots = ?, parent_event_id = ?,
	             updated_at = ?
	           WHERE id = ?`
	_, err := tx.ExecContext(ctx, q,
		ev.Title, ev.Description, ev.DescriptionHTML, ev.Location,
		ev.CategoryName, ev.CategoryID, ev.ImageURL,
		ev.RegistrationEnabled, ev.TicketingEnabled, ev.EventDate,
		ev.TimeLabel, ev.InfoLink, ev.UsesSlots, ev.ParentEventID,
		ev.UpdatedAt.UTC(),
		ev.ID,
	)
	return err
}

// DeleteCascadeTx removes an event and its ticket types, slots and programs
// within the caller's transaction. Deleting an absent event is a no-op:
// the tombstone list may name records this client never cached.
func (r *EventRepo) DeleteCascadeTx(ctx context.Context, tx *sql.Tx, id string) error {
	children := []string{
		`DELETE FROM ticket_types WHERE event_id = ?`,
		`DELETE FROM slots WHERE event_id = ?`,
		`DELETE FROM program_categories WHERE event_id = ?`,
		`DELETE FROM practice_locations WHERE event_id = ?`,
		`DELETE FROM programs WHERE event_id = ?`,
		`DELETE FROM events WHERE id = ?`,
	}
	for _, q := range children {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return nil
}

// scanEvent reads one events row from a row or rows cursor.
func scanEvent(row interface{ Scan(dest ...any) error }) (model.Event, error) {
	var ev model.Event
	var eventDate sql.NullTime
	var parentID sql.NullString
	err := row.Scan(
		&ev.ID, &ev.Title, &ev.Description, &ev.DescriptionHTML, &ev.Location,
		&ev.CategoryName, &ev.CategoryID, &ev.ImageURL,
		&ev.RegistrationEnabled, &ev.TicketingEnabled,
		&eventDate, &ev.TimeLabel, &ev.InfoLink,
		&ev.UsesSlots, &parentID, &ev.UpdatedAt,
	)
	if err != nil {
		return model.Event{}, err
	}
	if eventDate.Valid {
		t := eventDate.Time.UTC()
		ev.EventDate = &t
	}
	if parentID.Valid {
		p := parentID.String
		ev.ParentEventID = &p
	}
	ev.UpdatedAt = ev.UpdatedAt.UTC()
	return ev, nil
}
