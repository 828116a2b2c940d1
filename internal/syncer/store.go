// Package syncer contains the sync coordinator: the state machine that
// reconciles the remote catalog with the local store. It orchestrates one
// logical run per entity family, merges fetched records transactionally and
// republishes the bounded snapshot after every successful commit.
//
// The coordinator depends on the narrow interfaces below rather than on the
// MySQL repositories directly, so the merge semantics are testable against an
// in-memory store and call sites never reach for a process-wide singleton.
package syncer

import (
	"context"
	"time"

	"github.com/samajapp/catalog-sync/internal/catalog"
	"github.com/samajapp/catalog-sync/internal/model"
)

// CatalogClient is the read-only boundary to the remote service.
// *catalog.Client satisfies it.
type CatalogClient interface {
	FetchEvents(ctx context.Context, since *time.Time) (catalog.EventDelta, error)
	FetchTicketTypes(ctx context.Context, eventID string) ([]catalog.TicketType, error)
	FetchSlots(ctx context.Context, eventID string) ([]catalog.Slot, error)
	FetchPrograms(ctx context.Context, eventID string) ([]catalog.Program, error)
}

// Store is the local persistent cache. WithinTx runs fn inside one
// transaction: every mutation fn performs commits atomically, or none do
// when fn returns an error. *repository.Store satisfies it.
type Store interface {
	// Watermark returns the persisted last-successful-sync timestamp for an
	// entity family, or nil when the family has never synced.
	Watermark(ctx context.Context, family string) (*time.Time, error)
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the mutation surface available inside one atomic sync commit.
type Tx interface {
	// ExistingEventIDs reports which of the given identifiers already have a
	// local row. The merge uses it to decide update-in-place vs insert.
	ExistingEventIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
	InsertEvent(ctx context.Context, ev catalog.Event) error
	UpdateEvent(ctx context.Context, ev catalog.Event) error
	// DeleteEventCascade removes an event and all of its ticket types, slots
	// and programs. A missing event is not an error (already deleted).
	DeleteEventCascade(ctx context.Context, id string) error

	ExistingTicketTypeIDs(ctx context.Context, eventID string) (map[int64]struct{}, error)
	InsertTicketType(ctx context.Context, eventID string, t catalog.TicketType) error
	UpdateTicketType(ctx context.Context, eventID string, t catalog.TicketType) error
	// DeleteTicketTypesExcept prunes rows of the event whose ID is not in
	// keep. An empty keep set removes every row of the event.
	DeleteTicketTypesExcept(ctx context.Context, eventID string, keep []int64) error

	ExistingSlotIDs(ctx context.Context, eventID string) (map[int64]struct{}, error)
	InsertSlot(ctx context.Context, eventID string, s catalog.Slot) error
	UpdateSlot(ctx context.Context, eventID string, s catalog.Slot) error
	DeleteSlotsExcept(ctx context.Context, eventID string, keep []int64) error

	// ReplacePrograms deletes every program of the event (with category and
	// practice-location children) and inserts the given list fresh.
	ReplacePrograms(ctx context.Context, eventID string, items []catalog.Program) error

	SetWatermark(ctx context.Context, family string, at time.Time) error
}

// EventLister is the bounded read path the snapshot refreshes from.
// *repository.EventRepo satisfies it.
type EventLister interface {
	ListRecent(ctx context.Context, limit int) ([]model.Event, error)
}
