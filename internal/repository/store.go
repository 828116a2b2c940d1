package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/samajapp/catalog-sync/internal/catalog"
	"github.com/samajapp/catalog-sync/internal/syncer"
)

// Store aggregates the entity repositories and exposes the atomic
// transaction surface the sync coordinator commits through. One Store is
// shared by the whole process; all writers funnel through WithinTx so there
// is a single chokepoint for consistency enforcement.
type Store struct {
	db          *sql.DB
	Events      *EventRepo
	TicketTypes *TicketTypeRepo
	Slots       *SlotRepo
	Programs    *ProgramRepo
	SyncState   *SyncStateRepo
}

// NewStore builds the Store and its repositories over one DB handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:          db,
		Events:      NewEventRepo(db),
		TicketTypes: NewTicketTypeRepo(db),
		Slots:       NewSlotRepo(db),
		Programs:    NewProgramRepo(db),
		SyncState:   NewSyncStateRepo(db),
	}
}

// Watermark implements syncer.Store.
func (s *Store) Watermark(ctx context.Context, family string) (*time.Time, error) {
	return s.SyncState.Get(ctx, family)
}

// WithinTx runs fn inside one database transaction. When fn returns an error
// the transaction is rolled back and none of its mutations are observable;
// otherwise everything commits as a unit, including the watermark row.
func (s *Store) WithinTx(ctx context.Context, fn func(tx syncer.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	err = fn(&storeTx{s: s, tx: tx})
	return err
}

// storeTx adapts one *sql.Tx onto the syncer.Tx mutation surface by
// delegating to the repositories' *Tx methods.
type storeTx struct {
	s  *Store
	tx *sql.Tx
}

func (t *storeTx) ExistingEventIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	return t.s.Events.ExistingIDsTx(ctx, t.tx, ids)
}

func (t *storeTx) InsertEvent(ctx context.Context, ev catalog.Event) error {
	return t.s.Events.InsertTx(ctx, t.tx, ev)
}

func (t *storeTx) UpdateEvent(ctx context.Context, ev catalog.Event) error {
	return t.s.Events.UpdateTx(ctx, t.tx, ev)
}

func (t *storeTx) DeleteEventCascade(ctx context.Context, id string) error {
	return t.s.Events.DeleteCascadeTx(ctx, t.tx, id)
}

func (t *storeTx) ExistingTicketTypeIDs(ctx context.Context, eventID string) (map[int64]struct{}, error) {
	return t.s.TicketTypes.ExistingIDsTx(ctx, t.tx, eventID)
}

func (t *storeTx) InsertTicketType(ctx context.Context, eventID string, tt catalog.TicketType) error {
	return t.s.TicketTypes.InsertTx(ctx, t.tx, eventID, tt)
}

func (t *storeTx) UpdateTicketType(ctx context.Context, eventID string, tt catalog.TicketType) error {
	return t.s.TicketTypes.UpdateTx(ctx, t.tx, eventID, tt)
}

func (t *storeTx) DeleteTicketTypesExcept(ctx context.Context, eventID string, keep []int64) error {
	return t.s.TicketTypes.DeleteExceptTx(ctx, t.tx, eventID, keep)
}

func (t *storeTx) ExistingSlotIDs(ctx context.Context, eventID string) (map[int64]struct{}, error) {
	return t.s.Slots.ExistingIDsTx(ctx, t.tx, eventID)
}

func (t *storeTx) InsertSlot(ctx context.Context, eventID string, sl catalog.Slot) error {
	return t.s.Slots.InsertTx(ctx, t.tx, eventID, sl)
}

func (t *storeTx) UpdateSlot(ctx context.Context, eventID string, sl catalog.Slot) error {
	return t.s.Slots.UpdateTx(ctx, t.tx, eventID, sl)
}

func (t *storeTx) DeleteSlotsExcept(ctx context.Context, eventID string, keep []int64) error {
	return t.s.Slots.DeleteExceptTx(ctx, t.tx, eventID, keep)
}

func (t *storeTx) ReplacePrograms(ctx context.Context, eventID string, items []catalog.Program) error {
	return t.s.Programs.ReplaceTx(ctx, t.tx, eventID, items)
}

func (t *storeTx) SetWatermark(ctx context.Context, family string, at time.Time) error {
	return t.s.SyncState.SetTx(ctx, t.tx, family, at)
}
