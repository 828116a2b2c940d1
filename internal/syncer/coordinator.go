package syncer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// MergePolicy names the consistency strategy applied to an entity family.
// Events, ticket types and slots are merged record by record keyed on their
// stable identifier; programs change infrequently and as a whole group, so
// they are replaced wholesale. The two strategies coexist deliberately and
// per family, they are not a universal rule.
type MergePolicy int

const (
	PolicyIncrementalUpsert MergePolicy = iota + 1
	PolicyReplaceAll
)

func (p MergePolicy) String() string {
	switch p {
	case PolicyIncrementalUpsert:
		return "incremental-upsert"
	case PolicyReplaceAll:
		return "replace-all"
	}
	return "unknown"
}

// FamilyEvents is the global events family. Sub-resource families are scoped
// per event so detail loads for different events can run concurrently while
// a second load of the same resource is a busy no-op.
const FamilyEvents = "events"

func FamilyTicketTypes(eventID string) string { return "ticket-types:" + eventID }
func FamilySlots(eventID string) string       { return "slots:" + eventID }
func FamilyPrograms(eventID string) string    { return "programs:" + eventID }

// Policy returns the merge policy of a family name.
func Policy(family string) MergePolicy {
	if len(family) >= len("programs:") && family[:len("programs:")] == "programs:" {
		return PolicyReplaceAll
	}
	return PolicyIncrementalUpsert
}

// Outcome reports the result of one sync run. Busy means another run of the
// same family was already in flight and nothing was fetched; that is a
// success case, not an error.
type Outcome struct {
	Busy    bool `json:"busy"`
	Applied int  `json:"applied"`
	Deleted int  `json:"deleted"`
}

// CommitNotice describes one successful commit. It is handed to the commit
// hook (the RabbitMQ publisher in production) after the transaction and the
// snapshot reload are done. Policy is derived from Family so downstream
// consumers can tell an incremental delta from a wholesale replacement.
type CommitNotice struct {
	Family     string      `json:"family"`
	Policy     MergePolicy `json:"policy"`
	Applied    int         `json:"applied"`
	Deleted    int         `json:"deleted"`
	Watermark  time.Time   `json:"watermark"`
	ForcedFull bool        `json:"forced_full"`
}

// StoreError marks a local commit failure. Unlike transport or protocol
// errors this points at a broken local environment, so callers should prefer
// a forced full resync over blind retries.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store commit failed: %v", e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// Coordinator owns the sync state of every entity family. Construct with New
// and share the one instance; all methods are safe for concurrent use.
//
// State machine per family: Idle -> Running -> {Committed, Failed} -> Idle.
// Only one run per family may be Running; a second request returns a busy
// Outcome immediately without touching the network.
type Coordinator struct {
	client     CatalogClient
	store      Store
	snapshot   *Snapshot
	now        func() time.Time
	runTimeout time.Duration
	onCommit   func(CommitNotice)

	mu      sync.Mutex
	running map[string]struct{}
	lastErr map[string]string
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRunTimeout bounds every sync run end to end. The caller's context may
// impose a shorter deadline; zero disables the coordinator-side bound.
func WithRunTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.runTimeout = d }
}

// WithCommitHook installs a callback invoked after every successful commit.
func WithCommitHook(fn func(CommitNotice)) Option {
	return func(c *Coordinator) { c.onCommit = fn }
}

// WithClock overrides the watermark clock.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// New builds a Coordinator over the given client, store and snapshot.
func New(client CatalogClient, store Store, snapshot *Snapshot, opts ...Option) *Coordinator {
	c := &Coordinator{
		client:   client,
		store:    store,
		snapshot: snapshot,
		now:      time.Now,
		running:  map[string]struct{}{},
		lastErr:  map[string]string{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// LastError returns the human-readable message of the family's most recent
// failed run, or "" after a successful one. It is what the boundary layer
// surfaces next to stale cached data instead of a blank screen.
func (c *Coordinator) LastError(family string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr[family]
}

// SyncEvents runs one events-family sync. With forceFull the stored
// watermark is ignored, the full catalog is requested, and cached ticket
// types and slots of every fetched event are dropped so the next detail load
// rebuilds them from scratch (they have no tombstone feed of their own). The
// merge is upsert-by-identifier; deletions happen only for identifiers in
// the server's tombstone list, never through absence from a delta. The
// watermark advances to the local clock's "now" strictly after the commit,
// so a crash between commit and the next run at worst re-applies idempotent
// overlap.
func (c *Coordinator) SyncEvents(ctx context.Context, forceFull bool) (Outcome, error) {
	if !c.tryStart(FamilyEvents) {
		return Outcome{Busy: true}, nil
	}
	var err error
	defer func() { c.finish(FamilyEvents, err) }()

	ctx, cancel := c.bound(ctx)
	defer cancel()

	var since *time.Time
	if !forceFull {
		since, err = c.store.Watermark(ctx, FamilyEvents)
		if err != nil {
			err = &StoreError{Err: err}
			return Outcome{}, err
		}
	}

	delta, ferr := c.client.FetchEvents(ctx, since)
	if ferr != nil {
		err = ferr
		return Outcome{}, err
	}

	now := c.now()
	var out Outcome
	err = c.store.WithinTx(ctx, func(tx Tx) error {
		ids := make([]string, 0, len(delta.Changed))
		for _, ev := range delta.Changed {
			ids = append(ids, ev.ID)
		}
		existing, terr := tx.ExistingEventIDs(ctx, ids)
		if terr != nil {
			return terr
		}
		for _, ev := range delta.Changed {
			if _, ok := existing[ev.ID]; ok {
				terr = tx.UpdateEvent(ctx, ev)
			} else {
				terr = tx.InsertEvent(ctx, ev)
			}
			if terr != nil {
				return terr
			}
			if forceFull {
				// Full resync is the reset path: stale child rows must not
				// survive it, and the sub-resources have no deletion list
				// through which they could ever be removed otherwise.
				if terr := tx.DeleteTicketTypesExcept(ctx, ev.ID, nil); terr != nil {
					return terr
				}
				if terr := tx.DeleteSlotsExcept(ctx, ev.ID, nil); terr != nil {
					return terr
				}
			}
			out.Applied++
		}
		for _, id := range delta.DeletedIDs {
			if terr := tx.DeleteEventCascade(ctx, id); terr != nil {
				return terr
			}
			out.Deleted++
		}
		return tx.SetWatermark(ctx, FamilyEvents, now)
	})
	if err != nil {
		err = &StoreError{Err: err}
		return Outcome{}, err
	}

	c.afterCommit(ctx, CommitNotice{
		Family:     FamilyEvents,
		Applied:    out.Applied,
		Deleted:    out.Deleted,
		Watermark:  now,
		ForcedFull: forceFull,
	})
	return out, nil
}

// SyncTicketTypes refreshes the ticket-type set of one event. The fetched
// list is the complete current set for that event, so rows missing from it
// are pruned in the same transaction (the events family never does this; it
// has a tombstone feed instead).
func (c *Coordinator) SyncTicketTypes(ctx context.Context, eventID string) (Outcome, error) {
	family := FamilyTicketTypes(eventID)
	if !c.tryStart(family) {
		return Outcome{Busy: true}, nil
	}
	var err error
	defer func() { c.finish(family, err) }()

	ctx, cancel := c.bound(ctx)
	defer cancel()

	items, ferr := c.client.FetchTicketTypes(ctx, eventID)
	if ferr != nil {
		err = ferr
		return Outcome{}, err
	}

	now := c.now()
	var out Outcome
	err = c.store.WithinTx(ctx, func(tx Tx) error {
		existing, terr := tx.ExistingTicketTypeIDs(ctx, eventID)
		if terr != nil {
			return terr
		}
		keep := make([]int64, 0, len(items))
		for _, t := range items {
			if _, ok := existing[t.ID]; ok {
				terr = tx.UpdateTicketType(ctx, eventID, t)
			} else {
				terr = tx.InsertTicketType(ctx, eventID, t)
			}
			if terr != nil {
				return terr
			}
			keep = append(keep, t.ID)
			out.Applied++
		}
		if terr := tx.DeleteTicketTypesExcept(ctx, eventID, keep); terr != nil {
			return terr
		}
		return tx.SetWatermark(ctx, family, now)
	})
	if err != nil {
		err = &StoreError{Err: err}
		return Outcome{}, err
	}

	c.afterCommit(ctx, CommitNotice{Family: family, Applied: out.Applied, Watermark: now})
	return out, nil
}

// SyncSlots refreshes the slot inventory of one event, with the same
// prune-missing semantics as SyncTicketTypes.
func (c *Coordinator) SyncSlots(ctx context.Context, eventID string) (Outcome, error) {
	family := FamilySlots(eventID)
	if !c.tryStart(family) {
		return Outcome{Busy: true}, nil
	}
	var err error
	defer func() { c.finish(family, err) }()

	ctx, cancel := c.bound(ctx)
	defer cancel()

	items, ferr := c.client.FetchSlots(ctx, eventID)
	if ferr != nil {
		err = ferr
		return Outcome{}, err
	}

	now := c.now()
	var out Outcome
	err = c.store.WithinTx(ctx, func(tx Tx) error {
		existing, terr := tx.ExistingSlotIDs(ctx, eventID)
		if terr != nil {
			return terr
		}
		keep := make([]int64, 0, len(items))
		for _, s := range items {
			if _, ok := existing[s.ID]; ok {
				terr = tx.UpdateSlot(ctx, eventID, s)
			} else {
				terr = tx.InsertSlot(ctx, eventID, s)
			}
			if terr != nil {
				return terr
			}
			keep = append(keep, s.ID)
			out.Applied++
		}
		if terr := tx.DeleteSlotsExcept(ctx, eventID, keep); terr != nil {
			return terr
		}
		return tx.SetWatermark(ctx, family, now)
	})
	if err != nil {
		err = &StoreError{Err: err}
		return Outcome{}, err
	}

	c.afterCommit(ctx, CommitNotice{Family: family, Applied: out.Applied, Watermark: now})
	return out, nil
}

// SyncPrograms refreshes the sub-program list of one event using the
// replace-all policy: existing programs (with their category sets and
// practice locations) are deleted and the fetched list inserted fresh,
// inside one transaction so readers never observe the transient empty state.
func (c *Coordinator) SyncPrograms(ctx context.Context, eventID string) (Outcome, error) {
	family := FamilyPrograms(eventID)
	if !c.tryStart(family) {
		return Outcome{Busy: true}, nil
	}
	var err error
	defer func() { c.finish(family, err) }()

	ctx, cancel := c.bound(ctx)
	defer cancel()

	items, ferr := c.client.FetchPrograms(ctx, eventID)
	if ferr != nil {
		err = ferr
		return Outcome{}, err
	}

	now := c.now()
	err = c.store.WithinTx(ctx, func(tx Tx) error {
		if terr := tx.ReplacePrograms(ctx, eventID, items); terr != nil {
			return terr
		}
		return tx.SetWatermark(ctx, family, now)
	})
	if err != nil {
		err = &StoreError{Err: err}
		return Outcome{}, err
	}

	c.afterCommit(ctx, CommitNotice{Family: family, Applied: len(items), Watermark: now})
	return Outcome{Applied: len(items)}, nil
}

func (c *Coordinator) tryStart(family string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.running[family]; ok {
		return false
	}
	c.running[family] = struct{}{}
	return true
}

func (c *Coordinator) finish(family string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.running, family)
	if err != nil {
		c.lastErr[family] = err.Error()
	} else {
		delete(c.lastErr, family)
	}
}

func (c *Coordinator) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.runTimeout > 0 {
		return context.WithTimeout(ctx, c.runTimeout)
	}
	return ctx, func() {}
}

// afterCommit stamps the family's merge policy on the notice, reloads the
// snapshot (events family only; sub-resources do not feed it) and fires the
// commit hook.
func (c *Coordinator) afterCommit(ctx context.Context, notice CommitNotice) {
	notice.Policy = Policy(notice.Family)
	if notice.Family == FamilyEvents && c.snapshot != nil {
		if err := c.snapshot.Reload(ctx); err != nil {
			log.Printf("sync: snapshot reload after %s commit failed: %v", notice.Family, err)
		}
	}
	if c.onCommit != nil {
		c.onCommit(notice)
	}
}
