package syncer

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/samajapp/catalog-sync/internal/catalog"
	"github.com/samajapp/catalog-sync/internal/model"
)

// memState is one version of the in-memory cache contents. WithinTx clones it,
// lets the transaction mutate the clone and swaps it in only on success, which
// mirrors the commit/rollback behavior of the real store.
type memState struct {
	events      map[string]catalog.Event
	ticketTypes map[string]map[int64]catalog.TicketType
	slots       map[string]map[int64]catalog.Slot
	programs    map[string][]catalog.Program
	watermarks  map[string]time.Time
}

func newMemState() *memState {
	return &memState{
		events:      map[string]catalog.Event{},
		ticketTypes: map[string]map[int64]catalog.TicketType{},
		slots:       map[string]map[int64]catalog.Slot{},
		programs:    map[string][]catalog.Program{},
		watermarks:  map[string]time.Time{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.events {
		c.events[k] = v
	}
	for ev, m := range s.ticketTypes {
		mm := map[int64]catalog.TicketType{}
		for k, v := range m {
			mm[k] = v
		}
		c.ticketTypes[ev] = mm
	}
	for ev, m := range s.slots {
		mm := map[int64]catalog.Slot{}
		for k, v := range m {
			mm[k] = v
		}
		c.slots[ev] = mm
	}
	for ev, list := range s.programs {
		c.programs[ev] = append([]catalog.Program(nil), list...)
	}
	for k, v := range s.watermarks {
		c.watermarks[k] = v
	}
	return c
}

type memStore struct {
	mu    sync.Mutex
	state *memState

	// failOn makes the named Tx method return an error, for exercising the
	// rollback path.
	failOn string
}

func newMemStore() *memStore { return &memStore{state: newMemState()} }

func (m *memStore) Watermark(_ context.Context, family string) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if at, ok := m.state.watermarks[family]; ok {
		t := at
		return &t, nil
	}
	return nil, nil
}

func (m *memStore) WithinTx(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.state.clone()
	if err := fn(&memTx{state: work, failOn: m.failOn}); err != nil {
		return err
	}
	m.state = work
	return nil
}

type memTx struct {
	state  *memState
	failOn string
}

func (t *memTx) fail(method string) error {
	if t.failOn == method {
		return errors.New(method + ": injected failure")
	}
	return nil
}

func (t *memTx) ExistingEventIDs(_ context.Context, ids []string) (map[string]struct{}, error) {
	if err := t.fail("ExistingEventIDs"); err != nil {
		return nil, err
	}
	out := map[string]struct{}{}
	for _, id := range ids {
		if _, ok := t.state.events[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (t *memTx) InsertEvent(_ context.Context, ev catalog.Event) error {
	if err := t.fail("InsertEvent"); err != nil {
		return err
	}
	if _, ok := t.state.events[ev.ID]; ok {
		return errors.New("duplicate event id " + ev.ID)
	}
	t.state.events[ev.ID] = ev
	return nil
}

func (t *memTx) UpdateEvent(_ context.Context, ev catalog.Event) error {
	if err := t.fail("UpdateEvent"); err != nil {
		return err
	}
	if _, ok := t.state.events[ev.ID]; !ok {
		return errors.New("update of missing event " + ev.ID)
	}
	t.state.events[ev.ID] = ev
	return nil
}

func (t *memTx) DeleteEventCascade(_ context.Context, id string) error {
	if err := t.fail("DeleteEventCascade"); err != nil {
		return err
	}
	delete(t.state.events, id)
	delete(t.state.ticketTypes, id)
	delete(t.state.slots, id)
	delete(t.state.programs, id)
	return nil
}

func (t *memTx) ExistingTicketTypeIDs(_ context.Context, eventID string) (map[int64]struct{}, error) {
	if err := t.fail("ExistingTicketTypeIDs"); err != nil {
		return nil, err
	}
	out := map[int64]struct{}{}
	for id := range t.state.ticketTypes[eventID] {
		out[id] = struct{}{}
	}
	return out, nil
}

func (t *memTx) InsertTicketType(_ context.Context, eventID string, tt catalog.TicketType) error {
	if err := t.fail("InsertTicketType"); err != nil {
		return err
	}
	m := t.state.ticketTypes[eventID]
	if m == nil {
		m = map[int64]catalog.TicketType{}
		t.state.ticketTypes[eventID] = m
	}
	m[tt.ID] = tt
	return nil
}

func (t *memTx) UpdateTicketType(_ context.Context, eventID string, tt catalog.TicketType) error {
	if err := t.fail("UpdateTicketType"); err != nil {
		return err
	}
	t.state.ticketTypes[eventID][tt.ID] = tt
	return nil
}

func (t *memTx) DeleteTicketTypesExcept(_ context.Context, eventID string, keep []int64) error {
	if err := t.fail("DeleteTicketTypesExcept"); err != nil {
		return err
	}
	keepSet := map[int64]struct{}{}
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	for id := range t.state.ticketTypes[eventID] {
		if _, ok := keepSet[id]; !ok {
			delete(t.state.ticketTypes[eventID], id)
		}
	}
	return nil
}

func (t *memTx) ExistingSlotIDs(_ context.Context, eventID string) (map[int64]struct{}, error) {
	if err := t.fail("ExistingSlotIDs"); err != nil {
		return nil, err
	}
	out := map[int64]struct{}{}
	for id := range t.state.slots[eventID] {
		out[id] = struct{}{}
	}
	return out, nil
}

func (t *memTx) InsertSlot(_ context.Context, eventID string, s catalog.Slot) error {
	if err := t.fail("InsertSlot"); err != nil {
		return err
	}
	m := t.state.slots[eventID]
	if m == nil {
		m = map[int64]catalog.Slot{}
		t.state.slots[eventID] = m
	}
	m[s.ID] = s
	return nil
}

func (t *memTx) UpdateSlot(_ context.Context, eventID string, s catalog.Slot) error {
	if err := t.fail("UpdateSlot"); err != nil {
		return err
	}
	t.state.slots[eventID][s.ID] = s
	return nil
}

func (t *memTx) DeleteSlotsExcept(_ context.Context, eventID string, keep []int64) error {
	if err := t.fail("DeleteSlotsExcept"); err != nil {
		return err
	}
	keepSet := map[int64]struct{}{}
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	for id := range t.state.slots[eventID] {
		if _, ok := keepSet[id]; !ok {
			delete(t.state.slots[eventID], id)
		}
	}
	return nil
}

func (t *memTx) ReplacePrograms(_ context.Context, eventID string, items []catalog.Program) error {
	if err := t.fail("ReplacePrograms"); err != nil {
		return err
	}
	t.state.programs[eventID] = append([]catalog.Program(nil), items...)
	return nil
}

func (t *memTx) SetWatermark(_ context.Context, family string, at time.Time) error {
	if err := t.fail("SetWatermark"); err != nil {
		return err
	}
	t.state.watermarks[family] = at
	return nil
}

// memLister reads the snapshot projection straight out of a memStore,
// applying the same ordering as the SQL read path: "to be announced" events
// first, then date descending, ties broken by ID.
type memLister struct {
	store *memStore
}

func (l *memLister) ListRecent(_ context.Context, limit int) ([]model.Event, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	out := make([]model.Event, 0, len(l.store.state.events))
	for _, ev := range l.store.state.events {
		out = append(out, model.Event{
			ID:        ev.ID,
			Title:     ev.Title,
			EventDate: ev.EventDate,
			UpdatedAt: ev.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.EventDate == nil) != (b.EventDate == nil) {
			return a.EventDate == nil
		}
		if a.EventDate != nil && !a.EventDate.Equal(*b.EventDate) {
			return a.EventDate.After(*b.EventDate)
		}
		return a.ID < b.ID
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// fakeClient is a scriptable CatalogClient.
type fakeClient struct {
	mu          sync.Mutex
	delta       catalog.EventDelta
	deltaErr    error
	ticketTypes []catalog.TicketType
	slots       []catalog.Slot
	programs    []catalog.Program
	subErr      error

	eventCalls int
	gotSince   []*time.Time

	// When set, FetchEvents signals started (once) and then blocks until
	// release closes or the context expires.
	started chan struct{}
	release chan struct{}
}

func (f *fakeClient) FetchEvents(ctx context.Context, since *time.Time) (catalog.EventDelta, error) {
	f.mu.Lock()
	f.eventCalls++
	f.gotSince = append(f.gotSince, since)
	started, release := f.started, f.release
	if started != nil {
		f.started = nil
		close(started)
	}
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return catalog.EventDelta{}, &catalog.Error{
				Kind: catalog.KindTransport, Op: "fetch events", Timeout: true, Err: ctx.Err(),
			}
		}
	}
	return f.delta, f.deltaErr
}

func (f *fakeClient) FetchTicketTypes(context.Context, string) ([]catalog.TicketType, error) {
	return f.ticketTypes, f.subErr
}

func (f *fakeClient) FetchSlots(context.Context, string) ([]catalog.Slot, error) {
	return f.slots, f.subErr
}

func (f *fakeClient) FetchPrograms(context.Context, string) ([]catalog.Program, error) {
	return f.programs, f.subErr
}

func datePtr(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func makeEvent(id, title string, date *time.Time) catalog.Event {
	return catalog.Event{
		ID:        id,
		Title:     title,
		EventDate: date,
		UpdatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSyncEventsFullInsertAndWatermark(t *testing.T) {
	store := newMemStore()
	clock := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	client := &fakeClient{delta: catalog.EventDelta{Changed: []catalog.Event{
		makeEvent("E1", "Diwali Gala", datePtr("2026-10-20T18:00:00Z")),
		makeEvent("E2", "Summer Picnic", datePtr("2026-07-04T10:00:00Z")),
	}}}
	coord := New(client, store, nil, WithClock(func() time.Time { return clock }))

	out, err := coord.SyncEvents(context.Background(), false)
	if err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}
	if out.Busy || out.Applied != 2 || out.Deleted != 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(store.state.events) != 2 {
		t.Fatalf("expected 2 events stored, got %d", len(store.state.events))
	}
	if got := client.gotSince[0]; got != nil {
		t.Fatalf("first run should send no since, got %v", got)
	}
	wm, err := store.Watermark(context.Background(), FamilyEvents)
	if err != nil {
		t.Fatalf("Watermark: %v", err)
	}
	if wm == nil || !wm.Equal(clock) {
		t.Fatalf("watermark = %v, want %v", wm, clock)
	}
}

func TestSyncEventsSendsStoredWatermark(t *testing.T) {
	store := newMemStore()
	mark := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	store.state.watermarks[FamilyEvents] = mark
	client := &fakeClient{}
	coord := New(client, store, nil)

	if _, err := coord.SyncEvents(context.Background(), false); err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}
	if got := client.gotSince[0]; got == nil || !got.Equal(mark) {
		t.Fatalf("since = %v, want %v", got, mark)
	}

	if _, err := coord.SyncEvents(context.Background(), true); err != nil {
		t.Fatalf("forced SyncEvents: %v", err)
	}
	if got := client.gotSince[1]; got != nil {
		t.Fatalf("forced full should send no since, got %v", got)
	}
}

func TestSyncEventsUpsertsInPlace(t *testing.T) {
	store := newMemStore()
	store.state.events["E1"] = makeEvent("E1", "Old Title", nil)
	client := &fakeClient{delta: catalog.EventDelta{Changed: []catalog.Event{
		makeEvent("E1", "New Title", datePtr("2026-11-01T09:00:00Z")),
	}}}
	coord := New(client, store, nil)

	out, err := coord.SyncEvents(context.Background(), false)
	if err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}
	if out.Applied != 1 {
		t.Fatalf("applied = %d, want 1", out.Applied)
	}
	if len(store.state.events) != 1 {
		t.Fatalf("expected exactly one record for E1, got %d", len(store.state.events))
	}
	if got := store.state.events["E1"].Title; got != "New Title" {
		t.Fatalf("title = %q, want %q", got, "New Title")
	}
}

func TestSyncEventsIdempotentRemerge(t *testing.T) {
	store := newMemStore()
	client := &fakeClient{delta: catalog.EventDelta{
		Changed:    []catalog.Event{makeEvent("E1", "Gala", nil), makeEvent("E2", "Picnic", nil)},
		DeletedIDs: []string{"E9"},
	}}
	coord := New(client, store, nil)

	if _, err := coord.SyncEvents(context.Background(), false); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := store.state.clone()
	if _, err := coord.SyncEvents(context.Background(), false); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(first.events, store.state.events) {
		t.Fatalf("re-applying the same delta changed the stored events")
	}
}

func TestSyncEventsTombstoneCascades(t *testing.T) {
	store := newMemStore()
	store.state.events["E1"] = makeEvent("E1", "Gala", nil)
	store.state.ticketTypes["E1"] = map[int64]catalog.TicketType{1: {ID: 1, Name: "Adult"}}
	store.state.slots["E1"] = map[int64]catalog.Slot{7: {ID: 7, Name: "Morning"}}
	store.state.programs["E1"] = []catalog.Program{{ID: "P1", Name: "Dance"}}
	client := &fakeClient{delta: catalog.EventDelta{DeletedIDs: []string{"E1", "never-existed"}}}
	coord := New(client, store, nil)

	out, err := coord.SyncEvents(context.Background(), false)
	if err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}
	if out.Deleted != 2 {
		t.Fatalf("deleted = %d, want 2", out.Deleted)
	}
	if len(store.state.events) != 0 || len(store.state.ticketTypes) != 0 ||
		len(store.state.slots) != 0 || len(store.state.programs) != 0 {
		t.Fatalf("cascade left residue: %+v", store.state)
	}
}

func TestForcedFullResyncPrunesChildRows(t *testing.T) {
	store := newMemStore()
	store.state.events["E1"] = makeEvent("E1", "Gala", nil)
	store.state.ticketTypes["E1"] = map[int64]catalog.TicketType{99: {ID: 99, Name: "Retired"}}
	store.state.slots["E1"] = map[int64]catalog.Slot{7: {ID: 7, Name: "Morning"}}
	client := &fakeClient{delta: catalog.EventDelta{Changed: []catalog.Event{
		makeEvent("E1", "Gala", nil),
	}}}
	coord := New(client, store, nil)

	// An ordinary delta run never touches child rows.
	if _, err := coord.SyncEvents(context.Background(), false); err != nil {
		t.Fatalf("delta run: %v", err)
	}
	if len(store.state.ticketTypes["E1"]) != 1 || len(store.state.slots["E1"]) != 1 {
		t.Fatal("delta run modified child rows")
	}

	if _, err := coord.SyncEvents(context.Background(), true); err != nil {
		t.Fatalf("forced full run: %v", err)
	}
	if n := len(store.state.ticketTypes["E1"]); n != 0 {
		t.Fatalf("stale ticket types survived a forced full resync: %d rows", n)
	}
	if n := len(store.state.slots["E1"]); n != 0 {
		t.Fatalf("stale slots survived a forced full resync: %d rows", n)
	}
}

func TestSyncEventsNeverDeletesByAbsence(t *testing.T) {
	store := newMemStore()
	store.state.events["E2"] = makeEvent("E2", "Picnic", nil)
	client := &fakeClient{delta: catalog.EventDelta{Changed: []catalog.Event{
		makeEvent("E1", "Gala", nil),
	}}}
	coord := New(client, store, nil)

	if _, err := coord.SyncEvents(context.Background(), false); err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}
	if _, ok := store.state.events["E2"]; !ok {
		t.Fatalf("E2 was removed despite not being tombstoned")
	}
}

func TestSyncEventsFetchFailureLeavesStoreUntouched(t *testing.T) {
	store := newMemStore()
	client := &fakeClient{deltaErr: &catalog.Error{
		Kind: catalog.KindTransport, Op: "fetch events", Err: errors.New("connection refused"),
	}}
	coord := New(client, store, nil)

	_, err := coord.SyncEvents(context.Background(), false)
	if err == nil {
		t.Fatal("expected an error")
	}
	if catalog.KindOf(err) != catalog.KindTransport {
		t.Fatalf("kind = %v, want transport", catalog.KindOf(err))
	}
	if len(store.state.events) != 0 || len(store.state.watermarks) != 0 {
		t.Fatalf("failed fetch mutated the store")
	}
	if coord.LastError(FamilyEvents) == "" {
		t.Fatal("expected LastError to be recorded")
	}
}

func TestSyncEventsCommitFailureRollsBack(t *testing.T) {
	store := newMemStore()
	store.failOn = "SetWatermark"
	client := &fakeClient{delta: catalog.EventDelta{Changed: []catalog.Event{
		makeEvent("E1", "Gala", nil),
	}}}
	coord := New(client, store, nil)

	_, err := coord.SyncEvents(context.Background(), false)
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StoreError, got %v", err)
	}
	if len(store.state.events) != 0 {
		t.Fatalf("rolled-back transaction left %d events behind", len(store.state.events))
	}
	if len(store.state.watermarks) != 0 {
		t.Fatal("watermark advanced despite failed commit")
	}
}

func TestSyncEventsErrorClearsOnNextSuccess(t *testing.T) {
	store := newMemStore()
	client := &fakeClient{deltaErr: errors.New("boom")}
	coord := New(client, store, nil)

	if _, err := coord.SyncEvents(context.Background(), false); err == nil {
		t.Fatal("expected first run to fail")
	}
	client.deltaErr = nil
	if _, err := coord.SyncEvents(context.Background(), false); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if msg := coord.LastError(FamilyEvents); msg != "" {
		t.Fatalf("LastError = %q after a successful run", msg)
	}
}

func TestSyncEventsBusyNoOp(t *testing.T) {
	store := newMemStore()
	client := &fakeClient{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	coord := New(client, store, nil)

	done := make(chan error, 1)
	go func() {
		_, err := coord.SyncEvents(context.Background(), false)
		done <- err
	}()
	<-client.started

	out, err := coord.SyncEvents(context.Background(), false)
	if err != nil {
		t.Fatalf("second trigger: %v", err)
	}
	if !out.Busy {
		t.Fatal("expected busy outcome while a run is in flight")
	}

	close(client.release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
	if client.eventCalls != 1 {
		t.Fatalf("busy trigger reached the network: %d calls", client.eventCalls)
	}

	// The family is idle again, so a fresh trigger runs.
	out, err = coord.SyncEvents(context.Background(), false)
	if err != nil {
		t.Fatalf("third trigger: %v", err)
	}
	if out.Busy {
		t.Fatal("family stayed busy after the run finished")
	}
}

func TestSyncEventsRunTimeoutDiscardsPartialWork(t *testing.T) {
	store := newMemStore()
	client := &fakeClient{
		started: make(chan struct{}),
		release: make(chan struct{}), // never closed; only the deadline frees it
	}
	coord := New(client, store, nil, WithRunTimeout(20*time.Millisecond))

	_, err := coord.SyncEvents(context.Background(), false)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if !catalog.IsTimeout(err) {
		t.Fatalf("expected a timeout classification, got %v", err)
	}
	if len(store.state.events) != 0 || len(store.state.watermarks) != 0 {
		t.Fatal("timed-out run mutated the store")
	}
}

func TestSyncTicketTypesUpsertsAndPrunes(t *testing.T) {
	store := newMemStore()
	store.state.events["E1"] = makeEvent("E1", "Gala", nil)
	store.state.ticketTypes["E1"] = map[int64]catalog.TicketType{
		1: {ID: 1, Name: "Adult", PriceCents: 2500},
		2: {ID: 2, Name: "Child", PriceCents: 1000},
	}
	client := &fakeClient{ticketTypes: []catalog.TicketType{
		{ID: 2, Name: "Child", PriceCents: 1200},
		{ID: 3, Name: "Senior", PriceCents: 1500},
	}}
	coord := New(client, store, nil)

	out, err := coord.SyncTicketTypes(context.Background(), "E1")
	if err != nil {
		t.Fatalf("SyncTicketTypes: %v", err)
	}
	if out.Applied != 2 {
		t.Fatalf("applied = %d, want 2", out.Applied)
	}
	got := store.state.ticketTypes["E1"]
	if len(got) != 2 {
		t.Fatalf("expected 2 ticket types after prune, got %d", len(got))
	}
	if _, ok := got[1]; ok {
		t.Fatal("ticket type 1 should have been pruned")
	}
	if got[2].PriceCents != 1200 {
		t.Fatalf("ticket type 2 price = %d, want 1200", got[2].PriceCents)
	}
	if _, ok := got[3]; !ok {
		t.Fatal("ticket type 3 should have been inserted")
	}
	if _, ok := store.state.watermarks[FamilyTicketTypes("E1")]; !ok {
		t.Fatal("family watermark not advanced")
	}
}

func TestSyncSlotsEmptyFetchClearsInventory(t *testing.T) {
	store := newMemStore()
	store.state.slots["E1"] = map[int64]catalog.Slot{7: {ID: 7, Name: "Morning", Available: 4}}
	client := &fakeClient{}
	coord := New(client, store, nil)

	if _, err := coord.SyncSlots(context.Background(), "E1"); err != nil {
		t.Fatalf("SyncSlots: %v", err)
	}
	if n := len(store.state.slots["E1"]); n != 0 {
		t.Fatalf("expected empty slot inventory, got %d rows", n)
	}
}

func TestSyncProgramsReplacesWholesale(t *testing.T) {
	store := newMemStore()
	store.state.programs["E1"] = []catalog.Program{{ID: "P1", Name: "Dance"}}
	client := &fakeClient{programs: []catalog.Program{
		{ID: "P2", Name: "Drama"},
		{ID: "P3", Name: "Music"},
	}}
	coord := New(client, store, nil)

	out, err := coord.SyncPrograms(context.Background(), "E1")
	if err != nil {
		t.Fatalf("SyncPrograms: %v", err)
	}
	if out.Applied != 2 {
		t.Fatalf("applied = %d, want 2", out.Applied)
	}
	got := store.state.programs["E1"]
	if len(got) != 2 || got[0].ID != "P2" || got[1].ID != "P3" {
		t.Fatalf("unexpected programs after replace: %+v", got)
	}
}

func TestSyncProgramsFailureKeepsOldList(t *testing.T) {
	store := newMemStore()
	store.state.programs["E1"] = []catalog.Program{{ID: "P1", Name: "Dance"}}
	store.failOn = "ReplacePrograms"
	client := &fakeClient{programs: []catalog.Program{{ID: "P2", Name: "Drama"}}}
	coord := New(client, store, nil)

	if _, err := coord.SyncPrograms(context.Background(), "E1"); err == nil {
		t.Fatal("expected an error")
	}
	got := store.state.programs["E1"]
	if len(got) != 1 || got[0].ID != "P1" {
		t.Fatalf("failed replace did not keep the old list: %+v", got)
	}
}

func TestSubResourceFamiliesRunIndependently(t *testing.T) {
	store := newMemStore()
	client := &fakeClient{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	coord := New(client, store, nil)

	done := make(chan struct{})
	go func() {
		_, _ = coord.SyncEvents(context.Background(), false)
		close(done)
	}()
	<-client.started

	// A busy events family must not block per-event sub-syncs.
	if out, err := coord.SyncTicketTypes(context.Background(), "E1"); err != nil || out.Busy {
		t.Fatalf("ticket-type sync blocked by events run: out=%+v err=%v", out, err)
	}
	if out, err := coord.SyncSlots(context.Background(), "E2"); err != nil || out.Busy {
		t.Fatalf("slot sync blocked by events run: out=%+v err=%v", out, err)
	}

	close(client.release)
	<-done
}

func TestCommitHookAndSnapshotReload(t *testing.T) {
	store := newMemStore()
	snap := NewSnapshot(&memLister{store: store}, 30)
	client := &fakeClient{delta: catalog.EventDelta{Changed: []catalog.Event{
		makeEvent("E1", "Gala", datePtr("2026-10-20T18:00:00Z")),
	}}}
	var notices []CommitNotice
	coord := New(client, store, snap, WithCommitHook(func(n CommitNotice) {
		notices = append(notices, n)
	}))

	if _, err := coord.SyncEvents(context.Background(), false); err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}
	state := snap.Get(0)
	if !state.Loaded || len(state.Events) != 1 || state.Events[0].ID != "E1" {
		t.Fatalf("snapshot not republished after commit: %+v", state)
	}
	if len(notices) != 1 || notices[0].Family != FamilyEvents || notices[0].Applied != 1 {
		t.Fatalf("unexpected commit notices: %+v", notices)
	}
	if notices[0].Policy != PolicyIncrementalUpsert {
		t.Fatalf("events commit carried policy %v", notices[0].Policy)
	}
}

func TestCommitNoticeCarriesReplacePolicy(t *testing.T) {
	store := newMemStore()
	client := &fakeClient{programs: []catalog.Program{{ID: "P1", Name: "Dance"}}}
	var notice CommitNotice
	coord := New(client, store, nil, WithCommitHook(func(n CommitNotice) { notice = n }))

	if _, err := coord.SyncPrograms(context.Background(), "E1"); err != nil {
		t.Fatalf("SyncPrograms: %v", err)
	}
	if notice.Family != FamilyPrograms("E1") || notice.Policy != PolicyReplaceAll {
		t.Fatalf("unexpected notice: %+v", notice)
	}
}

func TestPolicyByFamily(t *testing.T) {
	if Policy(FamilyEvents) != PolicyIncrementalUpsert {
		t.Fatal("events family should merge incrementally")
	}
	if Policy(FamilyTicketTypes("E1")) != PolicyIncrementalUpsert {
		t.Fatal("ticket-type families should merge incrementally")
	}
	if Policy(FamilyPrograms("E1")) != PolicyReplaceAll {
		t.Fatal("program families should replace wholesale")
	}
}
