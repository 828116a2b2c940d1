package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samajapp/catalog-sync/internal/model"
)

// stubLister serves a fixed slice (already in snapshot order, the way the SQL
// read path returns it) and can be flipped to failing.
type stubLister struct {
	events []model.Event
	err    error
}

func (l *stubLister) ListRecent(_ context.Context, limit int) ([]model.Event, error) {
	if l.err != nil {
		return nil, l.err
	}
	out := l.events
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func TestSnapshotEmptyBeforeFirstLoad(t *testing.T) {
	snap := NewSnapshot(&stubLister{}, 30)
	state := snap.Get(0)
	if state.Loaded || state.Loading || len(state.Events) != 0 || state.Version != 0 {
		t.Fatalf("unexpected initial state: %+v", state)
	}
}

func TestSnapshotBoundedWindow(t *testing.T) {
	nov := time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC)
	oct := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	lister := &stubLister{events: []model.Event{
		{ID: "E2", Title: "Date TBA"}, // nil date sorts ahead of every dated event
		{ID: "E1", Title: "November Gala", EventDate: &nov},
		{ID: "E3", Title: "October Fair", EventDate: &oct},
	}}
	snap := NewSnapshot(lister, 2)

	if err := snap.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	state := snap.Get(0)
	if !state.Loaded || state.Version != 1 {
		t.Fatalf("unexpected state after reload: %+v", state)
	}
	if len(state.Events) != 2 {
		t.Fatalf("window holds %d events, want 2", len(state.Events))
	}
	if state.Events[0].ID != "E2" || state.Events[1].ID != "E1" {
		t.Fatalf("window = [%s %s], want [E2 E1]", state.Events[0].ID, state.Events[1].ID)
	}

	// A caller-side limit trims further but never widens the window.
	if got := snap.Get(1).Events; len(got) != 1 || got[0].ID != "E2" {
		t.Fatalf("Get(1) = %+v", got)
	}
	if got := snap.Get(10).Events; len(got) != 2 {
		t.Fatalf("Get(10) returned %d events, want the 2 cached ones", len(got))
	}
}

func TestSnapshotKeepsStaleDataOnFailure(t *testing.T) {
	lister := &stubLister{events: []model.Event{{ID: "E1", Title: "Gala"}}}
	snap := NewSnapshot(lister, 30)

	if err := snap.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	lister.err = errors.New("database gone")
	if err := snap.Reload(context.Background()); err == nil {
		t.Fatal("expected reload to fail")
	}

	state := snap.Get(0)
	if len(state.Events) != 1 || state.Events[0].ID != "E1" {
		t.Fatalf("stale contents were dropped: %+v", state.Events)
	}
	if state.LastError == "" {
		t.Fatal("failure not surfaced in state")
	}
	if state.Version != 1 {
		t.Fatalf("version = %d, failed reload must not bump it", state.Version)
	}

	lister.err = nil
	if err := snap.Reload(context.Background()); err != nil {
		t.Fatalf("recovery reload: %v", err)
	}
	state = snap.Get(0)
	if state.LastError != "" || state.Version != 2 {
		t.Fatalf("state after recovery: %+v", state)
	}
}

func TestSnapshotSubscribeNotifies(t *testing.T) {
	lister := &stubLister{events: []model.Event{{ID: "E1"}}}
	snap := NewSnapshot(lister, 30)
	ch := snap.Subscribe()

	if err := snap.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no notification after a successful reload")
	}

	// A slow subscriber coalesces ticks instead of blocking the reload.
	if err := snap.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if err := snap.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("coalesced notification missing")
	}

	// Failed reloads stay silent.
	lister.err = errors.New("down")
	_ = snap.Reload(context.Background())
	select {
	case <-ch:
		t.Fatal("failed reload must not notify")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestSnapshotDefaultLimit(t *testing.T) {
	events := make([]model.Event, 40)
	for i := range events {
		events[i] = model.Event{ID: string(rune('A' + i))}
	}
	snap := NewSnapshot(&stubLister{events: events}, 0)
	if err := snap.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := len(snap.Get(0).Events); got != 30 {
		t.Fatalf("default window = %d, want 30", got)
	}
}
