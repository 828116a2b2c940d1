package syncer

import (
	"context"
	"sync"

	"github.com/samajapp/catalog-sync/internal/model"
)

// Snapshot is the observable, in-memory projection of "the events the app
// should render". It is a read path over the local store, never over the
// remote client: Reload performs one bounded date-descending scan and keeps
// the result until the next successful reload, so readers always see either
// the pre-sync or the post-sync state.
//
// Ordering rule for "to be announced" events (nil date): they sort ahead of
// every dated event, as if furthest in the future. The rule lives in
// EventRepo.ListRecent; the snapshot only preserves it.
type Snapshot struct {
	lister EventLister
	limit  int

	mu      sync.RWMutex
	events  []model.Event
	loaded  bool
	loading bool
	lastErr string
	version uint64
	subs    []chan struct{}
}

// State is one consistent view of the snapshot handed to readers. Events is
// shared read-only data; callers must not mutate it.
type State struct {
	Events    []model.Event `json:"events"`
	Loading   bool          `json:"loading"`
	Loaded    bool          `json:"loaded"`
	LastError string        `json:"last_error,omitempty"`
	Version   uint64        `json:"version"`
}

// NewSnapshot builds a snapshot bounded to limit events. limit must be
// positive; 30 is the conventional default.
func NewSnapshot(lister EventLister, limit int) *Snapshot {
	if limit <= 0 {
		limit = 30
	}
	return &Snapshot{lister: lister, limit: limit}
}

// Reload refreshes the projection from the local store. On failure the
// previous contents stay published (stale data beats a blank screen) and the
// error is recorded in the state.
func (s *Snapshot) Reload(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	events, err := s.lister.ListRecent(ctx, s.limit)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.lastErr = err.Error()
		s.mu.Unlock()
		return err
	}
	s.events = events
	s.loaded = true
	s.lastErr = ""
	s.version++
	subs := s.subs
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default: // subscriber is behind; it will pick up the latest state anyway
		}
	}
	return nil
}

// Get returns the current state bounded to limit entries. limit <= 0 or a
// limit beyond the configured bound returns the full cached projection.
func (s *Snapshot) Get(limit int) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.events
	if limit > 0 && limit < len(events) {
		events = events[:limit]
	}
	return State{
		Events:    events,
		Loading:   s.loading,
		Loaded:    s.loaded,
		LastError: s.lastErr,
		Version:   s.version,
	}
}

// Subscribe returns a channel that receives a tick after every successful
// reload. The channel is never closed; notifications coalesce when the
// subscriber lags.
func (s *Snapshot) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}
