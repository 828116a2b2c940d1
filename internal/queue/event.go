// Package queue defines message payloads exchanged over the message broker.
package queue

// SyncCommittedEvent is published after a sync run commits. It lets
// downstream consumers (push-notification fanout, analytics, cache warmers)
// react to catalog changes without polling the primary database. Family is
// "events" for the global run or "<kind>:<event-id>" for per-event
// sub-resource runs.
type SyncCommittedEvent struct {
	Family      string `json:"family"`
	Policy      string `json:"policy"` // "incremental-upsert" or "replace-all"
	Applied     int    `json:"applied"`
	Deleted     int    `json:"deleted"`
	ForcedFull  bool   `json:"forced_full"`
	Watermark   string `json:"watermark"`
	CommittedAt string `json:"committed_at"`
}
