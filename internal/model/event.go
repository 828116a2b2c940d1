// Package model defines the domain types served out of the local store.
// These are the cached, already-reconciled shapes; the wire shapes fetched
// from the remote service live in internal/catalog.
package model

import "time"

// Event is one cached catalog event.
//
// Fields:
//  ID                  – stable string identifier, globally unique.
//  EventDate           – nil means "to be announced"; such events sort ahead
//                        of dated ones in the snapshot.
//  UsesSlots           – whether the event allocates time-slot inventory.
//  ParentEventID       – set for sub-events of a multi-day event.
//  UpdatedAt           – server-authoritative last-modified timestamp.
type Event struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	DescriptionHTML     string     `json:"description_html"`
	Location            string     `json:"location"`
	CategoryName        string     `json:"category_name"`
	CategoryID          int64      `json:"category_id"`
	ImageURL            string     `json:"image_url"`
	RegistrationEnabled bool       `json:"registration_enabled"`
	TicketingEnabled    bool       `json:"ticketing_enabled"`
	EventDate           *time.Time `json:"event_date"`
	TimeLabel           string     `json:"time_label"`
	InfoLink            string     `json:"info_link"`
	UsesSlots           bool       `json:"uses_slots"`
	ParentEventID       *string    `json:"parent_event_id,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
