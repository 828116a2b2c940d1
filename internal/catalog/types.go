// Package catalog implements the client for the remote catalog service. It
// fetches events (optionally as a delta against a "changed since" timestamp),
// per-event ticket types, slot inventories ("panthis") and sub-program
// listings, decoding the wire JSON into the semantic types below. The wire
// uses snake_case field names; the client maps them onto these structs and
// never mutates local state itself.
package catalog

import "time"

// Event is a single catalog event as reported by the remote service.
// EventDate is nil for "to be announced" events. UpdatedAt is the server's
// authoritative last-modified timestamp; the sync layer relies on it never
// regressing for a given ID.
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
	ParentEventID       *string    `json:"parent_event_id"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// EventDelta is the response of the events endpoint. Changed carries every
// event created or modified after the requested watermark (or the full
// catalog when no watermark was sent). DeletedIDs is the explicit tombstone
// list; deletion is never inferred from absence in Changed.
type EventDelta struct {
	Changed    []Event  `json:"changed"`
	DeletedIDs []string `json:"deleted_ids"`
}

// TicketType is one purchasable ticket class of an event. IDs are unique
// within their event only. All prices are integer cents in Currency.
//
// MembersOnly is always populated after decoding: when the server omits the
// members_only field, the client infers it as "has a member price but no
// public price" (see normalizeTicketType). Callers must use this field and
// never re-derive exclusivity from the price columns.
type TicketType struct {
	ID                        int64      `json:"id"`
	Name                      string     `json:"name"`
	PriceCents                int64      `json:"price_cents"`
	MemberPriceCents          *int64     `json:"member_price_cents"`
	EarlyBirdPriceCents       *int64     `json:"early_bird_price_cents"`
	EarlyBirdMemberPriceCents *int64     `json:"early_bird_member_price_cents"`
	EarlyBirdEndsAt           *time.Time `json:"early_bird_ends_at"`
	Currency                  string     `json:"currency"`
	MembersOnly               bool       `json:"-"`
	UpdatedAt                 time.Time  `json:"updated_at"`

	// RawMembersOnly mirrors the optional wire field; nil means the server
	// did not send it and the fallback inference applies.
	RawMembersOnly *bool `json:"members_only"`
}

// Slot is one time-slot allocation ("panthi") of an event. Available is the
// remaining count; Capacity is nil when the server does not track a total.
type Slot struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Available   int64     `json:"available"`
	Capacity    *int64    `json:"capacity"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProgramCategory is one entry of a program's ordered category set.
type ProgramCategory struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
}

// PracticeLocation is an optional practice venue attached to a program.
type PracticeLocation struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Program is a registrable sub-program of an event. Programs are replaced
// wholesale on each sync; there is no per-program delta.
type Program struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	TimeLabel          *string            `json:"time_label"`
	Rules              *string            `json:"rules"`
	RegistrationStatus *string            `json:"registration_status"`
	Categories         []ProgramCategory  `json:"categories"`
	PracticeLocations  []PracticeLocation `json:"practice_locations"`
	FeeCents           int64              `json:"fee_cents"`
	MemberFeeCents     *int64             `json:"member_fee_cents"`
	PenaltyCents       *int64             `json:"penalty_cents"`
	Currency           string             `json:"currency"`
	RegistrationType   string             `json:"registration_type"`
	TeamSizeMin        *int               `json:"team_size_min"`
	TeamSizeMax        *int               `json:"team_size_max"`
	ShowGuruField      bool               `json:"show_guru_field"`
	ShowGroupNameField bool               `json:"show_group_name_field"`
	ShowAgeField       bool               `json:"show_age_field"`
}
