package model

import "time"

// TicketType is one cached ticket class. IDs are unique within the owning
// event only; the pair (EventID, ID) is the global key. Prices are integer
// cents in Currency. MembersOnly is a stored, typed flag; exclusivity is
// never derived from the price fields at read time.
type TicketType struct {
	EventID                   string     `json:"event_id"`
	ID                        int64      `json:"id"`
	Name                      string     `json:"name"`
	PriceCents                int64      `json:"price_cents"`
	MemberPriceCents          *int64     `json:"member_price_cents,omitempty"`
	EarlyBirdPriceCents       *int64     `json:"early_bird_price_cents,omitempty"`
	EarlyBirdMemberPriceCents *int64     `json:"early_bird_member_price_cents,omitempty"`
	EarlyBirdEndsAt           *time.Time `json:"early_bird_ends_at,omitempty"`
	Currency                  string     `json:"currency"`
	MembersOnly               bool       `json:"members_only"`
	UpdatedAt                 time.Time  `json:"updated_at"`
}

// Slot is one cached time-slot allocation ("panthi") of an event.
type Slot struct {
	EventID     string    `json:"event_id"`
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Available   int64     `json:"available"`
	Capacity    *int64    `json:"capacity,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
