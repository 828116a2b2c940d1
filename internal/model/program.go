package model

// Program is one cached registrable sub-program of an event. Programs are
// replaced wholesale per event on each sync, so there is no per-row
// last-modified timestamp to preserve.
type Program struct {
	EventID            string             `json:"event_id"`
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	TimeLabel          *string            `json:"time_label,omitempty"`
	Rules              *string            `json:"rules,omitempty"`
	RegistrationStatus *string            `json:"registration_status,omitempty"`
	Categories         []ProgramCategory  `json:"categories"`
	PracticeLocations  []PracticeLocation `json:"practice_locations,omitempty"`
	FeeCents           int64              `json:"fee_cents"`
	MemberFeeCents     *int64             `json:"member_fee_cents,omitempty"`
	PenaltyCents       *int64             `json:"penalty_cents,omitempty"`
	Currency           string             `json:"currency"`
	RegistrationType   string             `json:"registration_type"`
	TeamSizeMin        *int               `json:"team_size_min,omitempty"`
	TeamSizeMax        *int               `json:"team_size_max,omitempty"`
	ShowGuruField      bool               `json:"show_guru_field"`
	ShowGroupNameField bool               `json:"show_group_name_field"`
	ShowAgeField       bool               `json:"show_age_field"`
}

// ProgramCategory is one entry of a program's ordered category set. Position
// preserves the server-side ordering.
type ProgramCategory struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
}

// PracticeLocation is an optional practice venue attached to a program.
type PracticeLocation struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}
