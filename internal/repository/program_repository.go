package repository

import (
	"context"
	"database/sql"

	"github.com/samajapp/catalog-sync/internal/catalog"
	"github.com/samajapp/catalog-sync/internal/model"
)

// ProgramRepo manages persistence for per-event sub-programs and their
// category and practice-location children. Programs follow the replace-all
// policy: ReplaceTx deletes everything for the event and inserts the fetched
// list fresh, all inside the caller's transaction so a concurrent reader
// never observes the transient empty state.
type ProgramRepo struct {
	db *sql.DB
}

// NewProgramRepo constructs a ProgramRepo with the given DB handle.
func NewProgramRepo(db *sql.DB) *ProgramRepo {
	return &ProgramRepo{db: db}
}

// ListByEvent returns every cached program of one event with its ordered
// category set and practice locations populated. Programs are ordered by ID;
// children keep their server-side positions.
func (r *ProgramRepo) ListByEvent(ctx context.Context, eventID string) ([]model.Program, error) {
	const q = `SELECT event_id, id, name, time_label, rules, registration_status,
	                  fee_cents, member_fee_cents, penalty_cents, currency, registration_type,
	                  team_size_min, team_size_max, show_guru_field, show_group_name_field, show_age_field
	           FROM programs WHERE event_id = ? ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Program, 0)
	index := make(map[string]int)
	for rows.Next() {
		var p model.Program
		var timeLabel, rules, regStatus sql.NullString
		var memberFee, penalty sql.NullInt64
		var teamMin, teamMax sql.NullInt64
		if err := rows.Scan(
			&p.EventID, &p.ID, &p.Name, &timeLabel, &rules, &regStatus,
			&p.FeeCents, &memberFee, &penalty, &p.Currency, &p.RegistrationType,
			&teamMin, &teamMax, &p.ShowGuruField, &p.ShowGroupNameField, &p.ShowAgeField,
		); err != nil {
			return nil, err
		}
		if timeLabel.Valid {
			v := timeLabel.String
			p.TimeLabel = &v
		}
		if rules.Valid {
			v := rules.String
			p.Rules = &v
		}
		if regStatus.Valid {
			v := regStatus.String
			p.RegistrationStatus = &v
		}
		if memberFee.Valid {
			v := memberFee.Int64
			p.MemberFeeCents = &v
		}
		if penalty.Valid {
			v := penalty.Int64
			p.PenaltyCents = &v
		}
		if teamMin.Valid {
			v := int(teamMin.Int64)
			p.TeamSizeMin = &v
		}
		if teamMax.Valid {
			v := int(teamMax.Int64)
			p.TeamSizeMax = &v
		}
		p.Categories = []model.ProgramCategory{}
		index[p.ID] = len(result)
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	// Populate children for all programs of the event in two queries.
	const catQ = `SELECT program_id, position, name FROM program_categories
	              WHERE event_id = ? ORDER BY program_id, position`
	crows, err := r.db.QueryContext(ctx, catQ, eventID)
	if err != nil {
		return nil, err
	}
	defer crows.Close()
	for crows.Next() {
		var programID string
		var cat model.ProgramCategory
		if err := crows.Scan(&programID, &cat.Position, &cat.Name); err != nil {
			return nil, err
		}
		if idx, ok := index[programID]; ok {
			result[idx].Categories = append(result[idx].Categories, cat)
		}
	}
	if err := crows.Err(); err != nil {
		return nil, err
	}

	const locQ = `SELECT program_id, name, address FROM practice_locations
	              WHERE event_id = ? ORDER BY program_id, position`
	lrows, err := r.db.QueryContext(ctx, locQ, eventID)
	if err != nil {
		return nil, err
	}
	defer lrows.Close()
	for lrows.Next() {
		var programID string
		var loc model.PracticeLocation
		if err := lrows.Scan(&programID, &loc.Name, &loc.Address); err != nil {
			return nil, err
		}
		if idx, ok := index[programID]; ok {
			result[idx].PracticeLocations = append(result[idx].PracticeLocations, loc)
		}
	}
	if err := lrows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ReplaceTx deletes every program row of the event (with children) and
// inserts the given list fresh, within the caller's transaction.
func (r *ProgramRepo) ReplaceTx(ctx context.Context, tx *sql.Tx, eventID string, items []catalog.Program) error {
	for _, q := range []string{
		`DELETE FROM program_categories WHERE event_id = ?`,
		`DELETE FROM practice_locations WHERE event_id = ?`,
		`DELETE FROM programs WHERE event_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, eventID); err != nil {
			return err
		}
	}
	for _, p := range items {
		if err := r.insertTx(ctx, tx, eventID, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProgramRepo) insertTx(ctx context.Context, tx *sql.Tx, eventID string, p catalog.Program) error {
	const q = `INSERT INTO programs (event_id, id, name, time_label, rules, registration_status,
	             fee_cents, member_fee_cents, penalty_cents, currency, registration_type,
	             team_size_min, team_size_max, show_guru_field, show_group_name_field, show_age_field)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q,
		eventID, p.ID, p.Name, p.TimeLabel, p.Rules, p.RegistrationStatus,
		p.FeeCents, p.MemberFeeCents, p.PenaltyCents, p.Currency, p.RegistrationType,
		p.TeamSizeMin, p.TeamSizeMax, p.ShowGuruField, p.ShowGroupNameField, p.ShowAgeField,
	); err != nil {
		return err
	}
	if len(p.Categories) > 0 {
		q := `INSERT INTO program_categories (event_id, program_id, position, name) VALUES `
		args := make([]interface{}, 0, len(p.Categories)*4)
		for i, cat := range p.Categories {
			if i > 0 {
				q += ","
			}
			q += "(?, ?, ?, ?)"
			args = append(args, eventID, p.ID, cat.Position, cat.Name)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	if len(p.PracticeLocations) > 0 {
		q := `INSERT INTO practice_locations (event_id, program_id, position, name, address) VALUES `
		args := make([]interface{}, 0, len(p.PracticeLocations)*5)
		for i, loc := range p.PracticeLocations {
			if i > 0 {
				q += ","
			}
			q += "(?, ?, ?, ?, ?)"
			args = append(args, eventID, p.ID, i, loc.Name, loc.Address)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}
