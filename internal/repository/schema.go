package repository

import (
	"context"
	"database/sql"
)

// CreateTables creates the cache schema when it does not exist yet. The
// service owns this database outright (it is a cache, not a system of
// record), so in-code bootstrap is preferred over external migrations: a
// wiped database heals on the next full sync.
func CreateTables(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id                   VARCHAR(64)  NOT NULL,
			title                VARCHAR(255) NOT NULL,
			description          TEXT         NOT NULL,
			description_html     MEDIUMTEXT   NOT NULL,
			location             VARCHAR(255) NOT NULL,
			category_name        VARCHAR(128) NOT NULL,
			category_id          BIGINT       NOT NULL,
			image_url            VARCHAR(512) NOT NULL,
			registration_enabled TINYINT(1)   NOT NULL DEFAULT 0,
			ticketing_enabled    TINYINT(1)   NOT NULL DEFAULT 0,
			event_date           DATETIME     NULL,
			time_label           VARCHAR(128) NOT NULL DEFAULT '',
			info_link            VARCHAR(512) NOT NULL DEFAULT '',
			uses_slots           TINYINT(1)   NOT NULL DEFAULT 0,
			parent_event_id      VARCHAR(64)  NULL,
			updated_at           DATETIME     NOT NULL,
			PRIMARY KEY (id),
			KEY idx_events_date (event_date)
		)`,
		`CREATE TABLE IF NOT EXISTS ticket_types (
			event_id                      VARCHAR(64)  NOT NULL,
			id                            BIGINT       NOT NULL,
			name                          VARCHAR(255) NOT NULL,
			price_cents                   BIGINT       NOT NULL,
			member_price_cents            BIGINT       NULL,
			early_bird_price_cents        BIGINT       NULL,
			early_bird_member_price_cents BIGINT       NULL,
			early_bird_ends_at            DATETIME     NULL,
			currency                      VARCHAR(8)   NOT NULL,
			members_only                  TINYINT(1)   NOT NULL DEFAULT 0,
			updated_at                    DATETIME     NOT NULL,
			PRIMARY KEY (event_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS slots (
			event_id    VARCHAR(64)  NOT NULL,
			id          BIGINT       NOT NULL,
			name        VARCHAR(255) NOT NULL,
			description TEXT         NULL,
			available   BIGINT       NOT NULL,
			capacity    BIGINT       NULL,
			updated_at  DATETIME     NOT NULL,
			PRIMARY KEY (event_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS programs (
			event_id              VARCHAR(64)  NOT NULL,
			id                    VARCHAR(64)  NOT NULL,
			name                  VARCHAR(255) NOT NULL,
			time_label            VARCHAR(128) NULL,
			rules                 TEXT         NULL,
			registration_status   VARCHAR(64)  NULL,
			fee_cents             BIGINT       NOT NULL DEFAULT 0,
			member_fee_cents      BIGINT       NULL,
			penalty_cents         BIGINT       NULL,
			currency              VARCHAR(8)   NOT NULL DEFAULT '',
			registration_type     VARCHAR(32)  NOT NULL DEFAULT '',
			team_size_min         INT          NULL,
			team_size_max         INT          NULL,
			show_guru_field       TINYINT(1)   NOT NULL DEFAULT 0,
			show_group_name_field TINYINT(1)   NOT NULL DEFAULT 0,
			show_age_field        TINYINT(1)   NOT NULL DEFAULT 0,
			PRIMARY KEY (event_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS program_categories (
			event_id   VARCHAR(64)  NOT NULL,
			program_id VARCHAR(64)  NOT NULL,
			position   INT          NOT NULL,
			name       VARCHAR(255) NOT NULL,
			PRIMARY KEY (event_id, program_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS practice_locations (
			event_id   VARCHAR(64)  NOT NULL,
			program_id VARCHAR(64)  NOT NULL,
			position   INT          NOT NULL,
			name       VARCHAR(255) NOT NULL,
			address    VARCHAR(512) NOT NULL DEFAULT '',
			PRIMARY KEY (event_id, program_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS sync_state (
			family    VARCHAR(128) NOT NULL,
			synced_at DATETIME     NOT NULL,
			PRIMARY KEY (family)
		)`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
