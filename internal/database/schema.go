package database

import (
	"context"
	"database/sql"
)

// schema creates the four tables of the reservation store.  Foreign keys
// use ON DELETE RESTRICT so a parent with dependents can never be removed
// silently, and uq_reservation_user_showing backs the one reservation per
// user and showing rule.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS venues (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name       VARCHAR(100)    NOT NULL,
		location   VARCHAR(150)    NOT NULL DEFAULT '',
		capacity   INT             NOT NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT chk_venue_capacity CHECK (capacity > 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS events (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		venue_id   BIGINT UNSIGNED NOT NULL,
		name       VARCHAR(100)    NOT NULL,
		image      VARCHAR(255)    NOT NULL DEFAULT '',
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_event_venue FOREIGN KEY (venue_id) REFERENCES venues (id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS showings (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		event_id   BIGINT UNSIGNED NOT NULL,
		start_time DATETIME        NOT NULL,
		cancelled  BOOLEAN         NOT NULL DEFAULT FALSE,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_showing_event_start (event_id, start_time),
		CONSTRAINT fk_showing_event FOREIGN KEY (event_id) REFERENCES events (id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		showing_id BIGINT UNSIGNED NOT NULL,
		quantity   INT             NOT NULL,
		created_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_reservation_user_showing (user_id, showing_id),
		KEY idx_reservation_showing (showing_id),
		CONSTRAINT chk_reservation_quantity CHECK (quantity >= 1),
		CONSTRAINT fk_reservation_showing FOREIGN KEY (showing_id) REFERENCES showings (id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing table.  It is idempotent and safe to run on
// every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
