package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Dialect selects the small set of DDL differences between the production
// MySQL schema and the SQLite schema used by tests.
type Dialect int

const (
	MySQL Dialect = iota
	SQLite
)

func (d Dialect) primaryKey() string {
	if d == SQLite {
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return "BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY"
}

// schema lists the tables in dependency order.  {{pk}} is replaced with the
// dialect's auto-increment primary key.  Row and seat columns are signed so
// that the available-tickets arithmetic can never underflow in MySQL.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id {{pk}},
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL,
		created_at DATETIME NOT NULL,
		CONSTRAINT uq_users_email UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id {{pk}},
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		CONSTRAINT uq_refresh_tokens_hash UNIQUE (token_hash),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS genres (
		id {{pk}},
		name VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS actors (
		id {{pk}},
		first_name VARCHAR(255) NOT NULL,
		last_name VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS plays (
		id {{pk}},
		title VARCHAR(255) NOT NULL,
		description TEXT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS play_genres (
		play_id BIGINT UNSIGNED NOT NULL,
		genre_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (play_id, genre_id),
		CONSTRAINT fk_play_genres_play FOREIGN KEY (play_id) REFERENCES plays (id) ON DELETE CASCADE,
		CONSTRAINT fk_play_genres_genre FOREIGN KEY (genre_id) REFERENCES genres (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS play_actors (
		play_id BIGINT UNSIGNED NOT NULL,
		actor_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (play_id, actor_id),
		CONSTRAINT fk_play_actors_play FOREIGN KEY (play_id) REFERENCES plays (id) ON DELETE CASCADE,
		CONSTRAINT fk_play_actors_actor FOREIGN KEY (actor_id) REFERENCES actors (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS theatre_halls (
		id {{pk}},
		name VARCHAR(255) NOT NULL,
		total_rows INT NOT NULL,
		seats_in_row INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS performances (
		id {{pk}},
		play_id BIGINT UNSIGNED NOT NULL,
		theatre_hall_id BIGINT UNSIGNED NOT NULL,
		show_time DATETIME NOT NULL,
		CONSTRAINT fk_performances_play FOREIGN KEY (play_id) REFERENCES plays (id) ON DELETE CASCADE,
		CONSTRAINT fk_performances_hall FOREIGN KEY (theatre_hall_id) REFERENCES theatre_halls (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id {{pk}},
		user_id BIGINT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL,
		CONSTRAINT fk_reservations_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	// uq_tickets_seat is what keeps two concurrent reservations from
	// claiming the same seat; the application never relies on a pre-check.
	`CREATE TABLE IF NOT EXISTS tickets (
		id {{pk}},
		seat_row INT NOT NULL,
		seat_number INT NOT NULL,
		performance_id BIGINT UNSIGNED NOT NULL,
		reservation_id BIGINT UNSIGNED NOT NULL,
		CONSTRAINT uq_tickets_seat UNIQUE (performance_id, seat_row, seat_number),
		CONSTRAINT fk_tickets_performance FOREIGN KEY (performance_id) REFERENCES performances (id) ON DELETE CASCADE,
		CONSTRAINT fk_tickets_reservation FOREIGN KEY (reservation_id) REFERENCES reservations (id) ON DELETE CASCADE
	)`,
}

// Migrate creates any missing tables.  It is idempotent.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	if d == SQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("enable foreign keys: %w", err)
		}
	}
	for _, stmt := range schema {
		q := strings.ReplaceAll(stmt, "{{pk}}", d.primaryKey())
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
