// Package testutil provides an in-memory SQLite database carrying the
// production schema, plus seed helpers for package tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/iliyamo/theatre-reservation/internal/database"
	"github.com/iliyamo/theatre-reservation/internal/model"
)

var dbSeq atomic.Int64

// NewDB opens a fresh in-memory database migrated with the SQLite dialect.
// It is limited to one connection, so a transaction must issue all of its
// statements through the *sql.Tx while it is open.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db, database.SQLite))
	return db
}

// SeedUser inserts a user with the given email and role.  The password
// hash is a placeholder; use the auth service to create users that log in.
func SeedUser(t *testing.T, db *sql.DB, email, role string) uint64 {
	t.Helper()
	res, err := db.Exec("INSERT INTO users (email, password_hash, role, created_at) VALUES (?, ?, ?, ?)",
		email, "x", role, time.Now().UTC().Truncate(time.Second))
	require.NoError(t, err)
	return lastID(t, res)
}

// SeedHall inserts a theatre hall with a rows x seats grid.
func SeedHall(t *testing.T, db *sql.DB, name string, rows, seats int) model.TheatreHall {
	t.Helper()
	res, err := db.Exec("INSERT INTO theatre_halls (name, total_rows, seats_in_row) VALUES (?, ?, ?)", name, rows, seats)
	require.NoError(t, err)
	return model.TheatreHall{ID: lastID(t, res), Name: name, Rows: rows, SeatsInRow: seats}
}

// SeedPlay inserts a play without genres or actors.
func SeedPlay(t *testing.T, db *sql.DB, title string) uint64 {
	t.Helper()
	res, err := db.Exec("INSERT INTO plays (title) VALUES (?)", title)
	require.NoError(t, err)
	return lastID(t, res)
}

// SeedPerformance inserts a performance of play in hall at showTime.
func SeedPerformance(t *testing.T, db *sql.DB, playID, hallID uint64, showTime time.Time) uint64 {
	t.Helper()
	res, err := db.Exec("INSERT INTO performances (play_id, theatre_hall_id, show_time) VALUES (?, ?, ?)",
		playID, hallID, showTime.UTC().Truncate(time.Second))
	require.NoError(t, err)
	return lastID(t, res)
}

// SeedTickets issues one reservation for userID holding the given seats of
// a performance.
func SeedTickets(t *testing.T, db *sql.DB, userID, performanceID uint64, seats ...model.SeatPosition) uint64 {
	t.Helper()
	res, err := db.Exec("INSERT INTO reservations (user_id, created_at) VALUES (?, ?)", userID, time.Now().UTC().Truncate(time.Second))
	require.NoError(t, err)
	resID := lastID(t, res)
	for _, s := range seats {
		_, err := db.Exec("INSERT INTO tickets (seat_row, seat_number, performance_id, reservation_id) VALUES (?, ?, ?, ?)",
			s.Row, s.Seat, performanceID, resID)
		require.NoError(t, err)
	}
	return resID
}

// Count returns SELECT COUNT(*) FROM table.
func Count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func lastID(t *testing.T, res sql.Result) uint64 {
	t.Helper()
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return uint64(id)
}
