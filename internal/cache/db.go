package cache

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database that backs the session, cached API listings
// and transfer notifications.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database and runs migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS session (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS listings (
			owner TEXT NOT NULL,
			kind TEXT NOT NULL,
			payload TEXT NOT NULL,
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (owner, kind)
		)`,

		`CREATE TABLE IF NOT EXISTS seen_transactions (
			owner TEXT NOT NULL,
			tx_key TEXT NOT NULL,
			seen_at INTEGER NOT NULL,
			PRIMARY KEY (owner, tx_key)
		)`,

		`CREATE TABLE IF NOT EXISTS notifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner TEXT NOT NULL,
			tx_key TEXT NOT NULL,
			from_user TEXT,
			amount REAL NOT NULL,
			currency TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			read INTEGER DEFAULT 0,
			UNIQUE (owner, tx_key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(owner, read)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
