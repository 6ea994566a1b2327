package cache

import (
	"database/sql"
	"errors"
)

// KV is the durable key/value view over the session table.
type KV struct {
	db *sql.DB
}

// Session returns the key/value store used for the persisted session.
func (d *DB) Session() KV {
	return KV{db: d.db}
}

// Get returns the value for key and whether it was present.
func (kv KV) Get(key string) (string, bool, error) {
	var value string
	err := kv.db.QueryRow(`SELECT value FROM session WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set writes key, replacing any previous value.
func (kv KV) Set(key, value string) error {
	_, err := kv.db.Exec(`INSERT OR REPLACE INTO session (key, value) VALUES (?, ?)`, key, value)
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (kv KV) Delete(key string) error {
	_, err := kv.db.Exec(`DELETE FROM session WHERE key = ?`, key)
	return err
}
