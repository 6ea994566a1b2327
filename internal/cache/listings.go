package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Listing kinds cached per user.
const (
	KindBalances      = "balances"
	KindWallets       = "wallets"
	KindBeneficiaries = "beneficiaries"
	KindTransactions  = "transactions"
)

// GetListing decodes the cached payload for (owner, kind) into dst.
// Returns (found, isFresh, error). isFresh reports whether the payload is
// within ttl.
func (d *DB) GetListing(owner, kind string, ttl time.Duration, dst any) (bool, bool, error) {
	row := d.db.QueryRow(`SELECT payload, fetched_at FROM listings WHERE owner = ? AND kind = ?`, owner, kind)

	var payload string
	var fetchedAt int64
	err := row.Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return false, false, err
	}

	isFresh := time.Since(time.Unix(fetchedAt, 0)) < ttl
	return true, isFresh, nil
}

// PutListing stores v as the payload for (owner, kind).
func (d *DB) PutListing(owner, kind string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(`INSERT OR REPLACE INTO listings (owner, kind, payload, fetched_at) VALUES (?, ?, ?, ?)`,
		owner, kind, string(payload), time.Now().Unix())
	return err
}

// InvalidateListing drops the cached payload so the next read goes to the API.
func (d *DB) InvalidateListing(owner, kind string) error {
	_, err := d.db.Exec(`DELETE FROM listings WHERE owner = ? AND kind = ?`, owner, kind)
	return err
}

// ClearListings drops every cached payload for owner.
func (d *DB) ClearListings(owner string) error {
	_, err := d.db.Exec(`DELETE FROM listings WHERE owner = ?`, owner)
	return err
}
