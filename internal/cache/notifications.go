package cache

import "time"

// Notification is an incoming transfer the user has not necessarily seen.
type Notification struct {
	ID        int
	TxKey     string
	FromUser  string
	Amount    float64
	Currency  string
	CreatedAt time.Time
	Read      bool
}

// IsTransactionSeen reports whether the monitor already processed txKey.
func (d *DB) IsTransactionSeen(owner, txKey string) bool {
	var n int
	d.db.QueryRow(`SELECT COUNT(*) FROM seen_transactions WHERE owner = ? AND tx_key = ?`, owner, txKey).Scan(&n)
	return n > 0
}

// MarkTransactionSeen records txKey as processed.
func (d *DB) MarkTransactionSeen(owner, txKey string) error {
	_, err := d.db.Exec(`INSERT OR IGNORE INTO seen_transactions (owner, tx_key, seen_at) VALUES (?, ?, ?)`,
		owner, txKey, time.Now().Unix())
	return err
}

// SeenTransactionCount returns how many transactions were processed for owner.
func (d *DB) SeenTransactionCount(owner string) int {
	var n int
	d.db.QueryRow(`SELECT COUNT(*) FROM seen_transactions WHERE owner = ?`, owner).Scan(&n)
	return n
}

// AddNotification inserts a new notification. Duplicates are ignored.
func (d *DB) AddNotification(owner string, n Notification) error {
	_, err := d.db.Exec(`INSERT OR IGNORE INTO notifications
		(owner, tx_key, from_user, amount, currency, created_at, read)
		VALUES (?, ?, ?, ?, ?, ?, 0)`,
		owner, n.TxKey, n.FromUser, n.Amount, n.Currency, n.CreatedAt.Unix())
	return err
}

// UnreadNotificationCount returns the count of unread notifications.
func (d *DB) UnreadNotificationCount(owner string) int {
	var count int
	d.db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE owner = ? AND read = 0`, owner).Scan(&count)
	return count
}

// Notifications returns the newest notifications for owner.
func (d *DB) Notifications(owner string, limit int) ([]Notification, error) {
	rows, err := d.db.Query(`SELECT id, tx_key, from_user, amount, currency, created_at, read
		FROM notifications WHERE owner = ? ORDER BY created_at DESC, id DESC LIMIT ?`, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		var n Notification
		var createdAt int64
		var readInt int
		if err := rows.Scan(&n.ID, &n.TxKey, &n.FromUser, &n.Amount, &n.Currency, &createdAt, &readInt); err != nil {
			continue
		}
		n.CreatedAt = time.Unix(createdAt, 0)
		n.Read = readInt != 0
		result = append(result, n)
	}
	return result, rows.Err()
}

// MarkNotificationRead flags a single notification as read.
func (d *DB) MarkNotificationRead(id int) error {
	_, err := d.db.Exec(`UPDATE notifications SET read = 1 WHERE id = ?`, id)
	return err
}
