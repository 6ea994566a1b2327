package monitor

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/purse/internal/api"
	"github.com/fragmede/purse/internal/cache"
	"github.com/fragmede/purse/internal/ui/messages"
)

type fakeSource struct {
	mu  sync.Mutex
	txs []api.Transaction
	err error
}

func (f *fakeSource) GetTransactions(ctx context.Context, page, pageSize int) (*api.TransactionPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &api.TransactionPage{Transactions: append([]api.Transaction(nil), f.txs...)}, nil
}

func (f *fakeSource) add(tx api.Transaction) {
	f.mu.Lock()
	f.txs = append([]api.Transaction{tx}, f.txs...)
	f.mu.Unlock()
}

type recorder struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recorder) Send(msg tea.Msg) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func openDB(t *testing.T) *cache.DB {
	t.Helper()
	db, err := cache.Open(filepath.Join(t.TempDir(), "purse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func transfer(from, to string, amount float64, at string) api.Transaction {
	return api.Transaction{
		SenderUsername:      from,
		BeneficiaryUsername: to,
		SourceAmount:        amount,
		SourceCurrency:      "SGD",
		DestinationAmount:   amount,
		DestinationCurrency: "SGD",
		CreatedAt:           at,
	}
}

func TestPollSeedsThenNotifiesIncoming(t *testing.T) {
	db := openDB(t)
	src := &fakeSource{txs: []api.Transaction{
		transfer("bob", "alice", 10, "2024-01-01T10:00:00Z"),
		transfer("alice", "bob", 5, "2024-01-01T09:00:00Z"),
	}}
	rec := &recorder{}
	m := New(src, db, time.Hour, 10, nil)
	m.sender = rec
	ctx := context.Background()

	assert.Equal(t, 0, m.Poll(ctx, "alice"), "history present at first poll is not announced")
	assert.Equal(t, 2, db.SeenTransactionCount("alice"))

	src.add(transfer("carol", "alice", 25, "2024-01-02T10:00:00Z"))
	src.add(transfer("alice", "carol", 7, "2024-01-02T11:00:00Z"))
	assert.Equal(t, 1, m.Poll(ctx, "alice"))
	assert.Equal(t, 0, m.Poll(ctx, "alice"), "already seen")

	notes, err := db.Notifications("alice", 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "carol", notes[0].FromUser)
	assert.Equal(t, 25.0, notes[0].Amount)
	assert.Equal(t, 2024, notes[0].CreatedAt.Year())

	require.Equal(t, 1, rec.count())
	assert.Equal(t, messages.NewNotificationMsg{UnreadCount: 1}, rec.msgs[0])
}

func TestPollWithEmptyHistoryStillNotifiesLater(t *testing.T) {
	db := openDB(t)
	src := &fakeSource{}
	m := New(src, db, time.Hour, 10, nil)
	ctx := context.Background()

	assert.Equal(t, 0, m.Poll(ctx, "alice"))
	src.add(transfer("bob", "alice", 3, "2024-01-01T10:00:00Z"))
	assert.Equal(t, 1, m.Poll(ctx, "alice"))
}

func TestPollIgnoresErrors(t *testing.T) {
	db := openDB(t)
	m := New(&fakeSource{err: errors.New("offline")}, db, time.Hour, 10, nil)
	assert.Equal(t, 0, m.Poll(context.Background(), "alice"))
}

func TestStartStop(t *testing.T) {
	db := openDB(t)
	src := &fakeSource{txs: []api.Transaction{transfer("bob", "alice", 9, "2024-01-01T09:00:00Z")}}
	m := New(src, db, 10*time.Millisecond, 10, nil)
	rec := &recorder{}

	m.Start(rec, "alice")
	require.Eventually(t, func() bool { return db.SeenTransactionCount("alice") == 1 }, 2*time.Second, 10*time.Millisecond)
	src.add(transfer("bob", "alice", 1, "2024-01-01T10:00:00Z"))
	require.Eventually(t, func() bool { return rec.count() > 0 }, 2*time.Second, 10*time.Millisecond)

	m.Stop()
	m.Stop()
}
