package monitor

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/fragmede/purse/internal/api"
	"github.com/fragmede/purse/internal/cache"
	"github.com/fragmede/purse/internal/format"
	"github.com/fragmede/purse/internal/ui/messages"
)

// Source fetches the user's transactions.
type Source interface {
	GetTransactions(ctx context.Context, page, pageSize int) (*api.TransactionPage, error)
}

// Store records which transactions were processed and the notifications
// raised for them. *cache.DB satisfies it.
type Store interface {
	IsTransactionSeen(owner, txKey string) bool
	MarkTransactionSeen(owner, txKey string) error
	SeenTransactionCount(owner string) int
	AddNotification(owner string, n cache.Notification) error
	UnreadNotificationCount(owner string) int
}

// Sender delivers messages to the running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Monitor polls for incoming transfers and raises a notification for each
// one not seen before.
type Monitor struct {
	source   Source
	store    Store
	interval time.Duration
	pageSize int
	log      *zap.Logger

	mu      sync.Mutex
	sender  Sender
	stopCh  chan struct{}
	running bool
	polled  map[string]bool
}

// New creates a new background monitor.
func New(source Source, store Store, interval time.Duration, pageSize int, log *zap.Logger) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Monitor{
		source:   source,
		store:    store,
		interval: interval,
		pageSize: pageSize,
		log:      log,
		polled:   map[string]bool{},
	}
}

// Start begins polling on behalf of username. A running monitor is
// restarted for the new user.
func (m *Monitor) Start(sender Sender, username string) {
	m.Stop()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sender = sender
	m.stopCh = make(chan struct{})
	m.running = true
	go m.loop(m.stopCh, username)
	m.log.Info("transfer monitor started", zap.String("username", username), zap.Duration("interval", m.interval))
}

// Stop halts the background polling. It is safe to call more than once.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	close(m.stopCh)
	m.running = false
}

func (m *Monitor) loop(stopCh chan struct{}, username string) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stopCh
		cancel()
	}()

	m.Poll(ctx, username)
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			m.Poll(ctx, username)
		}
	}
}

// Poll checks the newest page of transactions once and returns how many new
// notifications were raised. The first poll for a user with no history only
// records what is already there.
func (m *Monitor) Poll(ctx context.Context, username string) int {
	page, err := m.source.GetTransactions(ctx, 1, m.pageSize)
	if err != nil {
		m.log.Debug("transfer poll failed", zap.Error(err))
		return 0
	}

	m.mu.Lock()
	seeding := !m.polled[username] && m.store.SeenTransactionCount(username) == 0
	m.polled[username] = true
	m.mu.Unlock()

	added := 0
	for _, tx := range page.Transactions {
		key := tx.Key()
		if m.store.IsTransactionSeen(username, key) {
			continue
		}
		if err := m.store.MarkTransactionSeen(username, key); err != nil {
			m.log.Warn("marking transaction seen", zap.Error(err))
			continue
		}
		if seeding || !incoming(tx, username) {
			continue
		}

		created, ok := format.ParseTime(tx.CreatedAt)
		if !ok {
			created = time.Now()
		}
		n := cache.Notification{
			TxKey:     key,
			FromUser:  tx.SenderUsername,
			Amount:    tx.DestinationAmount,
			Currency:  tx.DestinationCurrency,
			CreatedAt: created,
		}
		if n.Amount == 0 {
			n.Amount, n.Currency = tx.SourceAmount, tx.SourceCurrency
		}
		if err := m.store.AddNotification(username, n); err != nil {
			m.log.Warn("adding notification", zap.Error(err))
			continue
		}
		added++
	}

	if added > 0 {
		m.log.Info("incoming transfers", zap.Int("count", added))
		m.mu.Lock()
		sender := m.sender
		m.mu.Unlock()
		if sender != nil {
			sender.Send(messages.NewNotificationMsg{UnreadCount: m.store.UnreadNotificationCount(username)})
		}
	}
	return added
}

func incoming(tx api.Transaction, username string) bool {
	return tx.BeneficiaryUsername == username && tx.SenderUsername != username
}
