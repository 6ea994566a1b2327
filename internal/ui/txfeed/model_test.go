package txfeed

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/purse/internal/api"
	"github.com/fragmede/purse/internal/ui/messages"
)

type pagedSource struct {
	pages map[int][]api.Transaction
	calls []int
}

func (s *pagedSource) GetTransactions(_ context.Context, page, pageSize int) (*api.TransactionPage, error) {
	s.calls = append(s.calls, page)
	txs, ok := s.pages[page]
	if !ok {
		return nil, &api.StatusError{Status: 404, Message: "No transactions found."}
	}
	return &api.TransactionPage{
		Transactions: txs,
		Page: api.Page{
			Page: page, PageSize: pageSize, TotalPages: len(s.pages),
			HasNextPage: page < len(s.pages), HasPreviousPage: page > 1,
		},
	}, nil
}

func apply(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	return m
}

func loadPage(t *testing.T, m Model, n int) Model {
	t.Helper()
	m, cmd := m.Load(n)
	return apply(t, m, cmd)
}

func newFeed(src *pagedSource) Model {
	m := New(src, 2)
	m.SetSize(80, 20)
	m.SetUser("alice")
	return m
}

func TestPaging(t *testing.T) {
	src := &pagedSource{pages: map[int][]api.Transaction{
		1: {
			{SenderUsername: "alice", BeneficiaryUsername: "bob", SourceAmount: 5, SourceCurrency: "SGD"},
			{SenderUsername: "carol", BeneficiaryUsername: "alice", DestinationAmount: 7, DestinationCurrency: "USD"},
		},
		2: {{SenderUsername: "alice", BeneficiaryUsername: "dan", SourceAmount: 1, SourceCurrency: "SGD"}},
	}}
	m := newFeed(src)

	m = loadPage(t, m, 1)
	assert.Len(t, m.Transactions(), 2)
	view := m.View()
	assert.Contains(t, view, "page 1 of 2")
	assert.Contains(t, view, "bob")
	assert.Contains(t, view, "carol")
	assert.Contains(t, view, "+7.00 USD")
	assert.Contains(t, view, "-5.00 SGD")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("]")})
	m = apply(t, m, cmd)
	assert.Equal(t, 2, m.PageNum())
	assert.Len(t, m.Transactions(), 1)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("]")})
	assert.Nil(t, cmd, "no page after the last")

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("[")})
	m = apply(t, m, cmd)
	assert.Equal(t, 1, m.PageNum())
	assert.Equal(t, []int{1, 2, 1}, src.calls)
}

func TestNotFoundIsEmpty(t *testing.T) {
	m := newFeed(&pagedSource{})

	m = loadPage(t, m, 1)
	assert.Empty(t, m.Transactions())
	assert.Contains(t, m.View(), "No transactions yet.")
}

func TestStalePageIgnored(t *testing.T) {
	m := newFeed(&pagedSource{})
	m, _ = m.Load(3)

	m, _ = m.Update(messages.TransactionsLoadedMsg{Page: &api.TransactionPage{
		Transactions: []api.Transaction{{SenderUsername: "x"}},
		Page:         api.Page{Page: 1},
	}})
	assert.Empty(t, m.Transactions())
}

func TestCursorMoves(t *testing.T) {
	src := &pagedSource{pages: map[int][]api.Transaction{
		1: {{SenderUsername: "alice"}, {SenderUsername: "alice"}},
	}}
	m := loadPage(t, newFeed(src), 1)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Equal(t, 1, m.Cursor())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	assert.Equal(t, 1, m.Cursor())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")})
	assert.Equal(t, 0, m.Cursor())
}
