package balanceview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/fragmede/purse/internal/api"
	"github.com/fragmede/purse/internal/format"
	"github.com/fragmede/purse/internal/ui/messages"
)

var (
	amountStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Padding(0, 1)
	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282")).Padding(0, 1)
	creditStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CC66"))
	debitStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
	typeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E8B57")).Bold(true).Width(12)
	selStyle      = lipgloss.NewStyle().Background(lipgloss.Color("#333333"))
	errorMsgStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
)

// Source loads a balance and its history.
type Source interface {
	GetBalance(ctx context.Context, id int) (*api.Balance, error)
	GetBalanceHistory(ctx context.Context, id int) ([]api.BalanceHistory, error)
}

// Model is the balance detail view: the current amount and its history.
type Model struct {
	viewport viewport.Model
	id       int
	balance  *api.Balance
	history  []api.BalanceHistory
	cursor   int
	source   Source
	err      error
	loading  bool
	width    int
	height   int
}

func New(id int, source Source) Model {
	vp := viewport.New(0, 0)
	vp.SetContent("  Loading...")
	return Model{
		viewport: vp,
		id:       id,
		source:   source,
		loading:  true,
	}
}

// Init loads the balance and its history concurrently.
func (m Model) Init() tea.Cmd {
	id, source := m.id, m.source
	return func() tea.Msg {
		var (
			bal     *api.Balance
			history []api.BalanceHistory
		)
		g, ctx := errgroup.WithContext(context.Background())
		g.Go(func() error {
			var err error
			bal, err = source.GetBalance(ctx, id)
			return err
		})
		g.Go(func() error {
			var err error
			history, err = source.GetBalanceHistory(ctx, id)
			if errors.Is(err, api.ErrNotFound) {
				return nil
			}
			return err
		})
		err := g.Wait()
		return messages.BalanceLoadedMsg{BalanceID: id, Balance: bal, History: history, Err: err}
	}
}

func (m Model) ID() int               { return m.id }
func (m Model) Balance() *api.Balance { return m.balance }
func (m Model) Loading() bool         { return m.loading }

// SetSize updates viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.viewport.Height = h - lipgloss.Height(m.renderHeader())
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
	m.rebuildContent()
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.BalanceLoadedMsg:
		if msg.BalanceID != m.id {
			return m, nil
		}
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			m.balance = msg.Balance
			m.history = msg.History
		}
		if m.cursor >= len(m.history) {
			m.cursor = 0
		}
		m.SetSize(m.width, m.height)
		return m, nil

	case messages.FormResultMsg:
		if msg.Err == nil {
			m.loading = true
			return m, m.Init()
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.history)-1 {
				m.cursor++
				m.rebuildContent()
				m.scrollToCursor()
			}
			return m, nil
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
				m.rebuildContent()
				m.scrollToCursor()
			}
			return m, nil
		case "g", "home":
			m.cursor = 0
			m.rebuildContent()
			m.viewport.GotoTop()
			return m, nil
		case "G", "end":
			if len(m.history) > 0 {
				m.cursor = len(m.history) - 1
				m.rebuildContent()
				m.viewport.GotoBottom()
			}
			return m, nil
		case "r", "ctrl+r":
			m.loading = true
			m.viewport.SetContent("  Refreshing...")
			return m, m.Init()
		case "d", "w", "x":
			if m.balance == nil {
				return m, nil
			}
			form := map[string]string{"d": "deposit", "w": "withdraw", "x": "exchange"}[msg.String()]
			params := map[string]string{"currency": m.balance.Currency}
			return m, func() tea.Msg { return messages.OpenFormMsg{Form: form, Params: params} }
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.viewport.View())
}

func (m Model) renderHeader() string {
	if m.balance == nil {
		return metaStyle.Render(fmt.Sprintf("Balance #%d", m.id))
	}
	b := m.balance
	meta := format.CurrencyName(b.Currency)
	if b.CreatedAt != "" {
		meta += " | opened " + format.Date(b.CreatedAt)
	}
	if b.UpdatedAt != "" {
		meta += " | updated " + format.TimeAgo(b.UpdatedAt)
	}
	return amountStyle.Render(format.Money(b.Balance, b.Currency)) + "\n" +
		metaStyle.Render(meta) + "\n" +
		metaStyle.Render("d deposit · w withdraw · x exchange · r refresh") + "\n"
}

func (m *Model) rebuildContent() {
	switch {
	case m.err != nil:
		m.viewport.SetContent(errorMsgStyle.Render("  Error: " + describe(m.err)))
		return
	case m.loading:
		m.viewport.SetContent("  Loading...")
		return
	case len(m.history) == 0:
		m.viewport.SetContent("  No activity yet.")
		return
	}

	var sb strings.Builder
	for i, h := range m.history {
		amount := format.SignedMoney(abs(h.Amount), h.Currency, credit(h))
		if credit(h) {
			amount = creditStyle.Render(amount)
		} else {
			amount = debitStyle.Render(amount)
		}
		line := fmt.Sprintf("  %s %s  %s", typeStyle.Render(h.Type), amount, format.Date(h.CreatedAt))
		if i == m.cursor {
			line = selStyle.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	m.viewport.SetContent(sb.String())
}

func (m *Model) scrollToCursor() {
	if m.cursor < m.viewport.YOffset {
		m.viewport.SetYOffset(m.cursor)
	}
	if m.cursor >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(m.cursor - m.viewport.Height + 1)
	}
}

// credit reports whether the entry added funds. Withdrawals are debits, as
// are negative amounts of any type.
func credit(h api.BalanceHistory) bool {
	if h.Amount < 0 {
		return false
	}
	return !strings.EqualFold(h.Type, "withdraw")
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func describe(err error) string {
	if msg := api.Message(err); msg != "" {
		return msg
	}
	return err.Error()
}
