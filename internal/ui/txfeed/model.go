package txfeed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/purse/internal/api"
	"github.com/fragmede/purse/internal/format"
	"github.com/fragmede/purse/internal/ui/messages"
)

var (
	selectedBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E8B57"))
	normalBorderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	partyStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E8B57")).Bold(true)
	metaStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282"))
	creditStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CC66")).Bold(true)
	debitStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555")).Bold(true)
	headerStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E8B57")).Bold(true)
	errorMsgStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
)

// Source fetches pages of transactions.
type Source interface {
	GetTransactions(ctx context.Context, page, pageSize int) (*api.TransactionPage, error)
}

type itemOffset struct {
	startLine int
	endLine   int
}

// Model is a paged, viewport-based feed of transfers.
type Model struct {
	viewport viewport.Model
	txs      []api.Transaction
	offsets  []itemOffset
	cursor   int
	page     api.Page
	pageNum  int
	pageSize int
	source   Source
	username string
	err      error
	loading  bool
	width    int
	height   int
}

func New(source Source, pageSize int) Model {
	if pageSize <= 0 {
		pageSize = 20
	}
	return Model{
		viewport: viewport.New(0, 0),
		source:   source,
		pageSize: pageSize,
		pageNum:  1,
	}
}

// SetSize updates viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.viewport.Height = h - 2
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
	m.rebuildContent()
}

// SetUser sets whose point of view transfers are shown from.
func (m *Model) SetUser(username string) {
	m.username = username
}

func (m Model) PageNum() int                    { return m.pageNum }
func (m Model) Transactions() []api.Transaction { return m.txs }
func (m Model) Cursor() int                     { return m.cursor }

// Load fetches page n.
func (m Model) Load(n int) (Model, tea.Cmd) {
	if n < 1 {
		n = 1
	}
	m.pageNum = n
	m.loading = true
	m.viewport.SetContent("  Loading...")
	return m, m.fetch()
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.TransactionsLoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err != nil {
			m.rebuildContent()
			return m, nil
		}
		if msg.Page.Page.Page != 0 && msg.Page.Page.Page != m.pageNum {
			return m, nil
		}
		m.txs = msg.Page.Transactions
		m.page = msg.Page.Page
		m.cursor = 0
		m.rebuildContent()
		m.viewport.SetYOffset(0)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.txs)-1 {
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
		case "]", "pgdown":
			if m.page.HasNextPage && !m.loading {
				return m.Load(m.pageNum + 1)
			}
			return m, nil
		case "[", "pgup":
			if m.pageNum > 1 && !m.loading {
				return m.Load(m.pageNum - 1)
			}
			return m, nil
		case "r", "ctrl+r":
			return m.Load(m.pageNum)
		case "g", "home":
			m.cursor = 0
			m.rebuildContent()
			m.viewport.GotoTop()
			return m, nil
		case "G", "end":
			if len(m.txs) > 0 {
				m.cursor = len(m.txs) - 1
				m.rebuildContent()
				m.viewport.GotoBottom()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	title := "Transactions"
	if m.page.TotalPages > 0 {
		title += fmt.Sprintf(" (page %d of %d, %s total)", m.pageNum, m.page.TotalPages, format.Count(m.page.TotalRecords))
	}
	if m.loading {
		title += " (loading...)"
	}
	return headerStyle.Render(title) + "\n\n" + m.viewport.View()
}

func (m *Model) rebuildContent() {
	switch {
	case m.err != nil:
		m.offsets = nil
		m.viewport.SetContent(errorMsgStyle.Render("Error: " + describe(m.err)))
		return
	case m.loading:
		return
	case len(m.txs) == 0:
		m.offsets = nil
		m.viewport.SetContent("  No transactions yet.")
		return
	}

	var sb strings.Builder
	m.offsets = make([]itemOffset, len(m.txs))

	lineCount := 0
	for i, tx := range m.txs {
		start := lineCount
		border := normalBorderStyle.Render("▎")
		if i == m.cursor {
			border = selectedBorderStyle.Render("▎")
		}
		prefix := border + " "

		sb.WriteString(prefix + m.buildMeta(tx) + "\n")
		sb.WriteString(prefix + m.buildAmount(tx) + "\n")
		sb.WriteString("\n")
		lineCount += 3

		m.offsets[i] = itemOffset{startLine: start, endLine: lineCount - 1}
	}

	m.viewport.SetContent(sb.String())
}

func (m *Model) buildMeta(tx api.Transaction) string {
	sep := metaStyle.Render(" · ")
	var parts []string
	if m.incoming(tx) {
		parts = append(parts, metaStyle.Render("from ")+partyStyle.Render(party(tx.SenderUsername, tx.SenderMobileNumber)))
	} else {
		parts = append(parts, metaStyle.Render("to ")+partyStyle.Render(party(tx.BeneficiaryUsername, tx.BeneficiaryMobileNumber)))
	}
	parts = append(parts, metaStyle.Render(format.TimeAgo(tx.CreatedAt)))
	if tx.Status != "" {
		parts = append(parts, metaStyle.Render(tx.Status))
	}
	if tx.SourceOfTransfer != "" {
		parts = append(parts, metaStyle.Render("via "+tx.SourceOfTransfer))
	}
	return strings.Join(parts, sep)
}

func (m *Model) buildAmount(tx api.Transaction) string {
	if m.incoming(tx) {
		amount, code := tx.DestinationAmount, tx.DestinationCurrency
		if amount == 0 {
			amount, code = tx.SourceAmount, tx.SourceCurrency
		}
		return creditStyle.Render(format.SignedMoney(amount, code, true))
	}
	out := debitStyle.Render(format.SignedMoney(tx.SourceAmount, tx.SourceCurrency, false))
	if tx.DestinationCurrency != "" && !strings.EqualFold(tx.DestinationCurrency, tx.SourceCurrency) {
		out += metaStyle.Render(" → " + format.Money(tx.DestinationAmount, tx.DestinationCurrency))
	}
	return out
}

func (m *Model) incoming(tx api.Transaction) bool {
	return m.username != "" && tx.BeneficiaryUsername == m.username && tx.SenderUsername != m.username
}

func (m *Model) scrollToCursor() {
	if m.cursor >= len(m.offsets) {
		return
	}
	ri := m.offsets[m.cursor]
	if ri.startLine < m.viewport.YOffset {
		m.viewport.SetYOffset(ri.startLine)
	}
	if ri.endLine >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(ri.startLine)
	}
}

func (m Model) fetch() tea.Cmd {
	source, n, size := m.source, m.pageNum, m.pageSize
	return func() tea.Msg {
		page, err := source.GetTransactions(context.Background(), n, size)
		if err != nil && errors.Is(err, api.ErrNotFound) {
			return messages.TransactionsLoadedMsg{Page: &api.TransactionPage{Page: api.Page{Page: n, PageSize: size}}}
		}
		return messages.TransactionsLoadedMsg{Page: page, Err: err}
	}
}

func party(username, mobile string) string {
	if username != "" {
		return username
	}
	return mobile
}

func describe(err error) string {
	if msg := api.Message(err); msg != "" {
		return msg
	}
	return err.Error()
}
