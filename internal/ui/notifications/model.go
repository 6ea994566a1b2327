package notifications

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/fragmede/purse/internal/cache"
	"github.com/fragmede/purse/internal/format"
	"github.com/fragmede/purse/internal/router"
	"github.com/fragmede/purse/internal/ui/messages"
)

const maxShown = 50

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E8B57")).Bold(true).Padding(1, 0)
	notifStyle     = lipgloss.NewStyle().Padding(0, 1)
	selectedStyle  = lipgloss.NewStyle().Background(lipgloss.Color("#333333")).Padding(0, 1)
	authorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E8B57")).Bold(true)
	unreadDotStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	metaStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	amountStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CC66"))
)

// Store reads and acknowledges notifications. *cache.DB satisfies it.
type Store interface {
	Notifications(owner string, limit int) ([]cache.Notification, error)
	MarkNotificationRead(id int) error
	UnreadNotificationCount(owner string) int
}

// Model lists incoming transfers raised by the monitor.
type Model struct {
	notifications []cache.Notification
	selectedIdx   int
	owner         string
	store         Store
	err           error
	width         int
	height        int
}

func New(store Store) Model {
	return Model{store: store}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Load refreshes the list for owner from the database.
func (m *Model) Load(owner string) {
	m.owner = owner
	m.notifications, m.err = m.store.Notifications(owner, maxShown)
	if m.selectedIdx >= len(m.notifications) {
		m.selectedIdx = 0
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.NewNotificationMsg:
		m.Load(m.owner)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.selectedIdx < len(m.notifications)-1 {
				m.selectedIdx++
			}
		case "k", "up":
			if m.selectedIdx > 0 {
				m.selectedIdx--
			}
		case "m":
			if n, ok := m.selected(); ok && !n.Read {
				m.markRead(m.selectedIdx)
				return m, m.unreadChanged()
			}
		case "M":
			for i := range m.notifications {
				if !m.notifications[i].Read {
					m.markRead(i)
				}
			}
			return m, m.unreadChanged()
		case "enter":
			if _, ok := m.selected(); ok {
				m.markRead(m.selectedIdx)
				return m, tea.Batch(m.unreadChanged(), func() tea.Msg {
					return messages.NavigateMsg{Route: router.Transactions}
				})
			}
		}
	}
	return m, nil
}

func (m Model) selected() (cache.Notification, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.notifications) {
		return cache.Notification{}, false
	}
	return m.notifications[m.selectedIdx], true
}

func (m *Model) markRead(i int) {
	if err := m.store.MarkNotificationRead(m.notifications[i].ID); err != nil {
		return
	}
	m.notifications[i].Read = true
}

func (m Model) unreadChanged() tea.Cmd {
	count := m.store.UnreadNotificationCount(m.owner)
	return func() tea.Msg { return messages.NewNotificationMsg{UnreadCount: count} }
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Notifications"))
	sb.WriteString("\n")

	if m.err != nil {
		sb.WriteString("\n  " + m.err.Error() + "\n")
		return sb.String()
	}
	if len(m.notifications) == 0 {
		sb.WriteString("\n  No incoming transfers yet.\n")
		return sb.String()
	}

	for i, n := range m.notifications {
		var line strings.Builder

		if !n.Read {
			line.WriteString(unreadDotStyle.Render("● "))
		} else {
			line.WriteString("  ")
		}

		line.WriteString(authorStyle.Render(n.FromUser))
		line.WriteString(metaStyle.Render(" sent you "))
		line.WriteString(amountStyle.Render(format.Money(n.Amount, n.Currency)))
		line.WriteString(metaStyle.Render(fmt.Sprintf(" %s", humanize.Time(n.CreatedAt))))

		entry := line.String()
		if i == m.selectedIdx {
			entry = selectedStyle.Render(entry)
		} else {
			entry = notifStyle.Render(entry)
		}
		sb.WriteString(entry + "\n")
	}

	sb.WriteString("\n" + metaStyle.Render("  enter open · m mark read · M mark all read"))
	return sb.String()
}

// UnreadCount returns the number of unread notifications loaded.
func (m Model) UnreadCount() int {
	count := 0
	for _, n := range m.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}
