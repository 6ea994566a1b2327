package statusbar

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/purse/internal/router"
)

var (
	barStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#FFFFFF"))

	activeTabStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#2E8B57")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#555555")).
				Foreground(lipgloss.Color("#CCCCCC")).
				Padding(0, 1)

	userStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#00FF00")).
			Padding(0, 1)

	notifyStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#FF0000")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	statusTextStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#AAAAAA")).
			Padding(0, 1)

	errorTextStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#FF5555")).
			Padding(0, 1)

	offlineStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#8B0000")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)
)

type tab struct {
	label string
	route router.Name
}

// Tabs lists the routes reachable with the number keys, in order.
var Tabs = []tab{
	{"Home", router.Home},
	{"Balances", router.Balances},
	{"Wallets", router.Wallets},
	{"Transactions", router.Transactions},
	{"Beneficiaries", router.Beneficiary},
	{"Transfer", router.Transfer},
	{"Notifications", router.Notifications},
}

// TabRoute returns the route for the i'th tab, zero based.
func TabRoute(i int) (router.Name, bool) {
	if i < 0 || i >= len(Tabs) {
		return "", false
	}
	return Tabs[i].route, true
}

// TabIndex returns the tab showing route, or -1.
func TabIndex(route router.Name) int {
	for i, t := range Tabs {
		if t.route == route {
			return i
		}
	}
	return -1
}

// Model is the status bar at the bottom of the screen.
type Model struct {
	width       int
	active      router.Name
	username    string
	unreadCount int
	statusText  string
	isError     bool
	offline     bool
}

// New creates a new status bar.
func New() Model {
	return Model{active: router.Home}
}

func (m *Model) SetSize(w int) {
	m.width = w
}

// SetActive highlights the tab for route. Routes without a tab clear the
// highlight.
func (m *Model) SetActive(route router.Name) {
	m.active = route
}

// SetUser sets the logged-in user's display name. Empty means logged out.
func (m *Model) SetUser(name string) {
	m.username = name
}

func (m *Model) SetUnread(count int) {
	m.unreadCount = count
}

// SetStatus sets a temporary status message.
func (m *Model) SetStatus(text string) {
	m.statusText = text
	m.isError = false
}

// SetError shows text as an error status.
func (m *Model) SetError(text string) {
	m.statusText = text
	m.isError = true
}

func (m *Model) SetOffline(offline bool) {
	m.offline = offline
}

func (m Model) Status() string { return m.statusText }
func (m Model) Unread() int    { return m.unreadCount }

// Update is a no-op for the status bar.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

func (m Model) View() string {
	var tabsStr string
	if m.username != "" {
		for _, t := range Tabs {
			if t.route == m.active {
				tabsStr += activeTabStyle.Render(t.label)
			} else {
				tabsStr += inactiveTabStyle.Render(t.label)
			}
		}
	}

	var right string
	if m.offline {
		right += offlineStyle.Render("OFFLINE")
	}
	if m.unreadCount > 0 {
		right += notifyStyle.Render(fmt.Sprintf(" %d ", m.unreadCount))
	}
	if m.username != "" {
		right += userStyle.Render(m.username)
	} else {
		right += statusTextStyle.Render("not signed in")
	}
	if m.statusText != "" {
		if m.isError {
			right += errorTextStyle.Render(m.statusText)
		} else {
			right += statusTextStyle.Render(m.statusText)
		}
	}

	gap := m.width - lipgloss.Width(tabsStr) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	mid := barStyle.Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, tabsStr, mid, right)
}
