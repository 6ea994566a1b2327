package userprofile

import (
	"context"
	"net/http"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/purse/internal/router"
	"github.com/fragmede/purse/internal/session"
	"github.com/fragmede/purse/internal/ui/messages"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E8B57")).Bold(true).Padding(1, 0)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282")).Bold(true).Width(10)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CC66"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0C060"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// Checker reports the server's view of the session.
type Checker interface {
	SessionStatus(ctx context.Context) (int, error)
}

type statusLoadedMsg struct {
	code int
	err  error
}

// Model shows the signed-in user's stored profile.
type Model struct {
	profile  session.Profile
	checker  Checker
	checking bool
	code     int
	err      error
	width    int
	height   int
}

func New(profile session.Profile, checker Checker) Model {
	return Model{profile: profile, checker: checker, checking: true}
}

// Init asks the server whether the session is still live.
func (m Model) Init() tea.Cmd {
	checker := m.checker
	return func() tea.Msg {
		code, err := checker.SessionStatus(context.Background())
		return statusLoadedMsg{code: code, err: err}
	}
}

func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusLoadedMsg:
		m.checking = false
		m.code = msg.code
		m.err = msg.err
	case tea.KeyMsg:
		switch msg.String() {
		case "e", "s":
			return m, func() tea.Msg { return messages.NavigateMsg{Route: router.Settings} }
		case "P":
			return m, func() tea.Msg { return messages.OpenFormMsg{Form: "change-password"} }
		case "r":
			m.checking = true
			return m, m.Init()
		}
	}
	return m, nil
}

func (m Model) View() string {
	p := m.profile
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(p.DisplayName()))
	sb.WriteString("\n")

	row := func(label, value string) {
		if value == "" {
			return
		}
		sb.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Username", p.Username)
	row("Name", strings.TrimSpace(p.FirstName+" "+p.LastName))
	row("Email", p.Email)
	row("Mobile", strings.TrimSpace(p.MobileCountryCode+" "+p.MobileNumber))

	sb.WriteString("\n" + labelStyle.Render("Session"))
	switch {
	case m.checking:
		sb.WriteString(hintStyle.Render("checking..."))
	case m.code == http.StatusOK:
		sb.WriteString(okStyle.Render("active"))
	case m.err != nil:
		sb.WriteString(warnStyle.Render(m.err.Error()))
	}
	sb.WriteString("\n\n")
	sb.WriteString(hintStyle.Render("e edit profile · P change password · r recheck"))
	return sb.String()
}
