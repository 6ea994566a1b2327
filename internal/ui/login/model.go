package login

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pquerna/otp"

	"github.com/fragmede/purse/internal/api"
	"github.com/fragmede/purse/internal/router"
	"github.com/fragmede/purse/internal/session"
	"github.com/fragmede/purse/internal/ui/messages"
)

var (
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E8B57"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E8B57")).Bold(true).
			Padding(1, 0)
)

// Authenticator is the part of the API client the login view uses.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
	ConfigureMFA(ctx context.Context, email, secret, code string) error
	VerifyMFA(ctx context.Context, email, code string) error
}

// SessionWriter records the profile once login completes.
type SessionWriter interface {
	Login(p session.Profile) error
}

type stage int

const (
	stageCredentials stage = iota
	stageMFA
)

type mfaResultMsg struct {
	err error
}

// Model is the login form. A password check that asks for a second factor
// moves the form to a code prompt; the session is only written after the
// code is accepted.
type Model struct {
	emailInput    textinput.Model
	passwordInput textinput.Model
	codeInput     textinput.Model
	focusIndex    int
	stage         stage
	pending       *api.LoginResponse
	enrolment     *otp.Key
	err           string
	submitting    bool
	auth          Authenticator
	store         SessionWriter
	width         int
	height        int
}

func New(auth Authenticator, store SessionWriter) Model {
	emailInput := textinput.New()
	emailInput.Placeholder = "email"
	emailInput.Focus()
	emailInput.Width = 36

	passwordInput := textinput.New()
	passwordInput.Placeholder = "password"
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.Width = 36

	codeInput := textinput.New()
	codeInput.Placeholder = "123456"
	codeInput.CharLimit = 6
	codeInput.Width = 10

	return Model{
		emailInput:    emailInput,
		passwordInput: passwordInput,
		codeInput:     codeInput,
		auth:          auth,
		store:         store,
	}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// AwaitingCode reports whether the form is on the second factor prompt.
func (m Model) AwaitingCode() bool { return m.stage == stageMFA }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+n":
			return m, navigate(router.SignUp)
		case "ctrl+f":
			return m, navigate(router.ForgotPassword)
		case "esc":
			if m.stage == stageMFA && !m.submitting {
				m.resetToCredentials()
				return m, nil
			}
		case "tab", "shift+tab":
			if m.stage == stageCredentials {
				m.toggleFocus()
				return m, nil
			}
		case "enter":
			if m.submitting {
				return m, nil
			}
			if m.stage == stageMFA {
				return m.submitCode()
			}
			return m.submitCredentials()
		}

	case messages.LoginResultMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = describe(msg.Err, "Login failed")
			return m, nil
		}
		if !msg.Resp.NeedsMFA() {
			m.submitting = true
			return m, complete(m.store, msg.Resp)
		}
		m.pending = msg.Resp
		m.stage = stageMFA
		m.enrolment = nil
		if msg.Resp.NeedsMFASetup() && msg.Resp.MFAConfig.URL != "" {
			if key, err := otp.NewKeyFromURL(msg.Resp.MFAConfig.URL); err == nil {
				m.enrolment = key
			}
		}
		m.emailInput.Blur()
		m.passwordInput.Blur()
		m.codeInput.SetValue("")
		m.codeInput.Focus()
		return m, nil

	case mfaResultMsg:
		m.submitting = false
		m.err = describe(msg.err, "Verification failed")
		m.codeInput.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	switch {
	case m.stage == stageMFA:
		m.codeInput, cmd = m.codeInput.Update(msg)
	case m.focusIndex == 0:
		m.emailInput, cmd = m.emailInput.Update(msg)
	default:
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focusIndex == 0 {
		m.focusIndex = 1
		m.emailInput.Blur()
		m.passwordInput.Focus()
	} else {
		m.focusIndex = 0
		m.passwordInput.Blur()
		m.emailInput.Focus()
	}
}

func (m *Model) resetToCredentials() {
	m.stage = stageCredentials
	m.pending = nil
	m.enrolment = nil
	m.err = ""
	m.codeInput.Blur()
	m.passwordInput.SetValue("")
	m.focusIndex = 0
	m.emailInput.Focus()
}

func (m Model) submitCredentials() (Model, tea.Cmd) {
	email := strings.TrimSpace(m.emailInput.Value())
	password := m.passwordInput.Value()
	if email == "" || password == "" {
		m.err = "Email and password required"
		return m, nil
	}
	m.submitting = true
	m.err = ""
	auth := m.auth
	return m, func() tea.Msg {
		resp, err := auth.Login(context.Background(), email, password)
		return messages.LoginResultMsg{Email: email, Resp: resp, Err: err}
	}
}

func (m Model) submitCode() (Model, tea.Cmd) {
	code := strings.TrimSpace(m.codeInput.Value())
	if !validCode(code) {
		m.err = "Enter the 6 digit code from your authenticator"
		return m, nil
	}
	m.submitting = true
	m.err = ""
	auth, store, resp := m.auth, m.store, m.pending
	return m, func() tea.Msg {
		ctx := context.Background()
		var err error
		if resp.NeedsMFASetup() {
			err = auth.ConfigureMFA(ctx, resp.Email, resp.MFAConfig.Secret, code)
		} else {
			err = auth.VerifyMFA(ctx, resp.Email, code)
		}
		if err != nil {
			return mfaResultMsg{err: err}
		}
		return complete(store, resp)()
	}
}

func complete(store SessionWriter, resp *api.LoginResponse) tea.Cmd {
	return func() tea.Msg {
		p := resp.Profile()
		if err := store.Login(p); err != nil {
			return mfaResultMsg{err: err}
		}
		return messages.LoggedInMsg{Profile: p}
	}
}

func navigate(route router.Name) tea.Cmd {
	return func() tea.Msg { return messages.NavigateMsg{Route: route} }
}

func validCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func describe(err error, fallback string) string {
	if msg := api.Message(err); msg != "" {
		return msg
	}
	if err != nil {
		return fallback + ": " + err.Error()
	}
	return fallback
}

func (m Model) View() string {
	var sb strings.Builder

	if m.stage == stageMFA {
		sb.WriteString(titleStyle.Render("Two-factor authentication"))
		sb.WriteString("\n\n")
		if m.pending != nil && m.pending.NeedsMFASetup() {
			sb.WriteString("Add this account to your authenticator app:\n\n")
			if m.enrolment != nil {
				sb.WriteString(labelStyle.Render("Issuer:  ") + m.enrolment.Issuer() + "\n")
				sb.WriteString(labelStyle.Render("Account: ") + m.enrolment.AccountName() + "\n")
			}
			sb.WriteString(labelStyle.Render("Secret:  ") + m.pending.MFAConfig.Secret + "\n\n")
		}
		sb.WriteString(labelStyle.Render("Code:"))
		sb.WriteString("\n")
		sb.WriteString(m.codeInput.View())
		sb.WriteString("\n\n")
	} else {
		sb.WriteString(titleStyle.Render("Sign in to Purse"))
		sb.WriteString("\n\n")
		sb.WriteString(labelStyle.Render("Email:"))
		sb.WriteString("\n")
		sb.WriteString(m.emailInput.View())
		sb.WriteString("\n\n")
		sb.WriteString(labelStyle.Render("Password:"))
		sb.WriteString("\n")
		sb.WriteString(m.passwordInput.View())
		sb.WriteString("\n\n")
	}

	if m.err != "" {
		sb.WriteString(errorStyle.Render(m.err))
		sb.WriteString("\n\n")
	}

	switch {
	case m.submitting:
		sb.WriteString("Signing in...")
	case m.stage == stageMFA:
		sb.WriteString(focusedStyle.Render("Enter") + " to verify, " + focusedStyle.Render("Esc") + " to start over")
	default:
		sb.WriteString(focusedStyle.Render("Enter") + " to submit\n")
		sb.WriteString(metaStyle.Render("ctrl+n sign up · ctrl+f forgot password"))
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, sb.String())
}
