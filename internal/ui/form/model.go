package form

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/purse/internal/api"
	"github.com/fragmede/purse/internal/ui/messages"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E8B57")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true).Width(18)
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CC66"))
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0C060"))
)

// Field describes one input.
type Field struct {
	Key         string
	Label       string
	Placeholder string
	Value       string
	Secret      bool
	Required    bool
	CharLimit   int
	// Validate runs before submit on the trimmed value.
	Validate func(string) error
}

// Values holds trimmed field values by key.
type Values map[string]string

// Spec describes a form: its fields and what submitting does.
type Spec struct {
	ID     string
	Title  string
	Fields []Field
	// Submit runs off the UI goroutine. The returned status is shown on
	// success.
	Submit func(ctx context.Context, v Values) (string, error)
	// Preview renders a live line under the fields, e.g. a conversion quote.
	Preview func(v Values) string
}

// Model is a generic multi-field form.
type Model struct {
	spec       Spec
	inputs     []textinput.Model
	focused    int
	err        string
	status     string
	submitting bool
	width      int
	height     int
}

func New(spec Spec) Model {
	inputs := make([]textinput.Model, len(spec.Fields))
	for i, f := range spec.Fields {
		ti := textinput.New()
		ti.Placeholder = f.Placeholder
		ti.CharLimit = f.CharLimit
		if ti.CharLimit == 0 {
			ti.CharLimit = 256
		}
		if f.Secret {
			ti.EchoMode = textinput.EchoPassword
		}
		ti.Width = 40
		ti.SetValue(f.Value)
		inputs[i] = ti
	}
	m := Model{spec: spec, inputs: inputs}
	m.updateFocus()
	return m
}

func (m Model) ID() string { return m.spec.ID }

// Submitting reports whether a submit is in flight.
func (m Model) Submitting() bool { return m.submitting }

// Err returns the current validation or server error, if any.
func (m Model) Err() string { return m.err }

// Status returns the last success message.
func (m Model) Status() string { return m.status }

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	fw := w - 24
	if fw > 60 {
		fw = 60
	}
	if fw < 10 {
		fw = 10
	}
	for i := range m.inputs {
		m.inputs[i].Width = fw
	}
}

// Values returns the trimmed values keyed by field.
func (m Model) Values() Values {
	v := make(Values, len(m.inputs))
	for i, f := range m.spec.Fields {
		v[f.Key] = strings.TrimSpace(m.inputs[i].Value())
	}
	return v
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			if len(m.inputs) > 0 {
				m.focused = (m.focused + 1) % len(m.inputs)
			}
			return m, m.updateFocus()
		case "shift+tab", "up":
			if len(m.inputs) > 0 {
				m.focused = (m.focused + len(m.inputs) - 1) % len(m.inputs)
			}
			return m, m.updateFocus()
		case "ctrl+s":
			return m.submit()
		case "enter":
			if m.focused == len(m.inputs)-1 {
				return m.submit()
			}
			m.focused++
			return m, m.updateFocus()
		}

	case messages.FormResultMsg:
		if msg.Form != m.spec.ID {
			return m, nil
		}
		m.submitting = false
		if msg.Err != nil {
			m.err = describe(msg.Err)
			m.status = ""
			return m, nil
		}
		m.err = ""
		m.status = msg.Status
		return m, nil
	}

	if len(m.inputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	values := m.Values()
	for _, f := range m.spec.Fields {
		v := values[f.Key]
		if f.Required && v == "" {
			m.err = f.Label + " is required"
			return m, nil
		}
		if f.Validate != nil && v != "" {
			if err := f.Validate(v); err != nil {
				m.err = f.Label + ": " + err.Error()
				return m, nil
			}
		}
	}
	if m.spec.Submit == nil {
		return m, nil
	}
	m.submitting = true
	m.err = ""
	m.status = ""
	id, submit := m.spec.ID, m.spec.Submit
	return m, func() tea.Msg {
		status, err := submit(context.Background(), values)
		return messages.FormResultMsg{Form: id, Status: status, Err: err}
	}
}

func (m *Model) updateFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == m.focused {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

func describe(err error) string {
	if msg := api.Message(err); msg != "" {
		return msg
	}
	return err.Error()
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(m.spec.Title))
	sb.WriteString("\n\n")

	for i, f := range m.spec.Fields {
		sb.WriteString(labelStyle.Render(f.Label) + " " + m.inputs[i].View())
		sb.WriteString("\n\n")
	}

	if m.spec.Preview != nil {
		if line := m.spec.Preview(m.Values()); line != "" {
			sb.WriteString(previewStyle.Render(line))
			sb.WriteString("\n\n")
		}
	}

	if m.err != "" {
		sb.WriteString(errorStyle.Render(m.err))
		sb.WriteString("\n")
	}
	if m.status != "" {
		sb.WriteString(successStyle.Render(m.status))
		sb.WriteString("\n")
	}

	if m.submitting {
		sb.WriteString("Submitting...")
	} else {
		sb.WriteString(hintStyle.Render("Tab to switch fields | Ctrl+S to submit | Esc to cancel"))
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, sb.String())
}
