package listview

import (
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	nameStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	figureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0E0E0"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5C5C5C"))
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2E8B57"))
	badgeStyle  = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2E8B57")).
			Width(4)
)

const detailSep = " · "

// row is what the delegate needs from a balance, wallet or beneficiary.
type row interface {
	list.Item
	Title() string
	// Figure is shown right-aligned on the first line.
	Figure() string
	// Details are the fields of the second line.
	Details() []string
	// Dimmed marks zero balances, empty wallets and inactive recipients.
	Dimmed() bool
	Badge() string
}

// Delegate renders a two-line row: name and headline figure, then details.
type Delegate struct{}

func (d Delegate) Height() int                             { return 2 }
func (d Delegate) Spacing() int                            { return 1 }
func (d Delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d Delegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(row)
	if !ok {
		return
	}
	io.WriteString(w, renderRow(item, m.Width(), index == m.Index()))
}

func renderRow(item row, width int, selected bool) string {
	cursor := "  "
	if selected {
		cursor = cursorStyle.Render("▸ ")
	}
	name, figure, details := nameStyle, figureStyle, detailStyle
	if item.Dimmed() && !selected {
		name, figure, details = mutedStyle, mutedStyle, mutedStyle
	}

	left := cursor + badgeStyle.Render(item.Badge()) + name.Render(item.Title())
	right := figure.Render(item.Figure())
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	first := left + strings.Repeat(" ", gap) + right

	fields := make([]string, 0, len(item.Details()))
	for _, f := range item.Details() {
		if f != "" {
			fields = append(fields, details.Render(f))
		}
	}
	indent := strings.Repeat(" ", 2+badgeStyle.GetWidth())
	return first + "\n" + indent + strings.Join(fields, detailStyle.Render(detailSep))
}
