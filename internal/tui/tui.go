// Package tui is a terminal viewer for an extracted table: one visit at a
// time, fields listed top to bottom.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dvloznov/medreport/internal/report"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	visitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD93D")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	nullStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

const (
	defaultWidth  = 100
	defaultHeight = 24
	maxLabelWidth = 36
	// title, visit line, blank line and help line
	chromeLines = 4
)

// Model is the bubbletea model of the viewer.
type Model struct {
	table    *report.Table
	visit    int
	offset   int
	width    int
	height   int
	quitting bool
}

// NewModel shows the first visit of t.
func NewModel(t *report.Table) *Model {
	return &Model{table: t, width: defaultWidth, height: defaultHeight}
}

// Visit is the visit column on screen.
func (m *Model) Visit() int { return m.visit }

// Offset is the index of the first field on screen.
func (m *Model) Offset() int { return m.offset }

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.scroll(0)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			m.scroll(-1)
		case "down", "j":
			m.scroll(1)
		case "pgup":
			m.scroll(-m.pageSize())
		case "pgdown", " ":
			m.scroll(m.pageSize())
		case "home", "g":
			m.offset = 0
		case "end", "G":
			m.scroll(len(m.table.Fields))
		case "left", "h":
			if m.visit > 0 {
				m.visit--
			}
		case "right", "l":
			if m.visit < m.table.Visits()-1 {
				m.visit++
			}
		}
	}
	return m, nil
}

func (m *Model) pageSize() int {
	return max(1, m.height-chromeLines)
}

// scroll moves the window by delta fields, keeping it inside the table.
func (m *Model) scroll(delta int) {
	last := max(0, len(m.table.Fields)-m.pageSize())
	m.offset = min(max(m.offset+delta, 0), last)
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := m.table.DocumentNumber
	if m.table.SourceName != "" {
		title = strings.TrimSpace(title + " " + m.table.SourceName)
	}
	b.WriteString(titleStyle.Render(truncate(title, m.width-2)))
	b.WriteString("\n")
	b.WriteString(visitStyle.Render(fmt.Sprintf("Visita %d/%d", m.visit+1, m.table.Visits())))
	b.WriteString(fmt.Sprintf("  campos %d-%d de %d\n\n", m.offset+1, min(m.offset+m.pageSize(), len(m.table.Fields)), len(m.table.Fields)))

	labelWidth := 0
	for _, f := range m.table.Fields {
		labelWidth = max(labelWidth, lipgloss.Width(f))
	}
	labelWidth = min(labelWidth, maxLabelWidth)
	valueWidth := max(1, m.width-labelWidth-2)

	end := min(m.offset+m.pageSize(), len(m.table.Fields))
	for i := m.offset; i < end; i++ {
		field, values := m.table.Row(i)
		label := truncate(field, labelWidth)
		label += strings.Repeat(" ", labelWidth-lipgloss.Width(label))
		b.WriteString(labelStyle.Render(label))
		b.WriteString("  ")

		var v *string
		if m.visit < len(values) {
			v = values[m.visit]
		}
		if v == nil {
			b.WriteString(nullStyle.Render("(vacío)"))
		} else {
			b.WriteString(truncate(oneLine(*v), valueWidth))
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("↑/↓ campos  ←/→ visitas  q salir"))
	return b.String()
}

// oneLine joins multi-line values for display.
func oneLine(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\n", " / ")), " ")
}

// truncate cuts s to width cells, ending with an ellipsis when cut.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// Run opens the viewer on the alternate screen until the user quits.
func Run(t *report.Table) error {
	p := tea.NewProgram(NewModel(t), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
