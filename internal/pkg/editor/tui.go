package editor

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#575B7E")).
			Padding(0, 1)

	echoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Model is the bubbletea front end over a Session. All editing semantics
// live in the session; the model only shuttles lines in and renders the
// transcript.
type Model struct {
	session   *Session
	textInput textinput.Model
	lines     []string
	errLine   string
}

func NewModel(s *Session) Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Focus()

	return Model{
		session:   s,
		textInput: ti,
		lines:     strings.Split(strings.TrimRight(s.Opening(), "\n"), "\n"),
	}
}

// Session exposes the driven session so the caller can inspect the outcome
// after the program exits.
func (m Model) Session() *Session {
	return m.session
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			line := m.textInput.Value()
			prompt := m.session.Prompt()
			echo, err := m.session.Input(line)
			m.textInput.SetValue("")
			m.errLine = ""
			m.lines = append(m.lines, prompt+line)
			if err != nil {
				m.errLine = err.Error()
				return m, nil
			}
			if echo != "" {
				m.lines = append(m.lines, echoStyle.Render(echo))
			}
			if m.session.Done() {
				return m, tea.Quit
			}
			return m, nil
		case tea.KeyCtrlC, tea.KeyEsc:
			m.session.Abort()
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("pmcconf threshold editor") + "\n\n")
	b.WriteString(strings.Join(m.lines, "\n") + "\n")
	if m.errLine != "" {
		b.WriteString(errStyle.Render(m.errLine) + "\n")
	}
	if !m.session.Done() {
		b.WriteString(m.session.Prompt() + m.textInput.View())
	}
	return b.String()
}
