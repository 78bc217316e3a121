package questions

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Style definitions.
var (
	groupStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	helpTextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	inputStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230"))
)

// flatQuestion pairs a question with its group name for display.
type flatQuestion struct {
	groupName string
	q         question
}

type questionnaireModel struct {
	questions []flatQuestion
	index     int
	answers   map[string]any

	// Per-question input state.
	cursor   int
	selected map[int]bool
	text     string

	cancelled bool
	done      bool
}

func newQuestionnaireModel(groups []group) questionnaireModel {
	var flat []flatQuestion
	for _, g := range groups {
		for _, q := range g.questions {
			flat = append(flat, flatQuestion{groupName: g.name, q: q})
		}
	}
	m := questionnaireModel{
		questions: flat,
		answers:   make(map[string]any),
		selected:  make(map[int]bool),
	}
	m.prepareCurrent()
	return m
}

// prepareCurrent resets widget state for the question at m.index,
// skipping questions whose condition does not hold.
func (m *questionnaireModel) prepareCurrent() {
	for m.index < len(m.questions) {
		q := m.questions[m.index].q
		if q.condition == nil || q.condition(m.answers) {
			break
		}
		m.index++
	}
	if m.index >= len(m.questions) {
		m.done = true
		return
	}
	m.cursor = 0
	m.selected = make(map[int]bool)
	m.text = m.questions[m.index].q.def
}

func (m questionnaireModel) Init() tea.Cmd { return nil }

func (m questionnaireModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.done {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	}

	q := m.questions[m.index].q
	switch q.kind {
	case kindText:
		return m.updateText(key)
	case kindSelect:
		return m.updateSelect(key)
	case kindMultiSelect:
		return m.updateMultiSelect(key)
	case kindConfirm:
		return m.updateConfirm(key)
	}
	return m, nil
}

func (m questionnaireModel) updateText(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEnter:
		return m.commit(m.text)
	case tea.KeyBackspace:
		if len(m.text) > 0 {
			m.text = m.text[:len(m.text)-1]
		}
	case tea.KeyRunes, tea.KeySpace:
		m.text += string(key.Runes)
		if key.Type == tea.KeySpace {
			m.text += " "
		}
	}
	return m, nil
}

func (m questionnaireModel) updateSelect(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	q := m.questions[m.index].q
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(q.options)-1 {
			m.cursor++
		}
	case "enter":
		return m.commit(q.options[m.cursor])
	}
	return m, nil
}

func (m questionnaireModel) updateMultiSelect(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	q := m.questions[m.index].q
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(q.options)-1 {
			m.cursor++
		}
	case " ":
		m.selected[m.cursor] = !m.selected[m.cursor]
	case "enter":
		var chosen []string
		for i, opt := range q.options {
			if m.selected[i] {
				chosen = append(chosen, opt)
			}
		}
		return m.commit(chosen)
	}
	return m, nil
}

func (m questionnaireModel) updateConfirm(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "y", "Y":
		return m.commit(true)
	case "n", "N":
		return m.commit(false)
	case "enter":
		return m.commit(strings.EqualFold(m.questions[m.index].q.def, "yes"))
	}
	return m, nil
}

// commit records the answer and advances to the next question.
func (m questionnaireModel) commit(value any) (tea.Model, tea.Cmd) {
	q := m.questions[m.index].q
	if s, ok := value.(string); ok && s == "" {
		value = q.def
	}
	m.answers[q.key] = value
	m.index++
	m.prepareCurrent()
	if m.done {
		return m, tea.Quit
	}
	return m, nil
}

func (m questionnaireModel) View() string {
	if m.done || m.cancelled {
		return ""
	}

	fq := m.questions[m.index]
	q := fq.q

	var b strings.Builder
	b.WriteString(groupStyle.Render(" "+fq.groupName+" ") +
		helpTextStyle.Render(fmt.Sprintf("  question %d of %d", m.index+1, len(m.questions))))
	b.WriteString("\n\n")
	b.WriteString(promptStyle.Render(q.prompt))
	b.WriteString("\n")
	if q.help != "" {
		b.WriteString(helpTextStyle.Render(q.help))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch q.kind {
	case kindText:
		b.WriteString(inputStyle.Render("> " + m.text + "_"))
		b.WriteString("\n\n")
		b.WriteString(helpTextStyle.Render("enter: accept | esc: cancel"))
	case kindSelect:
		for i, opt := range q.options {
			cursor := "  "
			line := opt
			if i == m.cursor {
				cursor = cursorStyle.Render("> ")
				line = selectedStyle.Render(opt)
			}
			b.WriteString(cursor + line + "\n")
		}
		b.WriteString("\n")
		b.WriteString(helpTextStyle.Render("up/down: move | enter: select | esc: cancel"))
	case kindMultiSelect:
		for i, opt := range q.options {
			cursor := "  "
			if i == m.cursor {
				cursor = cursorStyle.Render("> ")
			}
			mark := "[ ] "
			if m.selected[i] {
				mark = selectedStyle.Render("[x] ")
			}
			b.WriteString(cursor + mark + opt + "\n")
		}
		b.WriteString("\n")
		b.WriteString(helpTextStyle.Render("space: toggle | enter: confirm | esc: cancel"))
	case kindConfirm:
		b.WriteString(inputStyle.Render(fmt.Sprintf("[y/n] (default %s)", q.def)))
		b.WriteString("\n\n")
		b.WriteString(helpTextStyle.Render("y/n: answer | enter: default | esc: cancel"))
	}

	return b.String()
}

// runQuestionnaire drives the interactive questionnaire and returns the
// raw answers. Cancellation is an error: callers treat it as fatal.
func runQuestionnaire(groups []group) (map[string]any, error) {
	final, err := tea.NewProgram(newQuestionnaireModel(groups)).Run()
	if err != nil {
		return nil, fmt.Errorf("running questionnaire: %w", err)
	}
	m, ok := final.(questionnaireModel)
	if !ok {
		return nil, fmt.Errorf("unexpected questionnaire state")
	}
	if m.cancelled {
		return nil, fmt.Errorf("questionnaire cancelled")
	}
	return m.answers, nil
}
