package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"quizbank/internal/exam"
)

type stage int

const (
	stageAnswer stage = iota
	stageRetry
	stageDone
)

// Model renders an interactive quiz session using Bubble Tea.
type Model struct {
	sess         *exam.Session
	input        textinput.Model
	stage        stage
	locked       int64
	feedback     []string
	errLine      string
	summary      exam.Summary
	now          time.Time
	tickInterval time.Duration
	noColor      bool
}

// Options configures the quiz UI model.
type Options struct {
	NoColor      bool
	TickInterval time.Duration
}

// NewModel constructs a quiz UI model over a started session.
func NewModel(sess *exam.Session, opts Options) Model {
	tickInterval := opts.TickInterval
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	in := textinput.New()
	in.Prompt = "answer> "
	in.Placeholder = "1"
	in.CharLimit = 64
	in.Focus()
	return Model{
		sess:         sess,
		input:        in,
		now:          time.Now(),
		tickInterval: tickInterval,
		noColor:      opts.NoColor,
	}
}

// Init starts the clock and the cursor blink.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick(m.tickInterval))
}

// Update handles key presses and clock ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		switch typed.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m.finish()
		case tea.KeyEnter:
			return m.submit()
		}
	case tickMsg:
		m.now = time.Time(typed)
		if m.expired() {
			return m.finish()
		}
		return m, tick(m.tickInterval)
	}
	if m.stage == stageDone {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the current question, the last feedback and the input line.
func (m Model) View() string {
	if m.stage == stageDone {
		return renderSummary(m.summary, m.noColor)
	}
	parts := []string{renderHeader(m.sess, m.now, m.noColor)}
	if len(m.feedback) > 0 {
		parts = append(parts, renderFeedback(m.feedback, m.noColor))
	}
	if m.stage == stageRetry {
		parts = append(parts, "Retry this question? [y/N]")
	} else if cur, ok := m.sess.Current(); ok {
		parts = append(parts, renderQuestion(cur, m.noColor))
	}
	if m.errLine != "" {
		parts = append(parts, stylize(m.errLine, m.noColor, lipgloss.Color("196")))
	}
	parts = append(parts, m.input.View(), stylize("enter submits, esc ends the session", m.noColor, lipgloss.Color("242")))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Done reports whether the session has ended.
func (m Model) Done() bool { return m.stage == stageDone }

// Summary returns the session summary once Done reports true.
func (m Model) Summary() exam.Summary { return m.summary }

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.stage == stageDone {
		return m, tea.Quit
	}
	line := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	m.errLine = ""

	if m.stage == stageRetry {
		m.stage = stageAnswer
		m.feedback = nil
		if strings.EqualFold(line, "y") {
			if _, err := m.sess.RequestRetry(m.locked); err != nil {
				m.errLine = err.Error()
			}
		}
		return m.afterStep()
	}

	cur, ok := m.sess.Current()
	if !ok {
		return m.finish()
	}
	answer, err := exam.ParseAnswer(cur, line)
	if err != nil {
		m.errLine = err.Error()
		return m, nil
	}
	sub, err := m.sess.SubmitAnswer(cur.Question.ID, answer)
	if err != nil {
		m.errLine = err.Error()
		return m, nil
	}
	m.feedback = feedbackLines(sub)
	if sub.Locked {
		m.locked = sub.QuestionID
		m.stage = stageRetry
		return m, nil
	}
	return m.afterStep()
}

// afterStep ends the program once nothing is left to answer.
func (m Model) afterStep() (tea.Model, tea.Cmd) {
	if m.sess.Finished() {
		return m.finish()
	}
	if _, ok := m.sess.Current(); !ok {
		return m.finish()
	}
	return m, nil
}

func (m Model) finish() (tea.Model, tea.Cmd) {
	m.summary = m.sess.Finalize()
	m.stage = stageDone
	m.input.Blur()
	return m, tea.Quit
}

func (m Model) expired() bool {
	deadline, ok := m.sess.Deadline()
	return ok && m.now.After(deadline)
}

// tickMsg carries a clock tick for the remaining-time display.
type tickMsg time.Time

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}
