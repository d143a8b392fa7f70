package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"quizbank/internal/exam"
	"quizbank/internal/question"
)

// renderHeader renders the progress line with the remaining time.
func renderHeader(sess *exam.Session, now time.Time, noColor bool) string {
	score, total, scoreErr := sess.Score()
	answered := 0
	for _, q := range sess.Questions() {
		if q.State == exam.StateResolved || q.State == exam.StateLocked {
			answered++
		}
	}
	line := fmt.Sprintf("Session %s | %d/%d answered", shortID(sess.ID()), answered, total)
	if scoreErr == nil {
		line += fmt.Sprintf(" | Score: %d", score)
	}
	if deadline, ok := sess.Deadline(); ok {
		left := deadline.Sub(now).Round(time.Second)
		if left < 0 {
			left = 0
		}
		line += " | Left: " + left.String()
	}
	return stylize(line, noColor, lipgloss.Color("33"))
}

// renderQuestion renders the prompt with numbered choices, or numbered lefts
// and lettered rights for matching.
func renderQuestion(sq exam.SessionQuestion, noColor bool) string {
	q := sq.Question
	var b strings.Builder
	b.WriteString(stylize(fmt.Sprintf("%s | %s / %s", q.Kind, q.Topic, q.Subtopic), noColor, lipgloss.Color("240")))
	b.WriteString("\n" + bold(q.Prompt, noColor) + "\n")
	if q.Kind == question.KindAssertionReason {
		fmt.Fprintf(&b, "  Assertion: %s\n  Reason:    %s\n", q.Assertion, q.Reason)
	}
	if q.Kind == question.KindMatching {
		for i, l := range sq.Lefts {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, l)
		}
		b.WriteString("  --\n")
		for i, r := range sq.Rights {
			fmt.Fprintf(&b, "  %c) %s\n", 'a'+i, r)
		}
		b.WriteString("  Answer as 1=a,2=b,...")
		return b.String()
	}
	for i, c := range sq.Choices {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, c)
	}
	if q.AnswerKey.Shape == question.KeySet {
		b.WriteString("  Pick every correct option, e.g. 1,3")
	}
	return strings.TrimRight(b.String(), "\n")
}

// feedbackLines describes a submission the way the session allows.
func feedbackLines(sub exam.Submission) []string {
	if sub.IsCorrect == nil {
		return []string{"Answer recorded."}
	}
	var out []string
	if *sub.IsCorrect {
		out = append(out, "Correct!")
	} else {
		out = append(out, "Wrong. Answer: "+strings.Join(sub.AnswerKey.Texts(), "; "))
	}
	if sub.Explanation != "" {
		out = append(out, sub.Explanation)
	}
	return out
}

func renderFeedback(lines []string, noColor bool) string {
	color := lipgloss.Color("42")
	if strings.HasPrefix(lines[0], "Wrong") {
		color = lipgloss.Color("203")
	}
	return stylize(strings.Join(lines, "\n"), noColor, color)
}

// renderSummary renders the final score and per-question results.
func renderSummary(s exam.Summary, noColor bool) string {
	var b strings.Builder
	b.WriteString(bold(fmt.Sprintf("Score: %d/%d (%s)", s.Score, s.Total, s.Reason), noColor) + "\n")
	for _, r := range s.Results {
		status := "unanswered"
		color := lipgloss.Color("244")
		if r.Answered {
			status, color = "wrong", lipgloss.Color("203")
			if r.IsCorrect {
				status, color = "correct", lipgloss.Color("42")
			}
		}
		fmt.Fprintf(&b, "  #%d %s %s\n", r.ID, stylize(fmt.Sprintf("%-10s", status), noColor, color), r.Prompt)
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func bold(text string, noColor bool) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Bold(true).Render(text)
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
