package exam

import (
	"fmt"
	"strconv"
	"strings"

	"quizbank/internal/question"
)

// ParseAnswer turns typed input into an answer for the question's key
// shape. Choices are 1-based; matching rights are lettered.
func ParseAnswer(sq SessionQuestion, line string) (Answer, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Answer{}, fmt.Errorf("%w: empty answer", ErrInvalidArgument)
	}
	switch sq.Question.AnswerKey.Shape {
	case question.KeyMapping:
		matches := make(map[string]string)
		for _, part := range splitList(line) {
			l, r, ok := strings.Cut(part, "=")
			if !ok {
				return Answer{}, fmt.Errorf("%w: %q is not a pair like 1=a", ErrInvalidArgument, part)
			}
			li, err := pickIndex(strings.TrimSpace(l), len(sq.Lefts))
			if err != nil {
				return Answer{}, err
			}
			ri, err := pickLetter(strings.TrimSpace(r), len(sq.Rights))
			if err != nil {
				return Answer{}, err
			}
			matches[sq.Lefts[li]] = sq.Rights[ri]
		}
		return Answer{Matches: matches}, nil
	case question.KeySet:
		var picks []string
		for _, part := range splitList(line) {
			i, err := pickIndex(part, len(sq.Choices))
			if err != nil {
				return Answer{}, err
			}
			picks = append(picks, sq.Choices[i])
		}
		return Answer{Choices: picks}, nil
	default:
		i, err := pickIndex(line, len(sq.Choices))
		if err != nil {
			return Answer{}, err
		}
		return Answer{Choice: sq.Choices[i]}, nil
	}
}

func splitList(line string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' }) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func pickIndex(raw string, n int) (int, error) {
	i, err := strconv.Atoi(raw)
	if err != nil || i < 1 || i > n {
		return 0, fmt.Errorf("%w: pick a number from 1 to %d", ErrInvalidArgument, n)
	}
	return i - 1, nil
}

func pickLetter(raw string, n int) (int, error) {
	if len(raw) == 1 {
		i := int(strings.ToLower(raw)[0] - 'a')
		if i >= 0 && i < n {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: pick a letter from a to %c", ErrInvalidArgument, 'a'+n-1)
}
