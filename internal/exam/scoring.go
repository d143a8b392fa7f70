package exam

import (
	"maps"
	"sort"
	"strings"

	"quizbank/internal/question"
)

// Answer is what a taker submits for one question. Exactly one field is
// expected to be filled, matching the shape of the question's answer key.
type Answer struct {
	Choice  string            `json:"choice,omitempty"`
	Choices []string          `json:"choices,omitempty"`
	Matches map[string]string `json:"matches,omitempty"`
}

// Empty reports whether nothing was submitted.
func (a Answer) Empty() bool {
	return strings.TrimSpace(a.Choice) == "" && len(normalizeStringSet(a.Choices)) == 0 && len(a.Matches) == 0
}

type ScoreResult struct {
	Answered  bool              `json:"answered"`
	IsCorrect *bool             `json:"is_correct,omitempty"`
	Reason    string            `json:"reason"`
	Selected  []string          `json:"selected,omitempty"`
	Matches   map[string]string `json:"matches,omitempty"`
}

// ScoreQuestion grades an answer against a question's key. Single keys use
// equality, set keys set equality, mapping keys deep equality. Selections
// that are not offered by the question are reported as malformed.
func ScoreQuestion(q question.ValidatedQuestion, a Answer) ScoreResult {
	if a.Empty() {
		return ScoreResult{Reason: "unanswered"}
	}

	switch q.AnswerKey.Shape {
	case question.KeySingle:
		return scoreSingle(q, a)
	case question.KeySet:
		return scoreSet(q, a)
	case question.KeyMapping:
		return scoreMapping(q, a)
	default:
		return ScoreResult{Reason: "malformed_answer_key"}
	}
}

func scoreSingle(q question.ValidatedQuestion, a Answer) ScoreResult {
	if len(a.Matches) > 0 {
		return malformed()
	}
	selected := strings.TrimSpace(a.Choice)
	if selected == "" {
		set := normalizeStringSet(a.Choices)
		if len(set) != 1 {
			return malformed()
		}
		selected = set[0]
	}
	if !contains(q.Options, selected) {
		return malformed()
	}
	return verdict(selected == q.AnswerKey.Single, ScoreResult{Selected: []string{selected}})
}

func scoreSet(q question.ValidatedQuestion, a Answer) ScoreResult {
	if len(a.Matches) > 0 {
		return malformed()
	}
	raw := append([]string(nil), a.Choices...)
	if c := strings.TrimSpace(a.Choice); c != "" {
		raw = append(raw, c)
	}
	selected := normalizeStringSet(raw)
	for _, s := range selected {
		if !contains(q.Options, s) {
			return malformed()
		}
	}
	return verdict(equalSet(selected, q.AnswerKey.Set), ScoreResult{Selected: selected})
}

func scoreMapping(q question.ValidatedQuestion, a Answer) ScoreResult {
	if strings.TrimSpace(a.Choice) != "" || len(a.Choices) > 0 {
		return malformed()
	}
	rights := q.RightValues()
	submitted := make(map[string]string, len(a.Matches))
	for l, r := range a.Matches {
		l, r = strings.TrimSpace(l), strings.TrimSpace(r)
		if _, ok := q.AnswerKey.Mapping[l]; !ok || !contains(rights, r) {
			return malformed()
		}
		submitted[l] = r
	}
	return verdict(maps.Equal(submitted, q.AnswerKey.Mapping), ScoreResult{Matches: submitted})
}

func verdict(ok bool, res ScoreResult) ScoreResult {
	res.Answered = true
	res.IsCorrect = boolPtr(ok)
	if ok {
		res.Reason = "correct"
	} else {
		res.Reason = "wrong"
	}
	return res
}

func malformed() ScoreResult {
	return ScoreResult{Answered: true, IsCorrect: boolPtr(false), Reason: "malformed_payload"}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func normalizeStringSet(in []string) []string {
	set := map[string]struct{}{}
	for _, v := range in {
		s := strings.TrimSpace(v)
		if s == "" {
			continue
		}
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func equalSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	aa := append([]string(nil), a...)
	bb := append([]string(nil), b...)
	sort.Strings(aa)
	sort.Strings(bb)
	for i := range aa {
		if aa[i] != bb[i] {
			return false
		}
	}
	return true
}

func boolPtr(v bool) *bool {
	return &v
}
