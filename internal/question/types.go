package question

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidRecord   = errors.New("invalid question record")
)

// Category separates defects that are safe to delete from ones that need a
// manual fix.
type Category string

const (
	CategoryDuplicate Category = "duplicate"
	CategoryAnomaly   Category = "anomaly"
)

// Check is the stable code of one validator check.
type Check string

const (
	CheckMissingField       Check = "missing_field"
	CheckInvalidKind        Check = "invalid_kind"
	CheckDuplicateOption    Check = "duplicate_option"
	CheckConflictingOption  Check = "conflicting_option"
	CheckDuplicatePair      Check = "duplicate_pair"
	CheckDuplicateLeft      Check = "duplicate_left"
	CheckDuplicateRight     Check = "duplicate_right"
	CheckOrphan             Check = "orphan"
	CheckInsufficient       Check = "insufficient_options"
	CheckNoCorrect          Check = "no_correct"
	CheckAllCorrect         Check = "all_correct"
	CheckTrueFalseMulti     Check = "tf_multiple_correct"
	CheckMissingPlaceholder Check = "missing_placeholder"
)

// DuplicatePolicy decides what happens to records whose only defects are
// duplicates.
type DuplicatePolicy string

const (
	// DuplicatesExclude drops any record with at least one issue.
	DuplicatesExclude DuplicatePolicy = "exclude"
	// DuplicatesCollapse repairs duplicate rows in place and reports the
	// repair; only anomalies exclude a record.
	DuplicatesCollapse DuplicatePolicy = "collapse"
)

// ParseDuplicatePolicy accepts "" as the default policy.
func ParseDuplicatePolicy(raw string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", DuplicatesExclude:
		return DuplicatesExclude, nil
	case DuplicatesCollapse:
		return DuplicatesCollapse, nil
	default:
		return "", fmt.Errorf("%w: duplicate policy %q", ErrInvalidArgument, raw)
	}
}

// AssertionReasonOptionCount is the row count of an assertion-reason
// question: the assertion, the reason, then four fixed choices.
const AssertionReasonOptionCount = 6

// ValidationIssue describes one failed check on one record.
type ValidationIssue struct {
	ID        int64    `json:"id"`
	KindLabel string   `json:"kind_label"`
	Topic     string   `json:"topic"`
	Subtopic  string   `json:"subtopic"`
	Prompt    string   `json:"prompt"`
	Reason    string   `json:"reason"`
	Category  Category `json:"category"`
	Check     Check    `json:"check"`
}

// MatchPair is one left to right association of a matching question.
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// KeyShape tells which field of an AnswerKey is populated.
type KeyShape int

const (
	KeySingle KeyShape = iota + 1
	KeySet
	KeyMapping
)

func (s KeyShape) String() string {
	switch s {
	case KeySingle:
		return "single"
	case KeySet:
		return "set"
	case KeyMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// AnswerKey holds the correct answer of a question in exactly one shape.
type AnswerKey struct {
	Shape   KeyShape          `json:"shape"`
	Single  string            `json:"single,omitempty"`
	Set     []string          `json:"set,omitempty"`
	Mapping map[string]string `json:"mapping,omitempty"`
}

// Empty reports whether the key carries no answer.
func (k AnswerKey) Empty() bool {
	switch k.Shape {
	case KeySingle:
		return k.Single == ""
	case KeySet:
		return len(k.Set) == 0
	case KeyMapping:
		return len(k.Mapping) == 0
	default:
		return true
	}
}

// Texts flattens the key for display. Mappings render as "left = right" in
// left order.
func (k AnswerKey) Texts() []string {
	switch k.Shape {
	case KeySingle:
		return []string{k.Single}
	case KeySet:
		return append([]string(nil), k.Set...)
	case KeyMapping:
		lefts := make([]string, 0, len(k.Mapping))
		for l := range k.Mapping {
			lefts = append(lefts, l)
		}
		sort.Strings(lefts)
		out := make([]string, 0, len(lefts))
		for _, l := range lefts {
			out = append(out, l+" = "+k.Mapping[l])
		}
		return out
	default:
		return nil
	}
}

// ValidatedQuestion is a well-formed, classified question. Values are never
// modified after Classify returns them; the session copies what it shuffles.
type ValidatedQuestion struct {
	ID          int64   `json:"id"`
	Kind        Kind    `json:"kind"`
	Subtype     Subtype `json:"subtype,omitempty"`
	Prompt      string  `json:"prompt"`
	Topic       string  `json:"topic"`
	Subtopic    string  `json:"subtopic"`
	Explanation string  `json:"explanation,omitempty"`

	// Options is the selectable choice list of choice-based kinds. For
	// assertion-reason it holds only the fixed choice set.
	Options   []string `json:"options,omitempty"`
	Assertion string   `json:"assertion,omitempty"`
	Reason    string   `json:"reason,omitempty"`

	Pairs       []MatchPair `json:"pairs,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`

	AnswerKey AnswerKey `json:"answer_key"`
}

// RightValues returns the right-hand texts of a matching question in pair order.
func (q ValidatedQuestion) RightValues() []string {
	out := make([]string, 0, len(q.Pairs))
	for _, p := range q.Pairs {
		out = append(out, p.Right)
	}
	return out
}
