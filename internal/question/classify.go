package question

import (
	"fmt"
	"sort"
	"strings"
)

// Classify turns validated records into typed questions. It fails with
// ErrInvalidRecord when a record could not have passed Validate.
func Classify(valid []RawQuestionRecord) ([]ValidatedQuestion, error) {
	out := make([]ValidatedQuestion, 0, len(valid))
	for _, rec := range valid {
		q, err := classifyRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// Pool is the outcome of the full validate and classify pipeline.
type Pool struct {
	Questions []ValidatedQuestion
	Issues    []ValidationIssue
	Repairs   []ValidationIssue
}

// BuildPool validates and classifies records in one step.
func BuildPool(records []RawQuestionRecord, opts ValidateOptions) (Pool, error) {
	res := Validate(records, opts)
	questions, err := Classify(res.Valid)
	if err != nil {
		return Pool{}, err
	}
	return Pool{Questions: questions, Issues: res.Issues, Repairs: res.Repairs}, nil
}

func classifyRecord(rec RawQuestionRecord) (ValidatedQuestion, error) {
	kind, ok := ParseKind(rec.KindLabel)
	if !ok {
		return ValidatedQuestion{}, fmt.Errorf("%w: id %d: unknown type %q", ErrInvalidRecord, rec.ID, rec.KindLabel)
	}

	q := ValidatedQuestion{
		ID:          rec.ID,
		Kind:        kind,
		Prompt:      strings.TrimSpace(rec.Prompt),
		Topic:       strings.TrimSpace(rec.Topic),
		Subtopic:    rec.SubtopicOrDefault(),
		Explanation: strings.TrimSpace(rec.Explanation),
	}

	switch kind {
	case KindMatching:
		if len(rec.Pairs) < 2 || len(rec.Options) == 0 {
			return ValidatedQuestion{}, fmt.Errorf("%w: id %d: matching needs pairs and a placeholder", ErrInvalidRecord, rec.ID)
		}
		q.Placeholder = normalizeText(rec.Options[0].Text)
		mapping := make(map[string]string, len(rec.Pairs))
		for _, p := range rec.Pairs {
			mp := MatchPair{Left: normalizeText(p.Left), Right: normalizeText(p.Right)}
			q.Pairs = append(q.Pairs, mp)
			mapping[mp.Left] = mp.Right
		}
		q.AnswerKey = AnswerKey{Shape: KeyMapping, Mapping: mapping}
		return q, nil

	case KindAssertionReason:
		if len(rec.Options) != AssertionReasonOptionCount {
			return ValidatedQuestion{}, fmt.Errorf("%w: id %d: assertion-reason needs %d options", ErrInvalidRecord, rec.ID, AssertionReasonOptionCount)
		}
		q.Assertion = normalizeText(rec.Options[0].Text)
		q.Reason = normalizeText(rec.Options[1].Text)
		return fillChoices(q, rec.Options[2:])

	case KindSingleChoice, KindMultipleChoice, KindTrueFalse:
		if len(rec.Options) < 2 {
			return ValidatedQuestion{}, fmt.Errorf("%w: id %d: needs at least 2 options", ErrInvalidRecord, rec.ID)
		}
		return fillChoices(q, rec.Options)
	}
	return ValidatedQuestion{}, fmt.Errorf("%w: id %d: unhandled kind %q", ErrInvalidRecord, rec.ID, kind)
}

func fillChoices(q ValidatedQuestion, opts []OptionRecord) (ValidatedQuestion, error) {
	var correct []string
	for _, o := range opts {
		text := normalizeText(o.Text)
		q.Options = append(q.Options, text)
		if o.IsCorrect {
			correct = append(correct, text)
		}
	}
	if len(correct) == 0 {
		return ValidatedQuestion{}, fmt.Errorf("%w: id %d: no correct option", ErrInvalidRecord, q.ID)
	}

	q.Subtype = subtypeOf(q.Options, len(correct))
	if q.Kind == KindMultipleChoice || len(correct) > 1 {
		sort.Strings(correct)
		q.AnswerKey = AnswerKey{Shape: KeySet, Set: correct}
	} else {
		q.AnswerKey = AnswerKey{Shape: KeySingle, Single: correct[0]}
	}
	return q, nil
}

func subtypeOf(options []string, correct int) Subtype {
	switch {
	case len(options) == 2 && isTrueFalsePair(options[0], options[1]):
		return SubtypeTrueFalse
	case correct == 1:
		return SubtypeSingleCorrect
	default:
		return SubtypeMultipleCorrect
	}
}
