package question

import (
	"fmt"
	"strings"
)

// ValidateOptions tunes the validator.
type ValidateOptions struct {
	Duplicates DuplicatePolicy
}

// ValidationResult splits the input into records fit for classification and
// the issues found. Valid records carry the collapsed option and pair lists.
type ValidationResult struct {
	Valid   []RawQuestionRecord
	Issues  []ValidationIssue
	Repairs []ValidationIssue
}

// view is the deduplicated reading of one record that anomaly checks inspect.
type view struct {
	kind    Kind
	kindOK  bool
	options []OptionRecord
	pairs   []MatchPairRecord
}

// choiceSet returns the options the answer is picked from. Assertion-reason
// questions lead with the assertion and reason rows.
func (v view) choiceSet() []OptionRecord {
	if v.kind == KindAssertionReason {
		if len(v.options) <= 2 {
			return nil
		}
		return v.options[2:]
	}
	return v.options
}

type check struct {
	code     Check
	category Category
	run      func(rec RawQuestionRecord, v view) []string
}

// checks is the fixed battery. Every check runs on every record.
var checks = []check{
	{code: CheckMissingField, category: CategoryAnomaly, run: checkMissingField},
	{code: CheckInvalidKind, category: CategoryAnomaly, run: checkInvalidKind},
	{code: CheckDuplicateOption, category: CategoryDuplicate, run: checkDuplicateOption},
	{code: CheckConflictingOption, category: CategoryDuplicate, run: checkConflictingOption},
	{code: CheckDuplicatePair, category: CategoryDuplicate, run: checkDuplicatePair},
	{code: CheckDuplicateLeft, category: CategoryDuplicate, run: checkDuplicateLeft},
	{code: CheckDuplicateRight, category: CategoryDuplicate, run: checkDuplicateRight},
	{code: CheckOrphan, category: CategoryAnomaly, run: checkOrphan},
	{code: CheckInsufficient, category: CategoryAnomaly, run: checkInsufficient},
	{code: CheckNoCorrect, category: CategoryAnomaly, run: checkNoCorrect},
	{code: CheckAllCorrect, category: CategoryAnomaly, run: checkAllCorrect},
	{code: CheckTrueFalseMulti, category: CategoryAnomaly, run: checkTrueFalseMulti},
	{code: CheckMissingPlaceholder, category: CategoryAnomaly, run: checkMissingPlaceholder},
}

// Validate runs the check battery over every record. Records are never
// modified; collapsed copies are returned in Valid.
func Validate(records []RawQuestionRecord, opts ValidateOptions) ValidationResult {
	policy := opts.Duplicates
	if policy == "" {
		policy = DuplicatesExclude
	}

	res := ValidationResult{
		Valid:   make([]RawQuestionRecord, 0, len(records)),
		Issues:  []ValidationIssue{},
		Repairs: []ValidationIssue{},
	}
	for _, rec := range records {
		v := buildView(rec)
		var dups, anomalies []ValidationIssue
		for _, c := range checks {
			for _, reason := range c.run(rec, v) {
				issue := newIssue(rec, c, reason)
				if c.category == CategoryDuplicate {
					dups = append(dups, issue)
				} else {
					anomalies = append(anomalies, issue)
				}
			}
		}

		switch {
		case policy == DuplicatesCollapse && len(anomalies) == 0:
			res.Repairs = append(res.Repairs, dups...)
			res.Valid = append(res.Valid, collapsed(rec, v))
		case policy == DuplicatesCollapse:
			res.Repairs = append(res.Repairs, dups...)
			res.Issues = append(res.Issues, anomalies...)
		case len(dups) == 0 && len(anomalies) == 0:
			res.Valid = append(res.Valid, collapsed(rec, v))
		default:
			res.Issues = append(res.Issues, dups...)
			res.Issues = append(res.Issues, anomalies...)
		}
	}
	return res
}

func newIssue(rec RawQuestionRecord, c check, reason string) ValidationIssue {
	return ValidationIssue{
		ID:        rec.ID,
		KindLabel: rec.KindLabel,
		Topic:     rec.Topic,
		Subtopic:  rec.SubtopicOrDefault(),
		Prompt:    rec.Prompt,
		Reason:    reason,
		Category:  c.category,
		Check:     c.code,
	}
}

func buildView(rec RawQuestionRecord) view {
	kind, ok := ParseKind(rec.KindLabel)
	v := view{kind: kind, kindOK: ok}

	seen := make(map[string]int, len(rec.Options))
	for _, o := range rec.Options {
		text := normalizeText(o.Text)
		if i, ok := seen[text]; ok {
			v.options[i].IsCorrect = v.options[i].IsCorrect || o.IsCorrect
			continue
		}
		seen[text] = len(v.options)
		v.options = append(v.options, OptionRecord{Text: text, IsCorrect: o.IsCorrect})
	}

	lefts := make(map[string]bool, len(rec.Pairs))
	rights := make(map[string]bool, len(rec.Pairs))
	for _, p := range rec.Pairs {
		l, r := normalizeText(p.Left), normalizeText(p.Right)
		if lefts[l] || rights[r] {
			continue
		}
		lefts[l], rights[r] = true, true
		v.pairs = append(v.pairs, MatchPairRecord{Left: l, Right: r})
	}
	return v
}

func collapsed(rec RawQuestionRecord, v view) RawQuestionRecord {
	out := rec.clone()
	out.Options = append([]OptionRecord{}, v.options...)
	out.Pairs = append([]MatchPairRecord{}, v.pairs...)
	return out
}

func checkMissingField(rec RawQuestionRecord, _ view) []string {
	var out []string
	if strings.TrimSpace(rec.Prompt) == "" {
		out = append(out, "missing required field: prompt text")
	}
	if strings.TrimSpace(rec.Topic) == "" {
		out = append(out, "missing required field: topic")
	}
	return out
}

func checkInvalidKind(rec RawQuestionRecord, v view) []string {
	if v.kindOK {
		return nil
	}
	return []string{fmt.Sprintf("invalid question type %q", rec.KindLabel)}
}

type optionTally struct {
	text           string
	correct, wrong int
}

func tallyOptions(opts []OptionRecord) []optionTally {
	index := make(map[string]int, len(opts))
	var out []optionTally
	for _, o := range opts {
		text := normalizeText(o.Text)
		i, ok := index[text]
		if !ok {
			i = len(out)
			index[text] = i
			out = append(out, optionTally{text: text})
		}
		if o.IsCorrect {
			out[i].correct++
		} else {
			out[i].wrong++
		}
	}
	return out
}

func checkDuplicateOption(rec RawQuestionRecord, _ view) []string {
	var out []string
	for _, t := range tallyOptions(rec.Options) {
		if t.correct > 1 || t.wrong > 1 {
			out = append(out, fmt.Sprintf("duplicate option %q (%d rows)", t.text, t.correct+t.wrong))
		}
	}
	return out
}

func checkConflictingOption(rec RawQuestionRecord, _ view) []string {
	var out []string
	for _, t := range tallyOptions(rec.Options) {
		if t.correct > 0 && t.wrong > 0 {
			out = append(out, fmt.Sprintf("option %q is marked both correct and wrong", t.text))
		}
	}
	return out
}

func distinctPairs(pairs []MatchPairRecord) ([]MatchPairRecord, map[MatchPairRecord]int) {
	counts := make(map[MatchPairRecord]int, len(pairs))
	var out []MatchPairRecord
	for _, p := range pairs {
		key := MatchPairRecord{Left: normalizeText(p.Left), Right: normalizeText(p.Right)}
		if counts[key] == 0 {
			out = append(out, key)
		}
		counts[key]++
	}
	return out, counts
}

func checkDuplicatePair(rec RawQuestionRecord, _ view) []string {
	pairs, counts := distinctPairs(rec.Pairs)
	var out []string
	for _, p := range pairs {
		if counts[p] > 1 {
			out = append(out, fmt.Sprintf("duplicate match pair %q = %q (%d rows)", p.Left, p.Right, counts[p]))
		}
	}
	return out
}

func checkDuplicateLeft(rec RawQuestionRecord, _ view) []string {
	pairs, _ := distinctPairs(rec.Pairs)
	return repeatedSide(pairs, func(p MatchPairRecord) string { return p.Left }, "left")
}

func checkDuplicateRight(rec RawQuestionRecord, _ view) []string {
	pairs, _ := distinctPairs(rec.Pairs)
	return repeatedSide(pairs, func(p MatchPairRecord) string { return p.Right }, "right")
}

func repeatedSide(pairs []MatchPairRecord, side func(MatchPairRecord) string, name string) []string {
	counts := make(map[string]int, len(pairs))
	var order []string
	for _, p := range pairs {
		s := side(p)
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}
	var out []string
	for _, s := range order {
		if counts[s] > 1 {
			out = append(out, fmt.Sprintf("%s text %q appears in %d pairs", name, s, counts[s]))
		}
	}
	return out
}

func checkOrphan(rec RawQuestionRecord, v view) []string {
	if !v.kindOK {
		return nil
	}
	switch {
	case v.kind.ChoiceBased() && len(rec.Options) == 0:
		return []string{"question has no options"}
	case v.kind == KindMatching && len(rec.Pairs) == 0:
		return []string{"matching question has no pairs"}
	}
	return nil
}

func checkInsufficient(rec RawQuestionRecord, v view) []string {
	if !v.kindOK {
		return nil
	}
	switch v.kind {
	case KindAssertionReason:
		if len(rec.Options) > 0 && len(v.options) != AssertionReasonOptionCount {
			return []string{fmt.Sprintf("assertion-reason needs %d distinct options, has %d", AssertionReasonOptionCount, len(v.options))}
		}
	case KindMatching:
		if len(v.pairs) == 1 {
			return []string{"insufficient pairs: matching needs at least 2"}
		}
	default:
		if len(rec.Options) > 0 && len(v.options) < 2 {
			return []string{fmt.Sprintf("needs at least 2 distinct options, has %d", len(v.options))}
		}
	}
	return nil
}

func countCorrect(opts []OptionRecord) int {
	n := 0
	for _, o := range opts {
		if o.IsCorrect {
			n++
		}
	}
	return n
}

func checkNoCorrect(_ RawQuestionRecord, v view) []string {
	if !v.kindOK || !v.kind.ChoiceBased() {
		return nil
	}
	set := v.choiceSet()
	if len(set) > 0 && countCorrect(set) == 0 {
		return []string{"no option is marked correct"}
	}
	return nil
}

func checkAllCorrect(_ RawQuestionRecord, v view) []string {
	if !v.kindOK || !v.kind.ChoiceBased() {
		return nil
	}
	set := v.choiceSet()
	if len(set) > 1 && countCorrect(set) == len(set) {
		return []string{"every option is marked correct"}
	}
	return nil
}

func checkTrueFalseMulti(_ RawQuestionRecord, v view) []string {
	if !v.kindOK || v.kind != KindTrueFalse {
		return nil
	}
	if n := countCorrect(v.options); n > 1 {
		return []string{fmt.Sprintf("true/false question has %d correct markers", n)}
	}
	return nil
}

func checkMissingPlaceholder(rec RawQuestionRecord, v view) []string {
	if !v.kindOK || v.kind != KindMatching {
		return nil
	}
	if len(rec.Options) == 0 {
		return []string{"matching question has no placeholder option"}
	}
	return nil
}
