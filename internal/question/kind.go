package question

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Kind is one of the five canonical question shapes.
type Kind string

const (
	KindSingleChoice    Kind = "single-choice"
	KindMultipleChoice  Kind = "multiple-choice"
	KindTrueFalse       Kind = "true-false"
	KindMatching        Kind = "matching"
	KindAssertionReason Kind = "assertion-reason"
)

// Kinds lists every canonical kind in display order.
var Kinds = []Kind{KindSingleChoice, KindMultipleChoice, KindTrueFalse, KindMatching, KindAssertionReason}

// ChoiceBased reports whether answers are picked from an option list.
func (k Kind) ChoiceBased() bool {
	switch k {
	case KindSingleChoice, KindMultipleChoice, KindTrueFalse, KindAssertionReason:
		return true
	default:
		return false
	}
}

// Subtype refines choice-based kinds by correct-answer cardinality. It is
// only used for filtering and category counts.
type Subtype string

const (
	SubtypeNone            Subtype = ""
	SubtypeTrueFalse       Subtype = "true-false"
	SubtypeSingleCorrect   Subtype = "single-correct"
	SubtypeMultipleCorrect Subtype = "multiple-correct"
)

var kindSynonyms = map[string]Kind{
	"single choice":        KindSingleChoice,
	"single correct":       KindSingleChoice,
	"single select":        KindSingleChoice,
	"single answer":        KindSingleChoice,
	"mcq":                  KindSingleChoice,
	"mcq single":           KindSingleChoice,
	"radio":                KindSingleChoice,
	"multiple choice":      KindMultipleChoice,
	"multiple correct":     KindMultipleChoice,
	"multiple select":      KindMultipleChoice,
	"multiple answer":      KindMultipleChoice,
	"multiple answers":     KindMultipleChoice,
	"multi choice":         KindMultipleChoice,
	"multi select":         KindMultipleChoice,
	"mcq multiple":         KindMultipleChoice,
	"msq":                  KindMultipleChoice,
	"checkbox":             KindMultipleChoice,
	"true false":           KindTrueFalse,
	"true or false":        KindTrueFalse,
	"tf":                   KindTrueFalse,
	"t f":                  KindTrueFalse,
	"boolean":              KindTrueFalse,
	"match":                KindMatching,
	"matching":             KindMatching,
	"match the following":  KindMatching,
	"match the column":     KindMatching,
	"match the columns":    KindMatching,
	"column matching":      KindMatching,
	"assertion reason":     KindAssertionReason,
	"assertion and reason": KindAssertionReason,
	"assertion reasoning":  KindAssertionReason,
	"assertion":            KindAssertionReason,
	"ar":                   KindAssertionReason,
	"a r":                  KindAssertionReason,
}

// ParseKind maps a free-text kind label onto a canonical kind. Labels are
// case-folded and punctuation-insensitive, so "True/False", "true_false" and
// "TRUE-FALSE" are the same label.
func ParseKind(label string) (Kind, bool) {
	key := foldLabel(label)
	if key == "" {
		return "", false
	}
	if k, ok := kindSynonyms[key]; ok {
		return k, true
	}
	for _, k := range Kinds {
		if key == foldLabel(string(k)) {
			return k, true
		}
	}
	return "", false
}

// foldLabel lower-cases with Unicode case folding and turns every run of
// non-alphanumeric characters into one space.
func foldLabel(s string) string {
	s = cases.Fold().String(norm.NFC.String(s))
	var b strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}

// normalizeText is the identity used when comparing option and pair texts:
// surrounding whitespace is ignored and Unicode is NFC-normalized, case is kept.
func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func isTrueFalsePair(a, b string) bool {
	x, y := foldLabel(a), foldLabel(b)
	return (x == "true" && y == "false") || (x == "false" && y == "true")
}
