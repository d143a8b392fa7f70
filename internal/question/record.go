package question

import "strings"

// DefaultSubtopic is used when a record carries no subtopic.
const DefaultSubtopic = "General"

// OptionRecord is one row of the options table.
type OptionRecord struct {
	Text      string `json:"text" yaml:"text"`
	IsCorrect bool   `json:"is_correct" yaml:"is_correct"`
}

// MatchPairRecord is one row of the match_pairs table.
type MatchPairRecord struct {
	Left  string `json:"left" yaml:"left"`
	Right string `json:"right" yaml:"right"`
}

// RawQuestionRecord is the aggregate of one question row and its child rows
// as supplied by the question store. It is never mutated by this package.
type RawQuestionRecord struct {
	ID          int64             `json:"id" yaml:"id"`
	KindLabel   string            `json:"type" yaml:"type"`
	Prompt      string            `json:"text" yaml:"text"`
	Topic       string            `json:"topic" yaml:"topic"`
	Subtopic    string            `json:"subtopic,omitempty" yaml:"subtopic"`
	Explanation string            `json:"explanation,omitempty" yaml:"explanation"`
	Options     []OptionRecord    `json:"options" yaml:"options"`
	Pairs       []MatchPairRecord `json:"pairs" yaml:"pairs"`
}

// SubtopicOrDefault returns the subtopic, or DefaultSubtopic when it is blank.
func (r RawQuestionRecord) SubtopicOrDefault() string {
	s := strings.TrimSpace(r.Subtopic)
	if s == "" {
		return DefaultSubtopic
	}
	return s
}

func (r RawQuestionRecord) clone() RawQuestionRecord {
	out := r
	out.Options = append([]OptionRecord(nil), r.Options...)
	out.Pairs = append([]MatchPairRecord(nil), r.Pairs...)
	return out
}

// BaseRow is a questions table row before its children are attached.
type BaseRow struct {
	ID          int64
	KindLabel   string
	Prompt      string
	Topic       string
	Subtopic    string
	Explanation string
}

// OptionRow is an options table row keyed by question id.
type OptionRow struct {
	QuestionID int64
	Text       string
	IsCorrect  bool
}

// PairRow is a match_pairs table row keyed by question id.
type PairRow struct {
	QuestionID int64
	Left       string
	Right      string
}

// GroupRecords attaches option and pair rows to their base rows, keeping the
// order of bases and the relative order of children. Missing children yield
// empty lists. Children whose question id has no base row are dropped.
func GroupRecords(bases []BaseRow, options []OptionRow, pairs []PairRow) []RawQuestionRecord {
	out := make([]RawQuestionRecord, 0, len(bases))
	index := make(map[int64]int, len(bases))
	for _, b := range bases {
		if _, ok := index[b.ID]; ok {
			// repeated base rows for one id collapse onto the first
			continue
		}
		index[b.ID] = len(out)
		out = append(out, RawQuestionRecord{
			ID:          b.ID,
			KindLabel:   b.KindLabel,
			Prompt:      b.Prompt,
			Topic:       b.Topic,
			Subtopic:    b.Subtopic,
			Explanation: b.Explanation,
			Options:     []OptionRecord{},
			Pairs:       []MatchPairRecord{},
		})
	}

	for _, o := range options {
		i, ok := index[o.QuestionID]
		if !ok {
			continue
		}
		out[i].Options = append(out[i].Options, OptionRecord{Text: o.Text, IsCorrect: o.IsCorrect})
	}
	for _, p := range pairs {
		i, ok := index[p.QuestionID]
		if !ok {
			continue
		}
		out[i].Pairs = append(out[i].Pairs, MatchPairRecord{Left: p.Left, Right: p.Right})
	}
	return out
}
