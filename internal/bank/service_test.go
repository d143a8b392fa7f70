package bank

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"quizbank/internal/db"
	"quizbank/internal/question"
)

func openTestBank(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "bank.db"), db.DefaultPoolConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := db.EnsureSchema(ctx, conn, db.DriverSQLite); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return NewService(conn, db.DriverSQLite)
}

func sampleRecords() []question.RawQuestionRecord {
	return []question.RawQuestionRecord{
		{
			ID: 1, KindLabel: "True/False", Prompt: "Leaders delegate", Topic: "Leadership", Subtopic: "Delegation",
			Options: []question.OptionRecord{{Text: "True", IsCorrect: true}, {Text: "False"}},
		},
		{
			ID: 2, KindLabel: "MCQ", Prompt: "Pick the 50% rule", Topic: "Leadership",
			Explanation: "Only B matches.",
			Options:     []question.OptionRecord{{Text: "A"}, {Text: "B", IsCorrect: true}, {Text: "C"}},
		},
		{
			ID: 3, KindLabel: "Match the following", Prompt: "Match capitals", Topic: "Geography", Subtopic: "Europe",
			Options: []question.OptionRecord{{Text: "See pairs"}},
			Pairs:   []question.MatchPairRecord{{Left: "France", Right: "Paris"}, {Left: "Italy", Right: "Rome"}},
		},
	}
}

func TestImportAndLoadRecords(t *testing.T) {
	svc := openTestBank(t)
	ctx := context.Background()

	ids, err := svc.ImportRecords(ctx, sampleRecords())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Fatalf("expected ids 1..3, got %v", ids)
	}

	got, err := svc.LoadRecords(ctx, Filter{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[1].Explanation != "Only B matches." || !got[1].Options[1].IsCorrect || got[1].Options[0].IsCorrect {
		t.Fatalf("expected record 2 to round-trip, got %+v", got[1])
	}
	if got[1].Subtopic != "" || got[1].SubtopicOrDefault() != question.DefaultSubtopic {
		t.Fatalf("expected null subtopic to default, got %q", got[1].Subtopic)
	}
	if len(got[2].Pairs) != 2 || got[2].Pairs[1].Right != "Rome" {
		t.Fatalf("expected pairs in insert order, got %+v", got[2].Pairs)
	}
	if got[0].Pairs == nil || len(got[0].Pairs) != 0 {
		t.Fatalf("expected empty pair list for true/false, got %+v", got[0].Pairs)
	}
}

func TestLoadRecordsFilter(t *testing.T) {
	svc := openTestBank(t)
	ctx := context.Background()
	if _, err := svc.ImportRecords(ctx, sampleRecords()); err != nil {
		t.Fatalf("import: %v", err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{name: "topic", filter: Filter{Topics: []string{"Leadership"}}, want: []int64{1, 2}},
		{name: "default subtopic", filter: Filter{Subtopics: []string{"General"}}, want: []int64{2}},
		{name: "kind label any case", filter: Filter{KindLabels: []string{"mcq"}}, want: []int64{2}},
		{name: "combined", filter: Filter{Topics: []string{"Geography"}, Subtopics: []string{"Europe"}}, want: []int64{3}},
		{name: "injection stays a value", filter: Filter{Topics: []string{"x' OR '1'='1"}}, want: nil},
		{name: "blank values ignored", filter: Filter{Topics: []string{" "}}, want: []int64{1, 2, 3}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.LoadRecords(ctx, tc.filter)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d records, got %d", len(tc.want), len(got))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("expected id %d at %d, got %d", id, i, got[i].ID)
				}
			}
		})
	}

	// children are filtered with the same predicate
	got, _ := svc.LoadRecords(ctx, Filter{Topics: []string{"Geography"}})
	if len(got) != 1 || len(got[0].Options) != 1 {
		t.Fatalf("expected only the matching question's options, got %+v", got)
	}
}

func TestGetRecord(t *testing.T) {
	svc := openTestBank(t)
	ctx := context.Background()
	if _, err := svc.ImportRecords(ctx, sampleRecords()); err != nil {
		t.Fatalf("import: %v", err)
	}
	rec, err := svc.GetRecord(ctx, 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Prompt != "Match capitals" {
		t.Fatalf("expected record 3, got %+v", rec)
	}
	if _, err := svc.GetRecord(ctx, 42); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
	if _, err := svc.GetRecord(ctx, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSearchRecords(t *testing.T) {
	svc := openTestBank(t)
	ctx := context.Background()
	if _, err := svc.ImportRecords(ctx, sampleRecords()); err != nil {
		t.Fatalf("import: %v", err)
	}

	got, err := svc.SearchRecords(ctx, "CAPITALS")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("expected record 3, got %+v", got)
	}

	got, err = svc.SearchRecords(ctx, "50%")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected literal percent match on record 2, got %+v", got)
	}

	got, _ = svc.SearchRecords(ctx, "%")
	if len(got) != 1 {
		t.Fatalf("expected wildcard to be escaped, got %d records", len(got))
	}

	if _, err := svc.SearchRecords(ctx, "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestOverview(t *testing.T) {
	svc := openTestBank(t)
	ctx := context.Background()
	if _, err := svc.ImportRecords(ctx, sampleRecords()); err != nil {
		t.Fatalf("import: %v", err)
	}
	ov, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.Questions != 3 || ov.Options != 6 || ov.Pairs != 2 {
		t.Fatalf("expected 3/6/2, got %d/%d/%d", ov.Questions, ov.Options, ov.Pairs)
	}
	if len(ov.Kinds) != 3 {
		t.Fatalf("expected 3 kind labels, got %+v", ov.Kinds)
	}
	if len(ov.Topics) != 2 || ov.Topics[1].Topic != "Leadership" || ov.Topics[1].Count != 2 {
		t.Fatalf("expected Geography and Leadership, got %+v", ov.Topics)
	}
	if len(ov.Topics[1].Subtopics) != 2 {
		t.Fatalf("expected Leadership subtopics Delegation and General, got %+v", ov.Topics[1].Subtopics)
	}
}

func TestImportRecordsGeneratedIDs(t *testing.T) {
	svc := openTestBank(t)
	ctx := context.Background()
	recs := sampleRecords()
	for i := range recs {
		recs[i].ID = 0
	}
	ids, err := svc.ImportRecords(ctx, recs)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(ids) != 3 || ids[0] == ids[1] {
		t.Fatalf("expected 3 distinct generated ids, got %v", ids)
	}
	if _, err := svc.ImportRecords(ctx, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestImportRollsBackOnConflict(t *testing.T) {
	svc := openTestBank(t)
	ctx := context.Background()
	recs := sampleRecords()
	if _, err := svc.ImportRecords(ctx, recs[:1]); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, err := svc.ImportRecords(ctx, []question.RawQuestionRecord{recs[2], recs[0]}); err == nil {
		t.Fatalf("expected duplicate id error")
	}
	got, _ := svc.LoadRecords(ctx, Filter{})
	if len(got) != 1 {
		t.Fatalf("expected failed batch to roll back, got %d records", len(got))
	}
}

func TestFilterMatches(t *testing.T) {
	recs := sampleRecords()
	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{name: "empty", filter: Filter{}, want: []int64{1, 2, 3}},
		{name: "topic", filter: Filter{Topics: []string{"Leadership"}}, want: []int64{1, 2}},
		{name: "default subtopic", filter: Filter{Subtopics: []string{"General"}}, want: []int64{2}},
		{name: "label any case", filter: Filter{KindLabels: []string{" true/false "}}, want: []int64{1}},
		{name: "no match", filter: Filter{Topics: []string{"History"}}, want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got []int64
			for _, rec := range recs {
				if tc.filter.Matches(rec) {
					got = append(got, rec.ID)
				}
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}

func TestFilterTrimsTopicOnBothPaths(t *testing.T) {
	svc := openTestBank(t)
	ctx := context.Background()

	padded := question.RawQuestionRecord{
		ID: 9, KindLabel: "MCQ", Prompt: "Padded topic", Topic: "  Leadership ", Subtopic: " Delegation",
		Options: []question.OptionRecord{{Text: "x", IsCorrect: true}, {Text: "y"}},
	}
	if _, err := svc.ImportRecords(ctx, []question.RawQuestionRecord{padded}); err != nil {
		t.Fatalf("import: %v", err)
	}

	filter := Filter{Topics: []string{"Leadership"}, Subtopics: []string{"Delegation"}}
	if !filter.Matches(padded) {
		t.Fatalf("expected in-memory filter to match padded topic")
	}
	got, err := svc.LoadRecords(ctx, filter)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].ID != 9 {
		t.Fatalf("expected SQL filter to match padded topic, got %+v", got)
	}
}
