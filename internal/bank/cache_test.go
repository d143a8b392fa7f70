package bank

import (
	"context"
	"os"
	"testing"
	"time"

	"quizbank/internal/question"
)

func TestCacheKey(t *testing.T) {
	base := cacheKey(Filter{Topics: []string{"A", "B"}, KindLabels: []string{"MCQ"}})
	tests := []struct {
		name   string
		filter Filter
		same   bool
	}{
		{name: "value order", filter: Filter{Topics: []string{"B", "A"}, KindLabels: []string{"MCQ"}}, same: true},
		{name: "label case", filter: Filter{Topics: []string{"A", "B"}, KindLabels: []string{"mcq"}}, same: true},
		{name: "blank values", filter: Filter{Topics: []string{"A", " ", "B"}, KindLabels: []string{"MCQ"}}, same: true},
		{name: "topic case matters", filter: Filter{Topics: []string{"a", "b"}, KindLabels: []string{"MCQ"}}, same: false},
		{name: "field matters", filter: Filter{Subtopics: []string{"A", "B"}, KindLabels: []string{"MCQ"}}, same: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := cacheKey(tc.filter) == base; got != tc.same {
				t.Fatalf("expected same=%v for %+v", tc.same, tc.filter)
			}
		})
	}
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	ctx := context.Background()
	for _, url := range []string{"", "not-a-url"} {
		if _, err := NewRedisClient(ctx, url); err == nil {
			t.Fatalf("expected error for %q", url)
		}
	}
}

type countingSource struct {
	calls   int
	records []question.RawQuestionRecord
}

func (s *countingSource) LoadRecords(context.Context, Filter) ([]question.RawQuestionRecord, error) {
	s.calls++
	return s.records, nil
}

func TestCachedSourceIntegration(t *testing.T) {
	if os.Getenv("QUIZBANK_INTEGRATION") != "1" {
		t.Skip("set QUIZBANK_INTEGRATION=1 to run integration test")
	}
	url := os.Getenv("QUIZBANK_TEST_REDIS_URL")
	if url == "" {
		t.Skip("QUIZBANK_TEST_REDIS_URL is required")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	src := &countingSource{records: sampleRecords()}
	cached := NewCachedSource(src, client, time.Minute)
	if err := cached.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	f := Filter{Topics: []string{"Leadership"}}
	for i := 0; i < 2; i++ {
		got, err := cached.LoadRecords(ctx, f)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(got) != 3 || got[2].Pairs[0].Left != "France" {
			t.Fatalf("unexpected records %+v", got)
		}
	}
	if src.calls != 1 {
		t.Fatalf("expected one source call, got %d", src.calls)
	}

	if err := cached.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := cached.LoadRecords(ctx, f); err != nil {
		t.Fatalf("load: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("expected a miss after invalidate, got %d calls", src.calls)
	}
}
