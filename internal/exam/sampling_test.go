package exam

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"testing"

	"quizbank/internal/question"
)

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func buildPool(topics map[string]int) []question.ValidatedQuestion {
	names := make([]string, 0, len(topics))
	for name := range topics {
		names = append(names, name)
	}
	sort.Strings(names)

	var pool []question.ValidatedQuestion
	id := int64(1)
	for _, name := range names {
		for i := 0; i < topics[name]; i++ {
			pool = append(pool, question.ValidatedQuestion{
				ID:        id,
				Kind:      question.KindSingleChoice,
				Prompt:    fmt.Sprintf("%s %d", name, i),
				Topic:     name,
				Subtopic:  question.DefaultSubtopic,
				Options:   []string{"a", "b", "c", "d"},
				AnswerKey: question.AnswerKey{Shape: question.KeySingle, Single: "a"},
			})
			id++
		}
	}
	return pool
}

func TestSampleBounds(t *testing.T) {
	pool := buildPool(map[string]int{"A": 4, "B": 3})
	tests := []struct {
		name     string
		n        int
		strategy Strategy
		want     int
	}{
		{name: "uniform under", n: 3, strategy: StrategyUniform, want: 3},
		{name: "uniform clamp", n: 50, strategy: StrategyUniform, want: 7},
		{name: "balanced under", n: 5, strategy: StrategyBalanced, want: 5},
		{name: "balanced clamp", n: 8, strategy: StrategyBalanced, want: 7},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Sample(pool, tc.n, tc.strategy, testRand(7))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("expected %d questions, got %d", tc.want, len(got))
			}
			seen := map[int64]bool{}
			for _, q := range got {
				if seen[q.Question.ID] {
					t.Fatalf("question %d sampled twice", q.Question.ID)
				}
				seen[q.Question.ID] = true
				if q.State != StateDisabled {
					t.Fatalf("expected sampled question to start disabled, got %s", q.State)
				}
			}
		})
	}
}

func TestSampleInvalidArguments(t *testing.T) {
	pool := buildPool(map[string]int{"A": 2})
	if _, err := Sample(pool, 0, StrategyUniform, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for n=0, got %v", err)
	}
	if _, err := Sample(nil, 3, StrategyUniform, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for empty pool, got %v", err)
	}
	if _, err := Sample(pool, 1, Strategy("weighted"), nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for unknown strategy, got %v", err)
	}
}

func TestSampleBalancedCoverage(t *testing.T) {
	pool := buildPool(map[string]int{"A": 10, "B": 1, "C": 1})
	for seed := uint64(1); seed <= 20; seed++ {
		got, err := Sample(pool, 3, StrategyBalanced, testRand(seed))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		topics := map[string]bool{}
		for _, q := range got {
			topics[q.Question.Topic] = true
		}
		if len(topics) != 3 {
			t.Fatalf("seed %d: expected all 3 topics, got %v", seed, topics)
		}
	}
}

func TestSampleBalancedFillsUniformly(t *testing.T) {
	pool := buildPool(map[string]int{"A": 5, "B": 5, "C": 1})
	maxA := 0
	for seed := uint64(1); seed <= 500; seed++ {
		got, err := Sample(pool, 7, StrategyBalanced, testRand(seed))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		counts := map[string]int{}
		for _, q := range got {
			counts[q.Question.Topic]++
		}
		if counts["A"] < 1 || counts["B"] < 1 || counts["C"] != 1 {
			t.Fatalf("seed %d: expected every group covered, got %v", seed, counts)
		}
		maxA = max(maxA, counts["A"])
	}
	// one pick per group plus a uniform fill of 4 can take every A question
	if maxA <= 3 {
		t.Fatalf("expected the fill to take more than 3 from A in some draw, max was %d", maxA)
	}
}

func TestSampleShufflePreservesContent(t *testing.T) {
	pool := []question.ValidatedQuestion{
		singleQuestion(),
		matchingQuestion(),
	}
	pool[1].Pairs = append(pool[1].Pairs, question.MatchPair{Left: "z", Right: "3"})

	got, err := Sample(pool, 2, StrategyUniform, testRand(3))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, sq := range got {
		switch sq.Question.Kind {
		case question.KindMatching:
			if !equalSet(sq.Rights, sq.Question.RightValues()) {
				t.Fatalf("expected right values %v, got %v", sq.Question.RightValues(), sq.Rights)
			}
			if len(sq.Lefts) != len(sq.Question.Pairs) || sq.Lefts[0] != "x" {
				t.Fatalf("expected left column in pair order, got %v", sq.Lefts)
			}
		default:
			if !equalSet(sq.Choices, sq.Question.Options) {
				t.Fatalf("expected options %v, got %v", sq.Question.Options, sq.Choices)
			}
		}
	}
}

func TestSampleDoesNotMutatePool(t *testing.T) {
	pool := buildPool(map[string]int{"A": 5})
	before := append([]string(nil), pool[0].Options...)
	if _, err := Sample(pool, 5, StrategyUniform, testRand(11)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for i := range before {
		if pool[0].Options[i] != before[i] {
			t.Fatalf("expected pool options unchanged, got %v", pool[0].Options)
		}
	}
}
