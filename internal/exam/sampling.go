package exam

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"quizbank/internal/question"
)

// Strategy selects how questions are drawn from the pool.
type Strategy string

const (
	StrategyUniform  Strategy = "uniform"
	StrategyBalanced Strategy = "balanced"
)

func ParseStrategy(raw string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", StrategyUniform:
		return StrategyUniform, nil
	case StrategyBalanced:
		return StrategyBalanced, nil
	default:
		return "", fmt.Errorf("%w: sampling strategy %q", ErrInvalidArgument, raw)
	}
}

// NewRand returns a generator seeded from the clock.
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
}

// Sample draws min(n, len(pool)) distinct questions and shuffles each one's
// options. A nil rng uses a clock-seeded generator.
func Sample(pool []question.ValidatedQuestion, n int, strategy Strategy, rng *rand.Rand) ([]SessionQuestion, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: sample size must be at least 1, got %d", ErrInvalidArgument, n)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: question pool is empty", ErrInvalidArgument)
	}
	if rng == nil {
		rng = NewRand()
	}
	if n > len(pool) {
		n = len(pool)
	}

	var picked []int
	switch strategy {
	case StrategyUniform, "":
		picked = pickUniform(len(pool), n, rng)
	case StrategyBalanced:
		picked = pickBalanced(pool, n, rng)
	default:
		return nil, fmt.Errorf("%w: sampling strategy %q", ErrInvalidArgument, strategy)
	}

	out := make([]SessionQuestion, 0, len(picked))
	for _, i := range picked {
		out = append(out, newSessionQuestion(pool[i], rng))
	}
	return out, nil
}

func pickUniform(size, n int, rng *rand.Rand) []int {
	idx := make([]int, size)
	for i := range idx {
		idx[i] = i
	}
	rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	return idx[:n]
}

type topicKey struct {
	topic, subtopic string
}

// pickBalanced takes one question from each (topic, subtopic) group in a
// shuffled group order, then fills any remainder uniformly from the unused
// questions.
func pickBalanced(pool []question.ValidatedQuestion, n int, rng *rand.Rand) []int {
	var order []topicKey
	groups := map[topicKey][]int{}
	for i, q := range pool {
		k := topicKey{topic: q.Topic, subtopic: q.Subtopic}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	picked := make([]int, 0, n)
	used := make(map[int]bool, n)
	for _, k := range order {
		if len(picked) == n {
			break
		}
		members := groups[k]
		pick := members[rng.IntN(len(members))]
		picked = append(picked, pick)
		used[pick] = true
	}

	if len(picked) < n {
		rest := make([]int, 0, len(pool)-len(picked))
		for i := range pool {
			if !used[i] {
				rest = append(rest, i)
			}
		}
		rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
		picked = append(picked, rest[:n-len(picked)]...)
	}
	return picked
}
