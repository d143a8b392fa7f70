package exam

import (
	"fmt"
	"strings"
)

// FeedbackMode decides when verdicts are shown.
type FeedbackMode string

const (
	FeedbackImmediate FeedbackMode = "immediate"
	FeedbackDeferred  FeedbackMode = "deferred"
)

// ExplanationPolicy decides when a question's explanation is shown with
// its verdict.
type ExplanationPolicy string

const (
	ExplainAlways    ExplanationPolicy = "always"
	ExplainWhenWrong ExplanationPolicy = "when-wrong"
	ExplainNever     ExplanationPolicy = "never"
)

func ParseFeedbackMode(raw string) (FeedbackMode, error) {
	switch FeedbackMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FeedbackImmediate:
		return FeedbackImmediate, nil
	case FeedbackDeferred:
		return FeedbackDeferred, nil
	default:
		return "", fmt.Errorf("%w: feedback mode %q", ErrInvalidArgument, raw)
	}
}

func ParseExplanationPolicy(raw string) (ExplanationPolicy, error) {
	switch ExplanationPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExplainAlways:
		return ExplainAlways, nil
	case ExplainWhenWrong, "when_wrong", "wrong":
		return ExplainWhenWrong, nil
	case ExplainNever:
		return ExplainNever, nil
	default:
		return "", fmt.Errorf("%w: explanation policy %q", ErrInvalidArgument, raw)
	}
}

// canRevealResult reports whether verdicts may be shown to the taker.
func canRevealResult(mode FeedbackMode, finished bool) bool {
	if finished {
		return true
	}
	switch mode {
	case FeedbackImmediate:
		return true
	case FeedbackDeferred:
		return false
	default:
		return false
	}
}

// showExplanation applies the explanation policy to a revealed verdict.
func showExplanation(policy ExplanationPolicy, correct bool) bool {
	switch policy {
	case ExplainAlways:
		return true
	case ExplainWhenWrong:
		return !correct
	default:
		return false
	}
}

// retryAllowed reports whether a wrong answer leaves the question open for
// another attempt. Retries need an immediate verdict.
func retryAllowed(mode FeedbackMode, retries bool) bool {
	return retries && mode == FeedbackImmediate
}
